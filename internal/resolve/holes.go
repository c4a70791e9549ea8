package resolve

import (
	"fmt"

	"github.com/maax3v3/colorbynumber/internal/grid"
	"github.com/maax3v3/colorbynumber/internal/segment"
)

// FillHoles gives every unowned pixel to a region, visiting pixels in raster
// order. A pixel joins the region of its own quantized color whose centroid
// is nearest; when no region has that color it joins the nearest region of
// any color. Ties go to the lower region ID.
//
// Distances use the centroids as passed in, not as they shift while pixels
// are added. This is a centroid approximation: a concave region can win a
// pixel that visually sits closer to another region.
//
// Afterwards no pixel is unowned. The grid is updated in place and the
// regions are returned remeasured along with the number of pixels filled.
func FillHoles(own *segment.Ownership, regions []segment.Region, labels *grid.Labels) ([]segment.Region, int, error) {
	if len(regions) == 0 {
		return nil, 0, fmt.Errorf("filling holes: %w", segment.ErrNoRegions)
	}

	byColor := make(map[int][]int)
	for _, r := range regions {
		byColor[r.ColorNum] = append(byColor[r.ColorNum], r.ID)
	}
	all := make([]int, len(regions))
	for i := range regions {
		all[i] = regions[i].ID
	}

	filled := 0
	w := own.Width
	for y := 0; y < own.Height; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if own.Owner[i] != 0 {
				continue
			}
			candidates, ok := byColor[labels.Data[i]+1]
			if !ok {
				candidates = all
			}
			own.Owner[i] = nearest(regions, candidates, x, y) + 1
			filled++
		}
	}
	if filled == 0 {
		return regions, 0, nil
	}
	return own.Measure(regions), filled, nil
}

// nearest returns the ID among ids whose centroid has the smallest squared
// distance to (x, y). ids are ascending, so the first minimum is the lowest.
func nearest(regions []segment.Region, ids []int, x, y int) int {
	best := ids[0]
	bestDist := -1.0
	for _, id := range ids {
		c := regions[id].Centroid
		dr := float64(y) - c.Row
		dc := float64(x) - c.Col
		d := dr*dr + dc*dc
		if bestDist < 0 || d < bestDist {
			best = id
			bestDist = d
		}
	}
	return best
}
