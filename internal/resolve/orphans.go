// Package resolve assigns the pixels segmentation left without an owner:
// first by growing existing regions into them, then by nearest centroid.
package resolve

import (
	"fmt"
	"sync/atomic"

	"github.com/maax3v3/colorbynumber/internal/grid"
	"github.com/maax3v3/colorbynumber/internal/segment"
)

// MaxRounds bounds how many dilation steps GrowRegions may take.
const MaxRounds = 10

// GrowStats reports what GrowRegions did.
type GrowStats struct {
	Rounds    int // dilation rounds performed
	Claimed   int // pixels that gained an owner
	Remaining int // orphan pixels still unowned afterwards
}

// GrowRegions dilates the ownership grid with a 3×3 max filter, up to
// maxRounds times, letting regions claim adjacent unowned pixels. Owned
// pixels never change. It stops as soon as every orphan has an owner. The
// grid is updated in place and the regions are returned remeasured.
//
// Running out of rounds with orphans left is not an error; those pixels are
// left for FillHoles.
func GrowRegions(own *segment.Ownership, regions []segment.Region, orphans *grid.Mask, maxRounds int) ([]segment.Region, GrowStats, error) {
	var stats GrowStats
	if len(regions) == 0 {
		return nil, stats, fmt.Errorf("growing regions: %w", segment.ErrNoRegions)
	}

	stats.Remaining = remainingOrphans(own, orphans)
	next := make([]int, len(own.Owner))
	for stats.Rounds < maxRounds && stats.Remaining > 0 {
		claimed := dilateInto(own, next)
		own.Owner, next = next, own.Owner
		stats.Rounds++
		stats.Claimed += claimed
		regions = own.Measure(regions)
		stats.Remaining = remainingOrphans(own, orphans)
		if claimed == 0 {
			// Nothing can reach the remaining orphans.
			break
		}
	}
	return regions, stats, nil
}

// dilateInto writes one max-filter step of own into dst and returns how many
// pixels changed from unowned to owned.
func dilateInto(own *segment.Ownership, dst []int) int {
	w := own.Width
	var claimed atomic.Int64
	grid.ParallelRows(own.Height, func(sy, ey int) {
		n := 0
		for y := sy; y < ey; y++ {
			for x := 0; x < w; x++ {
				i := y*w + x
				v := own.Owner[i]
				if v == 0 {
					v = windowMax(own, x, y)
					if v != 0 {
						n++
					}
				}
				dst[i] = v
			}
		}
		claimed.Add(int64(n))
	})
	return int(claimed.Load())
}

func windowMax(own *segment.Ownership, x, y int) int {
	best := 0
	for dy := -1; dy <= 1; dy++ {
		ny := y + dy
		if ny < 0 || ny >= own.Height {
			continue
		}
		for dx := -1; dx <= 1; dx++ {
			nx := x + dx
			if nx < 0 || nx >= own.Width {
				continue
			}
			if v := own.Owner[ny*own.Width+nx]; v > best {
				best = v
			}
		}
	}
	return best
}

func remainingOrphans(own *segment.Ownership, orphans *grid.Mask) int {
	n := 0
	for i, o := range orphans.Bits {
		if o && own.Owner[i] == 0 {
			n++
		}
	}
	return n
}
