package segment

import (
	"errors"
	"fmt"

	"github.com/maax3v3/colorbynumber/internal/grid"
	"github.com/maax3v3/colorbynumber/internal/morph"
)

// CloseIterations is how many 3×3 closing steps merge near-adjacent
// fragments of one color before connectivity analysis.
const CloseIterations = 2

// ErrNoRegions is returned when no component reaches the minimum size.
var ErrNoRegions = errors.New("no regions produced")

// Segmentation is the output of Segment.
type Segmentation struct {
	Ownership *Ownership
	Regions   []Region
	Orphans   *grid.Mask // pixels no region claimed
}

// candidate is a component that passed the size threshold, with its pixels
// split by how they entered the region.
type candidate struct {
	color   int
	own     []int // pixels carrying the candidate's label
	closing []int // pixels added by morphological closing
	holes   []int // enclosed pixels added by hole filling
}

// Segment builds regions from labels, one color index at a time in
// ascending order. Components smaller than minSize pixels are dropped and
// their pixels reported as orphans. Region IDs follow color order, then the
// raster order in which components are discovered.
//
// Pixels are claimed in three passes so no pixel ever has two owners: first
// every candidate's own-label pixels, then the pixels closing added, then
// filled holes. A candidate left with nothing to claim is discarded.
func Segment(labels *grid.Labels, colors, minSize int) (*Segmentation, error) {
	if minSize < 1 {
		minSize = 1
	}

	perColor := candidatesByColor(labels, colors, minSize)

	var cands []candidate
	for _, cs := range perColor {
		cands = append(cands, cs...)
	}

	own := NewOwnership(labels.Width, labels.Height)
	claimed := make([]int, len(cands))
	claim := func(ci int, pixels []int) {
		for _, i := range pixels {
			if own.Owner[i] == 0 {
				own.Owner[i] = ci + 1
				claimed[ci]++
			}
		}
	}
	for ci := range cands {
		claim(ci, cands[ci].own)
	}
	for ci := range cands {
		claim(ci, cands[ci].closing)
	}
	for ci := range cands {
		claim(ci, cands[ci].holes)
	}

	// Renumber survivors densely in candidate order.
	remap := make([]int, len(cands)+1)
	var regions []Region
	for ci, c := range cands {
		if claimed[ci] == 0 {
			continue
		}
		id := len(regions)
		remap[ci+1] = id + 1
		regions = append(regions, Region{ID: id, ColorNum: c.color + 1})
	}
	if len(regions) == 0 {
		return nil, fmt.Errorf("segmenting %d colors with minimum size %d: %w", colors, minSize, ErrNoRegions)
	}
	for i, v := range own.Owner {
		own.Owner[i] = remap[v]
	}

	return &Segmentation{
		Ownership: own,
		Regions:   own.Measure(regions),
		Orphans:   own.Unowned(),
	}, nil
}

// candidatesByColor runs the per-color analysis on a small worker pool.
// Colors only read the shared label grid, and each result lands in its own
// slot, so the merge order does not depend on scheduling.
func candidatesByColor(labels *grid.Labels, colors, minSize int) [][]candidate {
	out := make([][]candidate, colors)

	work := make(chan int, colors)
	for c := 0; c < colors; c++ {
		work <- c
	}
	close(work)

	numWorkers := grid.Workers
	if colors < numWorkers {
		numWorkers = colors
	}

	done := make(chan struct{}, numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			for c := range work {
				out[c] = colorCandidates(labels, c, minSize)
			}
			done <- struct{}{}
		}()
	}
	for w := 0; w < numWorkers; w++ {
		<-done
	}
	return out
}

func colorCandidates(labels *grid.Labels, c, minSize int) []candidate {
	mask := labels.Equal(c)
	if mask.Count() == 0 {
		return nil
	}
	closed := morph.Close(mask, CloseIterations)
	comps, _ := morph.Components(closed)

	w := labels.Width
	var cands []candidate
	for i := range comps {
		comp := &comps[i]
		if comp.Size() < minSize {
			continue
		}
		cand := candidate{color: c}
		for _, p := range comp.Pixels {
			idx := p.Y*w + p.X
			if mask.Bits[idx] {
				cand.own = append(cand.own, idx)
			} else {
				cand.closing = append(cand.closing, idx)
			}
		}
		for _, p := range morph.Holes(comp) {
			cand.holes = append(cand.holes, p.Y*w+p.X)
		}
		cands = append(cands, cand)
	}
	return cands
}
