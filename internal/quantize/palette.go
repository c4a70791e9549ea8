package quantize

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/maax3v3/colorbynumber/internal/color"
)

const (
	// topColors is how many of a cluster's most frequent exact colors are
	// considered as its display color.
	topColors = 10
	// vibrancyGain is how much more saturated the median must be to win
	// over the mode color.
	vibrancyGain = 1.2
)

// exactColor picks a display color that actually occurs in the cluster.
//
// Among the cluster's topColors most frequent colors, those at least half as
// frequent as the most frequent one compete on distance to the centroid
// truncated to integers (the "mode" color). The per-channel median is used instead when it is
// noticeably more saturated.
func exactColor(hist *histogram, members []int, center point) color.RGBA {
	top := make([]int, len(members))
	copy(top, members)
	// Frequency descending; members are in first-appearance order, which the
	// stable sort keeps for equal counts.
	sort.SliceStable(top, func(i, j int) bool {
		return hist.counts[top[i]] > hist.counts[top[j]]
	})
	if len(top) > topColors {
		top = top[:topColors]
	}

	target := []float64{math.Trunc(center[0]), math.Trunc(center[1]), math.Trunc(center[2])}
	mode := hist.colors[top[0]]
	topCount := hist.counts[top[0]]
	bestDist := math.Inf(1)
	for _, ci := range top {
		if 2*hist.counts[ci] < topCount {
			continue
		}
		c := hist.colors[ci]
		d := floats.Distance([]float64{float64(c.R), float64(c.G), float64(c.B)}, target, 2)
		if d < bestDist {
			bestDist = d
			mode = c
		}
	}

	median := medianColor(hist, members)
	if float64(median.Saturation()) > float64(mode.Saturation())*vibrancyGain {
		return median
	}
	return mode
}

// medianColor computes the per-channel median over every pixel of the
// cluster. For an even population the two middle values are averaged and
// truncated.
func medianColor(hist *histogram, members []int) color.RGBA {
	var chans [3][256]int
	total := 0
	for _, ci := range members {
		c := hist.colors[ci]
		n := hist.counts[ci]
		chans[0][c.R] += n
		chans[1][c.G] += n
		chans[2][c.B] += n
		total += n
	}

	var out [3]uint8
	for ch := range chans {
		if total%2 == 1 {
			out[ch] = uint8(nth(&chans[ch], total/2))
		} else {
			lo := nth(&chans[ch], total/2-1)
			hi := nth(&chans[ch], total/2)
			out[ch] = uint8((lo + hi) / 2)
		}
	}
	return color.Opaque(out[0], out[1], out[2])
}

// nth returns the value at 0-based rank k of a 256-bin histogram.
func nth(bins *[256]int, k int) int {
	seen := 0
	for v, n := range bins {
		seen += n
		if seen > k {
			return v
		}
	}
	return 255
}
