// Package quantize reduces an RGB image to a fixed number of representative
// colors and a per-pixel cluster label grid.
package quantize

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/maax3v3/colorbynumber/internal/color"
	"github.com/maax3v3/colorbynumber/internal/grid"
)

// MaxColors bounds the number of clusters a caller may request.
const MaxColors = 64

var (
	// ErrEmptyImage is returned when the input has no pixels.
	ErrEmptyImage = errors.New("image has no pixels")
	// ErrInvalidColors is returned for a color count outside [1, MaxColors].
	ErrInvalidColors = errors.New("invalid color count")
)

// Config controls smoothing and clustering.
type Config struct {
	Colors      int  // K
	ExactColors bool // pick a representative pixel color instead of the centroid

	Seed          uint64
	Restarts      int
	MaxIterations int
	Tolerance     float64 // relative to the mean channel variance

	FilterDiameter int // bilateral neighborhood diameter; < 2 disables smoothing
	SigmaColor     float64
	SigmaSpace     float64
}

// DefaultConfig returns the clustering parameters used by the pipeline.
func DefaultConfig(colors int) Config {
	return Config{
		Colors:         colors,
		ExactColors:    true,
		Seed:           42,
		Restarts:       10,
		MaxIterations:  300,
		Tolerance:      1e-4,
		FilterDiameter: 9,
		SigmaColor:     75,
		SigmaSpace:     75,
	}
}

// Result is the output of Quantize.
type Result struct {
	Labels *grid.Labels // cluster index per pixel, in [0, K)

	// Palette[c] is the display color of cluster c (color number c+1).
	Palette []color.RGBA
	// Centroids[c] is the k-means center of cluster c, rounded.
	Centroids []color.RGBA
	// Counts[c] is the number of pixels assigned to cluster c.
	Counts []int

	Inertia    float64
	Iterations int
}

// Quantize smooths img and clusters its pixels into cfg.Colors groups.
func Quantize(img *image.RGBA, cfg Config) (*Result, error) {
	if cfg.Colors < 1 || cfg.Colors > MaxColors {
		return nil, fmt.Errorf("%w: %d (must be 1-%d)", ErrInvalidColors, cfg.Colors, MaxColors)
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, ErrEmptyImage
	}

	smoothed := img
	if cfg.FilterDiameter >= 2 {
		smoothed = Bilateral(img, cfg.FilterDiameter, cfg.SigmaColor, cfg.SigmaSpace)
	}

	// Distinct colors in order of first appearance, with pixel counts.
	hist := newHistogram(smoothed)

	points := make([]point, len(hist.colors))
	weights := make([]float64, len(hist.colors))
	for i, c := range hist.colors {
		points[i] = point{float64(c.R), float64(c.G), float64(c.B)}
		weights[i] = float64(hist.counts[i])
	}

	fit := kmeans(points, weights, cfg.Colors, cfg.Seed, cfg.Restarts, cfg.MaxIterations, cfg.Tolerance)
	for _, c := range fit.centers {
		if math.IsNaN(c[0]) || math.IsNaN(c[1]) || math.IsNaN(c[2]) {
			return nil, fmt.Errorf("k-means diverged: non-finite center %v", c)
		}
	}

	labels := grid.NewLabels(w, h)
	for i, ci := range hist.index {
		labels.Data[i] = fit.assign[ci]
	}

	res := &Result{
		Labels:     labels,
		Palette:    make([]color.RGBA, cfg.Colors),
		Centroids:  make([]color.RGBA, cfg.Colors),
		Counts:     make([]int, cfg.Colors),
		Inertia:    fit.inertia,
		Iterations: fit.iterations,
	}

	members := make([][]int, cfg.Colors) // cluster -> distinct color indices
	for ci, c := range fit.assign {
		members[c] = append(members[c], ci)
		res.Counts[c] += hist.counts[ci]
	}

	for c, center := range fit.centers {
		res.Centroids[c] = roundCenter(center)
		if cfg.ExactColors && len(members[c]) > 0 {
			res.Palette[c] = exactColor(hist, members[c], center)
		} else {
			res.Palette[c] = res.Centroids[c]
		}
	}
	return res, nil
}

func roundCenter(p point) color.RGBA {
	return color.Opaque(
		clampUint8(p[0]),
		clampUint8(p[1]),
		clampUint8(p[2]),
	)
}

// histogram lists the distinct colors of an image in raster order of first
// appearance.
type histogram struct {
	colors []color.RGBA
	counts []int
	index  []int // pixel -> distinct color index
}

func newHistogram(img *image.RGBA) *histogram {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	hist := &histogram{index: make([]int, w*h)}
	seen := make(map[uint32]int)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			c := color.Opaque(img.Pix[o], img.Pix[o+1], img.Pix[o+2])
			key := c.Pack()
			ci, ok := seen[key]
			if !ok {
				ci = len(hist.colors)
				seen[key] = ci
				hist.colors = append(hist.colors, c)
				hist.counts = append(hist.counts, 0)
			}
			hist.counts[ci]++
			hist.index[y*w+x] = ci
		}
	}
	return hist
}
