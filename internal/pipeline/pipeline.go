// Package pipeline runs the image-to-regions conversion: quantization,
// segmentation, orphan resolution, hole filling and boundary detection.
package pipeline

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/maax3v3/colorbynumber/internal/color"
	"github.com/maax3v3/colorbynumber/internal/edges"
	"github.com/maax3v3/colorbynumber/internal/grid"
	"github.com/maax3v3/colorbynumber/internal/imaging"
	"github.com/maax3v3/colorbynumber/internal/quantize"
	"github.com/maax3v3/colorbynumber/internal/renderer"
	"github.com/maax3v3/colorbynumber/internal/resolve"
	"github.com/maax3v3/colorbynumber/internal/segment"
)

// ErrInvalidConfig is returned when Run is given unusable parameters.
var ErrInvalidConfig = errors.New("invalid pipeline config")

// Config holds the generation parameters. A resumed session must use the
// same values to reproduce the same regions.
type Config struct {
	Colors         int    // K, 1..quantize.MaxColors
	MinRegionSize  int    // components below this many pixels become orphans
	ExactColors    bool   // display colors taken from the image rather than centroids
	FillMicroHoles bool   // assign pixels growth could not reach
	EdgeStyle      string // "seam" or "sobel"
	Seed           uint64 // k-means seed
}

// DefaultConfig returns the default generation parameters.
func DefaultConfig() Config {
	return Config{
		Colors:         15,
		MinRegionSize:  50,
		ExactColors:    true,
		FillMicroHoles: true,
		EdgeStyle:      "seam",
		Seed:           42,
	}
}

// Validate reports whether cfg can be run.
func (cfg Config) Validate() error {
	if cfg.Colors < 1 || cfg.Colors > quantize.MaxColors {
		return fmt.Errorf("%w: colors must be 1-%d, got %d", ErrInvalidConfig, quantize.MaxColors, cfg.Colors)
	}
	if cfg.MinRegionSize < 1 {
		return fmt.Errorf("%w: min region size must be at least 1, got %d", ErrInvalidConfig, cfg.MinRegionSize)
	}
	if _, err := edges.ForStyle(cfg.EdgeStyle); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Stats records what each stage did.
type Stats struct {
	Iterations  int     // k-means iterations of the winning run
	Inertia     float64 // k-means inertia of the winning run
	Segmented   int     // regions after segmentation
	Orphans     int     // pixels segmentation left unowned
	GrowRounds  int     // dilation rounds used by orphan resolution
	Grown       int     // pixels claimed by orphan resolution
	HolesFilled int     // pixels assigned by hole filling
}

// Result is one complete segmentation. It is never modified after Run
// returns; a new run produces a new Result.
type Result struct {
	Width, Height int

	Palette        []color.RGBA // Palette[n-1] is the display color of color number n
	OriginalColors []color.RGBA // rounded k-means centroids, same indexing
	Labels         *grid.Labels // quantization label per pixel, in [0, K)
	Ownership      *segment.Ownership
	Regions        []segment.Region // Regions[i].ID == i
	Boundaries     *grid.Mask

	// Unowned is the number of pixels without a region. It is zero when
	// hole filling ran.
	Unowned int
	Stats   Stats
}

// Run converts img into regions. On error no Result is returned.
func Run(img image.Image, cfg Config, log *slog.Logger) (*Result, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if img == nil {
		return nil, fmt.Errorf("input image is nil: %w", quantize.ErrEmptyImage)
	}

	rgba := imaging.ToRGBA(img)
	b := rgba.Bounds()
	log.Debug("starting generation", "width", b.Dx(), "height", b.Dy(), "colors", cfg.Colors, "min_region_size", cfg.MinRegionSize)

	start := time.Now()
	qcfg := quantize.DefaultConfig(cfg.Colors)
	qcfg.ExactColors = cfg.ExactColors
	qcfg.Seed = cfg.Seed
	q, err := quantize.Quantize(rgba, qcfg)
	if err != nil {
		return nil, fmt.Errorf("quantizing: %w", err)
	}
	log.Debug("quantized", "iterations", q.Iterations, "inertia", q.Inertia, "elapsed", time.Since(start))

	start = time.Now()
	seg, err := segment.Segment(q.Labels, cfg.Colors, cfg.MinRegionSize)
	if err != nil {
		return nil, fmt.Errorf("segmenting: %w", err)
	}
	stats := Stats{
		Iterations: q.Iterations,
		Inertia:    q.Inertia,
		Segmented:  len(seg.Regions),
		Orphans:    seg.Orphans.Count(),
	}
	log.Debug("segmented", "regions", stats.Segmented, "orphans", stats.Orphans, "elapsed", time.Since(start))

	start = time.Now()
	own := seg.Ownership
	regions, grow, err := resolve.GrowRegions(own, seg.Regions, seg.Orphans, resolve.MaxRounds)
	if err != nil {
		return nil, fmt.Errorf("resolving orphans: %w", err)
	}
	stats.GrowRounds = grow.Rounds
	stats.Grown = grow.Claimed
	log.Debug("grew regions", "rounds", grow.Rounds, "claimed", grow.Claimed, "remaining", grow.Remaining, "elapsed", time.Since(start))

	if cfg.FillMicroHoles {
		start = time.Now()
		var filled int
		regions, filled, err = resolve.FillHoles(own, regions, q.Labels)
		if err != nil {
			return nil, fmt.Errorf("filling holes: %w", err)
		}
		stats.HolesFilled = filled
		log.Debug("filled holes", "pixels", filled, "elapsed", time.Since(start))
	}

	detector, _ := edges.ForStyle(cfg.EdgeStyle)
	res := &Result{
		Width:          b.Dx(),
		Height:         b.Dy(),
		Palette:        q.Palette,
		OriginalColors: q.Centroids,
		Labels:         q.Labels,
		Ownership:      own,
		Regions:        regions,
		Boundaries:     detector.Detect(q.Labels),
		Unowned:        own.UnownedCount(),
		Stats:          stats,
	}
	if res.Unowned > 0 {
		log.Warn("pixels left without a region", "unowned", res.Unowned, "fill_micro_holes", cfg.FillMicroHoles)
	}
	return res, nil
}

// RegionAt returns the ID of the region under (x, y), or -1.
func (r *Result) RegionAt(x, y int) int {
	return r.Ownership.RegionAt(x, y)
}

// Region returns the region with the given ID.
func (r *Result) Region(id int) (segment.Region, bool) {
	if id < 0 || id >= len(r.Regions) {
		return segment.Region{}, false
	}
	return r.Regions[id], true
}

// Mask returns the pixels of region id.
func (r *Result) Mask(id int) *grid.Mask {
	return r.Ownership.Mask(id)
}

// Complete reports whether every pixel belongs to a region.
func (r *Result) Complete() bool {
	return r.Unowned == 0
}

// NumColors returns K.
func (r *Result) NumColors() int {
	return len(r.Palette)
}

// Layout returns the view of the result the renderers read.
func (r *Result) Layout() renderer.Layout {
	return renderer.Layout{
		Labels:     r.Labels,
		Ownership:  r.Ownership,
		Regions:    r.Regions,
		Boundaries: r.Boundaries,
		Palette:    r.Palette,
	}
}
