// Package progress tracks which regions a user has filled and persists a
// session so it can be resumed by regenerating the same template.
package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/maax3v3/colorbynumber/internal/color"
	"github.com/maax3v3/colorbynumber/internal/imaging"
)

var (
	// ErrMissingImage is returned by Load when the companion original image
	// cannot be read.
	ErrMissingImage = errors.New("original image not found")
	// ErrMalformed is returned by Load for a document that cannot be parsed
	// or is internally inconsistent.
	ErrMalformed = errors.New("malformed progress document")
)

// Document is the saved state of a session. The segmentation itself is not
// stored: it is regenerated from the original image.
type Document struct {
	ColoredRegions map[string]int      `json:"colored_regions"` // region ID -> color number
	ColorPalette   map[string][3]uint8 `json:"color_palette"`   // color number -> RGB
	NumColors      int                 `json:"num_colors"`

	// Generation parameters, so a resume reproduces the same regions.
	// Documents written by older versions leave them unset.
	MinRegionSize  *int    `json:"min_region_size,omitempty"`
	UseExactColors *bool   `json:"use_exact_colors,omitempty"`
	FillMicroHoles *bool   `json:"fill_micro_holes,omitempty"`
	Seed           *uint64 `json:"seed,omitempty"`
	EdgeStyle      string  `json:"edge_style,omitempty"`
}

// Palette returns the palette as a slice indexed by color number - 1.
func (d *Document) Palette() []color.RGBA {
	p := make([]color.RGBA, d.NumColors)
	for k, rgb := range d.ColorPalette {
		n, err := strconv.Atoi(k)
		if err == nil && n >= 1 && n <= d.NumColors {
			p[n-1] = color.FromArray(rgb)
		}
	}
	return p
}

// Colored returns the filled regions keyed by integer region ID.
func (d *Document) Colored() map[int]int {
	out := make(map[int]int, len(d.ColoredRegions))
	for k, v := range d.ColoredRegions {
		if id, err := strconv.Atoi(k); err == nil {
			out[id] = v
		}
	}
	return out
}

// validate checks the document is self-consistent.
func (d *Document) validate() error {
	if d.NumColors < 1 {
		return fmt.Errorf("num_colors must be positive, got %d", d.NumColors)
	}
	if len(d.ColorPalette) != d.NumColors {
		return fmt.Errorf("palette has %d entries, num_colors is %d", len(d.ColorPalette), d.NumColors)
	}
	for k := range d.ColorPalette {
		n, err := strconv.Atoi(k)
		if err != nil || n < 1 || n > d.NumColors || strconv.Itoa(n) != k {
			return fmt.Errorf("invalid palette key %q", k)
		}
	}
	for k, v := range d.ColoredRegions {
		id, err := strconv.Atoi(k)
		if err != nil || id < 0 || strconv.Itoa(id) != k {
			return fmt.Errorf("invalid region id %q", k)
		}
		if v < 1 || v > d.NumColors {
			return fmt.Errorf("region %s has color %d outside 1-%d", k, v, d.NumColors)
		}
	}
	if d.MinRegionSize != nil && *d.MinRegionSize < 1 {
		return fmt.Errorf("min_region_size must be positive, got %d", *d.MinRegionSize)
	}
	return nil
}

// Paths returns the document path and its companion image paths for a save
// location. A trailing extension on path is replaced.
func Paths(path string) (doc, original, progress string) {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	return base + ".json", base + "_original.png", base + "_progress.png"
}

// Save writes the document and its companion images next to each other.
func Save(path string, doc *Document, original, progress image.Image) error {
	docPath, origPath, progPath := Paths(path)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding progress: %w", err)
	}
	if err := os.WriteFile(docPath, data, 0o644); err != nil {
		return fmt.Errorf("writing progress: %w", err)
	}
	if err := imaging.SavePNG(origPath, original); err != nil {
		return fmt.Errorf("saving original image: %w", err)
	}
	if progress != nil {
		if err := imaging.SavePNG(progPath, progress); err != nil {
			return fmt.Errorf("saving progress image: %w", err)
		}
	}
	return nil
}

// Load reads a saved document and its original image. It returns both or
// neither.
func Load(path string) (*Document, image.Image, error) {
	docPath, origPath, _ := Paths(path)

	data, err := os.ReadFile(docPath)
	if err != nil {
		return nil, nil, fmt.Errorf("reading progress: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := doc.validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc.ColoredRegions == nil {
		doc.ColoredRegions = map[string]int{}
	}

	img, err := imaging.Load(origPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrMissingImage, origPath, err)
	}
	return &doc, img, nil
}
