// Package suggest previews a palette for an image so a user can pick a color
// count before generating a template. It is independent of the pipeline and
// its output is not reproducible for every method.
package suggest

import (
	"errors"
	"fmt"
	"image"
	stdcolor "image/color"
	"log/slog"
	"math"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/maax3v3/colorbynumber/internal/color"
)

var (
	ErrNoCandidates  = errors.New("no candidate colors found")
	ErrUnknownMethod = errors.New("unknown palette method")
)

// Method selects how candidate colors are extracted.
type Method int

const (
	Dominant Method = iota
	KMeans
)

func (m Method) String() string {
	if m == KMeans {
		return "kmeans"
	}
	return "dominant"
}

// ParseMethod maps a method name to a Method.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "", "dominant":
		return Dominant, nil
	case "kmeans":
		return KMeans, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// Swatch is a palette color with the share of the image it stands for.
type Swatch struct {
	Color  color.RGBA
	Weight float64
}

// maxSamples bounds the pixels handed to k-means.
const maxSamples = 12000

// Candidates extracts more colors than needed, so Reduce has room to merge.
func Candidates(img image.Image, k int, m Method) ([]Swatch, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrNoCandidates)
	}
	var out []Swatch
	switch m {
	case KMeans:
		out = kmeansCandidates(img, max(k*4, k+2))
	default:
		for _, c := range dominantcolor.FindWeight(img, max(24, k*8)) {
			out = append(out, Swatch{Color: color.FromStdColor(c.RGBA), Weight: max(c.Weight, 1e-6)})
		}
	}
	if len(out) == 0 {
		return nil, ErrNoCandidates
	}
	return out, nil
}

func kmeansCandidates(img image.Image, n int) []Swatch {
	b := img.Bounds()
	step := 1
	if area := b.Dx() * b.Dy(); area > maxSamples {
		step = int(math.Sqrt(float64(area)/maxSamples)) + 1
	}

	var data clusters.Observations
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			r, g, bl, a := img.At(x, y).RGBA()
			if a == 0 {
				continue
			}
			data = append(data, clusters.Coordinates{
				float64(r) / 0xffff,
				float64(g) / 0xffff,
				float64(bl) / 0xffff,
			})
		}
	}
	n = min(n, len(data))
	if n == 0 {
		return nil
	}
	cc, err := kmeans.New().Partition(data, n)
	if err != nil {
		return nil
	}

	out := make([]Swatch, 0, len(cc))
	for _, c := range cc {
		if len(c.Observations) == 0 || len(c.Center) < 3 {
			continue
		}
		out = append(out, Swatch{
			Color: color.Opaque(
				unit255(c.Center[0]),
				unit255(c.Center[1]),
				unit255(c.Center[2]),
			),
			Weight: float64(len(c.Observations)),
		})
	}
	return out
}

func unit255(v float64) uint8 {
	return uint8(math.Round(max(0, min(1, v)) * 255))
}

// Reduce merges the two closest swatches in CIELAB until at most k remain.
// A merged swatch takes the weighted mean color and the summed weight.
// Exact duplicates are merged first. k <= 0 only merges duplicates.
func Reduce(swatches []Swatch, k int) []Swatch {
	groups := make([]Swatch, 0, len(swatches))
	index := make(map[color.RGBA]int)
	for _, s := range swatches {
		if i, ok := index[s.Color]; ok {
			groups[i].Weight += s.Weight
			continue
		}
		index[s.Color] = len(groups)
		groups = append(groups, s)
	}

	for k > 0 && len(groups) > k {
		bestDist := math.MaxFloat64
		bestI, bestJ := 0, 1
		for i := 0; i < len(groups); i++ {
			for j := i + 1; j < len(groups); j++ {
				d := color.DistanceLAB(groups[i].Color, groups[j].Color)
				if d < bestDist {
					bestDist = d
					bestI, bestJ = i, j
				}
			}
		}

		a, b := groups[bestI], groups[bestJ]
		groups[bestI] = Swatch{
			Color:  color.WeightedMean([]color.RGBA{a.Color, b.Color}, []float64{a.Weight, b.Weight}),
			Weight: a.Weight + b.Weight,
		}
		groups = append(groups[:bestJ], groups[bestJ+1:]...)
	}
	return groups
}

// SortByBrightness orders swatches from darkest to brightest.
func SortByBrightness(s []Swatch) {
	slices.SortStableFunc(s, func(a, b Swatch) int {
		la, lb := a.Color.Luminance(), b.Color.Luminance()
		switch {
		case la < lb:
			return -1
		case la > lb:
			return 1
		}
		return 0
	})
}

// Palette suggests k colors for img, darkest first.
func Palette(img image.Image, k int, m Method, log *slog.Logger) ([]Swatch, error) {
	if log == nil {
		log = slog.Default()
	}
	if k < 1 {
		return nil, fmt.Errorf("suggesting %d colors: count must be positive", k)
	}
	cands, err := Candidates(img, k, m)
	if err != nil && m == KMeans {
		log.Warn("kmeans found no colors, falling back to dominant", "error", err)
		cands, err = Candidates(img, k, Dominant)
	}
	if err != nil {
		return nil, fmt.Errorf("suggesting palette: %w", err)
	}
	log.Debug("palette candidates", "method", m, "count", len(cands))

	out := Reduce(cands, k)
	SortByBrightness(out)
	return out, nil
}

// Strip draws the swatches side by side as tile-sized squares.
func Strip(swatches []Swatch, tile int) *image.RGBA {
	if tile <= 0 {
		tile = 64
	}
	img := image.NewRGBA(image.Rect(0, 0, tile*len(swatches), tile))
	for i, s := range swatches {
		c := stdcolor.RGBA{R: s.Color.R, G: s.Color.G, B: s.Color.B, A: 255}
		for y := 0; y < tile; y++ {
			for x := i * tile; x < (i+1)*tile; x++ {
				img.SetRGBA(x, y, c)
			}
		}
	}
	return img
}
