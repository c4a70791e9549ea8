package color

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// RGBA represents a color with 8-bit RGBA components.
type RGBA struct {
	R, G, B, A uint8
}

// Opaque returns a fully opaque color from its channels.
func Opaque(r, g, b uint8) RGBA {
	return RGBA{R: r, G: g, B: b, A: 255}
}

// FromStdColor converts a standard library color to RGBA.
func FromStdColor(c color.Color) RGBA {
	r, g, b, a := c.RGBA()
	return RGBA{
		R: uint8(r >> 8),
		G: uint8(g >> 8),
		B: uint8(b >> 8),
		A: uint8(a >> 8),
	}
}

// ToStdColor converts RGBA to a standard library color.
func (c RGBA) ToStdColor() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// Array returns the RGB channels, the shape used by saved progress documents.
func (c RGBA) Array() [3]uint8 {
	return [3]uint8{c.R, c.G, c.B}
}

// FromArray builds an opaque color from an [r, g, b] triple.
func FromArray(a [3]uint8) RGBA {
	return Opaque(a[0], a[1], a[2])
}

// Pack returns the color as a 24-bit 0xRRGGBB integer. Alpha is ignored.
func (c RGBA) Pack() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// Colorful converts the color for use with go-colorful. Alpha is dropped.
func (c RGBA) Colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

// FromColorful converts a go-colorful color, clamping it into gamut.
func FromColorful(c colorful.Color) RGBA {
	r, g, b := c.Clamped().RGB255()
	return Opaque(r, g, b)
}

// Hex formats the color as "#rrggbb".
func (c RGBA) Hex() string {
	return c.Colorful().Hex()
}

// DistanceLAB computes the Euclidean distance in CIELAB space.
func DistanceLAB(a, b RGBA) float64 {
	return a.Colorful().DistanceLab(b.Colorful())
}

// Luminance returns the relative luminance in [0, 1].
func (c RGBA) Luminance() float64 {
	r, g, b := c.Colorful().LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// ParseHex parses "#rgb" or "#rrggbb"; the leading '#' is optional.
func ParseHex(s string) (RGBA, error) {
	digits := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(digits) != 3 && len(digits) != 6 {
		return RGBA{}, fmt.Errorf("invalid hex color %q: want 3 or 6 hex digits", s)
	}
	c, err := colorful.Hex("#" + digits)
	if err != nil {
		return RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return FromColorful(c), nil
}

// Saturation is the spread between the strongest and weakest channel.
func (c RGBA) Saturation() int {
	hi := max(c.R, c.G, c.B)
	lo := min(c.R, c.G, c.B)
	return int(hi) - int(lo)
}

// WeightedMean computes the weighted mean of a set of colors.
// weights[i] corresponds to colors[i]. If weights is nil, equal weights are used.
func WeightedMean(colors []RGBA, weights []float64) RGBA {
	if len(colors) == 0 {
		return RGBA{}
	}
	var totalR, totalG, totalB, totalA float64
	var totalW float64
	for i, c := range colors {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		totalR += float64(c.R) * w
		totalG += float64(c.G) * w
		totalB += float64(c.B) * w
		totalA += float64(c.A) * w
		totalW += w
	}
	if totalW == 0 {
		return RGBA{}
	}
	return RGBA{
		R: uint8(math.Round(totalR / totalW)),
		G: uint8(math.Round(totalG / totalW)),
		B: uint8(math.Round(totalB / totalW)),
		A: uint8(math.Round(totalA / totalW)),
	}
}

// IsLight returns true if the color is perceptually light (luminance > 0.5).
func (c RGBA) IsLight() bool {
	return c.Luminance() > 0.5
}
