package quantize

import (
	"image"
	"math"

	"github.com/maax3v3/colorbynumber/internal/grid"
)

// Bilateral applies an edge-preserving bilateral filter. The neighborhood is
// the disc of radius diameter/2 around each pixel; the color term uses the
// L1 distance over RGB, and borders are mirrored without repeating the edge
// pixel (reflect-101).
//
// Performance notes:
//   - Spatial and color weights come from lookup tables.
//   - Parallelized across row bands; each worker only writes its own rows.
func Bilateral(src *image.RGBA, diameter int, sigmaColor, sigmaSpace float64) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst
	}

	radius := diameter / 2
	if radius < 1 {
		copy(dst.Pix, src.Pix)
		return dst
	}

	type tap struct {
		dx, dy int
		weight float64
	}
	spaceCoeff := -0.5 / (sigmaSpace * sigmaSpace)
	var taps []tap
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			r2 := float64(dx*dx + dy*dy)
			if math.Sqrt(r2) > float64(radius) {
				continue
			}
			taps = append(taps, tap{dx: dx, dy: dy, weight: math.Exp(r2 * spaceCoeff)})
		}
	}

	// L1 RGB distance is at most 3*255.
	colorCoeff := -0.5 / (sigmaColor * sigmaColor)
	colorWeight := make([]float64, 3*255+1)
	for i := range colorWeight {
		colorWeight[i] = math.Exp(float64(i*i) * colorCoeff)
	}

	grid.ParallelRows(h, func(sy, ey int) {
		for y := sy; y < ey; y++ {
			for x := 0; x < w; x++ {
				ci := src.PixOffset(b.Min.X+x, b.Min.Y+y)
				r0 := int(src.Pix[ci])
				g0 := int(src.Pix[ci+1])
				b0 := int(src.Pix[ci+2])

				var sumR, sumG, sumB, sumW float64
				for _, t := range taps {
					nx := reflect101(x+t.dx, w)
					ny := reflect101(y+t.dy, h)
					ni := src.PixOffset(b.Min.X+nx, b.Min.Y+ny)
					r := int(src.Pix[ni])
					g := int(src.Pix[ni+1])
					bb := int(src.Pix[ni+2])
					d := abs(r-r0) + abs(g-g0) + abs(bb-b0)
					wt := t.weight * colorWeight[d]
					sumR += float64(r) * wt
					sumG += float64(g) * wt
					sumB += float64(bb) * wt
					sumW += wt
				}

				oi := dst.PixOffset(x, y)
				dst.Pix[oi] = clampUint8(sumR / sumW)
				dst.Pix[oi+1] = clampUint8(sumG / sumW)
				dst.Pix[oi+2] = clampUint8(sumB / sumW)
				dst.Pix[oi+3] = 255
			}
		}
	})
	return dst
}

// reflect101 mirrors an out-of-range coordinate back into [0, n).
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clampUint8(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
