// Package morph implements the binary morphology and connectivity analysis
// used by region segmentation: 3×3 dilation/erosion/closing, 4-connected
// component labeling, and hole filling.
package morph

import "github.com/maax3v3/colorbynumber/internal/grid"

// Dilate grows m by a 3×3 square, iterations times. Pixels outside the
// grid never contribute.
func Dilate(m *grid.Mask, iterations int) *grid.Mask {
	out := m.Clone()
	for i := 0; i < iterations; i++ {
		out = step(out, true)
	}
	return out
}

// Erode shrinks m by a 3×3 square, iterations times. Pixels outside the
// grid count as set, so shapes touching the border do not erode from it.
func Erode(m *grid.Mask, iterations int) *grid.Mask {
	out := m.Clone()
	for i := 0; i < iterations; i++ {
		out = step(out, false)
	}
	return out
}

// Close is dilation followed by erosion with the same iteration count. It
// bridges gaps narrower than the structuring element without growing the
// overall shape.
func Close(m *grid.Mask, iterations int) *grid.Mask {
	return Erode(Dilate(m, iterations), iterations)
}

// step applies one 3×3 max (dilate) or min (erode) pass.
func step(m *grid.Mask, dilate bool) *grid.Mask {
	w, h := m.Width, m.Height
	out := grid.NewMask(w, h)
	grid.ParallelRows(h, func(sy, ey int) {
		for y := sy; y < ey; y++ {
			for x := 0; x < w; x++ {
				out.Bits[y*w+x] = window(m, x, y, dilate)
			}
		}
	})
	return out
}

func window(m *grid.Mask, x, y int, dilate bool) bool {
	for dy := -1; dy <= 1; dy++ {
		ny := y + dy
		if ny < 0 || ny >= m.Height {
			continue
		}
		for dx := -1; dx <= 1; dx++ {
			nx := x + dx
			if nx < 0 || nx >= m.Width {
				continue
			}
			v := m.Bits[ny*m.Width+nx]
			if dilate && v {
				return true
			}
			if !dilate && !v {
				return false
			}
		}
	}
	return !dilate
}
