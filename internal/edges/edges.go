// Package edges finds the boundary pixels drawn as outlines on a template.
//
// Boundaries are computed from the raw quantization label grid, not from the
// final region ownership, so an outline may not follow a region whose edge
// moved during orphan resolution.
package edges

import (
	"fmt"

	"github.com/maax3v3/colorbynumber/internal/grid"
)

// Detector marks boundary pixels of a label grid.
type Detector interface {
	Detect(labels *grid.Labels) *grid.Mask
}

// Seam marks a pixel when its right or bottom neighbor carries a different
// label, producing a one-pixel seam on the near side of every color change.
type Seam struct{}

// Detect implements Detector.
func (Seam) Detect(labels *grid.Labels) *grid.Mask {
	w, h := labels.Width, labels.Height
	m := grid.NewMask(w, h)
	grid.ParallelRows(h, func(sy, ey int) {
		for y := sy; y < ey; y++ {
			off := y * w
			for x := 0; x < w; x++ {
				v := labels.Data[off+x]
				if x+1 < w && labels.Data[off+x+1] != v {
					m.Bits[off+x] = true
				} else if y+1 < h && labels.Data[off+w+x] != v {
					m.Bits[off+x] = true
				}
			}
		}
	})
	return m
}

// Sobel marks pixels where a 3×3 Sobel gradient of the label values is
// nonzero, then thickens the result with a 2×2 dilation. It gives two-pixel
// outlines straddling each color change.
type Sobel struct{}

// Detect implements Detector.
func (Sobel) Detect(labels *grid.Labels) *grid.Mask {
	w, h := labels.Width, labels.Height
	grad := grid.NewMask(w, h)
	at := func(x, y int) int {
		return labels.Data[reflect101(y, h)*w+reflect101(x, w)]
	}
	grid.ParallelRows(h, func(sy, ey int) {
		for y := sy; y < ey; y++ {
			for x := 0; x < w; x++ {
				gx := at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1) -
					at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1)
				gy := at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1) -
					at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1)
				grad.Bits[y*w+x] = gx != 0 || gy != 0
			}
		}
	})

	// 2×2 dilation anchored at the bottom-right cell.
	m := grid.NewMask(w, h)
	grid.ParallelRows(h, func(sy, ey int) {
		for y := sy; y < ey; y++ {
			for x := 0; x < w; x++ {
				m.Bits[y*w+x] = grad.At(x, y) || grad.At(x-1, y) ||
					grad.At(x, y-1) || grad.At(x-1, y-1)
			}
		}
	})
	return m
}

// ForStyle returns the detector registered under name: "seam" (default) or
// "sobel".
func ForStyle(name string) (Detector, error) {
	switch name {
	case "", "seam":
		return Seam{}, nil
	case "sobel":
		return Sobel{}, nil
	default:
		return nil, fmt.Errorf("unknown edge style %q (want seam or sobel)", name)
	}
}

// reflect101 mirrors i into [0, n) without repeating the edge sample.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*(n-1) - i
		}
	}
	return i
}
