// Package grid holds the row-major rasters shared by the pipeline stages.
package grid

import "image"

// Labels is a grid of small integers, one per pixel. Quantization produces
// one with cluster indices; component labeling reuses it with component IDs.
type Labels struct {
	Width, Height int
	Data          []int // row-major: index = y*Width + x
}

// NewLabels allocates a zeroed label grid.
func NewLabels(w, h int) *Labels {
	return &Labels{Width: w, Height: h, Data: make([]int, w*h)}
}

// At returns the label at (x, y).
func (l *Labels) At(x, y int) int {
	return l.Data[y*l.Width+x]
}

// Set writes the label at (x, y).
func (l *Labels) Set(x, y, v int) {
	l.Data[y*l.Width+x] = v
}

// Equal builds the mask of pixels whose label is v.
func (l *Labels) Equal(v int) *Mask {
	m := NewMask(l.Width, l.Height)
	for i, lv := range l.Data {
		m.Bits[i] = lv == v
	}
	return m
}

// Mask is a boolean grid.
type Mask struct {
	Width, Height int
	Bits          []bool // row-major: index = y*Width + x
}

// NewMask allocates an all-false mask.
func NewMask(w, h int) *Mask {
	return &Mask{Width: w, Height: h, Bits: make([]bool, w*h)}
}

// At returns whether (x, y) is set. Out-of-bounds coordinates are unset.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Bits[y*m.Width+x]
}

// Set writes the bit at (x, y).
func (m *Mask) Set(x, y int, v bool) {
	m.Bits[y*m.Width+x] = v
}

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// Not returns the complement.
func (m *Mask) Not() *Mask {
	c := NewMask(m.Width, m.Height)
	for i, b := range m.Bits {
		c.Bits[i] = !b
	}
	return c
}

// Or sets every bit that is set in o.
func (m *Mask) Or(o *Mask) {
	for i, b := range o.Bits {
		if b {
			m.Bits[i] = true
		}
	}
}

// Clone returns a deep copy.
func (m *Mask) Clone() *Mask {
	c := &Mask{Width: m.Width, Height: m.Height, Bits: make([]bool, len(m.Bits))}
	copy(c.Bits, m.Bits)
	return c
}

// Bounds returns the smallest rectangle containing every set pixel, or the
// empty rectangle when nothing is set.
func (m *Mask) Bounds() image.Rectangle {
	var r image.Rectangle
	for y := 0; y < m.Height; y++ {
		off := y * m.Width
		for x := 0; x < m.Width; x++ {
			if m.Bits[off+x] {
				r = r.Union(image.Rect(x, y, x+1, y+1))
			}
		}
	}
	return r
}
