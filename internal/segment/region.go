// Package segment turns a quantized label grid into connected, numbered
// regions held in a single ownership grid.
package segment

import (
	"image"
	"math"

	"github.com/maax3v3/colorbynumber/internal/grid"
)

// Centroid is a real-valued (row, col) position.
type Centroid struct {
	Row, Col float64
}

// Region is a connected set of pixels sharing one color number. Its pixels
// are not stored here: they are the cells of an Ownership grid holding ID+1.
type Region struct {
	ID       int
	ColorNum int // 1-based palette index
	Size     int
	Centroid Centroid
	Bounds   image.Rectangle
}

// LabelPoint returns the centroid rounded to the nearest pixel.
func (r *Region) LabelPoint() image.Point {
	return image.Point{
		X: int(math.Round(r.Centroid.Col)),
		Y: int(math.Round(r.Centroid.Row)),
	}
}

// Ownership maps every pixel to the region that owns it.
type Ownership struct {
	Width, Height int
	Owner         []int // row-major: 0 = unowned, else region ID+1
}

// NewOwnership allocates a grid with every pixel unowned.
func NewOwnership(w, h int) *Ownership {
	return &Ownership{Width: w, Height: h, Owner: make([]int, w*h)}
}

// RegionAt returns the ID of the region owning (x, y), or -1 when the pixel
// is unowned or outside the grid.
func (o *Ownership) RegionAt(x, y int) int {
	if x < 0 || y < 0 || x >= o.Width || y >= o.Height {
		return -1
	}
	return o.Owner[y*o.Width+x] - 1
}

// Mask returns the pixels owned by region id.
func (o *Ownership) Mask(id int) *grid.Mask {
	m := grid.NewMask(o.Width, o.Height)
	for i, v := range o.Owner {
		m.Bits[i] = v == id+1
	}
	return m
}

// Unowned returns the mask of pixels without an owner.
func (o *Ownership) Unowned() *grid.Mask {
	m := grid.NewMask(o.Width, o.Height)
	for i, v := range o.Owner {
		m.Bits[i] = v == 0
	}
	return m
}

// UnownedCount returns how many pixels have no owner.
func (o *Ownership) UnownedCount() int {
	n := 0
	for _, v := range o.Owner {
		if v == 0 {
			n++
		}
	}
	return n
}

// Measure returns a copy of regions with Size, Centroid and Bounds recomputed
// from the grid. A region that owns no pixel keeps its previous centroid.
func (o *Ownership) Measure(regions []Region) []Region {
	out := make([]Region, len(regions))
	copy(out, regions)

	sumRow := make([]float64, len(out))
	sumCol := make([]float64, len(out))
	for i := range out {
		out[i].Size = 0
		out[i].Bounds = image.Rectangle{}
	}
	for y := 0; y < o.Height; y++ {
		off := y * o.Width
		for x := 0; x < o.Width; x++ {
			id := o.Owner[off+x] - 1
			if id < 0 || id >= len(out) {
				continue
			}
			r := &out[id]
			r.Size++
			sumRow[id] += float64(y)
			sumCol[id] += float64(x)
			r.Bounds = r.Bounds.Union(image.Rect(x, y, x+1, y+1))
		}
	}
	for i := range out {
		if out[i].Size > 0 {
			n := float64(out[i].Size)
			out[i].Centroid = Centroid{Row: sumRow[i] / n, Col: sumCol[i] / n}
		}
	}
	return out
}
