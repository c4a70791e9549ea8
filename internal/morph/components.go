package morph

import (
	"image"

	"github.com/maax3v3/colorbynumber/internal/grid"
)

// Component is a 4-connected set of set pixels.
type Component struct {
	ID     int
	Pixels []image.Point // in BFS order from the first pixel found
	Bounds image.Rectangle
}

// Size returns the pixel count.
func (c *Component) Size() int {
	return len(c.Pixels)
}

var dirs4 = [4]image.Point{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// Components labels the 4-connected components of m by BFS flood fill.
// Components are numbered in raster order of their first pixel. The returned
// label grid holds the component ID for set pixels and -1 elsewhere.
func Components(m *grid.Mask) ([]Component, *grid.Labels) {
	w, h := m.Width, m.Height
	labels := grid.NewLabels(w, h)
	for i := range labels.Data {
		labels.Data[i] = -1
	}

	var comps []Component
	id := 0

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if !m.Bits[idx] || labels.Data[idx] != -1 {
				continue
			}
			// BFS flood-fill
			c := Component{ID: id}
			queue := []image.Point{{X: x, Y: y}}
			labels.Data[idx] = id

			for len(queue) > 0 {
				p := queue[0]
				queue = queue[1:]
				c.Pixels = append(c.Pixels, p)
				c.Bounds = c.Bounds.Union(image.Rect(p.X, p.Y, p.X+1, p.Y+1))

				for _, d := range dirs4 {
					nx, ny := p.X+d.X, p.Y+d.Y
					if nx < 0 || nx >= w || ny < 0 || ny >= h {
						continue
					}
					ni := ny*w + nx
					if !m.Bits[ni] || labels.Data[ni] != -1 {
						continue
					}
					labels.Data[ni] = id
					queue = append(queue, image.Point{X: nx, Y: ny})
				}
			}

			comps = append(comps, c)
			id++
		}
	}

	return comps, labels
}

// Holes returns the pixels enclosed by c: background pixels inside its
// bounds that cannot reach the outside through 4-connected background.
// Holes are listed in raster order.
func Holes(c *Component) []image.Point {
	b := c.Bounds
	if b.Dx() < 3 || b.Dy() < 3 {
		return nil
	}

	// Local frame: the bounds padded by one pixel of guaranteed background.
	w, h := b.Dx()+2, b.Dy()+2
	member := make([]bool, w*h)
	for _, p := range c.Pixels {
		member[(p.Y-b.Min.Y+1)*w+(p.X-b.Min.X+1)] = true
	}

	outside := make([]bool, w*h)
	outside[0] = true
	queue := []int{0}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		x, y := i%w, i/w
		for _, d := range dirs4 {
			nx, ny := x+d.X, y+d.Y
			if nx < 0 || nx >= w || ny < 0 || ny >= h {
				continue
			}
			ni := ny*w + nx
			if member[ni] || outside[ni] {
				continue
			}
			outside[ni] = true
			queue = append(queue, ni)
		}
	}

	var holes []image.Point
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			if !member[i] && !outside[i] {
				holes = append(holes, image.Point{X: x - 1 + b.Min.X, Y: y - 1 + b.Min.Y})
			}
		}
	}
	return holes
}
