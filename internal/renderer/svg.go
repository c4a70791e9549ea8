package renderer

import (
	"fmt"
	stdcolor "image/color"
	"io"
	"strconv"

	svg "github.com/ajstarks/svgo"

	"github.com/maax3v3/colorbynumber/internal/grid"
)

// errWriter remembers the first write error, since svgo does not report them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

// WriteSVG writes the template as scalable vector graphics: boundary pixels
// as horizontal runs of unit-height rectangles and region numbers as text.
func WriteSVG(w io.Writer, l Layout, cfg Config) error {
	ew := &errWriter{w: w}
	width, height := l.Labels.Width, l.Labels.Height
	large, small := FontSizes(width, height)

	canvas := svg.New(ew)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, "fill:"+rgb(cfg.Background))

	unowned := l.Ownership.Unowned()
	for i, b := range l.Boundaries.Bits {
		if b {
			unowned.Bits[i] = false
		}
	}
	canvas.Gstyle("fill:" + rgb(cfg.UnownedColor))
	writeRuns(canvas, unowned)
	canvas.Gend()

	canvas.Gstyle("fill:" + rgb(cfg.EdgeColor))
	writeRuns(canvas, l.Boundaries)
	canvas.Gend()

	canvas.Gstyle(fmt.Sprintf("font-family:sans-serif;text-anchor:middle;dominant-baseline:central;"+
		"fill:%s;stroke:%s;stroke-width:2;paint-order:stroke", rgb(cfg.InkColor), rgb(cfg.Background)))
	for i := range l.Regions {
		r := &l.Regions[i]
		var size int
		switch {
		case r.Size > cfg.LargeMinSize:
			size = large
		case r.Size > cfg.NumberMinSize:
			size = small
		default:
			continue
		}
		p := r.LabelPoint()
		if p.X < 0 || p.Y < 0 || p.X >= width || p.Y >= height {
			continue
		}
		canvas.Text(p.X, p.Y, strconv.Itoa(r.ColorNum), fmt.Sprintf("font-size:%dpx", size))
	}
	canvas.Gend()
	canvas.End()

	if ew.err != nil {
		return fmt.Errorf("writing svg: %w", ew.err)
	}
	return nil
}

// writeRuns emits one rectangle per horizontal run of set pixels.
func writeRuns(canvas *svg.SVG, m *grid.Mask) {
	for y := 0; y < m.Height; y++ {
		off := y * m.Width
		for x := 0; x < m.Width; {
			if !m.Bits[off+x] {
				x++
				continue
			}
			start := x
			for x < m.Width && m.Bits[off+x] {
				x++
			}
			canvas.Rect(start, y, x-start, 1)
		}
	}
}

func rgb(c stdcolor.RGBA) string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}
