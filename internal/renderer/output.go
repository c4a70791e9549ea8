// Package renderer draws the printable template, the colored reference, the
// in-progress picture and the palette legend.
package renderer

import (
	"image"
	stdcolor "image/color"
	"image/draw"
	"math"
	"strconv"

	"github.com/maax3v3/colorbynumber/internal/color"
	"github.com/maax3v3/colorbynumber/internal/grid"
	"github.com/maax3v3/colorbynumber/internal/segment"
)

// Default page colors.
var (
	DefaultBackground   = stdcolor.RGBA{255, 255, 255, 255}
	DefaultEdgeColor    = stdcolor.RGBA{60, 60, 60, 255}
	DefaultUnownedColor = stdcolor.RGBA{240, 240, 240, 255}
	DefaultInkColor     = stdcolor.RGBA{0x33, 0x33, 0x33, 255}
)

// Config holds rendering configuration.
type Config struct {
	LegendPadding    int // vertical padding above the legend
	LegendCircleSize int // diameter of legend color circles
	LegendSpacing    int // horizontal spacing between legend items
	LegendMargin     int // left/right margin for the legend area

	// Regions larger than NumberMinSize pixels get their number drawn,
	// with the large font above LargeMinSize.
	NumberMinSize int
	LargeMinSize  int

	Background   stdcolor.RGBA // page, and the outline around numbers
	EdgeColor    stdcolor.RGBA // region boundaries
	UnownedColor stdcolor.RGBA // pixels no region owns
	InkColor     stdcolor.RGBA // region numbers
}

// DefaultConfig returns sensible default rendering configuration.
func DefaultConfig() Config {
	return Config{
		LegendPadding:    20,
		LegendCircleSize: 30,
		LegendSpacing:    15,
		LegendMargin:     20,
		NumberMinSize:    200,
		LargeMinSize:     500,
		Background:       DefaultBackground,
		EdgeColor:        DefaultEdgeColor,
		UnownedColor:     DefaultUnownedColor,
		InkColor:         DefaultInkColor,
	}
}

// Layout is the part of a segmentation the renderers read.
type Layout struct {
	Labels     *grid.Labels
	Ownership  *segment.Ownership
	Regions    []segment.Region
	Boundaries *grid.Mask
	Palette    []color.RGBA // Palette[n-1] is color number n
}

// FontSizes returns the large and small number sizes for a w×h raster.
func FontSizes(w, h int) (large, small int) {
	large = max(10, min(w, h)/50)
	small = max(8, large-2)
	return large, small
}

// Template renders the printable outline page: boundary pixels, pixels
// without an owner and each large enough region's number at its centroid,
// in the colors of cfg.
func Template(l Layout, font FontRenderer, cfg Config) *image.RGBA {
	w, h := l.Labels.Width, l.Labels.Height
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), image.NewUniform(cfg.Background), image.Point{}, draw.Src)

	grid.ParallelRows(h, func(sy, ey int) {
		for y := sy; y < ey; y++ {
			for x := 0; x < w; x++ {
				switch {
				case l.Boundaries.At(x, y):
					out.SetRGBA(x, y, cfg.EdgeColor)
				case l.Ownership.RegionAt(x, y) < 0:
					out.SetRGBA(x, y, cfg.UnownedColor)
				}
			}
		}
	})

	drawNumbers(out, l.Regions, nil, font, cfg)
	return out
}

// drawNumbers labels regions in ID order. Regions listed in skip are left
// unlabeled.
func drawNumbers(out *image.RGBA, regions []segment.Region, skip map[int]int, font FontRenderer, cfg Config) {
	b := out.Bounds()
	large, small := FontSizes(b.Dx(), b.Dy())
	for i := range regions {
		r := &regions[i]
		if _, done := skip[r.ID]; done {
			continue
		}
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
		if !p.In(b) {
			continue
		}
		drawOutlined(out, font, strconv.Itoa(r.ColorNum), p.X, p.Y, size, cfg.Background, cfg.InkColor)
	}
}

// Colored renders the reference picture: every pixel painted with the
// palette color of its quantization label.
func Colored(l Layout) *image.RGBA {
	w, h := l.Labels.Width, l.Labels.Height
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	grid.ParallelRows(h, func(sy, ey int) {
		for y := sy; y < ey; y++ {
			for x := 0; x < w; x++ {
				out.SetRGBA(x, y, l.Palette[l.Labels.At(x, y)].ToStdColor())
			}
		}
	})
	return out
}

// Progress renders the template with every filled region painted in its
// color. Boundaries stay visible on top; filled regions lose their number.
// colored maps region ID to the color number it was filled with.
func Progress(l Layout, colored map[int]int, font FontRenderer, cfg Config) *image.RGBA {
	w, h := l.Labels.Width, l.Labels.Height
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), image.NewUniform(cfg.Background), image.Point{}, draw.Src)

	grid.ParallelRows(h, func(sy, ey int) {
		for y := sy; y < ey; y++ {
			for x := 0; x < w; x++ {
				id := l.Ownership.RegionAt(x, y)
				switch {
				case l.Boundaries.At(x, y):
					out.SetRGBA(x, y, cfg.EdgeColor)
				case id < 0:
					out.SetRGBA(x, y, cfg.UnownedColor)
				default:
					if n, ok := colored[id]; ok && n >= 1 && n <= len(l.Palette) {
						out.SetRGBA(x, y, l.Palette[n-1].ToStdColor())
					}
				}
			}
		}
	})

	drawNumbers(out, l.Regions, colored, font, cfg)
	return out
}

// WithLegend returns a copy of img with a strip of numbered palette swatches
// appended below it.
func WithLegend(img *image.RGBA, palette []color.RGBA, font FontRenderer, cfg Config) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	legendHeight := calculateLegendHeight(len(palette), cfg, w)

	out := image.NewRGBA(image.Rect(0, 0, w, h+legendHeight))
	draw.Draw(out, out.Bounds(), image.NewUniform(cfg.Background), image.Point{}, draw.Src)
	draw.Draw(out, image.Rect(0, 0, w, h), img, b.Min, draw.Src)

	drawLegend(out, palette, font, cfg, w, h)
	return out
}

func calculateLegendHeight(entries int, cfg Config, imgW int) int {
	if entries == 0 {
		return 0
	}
	// Calculate how many rows we need
	itemsPerRow := legendItemsPerRow(cfg, imgW)
	numRows := (entries + itemsPerRow - 1) / itemsPerRow
	rowHeight := cfg.LegendCircleSize + cfg.LegendSpacing
	return cfg.LegendPadding + numRows*rowHeight + cfg.LegendPadding
}

func legendItemsPerRow(cfg Config, imgW int) int {
	itemWidth := cfg.LegendCircleSize + cfg.LegendSpacing
	availableW := imgW - 2*cfg.LegendMargin
	itemsPerRow := availableW / itemWidth
	if itemsPerRow < 1 {
		itemsPerRow = 1
	}
	return itemsPerRow
}

func drawLegend(img *image.RGBA, palette []color.RGBA, font FontRenderer, cfg Config, imgW, drawingH int) {
	if len(palette) == 0 {
		return
	}

	// Draw a thin separator line
	separatorY := drawingH + cfg.LegendPadding/2
	for x := cfg.LegendMargin; x < imgW-cfg.LegendMargin; x++ {
		img.SetRGBA(x, separatorY, stdcolor.RGBA{200, 200, 200, 255})
	}

	itemWidth := cfg.LegendCircleSize + cfg.LegendSpacing
	availableW := imgW - 2*cfg.LegendMargin
	itemsPerRow := legendItemsPerRow(cfg, imgW)

	fontSize := cfg.LegendCircleSize * 2 / 3
	radius := cfg.LegendCircleSize / 2

	for i, c := range palette {
		row := i / itemsPerRow
		col := i % itemsPerRow

		// Center items in each row
		rowItemCount := itemsPerRow
		remaining := len(palette) - row*itemsPerRow
		if remaining < itemsPerRow {
			rowItemCount = remaining
		}
		rowWidth := rowItemCount * itemWidth
		rowStartX := cfg.LegendMargin + (availableW-rowWidth)/2

		cx := rowStartX + col*itemWidth + radius
		cy := drawingH + cfg.LegendPadding + row*(cfg.LegendCircleSize+cfg.LegendSpacing) + radius

		drawFilledCircle(img, cx, cy, radius, c.ToStdColor())
		drawCircleBorder(img, cx, cy, radius, stdcolor.RGBA{100, 100, 100, 255})

		textColor := stdcolor.Color(stdcolor.Black)
		if !c.IsLight() {
			textColor = stdcolor.White
		}
		font.DrawString(img, strconv.Itoa(i+1), cx, cy, textColor, fontSize)
	}
}

func drawFilledCircle(img *image.RGBA, cx, cy, radius int, col stdcolor.RGBA) {
	b := img.Bounds()
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				px, py := cx+dx, cy+dy
				if px >= 0 && px < b.Dx() && py >= 0 && py < b.Dy() {
					img.SetRGBA(px, py, col)
				}
			}
		}
	}
}

func drawCircleBorder(img *image.RGBA, cx, cy, radius int, col stdcolor.RGBA) {
	b := img.Bounds()
	for angle := 0.0; angle < 2*math.Pi; angle += 0.01 {
		px := cx + int(math.Round(float64(radius)*math.Cos(angle)))
		py := cy + int(math.Round(float64(radius)*math.Sin(angle)))
		if px >= 0 && px < b.Dx() && py >= 0 && py < b.Dy() {
			img.SetRGBA(px, py, col)
		}
	}
}
