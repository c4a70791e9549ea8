// Package sample draws a synthetic landscape for trying the generator
// without an input image.
package sample

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
)

// Palette of the scene.
var (
	SkyTop     = color.RGBA{90, 150, 220, 255}
	SkyBottom  = color.RGBA{170, 210, 240, 255}
	Sun        = color.RGBA{255, 210, 60, 255}
	Mountain   = color.RGBA{110, 100, 120, 255}
	Snow       = color.RGBA{245, 245, 250, 255}
	Grass      = color.RGBA{70, 160, 70, 255}
	Wall       = color.RGBA{230, 190, 140, 255}
	Roof       = color.RGBA{170, 50, 40, 255}
	Door       = color.RGBA{100, 60, 30, 255}
	Window     = color.RGBA{150, 200, 240, 255}
	Trunk      = color.RGBA{110, 70, 40, 255}
	Leaves     = color.RGBA{30, 110, 40, 255}
	Cloud      = color.RGBA{255, 255, 255, 255}
	FlowerPink = color.RGBA{240, 110, 170, 255}
)

// Scene draws the landscape at w×h. The same size always gives the same
// pixels.
func Scene(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if w <= 0 || h <= 0 {
		return img
	}
	p := painter{img: img, z: vector.NewRasterizer(w, h)}
	fw, fh := float32(w), float32(h)
	horizon := fh * 0.62

	// Sky in four bands so each band quantizes to its own color.
	for i := 0; i < 4; i++ {
		t := float64(i) / 3
		c := lerp(SkyTop, SkyBottom, t)
		y0 := horizon * float32(i) / 4
		y1 := horizon * float32(i+1) / 4
		p.polygon(c, pt(0, y0), pt(fw, y0), pt(fw, y1), pt(0, y1))
	}

	p.circle(Sun, fw*0.82, fh*0.16, min(fw, fh)*0.09)
	p.ellipse(Cloud, fw*0.22, fh*0.14, fw*0.09, fh*0.045)
	p.ellipse(Cloud, fw*0.30, fh*0.12, fw*0.07, fh*0.05)
	p.ellipse(Cloud, fw*0.58, fh*0.22, fw*0.08, fh*0.035)

	// Mountains, with a snow cap on the tallest.
	p.polygon(Mountain, pt(-fw*0.05, horizon), pt(fw*0.25, fh*0.28), pt(fw*0.55, horizon))
	p.polygon(Mountain, pt(fw*0.35, horizon), pt(fw*0.62, fh*0.34), pt(fw*0.95, horizon))
	p.polygon(Snow, pt(fw*0.25, fh*0.28), pt(fw*0.30, fh*0.35), pt(fw*0.20, fh*0.35))

	p.polygon(Grass, pt(0, horizon), pt(fw, horizon), pt(fw, fh), pt(0, fh))

	// House.
	hx, hy, hw, hh := fw*0.12, fh*0.58, fw*0.26, fh*0.22
	p.polygon(Wall, pt(hx, hy), pt(hx+hw, hy), pt(hx+hw, hy+hh), pt(hx, hy+hh))
	p.polygon(Roof, pt(hx-hw*0.08, hy), pt(hx+hw/2, hy-hh*0.6), pt(hx+hw*1.08, hy))
	p.polygon(Door, pt(hx+hw*0.42, hy+hh*0.4), pt(hx+hw*0.58, hy+hh*0.4), pt(hx+hw*0.58, hy+hh), pt(hx+hw*0.42, hy+hh))
	p.polygon(Window, pt(hx+hw*0.1, hy+hh*0.25), pt(hx+hw*0.3, hy+hh*0.25), pt(hx+hw*0.3, hy+hh*0.55), pt(hx+hw*0.1, hy+hh*0.55))
	p.polygon(Window, pt(hx+hw*0.7, hy+hh*0.25), pt(hx+hw*0.9, hy+hh*0.25), pt(hx+hw*0.9, hy+hh*0.55), pt(hx+hw*0.7, hy+hh*0.55))

	// Tree.
	tx := fw * 0.72
	p.polygon(Trunk, pt(tx-fw*0.02, fh*0.6), pt(tx+fw*0.02, fh*0.6), pt(tx+fw*0.02, fh*0.84), pt(tx-fw*0.02, fh*0.84))
	p.circle(Leaves, tx, fh*0.55, min(fw, fh)*0.12)

	// A row of flowers along the bottom.
	r := max(min(fw, fh)*0.018, 1.5)
	for i := 0; i < 7; i++ {
		fx := fw * (0.08 + 0.13*float32(i))
		fy := fh * (0.9 + 0.03*float32(i%2))
		p.circle(FlowerPink, fx, fy, r)
	}
	return img
}

func lerp(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.RGBA{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), 255}
}

type point struct{ x, y float32 }

func pt(x, y float32) point { return point{x, y} }

// painter fills shapes onto img with a reusable rasterizer.
type painter struct {
	img *image.RGBA
	z   *vector.Rasterizer
}

func (p *painter) polygon(c color.RGBA, pts ...point) {
	b := p.img.Bounds()
	p.z.Reset(b.Dx(), b.Dy())
	p.z.MoveTo(pts[0].x, pts[0].y)
	for _, q := range pts[1:] {
		p.z.LineTo(q.x, q.y)
	}
	p.z.ClosePath()
	p.z.DrawOp = draw.Over
	p.z.Draw(p.img, b, image.NewUniform(c), image.Point{})
}

const ellipseSegments = 48

func (p *painter) ellipse(c color.RGBA, cx, cy, rx, ry float32) {
	pts := make([]point, ellipseSegments)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / ellipseSegments
		pts[i] = pt(cx+rx*float32(math.Cos(a)), cy+ry*float32(math.Sin(a)))
	}
	p.polygon(c, pts...)
}

func (p *painter) circle(c color.RGBA, cx, cy, r float32) {
	p.ellipse(c, cx, cy, r, r)
}
