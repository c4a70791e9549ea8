//go:build gocv

// Package gocv_compare checks the pure Go morphology and smoothing against
// OpenCV. These tests require OpenCV to be installed.
//
// Run with: go test -tags gocv ./internal/morph/gocv_compare/
package gocv_compare

import (
	"image"
	stdcolor "image/color"
	"testing"

	"gocv.io/x/gocv"

	"github.com/maax3v3/colorbynumber/internal/grid"
	"github.com/maax3v3/colorbynumber/internal/morph"
	"github.com/maax3v3/colorbynumber/internal/quantize"
)

// speckle returns a reproducible mask with scattered blobs and gaps.
func speckle(w, h int) *grid.Mask {
	m := grid.NewMask(w, h)
	state := uint32(12345)
	for i := range m.Bits {
		state = state*1103515245 + 12345
		m.Bits[i] = (state>>16)%5 < 2
	}
	return m
}

func maskToMat(m *grid.Mask) gocv.Mat {
	mat := gocv.NewMatWithSize(m.Height, m.Width, gocv.MatTypeCV8U)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			var v uint8
			if m.At(x, y) {
				v = 1
			}
			mat.SetUCharAt(y, x, v)
		}
	}
	return mat
}

func assertSameMask(t *testing.T, got *grid.Mask, want gocv.Mat) {
	t.Helper()
	for y := 0; y < got.Height; y++ {
		for x := 0; x < got.Width; x++ {
			if got.At(x, y) != (want.GetUCharAt(y, x) != 0) {
				t.Fatalf("pixel (%d,%d): go=%v opencv=%d", x, y, got.At(x, y), want.GetUCharAt(y, x))
			}
		}
	}
}

func TestDilateMatchesOpenCV(t *testing.T) {
	m := speckle(40, 30)
	src := maskToMat(m)
	defer src.Close()
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer kernel.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Dilate(src, &dst, kernel)

	assertSameMask(t, morph.Dilate(m, 1), dst)
}

func TestCloseMatchesOpenCV(t *testing.T) {
	m := speckle(50, 35)
	src := maskToMat(m)
	defer src.Close()
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer kernel.Close()

	// Two closing iterations are two dilations followed by two erosions.
	tmp := src.Clone()
	defer tmp.Close()
	for i := 0; i < 2; i++ {
		gocv.Dilate(tmp, &tmp, kernel)
	}
	for i := 0; i < 2; i++ {
		gocv.Erode(tmp, &tmp, kernel)
	}

	assertSameMask(t, morph.Close(m, 2), tmp)
}

func TestComponentCountMatchesOpenCV(t *testing.T) {
	m := speckle(60, 40)
	src := maskToMat(m)
	defer src.Close()

	labels := gocv.NewMat()
	defer labels.Close()
	n := gocv.ConnectedComponentsWithParams(src, &labels, 4, gocv.MatTypeCV32S, gocv.CCL_DEFAULT)

	comps, _ := morph.Components(m)
	// OpenCV counts the background as label 0.
	if len(comps) != n-1 {
		t.Errorf("go found %d components, opencv %d", len(comps), n-1)
	}
}

func TestBilateralCloseToOpenCV(t *testing.T) {
	w, h := 32, 24
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	defer mat.Close()
	state := uint32(99)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			state = state*1664525 + 1013904223
			base := uint8(60)
			if x > w/2 {
				base = 190
			}
			c := stdcolor.RGBA{base + uint8(state>>27), base, base - uint8(state>>28), 255}
			img.SetRGBA(x, y, c)
			mat.SetUCharAt(y, x*3, c.B)
			mat.SetUCharAt(y, x*3+1, c.G)
			mat.SetUCharAt(y, x*3+2, c.R)
		}
	}

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.BilateralFilter(mat, &dst, 9, 75, 75)
	got := quantize.Bilateral(img, 9, 75, 75)

	// OpenCV uses float32 accumulation; allow off-by-one rounding.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g := got.RGBAAt(x, y)
			for ch, v := range []uint8{g.B, g.G, g.R} {
				want := dst.GetUCharAt(y, x*3+ch)
				d := int(v) - int(want)
				if d < -1 || d > 1 {
					t.Fatalf("pixel (%d,%d) channel %d: go=%d opencv=%d", x, y, ch, v, want)
				}
			}
		}
	}
}
