package renderer

import (
	"bytes"
	"image"
	"image/color"
	"slices"
	"strings"
	"testing"

	mcol "github.com/maax3v3/colorbynumber/internal/color"
	"github.com/maax3v3/colorbynumber/internal/edges"
	"github.com/maax3v3/colorbynumber/internal/grid"
	"github.com/maax3v3/colorbynumber/internal/segment"
)

func TestBitmapFont_MeasureString(t *testing.T) {
	bf := NewBitmapFont()

	tests := []struct {
		name         string
		text         string
		size         int
		wantW, wantH int
	}{
		{
			name: "empty string",
			text: "", size: 14,
			wantW: 0, wantH: 0,
		},
		{
			name: "single digit scale 1",
			text: "5", size: 7,
			wantW: 5, wantH: 7,
		},
		{
			name: "two digits scale 1",
			text: "12", size: 7,
			// 2 * (5*1) + (2-1)*1 = 11
			wantW: 11, wantH: 7,
		},
		{
			name: "single digit scale 2",
			text: "5", size: 14,
			wantW: 10, wantH: 14,
		},
		{
			name: "size smaller than glyph height uses scale 1",
			text: "0", size: 3,
			wantW: 5, wantH: 7,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := bf.MeasureString(tt.text, tt.size)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("MeasureString(%q, %d) = (%d, %d), want (%d, %d)",
					tt.text, tt.size, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func whiteCanvas(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
		}
	}
	return img
}

func countColor(img *image.RGBA, c color.RGBA) int {
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.RGBAAt(x, y) == c {
				n++
			}
		}
	}
	return n
}

func TestBitmapFont_DrawString_WritesPixels(t *testing.T) {
	bf := NewBitmapFont()
	img := whiteCanvas(50, 50)
	bf.DrawString(img, "1", 25, 25, color.Black, 7)
	if countColor(img, color.RGBA{0, 0, 0, 255}) == 0 {
		t.Error("DrawString did not write any pixels")
	}
}

func TestBitmapFont_DrawString_UnknownGlyph(t *testing.T) {
	bf := NewBitmapFont()
	img := whiteCanvas(50, 50)

	// Drawing a character with no glyph should not panic
	bf.DrawString(img, "X", 25, 25, color.Black, 7)

	if countColor(img, color.RGBA{0, 0, 0, 255}) != 0 {
		t.Fatal("unexpected black pixel for unknown glyph")
	}
}

func TestFontRendererImplementations(t *testing.T) {
	var _ FontRenderer = (*BitmapFont)(nil)
	var _ FontRenderer = (*TrueTypeFont)(nil)
}

func TestTrueTypeFont(t *testing.T) {
	f, err := NewGoFont()
	if err != nil {
		t.Fatalf("NewGoFont: %v", err)
	}
	w, h := f.MeasureString("12", 20)
	if w <= 0 || h <= 0 || h > 20 {
		t.Errorf("MeasureString = %dx%d", w, h)
	}
	if w0, h0 := f.MeasureString("", 20); w0 != 0 || h0 != 0 {
		t.Errorf("empty string measures %dx%d", w0, h0)
	}

	img := whiteCanvas(60, 60)
	f.DrawString(img, "8", 30, 30, color.Black, 20)
	// The ink must sit around the requested center.
	var sx, sy, n int
	for y := 0; y < 60; y++ {
		for x := 0; x < 60; x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r < 0x8000 {
				sx += x
				sy += y
				n++
			}
		}
	}
	if n == 0 {
		t.Fatal("DrawString wrote no dark pixels")
	}
	if cx, cy := sx/n, sy/n; cx < 26 || cx > 34 || cy < 26 || cy > 34 {
		t.Errorf("ink centered at (%d,%d), want near (30,30)", cx, cy)
	}
}

func TestDefaultFont(t *testing.T) {
	if _, ok := DefaultFont().(*TrueTypeFont); !ok {
		t.Error("DefaultFont should be the TrueType font")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.LegendPadding <= 0 || cfg.LegendCircleSize <= 0 ||
		cfg.LegendSpacing <= 0 || cfg.LegendMargin <= 0 {
		t.Errorf("default config has non-positive values: %+v", cfg)
	}
	if cfg.NumberMinSize != 200 || cfg.LargeMinSize != 500 {
		t.Errorf("number thresholds = %d/%d", cfg.NumberMinSize, cfg.LargeMinSize)
	}
}

func TestFontSizes(t *testing.T) {
	tests := []struct {
		w, h        int
		large, small int
	}{
		{100, 100, 10, 8},
		{800, 600, 12, 10},
		{2000, 1500, 30, 28},
		{20, 4000, 10, 8},
	}
	for _, tt := range tests {
		large, small := FontSizes(tt.w, tt.h)
		if large != tt.large || small != tt.small {
			t.Errorf("FontSizes(%d,%d) = %d,%d; want %d,%d", tt.w, tt.h, large, small, tt.large, tt.small)
		}
	}
}

// layoutOf segments labels with minimum size 1 and seam boundaries.
func layoutOf(t *testing.T, labels *grid.Labels, palette []mcol.RGBA) Layout {
	t.Helper()
	seg, err := segment.Segment(labels, len(palette), 1)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	return Layout{
		Labels:     labels,
		Ownership:  seg.Ownership,
		Regions:    seg.Regions,
		Boundaries: edges.Seam{}.Detect(labels),
		Palette:    palette,
	}
}

func twoColumnLabels(w, h int) *grid.Labels {
	l := grid.NewLabels(w, h)
	for y := 0; y < h; y++ {
		for x := w / 2; x < w; x++ {
			l.Set(x, y, 1)
		}
	}
	return l
}

var redBlue = []mcol.RGBA{mcol.Opaque(255, 0, 0), mcol.Opaque(0, 0, 255)}

func TestTemplate_SeamAndBackground(t *testing.T) {
	l := layoutOf(t, twoColumnLabels(4, 4), redBlue)
	out := Template(l, NewBitmapFont(), DefaultConfig())

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := DefaultBackground
			if x == 1 {
				want = DefaultEdgeColor
			}
			if got := out.RGBAAt(x, y); got != want {
				t.Errorf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestTemplate_UnownedPixels(t *testing.T) {
	l := layoutOf(t, twoColumnLabels(4, 4), redBlue)
	l.Ownership = &segment.Ownership{
		Width:  l.Ownership.Width,
		Height: l.Ownership.Height,
		Owner:  slices.Clone(l.Ownership.Owner),
	}
	l.Ownership.Owner[3*4+3] = 0 // (3,3), not a boundary
	l.Ownership.Owner[0*4+1] = 0 // (1,0), a boundary

	out := Template(l, NewBitmapFont(), DefaultConfig())
	if got := out.RGBAAt(3, 3); got != DefaultUnownedColor {
		t.Errorf("unowned pixel = %v, want %v", got, DefaultUnownedColor)
	}
	if got := out.RGBAAt(1, 0); got != DefaultEdgeColor {
		t.Errorf("unowned boundary pixel = %v, want edge color", got)
	}
}

func TestTemplate_Numbers(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		numbers bool
	}{
		{"large region", 30, 30, true},
		{"medium region", 16, 16, true},
		{"small region", 14, 14, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := layoutOf(t, grid.NewLabels(tt.w, tt.h), redBlue[:1])
			out := Template(l, NewBitmapFont(), DefaultConfig())
			ink := countColor(out, DefaultInkColor)
			if tt.numbers && ink == 0 {
				t.Error("expected the region number to be drawn")
			}
			if !tt.numbers && ink != 0 {
				t.Errorf("region of %d pixels should stay unlabeled", tt.w*tt.h)
			}
		})
	}
}

func TestColored(t *testing.T) {
	l := layoutOf(t, twoColumnLabels(4, 2), redBlue)
	out := Colored(l)
	if got := out.RGBAAt(0, 0); got != redBlue[0].ToStdColor() {
		t.Errorf("left = %v", got)
	}
	if got := out.RGBAAt(3, 1); got != redBlue[1].ToStdColor() {
		t.Errorf("right = %v", got)
	}
}

func TestProgress(t *testing.T) {
	l := layoutOf(t, twoColumnLabels(6, 4), redBlue)
	out := Progress(l, map[int]int{1: 2}, NewBitmapFont(), DefaultConfig())

	if got := out.RGBAAt(0, 0); got != DefaultBackground {
		t.Errorf("unfilled region pixel = %v, want background", got)
	}
	if got := out.RGBAAt(4, 2); got != redBlue[1].ToStdColor() {
		t.Errorf("filled region pixel = %v, want blue", got)
	}
	if got := out.RGBAAt(2, 0); got != DefaultEdgeColor {
		t.Errorf("boundary pixel = %v, want edge color", got)
	}
}

func TestWithLegend(t *testing.T) {
	img := whiteCanvas(200, 100)
	img.SetRGBA(5, 5, color.RGBA{1, 2, 3, 255})
	out := WithLegend(img, redBlue, NewBitmapFont(), DefaultConfig())

	if out.Bounds().Dx() != 200 || out.Bounds().Dy() <= 100 {
		t.Fatalf("bounds = %v", out.Bounds())
	}
	if got := out.RGBAAt(5, 5); got != (color.RGBA{1, 2, 3, 255}) {
		t.Errorf("source pixel not copied: %v", got)
	}
	if countColor(out, redBlue[0].ToStdColor()) == 0 || countColor(out, redBlue[1].ToStdColor()) == 0 {
		t.Error("legend swatches missing")
	}

	same := WithLegend(img, nil, NewBitmapFont(), DefaultConfig())
	if same.Bounds().Dy() != 100 {
		t.Errorf("empty palette grew the image to %v", same.Bounds())
	}
}

func TestCalculateLegendHeight(t *testing.T) {
	cfg := DefaultConfig()
	if h := calculateLegendHeight(0, cfg, 200); h != 0 {
		t.Errorf("expected 0 legend height for no entries, got %d", h)
	}
	one := calculateLegendHeight(2, cfg, 200)
	if one <= 0 {
		t.Errorf("expected positive legend height, got %d", one)
	}
	// 200px fits 3 items per row; 7 entries need 3 rows.
	if got := calculateLegendHeight(7, cfg, 200); got != one+2*(cfg.LegendCircleSize+cfg.LegendSpacing) {
		t.Errorf("7 entries: height %d", got)
	}
}

func TestWriteSVG(t *testing.T) {
	labels := twoColumnLabels(40, 30)
	l := layoutOf(t, labels, redBlue)

	var buf bytes.Buffer
	if err := WriteSVG(&buf, l, DefaultConfig()); err != nil {
		t.Fatalf("WriteSVG: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "<svg") || !strings.Contains(out, "</svg>") {
		t.Fatal("missing svg element")
	}
	// The seam is one column, so one run per row.
	if got := strings.Count(out, `width="1" height="1"`); got != 30 {
		t.Errorf("got %d boundary runs, want 30", got)
	}
	// Both regions hold 600 pixels and get a number.
	if !strings.Contains(out, ">1</text>") || !strings.Contains(out, ">2</text>") {
		t.Errorf("numbers missing from svg")
	}
}

func TestPageColors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Background = color.RGBA{250, 245, 230, 255}
	cfg.EdgeColor = color.RGBA{0, 0, 128, 255}
	cfg.InkColor = color.RGBA{128, 0, 0, 255}
	l := layoutOf(t, twoColumnLabels(40, 30), redBlue)

	out := Template(l, NewBitmapFont(), cfg)
	if got := out.RGBAAt(0, 0); got != cfg.Background {
		t.Errorf("background = %v, want %v", got, cfg.Background)
	}
	if got := out.RGBAAt(19, 0); got != cfg.EdgeColor {
		t.Errorf("boundary = %v, want %v", got, cfg.EdgeColor)
	}
	if countColor(out, cfg.InkColor) == 0 {
		t.Error("numbers not drawn in the ink color")
	}
	if countColor(out, DefaultEdgeColor) != 0 || countColor(out, DefaultInkColor) != 0 {
		t.Error("default colors leaked into a themed page")
	}

	var buf bytes.Buffer
	if err := WriteSVG(&buf, l, cfg); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"fill:rgb(250,245,230)", "fill:rgb(0,0,128)", "fill:rgb(128,0,0)"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("svg missing %q", want)
		}
	}
}
