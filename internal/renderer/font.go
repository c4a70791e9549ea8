package renderer

import (
	"image"
	"image/color"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// FontRenderer is the interface for drawing text onto images.
// Implementations can be swapped (e.g., bitmap font, TTF font).
type FontRenderer interface {
	// DrawString draws the given text centered at (cx, cy) on the image
	// with the specified color and font size (approximate height in pixels).
	DrawString(img *image.RGBA, text string, cx, cy int, col color.Color, size int)

	// MeasureString returns the approximate width and height of the text
	// at the given font size.
	MeasureString(text string, size int) (width, height int)
}

// BitmapFont is a simple bitmap font renderer using hardcoded glyph data
// for digits 0-9. It needs no font file.
type BitmapFont struct{}

// NewBitmapFont creates a new BitmapFont.
func NewBitmapFont() *BitmapFont {
	return &BitmapFont{}
}

// glyphs are 5x7 pixel bitmaps for digits 0-9.
var glyphs = map[rune][7]uint8{
	'0': {0x0E, 0x11, 0x13, 0x15, 0x19, 0x11, 0x0E},
	'1': {0x04, 0x0C, 0x04, 0x04, 0x04, 0x04, 0x0E},
	'2': {0x0E, 0x11, 0x01, 0x06, 0x08, 0x10, 0x1F},
	'3': {0x0E, 0x11, 0x01, 0x06, 0x01, 0x11, 0x0E},
	'4': {0x02, 0x06, 0x0A, 0x12, 0x1F, 0x02, 0x02},
	'5': {0x1F, 0x10, 0x1E, 0x01, 0x01, 0x11, 0x0E},
	'6': {0x06, 0x08, 0x10, 0x1E, 0x11, 0x11, 0x0E},
	'7': {0x1F, 0x01, 0x02, 0x04, 0x08, 0x08, 0x08},
	'8': {0x0E, 0x11, 0x11, 0x0E, 0x11, 0x11, 0x0E},
	'9': {0x0E, 0x11, 0x11, 0x0F, 0x01, 0x02, 0x0C},
}

const (
	glyphWidth  = 5
	glyphHeight = 7
)

func bitmapScale(size int) int {
	scale := size / glyphHeight
	if scale < 1 {
		scale = 1
	}
	return scale
}

func (bf *BitmapFont) DrawString(img *image.RGBA, text string, cx, cy int, col color.Color, size int) {
	scale := bitmapScale(size)
	totalW, totalH := bf.MeasureString(text, size)
	startX := cx - totalW/2
	startY := cy - totalH/2
	b := img.Bounds()

	curX := startX
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			curX += (glyphWidth + 1) * scale
			continue
		}
		for row := 0; row < glyphHeight; row++ {
			for bit := 0; bit < glyphWidth; bit++ {
				if glyph[row]&(1<<(glyphWidth-1-bit)) == 0 {
					continue
				}
				// Draw a scale x scale block
				for dy := 0; dy < scale; dy++ {
					for dx := 0; dx < scale; dx++ {
						px := curX + bit*scale + dx
						py := startY + row*scale + dy
						if px >= 0 && px < b.Dx() && py >= 0 && py < b.Dy() {
							img.Set(px+b.Min.X, py+b.Min.Y, col)
						}
					}
				}
			}
		}
		curX += (glyphWidth + 1) * scale
	}
}

func (bf *BitmapFont) MeasureString(text string, size int) (width, height int) {
	scale := bitmapScale(size)
	n := len([]rune(text))
	if n == 0 {
		return 0, 0
	}
	w := n*(glyphWidth*scale) + (n-1)*scale
	h := glyphHeight * scale
	return w, h
}

// TrueTypeFont draws antialiased text with a parsed TrueType font. Faces
// are cached per size and safe for concurrent use.
type TrueTypeFont struct {
	font *truetype.Font

	mu    sync.Mutex
	faces map[int]font.Face
}

// NewTrueTypeFont parses a TrueType font file.
func NewTrueTypeFont(ttf []byte) (*TrueTypeFont, error) {
	f, err := truetype.Parse(ttf)
	if err != nil {
		return nil, err
	}
	return &TrueTypeFont{font: f, faces: make(map[int]font.Face)}, nil
}

// NewGoFont returns a TrueTypeFont using Go Regular.
func NewGoFont() (*TrueTypeFont, error) {
	return NewTrueTypeFont(goregular.TTF)
}

// DefaultFont returns Go Regular, or the bitmap font if it cannot be parsed.
func DefaultFont() FontRenderer {
	if f, err := NewGoFont(); err == nil {
		return f
	}
	return NewBitmapFont()
}

// face returns the cached face for a pixel size. font.Face is not safe for
// concurrent use, so callers hold t.mu while drawing with it.
func (t *TrueTypeFont) face(size int) font.Face {
	if f, ok := t.faces[size]; ok {
		return f
	}
	f := truetype.NewFace(t.font, &truetype.Options{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	t.faces[size] = f
	return f
}

func (t *TrueTypeFont) DrawString(img *image.RGBA, text string, cx, cy int, col color.Color, size int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	face := t.face(size)
	bounds, _ := font.BoundString(face, text)
	// Center the ink box, not the advance box, on (cx, cy).
	midX := (bounds.Min.X + bounds.Max.X) / 2
	midY := (bounds.Min.Y + bounds.Max.Y) / 2
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(cx, cy).Sub(fixed.Point26_6{X: midX, Y: midY}),
	}
	d.DrawString(text)
}

func (t *TrueTypeFont) MeasureString(text string, size int) (width, height int) {
	if text == "" {
		return 0, 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	bounds, _ := font.BoundString(t.face(size), text)
	return (bounds.Max.X - bounds.Min.X).Ceil(), (bounds.Max.Y - bounds.Min.Y).Ceil()
}

// drawOutlined draws text with a one-pixel halo in every direction, then the
// glyph itself, so it stays legible over any background.
func drawOutlined(img *image.RGBA, f FontRenderer, text string, cx, cy, size int, halo, ink color.Color) {
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx != 0 || dy != 0 {
				f.DrawString(img, text, cx+dx, cy+dy, halo, size)
			}
		}
	}
	f.DrawString(img, text, cx, cy, ink, size)
}
