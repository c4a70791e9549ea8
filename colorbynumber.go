// Package colorbynumber turns a photo or drawing into a color-by-number
// template: a white picture split into numbered regions, a palette legend
// mapping each number to its color, and a tracker for filling regions in.
//
// Usage as a library:
//
//	img, _ := colorbynumber.LoadImage("photo.jpg")
//	t, _ := colorbynumber.Generate(img, colorbynumber.DefaultOptions())
//	colorbynumber.SavePNG("template.png", t.TemplateImage(true))
//
// A session can be saved and resumed later:
//
//	_ = t.Fill(0, t.Regions()[0].ColorNum)
//	_ = t.Save("session.json")
//	t, _ = colorbynumber.Resume("session.json", colorbynumber.DefaultOptions())
package colorbynumber

import (
	"fmt"
	"image"
	stdcolor "image/color"
	"io"
	"log/slog"

	"github.com/maax3v3/colorbynumber/internal/color"
	"github.com/maax3v3/colorbynumber/internal/imaging"
	"github.com/maax3v3/colorbynumber/internal/pipeline"
	"github.com/maax3v3/colorbynumber/internal/progress"
	"github.com/maax3v3/colorbynumber/internal/quantize"
	"github.com/maax3v3/colorbynumber/internal/renderer"
	"github.com/maax3v3/colorbynumber/internal/segment"
)

// Errors callers may check with errors.Is.
var (
	ErrInvalidOptions = pipeline.ErrInvalidConfig
	ErrEmptyImage     = quantize.ErrEmptyImage
	ErrNoRegions      = segment.ErrNoRegions
	ErrUnknownRegion  = progress.ErrUnknownRegion
	ErrWrongColor     = progress.ErrWrongColor
	ErrAlreadyColored = progress.ErrAlreadyColored
	ErrUnknownOrder   = progress.ErrUnknownOrder
	ErrMissingImage   = progress.ErrMissingImage
	ErrMalformed      = progress.ErrMalformed
	ErrUnresolved     = progress.ErrUnresolved
	ErrDiverged       = progress.ErrDiverged
)

// Edge styles.
const (
	EdgeSeam  = "seam"  // a pixel is a boundary when its right or bottom neighbour differs
	EdgeSobel = "sobel" // gradient magnitude of the label grid, thickened
)

// Options configures template generation.
type Options struct {
	// Colors is the palette size K, 1 to 64. Default: 15.
	Colors int

	// MinRegionSize is the smallest region kept as its own area. Smaller
	// patches are absorbed by their neighbours. Default: 50.
	MinRegionSize int

	// ExactColors takes display colors from the image instead of the
	// cluster centers. Default: true.
	ExactColors bool

	// FillMicroHoles assigns every pixel growth could not reach to the
	// nearest region. Default: true.
	FillMicroHoles bool

	// EdgeStyle is EdgeSeam or EdgeSobel. Default: EdgeSeam.
	EdgeStyle string

	// Seed drives k-means initialization. Default: 42.
	Seed uint64

	// MaxSide downsamples the input so its longest side is at most this
	// many pixels. 0 keeps the input size. Default: 800.
	MaxSide int

	// Page colors of the template, progress and SVG pictures. A zero
	// Color keeps the default: white page, dark gray edges and numbers.
	Background Color
	EdgeColor  Color
	InkColor   Color

	// Font draws region numbers. If nil, the bundled Go font is used.
	Font FontRenderer

	// Logger receives stage timings and warnings. If nil, slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	cfg := pipeline.DefaultConfig()
	return Options{
		Colors:         cfg.Colors,
		MinRegionSize:  cfg.MinRegionSize,
		ExactColors:    cfg.ExactColors,
		FillMicroHoles: cfg.FillMicroHoles,
		EdgeStyle:      cfg.EdgeStyle,
		Seed:           cfg.Seed,
		MaxSide:        imaging.DefaultMaxSide,
	}
}

func (o Options) pipelineConfig() pipeline.Config {
	return pipeline.Config{
		Colors:         o.Colors,
		MinRegionSize:  o.MinRegionSize,
		ExactColors:    o.ExactColors,
		FillMicroHoles: o.FillMicroHoles,
		EdgeStyle:      o.EdgeStyle,
		Seed:           o.Seed,
	}
}

// Color represents an RGBA color with 8-bit components.
type Color struct {
	R, G, B, A uint8
}

// Hex formats the color as "#rrggbb".
func (c Color) Hex() string {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A}.Hex()
}

// ParseHexColor parses "#rgb" or "#rrggbb" into a Color.
func ParseHexColor(hex string) (Color, error) {
	c, err := color.ParseHex(hex)
	if err != nil {
		return Color{}, err
	}
	return Color{R: c.R, G: c.G, B: c.B, A: c.A}, nil
}

// setIfPresent overwrites dst with c unless c is the zero Color.
func (c Color) setIfPresent(dst *stdcolor.RGBA) {
	if c != (Color{}) {
		*dst = stdcolor.RGBA{R: c.R, G: c.G, B: c.B, A: c.A}
	}
}

// FontRenderer is the interface for drawing text onto images.
// Implement this to provide a custom font.
type FontRenderer interface {
	// DrawString draws text centered at (cx, cy) on the image with the
	// specified color and approximate height in pixels.
	DrawString(img *image.RGBA, text string, cx, cy int, col stdcolor.Color, size int)

	// MeasureString returns the approximate width and height of the text
	// at the given font size.
	MeasureString(text string, size int) (width, height int)
}

// Region is one numbered area of a template.
type Region struct {
	ID       int
	ColorNum int             // 1-based palette number
	Size     int             // pixels
	X, Y     float64         // centroid
	Bounds   image.Rectangle // bounding box
	Colored  bool
}

// Template is a generated color-by-number picture and the progress made on
// it. It is safe for concurrent use.
type Template struct {
	res     *pipeline.Result
	tracker *progress.Tracker
	source  *image.RGBA // the image the regions were computed from
	opts    Options
	font    renderer.FontRenderer
	rcfg    renderer.Config
}

// LoadImage reads an image from disk. Supports PNG, JPEG, GIF, BMP and WEBP.
func LoadImage(path string) (image.Image, error) {
	return imaging.Load(imaging.ExpandPath(path))
}

// SavePNG writes an image to disk as PNG.
func SavePNG(path string, img image.Image) error {
	return imaging.SavePNG(imaging.ExpandPath(path), img)
}

// Generate segments img into a template.
func Generate(img image.Image, opts Options) (*Template, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is nil: %w", ErrEmptyImage)
	}
	src := imaging.Downsample(img, opts.MaxSide)
	res, err := pipeline.Run(src, opts.pipelineConfig(), opts.Logger)
	if err != nil {
		return nil, err
	}

	rcfg := renderer.DefaultConfig()
	scaleLegendConfig(&rcfg, src.Bounds())
	opts.Background.setIfPresent(&rcfg.Background)
	opts.EdgeColor.setIfPresent(&rcfg.EdgeColor)
	opts.InkColor.setIfPresent(&rcfg.InkColor)
	return &Template{
		res:     res,
		tracker: progress.NewTracker(res),
		source:  src,
		opts:    opts,
		font:    resolveFont(opts.Font),
		rcfg:    rcfg,
	}, nil
}

// GenerateFile is a convenience that loads an image from inPath and
// generates a template from it.
func GenerateFile(inPath string, opts Options) (*Template, error) {
	img, err := LoadImage(inPath)
	if err != nil {
		return nil, fmt.Errorf("loading image: %w", err)
	}
	t, err := Generate(img, opts)
	if err != nil {
		return nil, fmt.Errorf("generating: %w", err)
	}
	return t, nil
}

// Resume loads a session written by Save, regenerates its template from the
// saved original and restores the filled regions. Generation parameters
// stored in the session override those in opts.
func Resume(path string, opts Options) (*Template, error) {
	doc, img, err := progress.Load(imaging.ExpandPath(path))
	if err != nil {
		return nil, err
	}
	opts.Colors = doc.NumColors
	if doc.MinRegionSize != nil {
		opts.MinRegionSize = *doc.MinRegionSize
	}
	if doc.UseExactColors != nil {
		opts.ExactColors = *doc.UseExactColors
	}
	if doc.FillMicroHoles != nil {
		opts.FillMicroHoles = *doc.FillMicroHoles
	}
	if doc.Seed != nil {
		opts.Seed = *doc.Seed
	}
	if doc.EdgeStyle != "" {
		opts.EdgeStyle = doc.EdgeStyle
	}
	// The saved original is already at its working size.
	opts.MaxSide = 0

	t, err := Generate(img, opts)
	if err != nil {
		return nil, fmt.Errorf("regenerating template: %w", err)
	}
	if err := t.tracker.Apply(doc); err != nil {
		return nil, fmt.Errorf("restoring progress: %w", err)
	}
	return t, nil
}

// Save writes the session: a JSON document plus the original and progress
// images next to it.
func (t *Template) Save(path string) error {
	doc := t.tracker.Document(t.opts.pipelineConfig())
	return progress.Save(imaging.ExpandPath(path), doc, t.source, t.ProgressImage())
}

// Width returns the template width in pixels.
func (t *Template) Width() int { return t.res.Width }

// Height returns the template height in pixels.
func (t *Template) Height() int { return t.res.Height }

// NumColors returns the palette size.
func (t *Template) NumColors() int { return t.res.NumColors() }

// Palette returns the display colors; entry n-1 is color number n.
func (t *Template) Palette() []Color {
	out := make([]Color, len(t.res.Palette))
	for i, c := range t.res.Palette {
		out[i] = Color{c.R, c.G, c.B, c.A}
	}
	return out
}

// Regions returns every region in ID order.
func (t *Template) Regions() []Region {
	out := make([]Region, len(t.res.Regions))
	for i, r := range t.res.Regions {
		out[i] = t.region(r)
	}
	return out
}

// Region returns one region.
func (t *Template) Region(id int) (Region, bool) {
	r, ok := t.res.Region(id)
	if !ok {
		return Region{}, false
	}
	return t.region(r), true
}

func (t *Template) region(r segment.Region) Region {
	return Region{
		ID:       r.ID,
		ColorNum: r.ColorNum,
		Size:     r.Size,
		X:        r.Centroid.Col,
		Y:        r.Centroid.Row,
		Bounds:   r.Bounds,
		Colored:  t.tracker.IsColored(r.ID),
	}
}

// RegionAt returns the region under (x, y), or -1.
func (t *Template) RegionAt(x, y int) int {
	return t.res.RegionAt(x, y)
}

// UncoloredRegionAt returns the unfilled region under (x, y), or -1.
func (t *Template) UncoloredRegionAt(x, y int) int {
	return t.tracker.RegionAt(x, y)
}

// Unowned returns the number of pixels left without a region.
func (t *Template) Unowned() int { return t.res.Unowned }

// Fill marks a region as filled with colorNum.
func (t *Template) Fill(regionID, colorNum int) error {
	return t.tracker.Fill(regionID, colorNum)
}

// Clear forgets every fill.
func (t *Template) Clear() { t.tracker.Clear() }

// Percent returns the share of regions filled, from 0 to 100.
func (t *Template) Percent() float64 { return t.tracker.Percent() }

// ColorProgress returns how many regions of one color are filled, and how
// many there are.
func (t *Template) ColorProgress(colorNum int) (done, total int) {
	return t.tracker.ColorProgress(colorNum)
}

// Complete reports whether every region is filled.
func (t *Template) Complete() bool { return t.tracker.Complete() }

// Hint suggests an unfilled region.
func (t *Template) Hint(seed uint64) (int, bool) { return t.tracker.Hint(seed) }

// FillOrder lists unfilled regions in "sequential", "by_color", "by_size"
// or seeded "random" order.
func (t *Template) FillOrder(order string, seed uint64) ([]int, error) {
	return t.tracker.FillOrder(order, seed)
}

// TemplateImage renders the printable template, with the palette legend
// appended below when legend is set.
func (t *Template) TemplateImage(legend bool) *image.RGBA {
	out := renderer.Template(t.res.Layout(), t.font, t.rcfg)
	if legend {
		out = renderer.WithLegend(out, t.res.Palette, t.font, t.rcfg)
	}
	return out
}

// ColoredImage renders every region in its palette color.
func (t *Template) ColoredImage() *image.RGBA {
	return renderer.Colored(t.res.Layout())
}

// ProgressImage renders the template with the filled regions painted.
func (t *Template) ProgressImage() *image.RGBA {
	return t.tracker.Image(t.font, t.rcfg)
}

// WriteSVG writes the template as an SVG document.
func (t *Template) WriteSVG(w io.Writer) error {
	return renderer.WriteSVG(w, t.res.Layout(), t.rcfg)
}

// resolveFont returns a renderer.FontRenderer, using the bundled font if the
// user did not provide one.
func resolveFont(f FontRenderer) renderer.FontRenderer {
	if f != nil {
		return &fontAdapter{f}
	}
	return renderer.DefaultFont()
}

// fontAdapter adapts the public FontRenderer interface to the internal one.
type fontAdapter struct {
	f FontRenderer
}

func (a *fontAdapter) DrawString(img *image.RGBA, text string, cx, cy int, col stdcolor.Color, size int) {
	a.f.DrawString(img, text, cx, cy, col, size)
}

func (a *fontAdapter) MeasureString(text string, size int) (int, int) {
	return a.f.MeasureString(text, size)
}

func scaleLegendConfig(cfg *renderer.Config, bounds image.Rectangle) {
	w := bounds.Dx()
	if w > 1000 {
		cfg.LegendCircleSize = 50
		cfg.LegendSpacing = 25
		cfg.LegendPadding = 30
		cfg.LegendMargin = 30
	} else if w > 500 {
		cfg.LegendCircleSize = 36
		cfg.LegendSpacing = 18
		cfg.LegendPadding = 24
		cfg.LegendMargin = 24
	}
}
