package progress

import (
	"errors"
	"fmt"
	"image"
	"math/rand/v2"
	"sort"
	"strconv"
	"sync"

	"github.com/maax3v3/colorbynumber/internal/pipeline"
	"github.com/maax3v3/colorbynumber/internal/renderer"
)

var (
	ErrUnknownRegion  = errors.New("unknown region")
	ErrWrongColor     = errors.New("wrong color for region")
	ErrAlreadyColored = errors.New("region already colored")
	ErrUnknownOrder   = errors.New("unknown fill order")

	// ErrUnresolved is returned by Apply when a saved region does not exist
	// in the regenerated result or has a different color there.
	ErrUnresolved = errors.New("saved regions do not resolve")
	// ErrDiverged is returned by Apply when the regenerated palette differs
	// from the saved one.
	ErrDiverged = errors.New("regenerated palette differs from saved palette")
)

// Fill orders accepted by FillOrder.
const (
	OrderSequential = "sequential"
	OrderByColor    = "by_color"
	OrderBySize     = "by_size"
	OrderRandom     = "random"
)

// Tracker records which regions of a fixed Result have been filled. It is
// safe for concurrent use.
type Tracker struct {
	res *pipeline.Result

	mu      sync.Mutex
	colored map[int]int // region ID -> color number
}

// NewTracker returns a tracker with nothing filled.
func NewTracker(res *pipeline.Result) *Tracker {
	return &Tracker{res: res, colored: make(map[int]int)}
}

// Result returns the segmentation being tracked.
func (t *Tracker) Result() *pipeline.Result {
	return t.res
}

// Fill marks a region as filled with colorNum. Filling with the wrong
// color, filling twice, or naming an unknown region fails and changes
// nothing.
func (t *Tracker) Fill(regionID, colorNum int) error {
	r, ok := t.res.Region(regionID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownRegion, regionID)
	}
	if r.ColorNum != colorNum {
		return fmt.Errorf("%w: region %d takes color %d, not %d", ErrWrongColor, regionID, r.ColorNum, colorNum)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, done := t.colored[regionID]; done {
		return fmt.Errorf("%w: %d", ErrAlreadyColored, regionID)
	}
	t.colored[regionID] = colorNum
	return nil
}

// RegionAt returns the uncolored region under (x, y), or -1 when the point
// is outside the image, unowned, or already filled.
func (t *Tracker) RegionAt(x, y int) int {
	id := t.res.RegionAt(x, y)
	if id < 0 {
		return -1
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, done := t.colored[id]; done {
		return -1
	}
	return id
}

// IsColored reports whether a region has been filled.
func (t *Tracker) IsColored(regionID int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.colored[regionID]
	return ok
}

// Percent returns the share of regions filled, from 0 to 100.
func (t *Tracker) Percent() float64 {
	total := len(t.res.Regions)
	if total == 0 {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return float64(len(t.colored)) / float64(total) * 100
}

// Counts returns how many regions are filled and how many exist.
func (t *Tracker) Counts() (done, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.colored), len(t.res.Regions)
}

// ColorProgress returns how many regions of one color are filled and how
// many there are.
func (t *Tracker) ColorProgress(colorNum int) (done, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range t.res.Regions {
		if r.ColorNum != colorNum {
			continue
		}
		total++
		if _, ok := t.colored[r.ID]; ok {
			done++
		}
	}
	return done, total
}

// Complete reports whether every region is filled. A result without
// regions is never complete.
func (t *Tracker) Complete() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.res.Regions) > 0 && len(t.colored) == len(t.res.Regions)
}

// Clear forgets every fill.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.colored = make(map[int]int)
}

// Colored returns a copy of the filled regions.
func (t *Tracker) Colored() map[int]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[int]int, len(t.colored))
	for k, v := range t.colored {
		out[k] = v
	}
	return out
}

// FillOrder lists the uncolored region IDs in the order an automatic fill
// would visit them: by ascending color number, by descending size, shuffled
// with seed, or by ID. Sorting is stable on region ID.
func (t *Tracker) FillOrder(order string, seed uint64) ([]int, error) {
	ids := t.uncolored()
	regions := t.res.Regions
	switch order {
	case "", OrderSequential:
	case OrderByColor:
		sort.SliceStable(ids, func(i, j int) bool {
			return regions[ids[i]].ColorNum < regions[ids[j]].ColorNum
		})
	case OrderBySize:
		sort.SliceStable(ids, func(i, j int) bool {
			return regions[ids[i]].Size > regions[ids[j]].Size
		})
	case OrderRandom:
		rng := rand.New(rand.NewPCG(seed, seed))
		rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOrder, order)
	}
	return ids, nil
}

// Hint picks an uncolored region using seed. It returns false when
// everything is filled.
func (t *Tracker) Hint(seed uint64) (int, bool) {
	ids := t.uncolored()
	if len(ids) == 0 {
		return -1, false
	}
	rng := rand.New(rand.NewPCG(seed, seed))
	return ids[rng.IntN(len(ids))], true
}

func (t *Tracker) uncolored() []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	var ids []int
	for _, r := range t.res.Regions {
		if _, done := t.colored[r.ID]; !done {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// Apply replaces the tracker's fills with those of a saved document. The
// document must match the result: same color count, identical palette, and
// every saved region present with the saved color. On any mismatch the
// tracker is left unchanged.
func (t *Tracker) Apply(doc *Document) error {
	if doc.NumColors != t.res.NumColors() {
		return fmt.Errorf("%w: saved %d colors, regenerated %d", ErrDiverged, doc.NumColors, t.res.NumColors())
	}
	saved := doc.Palette()
	for i, c := range t.res.Palette {
		if saved[i] != c {
			return fmt.Errorf("%w: color %d saved as %s, regenerated as %s", ErrDiverged, i+1, saved[i].Hex(), c.Hex())
		}
	}

	next := make(map[int]int, len(doc.ColoredRegions))
	for k, colorNum := range doc.ColoredRegions {
		id, err := strconv.Atoi(k)
		if err != nil {
			return fmt.Errorf("%w: region id %q", ErrUnresolved, k)
		}
		r, ok := t.res.Region(id)
		if !ok {
			return fmt.Errorf("%w: region %d does not exist", ErrUnresolved, id)
		}
		if r.ColorNum != colorNum {
			return fmt.Errorf("%w: region %d saved with color %d, regenerated with %d", ErrUnresolved, id, colorNum, r.ColorNum)
		}
		next[id] = colorNum
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.colored = next
	return nil
}

// Document captures the tracker state and the generation parameters.
func (t *Tracker) Document(cfg pipeline.Config) *Document {
	doc := &Document{
		ColoredRegions: make(map[string]int),
		ColorPalette:   make(map[string][3]uint8, t.res.NumColors()),
		NumColors:      t.res.NumColors(),
		MinRegionSize:  &cfg.MinRegionSize,
		UseExactColors: &cfg.ExactColors,
		FillMicroHoles: &cfg.FillMicroHoles,
		Seed:           &cfg.Seed,
		EdgeStyle:      cfg.EdgeStyle,
	}
	for i, c := range t.res.Palette {
		doc.ColorPalette[strconv.Itoa(i+1)] = c.Array()
	}
	for id, n := range t.Colored() {
		doc.ColoredRegions[strconv.Itoa(id)] = n
	}
	return doc
}

// Image renders the template with the filled regions painted.
func (t *Tracker) Image(font renderer.FontRenderer, cfg renderer.Config) *image.RGBA {
	return renderer.Progress(t.res.Layout(), t.Colored(), font, cfg)
}
