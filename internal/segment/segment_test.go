package segment

import (
	"errors"
	"image"
	"testing"

	"github.com/maax3v3/colorbynumber/internal/grid"
)

// parseLabels builds a label grid from rows of single digits.
func parseLabels(rows ...string) *grid.Labels {
	l := grid.NewLabels(len(rows[0]), len(rows))
	for y, row := range rows {
		for x, ch := range row {
			l.Set(x, y, int(ch-'0'))
		}
	}
	return l
}

// blockLabels returns a w×h grid of bg with the rectangle r set to fg.
func blockLabels(w, h, bg, fg int, r image.Rectangle) *grid.Labels {
	l := grid.NewLabels(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (image.Point{X: x, Y: y}).In(r) {
				l.Set(x, y, fg)
			} else {
				l.Set(x, y, bg)
			}
		}
	}
	return l
}

func checkPartition(t *testing.T, s *Segmentation) {
	t.Helper()
	own := s.Ownership
	for i, v := range own.Owner {
		if v < 0 || v > len(s.Regions) {
			t.Fatalf("pixel %d has owner %d, only %d regions", i, v, len(s.Regions))
		}
		if (v == 0) != s.Orphans.Bits[i] {
			t.Fatalf("pixel %d: owner %d but orphan=%v", i, v, s.Orphans.Bits[i])
		}
	}
	for i, r := range s.Regions {
		if r.ID != i {
			t.Errorf("region %d has ID %d", i, r.ID)
		}
		m := own.Mask(r.ID)
		if m.Count() != r.Size {
			t.Errorf("region %d size %d, mask has %d", r.ID, r.Size, m.Count())
		}
		if m.Bounds() != r.Bounds {
			t.Errorf("region %d bounds %v, mask bounds %v", r.ID, r.Bounds, m.Bounds())
		}
		c := r.Centroid
		if c.Col < float64(r.Bounds.Min.X) || c.Col > float64(r.Bounds.Max.X-1) ||
			c.Row < float64(r.Bounds.Min.Y) || c.Row > float64(r.Bounds.Max.Y-1) {
			t.Errorf("region %d centroid %+v outside %v", r.ID, c, r.Bounds)
		}
	}
}

func TestSegment_TwoColumns(t *testing.T) {
	labels := parseLabels(
		"0011",
		"0011",
		"0011",
		"0011",
	)
	s, err := Segment(labels, 2, 1)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	checkPartition(t, s)
	if len(s.Regions) != 2 {
		t.Fatalf("got %d regions, want 2", len(s.Regions))
	}
	for i, r := range s.Regions {
		if r.ColorNum != i+1 || r.Size != 8 {
			t.Errorf("region %d = %+v, want color %d size 8", i, r, i+1)
		}
	}
	if s.Orphans.Count() != 0 {
		t.Errorf("orphans = %d, want 0", s.Orphans.Count())
	}
	if got := s.Regions[0].Centroid; got != (Centroid{Row: 1.5, Col: 0.5}) {
		t.Errorf("left centroid = %+v", got)
	}
}

func TestSegment_SmallStripeBecomesOrphans(t *testing.T) {
	// Colors 0 | 1 | 2 as columns [0,8) [8,9) [9,20); the one-column stripe
	// is below the threshold and closing does not grow straight edges.
	l := grid.NewLabels(20, 12)
	for y := 0; y < 12; y++ {
		for x := 0; x < 20; x++ {
			switch {
			case x < 8:
				l.Set(x, y, 0)
			case x == 8:
				l.Set(x, y, 1)
			default:
				l.Set(x, y, 2)
			}
		}
	}
	s, err := Segment(l, 3, 30)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	checkPartition(t, s)
	if len(s.Regions) != 2 {
		t.Fatalf("got %d regions, want 2", len(s.Regions))
	}
	if s.Regions[0].ColorNum != 1 || s.Regions[1].ColorNum != 3 {
		t.Errorf("color numbers = %d, %d; want 1, 3", s.Regions[0].ColorNum, s.Regions[1].ColorNum)
	}
	if got := s.Orphans.Count(); got != 12 {
		t.Errorf("orphans = %d, want 12", got)
	}
	for y := 0; y < 12; y++ {
		if !s.Orphans.At(8, y) {
			t.Errorf("stripe pixel (8,%d) was claimed", y)
		}
	}
}

func TestSegment_ClosingAbsorbsSpeck(t *testing.T) {
	labels := blockLabels(10, 10, 0, 1, image.Rect(5, 5, 6, 6))
	s, err := Segment(labels, 2, 30)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	checkPartition(t, s)
	if len(s.Regions) != 1 || s.Regions[0].Size != 100 {
		t.Fatalf("regions = %+v, want one region of 100 pixels", s.Regions)
	}
	if s.Ownership.RegionAt(5, 5) != 0 {
		t.Errorf("speck owner = %d, want 0", s.Ownership.RegionAt(5, 5))
	}
}

func TestSegment_HoleFilling(t *testing.T) {
	// A 5×5 block is too wide for closing to bridge, so only hole filling
	// can pull it into the surrounding region.
	labels := blockLabels(11, 11, 0, 1, image.Rect(3, 3, 8, 8))

	t.Run("dropped block fills as hole", func(t *testing.T) {
		s, err := Segment(labels, 2, 30)
		if err != nil {
			t.Fatalf("Segment: %v", err)
		}
		checkPartition(t, s)
		if len(s.Regions) != 1 || s.Regions[0].Size != 121 {
			t.Fatalf("regions = %+v, want one region of 121 pixels", s.Regions)
		}
	})

	t.Run("kept block keeps its pixels", func(t *testing.T) {
		s, err := Segment(labels, 2, 1)
		if err != nil {
			t.Fatalf("Segment: %v", err)
		}
		checkPartition(t, s)
		if len(s.Regions) != 2 {
			t.Fatalf("got %d regions, want 2", len(s.Regions))
		}
		if s.Regions[0].Size != 96 || s.Regions[1].Size != 25 {
			t.Errorf("sizes = %d, %d; want 96, 25", s.Regions[0].Size, s.Regions[1].Size)
		}
		if s.Ownership.RegionAt(5, 5) != 1 {
			t.Errorf("block center owner = %d, want 1", s.Ownership.RegionAt(5, 5))
		}
	})
}

func TestSegment_NoRegions(t *testing.T) {
	labels := parseLabels(
		"0000",
		"0000",
	)
	_, err := Segment(labels, 1, 100)
	if !errors.Is(err, ErrNoRegions) {
		t.Fatalf("err = %v, want ErrNoRegions", err)
	}
}

// scatter returns a reproducible noisy label grid.
func scatter(w, h, colors int) *grid.Labels {
	l := grid.NewLabels(w, h)
	state := uint32(2024)
	for i := range l.Data {
		state = state*1664525 + 1013904223
		l.Data[i] = int(state>>28) % colors
	}
	return l
}

func TestSegment_MonotonicFiltering(t *testing.T) {
	labels := scatter(40, 30, 4)
	prev := -1
	for _, minSize := range []int{1, 3, 10, 30, 100, 400} {
		s, err := Segment(labels, 4, minSize)
		if errors.Is(err, ErrNoRegions) {
			prev = 0
			continue
		}
		if err != nil {
			t.Fatalf("minSize %d: %v", minSize, err)
		}
		checkPartition(t, s)
		if prev >= 0 && len(s.Regions) > prev {
			t.Errorf("minSize %d produced %d regions, more than %d before", minSize, len(s.Regions), prev)
		}
		prev = len(s.Regions)
	}
}

func TestSegment_Deterministic(t *testing.T) {
	labels := scatter(32, 32, 5)
	first, err := Segment(labels, 5, 4)
	if err != nil {
		t.Fatal(err)
	}
	for run := 0; run < 3; run++ {
		again, err := Segment(labels, 5, 4)
		if err != nil {
			t.Fatal(err)
		}
		if len(again.Regions) != len(first.Regions) {
			t.Fatalf("run %d: %d regions, want %d", run, len(again.Regions), len(first.Regions))
		}
		for i := range first.Regions {
			if again.Regions[i] != first.Regions[i] {
				t.Fatalf("run %d: region %d = %+v, want %+v", run, i, again.Regions[i], first.Regions[i])
			}
		}
		for i := range first.Ownership.Owner {
			if again.Ownership.Owner[i] != first.Ownership.Owner[i] {
				t.Fatalf("run %d: owner of pixel %d differs", run, i)
			}
		}
	}
}

func TestSegment_ColorOrder(t *testing.T) {
	labels := parseLabels(
		"1100",
		"1100",
		"2233",
		"2233",
	)
	s, err := Segment(labels, 4, 1)
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range s.Regions {
		if r.ColorNum != i+1 {
			t.Errorf("region %d has color %d, want %d", i, r.ColorNum, i+1)
		}
	}
}
