package segment

import (
	"image"
	"testing"
)

func TestMeasure(t *testing.T) {
	o := NewOwnership(4, 3)
	copy(o.Owner, []int{
		1, 1, 0, 2,
		1, 0, 0, 2,
		0, 0, 0, 2,
	})
	regions := []Region{
		{ID: 0, ColorNum: 3, Size: 99},
		{ID: 1, ColorNum: 1},
		{ID: 2, ColorNum: 2, Centroid: Centroid{Row: 7, Col: 7}},
	}
	got := o.Measure(regions)

	if regions[0].Size != 99 {
		t.Error("Measure modified its input")
	}
	if got[0].Size != 3 || got[0].Bounds != image.Rect(0, 0, 2, 2) {
		t.Errorf("region 0 = %+v", got[0])
	}
	if got[0].Centroid != (Centroid{Row: 1.0 / 3, Col: 1.0 / 3}) {
		t.Errorf("region 0 centroid = %+v", got[0].Centroid)
	}
	if got[1].Size != 3 || got[1].Centroid != (Centroid{Row: 1, Col: 3}) {
		t.Errorf("region 1 = %+v", got[1])
	}
	if got[2].Size != 0 || got[2].Centroid != (Centroid{Row: 7, Col: 7}) {
		t.Errorf("empty region should keep its centroid, got %+v", got[2])
	}
	if got[0].ColorNum != 3 {
		t.Errorf("color number lost: %+v", got[0])
	}
}

func TestRegionAt(t *testing.T) {
	o := NewOwnership(2, 2)
	copy(o.Owner, []int{0, 1, 2, 2})
	tests := []struct {
		x, y, want int
	}{
		{0, 0, -1},
		{1, 0, 0},
		{0, 1, 1},
		{-1, 0, -1},
		{2, 1, -1},
		{0, 5, -1},
	}
	for _, tt := range tests {
		if got := o.RegionAt(tt.x, tt.y); got != tt.want {
			t.Errorf("RegionAt(%d,%d) = %d, want %d", tt.x, tt.y, got, tt.want)
		}
	}
	if o.UnownedCount() != 1 || o.Unowned().Count() != 1 {
		t.Errorf("unowned = %d", o.UnownedCount())
	}
	if o.Mask(1).Count() != 2 {
		t.Errorf("mask of region 1 = %d pixels, want 2", o.Mask(1).Count())
	}
}

func TestLabelPoint(t *testing.T) {
	r := Region{Centroid: Centroid{Row: 2.5, Col: 7.49}}
	if got := r.LabelPoint(); got != (image.Point{X: 7, Y: 3}) {
		t.Errorf("LabelPoint = %v", got)
	}
}
