package grid

import (
	"image"
	"testing"
)

func TestLabelsEqual(t *testing.T) {
	l := &Labels{Width: 3, Height: 2, Data: []int{0, 1, 1, 2, 1, 0}}
	m := l.Equal(1)
	want := []bool{false, true, true, false, true, false}
	for i := range want {
		if m.Bits[i] != want[i] {
			t.Errorf("bit %d = %v, want %v", i, m.Bits[i], want[i])
		}
	}
	if m.Count() != 3 {
		t.Errorf("Count = %d, want 3", m.Count())
	}
}

func TestMaskOutOfBounds(t *testing.T) {
	m := NewMask(2, 2)
	m.Set(1, 1, true)
	for _, p := range []image.Point{{-1, 0}, {0, -1}, {2, 0}, {0, 2}} {
		if m.At(p.X, p.Y) {
			t.Errorf("At(%v) = true, want false", p)
		}
	}
	if !m.At(1, 1) {
		t.Error("At(1,1) = false, want true")
	}
}

func TestMaskNotOr(t *testing.T) {
	m := NewMask(2, 1)
	m.Set(0, 0, true)
	n := m.Not()
	if n.At(0, 0) || !n.At(1, 0) {
		t.Fatalf("Not gave %v", n.Bits)
	}
	n.Or(m)
	if n.Count() != 2 {
		t.Errorf("Or gave %v", n.Bits)
	}
	if m.Count() != 1 {
		t.Error("Or mutated its argument")
	}
}

func TestMaskBounds(t *testing.T) {
	tests := []struct {
		name string
		set  []image.Point
		want image.Rectangle
	}{
		{"empty", nil, image.Rectangle{}},
		{"single", []image.Point{{2, 3}}, image.Rect(2, 3, 3, 4)},
		{"spread", []image.Point{{1, 4}, {3, 0}}, image.Rect(1, 0, 4, 5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMask(5, 5)
			for _, p := range tt.set {
				m.Set(p.X, p.Y, true)
			}
			if got := m.Bounds(); got != tt.want {
				t.Errorf("Bounds = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMaskClone_IsIndependent(t *testing.T) {
	m := NewMask(2, 2)
	mc := m.Clone()
	mc.Set(0, 0, true)
	if m.At(0, 0) {
		t.Error("Mask.Clone shares storage")
	}
}
