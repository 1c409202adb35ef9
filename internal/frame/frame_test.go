package frame

import (
	"testing"
	"time"
)

func TestFrame_EnsureReusesMatchingDimensions(t *testing.T) {
	f := New()
	if !f.Empty() {
		t.Fatal("new frame should be empty")
	}

	if !f.Ensure(4, 2) {
		t.Fatal("first Ensure should allocate")
	}
	if len(f.Pix) != 4*2*4 {
		t.Fatalf("len(Pix) = %d, want %d", len(f.Pix), 32)
	}

	f.Pix[0] = 7
	if f.Ensure(4, 2) {
		t.Error("Ensure with same dimensions should not allocate")
	}
	if f.Pix[0] != 7 {
		t.Error("Ensure with same dimensions should keep contents")
	}

	// Same byte count, different shape still reallocates
	if !f.Ensure(2, 4) {
		t.Error("Ensure with different shape should allocate")
	}
}

func TestFrame_ImageSharesStorage(t *testing.T) {
	f := New()
	f.Ensure(3, 3)
	img := f.Image()

	if img.Bounds().Dx() != 3 || img.Bounds().Dy() != 3 {
		t.Fatalf("bounds = %v, want 3x3", img.Bounds())
	}

	img.Pix[0] = 42
	if f.Pix[0] != 42 {
		t.Error("image view should share pixel storage")
	}

	f.Ensure(5, 1)
	if f.Image().Bounds().Dx() != 5 {
		t.Error("image view should follow reallocation")
	}

	f.Release()
	if !f.Empty() || f.Index != -1 {
		t.Error("Release should empty the frame")
	}
}

func TestSequence_Passes(t *testing.T) {
	tests := []struct {
		name    string
		oneShot bool
		repeat  int
		want    int
	}{
		{"one-shot ignores repeat", true, 5, 1},
		{"infinite", false, 0, 0},
		{"negative is infinite", false, -1, 0},
		{"twice", false, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Sequence{OneShot: tt.oneShot}
			if got := s.Passes(tt.repeat); got != tt.want {
				t.Errorf("Passes(%d) = %d, want %d", tt.repeat, got, tt.want)
			}
		})
	}
}

func TestDescriptor_Duration(t *testing.T) {
	d := Descriptor{DurationMs: 0}
	if got := d.Duration(80 * time.Millisecond); got != 80*time.Millisecond {
		t.Errorf("zero duration = %v, want fallback", got)
	}

	d.DurationMs = 120
	if got := d.Duration(80 * time.Millisecond); got != 120*time.Millisecond {
		t.Errorf("Duration = %v, want 120ms", got)
	}

	var s *Sequence
	if s.Len() != 0 {
		t.Error("nil sequence should have zero length")
	}
}
