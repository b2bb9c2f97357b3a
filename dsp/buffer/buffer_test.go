package buffer

import (
	"math"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		frames  int
		wantLen int
	}{
		{"empty", 0, 0},
		{"negative clamps to empty", -3, 0},
		{"one frame", 1, 2},
		{"dma period", 512, 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(tt.frames)
			if b.Len() != tt.wantLen {
				t.Fatalf("Len() = %d, want %d", b.Len(), tt.wantLen)
			}

			if b.Frames() != tt.wantLen/2 {
				t.Fatalf("Frames() = %d, want %d", b.Frames(), tt.wantLen/2)
			}
		})
	}
}

func TestFromSlice(t *testing.T) {
	if _, err := FromSlice([]int32{1, 2, 3}); err == nil {
		t.Fatal("expected error for odd-length slice")
	}

	s := []int32{1, -2, 3, -4}

	b, err := FromSlice(s)
	if err != nil {
		t.Fatal(err)
	}

	b.Samples()[0] = 42
	if s[0] != 42 {
		t.Fatal("FromSlice must alias the provided slice")
	}
}

func TestZero(t *testing.T) {
	b := New(4)
	for i := range b.Samples() {
		b.Samples()[i] = int32(i + 1)
	}

	b.Zero()

	for i, s := range b.Samples() {
		if s != 0 {
			t.Fatalf("sample %d not cleared: %d", i, s)
		}
	}
}

func TestResizePreservesAndZeroes(t *testing.T) {
	b := New(2)
	b.Samples()[0] = 7
	b.Samples()[3] = -7

	b.Resize(4)

	if b.Len() != 8 {
		t.Fatalf("Len() = %d, want 8", b.Len())
	}

	if b.Samples()[0] != 7 || b.Samples()[3] != -7 {
		t.Fatal("Resize must preserve existing samples")
	}

	for i := 4; i < 8; i++ {
		if b.Samples()[i] != 0 {
			t.Fatalf("grown sample %d not zeroed: %d", i, b.Samples()[i])
		}
	}

	b.Resize(1)
	if b.Len() != 2 {
		t.Fatalf("Len() after shrink = %d, want 2", b.Len())
	}
}

func TestFloat64RoundTrip(t *testing.T) {
	b := New(2)
	b.Samples()[0] = FullScale / 2
	b.Samples()[1] = -FullScale / 4
	b.Samples()[2] = 0
	b.Samples()[3] = FullScale - 1

	f := make([]float64, b.Len())
	b.CopyToFloat64(f)

	if math.Abs(f[0]-0.5) > 1e-12 || math.Abs(f[1]+0.25) > 1e-12 {
		t.Fatalf("normalization wrong: %v", f)
	}

	out := New(2)
	out.SetFromFloat64(f)

	for i := range out.Samples() {
		if out.Samples()[i] != b.Samples()[i] {
			t.Fatalf("sample %d: got %d want %d", i, out.Samples()[i], b.Samples()[i])
		}
	}
}

func TestSetFromFloat64Saturates(t *testing.T) {
	b := New(1)
	b.SetFromFloat64([]float64{1e10, -1e10})

	if b.Samples()[0] != math.MaxInt32 {
		t.Fatalf("positive overflow not saturated: %d", b.Samples()[0])
	}

	if b.Samples()[1] != math.MinInt32 {
		t.Fatalf("negative overflow not saturated: %d", b.Samples()[1])
	}
}

func TestSaturateInt32(t *testing.T) {
	tests := []struct {
		in   int64
		want int32
	}{
		{0, 0},
		{2147483647, 2147483647},
		{2147483648, 2147483647},
		{-2147483648, -2147483648},
		{-2147483649, -2147483648},
		{123456, 123456},
	}

	for _, tt := range tests {
		if got := SaturateInt32(tt.in); got != tt.want {
			t.Fatalf("SaturateInt32(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPoolReuse(t *testing.T) {
	p := NewPool()

	b := p.Get(8)
	if b.Frames() != 8 {
		t.Fatalf("Frames() = %d, want 8", b.Frames())
	}

	b.Samples()[0] = 99
	p.Put(b)

	got := p.Get(8)
	for i, s := range got.Samples() {
		if s != 0 {
			t.Fatalf("pooled buffer not zeroed at %d: %d", i, s)
		}
	}

	p.Put(nil) // must not panic
}
