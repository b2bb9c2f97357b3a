package biquad

import (
	"math"
	"testing"
)

func TestQuantizeUnity(t *testing.T) {
	fc := Quantize(Coefficients{B0: 1})

	if fc.B0 != FixedOne {
		t.Fatalf("B0 = %d, want %d", fc.B0, FixedOne)
	}

	if fc.B1 != 0 || fc.B2 != 0 || fc.A1 != 0 || fc.A2 != 0 {
		t.Fatalf("non-zero tail coefficients: %+v", fc)
	}
}

func TestFixedUnityPassthroughIsExact(t *testing.T) {
	s := FixedSection{FixedCoefficients: Quantize(Coefficients{B0: 1})}

	in := []int32{0, 1, -1, 8388607, -8388608, 12345678}
	for i, x := range in {
		if y := s.ProcessSample(x); y != x {
			t.Fatalf("sample %d: got %d, want %d", i, y, x)
		}
	}
}

func TestFixedTracksFloatSection(t *testing.T) {
	// A representative peaking-like coefficient set; the fixed path must stay
	// within quantization error of the float path on 24-bit signals.
	c := Coefficients{B0: 1.1, B1: -1.8, B2: 0.75, A1: -1.8, A2: 0.85}
	fs := FixedSection{FixedCoefficients: Quantize(c)}
	ref := NewSection(c)

	const amp = 1 << 22

	maxErr := 0.0

	for i := range 512 {
		x := int32(amp * math.Sin(2*math.Pi*997*float64(i)/48000))

		got := float64(fs.ProcessSample(x))
		want := ref.ProcessSample(float64(x))

		if err := math.Abs(got - want); err > maxErr {
			maxErr = err
		}
	}

	// Q24 quantization plus per-product truncation accumulates slowly; a few
	// hundred counts on a 2^22 signal is well below -80 dBFS.
	if maxErr > 512 {
		t.Fatalf("fixed/float divergence too large: %g counts", maxErr)
	}
}

func TestFixedAccumulatorTruncates(t *testing.T) {
	// 0.5 in Q24 times 3 is 1.5, which truncates to 1 (not rounds to 2).
	c := FixedCoefficients{B0: FixedOne / 2}
	st := FixedState{}

	if y := ProcessSample(&c, &st, 3); y != 1 {
		t.Fatalf("got %d, want truncated 1", y)
	}

	// Negative products shift toward negative infinity: -3/2 -> -2.
	st.Reset()

	if y := ProcessSample(&c, &st, -3); y != -2 {
		t.Fatalf("got %d, want floor-shifted -2", y)
	}
}

func TestFixedStateUpdateOrder(t *testing.T) {
	// With B1=1 and everything else zero, the output is the previous input:
	// the history must be shifted after the output is computed.
	c := FixedCoefficients{B1: FixedOne}
	st := FixedState{}

	if y := ProcessSample(&c, &st, 100); y != 0 {
		t.Fatalf("first output = %d, want 0", y)
	}

	if y := ProcessSample(&c, &st, 200); y != 100 {
		t.Fatalf("second output = %d, want 100", y)
	}

	if st.X1 != 200 || st.X2 != 100 {
		t.Fatalf("history after two samples: %+v", st)
	}
}

func TestFixedSectionReset(t *testing.T) {
	s := FixedSection{FixedCoefficients: Quantize(Coefficients{B0: 0.5, A1: -0.5})}
	s.ProcessSample(1 << 20)
	s.ProcessSample(-(1 << 20))

	if s.State == (FixedState{}) {
		t.Fatal("expected non-zero state after processing")
	}

	before := s.FixedCoefficients

	s.Reset()

	if s.State != (FixedState{}) {
		t.Fatalf("Reset left state %+v", s.State)
	}

	if s.FixedCoefficients != before {
		t.Fatal("Reset must not touch coefficients")
	}
}
