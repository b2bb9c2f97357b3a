package biquad

// FixedShift is the fractional bit count of the fixed-point coefficient
// format: coefficients are stored scaled by 2^24 (Q24).
const FixedShift = 24

// FixedOne is 1.0 in Q24.
const FixedOne = 1 << FixedShift

// FixedCoefficients holds Q24 fixed-point biquad coefficients.
// a0 is normalized to 1 before quantization and not stored.
type FixedCoefficients struct {
	B0, B1, B2 int32
	A1, A2     int32
}

// Quantize converts float64 coefficients to Q24. Conversion truncates toward
// zero, matching the deployed fixed-point arithmetic.
func Quantize(c Coefficients) FixedCoefficients {
	return FixedCoefficients{
		B0: int32(c.B0 * FixedOne),
		B1: int32(c.B1 * FixedOne),
		B2: int32(c.B2 * FixedOne),
		A1: int32(c.A1 * FixedOne),
		A2: int32(c.A2 * FixedOne),
	}
}

// FixedState is the per-channel history of a fixed-point section: the two
// previous inputs and outputs. Owned exclusively by the section that uses it.
type FixedState struct {
	X1, X2 int32
	Y1, Y2 int32
}

// Reset clears the history to zero.
func (s *FixedState) Reset() {
	*s = FixedState{}
}

// FixedSection pairs Q24 coefficients with one channel's history. The
// equalizer holds one coefficient set with two states per band; embedding the
// pair keeps single-channel use simple.
type FixedSection struct {
	FixedCoefficients

	State FixedState
}

// ProcessSample filters one sample through the Q24 difference equation.
//
// Each coefficient product is computed in int64 and shifted right by
// FixedShift before summation; the final accumulator is truncated (not
// saturated) to int32. With coefficients bounded by the ±12 dB stage limits
// and 24-bit-significant inputs, the sum stays far inside int64 and the
// result inside int32 for in-range program material.
func ProcessSample(c *FixedCoefficients, st *FixedState, x int32) int32 {
	acc := (int64(c.B0) * int64(x)) >> FixedShift
	acc += (int64(c.B1) * int64(st.X1)) >> FixedShift
	acc += (int64(c.B2) * int64(st.X2)) >> FixedShift
	acc -= (int64(c.A1) * int64(st.Y1)) >> FixedShift
	acc -= (int64(c.A2) * int64(st.Y2)) >> FixedShift

	y := int32(acc)

	st.X2 = st.X1
	st.X1 = x
	st.Y2 = st.Y1
	st.Y1 = y

	return y
}

// ProcessSample filters one sample using the section's own state.
func (s *FixedSection) ProcessSample(x int32) int32 {
	return ProcessSample(&s.FixedCoefficients, &s.State, x)
}

// Reset clears the section history. Coefficients are untouched.
func (s *FixedSection) Reset() {
	s.State.Reset()
}
