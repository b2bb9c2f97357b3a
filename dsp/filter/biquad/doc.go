// Package biquad implements the second-order IIR filter core shared by the
// subsonic filter and the equalizer bands.
//
// Two numeric policies are provided over the same algorithm: Section works in
// float64, FixedSection works on int32 samples with Q24 coefficients and a
// 64-bit accumulator. The chain's stages use the fixed-point policy; the
// float64 policy backs design-time analysis and the measurement helpers.
package biquad
