package buffer

import "fmt"

// FullScale is the numeric value of 0 dBFS for the pipeline: samples are
// right-justified 24-bit values in an int32 container.
const FullScale = 1 << 23

// channels is fixed: the chain processes interleaved stereo only.
const channels = 2

// Buffer wraps an interleaved stereo int32 slice with reuse-friendly
// semantics. Stage Process methods accept *Buffer and mutate it in place.
type Buffer struct {
	samples []int32
}

// New returns a zero-filled Buffer holding the given number of stereo frames.
func New(frames int) *Buffer {
	if frames < 0 {
		frames = 0
	}

	return &Buffer{samples: make([]int32, frames*channels)}
}

// FromSlice wraps an existing interleaved slice without copying.
// Mutations to the slice are visible through the Buffer and vice versa.
// The slice length must be even (whole stereo frames).
func FromSlice(s []int32) (*Buffer, error) {
	if len(s)%channels != 0 {
		return nil, fmt.Errorf("buffer length must be even (interleaved stereo): %d", len(s))
	}

	return &Buffer{samples: s}, nil
}

// Samples returns the underlying interleaved slice.
func (b *Buffer) Samples() []int32 {
	return b.samples
}

// Len returns the total sample count (both channels).
func (b *Buffer) Len() int {
	return len(b.samples)
}

// Frames returns the number of stereo frames.
func (b *Buffer) Frames() int {
	return len(b.samples) / channels
}

// Zero clears all samples to silence.
func (b *Buffer) Zero() {
	for i := range b.samples {
		b.samples[i] = 0
	}
}

// Resize sets the length to the given number of frames, reusing existing
// capacity when possible. New samples beyond the previous length are zeroed.
func (b *Buffer) Resize(frames int) {
	if frames < 0 {
		frames = 0
	}

	n := frames * channels

	oldLen := len(b.samples)
	if n <= cap(b.samples) {
		b.samples = b.samples[:n]
	} else {
		s := make([]int32, n)
		copy(s, b.samples)
		b.samples = s
	}

	for i := oldLen; i < n; i++ {
		b.samples[i] = 0
	}
}

// CopyToFloat64 writes the buffer into dst normalized to [-1, 1) at
// FullScale. dst must have at least Len() elements.
func (b *Buffer) CopyToFloat64(dst []float64) {
	_ = dst[len(b.samples)-1]
	for i, s := range b.samples {
		dst[i] = float64(s) / FullScale
	}
}

// SetFromFloat64 fills the buffer from normalized float64 samples, scaling by
// FullScale and saturating to the int32 range. src must have at least Len()
// elements.
func (b *Buffer) SetFromFloat64(src []float64) {
	_ = src[len(b.samples)-1]
	for i := range b.samples {
		b.samples[i] = SaturateInt32(int64(src[i] * FullScale))
	}
}

// SaturateInt32 clamps a 64-bit value to the signed 32-bit range.
func SaturateInt32(v int64) int32 {
	if v > 2147483647 {
		return 2147483647
	}

	if v < -2147483648 {
		return -2147483648
	}

	return int32(v)
}
