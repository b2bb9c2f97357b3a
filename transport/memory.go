package transport

import (
	"fmt"
	"io"
)

// MemoryReader serves a fixed interleaved stereo slice block by block.
type MemoryReader struct {
	samples []int32
	pos     int
}

// NewMemoryReader wraps the given samples. The length must be even.
func NewMemoryReader(samples []int32) (*MemoryReader, error) {
	if len(samples)%2 != 0 {
		return nil, fmt.Errorf("transport: sample count must be even (interleaved stereo): %d", len(samples))
	}

	return &MemoryReader{samples: samples}, nil
}

// Read copies the next block, returning io.EOF once exhausted.
func (r *MemoryReader) Read(samples []int32) (int, error) {
	if r.pos >= len(r.samples) {
		return 0, io.EOF
	}

	n := copy(samples, r.samples[r.pos:])
	n -= n % 2
	r.pos += n

	return n, nil
}

// MemoryWriter accumulates everything written to it.
type MemoryWriter struct {
	samples []int32
}

// NewMemoryWriter returns an empty writer.
func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{}
}

// Write appends the block.
func (w *MemoryWriter) Write(samples []int32) error {
	w.samples = append(w.samples, samples...)

	return nil
}

// Samples returns everything written so far.
func (w *MemoryWriter) Samples() []int32 {
	return w.samples
}
