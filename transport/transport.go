// Package transport moves interleaved stereo sample blocks between the
// processing chain and the outside world: WAV files for offline use,
// in-memory streams for tests and embedding.
//
// All samples are right-justified 24-bit values in int32 containers, the
// scale the chain operates on.
package transport

// Reader supplies interleaved stereo samples. Read fills samples and
// returns the count written, always a multiple of two. It returns io.EOF
// once the stream is exhausted; a short count with a nil error means the
// final block was partial.
type Reader interface {
	Read(samples []int32) (int, error)
}

// Writer consumes interleaved stereo samples. Write blocks until the block
// is accepted.
type Writer interface {
	Write(samples []int32) error
}
