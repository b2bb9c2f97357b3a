package transport

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/sirupsen/logrus"
)

// outputBitDepth is what WAVWriter emits: the chain's native width.
const outputBitDepth = 24

// WAVReader streams a PCM WAV file as right-justified 24-bit stereo.
// 16, 24 and 32-bit sources are rescaled; mono sources are duplicated onto
// both channels.
type WAVReader struct {
	file    *os.File
	decoder *wav.Decoder

	sampleRate int
	channels   int
	bitDepth   int

	scratch *audio.IntBuffer
	mono    []int32
}

// OpenWAVReader opens and validates a WAV file.
func OpenWAVReader(path string) (*WAVReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("transport: open %s: %w", path, err)
	}

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		file.Close()

		return nil, fmt.Errorf("transport: %s is not a valid WAV file", path)
	}

	format := decoder.Format()
	bitDepth := int(decoder.BitDepth)

	switch bitDepth {
	case 16, 24, 32:
	default:
		file.Close()

		return nil, fmt.Errorf("transport: unsupported bit depth %d in %s", bitDepth, path)
	}

	if format.NumChannels < 1 || format.NumChannels > 2 {
		file.Close()

		return nil, fmt.Errorf("transport: unsupported channel count %d in %s", format.NumChannels, path)
	}

	logrus.WithFields(logrus.Fields{
		"path":        path,
		"sample_rate": format.SampleRate,
		"channels":    format.NumChannels,
		"bit_depth":   bitDepth,
	}).Debug("Opened WAV input")

	return &WAVReader{
		file:       file,
		decoder:    decoder,
		sampleRate: format.SampleRate,
		channels:   format.NumChannels,
		bitDepth:   bitDepth,
	}, nil
}

// SampleRate returns the source file's sample rate.
func (r *WAVReader) SampleRate() int { return r.sampleRate }

// Channels returns the source file's channel count.
func (r *WAVReader) Channels() int { return r.channels }

// Read fills samples with interleaved stereo at 24-bit scale.
func (r *WAVReader) Read(samples []int32) (int, error) {
	want := len(samples)
	if r.channels == 1 {
		want = len(samples) / 2
	}

	if r.scratch == nil || cap(r.scratch.Data) < want {
		r.scratch = &audio.IntBuffer{Data: make([]int, want)}
	}
	r.scratch.Data = r.scratch.Data[:want]

	n, err := r.decoder.PCMBuffer(r.scratch)
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("transport: read WAV: %w", err)
	}

	if n == 0 {
		return 0, io.EOF
	}

	if r.channels == 1 {
		for i := 0; i < n; i++ {
			v := r.rescale(r.scratch.Data[i])
			samples[2*i] = v
			samples[2*i+1] = v
		}

		return 2 * n, nil
	}

	n -= n % 2
	for i := 0; i < n; i++ {
		samples[i] = r.rescale(r.scratch.Data[i])
	}

	return n, nil
}

// rescale converts a source sample to right-justified 24-bit.
func (r *WAVReader) rescale(v int) int32 {
	switch r.bitDepth {
	case 16:
		return int32(v) << 8
	case 32:
		return int32(int64(v) >> 8)
	default:
		return int32(v)
	}
}

// Close releases the underlying file.
func (r *WAVReader) Close() error {
	return r.file.Close()
}

// WAVWriter writes interleaved stereo 24-bit PCM to a WAV file.
type WAVWriter struct {
	file    *os.File
	encoder *wav.Encoder
	scratch []int
}

// CreateWAVWriter creates the output file and its encoder.
func CreateWAVWriter(path string, sampleRate int) (*WAVWriter, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("transport: sample rate must be positive: %d", sampleRate)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("transport: create %s: %w", path, err)
	}

	encoder := wav.NewEncoder(file, sampleRate, outputBitDepth, 2, 1)

	logrus.WithFields(logrus.Fields{
		"path":        path,
		"sample_rate": sampleRate,
	}).Debug("Opened WAV output")

	return &WAVWriter{file: file, encoder: encoder}, nil
}

// Write appends one block of interleaved stereo samples.
func (w *WAVWriter) Write(samples []int32) error {
	if cap(w.scratch) < len(samples) {
		w.scratch = make([]int, len(samples))
	}
	w.scratch = w.scratch[:len(samples)]

	for i, s := range samples {
		w.scratch[i] = int(s)
	}

	buf := &audio.IntBuffer{
		Data:           w.scratch,
		Format:         &audio.Format{NumChannels: 2, SampleRate: w.encoder.SampleRate},
		SourceBitDepth: outputBitDepth,
	}

	if err := w.encoder.Write(buf); err != nil {
		return fmt.Errorf("transport: write WAV: %w", err)
	}

	return nil
}

// Close finalizes the WAV header and closes the file.
func (w *WAVWriter) Close() error {
	if err := w.encoder.Close(); err != nil {
		w.file.Close()

		return fmt.Errorf("transport: finalize WAV: %w", err)
	}

	return w.file.Close()
}
