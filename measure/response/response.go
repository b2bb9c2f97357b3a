// Package response measures the frequency response of processing stages by
// exciting them with a unit impulse and transforming the captured impulse
// response.
package response

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-audiochain/dsp/buffer"
)

// Processor is any stage that processes a stereo buffer in place.
type Processor interface {
	Process(buf *buffer.Buffer)
}

// impulseAmplitude leaves headroom below full scale so level-dependent
// stages stay linear during the measurement.
const impulseAmplitude = buffer.FullScale / 2

// bufPool reuses excitation buffers across measurements.
var bufPool = buffer.NewPool()

// ImpulseResponse feeds a single impulse through proc and returns the left
// channel of the first frames of output, normalized to the impulse height.
func ImpulseResponse(proc Processor, frames int) ([]float64, error) {
	if proc == nil {
		return nil, fmt.Errorf("response: processor must not be nil")
	}

	if frames <= 0 {
		return nil, fmt.Errorf("response: frames must be > 0: %d", frames)
	}

	buf := bufPool.Get(frames)
	defer bufPool.Put(buf)

	samples := buf.Samples()
	samples[0] = impulseAmplitude
	samples[1] = impulseAmplitude

	proc.Process(buf)

	out := make([]float64, frames)
	for i := range out {
		out[i] = float64(samples[2*i]) / impulseAmplitude
	}

	return out, nil
}

// MagnitudeResponse holds the single-sided magnitude spectrum of an
// impulse response.
type MagnitudeResponse struct {
	// Bins holds linear magnitudes for bins 0..FFTSize/2.
	Bins       []float64
	FFTSize    int
	SampleRate float64
}

// Measure captures an impulse response of the given length and returns its
// magnitude spectrum. frames is rounded up to a power of two for the FFT.
func Measure(proc Processor, frames int, sampleRate float64) (*MagnitudeResponse, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("response: sample rate must be > 0: %f", sampleRate)
	}

	ir, err := ImpulseResponse(proc, frames)
	if err != nil {
		return nil, err
	}

	return Magnitude(ir, sampleRate)
}

// Magnitude transforms an impulse response into its magnitude spectrum.
func Magnitude(ir []float64, sampleRate float64) (*MagnitudeResponse, error) {
	if len(ir) == 0 {
		return nil, fmt.Errorf("response: impulse response must not be empty")
	}

	if sampleRate <= 0 {
		return nil, fmt.Errorf("response: sample rate must be > 0: %f", sampleRate)
	}

	fftSize := nextPowerOf2(len(ir))

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("response: failed to create FFT plan: %w", err)
	}

	padded := make([]complex128, fftSize)
	for i, v := range ir {
		padded[i] = complex(v, 0)
	}

	freq := make([]complex128, fftSize)
	if err := plan.Forward(freq, padded); err != nil {
		return nil, fmt.Errorf("response: forward FFT failed: %w", err)
	}

	half := fftSize/2 + 1
	re := make([]float64, half)
	im := make([]float64, half)

	for i := 0; i < half; i++ {
		re[i] = real(freq[i])
		im[i] = imag(freq[i])
	}

	bins := make([]float64, half)
	vecmath.Magnitude(bins, re, im)

	return &MagnitudeResponse{
		Bins:       bins,
		FFTSize:    fftSize,
		SampleRate: sampleRate,
	}, nil
}

// At returns the linear magnitude at the given frequency, interpolating
// between bins. Frequencies outside [0, Nyquist] clamp to the edge bins.
func (m *MagnitudeResponse) At(freq float64) float64 {
	pos := freq / m.SampleRate * float64(m.FFTSize)

	if pos <= 0 {
		return m.Bins[0]
	}

	if pos >= float64(len(m.Bins)-1) {
		return m.Bins[len(m.Bins)-1]
	}

	lo := int(pos)
	t := pos - float64(lo)

	return m.Bins[lo] + t*(m.Bins[lo+1]-m.Bins[lo])
}

// DBAt returns the magnitude at the given frequency in dB.
func (m *MagnitudeResponse) DBAt(freq float64) float64 {
	return DB(m.At(freq))
}

// DB converts a linear magnitude to decibels.
func DB(x float64) float64 {
	if x <= 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(x)
}

func nextPowerOf2(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}

	return size
}
