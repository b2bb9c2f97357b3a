// Package subsonic implements the DC/infrasonic rejection stage: a single
// 2nd-order Butterworth high-pass biquad applied to both channels.
package subsonic

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-audiochain/dsp/buffer"
	"github.com/cwbudde/algo-audiochain/dsp/filter/biquad"
	"github.com/cwbudde/algo-audiochain/dsp/filter/design"
)

const (
	// DefaultFrequency is the cutoff applied at construction.
	DefaultFrequency = 25.0

	// MinFrequency and MaxFrequency bound SetFrequency. Requests outside the
	// range are rejected, not clamped.
	MinFrequency = 15.0
	MaxFrequency = 50.0
)

// Filter is the subsonic high-pass stage. One coefficient set is shared by
// the two per-channel histories.
type Filter struct {
	sampleRate float64
	freq       float64
	enabled    bool

	coeffs biquad.FixedCoefficients
	left   biquad.FixedState
	right  biquad.FixedState
}

// New creates a subsonic filter at the default cutoff, enabled.
func New(sampleRate float64) (*Filter, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("subsonic: sample rate must be positive and finite: %f", sampleRate)
	}

	f := &Filter{
		sampleRate: sampleRate,
		freq:       DefaultFrequency,
		enabled:    true,
	}
	f.recalculate()

	return f, nil
}

// SetFrequency moves the cutoff. Out-of-range values are rejected and leave
// cutoff, coefficients and state untouched. On success the coefficients are
// recomputed and the filter state is reset: a coefficient jump on live filter
// history produces an audible transient.
func (f *Filter) SetFrequency(freq float64) error {
	if freq < MinFrequency || freq > MaxFrequency || math.IsNaN(freq) {
		return fmt.Errorf("subsonic: frequency must be in [%g, %g] Hz: %f", MinFrequency, MaxFrequency, freq)
	}

	f.freq = freq
	f.recalculate()
	f.Reset()

	return nil
}

// Frequency returns the current cutoff in Hz.
func (f *Filter) Frequency() float64 { return f.freq }

// SetEnabled toggles the stage. Disabled processing passes buffers through
// unmodified.
func (f *Filter) SetEnabled(enabled bool) { f.enabled = enabled }

// Enabled reports whether the stage is active.
func (f *Filter) Enabled() bool { return f.enabled }

// Process applies the high-pass to both channels in place.
func (f *Filter) Process(buf *buffer.Buffer) {
	if !f.enabled {
		return
	}

	samples := buf.Samples()
	for i := 0; i+1 < len(samples); i += 2 {
		samples[i] = biquad.ProcessSample(&f.coeffs, &f.left, samples[i])
		samples[i+1] = biquad.ProcessSample(&f.coeffs, &f.right, samples[i+1])
	}
}

// Reset clears both channel histories. Configuration is untouched.
func (f *Filter) Reset() {
	f.left.Reset()
	f.right.Reset()
}

// State returns copies of the per-channel histories, for inspection.
func (f *Filter) State() (left, right biquad.FixedState) {
	return f.left, f.right
}

func (f *Filter) recalculate() {
	f.coeffs = biquad.Quantize(design.Highpass(f.freq, design.ButterworthQ, f.sampleRate))
}
