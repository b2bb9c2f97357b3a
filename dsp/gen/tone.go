// Package gen provides deterministic test-signal generators that fill
// interleaved stereo buffers.
package gen

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-audiochain/dsp/buffer"
)

// Waveform selects the generator shape.
type Waveform int

const (
	Sine Waveform = iota
	Square
	Triangle
	Sawtooth
)

// String returns the lowercase waveform name.
func (w Waveform) String() string {
	switch w {
	case Sine:
		return "sine"
	case Square:
		return "square"
	case Triangle:
		return "triangle"
	case Sawtooth:
		return "sawtooth"
	default:
		return "unknown"
	}
}

// ParseWaveform maps a name to its Waveform.
func ParseWaveform(name string) (Waveform, error) {
	switch name {
	case "sine":
		return Sine, nil
	case "square":
		return Square, nil
	case "triangle":
		return Triangle, nil
	case "sawtooth":
		return Sawtooth, nil
	default:
		return Sine, fmt.Errorf("gen: unknown waveform %q", name)
	}
}

// Tone is a phase-accumulator oscillator producing identical left and right
// channels at right-justified 24-bit scale.
type Tone struct {
	sampleRate float64
	frequency  float64
	amplitude  float64
	waveform   Waveform
	phase      float64 // cycles, [0, 1)
}

// NewTone creates a generator for the given rate, frequency and waveform.
// The frequency must lie in (0, rate/2).
func NewTone(sampleRate, frequency float64, waveform Waveform) (*Tone, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("gen: sample rate must be positive and finite: %f", sampleRate)
	}

	if frequency <= 0 || frequency >= sampleRate/2 || math.IsNaN(frequency) {
		return nil, fmt.Errorf("gen: frequency %f outside (0, %f)", frequency, sampleRate/2)
	}

	return &Tone{
		sampleRate: sampleRate,
		frequency:  frequency,
		amplitude:  1.0,
		waveform:   waveform,
	}, nil
}

// SetAmplitude sets the linear amplitude, clamped to [0, 1].
func (t *Tone) SetAmplitude(amplitude float64) {
	if amplitude < 0 || math.IsNaN(amplitude) {
		amplitude = 0
	}

	if amplitude > 1 {
		amplitude = 1
	}

	t.amplitude = amplitude
}

// Amplitude returns the linear amplitude.
func (t *Tone) Amplitude() float64 { return t.amplitude }

// Frequency returns the oscillator frequency in Hz.
func (t *Tone) Frequency() float64 { return t.frequency }

// Reset rewinds the phase accumulator.
func (t *Tone) Reset() { t.phase = 0 }

// Fill writes one buffer of the tone, both channels carrying the same
// signal, continuing from the previous call's phase.
func (t *Tone) Fill(buf *buffer.Buffer) {
	samples := buf.Samples()
	step := t.frequency / t.sampleRate
	scale := t.amplitude * (buffer.FullScale - 1)

	for i := 0; i+1 < len(samples); i += 2 {
		v := int32(t.sample() * scale)
		samples[i] = v
		samples[i+1] = v

		t.phase += step
		if t.phase >= 1 {
			t.phase -= 1
		}
	}
}

// sample evaluates the waveform at the current phase, in [-1, 1].
func (t *Tone) sample() float64 {
	switch t.waveform {
	case Square:
		if t.phase < 0.5 {
			return 1
		}
		return -1
	case Triangle:
		if t.phase < 0.25 {
			return 4 * t.phase
		}
		if t.phase < 0.75 {
			return 2 - 4*t.phase
		}
		return 4*t.phase - 4
	case Sawtooth:
		return 2*t.phase - 1
	default:
		return math.Sin(2 * math.Pi * t.phase)
	}
}
