// Package eq implements the 5-band parametric equalizer: five peaking
// biquads per channel run in cascade, band 0 through band 4.
package eq

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-audiochain/dsp/buffer"
	"github.com/cwbudde/algo-audiochain/dsp/filter/biquad"
	"github.com/cwbudde/algo-audiochain/dsp/filter/design"
)

// NumBands is the fixed band count.
const NumBands = 5

const (
	// MinGainDB and MaxGainDB bound per-band gain. Out-of-range requests are
	// clamped, not rejected.
	MinGainDB = -12.0
	MaxGainDB = 12.0
)

// bandFrequencies are the fixed center frequencies in Hz: sub-bass, bass,
// mid, upper mid, treble.
var bandFrequencies = [NumBands]float64{60, 250, 1000, 4000, 12000}

// BandFrequencies returns the fixed center frequencies in Hz.
func BandFrequencies() [NumBands]float64 { return bandFrequencies }

// Equalizer holds per-band coefficients and per-channel filter histories.
// All bands share design.ButterworthQ for a wide peaking response.
type Equalizer struct {
	sampleRate float64
	enabled    bool

	gains  [NumBands]float64
	coeffs [NumBands]biquad.FixedCoefficients
	left   [NumBands]biquad.FixedState
	right  [NumBands]biquad.FixedState
}

// New creates an equalizer with every band at 0 dB (unity), enabled.
func New(sampleRate float64) (*Equalizer, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("eq: sample rate must be positive and finite: %f", sampleRate)
	}

	e := &Equalizer{
		sampleRate: sampleRate,
		enabled:    true,
	}
	for band := range NumBands {
		e.recalculateBand(band)
	}

	return e, nil
}

// SetBandGain sets one band's gain in dB, clamping to [MinGainDB, MaxGainDB],
// and recomputes only that band's coefficients. Filter state is untouched:
// a gain change on a running band is a small coefficient perturbation, unlike
// the subsonic cutoff jump. Fails only for an invalid band index.
func (e *Equalizer) SetBandGain(band int, gainDB float64) error {
	if band < 0 || band >= NumBands {
		return fmt.Errorf("eq: band must be in [0, %d]: %d", NumBands-1, band)
	}

	if gainDB < MinGainDB || math.IsNaN(gainDB) {
		gainDB = MinGainDB
	}

	if gainDB > MaxGainDB {
		gainDB = MaxGainDB
	}

	e.gains[band] = gainDB
	e.recalculateBand(band)

	return nil
}

// BandGain returns one band's configured gain in dB.
func (e *Equalizer) BandGain(band int) (float64, error) {
	if band < 0 || band >= NumBands {
		return 0, fmt.Errorf("eq: band must be in [0, %d]: %d", NumBands-1, band)
	}

	return e.gains[band], nil
}

// Gains returns all band gains in dB.
func (e *Equalizer) Gains() [NumBands]float64 { return e.gains }

// SetEnabled toggles the stage.
func (e *Equalizer) SetEnabled(enabled bool) { e.enabled = enabled }

// Enabled reports whether the stage is active.
func (e *Equalizer) Enabled() bool { return e.enabled }

// Process runs the five bands in cascade over the buffer: each band filters
// the entire buffer (left then right within each frame) before the next band
// starts, so later bands see the output of earlier ones. A fully flat
// configuration skips the cascade; with Q24 unity coefficients the identity
// cascade reproduces its input exactly, so skipping is indistinguishable.
func (e *Equalizer) Process(buf *buffer.Buffer) {
	if !e.enabled || e.allFlat() {
		return
	}

	samples := buf.Samples()

	for band := range NumBands {
		c := &e.coeffs[band]
		left := &e.left[band]
		right := &e.right[band]

		for i := 0; i+1 < len(samples); i += 2 {
			samples[i] = biquad.ProcessSample(c, left, samples[i])
			samples[i+1] = biquad.ProcessSample(c, right, samples[i+1])
		}
	}
}

// Reset clears all ten channel histories. Coefficients and gains are
// untouched.
func (e *Equalizer) Reset() {
	for band := range NumBands {
		e.left[band].Reset()
		e.right[band].Reset()
	}
}

func (e *Equalizer) allFlat() bool {
	for _, g := range e.gains {
		if g != 0 {
			return false
		}
	}

	return true
}

func (e *Equalizer) recalculateBand(band int) {
	e.coeffs[band] = biquad.Quantize(design.Peak(
		bandFrequencies[band], e.gains[band], design.ButterworthQ, e.sampleRate))
}
