// Package gain implements the pre-gain stage: a uniform scalar gain applied
// ahead of the equalizer.
package gain

import (
	"math"

	"github.com/cwbudde/algo-audiochain/dsp/buffer"
)

const (
	// MinDB and MaxDB bound the configurable gain. Out-of-range requests are
	// clamped, not rejected.
	MinDB = -12.0
	MaxDB = 12.0

	// DefaultDB is unity gain.
	DefaultDB = 0.0
)

// PreGain scales every sample by a cached linear multiplier derived from the
// configured dB value.
type PreGain struct {
	gainDB     float64
	gainLinear float64
	enabled    bool
}

// New creates a pre-gain stage at unity, enabled.
func New() *PreGain {
	return &PreGain{
		gainDB:     DefaultDB,
		gainLinear: 1.0,
		enabled:    true,
	}
}

// SetGain sets the gain in dB, clamping to [MinDB, MaxDB]. The linear
// multiplier is recomputed; it is never set independently. Always succeeds.
func (g *PreGain) SetGain(gainDB float64) {
	if gainDB < MinDB || math.IsNaN(gainDB) {
		gainDB = MinDB
	}

	if gainDB > MaxDB {
		gainDB = MaxDB
	}

	g.gainDB = gainDB
	g.gainLinear = math.Pow(10, gainDB/20)
}

// Gain returns the configured gain in dB.
func (g *PreGain) Gain() float64 { return g.gainDB }

// Linear returns the cached linear multiplier.
func (g *PreGain) Linear() float64 { return g.gainLinear }

// SetEnabled toggles the stage.
func (g *PreGain) SetEnabled(enabled bool) { g.enabled = enabled }

// Enabled reports whether the stage is active.
func (g *PreGain) Enabled() bool { return g.enabled }

// Process multiplies every sample (both channels) by the linear gain. The
// product is computed in a 64-bit intermediate and saturated to the int32
// range before storing back. Disabled or exact-0 dB passes are short-circuited.
func (g *PreGain) Process(buf *buffer.Buffer) {
	if !g.enabled || g.gainDB == 0 {
		return
	}

	samples := buf.Samples()
	for i, s := range samples {
		samples[i] = buffer.SaturateInt32(int64(float64(s) * g.gainLinear))
	}
}

// Reset is a no-op: the stage has no transient state. Present so every stage
// satisfies the same contract.
func (g *PreGain) Reset() {}
