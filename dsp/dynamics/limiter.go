// Package dynamics implements the look-ahead peak limiter that ends the
// processing chain.
package dynamics

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-audiochain/dsp/buffer"
)

const (
	// DefaultThresholdDB sits slightly below 0 dBFS.
	DefaultThresholdDB = -0.5

	// MinThresholdDB and MaxThresholdDB bound SetThreshold. Out-of-range
	// requests are clamped, not rejected.
	MinThresholdDB = -12.0
	MaxThresholdDB = 0.0

	// DefaultLookaheadMs is the look-ahead duration; the delay line length is
	// derived from it at configuration time.
	DefaultLookaheadMs = 5.0

	// DefaultAttackMs and DefaultReleaseMs are the envelope time constants:
	// attack short to catch transients, release long to recover smoothly.
	DefaultAttackMs  = 0.5
	DefaultReleaseMs = 50.0

	// MaxLookaheadSamples caps the delay line (interleaved samples). 5 ms of
	// stereo at 48 kHz is 480 samples.
	MaxLookaheadSamples = 512

	// minEnvelope is the floor for the envelope and the desired gain: the
	// envelope is never zero or non-finite.
	minEnvelope = 1e-8

	// triggerThreshold is the near-unity hysteresis point for the
	// "currently limiting" state; not exactly 1.0 so envelope jitter around
	// unity does not flap the flag.
	triggerThreshold = 0.999

	// statsUpdateInterval throttles the log10 conversion for statistics:
	// only every Nth noticeable envelope change updates the dB figures.
	statsUpdateInterval = 16

	// envelopeChangeEps decides whether an envelope update counts as a
	// noticeable change for the stats throttle.
	envelopeChangeEps = 1e-6
)

// TriggerFunc is invoked synchronously from the audio thread whenever the
// limiter transitions into (true) or out of (false) its limiting state.
// Implementations must be lock-free, allocation-free and non-blocking: the
// call executes on the real-time path.
type TriggerFunc func(limiting bool)

// Limiter is a feed-forward look-ahead peak limiter: a circular delay line,
// a per-frame peak detector, an attack/release envelope follower and Q16
// gain application to the delayed signal.
//
// The limiter compares peak magnitudes against thresholdLinear scaled by
// buffer.FullScale: its input must be right-justified 24-bit samples, the
// scale every upstream stage produces.
type Limiter struct {
	sampleRate  float64
	thresholdDB float64
	threshold   float64 // linear, 0..1

	attackCoeff      float64
	releaseCoeff     float64
	lookaheadSamples int

	ring       [MaxLookaheadSamples]int32
	writeIndex int
	envelope   float64

	peakReductionDB float64
	clipPrevented   uint32
	statsCounter    int
	minEnvelope     float64

	triggered bool
	enabled   bool
	onTrigger TriggerFunc
}

// New creates a limiter with production defaults for the given sample rate.
func New(sampleRate float64) (*Limiter, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("limiter: sample rate must be positive and finite: %f", sampleRate)
	}

	l := &Limiter{
		sampleRate:  sampleRate,
		envelope:    1.0,
		minEnvelope: 1.0,
		enabled:     true,
	}
	l.SetThreshold(DefaultThresholdDB)

	// Delay line length: duration x rate x channels, rounded down to whole
	// stereo frames, capped at the ring capacity.
	samples := int(DefaultLookaheadMs * sampleRate * 2 / 1000)
	if samples > MaxLookaheadSamples {
		samples = MaxLookaheadSamples
	}

	samples -= samples % 2
	if samples < 2 {
		samples = 2
	}

	l.lookaheadSamples = samples

	// One-pole smoothing coefficients from the time constants.
	l.attackCoeff = math.Exp(-1 / (DefaultAttackMs / 1000 * sampleRate))
	l.releaseCoeff = math.Exp(-1 / (DefaultReleaseMs / 1000 * sampleRate))

	return l, nil
}

// SetThreshold sets the limiting threshold in dB, clamping to
// [MinThresholdDB, MaxThresholdDB], and recomputes the cached linear form.
// Always succeeds.
func (l *Limiter) SetThreshold(thresholdDB float64) {
	if thresholdDB < MinThresholdDB || math.IsNaN(thresholdDB) {
		thresholdDB = MinThresholdDB
	}

	if thresholdDB > MaxThresholdDB {
		thresholdDB = MaxThresholdDB
	}

	l.thresholdDB = thresholdDB
	l.threshold = math.Pow(10, thresholdDB/20)
}

// Threshold returns the configured threshold in dB.
func (l *Limiter) Threshold() float64 { return l.thresholdDB }

// ThresholdLinear returns the cached linear threshold in [0, 1].
func (l *Limiter) ThresholdLinear() float64 { return l.threshold }

// SetEnabled toggles the stage.
func (l *Limiter) SetEnabled(enabled bool) { l.enabled = enabled }

// Enabled reports whether the stage is active.
func (l *Limiter) Enabled() bool { return l.enabled }

// SetTriggerFunc installs the transition notification. Pass nil to clear.
func (l *Limiter) SetTriggerFunc(fn TriggerFunc) { l.onTrigger = fn }

// Envelope returns the current gain envelope in (0, 1].
func (l *Limiter) Envelope() float64 { return l.envelope }

// Limiting reports the hysteretic "currently limiting" state.
func (l *Limiter) Limiting() bool { return l.triggered }

// PeakReduction returns the deepest gain reduction observed, in dB
// (negative). Updated on the throttled stats path, so the value is
// eventually consistent, not per-frame.
func (l *Limiter) PeakReduction() float64 { return l.peakReductionDB }

// ClipsPrevented returns the number of frames whose peak exceeded the
// threshold since the last stats reset.
func (l *Limiter) ClipsPrevented() uint32 { return l.clipPrevented }

// LookaheadSamples returns the delay line length in interleaved samples.
func (l *Limiter) LookaheadSamples() int { return l.lookaheadSamples }

// Process limits the buffer in place. Per stereo frame: emit the delayed
// frame from the ring, store the current frame, detect the current frame's
// peak, follow the envelope toward the desired gain (attack when reducing,
// release when recovering) and apply the envelope to the delayed frame as a
// Q16 multiplier computed in int64 and saturated to int32.
func (l *Limiter) Process(buf *buffer.Buffer) {
	if !l.enabled {
		return
	}

	thresholdLinear := l.threshold * buffer.FullScale
	samples := buf.Samples()

	for i := 0; i+1 < len(samples); i += 2 {
		delayedL := l.ring[l.writeIndex]
		delayedR := l.ring[l.writeIndex+1]

		l.ring[l.writeIndex] = samples[i]
		l.ring[l.writeIndex+1] = samples[i+1]

		l.writeIndex += 2
		if l.writeIndex >= l.lookaheadSamples {
			l.writeIndex = 0
		}

		// Peak of the un-delayed frame: the limiter reacts before the
		// transient reaches the output.
		peak := frameAbsMax(samples[i], samples[i+1])

		desiredGain := 1.0
		if peak > thresholdLinear && peak > 0 {
			desiredGain = thresholdLinear / peak
			if desiredGain < minEnvelope {
				desiredGain = minEnvelope
			}

			l.clipPrevented++
		}

		prevEnvelope := l.envelope
		if desiredGain < l.envelope {
			l.envelope = l.attackCoeff*l.envelope + (1-l.attackCoeff)*desiredGain
		} else {
			l.envelope = l.releaseCoeff*l.envelope + (1-l.releaseCoeff)*desiredGain
		}

		if math.IsNaN(l.envelope) || math.IsInf(l.envelope, 0) || l.envelope < minEnvelope {
			l.envelope = minEnvelope
		}

		if math.Abs(prevEnvelope-l.envelope) > envelopeChangeEps {
			l.statsCounter++
			if l.statsCounter >= statsUpdateInterval {
				l.statsCounter = 0
				l.updateStats()
			}
		}

		nowTriggered := l.envelope < triggerThreshold
		if nowTriggered != l.triggered {
			l.triggered = nowTriggered
			if l.onTrigger != nil {
				l.onTrigger(nowTriggered)
			}
		}

		gainQ16 := int64(l.envelope*65536 + 0.5)
		samples[i] = buffer.SaturateInt32((int64(delayedL) * gainQ16) >> 16)
		samples[i+1] = buffer.SaturateInt32((int64(delayedR) * gainQ16) >> 16)
	}
}

// Reset clears the delay line and restores the envelope to unity. Threshold
// and time-constant configuration are untouched; cumulative statistics
// survive (use ResetStats for those).
func (l *Limiter) Reset() {
	for i := range l.ring {
		l.ring[i] = 0
	}

	l.writeIndex = 0
	l.envelope = 1.0
	l.statsCounter = 0
	l.minEnvelope = 1.0
}

// ResetStats clears the cumulative statistics.
func (l *Limiter) ResetStats() {
	l.peakReductionDB = 0
	l.clipPrevented = 0
}

// updateStats runs off the per-frame fast path (throttled): the log10
// conversion is too expensive to pay every frame.
func (l *Limiter) updateStats() {
	if l.envelope < l.minEnvelope {
		l.minEnvelope = l.envelope

		reductionDB := 20 * math.Log10(l.minEnvelope)
		if reductionDB < l.peakReductionDB {
			l.peakReductionDB = reductionDB
		}
	}
}

func frameAbsMax(a, b int32) float64 {
	ua := uint32(a)
	if a < 0 {
		ua = uint32(-int64(a))
	}

	ub := uint32(b)
	if b < 0 {
		ub = uint32(-int64(b))
	}

	if ub > ua {
		ua = ub
	}

	return float64(ua)
}
