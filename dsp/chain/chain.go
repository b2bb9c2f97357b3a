// Package chain wires the processing stages into the fixed pipeline
// subsonic filter, pre-gain, equalizer, limiter, and owns the control
// surface for a running chain.
//
// Threading model: exactly one goroutine (the audio goroutine) calls
// Process. Control goroutines mutate the chain only through the setter
// methods, which validate immediately and enqueue the mutation; Process
// drains the queue between buffers, so stage state is only ever touched
// from the audio goroutine. Reads go through the lock-free status snapshot.
package chain

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-audiochain/dsp/buffer"
	"github.com/cwbudde/algo-audiochain/dsp/dynamics"
	"github.com/cwbudde/algo-audiochain/dsp/eq"
	"github.com/cwbudde/algo-audiochain/dsp/gain"
	"github.com/cwbudde/algo-audiochain/dsp/subsonic"
	"github.com/cwbudde/algo-audiochain/settings"
)

// Stage names, used for settings persistence and targeted resets.
const (
	StageSubsonic  = "subsonic"
	StagePreGain   = "pregain"
	StageEqualizer = "equalizer"
	StageLimiter   = "limiter"
)

// commandQueueSize bounds pending control mutations. The audio goroutine
// drains the queue every buffer, so the queue only fills if audio stalls.
const commandQueueSize = 64

// ErrCommandQueueFull is returned when a control mutation cannot be
// enqueued because the audio goroutine has stopped draining.
var ErrCommandQueueFull = fmt.Errorf("chain: command queue full")

// Chain is the four-stage stereo processing pipeline.
type Chain struct {
	sampleRate float64

	subsonic *subsonic.Filter
	preGain  *gain.PreGain
	eq       *eq.Equalizer
	limiter  *dynamics.Limiter

	commands chan func()
	status   atomic.Pointer[Status]

	limitingLatch atomic.Bool
	frames        uint64

	log *logrus.Entry
}

// New creates a chain with default stage settings for the given sample rate.
func New(sampleRate float64) (*Chain, error) {
	sub, err := subsonic.New(sampleRate)
	if err != nil {
		return nil, err
	}

	equalizer, err := eq.New(sampleRate)
	if err != nil {
		return nil, err
	}

	limiter, err := dynamics.New(sampleRate)
	if err != nil {
		return nil, err
	}

	c := &Chain{
		sampleRate: sampleRate,
		subsonic:   sub,
		preGain:    gain.New(),
		eq:         equalizer,
		limiter:    limiter,
		commands:   make(chan func(), commandQueueSize),
		log:        logrus.WithField("component", "chain"),
	}

	limiter.SetTriggerFunc(func(limiting bool) {
		if limiting {
			c.limitingLatch.Store(true)
		}
	})

	c.publishStatus()

	c.log.WithFields(logrus.Fields{
		"sample_rate": sampleRate,
		"lookahead":   limiter.LookaheadSamples(),
	}).Info("Chain configured")

	return c, nil
}

// SampleRate returns the configured sample rate.
func (c *Chain) SampleRate() float64 { return c.sampleRate }

// Process runs one buffer through the pipeline in place. Pending control
// commands are applied first, so parameter changes land on buffer
// boundaries, never mid-buffer.
func (c *Chain) Process(buf *buffer.Buffer) {
	c.drainCommands()

	c.subsonic.Process(buf)
	c.preGain.Process(buf)
	c.eq.Process(buf)
	c.limiter.Process(buf)

	c.frames += uint64(buf.Frames())
	c.publishStatus()
}

func (c *Chain) drainCommands() {
	for {
		select {
		case cmd := <-c.commands:
			cmd()
		default:
			return
		}
	}
}

// enqueue hands a mutation to the audio goroutine.
func (c *Chain) enqueue(cmd func()) error {
	select {
	case c.commands <- cmd:
		return nil
	default:
		return ErrCommandQueueFull
	}
}

// SetSubsonicFrequency validates the cutoff and schedules the change.
// Out-of-range frequencies are rejected; the running filter is untouched.
func (c *Chain) SetSubsonicFrequency(freq float64) error {
	if freq < subsonic.MinFrequency || freq > subsonic.MaxFrequency || math.IsNaN(freq) {
		return fmt.Errorf("chain: subsonic frequency %f outside [%f, %f]",
			freq, subsonic.MinFrequency, subsonic.MaxFrequency)
	}

	return c.enqueue(func() {
		if err := c.subsonic.SetFrequency(freq); err != nil {
			c.log.WithError(err).Warn("Subsonic frequency rejected")
		}
	})
}

// SetSubsonicEnabled schedules the stage toggle.
func (c *Chain) SetSubsonicEnabled(enabled bool) error {
	return c.enqueue(func() { c.subsonic.SetEnabled(enabled) })
}

// SetPreGain schedules the pre-gain change. Values outside the stage's
// range are clamped by the stage, not rejected.
func (c *Chain) SetPreGain(gainDB float64) error {
	return c.enqueue(func() { c.preGain.SetGain(gainDB) })
}

// SetPreGainEnabled schedules the stage toggle.
func (c *Chain) SetPreGainEnabled(enabled bool) error {
	return c.enqueue(func() { c.preGain.SetEnabled(enabled) })
}

// SetBandGain validates the band index and schedules the gain change.
// The gain itself is clamped by the stage.
func (c *Chain) SetBandGain(band int, gainDB float64) error {
	if band < 0 || band >= eq.NumBands {
		return fmt.Errorf("chain: band %d outside [0, %d)", band, eq.NumBands)
	}

	return c.enqueue(func() {
		if err := c.eq.SetBandGain(band, gainDB); err != nil {
			c.log.WithError(err).Warn("Band gain rejected")
		}
	})
}

// SetEqualizerEnabled schedules the stage toggle.
func (c *Chain) SetEqualizerEnabled(enabled bool) error {
	return c.enqueue(func() { c.eq.SetEnabled(enabled) })
}

// ApplyPreset validates the preset name and schedules it on all bands.
func (c *Chain) ApplyPreset(name string) error {
	if _, err := eq.PresetGains(name); err != nil {
		return err
	}

	return c.enqueue(func() {
		if err := c.eq.ApplyPreset(name); err != nil {
			c.log.WithError(err).Warn("Preset rejected")
		}
	})
}

// SetLimiterThreshold schedules the threshold change. The stage clamps the
// value to its range.
func (c *Chain) SetLimiterThreshold(thresholdDB float64) error {
	return c.enqueue(func() { c.limiter.SetThreshold(thresholdDB) })
}

// SetLimiterEnabled schedules the stage toggle.
func (c *Chain) SetLimiterEnabled(enabled bool) error {
	return c.enqueue(func() { c.limiter.SetEnabled(enabled) })
}

// ResetStage schedules a state reset for one stage by name.
func (c *Chain) ResetStage(name string) error {
	switch name {
	case StageSubsonic:
		return c.enqueue(c.subsonic.Reset)
	case StagePreGain:
		return c.enqueue(c.preGain.Reset)
	case StageEqualizer:
		return c.enqueue(c.eq.Reset)
	case StageLimiter:
		return c.enqueue(c.limiter.Reset)
	default:
		return fmt.Errorf("chain: unknown stage %q", name)
	}
}

// Reset schedules a full pipeline state reset. Configuration survives.
func (c *Chain) Reset() error {
	return c.enqueue(func() {
		c.subsonic.Reset()
		c.preGain.Reset()
		c.eq.Reset()
		c.limiter.Reset()
	})
}

// ResetStats schedules a limiter statistics reset.
func (c *Chain) ResetStats() error {
	return c.enqueue(c.limiter.ResetStats)
}

// Limiting reports whether the limiter engaged since the previous call and
// clears the latch, so a slow poller never misses a short burst.
func (c *Chain) Limiting() bool {
	return c.limitingLatch.Swap(false)
}

// ApplySettings schedules a whole snapshot onto the pipeline. Unknown stage
// names and value keys are ignored so old settings files stay loadable.
func (c *Chain) ApplySettings(snap settings.Snapshot) error {
	snap = snap.Clone()

	err := c.enqueue(func() {
		if stage, ok := snap[StageSubsonic]; ok {
			c.subsonic.SetEnabled(stage.Enabled)
			if freq, ok := stage.Values["frequency"]; ok {
				if err := c.subsonic.SetFrequency(freq); err != nil {
					c.log.WithError(err).Warn("Persisted subsonic frequency rejected")
				}
			}
		}

		if stage, ok := snap[StagePreGain]; ok {
			c.preGain.SetEnabled(stage.Enabled)
			if db, ok := stage.Values["gain_db"]; ok {
				c.preGain.SetGain(db)
			}
		}

		if stage, ok := snap[StageEqualizer]; ok {
			c.eq.SetEnabled(stage.Enabled)
			for band := 0; band < eq.NumBands; band++ {
				if db, ok := stage.Values[bandKey(band)]; ok {
					if err := c.eq.SetBandGain(band, db); err != nil {
						c.log.WithError(err).Warn("Persisted band gain rejected")
					}
				}
			}
		}

		if stage, ok := snap[StageLimiter]; ok {
			c.limiter.SetEnabled(stage.Enabled)
			if db, ok := stage.Values["threshold_db"]; ok {
				c.limiter.SetThreshold(db)
			}
		}
	})
	if err != nil {
		return err
	}

	c.log.WithField("stages", len(snap)).Info("Settings scheduled")

	return nil
}

// Settings captures the current configuration as a persistable snapshot,
// taken from the latest status so it is safe from any goroutine.
func (c *Chain) Settings() settings.Snapshot {
	st := c.Status()

	eqValues := make(map[string]float64, eq.NumBands)
	for band, db := range st.BandGains {
		eqValues[bandKey(band)] = db
	}

	return settings.Snapshot{
		StageSubsonic: {
			Enabled: st.SubsonicEnabled,
			Values:  map[string]float64{"frequency": st.SubsonicFrequency},
		},
		StagePreGain: {
			Enabled: st.PreGainEnabled,
			Values:  map[string]float64{"gain_db": st.PreGainDB},
		},
		StageEqualizer: {
			Enabled: st.EqualizerEnabled,
			Values:  eqValues,
		},
		StageLimiter: {
			Enabled: st.LimiterEnabled,
			Values:  map[string]float64{"threshold_db": st.LimiterThresholdDB},
		},
	}
}

func bandKey(band int) string {
	return fmt.Sprintf("band_%d", band)
}
