package chain

import "github.com/cwbudde/algo-audiochain/dsp/eq"

// Status is an immutable snapshot of the pipeline, published by the audio
// goroutine after every buffer and readable from any goroutine without
// locking.
type Status struct {
	SampleRate      float64
	FramesProcessed uint64

	SubsonicEnabled   bool
	SubsonicFrequency float64

	PreGainEnabled bool
	PreGainDB      float64

	EqualizerEnabled bool
	BandGains        [eq.NumBands]float64

	LimiterEnabled     bool
	LimiterThresholdDB float64
	Limiting           bool
	Envelope           float64
	PeakReductionDB    float64
	ClipsPrevented     uint32
}

// Status returns the most recently published snapshot.
func (c *Chain) Status() Status {
	return *c.status.Load()
}

// publishStatus runs on the audio goroutine.
func (c *Chain) publishStatus() {
	st := &Status{
		SampleRate:      c.sampleRate,
		FramesProcessed: c.frames,

		SubsonicEnabled:   c.subsonic.Enabled(),
		SubsonicFrequency: c.subsonic.Frequency(),

		PreGainEnabled: c.preGain.Enabled(),
		PreGainDB:      c.preGain.Gain(),

		EqualizerEnabled: c.eq.Enabled(),
		BandGains:        c.eq.Gains(),

		LimiterEnabled:     c.limiter.Enabled(),
		LimiterThresholdDB: c.limiter.Threshold(),
		Limiting:           c.limiter.Limiting(),
		Envelope:           c.limiter.Envelope(),
		PeakReductionDB:    c.limiter.PeakReduction(),
		ClipsPrevented:     c.limiter.ClipsPrevented(),
	}

	c.status.Store(st)
}
