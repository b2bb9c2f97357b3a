// Command audiochain runs the stereo processing chain over WAV files and
// generates test signals.
//
// Usage:
//
//	audiochain process input.wav output.wav [flags]
//	audiochain tone output.wav [flags]
//
// Examples:
//
//	audiochain process in.wav out.wav --pre-gain 3 --preset bass
//	audiochain process in.wav out.wav --settings chain.json --save-settings
//	audiochain tone sweep.wav --frequency 440 --waveform square --duration 5
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-audiochain/dsp/buffer"
	"github.com/cwbudde/algo-audiochain/dsp/chain"
	"github.com/cwbudde/algo-audiochain/dsp/gen"
	"github.com/cwbudde/algo-audiochain/internal/engine"
	"github.com/cwbudde/algo-audiochain/settings"
	"github.com/cwbudde/algo-audiochain/transport"
)

var version = "0.1.0"

type cli struct {
	Verbose bool             `short:"v" help:"Enable debug logging."`
	Version kong.VersionFlag `help:"Show version and exit."`

	Process processCmd `cmd:"" help:"Process a WAV file through the chain."`
	Tone    toneCmd    `cmd:"" help:"Generate a test tone WAV file."`
}

type processCmd struct {
	Input  string `arg:"" type:"existingfile" help:"Input WAV file (mono or stereo, 16/24/32-bit)."`
	Output string `arg:"" type:"path" help:"Output WAV file (stereo 24-bit)."`

	Settings     string `type:"path" help:"JSON settings file to load before processing."`
	SaveSettings bool   `help:"Write the effective settings back to the settings file."`

	SubsonicFreq float64   `default:"25" help:"Subsonic filter cutoff in Hz (15 to 50)."`
	SubsonicOff  bool      `help:"Disable the subsonic filter."`
	PreGain      float64   `default:"0" help:"Pre-gain in dB (-12 to 12)."`
	Preset       string    `help:"Equalizer preset name."`
	Band         []float64 `help:"Per-band equalizer gains in dB, low to high (up to 5)."`
	EqOff        bool      `help:"Disable the equalizer."`
	Threshold    float64   `default:"-0.5" help:"Limiter threshold in dB (-12 to 0)."`
	LimiterOff   bool      `help:"Disable the limiter."`
	BufferFrames int       `default:"1024" help:"Processing block size in frames."`
	ShowLimiting bool      `help:"Report limiter activity after processing."`
}

type toneCmd struct {
	Output string `arg:"" type:"path" help:"Output WAV file."`

	Frequency  float64 `default:"1000" help:"Tone frequency in Hz."`
	Waveform   string  `default:"sine" enum:"sine,square,triangle,sawtooth" help:"Waveform shape."`
	Amplitude  float64 `default:"0.5" help:"Linear amplitude (0 to 1)."`
	Duration   float64 `default:"2" help:"Duration in seconds."`
	SampleRate int     `default:"48000" help:"Sample rate in Hz."`
}

func main() {
	args := &cli{}
	ctx := kong.Parse(args,
		kong.Name("audiochain"),
		kong.Description("Stereo subsonic/EQ/limiter processing chain"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	logrus.SetLevel(logrus.InfoLevel)
	if args.Verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if err := ctx.Run(); err != nil {
		logrus.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}

func (c *processCmd) Run() error {
	reader, err := transport.OpenWAVReader(c.Input)
	if err != nil {
		return err
	}
	defer reader.Close()

	sampleRate := reader.SampleRate()

	ch, err := chain.New(float64(sampleRate))
	if err != nil {
		return err
	}

	var store *settings.FileStore
	if c.Settings != "" {
		store, err = settings.NewFileStore(c.Settings)
		if err != nil {
			return err
		}

		snap, err := store.Load()
		switch {
		case errors.Is(err, settings.ErrNotFound):
			logrus.WithField("path", c.Settings).Info("No settings file yet, using defaults")
		case err != nil:
			return err
		default:
			if err := ch.ApplySettings(snap); err != nil {
				return err
			}
		}
	}

	if err := c.configure(ch); err != nil {
		return err
	}

	writer, err := transport.CreateWAVWriter(c.Output, sampleRate)
	if err != nil {
		return err
	}

	eng, err := engine.New(engine.Config{
		SampleRate:   float64(sampleRate),
		BufferFrames: c.BufferFrames,
	}, ch, reader, writer)
	if err != nil {
		writer.Close()

		return err
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := eng.Run(runCtx)

	if err := writer.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return runErr
	}

	st := ch.Status()
	stats := eng.Stats()

	logrus.WithFields(logrus.Fields{
		"frames":          stats.Frames,
		"clips_prevented": st.ClipsPrevented,
		"peak_reduction":  fmt.Sprintf("%.1f dB", st.PeakReductionDB),
		"worst_budget":    fmt.Sprintf("%.3f", stats.WorstBudget),
	}).Info("Processing complete")

	if c.ShowLimiting && st.ClipsPrevented > 0 {
		fmt.Printf("limiter engaged: %d frames reduced, deepest %.1f dB\n",
			st.ClipsPrevented, st.PeakReductionDB)
	}

	if c.SaveSettings {
		if store == nil {
			return fmt.Errorf("--save-settings requires --settings")
		}

		return store.Save(ch.Settings())
	}

	return nil
}

// configure translates flags into chain commands. They take effect on the
// first processed block.
func (c *processCmd) configure(ch *chain.Chain) error {
	if err := ch.SetSubsonicFrequency(c.SubsonicFreq); err != nil {
		return err
	}
	if err := ch.SetSubsonicEnabled(!c.SubsonicOff); err != nil {
		return err
	}

	if err := ch.SetPreGain(c.PreGain); err != nil {
		return err
	}

	if c.Preset != "" {
		if err := ch.ApplyPreset(c.Preset); err != nil {
			return err
		}
	}

	for band, db := range c.Band {
		if err := ch.SetBandGain(band, db); err != nil {
			return err
		}
	}

	if err := ch.SetEqualizerEnabled(!c.EqOff); err != nil {
		return err
	}

	if err := ch.SetLimiterThreshold(c.Threshold); err != nil {
		return err
	}

	return ch.SetLimiterEnabled(!c.LimiterOff)
}

func (c *toneCmd) Run() error {
	waveform, err := gen.ParseWaveform(c.Waveform)
	if err != nil {
		return err
	}

	tone, err := gen.NewTone(float64(c.SampleRate), c.Frequency, waveform)
	if err != nil {
		return err
	}
	tone.SetAmplitude(c.Amplitude)

	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive: %f", c.Duration)
	}

	writer, err := transport.CreateWAVWriter(c.Output, c.SampleRate)
	if err != nil {
		return err
	}

	const blockFrames = 1024
	buf := buffer.New(blockFrames)

	remaining := int(c.Duration * float64(c.SampleRate))
	for remaining > 0 {
		frames := blockFrames
		if frames > remaining {
			frames = remaining
			buf.Resize(frames)
		}

		tone.Fill(buf)

		if err := writer.Write(buf.Samples()); err != nil {
			writer.Close()

			return err
		}

		remaining -= frames
	}

	if err := writer.Close(); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"path":      c.Output,
		"frequency": c.Frequency,
		"waveform":  c.Waveform,
		"duration":  c.Duration,
	}).Info("Tone written")

	return nil
}
