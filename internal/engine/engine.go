// Package engine drives the processing chain: it pulls blocks from a
// transport Reader, runs them through the chain and pushes them to a
// Writer, while accounting for the real-time budget each block represents.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-audiochain/dsp/buffer"
	"github.com/cwbudde/algo-audiochain/dsp/chain"
	"github.com/cwbudde/algo-audiochain/transport"
)

// DefaultBufferFrames is the block size used when the config leaves it zero.
const DefaultBufferFrames = 1024

// defaultReportInterval is how many blocks pass between progress log lines.
const defaultReportInterval = 512

// Config parameterizes a Run.
type Config struct {
	SampleRate   float64
	BufferFrames int

	// ReportInterval is the number of blocks between throttled progress
	// reports; zero uses the default, negative disables reporting.
	ReportInterval int
}

// Stats accumulates over one Run.
type Stats struct {
	Blocks    uint64
	Frames    uint64
	Underruns uint64

	// WorstBudget is the highest processing-time to block-duration ratio
	// observed. Above 1.0 the chain could not have kept up in real time.
	WorstBudget float64
}

// Engine owns one reader/chain/writer hookup.
type Engine struct {
	cfg    Config
	chain  *chain.Chain
	reader transport.Reader
	writer transport.Writer

	stats Stats
	log   *logrus.Entry
}

// New validates the hookup.
func New(cfg Config, c *chain.Chain, r transport.Reader, w transport.Writer) (*Engine, error) {
	if c == nil {
		return nil, fmt.Errorf("engine: chain must not be nil")
	}

	if r == nil || w == nil {
		return nil, fmt.Errorf("engine: reader and writer must not be nil")
	}

	if cfg.SampleRate <= 0 {
		cfg.SampleRate = c.SampleRate()
	}

	if cfg.BufferFrames <= 0 {
		cfg.BufferFrames = DefaultBufferFrames
	}

	if cfg.ReportInterval == 0 {
		cfg.ReportInterval = defaultReportInterval
	}

	return &Engine{
		cfg:    cfg,
		chain:  c,
		reader: r,
		writer: w,
		log:    logrus.WithField("component", "engine"),
	}, nil
}

// Stats returns a copy of the accumulated statistics.
func (e *Engine) Stats() Stats { return e.stats }

// Run processes the stream until the reader is exhausted or the context is
// cancelled. A clean end of stream returns nil.
func (e *Engine) Run(ctx context.Context) error {
	buf := buffer.New(e.cfg.BufferFrames)
	samples := buf.Samples()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, readErr := e.reader.Read(samples)
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return fmt.Errorf("engine: read: %w", readErr)
		}

		if n > 0 {
			block, err := buffer.FromSlice(samples[:n])
			if err != nil {
				return fmt.Errorf("engine: reader produced a partial frame: %w", err)
			}

			start := time.Now()
			e.chain.Process(block)
			elapsed := time.Since(start)

			if err := e.writer.Write(samples[:n]); err != nil {
				return fmt.Errorf("engine: write: %w", err)
			}

			e.account(block.Frames(), elapsed)
		}

		if errors.Is(readErr, io.EOF) {
			e.log.WithFields(logrus.Fields{
				"blocks":       e.stats.Blocks,
				"frames":       e.stats.Frames,
				"underruns":    e.stats.Underruns,
				"worst_budget": e.stats.WorstBudget,
			}).Info("Stream complete")

			return nil
		}
	}
}

// account updates the budget statistics for one processed block.
func (e *Engine) account(frames int, elapsed time.Duration) {
	e.stats.Blocks++
	e.stats.Frames += uint64(frames)

	budget := time.Duration(float64(frames) / e.cfg.SampleRate * float64(time.Second))
	if budget <= 0 {
		return
	}

	ratio := float64(elapsed) / float64(budget)
	if ratio > e.stats.WorstBudget {
		e.stats.WorstBudget = ratio
	}

	if elapsed > budget {
		e.stats.Underruns++
		e.log.WithFields(logrus.Fields{
			"elapsed": elapsed,
			"budget":  budget,
		}).Warn("Block exceeded real-time budget")
	}

	if e.cfg.ReportInterval > 0 && e.stats.Blocks%uint64(e.cfg.ReportInterval) == 0 {
		e.log.WithFields(logrus.Fields{
			"blocks":       e.stats.Blocks,
			"frames":       e.stats.Frames,
			"worst_budget": e.stats.WorstBudget,
		}).Debug("Progress")
	}
}
