package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-audiochain/dsp/chain"
	"github.com/cwbudde/algo-audiochain/transport"
)

func newTestChain(t *testing.T) *chain.Chain {
	t.Helper()

	c, err := chain.New(48000)
	require.NoError(t, err)

	return c
}

// silenceReader never ends; used to exercise cancellation.
type silenceReader struct{}

func (silenceReader) Read(samples []int32) (int, error) {
	for i := range samples {
		samples[i] = 0
	}

	return len(samples), nil
}

func TestNewValidation(t *testing.T) {
	c := newTestChain(t)
	reader, err := transport.NewMemoryReader(nil)
	require.NoError(t, err)
	writer := transport.NewMemoryWriter()

	_, err = New(Config{}, nil, reader, writer)
	assert.Error(t, err)

	_, err = New(Config{}, c, nil, writer)
	assert.Error(t, err)

	_, err = New(Config{}, c, reader, nil)
	assert.Error(t, err)
}

func TestRunProcessesWholeStream(t *testing.T) {
	src := make([]int32, 10000)
	for i := range src {
		src[i] = int32(i)
	}

	reader, err := transport.NewMemoryReader(src)
	require.NoError(t, err)
	writer := transport.NewMemoryWriter()

	eng, err := New(Config{BufferFrames: 256}, newTestChain(t), reader, writer)
	require.NoError(t, err)

	require.NoError(t, eng.Run(context.Background()))

	// Every input sample produced exactly one output sample, including the
	// short final block.
	assert.Len(t, writer.Samples(), len(src))

	stats := eng.Stats()
	assert.Equal(t, uint64(len(src)/2), stats.Frames)
	assert.Equal(t, uint64(20), stats.Blocks)
	assert.Greater(t, stats.WorstBudget, 0.0)
}

func TestRunSilencePassesThrough(t *testing.T) {
	reader, err := transport.NewMemoryReader(make([]int32, 4096))
	require.NoError(t, err)
	writer := transport.NewMemoryWriter()

	eng, err := New(Config{BufferFrames: 512}, newTestChain(t), reader, writer)
	require.NoError(t, err)

	require.NoError(t, eng.Run(context.Background()))

	for i, s := range writer.Samples() {
		require.Zerof(t, s, "sample %d", i)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	writer := transport.NewMemoryWriter()

	eng, err := New(Config{BufferFrames: 64}, newTestChain(t), silenceReader{}, writer)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRunEmptyStream(t *testing.T) {
	reader, err := transport.NewMemoryReader(nil)
	require.NoError(t, err)
	writer := transport.NewMemoryWriter()

	eng, err := New(Config{}, newTestChain(t), reader, writer)
	require.NoError(t, err)

	require.NoError(t, eng.Run(context.Background()))
	assert.Empty(t, writer.Samples())
	assert.Equal(t, uint64(0), eng.Stats().Blocks)
}
