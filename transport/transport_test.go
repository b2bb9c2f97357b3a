package transport

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryReaderRejectsOddLength(t *testing.T) {
	_, err := NewMemoryReader(make([]int32, 3))
	require.Error(t, err)
}

func TestMemoryRoundTrip(t *testing.T) {
	src := make([]int32, 1000)
	for i := range src {
		src[i] = int32(i - 500)
	}

	reader, err := NewMemoryReader(src)
	require.NoError(t, err)
	writer := NewMemoryWriter()

	block := make([]int32, 256)
	for {
		n, err := reader.Read(block)
		if n > 0 {
			require.NoError(t, writer.Write(block[:n]))
		}
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}

	assert.Equal(t, src, writer.Samples())
}

func TestMemoryReaderShortFinalBlock(t *testing.T) {
	reader, err := NewMemoryReader(make([]int32, 10))
	require.NoError(t, err)

	block := make([]int32, 8)

	n, err := reader.Read(block)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	n, err = reader.Read(block)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = reader.Read(block)
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)
}

func TestWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roundtrip.wav")

	src := make([]int32, 2048)
	for i := range src {
		src[i] = int32((i%256 - 128) << 12)
	}

	writer, err := CreateWAVWriter(path, 48000)
	require.NoError(t, err)
	require.NoError(t, writer.Write(src[:1024]))
	require.NoError(t, writer.Write(src[1024:]))
	require.NoError(t, writer.Close())

	reader, err := OpenWAVReader(path)
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, 48000, reader.SampleRate())
	assert.Equal(t, 2, reader.Channels())

	got := make([]int32, 0, len(src))
	block := make([]int32, 512)
	for {
		n, err := reader.Read(block)
		if n > 0 {
			got = append(got, block[:n]...)
		}
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}

	assert.Equal(t, src, got)
}

func TestOpenWAVReaderRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.wav")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a wav"), 0o644))

	_, err := OpenWAVReader(path)
	require.Error(t, err)
}

func TestOpenWAVReaderRejectsMissingFile(t *testing.T) {
	_, err := OpenWAVReader(filepath.Join(t.TempDir(), "missing.wav"))
	require.Error(t, err)
}

func TestCreateWAVWriterRejectsBadRate(t *testing.T) {
	_, err := CreateWAVWriter(filepath.Join(t.TempDir(), "out.wav"), 0)
	require.Error(t, err)
}
