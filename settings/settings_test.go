package settings

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() Snapshot {
	return Snapshot{
		"subsonic": {
			Enabled: true,
			Values:  map[string]float64{"frequency": 25},
		},
		"pregain": {
			Enabled: true,
			Values:  map[string]float64{"gain_db": 3.5},
		},
		"limiter": {
			Enabled: false,
			Values:  map[string]float64{"threshold_db": -1.5},
		},
	}
}

func TestNewFileStoreRejectsEmptyPath(t *testing.T) {
	_, err := NewFileStore("")
	require.Error(t, err)
}

func TestLoadMissingFileReturnsNotFound(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	_, err = store.Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chain.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	want := sampleSnapshot()
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSaveOverwritesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chain.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Save(sampleSnapshot()))

	updated := sampleSnapshot()
	stage := updated["pregain"]
	stage.Values["gain_db"] = -6
	updated["pregain"] = stage
	require.NoError(t, store.Save(updated))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, -6.0, got["pregain"].Values["gain_db"])

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chain.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store, err := NewFileStore(path)
	require.NoError(t, err)

	_, err = store.Load()
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestCloneIsDeep(t *testing.T) {
	original := sampleSnapshot()
	clone := original.Clone()

	stage := clone["pregain"]
	stage.Values["gain_db"] = 12
	clone["pregain"] = stage

	assert.Equal(t, 3.5, original["pregain"].Values["gain_db"])
}
