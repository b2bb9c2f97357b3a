package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// FileStore persists snapshots as a JSON file. Saves go through a temp file
// and rename so a crash mid-write never corrupts the previous snapshot.
type FileStore struct {
	path string
	log  *logrus.Entry
}

// NewFileStore creates a store backed by the given path.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("settings: path must not be empty")
	}

	return &FileStore{
		path: path,
		log:  logrus.WithField("component", "settings"),
	}, nil
}

// Path returns the backing file path.
func (f *FileStore) Path() string { return f.path }

// Load reads the persisted snapshot. A missing file yields ErrNotFound.
func (f *FileStore) Load() (Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, f.path)
		}

		return nil, fmt.Errorf("settings: read %s: %w", f.path, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("settings: parse %s: %w", f.path, err)
	}

	f.log.WithFields(logrus.Fields{
		"path":   f.path,
		"stages": len(snap),
	}).Debug("Loaded settings")

	return snap, nil
}

// Save writes the snapshot atomically.
func (f *FileStore) Save(snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("settings: encode: %w", err)
	}

	dir := filepath.Dir(f.path)

	tmp, err := os.CreateTemp(dir, ".settings-*")
	if err != nil {
		return fmt.Errorf("settings: create temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return fmt.Errorf("settings: write %s: %w", tmp.Name(), err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("settings: close %s: %w", tmp.Name(), err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("settings: rename to %s: %w", f.path, err)
	}

	f.log.WithFields(logrus.Fields{
		"path":   f.path,
		"stages": len(snap),
	}).Debug("Saved settings")

	return nil
}
