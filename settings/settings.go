// Package settings persists processing-chain configuration as named
// per-stage parameter sets.
package settings

import "errors"

// ErrNotFound reports that no persisted settings exist yet. Callers treat
// it as "use defaults", not as a failure.
var ErrNotFound = errors.New("settings: not found")

// StageSettings holds one stage's persisted state: the enable flag plus the
// stage's numeric parameters keyed by name.
type StageSettings struct {
	Enabled bool               `json:"enabled"`
	Values  map[string]float64 `json:"values,omitempty"`
}

// Snapshot maps stage names to their settings.
type Snapshot map[string]StageSettings

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))

	for name, stage := range s {
		values := make(map[string]float64, len(stage.Values))
		for k, v := range stage.Values {
			values[k] = v
		}

		out[name] = StageSettings{Enabled: stage.Enabled, Values: values}
	}

	return out
}

// Store loads and saves snapshots. Implementations must be safe to call
// from a control goroutine while audio runs elsewhere.
type Store interface {
	Load() (Snapshot, error)
	Save(Snapshot) error
}
