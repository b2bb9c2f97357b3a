package eq

import (
	"fmt"
	"sort"
)

// presets is the single shared lookup table of named band-gain curves.
// Every control surface applies presets through this table.
var presets = map[string][NumBands]float64{
	"flat":  {0, 0, 0, 0, 0},
	"bass":  {6, 4, 0, 0, 0},
	"vocal": {-2, 0, 3, 5, 2},
	"rock":  {5, 3, -4, 2, 6},
	"jazz":  {2, 1, 0, 1, 3},
}

// Presets returns the available preset names, sorted.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// PresetGains returns the band gains of a named preset.
func PresetGains(name string) ([NumBands]float64, error) {
	gains, ok := presets[name]
	if !ok {
		return [NumBands]float64{}, fmt.Errorf("eq: unknown preset %q (have %v)", name, Presets())
	}

	return gains, nil
}

// ApplyPreset sets all five band gains from a named preset. Unknown names
// leave the equalizer unchanged.
func (e *Equalizer) ApplyPreset(name string) error {
	gains, err := PresetGains(name)
	if err != nil {
		return err
	}

	for band, g := range gains {
		if err := e.SetBandGain(band, g); err != nil {
			return err
		}
	}

	return nil
}
