package relay

import (
	"fmt"
	"sort"
	"time"

	"github.com/larsks/doorbell/internal/remote"
)

// Config parameterises a controller. It is copied at construction and never
// changes afterwards.
type Config struct {
	DwellDuration  time.Duration `json:"dwell-duration" yaml:"dwell-duration"`
	ActiveValue    remote.Value  `json:"active-value" yaml:"active-value"`
	InactiveValue  remote.Value  `json:"inactive-value" yaml:"inactive-value"`
	DisableLogging bool          `json:"disable-logging" yaml:"disable-logging"`
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.DwellDuration <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDwell, c.DwellDuration)
	}
	if c.ActiveValue == "" || c.InactiveValue == "" {
		return ErrValueRequired
	}
	return nil
}

var presets = map[string]Config{
	// A contact or occupancy sensor that reports true while the bell rings.
	"binary-sensor": {
		DwellDuration: 1750 * time.Millisecond,
		ActiveValue:   "true",
		InactiveValue: "false",
	},
	// A plug or light that is switched on briefly.
	"toggle": {
		DwellDuration: 500 * time.Millisecond,
		ActiveValue:   "ON",
		InactiveValue: "OFF",
	},
}

// Preset returns the named device-binding preset
func Preset(name string) (Config, error) {
	cfg, ok := presets[name]
	if !ok {
		return Config{}, fmt.Errorf("%w: %s (valid presets: %v)", ErrUnknownPreset, name, PresetNames())
	}
	return cfg, nil
}

// PresetNames returns the sorted preset names
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
