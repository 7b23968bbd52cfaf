package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Settings holds the ambient driver configuration that sits outside the
// matrix/layer documents: logging verbosity, which input device to
// grab, and whether to take exclusive control of it. Loaded from an
// optional TOML file; CLI flags override whatever it sets.
type Settings struct {
	LogLevel   string `toml:"log_level"`
	DeviceGlob string `toml:"device_glob"`
	Grab       bool   `toml:"grab"`
}

// DefaultSettings mirrors the driver's built-in defaults, applied
// before a settings file (if any) is merged on top.
func DefaultSettings() Settings {
	return Settings{
		LogLevel:   "info",
		DeviceGlob: "/dev/input/event*",
		Grab:       true,
	}
}

// LoadSettings decodes a TOML settings file on top of DefaultSettings.
// A missing path is not an error — callers pass an empty path to mean
// "use defaults only".
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	if path == "" {
		return s, nil
	}
	if _, err := toml.DecodeFile(path, &s); err != nil {
		return Settings{}, fmt.Errorf("decoding settings file %s: %w", path, err)
	}
	return s, nil
}
