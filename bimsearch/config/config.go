// Package config handles bimsearch configuration.
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config is the top-level bimsearch configuration.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Search   SearchConfig   `toml:"search"`
	Viewer   ViewerConfig   `toml:"viewer"`
}

type DatabaseConfig struct {
	// URL is the PostgreSQL connection string.
	URL string `toml:"url"`
}

type SearchConfig struct {
	// DebounceMillis is the free-text input coalescing window.
	DebounceMillis int `toml:"debounce_ms"`
	// ResultCap bounds the merged result set of one search.
	ResultCap int `toml:"result_cap"`
	// RateLimitPerSec throttles range fan-out sub-queries. Zero disables.
	RateLimitPerSec float64 `toml:"rate_limit_per_sec"`
}

type ViewerConfig struct {
	// FitCamera frames the camera on the isolated elements after a search.
	FitCamera bool `toml:"fit_camera"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Search: SearchConfig{
			DebounceMillis: 300,
			ResultCap:      5000,
		},
	}
}

// Load reads a TOML config file, filling unset fields from Default.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrap(err, "read config")
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

// Debounce returns the debounce window as a duration.
func (c SearchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMillis) * time.Millisecond
}
