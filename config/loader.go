package config

import (
	"encoding/json"
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// DefaultEnvPrefix is the prefix for environment overrides, e.g.
// RESILIENCE_CLIENT_USERSECRET or RESILIENCE_CACHE_MAXSIZE.
const DefaultEnvPrefix = "RESILIENCE"

// Loader loads configuration in layers: package defaults, then an
// optional JSON file, then environment variable overrides.
type Loader struct {
	layers     []string
	envPrefix  string
	validation bool
}

// NewLoader creates a loader with the default environment prefix and
// validation enabled.
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  DefaultEnvPrefix,
		validation: true,
	}
}

// AddLayer appends a configuration file layer. Later layers override
// earlier ones.
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// SetEnvPrefix changes the environment variable prefix.
func (l *Loader) SetEnvPrefix(prefix string) {
	l.envPrefix = prefix
}

// EnableValidation enables or disables validation of the loaded config.
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// LoadFile loads configuration from a single file plus environment
// overrides.
func (l *Loader) LoadFile(path string) (*Config, error) {
	l.layers = []string{path}
	return l.Load()
}

// Load merges all layers over the defaults, applies environment
// overrides, and validates the result.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	for _, path := range l.layers {
		if err := l.applyFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	if err := envconfig.Process(l.envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// applyFile unmarshals one JSON layer over the current config. Fields
// absent from the file keep their current values.
func (l *Loader) applyFile(cfg *Config, path string) error {
	data, err := safeReadFile(path)
	if err != nil {
		return err
	}

	if err := validateJSONDepth(data); err != nil {
		return fmt.Errorf("invalid JSON structure: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return err
	}
	return nil
}
