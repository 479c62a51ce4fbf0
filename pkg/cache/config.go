package cache

import (
	"fmt"
	"time"
)

// Config holds cache configuration.
type Config struct {
	// MaxSize is the maximum number of entries before the oldest entry
	// is evicted. Zero or negative selects the default.
	MaxSize int `json:"maxSize"`

	// DefaultTTL is the time-to-live applied by Set. Entries older than
	// their TTL are treated as absent.
	DefaultTTL time.Duration `json:"defaultTTL"`

	// CleanupInterval controls how often the background sweep removes
	// expired entries. Zero selects the default.
	CleanupInterval time.Duration `json:"cleanupInterval"`
}

// DefaultConfig returns a cache configuration suitable for API response
// caching: 1000 entries, 5 minute TTL, sweep every minute.
func DefaultConfig() Config {
	return Config{
		MaxSize:         1000,
		DefaultTTL:      5 * time.Minute,
		CleanupInterval: time.Minute,
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.DefaultTTL < 0 {
		return fmt.Errorf("cache.Validate: negative default TTL %v", c.DefaultTTL)
	}
	if c.CleanupInterval < 0 {
		return fmt.Errorf("cache.Validate: negative cleanup interval %v", c.CleanupInterval)
	}
	return nil
}

// withDefaults fills in zero values with defaults.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxSize <= 0 {
		c.MaxSize = def.MaxSize
	}
	if c.DefaultTTL == 0 {
		c.DefaultTTL = def.DefaultTTL
	}
	if c.CleanupInterval == 0 {
		c.CleanupInterval = def.CleanupInterval
	}
	return c
}
