package analytics

import "fmt"

// Config controls the per-operation rolling windows and alerting.
type Config struct {
	// WindowSize is the number of recent outcomes kept per operation.
	WindowSize int `json:"windowSize"`

	// AlertFailureRate raises an alert when an operation's failure rate
	// over its window exceeds it. Zero disables alerting.
	AlertFailureRate float64 `json:"alertFailureRate"`

	// MinSamples suppresses alerts until an operation has recorded at
	// least this many outcomes.
	MinSamples int `json:"minSamples"`
}

// DefaultConfig returns analytics defaults suitable for most workloads.
func DefaultConfig() Config {
	return Config{
		WindowSize:       100,
		AlertFailureRate: 0.5,
		MinSamples:       10,
	}
}

// Validate checks configuration bounds.
func (c Config) Validate() error {
	if c.WindowSize < 0 {
		return fmt.Errorf("analytics.Validate: negative window size %d", c.WindowSize)
	}
	if c.AlertFailureRate < 0 || c.AlertFailureRate > 1 {
		return fmt.Errorf("analytics.Validate: alert failure rate %v outside [0,1]", c.AlertFailureRate)
	}
	if c.MinSamples < 0 {
		return fmt.Errorf("analytics.Validate: negative min samples %d", c.MinSamples)
	}
	return nil
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.WindowSize == 0 {
		c.WindowSize = def.WindowSize
	}
	if c.MinSamples == 0 {
		c.MinSamples = def.MinSamples
	}
	return c
}
