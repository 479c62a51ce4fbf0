package breaker

import (
	"fmt"
	"time"
)

// Config holds circuit breaker configuration.
type Config struct {
	// FailureThreshold is the number of failures in the closed state that
	// trips the breaker. When AdaptiveThreshold is enabled this is the
	// baseline the dynamic threshold is derived from.
	FailureThreshold int `json:"failureThreshold"`

	// HalfOpenSuccesses is the number of successes in half-open state
	// required to close the breaker.
	HalfOpenSuccesses int `json:"halfOpenSuccesses"`

	// RecoveryTime is the base cooldown after the breaker opens. The
	// effective cooldown is scaled by a backoff strategy chosen from
	// recent failure frequency.
	RecoveryTime time.Duration `json:"recoveryTime"`

	// MaxRecoveryTime caps the backoff-scaled cooldown.
	MaxRecoveryTime time.Duration `json:"maxRecoveryTime"`

	// AdaptiveThreshold enables recomputing the trip threshold from the
	// failure rate observed in the rolling monitoring window.
	AdaptiveThreshold bool `json:"adaptiveThreshold"`

	// MonitoringWindow is the number of recent outcomes tracked for the
	// adaptive threshold and failure-frequency decisions.
	MonitoringWindow int `json:"monitoringWindow"`

	// MinThreshold and MaxThreshold clamp the dynamic threshold.
	MinThreshold int `json:"minThreshold"`
	MaxThreshold int `json:"maxThreshold"`

	// HealthThreshold is the health score below which calls route through
	// a degraded-mode strategy even while the breaker is closed.
	HealthThreshold float64 `json:"healthThreshold"`

	// HealthSmoothing is the EMA weight applied to each new outcome when
	// updating the health score. Must be in (0,1].
	HealthSmoothing float64 `json:"healthSmoothing"`

	// TargetLatency is the call duration treated as fully healthy. Slower
	// successes earn proportionally less health credit, and slower
	// failures cost more.
	TargetLatency time.Duration `json:"targetLatency"`

	// DegradedTimeout bounds calls executed under the timeout-wrapped
	// degraded strategy. Required when the health threshold is enabled.
	DegradedTimeout time.Duration `json:"degradedTimeout"`
}

// DefaultConfig returns a breaker configuration tuned for remote API calls.
func DefaultConfig() Config {
	return Config{
		FailureThreshold:  5,
		HalfOpenSuccesses: 3,
		RecoveryTime:      30 * time.Second,
		MaxRecoveryTime:   5 * time.Minute,
		AdaptiveThreshold: true,
		MonitoringWindow:  50,
		MinThreshold:      3,
		MaxThreshold:      10,
		HealthThreshold:   50,
		HealthSmoothing:   0.2,
		TargetLatency:     time.Second,
		DegradedTimeout:   10 * time.Second,
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.FailureThreshold < 0 {
		return fmt.Errorf("breaker.Validate: negative failure threshold %d", c.FailureThreshold)
	}
	if c.HealthSmoothing < 0 || c.HealthSmoothing > 1 {
		return fmt.Errorf("breaker.Validate: health smoothing %v outside (0,1]", c.HealthSmoothing)
	}
	if c.HealthThreshold < 0 || c.HealthThreshold > 100 {
		return fmt.Errorf("breaker.Validate: health threshold %v outside [0,100]", c.HealthThreshold)
	}
	if c.MinThreshold > c.MaxThreshold && c.MaxThreshold != 0 {
		return fmt.Errorf("breaker.Validate: min threshold %d above max %d", c.MinThreshold, c.MaxThreshold)
	}
	if c.RecoveryTime < 0 || c.MaxRecoveryTime < 0 {
		return fmt.Errorf("breaker.Validate: negative recovery time")
	}
	return nil
}

// withDefaults fills in zero values with defaults.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.FailureThreshold == 0 {
		c.FailureThreshold = def.FailureThreshold
	}
	if c.HalfOpenSuccesses == 0 {
		c.HalfOpenSuccesses = def.HalfOpenSuccesses
	}
	if c.RecoveryTime == 0 {
		c.RecoveryTime = def.RecoveryTime
	}
	if c.MaxRecoveryTime == 0 {
		c.MaxRecoveryTime = def.MaxRecoveryTime
	}
	if c.MonitoringWindow == 0 {
		c.MonitoringWindow = def.MonitoringWindow
	}
	if c.MinThreshold == 0 {
		c.MinThreshold = def.MinThreshold
	}
	if c.MaxThreshold == 0 {
		c.MaxThreshold = c.FailureThreshold * 2
	}
	if c.HealthSmoothing == 0 {
		c.HealthSmoothing = def.HealthSmoothing
	}
	if c.TargetLatency == 0 {
		c.TargetLatency = def.TargetLatency
	}
	if c.DegradedTimeout == 0 {
		c.DegradedTimeout = def.DegradedTimeout
	}
	return c
}
