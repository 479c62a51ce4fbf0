package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Jacobolevy/smartling-mcp-server-sub002/analytics"
	"github.com/Jacobolevy/smartling-mcp-server-sub002/batch"
	"github.com/Jacobolevy/smartling-mcp-server-sub002/breaker"
	"github.com/Jacobolevy/smartling-mcp-server-sub002/client"
	"github.com/Jacobolevy/smartling-mcp-server-sub002/errors"
	"github.com/Jacobolevy/smartling-mcp-server-sub002/pkg/cache"
	"github.com/Jacobolevy/smartling-mcp-server-sub002/pkg/dedup"
	"github.com/Jacobolevy/smartling-mcp-server-sub002/recovery"
)

// Config is the complete toolkit configuration. Each section maps to
// one component package and uses that package's own config type, so a
// section can be handed to its component constructor unchanged.
type Config struct {
	Cache     cache.Config     `json:"cache"`
	Dedup     dedup.Config     `json:"dedup"`
	Breaker   breaker.Config   `json:"breaker"`
	Batch     batch.Config     `json:"batch"`
	Analytics analytics.Config `json:"analytics"`
	Client    client.Config    `json:"client"`
	Metrics   MetricsConfig    `json:"metrics"`

	// Recovery overrides per-kind retry strategies. Keys are error kind
	// names as produced by errors.Kind.String(), e.g. "rate_limit".
	Recovery map[string]recovery.Strategy `json:"recovery,omitempty"`
}

// MetricsConfig controls the optional prometheus exposition server.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Port    int    `json:"port"`
	Path    string `json:"path"`
}

// Default returns a configuration with every section at its package
// defaults and metrics exposition disabled.
func Default() *Config {
	return &Config{
		Cache:     cache.DefaultConfig(),
		Dedup:     dedup.DefaultConfig(),
		Breaker:   breaker.DefaultConfig(),
		Batch:     batch.DefaultConfig(),
		Analytics: analytics.DefaultConfig(),
		Client:    client.DefaultConfig(),
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}

// knownKinds maps kind names accepted in the recovery section.
var knownKinds = map[string]errors.Kind{
	errors.KindUnknown.String():         errors.KindUnknown,
	errors.KindRateLimit.String():       errors.KindRateLimit,
	errors.KindAuthError.String():       errors.KindAuthError,
	errors.KindTimeout.String():         errors.KindTimeout,
	errors.KindPayloadTooLarge.String(): errors.KindPayloadTooLarge,
	errors.KindServerError.String():     errors.KindServerError,
	errors.KindNetworkError.String():    errors.KindNetworkError,
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.Breaker.Validate(); err != nil {
		return fmt.Errorf("breaker: %w", err)
	}
	if err := c.Batch.Validate(); err != nil {
		return fmt.Errorf("batch: %w", err)
	}
	if err := c.Analytics.Validate(); err != nil {
		return fmt.Errorf("analytics: %w", err)
	}
	if err := c.Client.Validate(); err != nil {
		return fmt.Errorf("client: %w", err)
	}
	if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics: port %d out of range", c.Metrics.Port)
	}
	for name, strategy := range c.Recovery {
		if _, ok := knownKinds[strings.ToLower(name)]; !ok {
			return fmt.Errorf("recovery: unknown error kind %q", name)
		}
		if strategy.MaxRetries < 0 {
			return fmt.Errorf("recovery: %s: negative max retries", name)
		}
	}
	return nil
}

// RecoveryStrategies resolves the recovery section into dispatcher
// options keyed by errors.Kind.
func (c *Config) RecoveryStrategies() map[errors.Kind]recovery.Strategy {
	if len(c.Recovery) == 0 {
		return nil
	}
	out := make(map[errors.Kind]recovery.Strategy, len(c.Recovery))
	for name, strategy := range c.Recovery {
		if kind, ok := knownKinds[strings.ToLower(name)]; ok {
			out[kind] = strategy
		}
	}
	return out
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return &Config{}
	}

	data, err := json.Marshal(c)
	if err != nil {
		copied := *c
		return &copied
	}

	var clone Config
	if err := json.Unmarshal(data, &clone); err != nil {
		copied := *c
		return &copied
	}
	return &clone
}

// SaveToFile writes the configuration as indented JSON with secure
// file permissions.
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return safeWriteFile(path, data)
}

// String returns an indented JSON representation with the client
// secret redacted.
func (c *Config) String() string {
	redacted := c.Clone()
	if redacted.Client.UserSecret != "" {
		redacted.Client.UserSecret = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(redacted, "", "  ")
	return string(data)
}
