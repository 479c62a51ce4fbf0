package breaker

import (
	"log/slog"

	"github.com/Jacobolevy/smartling-mcp-server-sub002/metric"
)

// Option configures a Breaker.
type Option func(*breakerOptions)

type breakerOptions struct {
	logger        *slog.Logger
	metricsReg    *metric.Registry
	fallback      Operation
	onStateChange func(name string, from, to State)
}

// WithLogger sets the structured logger. Nil means slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *breakerOptions) {
		o.logger = logger
	}
}

// WithMetrics enables Prometheus metrics via the provided registry.
func WithMetrics(registry *metric.Registry) Option {
	return func(o *breakerOptions) {
		o.metricsReg = registry
	}
}

// WithFallback sets the operation served when the health score is in the
// lowest degraded tier and the primary call fails.
func WithFallback(fallback Operation) Option {
	return func(o *breakerOptions) {
		o.fallback = fallback
	}
}

// WithStateChangeCallback sets a callback invoked synchronously on every
// state transition. For fan-out to multiple listeners use Manager.
func WithStateChangeCallback(fn func(name string, from, to State)) Option {
	return func(o *breakerOptions) {
		o.onStateChange = fn
	}
}

func applyOptions(options []Option) *breakerOptions {
	opts := &breakerOptions{}
	for _, option := range options {
		option(opts)
	}
	return opts
}
