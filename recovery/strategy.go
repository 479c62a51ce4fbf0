package recovery

import (
	"time"

	"github.com/Jacobolevy/smartling-mcp-server-sub002/errors"
)

// Strategy holds the per-kind retry policy consulted by the dispatcher.
type Strategy struct {
	// MaxRetries is the attempt budget before exhaustion.
	MaxRetries int `json:"maxRetries"`

	// BaseDelay seeds the exponential backoff between attempts.
	BaseDelay time.Duration `json:"baseDelay"`

	// MaxDelay caps the backoff.
	MaxDelay time.Duration `json:"maxDelay"`

	// Jitter randomizes the delay to spread retry storms.
	Jitter bool `json:"jitter"`

	// LoadReduction is the ratio applied to the workload before the
	// next attempt (TIMEOUT strategy). Zero means no reduction.
	LoadReduction float64 `json:"loadReduction"`
}

// defaultStrategies returns the per-kind policy table. Transient kinds
// get real budgets; AUTH_ERROR gets exactly one re-auth cycle; UNKNOWN
// is retried conservatively.
func defaultStrategies() map[errors.Kind]Strategy {
	return map[errors.Kind]Strategy{
		errors.KindRateLimit: {
			MaxRetries: 5,
			BaseDelay:  time.Second,
			MaxDelay:   time.Minute,
			Jitter:     true,
		},
		errors.KindTimeout: {
			MaxRetries:    3,
			BaseDelay:     500 * time.Millisecond,
			MaxDelay:      10 * time.Second,
			LoadReduction: 0.5,
		},
		errors.KindAuthError: {
			MaxRetries: 1,
			BaseDelay:  0,
		},
		errors.KindPayloadTooLarge: {
			MaxRetries: 4,
			BaseDelay:  100 * time.Millisecond,
			MaxDelay:   time.Second,
		},
		errors.KindServerError: {
			MaxRetries: 3,
			BaseDelay:  time.Second,
			MaxDelay:   30 * time.Second,
			Jitter:     true,
		},
		errors.KindNetworkError: {
			MaxRetries: 3,
			BaseDelay:  500 * time.Millisecond,
			MaxDelay:   15 * time.Second,
			Jitter:     true,
		},
		errors.KindUnknown: {
			MaxRetries: 1,
			BaseDelay:  time.Second,
			MaxDelay:   5 * time.Second,
		},
	}
}

// budgetFor applies context customization to the strategy's retry
// budget: high priority buys two extra attempts.
func (s Strategy) budgetFor(rctx *Context) int {
	budget := s.MaxRetries
	if rctx.highPriority() {
		budget += 2
	}
	return budget
}
