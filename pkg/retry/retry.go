// Package retry provides backoff delay strategies and retry logic for transient failures
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

var (
	// Thread-safe random source for jitter
	randMu     sync.Mutex
	randSource = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// Strategy selects how the delay grows between attempts.
type Strategy string

const (
	// StrategyExponential multiplies the delay by Multiplier each attempt
	StrategyExponential Strategy = "exponential"
	// StrategyLinear grows the delay by InitialDelay each attempt
	StrategyLinear Strategy = "linear"
	// StrategyImmediate retries without waiting
	StrategyImmediate Strategy = "immediate"
)

// NonRetryableError wraps errors that should not be retried
type NonRetryableError struct {
	Err error
}

func (e *NonRetryableError) Error() string {
	return fmt.Sprintf("non-retryable: %v", e.Err)
}

func (e *NonRetryableError) Unwrap() error {
	return e.Err
}

// NonRetryable wraps an error to indicate it should not be retried
func NonRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &NonRetryableError{Err: err}
}

// IsNonRetryable checks if an error is marked as non-retryable
func IsNonRetryable(err error) bool {
	var nre *NonRetryableError
	return errors.As(err, &nre)
}

// Config provides retry configuration
type Config struct {
	MaxAttempts  int           // Maximum number of attempts (0 = no retry, just run once)
	InitialDelay time.Duration // Initial delay between attempts
	MaxDelay     time.Duration // Maximum delay between attempts
	Multiplier   float64       // Backoff multiplier (typically 2.0)
	Strategy     Strategy      // Delay growth strategy; empty means exponential
	AddJitter    bool          // Add randomness to prevent thundering herd
}

// DefaultConfig returns sensible defaults for retry operations
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		Strategy:     StrategyExponential,
		AddJitter:    true,
	}
}

// normalized returns a copy of the config with defaults and bounds applied.
func (cfg Config) normalized() Config {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1 // At least try once
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = 100 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 5 * time.Second
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 2.0
	}
	// Prevent overflow with extremely large multipliers
	if cfg.Multiplier > 1000 {
		cfg.Multiplier = 1000
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyExponential
	}
	return cfg
}

// Delay computes the wait before the given attempt (1-based) under the
// config's strategy, bounded by MaxDelay, without applying jitter. Attempt 1
// waits InitialDelay; attempt 0 or below waits nothing.
func Delay(cfg Config, attempt int) time.Duration {
	cfg = cfg.normalized()

	if attempt <= 0 || cfg.Strategy == StrategyImmediate {
		return 0
	}

	var delay time.Duration
	switch cfg.Strategy {
	case StrategyLinear:
		d := int64(cfg.InitialDelay) * int64(attempt)
		if d < 0 || d > int64(cfg.MaxDelay) { // overflow or cap
			return cfg.MaxDelay
		}
		delay = time.Duration(d)
	default: // exponential
		delay = cfg.InitialDelay
		for i := 1; i < attempt; i++ {
			next := float64(delay) * cfg.Multiplier
			if next > float64(cfg.MaxDelay) {
				return cfg.MaxDelay
			}
			delay = time.Duration(next)
		}
	}

	if delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	return delay
}

// Jittered adds up to 25% random jitter to a delay.
func Jittered(delay time.Duration) time.Duration {
	if delay <= 0 {
		return 0
	}
	randMu.Lock()
	jitter := time.Duration(randSource.Int63n(int64(delay/4) + 1))
	randMu.Unlock()
	return delay + jitter
}

// Sleep waits for the given duration with context cancellation support.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do executes fn with backoff retry
func Do(ctx context.Context, cfg Config, fn func() error) error {
	// Validate configuration before defaults are applied
	if cfg.InitialDelay < 0 {
		return errors.New("retry: InitialDelay cannot be negative")
	}
	if cfg.MaxDelay < 0 {
		return errors.New("retry: MaxDelay cannot be negative")
	}
	if cfg.Multiplier < 0 {
		return errors.New("retry: Multiplier cannot be negative")
	}
	if cfg.MaxDelay > 0 && cfg.InitialDelay > 0 && cfg.MaxDelay < cfg.InitialDelay {
		return errors.New("retry: MaxDelay must be >= InitialDelay")
	}

	cfg = cfg.normalized()

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		// Non-retryable errors fail immediately
		if IsNonRetryable(err) {
			return err
		}

		if ctx.Err() != nil {
			return fmt.Errorf("retry cancelled before attempt %d: %w", attempt, ctx.Err())
		}

		// Don't sleep after the last attempt
		if attempt == cfg.MaxAttempts {
			break
		}

		sleepDuration := Delay(cfg, attempt)
		if cfg.AddJitter {
			sleepDuration = Jittered(sleepDuration)
		}

		if err := Sleep(ctx, sleepDuration); err != nil {
			return fmt.Errorf("retry cancelled during backoff for attempt %d: %w", attempt+1, err)
		}
	}

	return fmt.Errorf("retry failed after %d attempts: %w", cfg.MaxAttempts, lastErr)
}

// DoWithResult executes fn with retry and returns both result and error
func DoWithResult[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var result T
	err := Do(ctx, cfg, func() error {
		var innerErr error
		result, innerErr = fn()
		return innerErr
	})
	return result, err
}

// Quick returns a config for fast retries (useful during startup)
func Quick() Config {
	return Config{
		MaxAttempts:  10,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   1.5,
		Strategy:     StrategyExponential,
		AddJitter:    true,
	}
}

// Persistent returns a config for long-running retries (useful for critical resources)
func Persistent() Config {
	return Config{
		MaxAttempts:  30,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Strategy:     StrategyExponential,
		AddJitter:    true,
	}
}
