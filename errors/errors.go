// Package errors provides standardized error handling patterns for the
// resilience toolkit. It includes remote-call error classification, standard
// error variables, and helper functions for consistent error wrapping across
// the system.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// Kind represents the classification of a remote-call error for recovery
// purposes. It is derived deterministically from an error's status code and
// message text; it is computed per error, never stored.
type Kind int

const (
	// KindUnknown represents errors that match no known pattern
	KindUnknown Kind = iota
	// KindRateLimit represents 429 / throttling responses
	KindRateLimit
	// KindAuthError represents 401/403 authentication or authorization failures
	KindAuthError
	// KindTimeout represents 408 responses, deadline expiry, and timeout text
	KindTimeout
	// KindPayloadTooLarge represents 413 / oversized request payloads
	KindPayloadTooLarge
	// KindServerError represents 5xx upstream failures
	KindServerError
	// KindNetworkError represents connection-level failures (reset, DNS, refused)
	KindNetworkError
)

// String returns the string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindRateLimit:
		return "rate_limit"
	case KindAuthError:
		return "auth_error"
	case KindTimeout:
		return "timeout"
	case KindPayloadTooLarge:
		return "payload_too_large"
	case KindServerError:
		return "server_error"
	case KindNetworkError:
		return "network_error"
	default:
		return "unknown"
	}
}

// Retryable reports whether errors of this kind may be retried as-is.
// AuthError gets exactly one re-authentication cycle and PayloadTooLarge is
// recovered by splitting, so neither counts as plainly retryable.
func (k Kind) Retryable() bool {
	switch k {
	case KindRateLimit, KindTimeout, KindServerError, KindNetworkError, KindUnknown:
		return true
	default:
		return false
	}
}

// Standard error variables for common conditions
var (
	// Circuit breaker and retry errors
	ErrCircuitOpen        = errors.New("circuit breaker open")
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")

	// Deduplication errors
	ErrDedupClosed = errors.New("deduplicator closed")

	// Resource errors
	ErrRateLimited       = errors.New("rate limited")
	ErrPayloadTooLarge   = errors.New("payload too large")
	ErrResourceExhausted = errors.New("resource exhausted")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMissingConfig = errors.New("missing required configuration")

	// Data errors
	ErrInvalidData = errors.New("invalid data format")
)

// HTTPError is the minimal error shape a wrapped remote operation is expected
// to surface: a message plus an optional HTTP status code. Remote-call layers
// translate non-2xx responses into this type so Classify can see the code.
type HTTPError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface
func (e *HTTPError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	return e.Message
}

// statusCoder matches any error type carrying an HTTP status code.
type statusCoder interface {
	HTTPStatusCode() int
}

// StatusCode extracts an HTTP status code from anywhere in the error chain.
// Returns 0 and false when no code is available.
func StatusCode(err error) (int, bool) {
	var he *HTTPError
	if errors.As(err, &he) && he.StatusCode > 0 {
		return he.StatusCode, true
	}

	var sc statusCoder
	if errors.As(err, &sc) && sc.HTTPStatusCode() > 0 {
		return sc.HTTPStatusCode(), true
	}

	return 0, false
}

// Classify derives the error kind from status code and message text.
// Status codes win over text matching; text matching is case-insensitive
// substring matching so upstream APIs with different error shapes can be
// accommodated by swapping this single function.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	if code, ok := StatusCode(err); ok {
		switch {
		case code == 429:
			return KindRateLimit
		case code == 401 || code == 403:
			return KindAuthError
		case code == 408:
			return KindTimeout
		case code == 413:
			return KindPayloadTooLarge
		case code >= 500:
			return KindServerError
		}
	}

	// Context and net-level timeouts classify without text inspection
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	text := strings.ToLower(err.Error())

	switch {
	case containsAny(text, "rate limit", "too many requests", "throttl"):
		return KindRateLimit
	case containsAny(text, "unauthorized", "forbidden", "invalid token",
		"token expired", "authentication"):
		return KindAuthError
	case containsAny(text, "timeout", "timed out", "deadline exceeded"):
		return KindTimeout
	case containsAny(text, "too large", "entity too large", "payload size"):
		return KindPayloadTooLarge
	case containsAny(text, "internal server error", "bad gateway",
		"service unavailable", "gateway timeout"):
		return KindServerError
	case containsAny(text, "connection reset", "connection refused",
		"no such host", "dns", "network is unreachable", "broken pipe",
		"connection closed"):
		return KindNetworkError
	}

	return KindUnknown
}

// containsAny reports whether s contains any of the given substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// IsRetryable reports whether an error may be retried as-is based on its
// classification.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return Classify(err).Retryable()
}

// ClassifiedError wraps an error with its classification and the component
// context it was raised in.
type ClassifiedError struct {
	Kind      Kind
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// KindOf returns the classification for an error, honoring an explicit
// ClassifiedError in the chain before falling back to Classify.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return Classify(err)
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapKind wraps an error with an explicit classification and context
func WrapKind(kind Kind, err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrapped := Wrap(err, component, method, action)
	return &ClassifiedError{
		Kind:      kind,
		Err:       wrapped,
		Message:   wrapped.Error(),
		Component: component,
		Operation: method,
	}
}

// CircuitOpenError signals a call that was blocked by an open circuit
// breaker; the remote operation was never invoked. It is distinct from the
// wrapped operation's own errors so callers can tell "blocked" from
// "attempted and failed".
type CircuitOpenError struct {
	Name       string
	OpenedAt   time.Time
	RetryAfter time.Duration
}

// Error implements the error interface
func (e *CircuitOpenError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("circuit breaker %q open, retry after %s", e.Name, e.RetryAfter)
	}
	return fmt.Sprintf("circuit breaker %q open", e.Name)
}

// Is makes errors.Is(err, ErrCircuitOpen) work for typed open errors
func (e *CircuitOpenError) Is(target error) bool {
	return target == ErrCircuitOpen
}

// IsCircuitOpen reports whether the error chain contains a circuit-open
// rejection.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}

// RecoveryExhaustedError is returned when the recovery dispatcher runs out of
// retry budget for a classified error. It carries the classification and the
// attempt count alongside the original cause.
type RecoveryExhaustedError struct {
	Kind     Kind
	Attempts int
	Err      error
}

// Error implements the error interface
func (e *RecoveryExhaustedError) Error() string {
	return fmt.Sprintf("recovery exhausted after %d attempts (%s): %v",
		e.Attempts, e.Kind, e.Err)
}

// Unwrap returns the original cause
func (e *RecoveryExhaustedError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrMaxRetriesExceeded) work for exhaustion errors
func (e *RecoveryExhaustedError) Is(target error) bool {
	return target == ErrMaxRetriesExceeded
}

// DeduplicationPropagatedError marks an error that a waiter received from a
// coalesced execution it did not perform itself. It unwraps to the original
// error so classification and errors.Is checks still see the cause.
type DeduplicationPropagatedError struct {
	Key string
	Err error
}

// Error implements the error interface
func (e *DeduplicationPropagatedError) Error() string {
	return fmt.Sprintf("deduplicated request %q: %v", e.Key, e.Err)
}

// Unwrap returns the original error from the executing call
func (e *DeduplicationPropagatedError) Unwrap() error {
	return e.Err
}
