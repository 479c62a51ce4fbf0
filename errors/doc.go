// Package errors provides standardized error handling patterns for the
// resilience toolkit.
//
// # Overview
//
// The package implements a remote-call error classification system with seven
// kinds: RateLimit, AuthError, Timeout, PayloadTooLarge, ServerError,
// NetworkError, and Unknown. Classification drives the recovery dispatcher's
// strategy selection, the circuit breaker's failure accounting, and retry
// decisions throughout the toolkit.
//
// # Classification
//
// Classify derives a Kind deterministically from an error: an HTTP status
// code anywhere in the chain wins (429 rate limit, 401/403 auth, 408 timeout,
// 413 payload too large, 5xx server error); otherwise case-insensitive
// substring matching on the message text applies. The matching rules live in
// a single pure function so they are unit-testable in isolation and swappable
// for upstream APIs with different error shapes.
//
//	kind := errors.Classify(err)
//	if kind.Retryable() {
//	    // backoff and retry
//	}
//
// # Error Wrapping Pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: %w"
//
// via Wrap and WrapKind, preserving the full chain for errors.Is/As.
//
// # Taxonomy
//
// Beyond classified remote errors the package defines:
//
//   - CircuitOpenError: call blocked by an open breaker, operation not invoked
//   - RecoveryExhaustedError: retry budget spent; wraps the original cause and
//     carries the classification plus attempt count
//
// Both satisfy errors.Is against the ErrCircuitOpen and ErrMaxRetriesExceeded
// sentinels respectively.
package errors
