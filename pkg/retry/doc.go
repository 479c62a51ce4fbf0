// Package retry provides backoff delay strategies and retry logic for transient failures.
//
// # Overview
//
// This package offers a minimal retry mechanism with exponential, linear, and
// immediate delay strategies, designed to handle transient failures in remote
// calls and to compute recovery timing for the circuit breaker and the error
// recovery dispatcher.
//
// # Core Functions
//
//   - Do: Execute function with retry and backoff
//   - DoWithResult: Execute function with retry, returns both result and error
//   - Delay: Compute the wait before a given attempt under a config's strategy
//   - Jittered: Add up to 25% random jitter to a delay
//   - Sleep: Context-cancellable wait
//
// # Configuration Presets
//
//   - DefaultConfig(): 3 attempts, 100ms-5s delay (normal operations)
//   - Quick(): 10 attempts, 50ms-1s delay (startup paths)
//   - Persistent(): 30 attempts, 200ms-10s delay (critical resources)
//
// # Usage Examples
//
// Basic retry with defaults:
//
//	err := retry.Do(ctx, retry.DefaultConfig(), func() error {
//	    return client.Connect()
//	})
//
// Computing a delay without sleeping (used by the recovery dispatcher):
//
//	wait := retry.Jittered(retry.Delay(cfg, attempt))
//
// # Design Philosophy
//
// This package is intentionally minimal:
//
//   - No circuit breakers (see the breaker package)
//   - No metrics collection (use instrumentation at call site)
//   - No error classification (see the errors package)
//   - Just backoff with jitter
//
// # Context Cancellation
//
// All retry operations respect context cancellation and will immediately stop
// retrying when the context is cancelled, either during operation execution or
// during backoff delay.
//
// # Thread Safety
//
// All functions are safe for concurrent use. The jitter mechanism uses a
// thread-safe random source to avoid contention.
package retry
