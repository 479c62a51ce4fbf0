// Package resilience is the root of a toolkit for making remote calls
// survivable: caching, deduplication, circuit breaking, error recovery,
// adaptive batching, and the analytics/health plumbing around them.
//
// # Architecture
//
// The packages compose into a pipeline around an outbound call:
//
//	┌─────────────────────────────────────┐
//	│            client                   │  Composition root:
//	│  (resty + retryablehttp transport)  │  HTTP verbs in, typed errors out
//	└─────────────────────────────────────┘
//	           ↓ routes through
//	┌─────────────────────────────────────┐
//	│   cache → dedup → recovery          │  GETs served from cache,
//	│        (pkg/cache, pkg/dedup,       │  concurrent identical calls
//	│         recovery dispatcher)        │  coalesced, failures retried
//	└─────────────────────────────────────┘
//	           ↓ guarded by
//	┌─────────────────────────────────────┐
//	│      breaker + rate limiter         │  Open circuits fail fast,
//	│   (health score, adaptive trip)     │  degraded mode routes around
//	└─────────────────────────────────────┘
//
// Every outcome feeds back: the breaker updates its health score, the
// analytics recorder updates per-operation rolling windows, and the health
// monitor aggregates component statuses for reporting.
//
// # Packages
//
// Core components:
//   - errors: error taxonomy and classification (rate limit, auth, timeout,
//     payload too large, server, network) driving all recovery decisions
//   - breaker: circuit breaker with health-score EMA, adaptive thresholds,
//     degraded-mode routing, and a named-breaker Manager
//   - recovery: per-error-kind recovery dispatcher (backoff, re-auth,
//     payload splitting, breaker routing)
//   - batch: chunked batch execution with adaptive sizing, abort policy,
//     and optional bounded concurrency
//   - client: HTTP client wiring all of the above around resty
//
// Observability:
//   - analytics: per-operation rolling statistics with alert thresholds
//   - health: component health statuses, monitor, aggregation
//   - metric: Prometheus registry and optional exposition server
//
// Utilities:
//   - pkg/cache: TTL cache with capacity-bounded eviction
//   - pkg/dedup: in-flight request deduplication with grace-window replay
//   - pkg/retry: backoff strategies and cancellable retry loops
//   - pkg/rolling: fixed-capacity rolling window of call outcomes
//   - config: JSON + environment configuration for the whole toolkit
//
// # Usage
//
// Most callers only need the client:
//
//	cfg := client.DefaultConfig()
//	cfg.BaseURL = "https://api.example.com"
//	c, err := client.New(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	body, err := c.Get(ctx, "/files", nil)
//
// Components are also usable standalone; each has a DefaultConfig(),
// a Validate(), and functional options for logging and metrics. There are
// no package-level singletons: callers construct and own every instance.
//
// # Design Principles
//
// Explicit dependencies:
//   - No globals, no init-time registration
//   - Components accept interfaces, return structs
//   - Optional collaborators (logger, metrics, monitor) via options
//
// Bounded everything:
//   - Caches and histories have capacities
//   - Retries have budgets, backoff has ceilings
//   - All sleeps and waits select on ctx.Done()
//
// Failure is data:
//   - Non-2xx responses become errors.HTTPError, never silent retries
//   - Exhausted recovery returns the kind, attempt count, and cause
//   - Error messages are sanitized before they reach health reports
package resilience
