// Package breaker implements a circuit breaker with health scoring and
// adaptive thresholds for protecting remote API calls.
//
// # States
//
// A breaker starts closed. Failures increment a counter; when it
// reaches the trip threshold the breaker opens and rejects calls with
// errors.CircuitOpenError without touching the dependency. After a
// cooldown derived from recent failure frequency the breaker moves to
// half-open and lets calls through experimentally: three successes
// close it again, any failure reopens it.
//
// # Health score and degraded mode
//
// Independently of state, every outcome updates a smoothed health score
// in [0,100]. Fast successes restore it, failures erode it, slow calls
// weigh more in both directions. While the breaker is still closed but
// the score is below the configured threshold, calls route through a
// degraded strategy chosen by health tier: retry with backoff, a
// timeout-wrapped call, or a configured fallback value. This starts
// shedding pressure before the hard failure threshold is hit.
//
// # Adaptive threshold
//
// With AdaptiveThreshold enabled the trip threshold is recomputed from
// the failure rate in a rolling window of recent outcomes, tightening
// when failures cluster and loosening when traffic is healthy.
//
// # Usage
//
//	b, err := breaker.New("smartling-api", breaker.DefaultConfig())
//	if err != nil {
//		return err
//	}
//
//	result, err := b.Execute(ctx, func(ctx context.Context) (any, error) {
//		return api.ListProjects(ctx)
//	})
//	if errors.IsCircuitOpen(err) {
//		// dependency is cooling down; serve cached data or fail fast
//	}
//
// Manager provides a caller-owned registry of named breakers with
// state-change listener fan-out for alerting.
package breaker
