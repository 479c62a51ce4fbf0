// Package rolling provides fixed-capacity rolling windows over call
// outcomes. A Window remembers the most recent N results of an
// operation and computes failure rates and latency aggregates over
// them; older results fall off as new ones arrive.
//
// The circuit breaker uses a Window to derive its adaptive failure
// threshold, and the analytics layer uses one per operation to surface
// slow or failing endpoints.
package rolling
