// Package analytics records per-operation call outcomes into rolling
// windows and derives success rates, latency aggregates, and failure
// alerts from them.
//
// A Recorder tracks one window per operation name. Each Record call
// appends an outcome and re-evaluates the alert threshold: when the
// window failure rate crosses the configured rate (after MinSamples
// outcomes) the Recorder logs a warning, invokes the alert handler
// once per crossing, and marks the operation unhealthy in an attached
// health.Monitor. GetStats and StatsFor expose point-in-time summaries
// for dashboards and introspection endpoints.
//
// The Recorder observes; it never changes call behavior. Routing
// decisions driven by failure rates live in the breaker package.
package analytics
