// Package health provides health monitoring for toolkit components
// with thread-safe status tracking and aggregation.
//
// # Health States
//
// The package supports three health states:
//   - Healthy: component operating normally
//   - Degraded: component operating with reduced functionality
//   - Unhealthy: component not functioning properly
//
// The three-state model enables nuanced operational responses. A
// degraded cache might trigger capacity scaling, while an unhealthy
// upstream API triggers circuit breaking and incident response.
//
// # Core Components
//
// Status: individual component health state containing status level,
// descriptive message, timestamp, optional metrics, and hierarchical
// sub-statuses for composite systems.
//
// Monitor: thread-safe centralized tracking of multiple component
// health statuses with concurrent read/write access and automatic
// timestamp management. With WithMonitorMetrics, every update is also
// published to the prometheus health status gauge.
//
// # Basic Usage
//
//	monitor := health.NewMonitor()
//
//	monitor.UpdateHealthy("cache", "hit rate stable")
//	monitor.UpdateDegraded("upstream-api", "elevated latency")
//	monitor.Update("files-api", health.FromBreakerStatus(cb.Status()))
//
//	system := monitor.AggregateHealth("toolkit")
//	if system.IsUnhealthy() {
//	    log.Printf("system unhealthy: %s", system.Message)
//	}
//
// Aggregation uses worst-case rules: any unhealthy component marks the
// system unhealthy; any degraded component (with none unhealthy) marks
// it degraded; otherwise the system is healthy.
//
// # Security
//
// Error messages passed through FromError are sanitized before they
// appear in health payloads:
//   - URLs (http://, https://, ws://, wss://) → [URL]
//   - File paths (Unix and Windows) → [PATH]
//   - IP addresses → [IP], port numbers → [PORT]
//   - Credentials (password=X, token=X, key=X, secret=X) → [REDACTED]
//
// Sanitization is unconditional. Over-redacting a debug message is
// cheaper than leaking a credential into a health dashboard.
//
// # Thread Safety
//
// All Monitor operations are safe for concurrent use. Status is a
// value type; WithMetrics and WithSubStatus return copies rather than
// mutating the receiver.
package health
