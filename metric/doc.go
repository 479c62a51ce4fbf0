// Package metric provides Prometheus metrics infrastructure for the
// resilience toolkit.
//
// # Architecture
//
// The package is built around a Registry that owns a private Prometheus
// registry and a set of core toolkit metrics. Components register their
// own metrics through the Registrar interface under a
// "component.metric" key, which prevents accidental double registration
// and allows clean teardown with Unregister.
//
//	registry := metric.NewRegistry()
//
//	cache, err := cache.New[string](ctx, cache.DefaultConfig(),
//		cache.WithMetrics[string](registry, "api-cache"))
//
// # Core metrics
//
// Core metrics cover the cross-cutting concerns every component shares:
//
//   - resilience_requests_total / resilience_requests_duration_seconds
//   - resilience_errors_total (labelled by classified error kind)
//   - resilience_retries_total / resilience_recoveries_total
//   - resilience_breaker_state / resilience_breaker_health_score
//   - resilience_health_status
//   - resilience_batch_chunk_size
//
// Components record into core metrics through the typed helpers on
// Metrics rather than touching the collectors directly:
//
//	registry.CoreMetrics().RecordRequest("files.upload", "success")
//	registry.CoreMetrics().RecordBreakerState("smartling-api", 1)
//
// # Exposition
//
// Server exposes the registry over HTTP with OpenMetrics support, plus
// a trivial /health endpoint:
//
//	server := metric.NewServer(9090, "/metrics", registry)
//	go func() {
//		if err := server.Start(); err != nil {
//			log.Error("metrics server", "error", err)
//		}
//	}()
//	defer server.Stop()
//
// Go runtime and process collectors are registered automatically.
package metric
