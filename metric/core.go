package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all toolkit-level metrics (not component-specific)
type Metrics struct {
	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ErrorsTotal     *prometheus.CounterVec
	RetriesTotal    *prometheus.CounterVec
	RecoveriesTotal *prometheus.CounterVec

	// Circuit breaker metrics
	CircuitBreakerState  *prometheus.GaugeVec
	CircuitBreakerHealth *prometheus.GaugeVec

	// Health and batching metrics
	HealthCheckStatus *prometheus.GaugeVec
	BatchChunkSize    *prometheus.GaugeVec
}

// NewMetrics creates a new Metrics instance with all toolkit metrics
func NewMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "resilience",
				Subsystem: "requests",
				Name:      "total",
				Help:      "Total number of requests by operation and status",
			},
			[]string{"operation", "status"},
		),

		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "resilience",
				Subsystem: "requests",
				Name:      "duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "resilience",
				Subsystem: "errors",
				Name:      "total",
				Help:      "Total number of errors by operation and kind",
			},
			[]string{"operation", "kind"},
		),

		RetriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "resilience",
				Subsystem: "retries",
				Name:      "total",
				Help:      "Total number of retry attempts by operation",
			},
			[]string{"operation"},
		),

		RecoveriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "resilience",
				Subsystem: "recoveries",
				Name:      "total",
				Help:      "Total number of recovery attempts by error kind and outcome",
			},
			[]string{"kind", "outcome"},
		),

		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "resilience",
				Subsystem: "breaker",
				Name:      "state",
				Help:      "Circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
			[]string{"breaker"},
		),

		CircuitBreakerHealth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "resilience",
				Subsystem: "breaker",
				Name:      "health_score",
				Help:      "Circuit breaker health score (0-100)",
			},
			[]string{"breaker"},
		),

		HealthCheckStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "resilience",
				Subsystem: "health",
				Name:      "status",
				Help:      "Health check status (0=unhealthy, 1=healthy)",
			},
			[]string{"component"},
		),

		BatchChunkSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "resilience",
				Subsystem: "batch",
				Name:      "chunk_size",
				Help:      "Current adaptive batch chunk size",
			},
			[]string{"operation"},
		),
	}
}

// RecordRequest increments the request counter
func (c *Metrics) RecordRequest(operation, status string) {
	c.RequestsTotal.WithLabelValues(operation, status).Inc()
}

// RecordRequestDuration records request latency
func (c *Metrics) RecordRequestDuration(operation string, duration time.Duration) {
	c.RequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordError increments the error counter for a classified error kind
func (c *Metrics) RecordError(operation, kind string) {
	c.ErrorsTotal.WithLabelValues(operation, kind).Inc()
}

// RecordRetry increments the retry counter
func (c *Metrics) RecordRetry(operation string) {
	c.RetriesTotal.WithLabelValues(operation).Inc()
}

// RecordRecovery increments the recovery counter
func (c *Metrics) RecordRecovery(kind, outcome string) {
	c.RecoveriesTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordBreakerState updates the circuit breaker state gauge
func (c *Metrics) RecordBreakerState(breaker string, state int) {
	c.CircuitBreakerState.WithLabelValues(breaker).Set(float64(state))
}

// RecordBreakerHealth updates the circuit breaker health score gauge
func (c *Metrics) RecordBreakerHealth(breaker string, score float64) {
	c.CircuitBreakerHealth.WithLabelValues(breaker).Set(score)
}

// RecordHealthStatus updates the health check status gauge
func (c *Metrics) RecordHealthStatus(component string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	c.HealthCheckStatus.WithLabelValues(component).Set(value)
}

// RecordBatchChunkSize updates the adaptive chunk size gauge
func (c *Metrics) RecordBatchChunkSize(operation string, size int) {
	c.BatchChunkSize.WithLabelValues(operation).Set(float64(size))
}
