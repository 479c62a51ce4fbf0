package breaker

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Jacobolevy/smartling-mcp-server-sub002/metric"
)

// breakerMetrics holds Prometheus metrics for a single breaker.
type breakerMetrics struct {
	state  prometheus.Gauge
	health prometheus.Gauge
}

func newBreakerMetrics(registry *metric.Registry, name string) (*breakerMetrics, error) {
	m := &breakerMetrics{
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "resilience",
			Subsystem:   "breaker",
			Name:        "state",
			ConstLabels: prometheus.Labels{"breaker": name},
			Help:        "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		health: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "resilience",
			Subsystem:   "breaker",
			Name:        "health_score",
			ConstLabels: prometheus.Labels{"breaker": name},
			Help:        "Circuit breaker health score (0-100)",
		}),
	}
	m.health.Set(100)

	if err := registry.RegisterGauge(name, "breaker_state", m.state); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(name, "breaker_health", m.health); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *breakerMetrics) updateState(state State) {
	m.state.Set(float64(state))
}

func (m *breakerMetrics) updateHealth(score float64) {
	m.health.Set(score)
}
