package analytics

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Jacobolevy/smartling-mcp-server-sub002/errors"
	"github.com/Jacobolevy/smartling-mcp-server-sub002/health"
	"github.com/Jacobolevy/smartling-mcp-server-sub002/metric"
	"github.com/Jacobolevy/smartling-mcp-server-sub002/pkg/rolling"
)

// Alert describes an operation whose failure rate crossed the
// configured threshold.
type Alert struct {
	Operation   string        `json:"operation"`
	FailureRate float64       `json:"failure_rate"`
	Threshold   float64       `json:"threshold"`
	SampleCount int           `json:"sample_count"`
	AvgDuration time.Duration `json:"avg_duration"`
	At          time.Time     `json:"at"`
}

// AlertFunc receives alerts raised by the Recorder. It is invoked
// synchronously from Record; keep it fast.
type AlertFunc func(Alert)

// OperationStats is a point-in-time summary of one operation's window.
type OperationStats struct {
	Operation   string        `json:"operation"`
	Count       int           `json:"count"`
	SuccessRate float64       `json:"success_rate"`
	FailureRate float64       `json:"failure_rate"`
	AvgDuration time.Duration `json:"avg_duration"`
	P95Duration time.Duration `json:"p95_duration"`
	MaxDuration time.Duration `json:"max_duration"`
}

// Recorder keeps a rolling window of outcomes per operation and raises
// alerts when an operation's failure rate crosses the configured
// threshold.
type Recorder struct {
	mu      sync.RWMutex
	windows map[string]*rolling.Window
	config  Config
	logger  *slog.Logger
	metrics *metric.Metrics
	monitor *health.Monitor
	onAlert AlertFunc

	// alerting tracks which operations are currently over threshold so
	// each crossing raises exactly one alert.
	alerting map[string]bool
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger.With("component", "analytics")
		}
	}
}

// WithMetrics publishes request outcomes and durations to the registry's
// core metrics.
func WithMetrics(registry *metric.Registry) Option {
	return func(r *Recorder) {
		if registry != nil {
			r.metrics = registry.CoreMetrics()
		}
	}
}

// WithHealthMonitor pushes per-operation health statuses into the
// monitor as outcomes are recorded.
func WithHealthMonitor(monitor *health.Monitor) Option {
	return func(r *Recorder) {
		r.monitor = monitor
	}
}

// WithAlertHandler sets the callback invoked when an operation crosses
// the alert threshold.
func WithAlertHandler(fn AlertFunc) Option {
	return func(r *Recorder) {
		r.onAlert = fn
	}
}

// NewRecorder creates a Recorder with the given configuration.
func NewRecorder(config Config, options ...Option) (*Recorder, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "analytics", "NewRecorder", "config validation")
	}

	r := &Recorder{
		windows:  make(map[string]*rolling.Window),
		config:   config.withDefaults(),
		logger:   slog.Default().With("component", "analytics"),
		alerting: make(map[string]bool),
	}
	for _, option := range options {
		option(r)
	}
	return r, nil
}

// Record adds one outcome for the named operation. Empty operation
// names are recorded under "unknown" rather than dropped.
func (r *Recorder) Record(operation string, success bool, duration time.Duration) {
	if operation == "" {
		operation = "unknown"
	}

	window := r.windowFor(operation)
	window.Record(success, duration)

	if r.metrics != nil {
		outcome := "success"
		if !success {
			outcome = "failure"
		}
		r.metrics.RecordRequest(operation, outcome)
		r.metrics.RecordRequestDuration(operation, duration)
	}

	r.evaluate(operation, window)
}

// windowFor returns the operation's window, creating it on first use.
func (r *Recorder) windowFor(operation string) *rolling.Window {
	r.mu.RLock()
	window, exists := r.windows[operation]
	r.mu.RUnlock()
	if exists {
		return window
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if window, exists = r.windows[operation]; exists {
		return window
	}
	window = rolling.NewWindow(r.config.WindowSize)
	r.windows[operation] = window
	return window
}

// evaluate checks the alert threshold and pushes health updates.
func (r *Recorder) evaluate(operation string, window *rolling.Window) {
	count := window.Count()
	failureRate := window.FailureRate()

	over := r.config.AlertFailureRate > 0 &&
		count >= r.config.MinSamples &&
		failureRate > r.config.AlertFailureRate

	r.mu.Lock()
	wasAlerting := r.alerting[operation]
	r.alerting[operation] = over
	r.mu.Unlock()

	if over && !wasAlerting {
		alert := Alert{
			Operation:   operation,
			FailureRate: failureRate,
			Threshold:   r.config.AlertFailureRate,
			SampleCount: count,
			AvgDuration: window.AverageDuration(),
			At:          time.Now(),
		}
		r.logger.Warn("operation failure rate over threshold",
			"operation", operation,
			"failure_rate", failureRate,
			"threshold", r.config.AlertFailureRate,
			"samples", count)
		if r.onAlert != nil {
			r.onAlert(alert)
		}
	}

	if r.monitor == nil {
		return
	}
	switch {
	case over:
		r.monitor.UpdateUnhealthy(operation, "failure rate over alert threshold")
	case count >= r.config.MinSamples && failureRate > r.config.AlertFailureRate/2:
		r.monitor.UpdateDegraded(operation, "failure rate elevated")
	default:
		r.monitor.UpdateHealthy(operation, "failure rate nominal")
	}
}

// StatsFor returns the current summary for one operation.
func (r *Recorder) StatsFor(operation string) (OperationStats, bool) {
	r.mu.RLock()
	window, exists := r.windows[operation]
	r.mu.RUnlock()
	if !exists {
		return OperationStats{}, false
	}
	return r.summarize(operation, window), true
}

// GetStats returns summaries for all recorded operations, ordered by
// operation name.
func (r *Recorder) GetStats() []OperationStats {
	r.mu.RLock()
	windows := make(map[string]*rolling.Window, len(r.windows))
	for name, window := range r.windows {
		windows[name] = window
	}
	r.mu.RUnlock()

	stats := make([]OperationStats, 0, len(windows))
	for name, window := range windows {
		stats = append(stats, r.summarize(name, window))
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Operation < stats[j].Operation
	})
	return stats
}

func (r *Recorder) summarize(operation string, window *rolling.Window) OperationStats {
	return OperationStats{
		Operation:   operation,
		Count:       window.Count(),
		SuccessRate: window.SuccessRate(),
		FailureRate: window.FailureRate(),
		AvgDuration: window.AverageDuration(),
		P95Duration: window.Percentile(95),
		MaxDuration: window.Percentile(100),
	}
}

// Operations returns the sorted names of all recorded operations.
func (r *Recorder) Operations() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.windows))
	for name := range r.windows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset discards the window for one operation.
func (r *Recorder) Reset(operation string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.windows, operation)
	delete(r.alerting, operation)
}

// ResetAll discards all recorded outcomes.
func (r *Recorder) ResetAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.windows = make(map[string]*rolling.Window)
	r.alerting = make(map[string]bool)
}
