package breaker

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/Jacobolevy/smartling-mcp-server-sub002/errors"
	"github.com/Jacobolevy/smartling-mcp-server-sub002/pkg/retry"
	"github.com/Jacobolevy/smartling-mcp-server-sub002/pkg/rolling"
)

// Operation is the call protected by a breaker.
type Operation func(ctx context.Context) (any, error)

// Breaker protects a single named remote operation. Calls pass through
// while the breaker is closed, are rejected while it is open, and probe
// the dependency while it is half-open. Independently of state, a
// smoothed health score drives degraded-mode routing before the hard
// failure threshold is reached.
type Breaker struct {
	name   string
	config Config
	logger *slog.Logger

	mu               sync.Mutex
	state            State
	generation       uint64
	failureCount     int
	successCount     int
	lastFailureAt    time.Time
	lastSuccessAt    time.Time
	openedAt         time.Time
	tripCount        int // consecutive opens without a full recovery
	healthScore      float64
	dynamicThreshold int
	window           *rolling.Window

	fallback      Operation
	onStateChange func(name string, from, to State)
	metrics       *breakerMetrics
	stats         *Statistics
}

// New creates a circuit breaker for the named operation.
func New(name string, config Config, options ...Option) (*Breaker, error) {
	if name == "" {
		return nil, errors.Wrap(errors.ErrInvalidConfig, "breaker", "New", "empty name")
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "breaker", "New", "config validation")
	}
	config = config.withDefaults()

	opts := applyOptions(options)

	b := &Breaker{
		name:             name,
		config:           config,
		logger:           opts.logger,
		state:            StateClosed,
		healthScore:      100,
		dynamicThreshold: config.FailureThreshold,
		window:           rolling.NewWindow(config.MonitoringWindow),
		fallback:         opts.fallback,
		onStateChange:    opts.onStateChange,
		stats:            NewStatistics(),
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}

	if opts.metricsReg != nil {
		m, err := newBreakerMetrics(opts.metricsReg, name)
		if err != nil {
			return nil, errors.Wrap(err, "breaker", "New", "metrics registration")
		}
		b.metrics = m
	}

	return b, nil
}

// Name returns the breaker's name.
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state, applying any pending open-to-half-open
// transition.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	state, _ := b.currentStateLocked(time.Now())
	return state
}

// HealthScore returns the current smoothed health score in [0,100].
func (b *Breaker) HealthScore() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.healthScore
}

// Execute runs op through the breaker. Open-state rejections return a
// CircuitOpenError without invoking op. While closed with a degraded
// health score, the call routes through a strategy chosen by health
// tier: retry with backoff, a timeout-wrapped call, or the configured
// fallback.
func (b *Breaker) Execute(ctx context.Context, op Operation) (any, error) {
	generation, degraded, err := b.beforeRequest()
	if err != nil {
		b.stats.Rejection()
		return nil, err
	}
	b.stats.Allowed()

	start := time.Now()
	var result any

	switch {
	case degraded == degradeNone:
		result, err = op(ctx)
	default:
		result, err = b.executeDegraded(ctx, op, degraded)
	}

	b.afterRequest(generation, err == nil, time.Since(start))
	return result, err
}

type degradeMode int

const (
	degradeNone degradeMode = iota
	degradeRetry
	degradeTimeout
	degradeFallback
)

// beforeRequest decides whether the call may proceed and in which mode.
func (b *Breaker) beforeRequest() (uint64, degradeMode, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	state, generation := b.currentStateLocked(now)

	if state == StateOpen {
		retryAfter := b.recoveryTimeLocked() - now.Sub(b.openedAt)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return generation, degradeNone, &errors.CircuitOpenError{
			Name:       b.name,
			OpenedAt:   b.openedAt,
			RetryAfter: retryAfter,
		}
	}

	mode := degradeNone
	if state == StateClosed && b.config.HealthThreshold > 0 && b.healthScore < b.config.HealthThreshold {
		mode = b.degradeModeLocked()
		b.stats.Degraded()
		b.logger.Debug("routing call through degraded mode",
			"breaker", b.name,
			"health_score", b.healthScore,
			"mode", int(mode))
	}

	return generation, mode, nil
}

// degradeModeLocked picks the degraded strategy by health tier.
func (b *Breaker) degradeModeLocked() degradeMode {
	threshold := b.config.HealthThreshold
	switch {
	case b.healthScore >= threshold*0.6:
		return degradeRetry
	case b.healthScore >= threshold*0.3:
		return degradeTimeout
	default:
		if b.fallback != nil {
			return degradeFallback
		}
		return degradeTimeout
	}
}

// executeDegraded runs op under the selected degraded strategy.
func (b *Breaker) executeDegraded(ctx context.Context, op Operation, mode degradeMode) (any, error) {
	switch mode {
	case degradeRetry:
		cfg := retry.Config{
			MaxAttempts:  3,
			InitialDelay: 100 * time.Millisecond,
			MaxDelay:     time.Second,
			Multiplier:   2,
			Strategy:     retry.StrategyExponential,
			AddJitter:    true,
		}
		return retry.DoWithResult(ctx, cfg, func() (any, error) {
			return op(ctx)
		})

	case degradeFallback:
		result, err := b.executeWithTimeout(ctx, op, b.config.DegradedTimeout)
		if err != nil {
			b.logger.Warn("degraded call failed, serving fallback",
				"breaker", b.name, "error", err)
			return b.fallback(ctx)
		}
		return result, nil

	default: // degradeTimeout
		return b.executeWithTimeout(ctx, op, b.config.DegradedTimeout)
	}
}

// executeWithTimeout races op against a timer. The loser is discarded,
// not cancelled beyond ctx; an in-flight call may complete after the
// timer fires.
func (b *Breaker) executeWithTimeout(ctx context.Context, op Operation, timeout time.Duration) (any, error) {
	type outcome struct {
		result any
		err    error
	}

	ch := make(chan outcome, 1)
	go func() {
		result, err := op(ctx)
		ch <- outcome{result, err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case o := <-ch:
		return o.result, o.err
	case <-timer.C:
		return nil, errors.WrapKind(errors.KindTimeout, context.DeadlineExceeded,
			"breaker", "executeWithTimeout", "degraded call timed out")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// afterRequest records the outcome unless the breaker changed generation
// while the call was in flight.
func (b *Breaker) afterRequest(before uint64, success bool, duration time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	state, generation := b.currentStateLocked(now)
	if generation != before {
		return
	}

	b.window.Record(success, duration)
	b.updateHealthLocked(success, duration)
	b.recomputeThresholdLocked()

	if success {
		b.onSuccessLocked(state, now)
	} else {
		b.onFailureLocked(state, now)
	}

	if b.metrics != nil {
		b.metrics.updateHealth(b.healthScore)
	}
}

func (b *Breaker) onSuccessLocked(state State, now time.Time) {
	b.lastSuccessAt = now
	b.stats.Success()

	switch state {
	case StateClosed:
		b.successCount++
		b.failureCount = 0
	case StateHalfOpen:
		b.successCount++
		if b.successCount >= b.config.HalfOpenSuccesses {
			b.tripCount = 0
			b.setStateLocked(StateClosed, now)
		}
	}
}

func (b *Breaker) onFailureLocked(state State, now time.Time) {
	b.lastFailureAt = now
	b.stats.Failure()

	switch state {
	case StateClosed:
		b.failureCount++
		if b.failureCount >= b.effectiveThresholdLocked() {
			b.tripCount++
			b.setStateLocked(StateOpen, now)
		}
	case StateHalfOpen:
		b.tripCount++
		b.setStateLocked(StateOpen, now)
	}
}

// effectiveThresholdLocked returns the dynamic threshold when adaptive
// mode is on, otherwise the static one.
func (b *Breaker) effectiveThresholdLocked() int {
	if b.config.AdaptiveThreshold {
		return b.dynamicThreshold
	}
	return b.config.FailureThreshold
}

// recomputeThresholdLocked interpolates the trip threshold between the
// loose and tight bounds by the failure rate in the monitoring window:
// clustered failures tighten it, stability loosens it.
func (b *Breaker) recomputeThresholdLocked() {
	if !b.config.AdaptiveThreshold {
		return
	}

	rate := b.window.FailureRate()
	loose := float64(b.config.MaxThreshold)
	tight := float64(b.config.MinThreshold)

	b.dynamicThreshold = int(math.Round(loose - rate*(loose-tight)))
	if b.dynamicThreshold < b.config.MinThreshold {
		b.dynamicThreshold = b.config.MinThreshold
	}
	if b.dynamicThreshold > b.config.MaxThreshold {
		b.dynamicThreshold = b.config.MaxThreshold
	}
}

// updateHealthLocked applies exponential smoothing to the health score.
// Successes push it toward 100 with credit scaled by call speed; slow
// failures pull it down harder than fast ones.
func (b *Breaker) updateHealthLocked(success bool, duration time.Duration) {
	alpha := b.config.HealthSmoothing
	var sample float64

	if success {
		sample = 100
		if duration > b.config.TargetLatency {
			ratio := float64(b.config.TargetLatency) / float64(duration)
			if ratio < 0.5 {
				ratio = 0.5
			}
			sample *= ratio
		}
	} else {
		sample = 0
		if duration > b.config.TargetLatency {
			alpha = math.Min(1, alpha*1.5)
		}
	}

	b.healthScore = b.healthScore*(1-alpha) + sample*alpha
	if b.healthScore < 0 {
		b.healthScore = 0
	}
	if b.healthScore > 100 {
		b.healthScore = 100
	}
}

// recoveryTimeLocked derives the open-state cooldown from a backoff
// strategy chosen by recent failure frequency: frequent trips back off
// exponentially, occasional ones linearly, a first trip retries after
// the base cooldown.
func (b *Breaker) recoveryTimeLocked() time.Duration {
	_, recentFailures := b.window.Since(time.Now().Add(-time.Minute))

	var strategy retry.Strategy
	switch {
	case recentFailures >= b.config.FailureThreshold*2:
		strategy = retry.StrategyExponential
	case b.tripCount > 1:
		strategy = retry.StrategyLinear
	default:
		strategy = retry.StrategyImmediate
	}

	attempt := b.tripCount
	if attempt < 1 {
		attempt = 1
	}

	cooldown := retry.Delay(retry.Config{
		InitialDelay: b.config.RecoveryTime,
		MaxDelay:     b.config.MaxRecoveryTime,
		Multiplier:   2,
		Strategy:     strategy,
	}, attempt)

	// Immediate strategy still honors the base cooldown; zero would
	// re-probe a failing dependency with no pause at all.
	if cooldown < b.config.RecoveryTime {
		cooldown = b.config.RecoveryTime
	}
	if cooldown > b.config.MaxRecoveryTime {
		cooldown = b.config.MaxRecoveryTime
	}
	return cooldown
}

// currentStateLocked applies the open-to-half-open transition and
// returns the state plus the generation token for stale-outcome checks.
func (b *Breaker) currentStateLocked(now time.Time) (State, uint64) {
	if b.state == StateOpen && now.Sub(b.openedAt) >= b.recoveryTimeLocked() {
		b.setStateLocked(StateHalfOpen, now)
	}
	return b.state, b.generation
}

func (b *Breaker) setStateLocked(state State, now time.Time) {
	if b.state == state {
		return
	}

	prev := b.state
	b.state = state
	b.generation++
	b.failureCount = 0
	b.successCount = 0

	if state == StateOpen {
		b.openedAt = now
		b.stats.Trip()
	}

	b.logger.Info("circuit breaker state changed",
		"breaker", b.name,
		"from", prev.String(),
		"to", state.String(),
		"health_score", b.healthScore)

	if b.metrics != nil {
		b.metrics.updateState(state)
	}

	if b.onStateChange != nil {
		b.onStateChange(b.name, prev, state)
	}
}

// Status is a serializable snapshot of breaker state for introspection.
type Status struct {
	Name             string    `json:"name"`
	State            string    `json:"state"`
	HealthScore      float64   `json:"health_score"`
	FailureCount     int       `json:"failure_count"`
	SuccessCount     int       `json:"success_count"`
	DynamicThreshold int       `json:"dynamic_threshold"`
	TripCount        int       `json:"trip_count"`
	LastFailureAt    time.Time `json:"last_failure_at,omitempty"`
	LastSuccessAt    time.Time `json:"last_success_at,omitempty"`
	Allowed          int64     `json:"allowed"`
	Rejected         int64     `json:"rejected"`
	Degraded         int64     `json:"degraded"`
}

// Status returns a snapshot of the breaker for monitoring.
func (b *Breaker) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, _ := b.currentStateLocked(time.Now())

	return Status{
		Name:             b.name,
		State:            state.String(),
		HealthScore:      b.healthScore,
		FailureCount:     b.failureCount,
		SuccessCount:     b.successCount,
		DynamicThreshold: b.effectiveThresholdLocked(),
		TripCount:        b.tripCount,
		LastFailureAt:    b.lastFailureAt,
		LastSuccessAt:    b.lastSuccessAt,
		Allowed:          b.stats.AllowedCount(),
		Rejected:         b.stats.RejectedCount(),
		Degraded:         b.stats.DegradedCount(),
	}
}

// Stats returns the breaker's cumulative statistics.
func (b *Breaker) Stats() *Statistics {
	return b.stats
}
