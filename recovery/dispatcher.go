package recovery

import (
	"context"
	"log/slog"
	"time"

	"github.com/Jacobolevy/smartling-mcp-server-sub002/errors"
	"github.com/Jacobolevy/smartling-mcp-server-sub002/metric"
	"github.com/Jacobolevy/smartling-mcp-server-sub002/pkg/retry"
)

// Dispatcher recovers failed operations by classifying the error and
// applying the per-kind strategy: backoff, load reduction, one re-auth
// cycle, split-and-merge, or circuit breaker routing. Recovery recurses
// until success, budget exhaustion, or a dead end like an auth error
// with no authenticator.
type Dispatcher struct {
	strategies map[errors.Kind]Strategy
	logger     *slog.Logger
	metrics    *metric.Metrics
	stats      *Statistics
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the structured logger. Nil means slog.Default().
func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithMetrics records recovery outcomes into the registry's core metrics.
func WithMetrics(registry *metric.Registry) DispatcherOption {
	return func(d *Dispatcher) {
		if registry != nil {
			d.metrics = registry.CoreMetrics()
		}
	}
}

// WithStrategy overrides the policy for one error kind.
func WithStrategy(kind errors.Kind, strategy Strategy) DispatcherOption {
	return func(d *Dispatcher) {
		d.strategies[kind] = strategy
	}
}

// NewDispatcher creates a dispatcher with the default strategy table.
func NewDispatcher(options ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		strategies: defaultStrategies(),
		stats:      NewStatistics(),
	}
	for _, option := range options {
		option(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Do executes op and recovers from failures according to the strategy
// table. The returned error on exhaustion is a RecoveryExhaustedError
// carrying the classification, attempt count, and original cause.
func (d *Dispatcher) Do(ctx context.Context, op Operation, rctx *Context) (any, error) {
	if rctx == nil {
		rctx = &Context{}
	}

	result, err := op(ctx, rctx)
	if err == nil {
		return result, nil
	}
	return d.recover(ctx, err, op, rctx, 1)
}

// recover handles one failed attempt and recurses on further failures.
func (d *Dispatcher) recover(ctx context.Context, cause error, op Operation, rctx *Context, attempt int) (any, error) {
	kind := errors.KindOf(cause)
	strategy, ok := d.strategies[kind]
	if !ok {
		strategy = d.strategies[errors.KindUnknown]
	}

	d.stats.Attempt(kind)

	budget := strategy.budgetFor(rctx)
	if attempt > budget {
		d.recordOutcome(kind, "exhausted")
		return nil, &errors.RecoveryExhaustedError{Kind: kind, Attempts: attempt - 1, Err: cause}
	}

	if delay := d.delayFor(strategy, attempt); delay > 0 {
		if err := retry.Sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	d.logger.Debug("recovering failed operation",
		"kind", kind.String(),
		"attempt", attempt,
		"budget", budget,
		"operation_type", rctx.OperationType,
		"project_id", rctx.ProjectID,
		"error", cause)

	var result any
	var err error
	next := rctx

	switch kind {
	case errors.KindPayloadTooLarge:
		return d.splitAndMerge(ctx, cause, op, rctx, attempt)

	case errors.KindAuthError:
		if rctx.Authenticate == nil {
			d.recordOutcome(kind, "exhausted")
			return nil, cause
		}
		if authErr := rctx.Authenticate(ctx); authErr != nil {
			d.recordOutcome(kind, "exhausted")
			return nil, errors.Wrap(authErr, "recovery", "recover", "re-authentication")
		}
		result, err = op(ctx, rctx)

	case errors.KindTimeout:
		next = d.reduceLoad(rctx, strategy)
		if next.Timeout > 0 {
			result, err = d.raceTimeout(ctx, op, next)
		} else {
			result, err = op(ctx, next)
		}

	case errors.KindServerError:
		if rctx.Breaker != nil {
			result, err = rctx.Breaker.Execute(ctx, func(ctx context.Context) (any, error) {
				return op(ctx, rctx)
			})
		} else {
			result, err = op(ctx, rctx)
		}

	default: // RateLimit, NetworkError, Unknown: retry as-is after backoff
		result, err = op(ctx, rctx)
	}

	if err != nil {
		return d.recover(ctx, err, op, next, attempt+1)
	}

	d.recordOutcome(kind, "recovered")
	return result, nil
}

// delayFor computes the exponential backoff before the given attempt.
func (d *Dispatcher) delayFor(strategy Strategy, attempt int) time.Duration {
	delay := retry.Delay(retry.Config{
		InitialDelay: strategy.BaseDelay,
		MaxDelay:     strategy.MaxDelay,
		Multiplier:   2,
		Strategy:     retry.StrategyExponential,
	}, attempt)

	if strategy.Jitter {
		delay = retry.Jittered(delay)
	}
	return delay
}

// reduceLoad shrinks the nominal batch size by the strategy's ratio.
// Batch contexts always shed load on timeout; other contexts only when
// a reduction ratio is configured.
func (d *Dispatcher) reduceLoad(rctx *Context, strategy Strategy) *Context {
	ratio := strategy.LoadReduction
	if ratio <= 0 || ratio >= 1 {
		if !rctx.isBatch() {
			return rctx
		}
		ratio = 0.5
	}

	if rctx.BatchSize <= 1 {
		return rctx
	}

	next := rctx.clone()
	next.BatchSize = int(float64(rctx.BatchSize) * ratio)
	if next.BatchSize < 1 {
		next.BatchSize = 1
	}

	d.logger.Debug("reducing load for timeout retry",
		"batch_size", rctx.BatchSize,
		"reduced_to", next.BatchSize)
	return next
}

// splitAndMerge halves the workload and runs both halves through the
// full recovery pipeline, so repeated PAYLOAD_TOO_LARGE re-splits
// recursively until chunks reach size one or the error kind changes.
func (d *Dispatcher) splitAndMerge(ctx context.Context, cause error, op Operation, rctx *Context, attempt int) (any, error) {
	items := rctx.Items
	if len(items) <= 1 {
		// a single item that is still too large is a permanent failure
		d.recordOutcome(errors.KindPayloadTooLarge, "exhausted")
		return nil, &errors.RecoveryExhaustedError{
			Kind:     errors.KindPayloadTooLarge,
			Attempts: attempt,
			Err:      cause,
		}
	}

	mid := len(items) / 2
	d.logger.Debug("splitting oversized payload",
		"items", len(items),
		"first_half", mid,
		"second_half", len(items)-mid)

	first, err := d.Do(ctx, op, rctx.withItems(items[:mid]))
	if err != nil {
		return nil, err
	}

	second, err := d.Do(ctx, op, rctx.withItems(items[mid:]))
	if err != nil {
		return nil, err
	}

	d.recordOutcome(errors.KindPayloadTooLarge, "recovered")
	return mergeResults(first, second), nil
}

// raceTimeout races op against the context's timeout bound. The loser
// is discarded, not cancelled beyond ctx.
func (d *Dispatcher) raceTimeout(ctx context.Context, op Operation, rctx *Context) (any, error) {
	type outcome struct {
		result any
		err    error
	}

	ch := make(chan outcome, 1)
	go func() {
		result, err := op(ctx, rctx)
		ch <- outcome{result, err}
	}()

	timer := time.NewTimer(rctx.Timeout)
	defer timer.Stop()

	select {
	case o := <-ch:
		return o.result, o.err
	case <-timer.C:
		return nil, errors.WrapKind(errors.KindTimeout, context.DeadlineExceeded,
			"recovery", "raceTimeout", "operation timed out")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// recordOutcome tracks the recovery result in stats and core metrics.
func (d *Dispatcher) recordOutcome(kind errors.Kind, outcome string) {
	if outcome == "recovered" {
		d.stats.Recovered()
	} else {
		d.stats.Exhausted()
	}
	if d.metrics != nil {
		d.metrics.RecordRecovery(kind.String(), outcome)
	}
}

// Stats returns recovery statistics (always available).
func (d *Dispatcher) Stats() *Statistics {
	return d.stats
}
