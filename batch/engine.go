package batch

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Jacobolevy/smartling-mcp-server-sub002/errors"
	"github.com/Jacobolevy/smartling-mcp-server-sub002/metric"
	"github.com/Jacobolevy/smartling-mcp-server-sub002/pkg/rolling"
	"github.com/Jacobolevy/smartling-mcp-server-sub002/recovery"
)

// Engine processes large item lists in chunks, each wrapped through the
// error recovery dispatcher, with adaptive sizing, inter-chunk pacing,
// an abort policy, and ordered progress reporting.
type Engine struct {
	config     Config
	dispatcher *recovery.Dispatcher
	logger     *slog.Logger
	metrics    *metric.Metrics
	history    *rolling.Ring[Result]
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger. Nil means slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithDispatcher sets the recovery dispatcher chunks run through.
// Absent, a dispatcher with default strategies is created.
func WithDispatcher(dispatcher *recovery.Dispatcher) Option {
	return func(e *Engine) {
		e.dispatcher = dispatcher
	}
}

// WithMetrics records chunk sizes and outcomes into the registry's core
// metrics.
func WithMetrics(registry *metric.Registry) Option {
	return func(e *Engine) {
		if registry != nil {
			e.metrics = registry.CoreMetrics()
		}
	}
}

// New creates a batch engine.
func New(config Config, options ...Option) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "batch", "New", "config validation")
	}
	config = config.withDefaults()

	e := &Engine{config: config}
	for _, option := range options {
		option(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.dispatcher == nil {
		e.dispatcher = recovery.NewDispatcher(recovery.WithLogger(e.logger))
	}
	e.history = rolling.NewRing[Result](config.HistorySize)

	return e, nil
}

// ProcessOption customizes a single Process call.
type ProcessOption func(*processOptions)

type processOptions struct {
	progress ProgressFunc
}

// WithProgress sets the per-chunk progress callback for this run.
func WithProgress(fn ProgressFunc) ProcessOption {
	return func(o *processOptions) {
		o.progress = fn
	}
}

// Process runs op over items in chunks and returns the aggregated
// result. Partial failure is reported in the result, not as an error;
// the returned error is reserved for context cancellation.
func (e *Engine) Process(ctx context.Context, op Operation, items []any, options ...ProcessOption) (*Result, error) {
	opts := &processOptions{}
	for _, option := range options {
		option(opts)
	}

	result := &Result{
		BatchID: uuid.NewString(),
		Timing:  Timing{StartedAt: time.Now()},
	}

	if len(items) == 0 {
		result.Timing.CompletedAt = result.Timing.StartedAt
		return result, nil
	}

	e.logger.Info("starting batch",
		"batch_id", result.BatchID,
		"items", len(items),
		"chunk_size", e.config.ChunkSize,
		"concurrency", e.config.Concurrency)

	var err error
	if e.config.Concurrency > 1 {
		err = e.processConcurrent(ctx, op, items, result, opts)
	} else {
		err = e.processSequential(ctx, op, items, result, opts)
	}

	result.Timing.CompletedAt = time.Now()
	result.Timing.Elapsed = result.Timing.CompletedAt.Sub(result.Timing.StartedAt)

	e.history.Push(*result)

	e.logger.Info("batch finished",
		"batch_id", result.BatchID,
		"successful", result.Successful,
		"failed", result.Failed,
		"aborted", result.Aborted,
		"elapsed", result.Timing.Elapsed)

	return result, err
}

// processSequential walks the item list taking adaptively sized chunks.
func (e *Engine) processSequential(ctx context.Context, op Operation, items []any, result *Result, opts *processOptions) error {
	total := len(items)
	size := e.config.ChunkSize
	chunkIndex := 0
	failedChunks := 0
	offset := 0

	for offset < total {
		if err := ctx.Err(); err != nil {
			e.markAborted(result, items[offset:], size, chunkIndex)
			return err
		}

		end := offset + size
		if end > total {
			end = total
		}
		// tail merge: absorb an undersized final chunk into this one
		if remaining := total - end; remaining > 0 && remaining*10 < size*3 {
			end = total
		}
		chunk := items[offset:end]

		chunkStart := time.Now()
		chunkResult, chunkErr := e.runChunk(ctx, op, chunk, chunkIndex, e.estimateTotal(total, offset, size, chunkIndex))
		duration := time.Since(chunkStart)
		result.Timing.ChunkDurations = append(result.Timing.ChunkDurations, duration)

		if chunkErr != nil {
			failedChunks++
			result.Failed += len(chunk)
			result.Errors = append(result.Errors, ChunkError{
				ChunkIndex: chunkIndex,
				Items:      chunk,
				Err:        chunkErr,
				Message:    chunkErr.Error(),
			})
		} else {
			result.Successful += len(chunk)
			result.Results = append(result.Results, chunkResult)
		}

		offset = end
		chunkIndex++

		e.reportProgress(opts.progress, result, total)

		if chunkIndex > e.config.AbortMinChunks &&
			float64(failedChunks)/float64(chunkIndex) > e.config.AbortFailureRate {
			e.logger.Warn("aborting batch, failure rate exceeded",
				"batch_id", result.BatchID,
				"failed_chunks", failedChunks,
				"processed_chunks", chunkIndex)
			e.markAborted(result, items[offset:], size, chunkIndex)
			return nil
		}

		if e.config.Adaptive {
			size = e.resize(size, duration)
		}

		if offset < total && e.config.InterChunkDelay > 0 {
			select {
			case <-time.After(e.config.InterChunkDelay):
			case <-ctx.Done():
				e.markAborted(result, items[offset:], size, chunkIndex)
				return ctx.Err()
			}
		}
	}

	return nil
}

// processConcurrent runs statically partitioned chunks through a bounded
// worker group, aggregating by chunk index regardless of completion
// order. Adaptive sizing does not apply; the abort policy suppresses
// chunks not yet started once the failure rate trips.
func (e *Engine) processConcurrent(ctx context.Context, op Operation, items []any, result *Result, opts *processOptions) error {
	chunks := partition(items, e.config.ChunkSize)
	total := len(items)

	chunkResults := make([]any, len(chunks))
	chunkErrs := make([]error, len(chunks))
	durations := make([]time.Duration, len(chunks))
	aborted := make([]bool, len(chunks))

	var mu sync.Mutex
	processed, failed := 0, 0
	abort := false

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.Concurrency)

	for i, chunk := range chunks {
		mu.Lock()
		skip := abort
		mu.Unlock()
		if skip {
			aborted[i] = true
			continue
		}

		i, chunk := i, chunk
		g.Go(func() error {
			start := time.Now()
			chunkResult, chunkErr := e.runChunk(gctx, op, chunk, i, len(chunks))
			durations[i] = time.Since(start)
			chunkResults[i] = chunkResult
			chunkErrs[i] = chunkErr

			mu.Lock()
			processed++
			if chunkErr != nil {
				failed++
			}
			if processed > e.config.AbortMinChunks &&
				float64(failed)/float64(processed) > e.config.AbortFailureRate {
				abort = true
			}
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()

	for i, chunk := range chunks {
		result.Timing.ChunkDurations = append(result.Timing.ChunkDurations, durations[i])
		switch {
		case aborted[i]:
			result.Failed += len(chunk)
			result.Errors = append(result.Errors, ChunkError{
				ChunkIndex: i,
				Items:      chunk,
				Message:    "aborted: batch failure rate exceeded",
				Aborted:    true,
			})
			result.Aborted = true
		case chunkErrs[i] != nil:
			result.Failed += len(chunk)
			result.Errors = append(result.Errors, ChunkError{
				ChunkIndex: i,
				Items:      chunk,
				Err:        chunkErrs[i],
				Message:    chunkErrs[i].Error(),
			})
		default:
			result.Successful += len(chunk)
			result.Results = append(result.Results, chunkResults[i])
		}
	}

	e.reportProgress(opts.progress, result, total)
	return err
}

// runChunk executes one chunk through the recovery dispatcher.
func (e *Engine) runChunk(ctx context.Context, op Operation, chunk []any, chunkIndex, totalChunks int) (any, error) {
	rctx := &recovery.Context{
		OperationType: "batch",
		Items:         chunk,
		BatchSize:     len(chunk),
	}

	e.logger.Debug("processing chunk",
		"chunk_index", chunkIndex,
		"total_chunks", totalChunks,
		"chunk_items", len(chunk))

	if e.metrics != nil {
		e.metrics.RecordBatchChunkSize("batch", len(chunk))
	}

	return e.dispatcher.Do(ctx, func(ctx context.Context, rctx *recovery.Context) (any, error) {
		return op(ctx, rctx.Items)
	}, rctx)
}

// resize scales the chunk size by sqrt(target/actual) when the observed
// duration falls outside the tolerance band, clamped to the bounds.
func (e *Engine) resize(size int, actual time.Duration) int {
	if actual <= 0 {
		actual = time.Millisecond
	}

	target := e.config.TargetChunkDuration
	lower := float64(target) * (1 - e.config.TargetTolerance)
	upper := float64(target) * (1 + e.config.TargetTolerance)
	if float64(actual) >= lower && float64(actual) <= upper {
		return size
	}

	factor := math.Sqrt(float64(target) / float64(actual))
	next := int(float64(size) * factor)
	if next < e.config.MinChunkSize {
		next = e.config.MinChunkSize
	}
	if next > e.config.MaxChunkSize {
		next = e.config.MaxChunkSize
	}

	if next != size {
		e.logger.Debug("adaptive chunk resize",
			"from", size,
			"to", next,
			"chunk_duration", actual)
	}
	return next
}

// estimateTotal approximates the number of chunks remaining plus done,
// used only for logging and recovery context.
func (e *Engine) estimateTotal(total, offset, size, done int) int {
	remaining := total - offset
	if size <= 0 {
		return done + 1
	}
	return done + (remaining+size-1)/size
}

// markAborted records the unprocessed tail as aborted chunks so nothing
// is silently dropped.
func (e *Engine) markAborted(result *Result, remaining []any, size, startIndex int) {
	if len(remaining) == 0 {
		return
	}
	result.Aborted = true

	for i, chunk := range partition(remaining, size) {
		result.Failed += len(chunk)
		result.Errors = append(result.Errors, ChunkError{
			ChunkIndex: startIndex + i,
			Items:      chunk,
			Message:    "aborted: batch failure rate exceeded",
			Aborted:    true,
		})
	}
}

// reportProgress invokes the caller's callback, swallowing panics so a
// broken callback cannot abort the batch.
func (e *Engine) reportProgress(fn ProgressFunc, result *Result, total int) {
	if fn == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("progress callback panicked", "panic", r)
		}
	}()

	processed := result.Successful + result.Failed
	progress := Progress{
		ItemsProcessed: processed,
		TotalItems:     total,
		ElapsedTime:    time.Since(result.Timing.StartedAt),
	}
	if total > 0 {
		progress.BatchProgress = float64(processed) / float64(total) * 100
	}
	if processed > 0 {
		progress.SuccessRate = float64(result.Successful) / float64(processed)
	}

	fn(progress)
}

// History returns snapshots of recently completed batches, oldest first.
func (e *Engine) History() []Result {
	return e.history.Snapshot()
}
