package dedup

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Jacobolevy/smartling-mcp-server-sub002/errors"
)

// Deduplicator coalesces concurrent calls that share a key into a single
// execution and replays settled results for a short grace window.
//
// The first caller for a key executes the function; every caller that
// arrives while that execution is in flight blocks and receives the same
// result. After the execution settles, the result stays replayable for
// GraceTTL so immediate duplicates (double-clicks, racing retries) are
// served without re-executing.
type Deduplicator[V any] struct {
	group    singleflight.Group
	mu       sync.RWMutex
	settled  map[string]*settledResult[V]
	graceTTL time.Duration
	stats    *Statistics
	shutdown chan struct{}
	done     chan struct{}
	closed   bool
}

// settledResult is a completed execution kept for the grace window.
type settledResult[V any] struct {
	value     V
	err       error
	settledAt time.Time
}

func (r *settledResult[V]) expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(r.settledAt) > ttl
}

// Config holds deduplicator configuration.
type Config struct {
	// GraceTTL is how long settled results remain replayable. Zero
	// disables replay; coalescing of in-flight calls still applies.
	GraceTTL time.Duration `json:"graceTTL"`

	// SweepInterval controls how often expired settled results are
	// removed. Zero selects GraceTTL, or a minimum of one second.
	SweepInterval time.Duration `json:"sweepInterval"`
}

// DefaultConfig returns a deduplicator configuration with a short replay
// window suited to API request coalescing.
func DefaultConfig() Config {
	return Config{
		GraceTTL:      2 * time.Second,
		SweepInterval: 5 * time.Second,
	}
}

// New creates a deduplicator. The context bounds the background sweep
// goroutine; cancelling it is equivalent to Close.
func New[V any](ctx context.Context, config Config) *Deduplicator[V] {
	sweep := config.SweepInterval
	if sweep <= 0 {
		sweep = config.GraceTTL
	}
	if sweep <= 0 {
		sweep = time.Second
	}

	d := &Deduplicator[V]{
		settled:  make(map[string]*settledResult[V]),
		graceTTL: config.GraceTTL,
		stats:    NewStatistics(),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}

	go d.sweepLoop(ctx, sweep)

	return d
}

// Do executes fn exactly once per key per in-flight window. The returned
// shared flag reports whether this caller received a coalesced or
// replayed result instead of executing fn itself. Errors received
// without executing are wrapped in DeduplicationPropagatedError.
func (d *Deduplicator[V]) Do(ctx context.Context, key string, fn func(ctx context.Context) (V, error)) (V, bool, error) {
	var zero V

	if key == "" {
		return zero, false, errors.Wrap(errors.ErrInvalidData, "dedup", "Do", "empty key")
	}

	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		return zero, false, errors.Wrap(errors.ErrDedupClosed, "dedup", "Do", "deduplicate")
	}
	if d.graceTTL > 0 {
		if r, ok := d.settled[key]; ok && !r.expired(time.Now(), d.graceTTL) {
			d.mu.RUnlock()
			d.stats.Replay()
			if r.err != nil {
				return zero, true, &errors.DeduplicationPropagatedError{Key: key, Err: r.err}
			}
			return r.value, true, nil
		}
	}
	d.mu.RUnlock()

	executed := false
	v, err, _ := d.group.Do(key, func() (any, error) {
		executed = true
		d.stats.Execution()

		value, fnErr := fn(ctx)
		if d.graceTTL > 0 {
			d.mu.Lock()
			if !d.closed {
				d.settled[key] = &settledResult[V]{value: value, err: fnErr, settledAt: time.Now()}
			}
			d.mu.Unlock()
		}
		return value, fnErr
	})

	if !executed {
		d.stats.Coalesced()
	}

	if err != nil {
		if executed {
			return zero, false, err
		}
		return zero, true, &errors.DeduplicationPropagatedError{Key: key, Err: err}
	}

	value, ok := v.(V)
	if !ok {
		return zero, !executed, errors.Wrap(errors.ErrInvalidData, "dedup", "Do", "result type assertion")
	}
	return value, !executed, nil
}

// Forget drops any settled result for key and detaches in-flight callers
// from future arrivals, forcing the next Do to execute.
func (d *Deduplicator[V]) Forget(key string) {
	d.group.Forget(key)

	d.mu.Lock()
	delete(d.settled, key)
	d.mu.Unlock()
}

// Pending returns the number of settled results currently held.
func (d *Deduplicator[V]) Pending() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.settled)
}

// Stats returns deduplication statistics (always available).
func (d *Deduplicator[V]) Stats() *Statistics {
	return d.stats
}

// Close stops the sweep goroutine and rejects further calls.
func (d *Deduplicator[V]) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.settled = make(map[string]*settledResult[V])
	d.mu.Unlock()

	close(d.shutdown)

	select {
	case <-d.done:
	case <-time.After(5 * time.Second):
	}

	return nil
}

// sweepLoop removes expired settled results until shutdown.
func (d *Deduplicator[V]) sweepLoop(ctx context.Context, interval time.Duration) {
	defer close(d.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.removeExpired()
		case <-ctx.Done():
			return
		case <-d.shutdown:
			return
		}
	}
}

func (d *Deduplicator[V]) removeExpired() {
	if d.graceTTL <= 0 {
		return
	}

	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	for key, r := range d.settled {
		if r.expired(now, d.graceTTL) {
			delete(d.settled, key)
		}
	}
}
