package recovery

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jacobolevy/smartling-mcp-server-sub002/breaker"
	"github.com/Jacobolevy/smartling-mcp-server-sub002/errors"
)

// fastStrategies removes real delays so tests run quickly.
func fastDispatcher(options ...DispatcherOption) *Dispatcher {
	base := []DispatcherOption{
		WithStrategy(errors.KindRateLimit, Strategy{MaxRetries: 5, BaseDelay: time.Millisecond}),
		WithStrategy(errors.KindTimeout, Strategy{MaxRetries: 3, BaseDelay: time.Millisecond, LoadReduction: 0.5}),
		WithStrategy(errors.KindServerError, Strategy{MaxRetries: 3, BaseDelay: time.Millisecond}),
		WithStrategy(errors.KindNetworkError, Strategy{MaxRetries: 3, BaseDelay: time.Millisecond}),
		WithStrategy(errors.KindUnknown, Strategy{MaxRetries: 1, BaseDelay: time.Millisecond}),
		WithStrategy(errors.KindPayloadTooLarge, Strategy{MaxRetries: 4, BaseDelay: time.Millisecond}),
	}
	return NewDispatcher(append(base, options...)...)
}

func TestRecoverySuccessWithoutRecovery(t *testing.T) {
	d := fastDispatcher()

	result, err := d.Do(context.Background(), func(_ context.Context, _ *Context) (any, error) {
		return "ok", nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestRecoveryRateLimitRetries(t *testing.T) {
	d := fastDispatcher()

	calls := 0
	result, err := d.Do(context.Background(), func(_ context.Context, _ *Context) (any, error) {
		calls++
		if calls <= 2 {
			return nil, &errors.HTTPError{StatusCode: 429, Message: "too many requests"}
		}
		return "recovered", nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "recovered", result)
	assert.Equal(t, 3, calls, "fails twice then succeeds on the third call")
	assert.Equal(t, int64(1), d.Stats().RecoveredCount())
}

func TestRecoveryExhaustion(t *testing.T) {
	d := fastDispatcher(
		WithStrategy(errors.KindRateLimit, Strategy{MaxRetries: 2, BaseDelay: time.Millisecond}))

	calls := 0
	_, err := d.Do(context.Background(), func(_ context.Context, _ *Context) (any, error) {
		calls++
		return nil, &errors.HTTPError{StatusCode: 429, Message: "too many requests"}
	}, nil)

	require.Error(t, err)

	var exhausted *errors.RecoveryExhaustedError
	require.True(t, stderrors.As(err, &exhausted))
	assert.Equal(t, errors.KindRateLimit, exhausted.Kind)
	assert.Equal(t, 2, exhausted.Attempts)
	assert.True(t, stderrors.Is(err, errors.ErrMaxRetriesExceeded))
	assert.Equal(t, 3, calls, "initial call plus two retries")
}

func TestRecoveryHighPriorityRaisesBudget(t *testing.T) {
	d := fastDispatcher(
		WithStrategy(errors.KindRateLimit, Strategy{MaxRetries: 1, BaseDelay: time.Millisecond}))

	calls := 0
	op := func(_ context.Context, _ *Context) (any, error) {
		calls++
		if calls <= 3 {
			return nil, &errors.HTTPError{StatusCode: 429, Message: "too many requests"}
		}
		return "ok", nil
	}

	// budget 1 + 2 for high priority covers three failures
	result, err := d.Do(context.Background(), op, &Context{Priority: "high"})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestRecoveryAuthErrorReauthenticates(t *testing.T) {
	d := fastDispatcher()

	authenticated := false
	calls := 0
	result, err := d.Do(context.Background(), func(_ context.Context, _ *Context) (any, error) {
		calls++
		if !authenticated {
			return nil, &errors.HTTPError{StatusCode: 401, Message: "unauthorized"}
		}
		return "authorized", nil
	}, &Context{
		Authenticate: func(_ context.Context) error {
			authenticated = true
			return nil
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "authorized", result)
	assert.Equal(t, 2, calls)
}

func TestRecoveryAuthErrorWithoutAuthenticator(t *testing.T) {
	d := fastDispatcher()

	cause := &errors.HTTPError{StatusCode: 403, Message: "forbidden"}
	_, err := d.Do(context.Background(), func(_ context.Context, _ *Context) (any, error) {
		return nil, cause
	}, nil)

	require.Error(t, err)
	assert.True(t, stderrors.Is(err, cause))
}

func TestRecoveryAuthErrorSingleCycle(t *testing.T) {
	d := fastDispatcher()

	authCalls := 0
	_, err := d.Do(context.Background(), func(_ context.Context, _ *Context) (any, error) {
		return nil, &errors.HTTPError{StatusCode: 401, Message: "unauthorized"}
	}, &Context{
		Authenticate: func(_ context.Context) error {
			authCalls++
			return nil
		},
	})

	require.Error(t, err)
	assert.Equal(t, 1, authCalls, "only one re-auth cycle allowed")
}

func TestRecoverySplitAndMerge(t *testing.T) {
	d := fastDispatcher()

	items := make([]any, 10)
	for i := range items {
		items[i] = i
	}

	var invocationSizes []int
	op := func(_ context.Context, rctx *Context) (any, error) {
		invocationSizes = append(invocationSizes, len(rctx.Items))
		if len(rctx.Items) > 5 {
			return nil, &errors.HTTPError{StatusCode: 413, Message: "payload too large"}
		}
		out := make([]any, len(rctx.Items))
		copy(out, rctx.Items)
		return out, nil
	}

	result, err := d.Do(context.Background(), op, &Context{Items: items})
	require.NoError(t, err)

	merged, ok := result.([]any)
	require.True(t, ok)
	assert.Len(t, merged, 10, "merged result covers every item")

	// First invocation sees all 10, then two halves of 5
	require.GreaterOrEqual(t, len(invocationSizes), 3)
	assert.Equal(t, 10, invocationSizes[0])
	assert.Equal(t, 5, invocationSizes[1])
	assert.Equal(t, 5, invocationSizes[2])
}

func TestRecoverySplitRecursive(t *testing.T) {
	d := fastDispatcher()

	items := []any{"a", "b", "c", "d"}
	op := func(_ context.Context, rctx *Context) (any, error) {
		if len(rctx.Items) > 1 {
			return nil, &errors.HTTPError{StatusCode: 413, Message: "payload too large"}
		}
		return []any{rctx.Items[0]}, nil
	}

	result, err := d.Do(context.Background(), op, &Context{Items: items})
	require.NoError(t, err)

	merged, ok := result.([]any)
	require.True(t, ok)
	assert.Equal(t, []any{"a", "b", "c", "d"}, merged)
}

func TestRecoverySingleItemTooLarge(t *testing.T) {
	d := fastDispatcher()

	_, err := d.Do(context.Background(), func(_ context.Context, _ *Context) (any, error) {
		return nil, &errors.HTTPError{StatusCode: 413, Message: "payload too large"}
	}, &Context{Items: []any{"huge"}})

	require.Error(t, err)

	var exhausted *errors.RecoveryExhaustedError
	require.True(t, stderrors.As(err, &exhausted))
	assert.Equal(t, errors.KindPayloadTooLarge, exhausted.Kind)
}

func TestRecoveryTimeoutReducesLoad(t *testing.T) {
	d := fastDispatcher()

	var batchSizes []int
	calls := 0
	_, err := d.Do(context.Background(), func(_ context.Context, rctx *Context) (any, error) {
		calls++
		batchSizes = append(batchSizes, rctx.BatchSize)
		if calls == 1 {
			return nil, &errors.HTTPError{StatusCode: 408, Message: "request timeout"}
		}
		return "ok", nil
	}, &Context{OperationType: "batch", BatchSize: 100})

	require.NoError(t, err)
	require.Len(t, batchSizes, 2)
	assert.Equal(t, 100, batchSizes[0])
	assert.Equal(t, 50, batchSizes[1], "timeout retry sheds half the load")
}

func TestRecoveryServerErrorThroughBreaker(t *testing.T) {
	b, err := breaker.New("api", breaker.Config{
		FailureThreshold:  10,
		HalfOpenSuccesses: 3,
		RecoveryTime:      time.Minute,
		AdaptiveThreshold: false,
	})
	require.NoError(t, err)

	d := fastDispatcher()

	calls := 0
	result, doErr := d.Do(context.Background(), func(_ context.Context, _ *Context) (any, error) {
		calls++
		if calls == 1 {
			return nil, &errors.HTTPError{StatusCode: 500, Message: "internal error"}
		}
		return "ok", nil
	}, &Context{Breaker: b})

	require.NoError(t, doErr)
	assert.Equal(t, "ok", result)
	assert.Greater(t, b.Stats().AllowedCount(), int64(0),
		"server error retry should route through the breaker")
}

func TestRecoveryContextCancellation(t *testing.T) {
	d := NewDispatcher(
		WithStrategy(errors.KindRateLimit, Strategy{MaxRetries: 5, BaseDelay: time.Minute}))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := d.Do(ctx, func(_ context.Context, _ *Context) (any, error) {
		return nil, &errors.HTTPError{StatusCode: 429, Message: "too many requests"}
	}, nil)

	require.Error(t, err)
	assert.True(t, stderrors.Is(err, context.Canceled))
}

func TestRecoveryStats(t *testing.T) {
	d := fastDispatcher()

	calls := 0
	_, err := d.Do(context.Background(), func(_ context.Context, _ *Context) (any, error) {
		calls++
		if calls == 1 {
			return nil, &errors.HTTPError{StatusCode: 500, Message: "boom"}
		}
		return "ok", nil
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(1), d.Stats().RecoveredCount())
	attempts := d.Stats().AttemptsByKind()
	assert.Equal(t, int64(1), attempts["server_error"])
}

func TestMergeResults(t *testing.T) {
	t.Run("slices concatenate", func(t *testing.T) {
		merged := mergeResults([]any{1, 2}, []any{3})
		assert.Equal(t, []any{1, 2, 3}, merged)
	})

	t.Run("typed slices concatenate", func(t *testing.T) {
		merged := mergeResults([]string{"a"}, []string{"b", "c"})
		assert.Equal(t, []string{"a", "b", "c"}, merged)
	})

	t.Run("maps deep merge", func(t *testing.T) {
		first := map[string]any{
			"items": []any{1},
			"count": 1,
			"meta":  map[string]any{"page": 1, "source": "first"},
		}
		second := map[string]any{
			"items": []any{2},
			"count": 2,
			"meta":  map[string]any{"page": 2},
		}

		merged, ok := mergeResults(first, second).(map[string]any)
		require.True(t, ok)
		assert.Equal(t, []any{1, 2}, merged["items"], "inner slices concatenate")
		assert.Equal(t, 2, merged["count"], "later scalar wins")

		meta, ok := merged["meta"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, 2, meta["page"])
		assert.Equal(t, "first", meta["source"], "missing keys survive the merge")
	})

	t.Run("nil operands", func(t *testing.T) {
		assert.Equal(t, "x", mergeResults(nil, "x"))
		assert.Equal(t, "x", mergeResults("x", nil))
	})

	t.Run("scalar conflict", func(t *testing.T) {
		assert.Equal(t, "second", mergeResults("first", "second"))
	})
}
