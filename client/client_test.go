package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jacobolevy/smartling-mcp-server-sub002/analytics"
	"github.com/Jacobolevy/smartling-mcp-server-sub002/errors"
	"github.com/Jacobolevy/smartling-mcp-server-sub002/recovery"
)

// fastDispatcher removes real backoff delays from recovery.
func fastDispatcher() *recovery.Dispatcher {
	fast := recovery.Strategy{MaxRetries: 5, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	return recovery.NewDispatcher(
		recovery.WithStrategy(errors.KindRateLimit, fast),
		recovery.WithStrategy(errors.KindServerError, recovery.Strategy{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}),
		recovery.WithStrategy(errors.KindNetworkError, recovery.Strategy{MaxRetries: 1, BaseDelay: time.Millisecond}),
		recovery.WithStrategy(errors.KindUnknown, recovery.Strategy{MaxRetries: 1, BaseDelay: time.Millisecond}),
	)
}

func newTestClient(t *testing.T, serverURL string, mutate func(*Config)) *Client {
	t.Helper()

	cfg := Config{
		BaseURL:  serverURL,
		Timeout:  5 * time.Second,
		CacheTTL: time.Minute,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	c, err := New(context.Background(), cfg, WithDispatcher(fastDispatcher()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClientGetServesFromCache(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt64(&calls, 1)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, nil)

	first, err := c.Get(context.Background(), "/projects/p1/files", nil)
	require.NoError(t, err)
	second, err := c.Get(context.Background(), "/projects/p1/files", nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
	assert.Equal(t, int64(1), c.CacheStats().Summary().Hits)
}

func TestClientInvalidateNamespace(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt64(&calls, 1)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, nil)
	ctx := context.Background()

	_, err := c.Get(ctx, "/projects/p1/files", nil)
	require.NoError(t, err)
	_, err = c.Get(ctx, "/projects/p2/files", nil)
	require.NoError(t, err)

	removed := c.InvalidateNamespace("p1")
	assert.Equal(t, 1, removed)

	// p1 refetches, p2 still cached
	_, err = c.Get(ctx, "/projects/p1/files", nil)
	require.NoError(t, err)
	_, err = c.Get(ctx, "/projects/p2/files", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), atomic.LoadInt64(&calls))
}

func TestClientRecoveryFrom429(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := atomic.AddInt64(&calls, 1)
		if n <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("too many requests"))
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, func(cfg *Config) { cfg.CacheTTL = 0 })

	body, err := c.Get(context.Background(), "/files", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int64(3), atomic.LoadInt64(&calls))
}

func TestClientRecoveryFrom500(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt64(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, func(cfg *Config) { cfg.CacheTTL = 0 })

	body, err := c.Get(context.Background(), "/files", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	// the retry ran through the circuit breaker
	assert.Positive(t, c.BreakerStatus().Allowed)
}

func TestClientExhaustsRecovery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, func(cfg *Config) { cfg.CacheTTL = 0 })

	_, err := c.Get(context.Background(), "/files", nil)
	require.Error(t, err)

	var exhausted *errors.RecoveryExhaustedError
	assert.ErrorAs(t, err, &exhausted)
	assert.Equal(t, errors.KindServerError, exhausted.Kind)
}

func TestClientReauthenticatesOn401(t *testing.T) {
	var authCalls, apiCalls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == authPath {
			atomic.AddInt64(&authCalls, 1)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"response": map[string]any{
					"data": map[string]any{"accessToken": "fresh-token"},
				},
			})
			return
		}

		atomic.AddInt64(&apiCalls, 1)
		if r.Header.Get("Authorization") != "Bearer fresh-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, func(cfg *Config) {
		cfg.CacheTTL = 0
		cfg.UserIdentifier = "user"
		cfg.UserSecret = "secret"
	})

	body, err := c.Get(context.Background(), "/files", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int64(1), atomic.LoadInt64(&authCalls))
	assert.Equal(t, int64(2), atomic.LoadInt64(&apiCalls))
}

func TestClientPostBypassesCache(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte("created"))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, nil)
	ctx := context.Background()

	_, err := c.Post(ctx, "/files", map[string]string{"name": "a"})
	require.NoError(t, err)
	_, err = c.Post(ctx, "/files", map[string]string{"name": "a"})
	require.NoError(t, err)

	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
}

func TestClientDeduplicatesConcurrentGets(t *testing.T) {
	var calls int64
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt64(&calls, 1)
		<-release
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	// cache disabled so coalescing is attributable to the deduplicator
	c := newTestClient(t, server.URL, func(cfg *Config) { cfg.CacheTTL = 0 })

	var wg sync.WaitGroup
	results := make([][]byte, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			body, err := c.Get(context.Background(), "/slow", nil)
			assert.NoError(t, err)
			results[n] = body
		}(i)
	}

	// let all goroutines reach the deduplicator before releasing
	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&calls) == 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
	for _, body := range results {
		assert.Equal(t, "ok", string(body))
	}
}

func TestClientRecordsAnalytics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	recorder, err := analytics.NewRecorder(analytics.DefaultConfig())
	require.NoError(t, err)

	cfg := Config{BaseURL: server.URL, Timeout: 5 * time.Second}
	c, err := New(context.Background(), cfg,
		WithDispatcher(fastDispatcher()),
		WithRecorder(recorder))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	_, err = c.Get(context.Background(), "/files", nil)
	require.NoError(t, err)

	stats, exists := recorder.StatsFor("GET /files")
	require.True(t, exists)
	assert.Equal(t, 1, stats.Count)
	assert.Equal(t, 1.0, stats.SuccessRate)
}

func TestClientInvalidConfig(t *testing.T) {
	_, err := New(context.Background(), Config{Timeout: -time.Second})
	assert.Error(t, err)
}

func TestRequestKey(t *testing.T) {
	plain := requestKey(http.MethodGet, "/files", nil)
	assert.Equal(t, "GET /files", plain)

	a := requestKey(http.MethodGet, "/files", map[string]string{"b": "2", "a": "1"})
	b := requestKey(http.MethodGet, "/files", map[string]string{"a": "1", "b": "2"})
	assert.Equal(t, a, b, "query parameter order must not change the key")
	assert.Equal(t, "GET /files?a=1&b=2", a)
}
