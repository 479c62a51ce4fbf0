package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, config Config, options ...Option[string]) Cache[string] {
	t.Helper()
	c, err := New[string](context.Background(), config, options...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCacheSetGet(t *testing.T) {
	c := newTestCache(t, Config{MaxSize: 10, DefaultTTL: time.Minute})

	_, err := c.Set("key1", "value1")
	require.NoError(t, err)

	v, ok := c.Get("key1")
	assert.True(t, ok)
	assert.Equal(t, "value1", v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCacheEmptyKey(t *testing.T) {
	c := newTestCache(t, Config{MaxSize: 10, DefaultTTL: time.Minute})

	_, err := c.Set("", "value")
	assert.Error(t, err)

	_, ok := c.Get("")
	assert.False(t, ok)
}

func TestCacheTTLExpiration(t *testing.T) {
	c := newTestCache(t, Config{MaxSize: 10, DefaultTTL: time.Minute})

	_, err := c.SetWithTTL("key1", "value1", 20*time.Millisecond)
	require.NoError(t, err)

	v, ok := c.Get("key1")
	require.True(t, ok)
	assert.Equal(t, "value1", v)

	time.Sleep(40 * time.Millisecond)

	_, ok = c.Get("key1")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
}

func TestCacheEvictsOldestInsertion(t *testing.T) {
	c := newTestCache(t, Config{MaxSize: 2, DefaultTTL: time.Minute})

	_, err := c.Set("a", "1")
	require.NoError(t, err)
	_, err = c.Set("b", "2")
	require.NoError(t, err)

	// Reading "a" must not protect it: eviction is by insertion order,
	// not access order.
	_, ok := c.Get("a")
	require.True(t, ok)

	_, err = c.Set("c", "3")
	require.NoError(t, err)

	_, ok = c.Get("a")
	assert.False(t, ok, "oldest insertion should be evicted")
	_, ok = c.Get("b")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Size())
}

func TestCacheEvictsExactlyOne(t *testing.T) {
	c := newTestCache(t, Config{MaxSize: 3, DefaultTTL: time.Minute})

	for _, k := range []string{"a", "b", "c"} {
		_, err := c.Set(k, k)
		require.NoError(t, err)
	}

	_, err := c.Set("d", "d")
	require.NoError(t, err)

	assert.Equal(t, 3, c.Size())
	assert.Equal(t, []string{"b", "c", "d"}, c.Keys())
}

func TestCacheOverwriteKeepsPosition(t *testing.T) {
	c := newTestCache(t, Config{MaxSize: 2, DefaultTTL: time.Minute})

	_, err := c.Set("a", "1")
	require.NoError(t, err)
	_, err = c.Set("b", "2")
	require.NoError(t, err)

	// Overwriting "a" must not move it to the back of the eviction order
	// and must not trigger an eviction.
	_, err = c.Set("a", "updated")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Size())

	_, err = c.Set("c", "3")
	require.NoError(t, err)

	_, ok := c.Get("a")
	assert.False(t, ok, "a is still the oldest insertion")
	_, ok = c.Get("b")
	assert.True(t, ok)
}

func TestCacheDelete(t *testing.T) {
	c := newTestCache(t, Config{MaxSize: 10, DefaultTTL: time.Minute})

	_, err := c.Set("key1", "value1")
	require.NoError(t, err)

	removed, err := c.Delete("key1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = c.Delete("key1")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestCacheInvalidateMatching(t *testing.T) {
	c := newTestCache(t, Config{MaxSize: 10, DefaultTTL: time.Minute})

	for _, k := range []string{"p1:files", "p1:jobs", "p2:files"} {
		_, err := c.Set(k, "v")
		require.NoError(t, err)
	}

	n := c.InvalidateMatching("p1")
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, c.Size())

	_, ok := c.Get("p2:files")
	assert.True(t, ok)
}

func TestCacheClear(t *testing.T) {
	c := newTestCache(t, Config{MaxSize: 10, DefaultTTL: time.Minute})

	_, err := c.Set("key1", "value1")
	require.NoError(t, err)
	_, err = c.Set("key2", "value2")
	require.NoError(t, err)

	require.NoError(t, c.Clear())
	assert.Equal(t, 0, c.Size())
	assert.Empty(t, c.Keys())
}

func TestCacheKeysInsertionOrder(t *testing.T) {
	c := newTestCache(t, Config{MaxSize: 10, DefaultTTL: time.Minute})

	for _, k := range []string{"z", "a", "m"} {
		_, err := c.Set(k, k)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"z", "a", "m"}, c.Keys())
}

func TestCacheBackgroundCleanup(t *testing.T) {
	c := newTestCache(t, Config{
		MaxSize:         10,
		DefaultTTL:      10 * time.Millisecond,
		CleanupInterval: 20 * time.Millisecond,
	})

	_, err := c.Set("key1", "value1")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return c.Size() == 0
	}, time.Second, 10*time.Millisecond, "sweep should remove expired entry")
}

func TestCacheEvictionCallback(t *testing.T) {
	evicted := make(chan string, 1)
	c := newTestCache(t, Config{MaxSize: 1, DefaultTTL: time.Minute},
		WithEvictionCallback[string](func(key string, _ string) {
			evicted <- key
		}))

	_, err := c.Set("a", "1")
	require.NoError(t, err)
	_, err = c.Set("b", "2")
	require.NoError(t, err)

	select {
	case key := <-evicted:
		assert.Equal(t, "a", key)
	case <-time.After(time.Second):
		t.Fatal("eviction callback not invoked")
	}
}

func TestCacheStats(t *testing.T) {
	c := newTestCache(t, Config{MaxSize: 10, DefaultTTL: time.Minute})

	_, err := c.Set("key1", "value1")
	require.NoError(t, err)

	c.Get("key1")
	c.Get("missing")

	stats := c.Stats()
	summary := stats.Summary()
	assert.Equal(t, int64(1), summary.Hits)
	assert.Equal(t, int64(1), summary.Misses)
	assert.Equal(t, int64(1), summary.Sets)
	assert.InDelta(t, 0.5, summary.HitRatio, 0.001)
}

func TestCacheInvalidConfig(t *testing.T) {
	_, err := New[string](context.Background(), Config{DefaultTTL: -time.Second})
	assert.Error(t, err)
}

func TestCacheClosedOperations(t *testing.T) {
	c, err := New[string](context.Background(), Config{MaxSize: 10, DefaultTTL: time.Minute})
	require.NoError(t, err)
	require.NoError(t, c.Close())

	_, err = c.Set("key1", "value1")
	assert.Error(t, err)
}
