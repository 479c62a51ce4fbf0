package cache

import (
	"container/list"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Jacobolevy/smartling-mcp-server-sub002/errors"
)

// store is a thread-safe TTL cache with capacity-bounded eviction.
//
// Eviction is insertion-order based: when the cache is at capacity, the
// single oldest-by-insertion entry is removed before the new one is added.
// Get does not reorder entries. This deliberately reproduces the observed
// behavior of the system this cache was extracted from; see the package
// documentation for the tradeoff against access-order LRU.
type store[V any] struct {
	mu              sync.RWMutex
	maxSize         int
	defaultTTL      time.Duration
	cleanupInterval time.Duration
	items           map[string]*list.Element // key -> list element
	order           *list.List               // insertion order, oldest at front
	stats           *Statistics              // always initialized
	metrics         *cacheMetrics            // optional, if metrics enabled
	evictFn         EvictCallback[V]         // optional callback

	// Background cleanup coordination
	shutdown chan struct{}
	done     chan struct{}
	closed   bool
}

// New creates a TTL cache from the given configuration. The context bounds
// the background cleanup goroutine's lifetime; Close stops it as well.
// Stats are always enabled. Use WithMetrics() to also export Prometheus metrics.
func New[V any](ctx context.Context, config Config, options ...Option[V]) (Cache[V], error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "cache", "New", "config validation")
	}
	config = config.withDefaults()
	opts := applyOptions(options...)

	var metrics *cacheMetrics
	if opts.metricsReg != nil && opts.metricsPrefix != "" {
		var err error
		metrics, err = newCacheMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, errors.Wrap(err, "cache", "New", "metrics registration")
		}
	}

	c := &store[V]{
		maxSize:         config.MaxSize,
		defaultTTL:      config.DefaultTTL,
		cleanupInterval: config.CleanupInterval,
		items:           make(map[string]*list.Element),
		order:           list.New(),
		stats:           NewStatistics(),
		metrics:         metrics,
		evictFn:         opts.evictCallback,
		shutdown:        make(chan struct{}),
		done:            make(chan struct{}),
	}

	go c.cleanup(ctx)

	return c, nil
}

// Get retrieves a value by key, lazily deleting it when expired.
func (c *store[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, exists := c.items[key]
	if !exists {
		var zero V
		c.recordMiss()
		return zero, false
	}

	e := element.Value.(*entry[V])
	if e.isExpired(time.Now()) {
		c.removeElementLocked(element)
		c.recordEviction()
		c.recordMiss()
		c.updateSizeLocked()
		var zero V
		return zero, false
	}

	e.accessCount++
	c.recordHit()
	return e.value, true
}

// Set stores a value with the default TTL.
func (c *store[V]) Set(key string, value V) (bool, error) {
	return c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores a value with a per-entry TTL. When the cache is at
// capacity and the key is new, the oldest-by-insertion entry is evicted first.
func (c *store[V]) SetWithTTL(key string, value V, ttl time.Duration) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	now := time.Now()
	var evicted *entry[V]

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false, errors.Wrap(errors.ErrResourceExhausted, "cache", "SetWithTTL", "cache is closed")
	}
	if element, exists := c.items[key]; exists {
		// Replace in place; insertion position is kept
		e := element.Value.(*entry[V])
		e.value = value
		e.storedAt = now
		e.expiresAt = now.Add(ttl)
		c.recordSet()
		c.mu.Unlock()
		return false, nil
	}

	if len(c.items) >= c.maxSize {
		if oldest := c.order.Front(); oldest != nil {
			evicted = oldest.Value.(*entry[V])
			c.removeElementLocked(oldest)
			c.recordEviction()
		}
	}

	e := &entry[V]{key: key, value: value, storedAt: now, expiresAt: now.Add(ttl)}
	c.items[key] = c.order.PushBack(e)
	c.recordSet()
	c.updateSizeLocked()
	c.mu.Unlock()

	// Eviction callback runs outside the lock to prevent deadlock
	if evicted != nil && c.evictFn != nil {
		c.evictFn(evicted.key, evicted.value)
	}

	return true, nil
}

// Delete removes an entry by key.
func (c *store[V]) Delete(key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	var removed *entry[V]

	c.mu.Lock()
	element, exists := c.items[key]
	if exists {
		removed = element.Value.(*entry[V])
		c.removeElementLocked(element)
		c.stats.Delete()
		if c.metrics != nil {
			c.metrics.recordDelete()
		}
		c.updateSizeLocked()
	}
	c.mu.Unlock()

	if removed != nil && c.evictFn != nil {
		c.evictFn(removed.key, removed.value)
	}

	return exists, nil
}

// InvalidateMatching removes all entries whose key contains the substring.
func (c *store[V]) InvalidateMatching(substring string) int {
	var removed []*entry[V]

	c.mu.Lock()
	for key, element := range c.items {
		if strings.Contains(key, substring) {
			removed = append(removed, element.Value.(*entry[V]))
			c.removeElementLocked(element)
			c.stats.Delete()
			if c.metrics != nil {
				c.metrics.recordDelete()
			}
		}
	}
	c.updateSizeLocked()
	c.mu.Unlock()

	if c.evictFn != nil {
		for _, e := range removed {
			c.evictFn(e.key, e.value)
		}
	}

	return len(removed)
}

// Clear removes all entries from the cache.
func (c *store[V]) Clear() error {
	var cleared []*entry[V]

	c.mu.Lock()
	if c.evictFn != nil {
		cleared = make([]*entry[V], 0, len(c.items))
		for element := c.order.Front(); element != nil; element = element.Next() {
			cleared = append(cleared, element.Value.(*entry[V]))
		}
	}
	c.items = make(map[string]*list.Element)
	c.order.Init()
	c.updateSizeLocked()
	c.mu.Unlock()

	for _, e := range cleared {
		c.evictFn(e.key, e.value)
	}

	return nil
}

// Size returns the current number of entries in the cache.
func (c *store[V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Keys returns all non-expired keys in insertion order (oldest first).
// Some returned keys may expire before they are used.
func (c *store[V]) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := time.Now()
	keys := make([]string, 0, len(c.items))
	for element := c.order.Front(); element != nil; element = element.Next() {
		e := element.Value.(*entry[V])
		if !e.isExpired(now) {
			keys = append(keys, e.key)
		}
	}
	return keys
}

// Stats returns cache statistics.
func (c *store[V]) Stats() *Statistics {
	return c.stats
}

// Close shuts down the cache and stops the background cleanup goroutine.
func (c *store[V]) Close() error {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.shutdown)
	}
	c.mu.Unlock()

	select {
	case <-c.done:
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout waiting for cleanup goroutine to finish")
	}
}

// cleanup runs in a background goroutine and periodically removes expired entries.
func (c *store[V]) cleanup(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.shutdown:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

// removeExpired removes all expired entries from the cache.
func (c *store[V]) removeExpired() {
	now := time.Now()
	var expired []*entry[V]

	c.mu.Lock()
	for element := c.order.Front(); element != nil; {
		next := element.Next()
		e := element.Value.(*entry[V])
		if e.isExpired(now) {
			expired = append(expired, e)
			c.removeElementLocked(element)
			c.recordEviction()
		}
		element = next
	}
	c.updateSizeLocked()
	c.mu.Unlock()

	if c.evictFn != nil {
		for _, e := range expired {
			c.evictFn(e.key, e.value)
		}
	}
}

// removeElementLocked removes an element from both the list and map.
// Must be called with the mutex held. Does NOT call the eviction callback.
func (c *store[V]) removeElementLocked(element *list.Element) {
	e := element.Value.(*entry[V])
	delete(c.items, e.key)
	c.order.Remove(element)
}

func (c *store[V]) recordHit() {
	c.stats.Hit()
	if c.metrics != nil {
		c.metrics.recordHit()
	}
}

func (c *store[V]) recordMiss() {
	c.stats.Miss()
	if c.metrics != nil {
		c.metrics.recordMiss()
	}
}

func (c *store[V]) recordSet() {
	c.stats.Set()
	if c.metrics != nil {
		c.metrics.recordSet()
	}
}

func (c *store[V]) recordEviction() {
	c.stats.Eviction()
	if c.metrics != nil {
		c.metrics.recordEviction()
	}
}

// updateSizeLocked pushes the current size into stats and metrics.
// Must be called with the mutex held.
func (c *store[V]) updateSizeLocked() {
	size := len(c.items)
	c.stats.UpdateSize(int64(size))
	if c.metrics != nil {
		c.metrics.updateSize(size)
	}
}
