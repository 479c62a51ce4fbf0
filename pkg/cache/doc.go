// Package cache provides a thread-safe, generic in-memory cache with
// per-entry TTL expiration and capacity-bounded eviction.
//
// Entries are evicted in insertion order: when the cache is full and a
// new key arrives, the entry that has lived in the cache the longest is
// removed, regardless of how recently it was read. Overwriting an
// existing key keeps its position in the eviction order.
//
// Expired entries are removed lazily on read and by a background sweep
// that runs every CleanupInterval. Statistics are always collected;
// Prometheus metrics are opt-in via WithMetrics.
//
// Basic usage:
//
//	c, err := cache.New[string](ctx, cache.Config{
//		MaxSize:    500,
//		DefaultTTL: 5 * time.Minute,
//	})
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//
//	c.Set("projects:abc", payload)
//	if v, ok := c.Get("projects:abc"); ok {
//		use(v)
//	}
//
// Invalidation by key fragment is supported for write-through flows:
//
//	c.InvalidateMatching("projects:abc") // drop everything for one project
package cache
