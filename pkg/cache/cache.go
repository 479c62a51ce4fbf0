// Package cache provides a generic, thread-safe TTL cache with
// capacity-bounded eviction, substring invalidation, and built-in statistics.
package cache

import (
	"time"

	"github.com/Jacobolevy/smartling-mcp-server-sub002/errors"
)

// Cache represents the TTL cache interface, parameterized by value type V for
// type safety.
type Cache[V any] interface {
	// Get retrieves a value by key. Returns the value and true if present and
	// not expired; expired entries are lazily deleted on access.
	Get(key string) (V, bool)

	// Set stores a value with the default TTL. Returns true if a new entry was
	// created, false if an existing entry was replaced.
	Set(key string, value V) (bool, error)

	// SetWithTTL stores a value with a per-entry TTL overriding the default.
	SetWithTTL(key string, value V, ttl time.Duration) (bool, error)

	// Delete removes an entry by key. Returns true if the key existed.
	Delete(key string) (bool, error)

	// InvalidateMatching removes all entries whose key contains the given
	// substring and returns how many were removed. Used for namespace-style
	// invalidation (e.g. every entry belonging to one project).
	InvalidateMatching(substring string) int

	// Clear removes all entries from the cache.
	Clear() error

	// Size returns the current number of entries in the cache.
	Size() int

	// Keys returns all non-expired keys in insertion order (oldest first).
	Keys() []string

	// Stats returns cache statistics. Always non-nil.
	Stats() *Statistics

	// Close shuts down the cache and its background cleanup goroutine.
	Close() error
}

// EvictCallback is called when an entry is evicted from the cache.
// It receives the key and value of the evicted entry.
type EvictCallback[V any] func(key string, value V)

// entry is a stored cache value with its expiry metadata.
type entry[V any] struct {
	key         string
	value       V
	storedAt    time.Time
	expiresAt   time.Time
	accessCount int64
}

// isExpired checks if the entry has expired at the given instant.
func (e *entry[V]) isExpired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// validateKey validates a cache key for basic requirements.
// Returns a classified error if the key is invalid.
func validateKey(key string) error {
	if key == "" {
		return errors.Wrap(errors.ErrInvalidData, "cache", "validateKey", "empty key")
	}
	return nil
}
