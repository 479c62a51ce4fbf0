package rolling

import "sync"

// Ring is a thread-safe fixed-capacity ring that overwrites the oldest
// element once full. It backs the outcome windows used for failure-rate
// and latency tracking.
type Ring[T any] struct {
	mu       sync.RWMutex
	items    []T
	capacity int
	size     int
	head     int // next write position
	tail     int // oldest element
}

// NewRing creates a ring with the given capacity. Capacity below one is
// raised to one.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring[T]{
		items:    make([]T, capacity),
		capacity: capacity,
	}
}

// Push appends an item, overwriting the oldest when full. Returns the
// displaced item and true if an overwrite happened.
func (r *Ring[T]) Push(item T) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var displaced T
	overwrote := false

	if r.size == r.capacity {
		displaced = r.items[r.tail]
		r.tail = (r.tail + 1) % r.capacity
		r.size--
		overwrote = true
	}

	r.items[r.head] = item
	r.head = (r.head + 1) % r.capacity
	r.size++

	return displaced, overwrote
}

// Snapshot returns the elements in insertion order, oldest first.
func (r *Ring[T]) Snapshot() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]T, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.items[(r.tail+i)%r.capacity]
	}
	return out
}

// Each calls fn for every element, oldest first, under the read lock.
// fn must not call back into the ring.
func (r *Ring[T]) Each(fn func(T)) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := 0; i < r.size; i++ {
		fn(r.items[(r.tail+i)%r.capacity])
	}
}

// Len returns the current number of elements.
func (r *Ring[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// Cap returns the fixed capacity.
func (r *Ring[T]) Cap() int {
	return r.capacity
}

// Clear removes all elements.
func (r *Ring[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	var zero T
	for i := range r.items {
		r.items[i] = zero
	}
	r.head = 0
	r.tail = 0
	r.size = 0
}
