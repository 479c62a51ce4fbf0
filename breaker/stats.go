package breaker

import (
	"sync/atomic"
	"time"
)

// Statistics tracks breaker behavior using atomic operations.
type Statistics struct {
	allowed   int64
	rejected  int64
	degraded  int64
	successes int64
	failures  int64
	trips     int64

	startTime time.Time
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{startTime: time.Now()}
}

// Allowed records a call that passed through the breaker.
func (s *Statistics) Allowed() {
	atomic.AddInt64(&s.allowed, 1)
}

// Rejection records a call rejected while open.
func (s *Statistics) Rejection() {
	atomic.AddInt64(&s.rejected, 1)
}

// Degraded records a call routed through a degraded-mode strategy.
func (s *Statistics) Degraded() {
	atomic.AddInt64(&s.degraded, 1)
}

// Success records a successful call outcome.
func (s *Statistics) Success() {
	atomic.AddInt64(&s.successes, 1)
}

// Failure records a failed call outcome.
func (s *Statistics) Failure() {
	atomic.AddInt64(&s.failures, 1)
}

// Trip records a transition to the open state.
func (s *Statistics) Trip() {
	atomic.AddInt64(&s.trips, 1)
}

// AllowedCount returns calls that passed through.
func (s *Statistics) AllowedCount() int64 {
	return atomic.LoadInt64(&s.allowed)
}

// RejectedCount returns open-state rejections.
func (s *Statistics) RejectedCount() int64 {
	return atomic.LoadInt64(&s.rejected)
}

// DegradedCount returns degraded-mode routings.
func (s *Statistics) DegradedCount() int64 {
	return atomic.LoadInt64(&s.degraded)
}

// SuccessCount returns successful outcomes.
func (s *Statistics) SuccessCount() int64 {
	return atomic.LoadInt64(&s.successes)
}

// FailureCount returns failed outcomes.
func (s *Statistics) FailureCount() int64 {
	return atomic.LoadInt64(&s.failures)
}

// TripCount returns transitions to open.
func (s *Statistics) TripCount() int64 {
	return atomic.LoadInt64(&s.trips)
}

// Uptime returns how long the breaker has existed.
func (s *Statistics) Uptime() time.Duration {
	return time.Since(s.startTime)
}
