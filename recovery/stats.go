package recovery

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Jacobolevy/smartling-mcp-server-sub002/errors"
)

// Statistics tracks recovery behavior.
type Statistics struct {
	recovered int64
	exhausted int64

	mu       sync.Mutex
	attempts map[errors.Kind]int64

	startTime time.Time
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{
		attempts:  make(map[errors.Kind]int64),
		startTime: time.Now(),
	}
}

// Attempt records a recovery attempt for an error kind.
func (s *Statistics) Attempt(kind errors.Kind) {
	s.mu.Lock()
	s.attempts[kind]++
	s.mu.Unlock()
}

// Recovered records a successful recovery.
func (s *Statistics) Recovered() {
	atomic.AddInt64(&s.recovered, 1)
}

// Exhausted records a recovery that ran out of budget.
func (s *Statistics) Exhausted() {
	atomic.AddInt64(&s.exhausted, 1)
}

// RecoveredCount returns successful recoveries.
func (s *Statistics) RecoveredCount() int64 {
	return atomic.LoadInt64(&s.recovered)
}

// ExhaustedCount returns exhausted recoveries.
func (s *Statistics) ExhaustedCount() int64 {
	return atomic.LoadInt64(&s.exhausted)
}

// AttemptsByKind returns a copy of the per-kind attempt counts.
func (s *Statistics) AttemptsByKind() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]int64, len(s.attempts))
	for kind, count := range s.attempts {
		out[kind.String()] = count
	}
	return out
}

// Uptime returns how long the dispatcher has existed.
func (s *Statistics) Uptime() time.Duration {
	return time.Since(s.startTime)
}
