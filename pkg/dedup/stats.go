package dedup

import (
	"sync/atomic"
	"time"
)

// Statistics tracks deduplication behavior using atomic operations.
type Statistics struct {
	executions int64 // calls that actually ran the function
	coalesced  int64 // callers served by an in-flight execution
	replays    int64 // callers served from the grace window

	startTime time.Time
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{startTime: time.Now()}
}

// Execution records a call that ran the underlying function.
func (s *Statistics) Execution() {
	atomic.AddInt64(&s.executions, 1)
}

// Coalesced records a caller that shared an in-flight execution.
func (s *Statistics) Coalesced() {
	atomic.AddInt64(&s.coalesced, 1)
}

// Replay records a caller served from a settled result.
func (s *Statistics) Replay() {
	atomic.AddInt64(&s.replays, 1)
}

// Executions returns the number of actual executions.
func (s *Statistics) Executions() int64 {
	return atomic.LoadInt64(&s.executions)
}

// CoalescedCount returns the number of coalesced callers.
func (s *Statistics) CoalescedCount() int64 {
	return atomic.LoadInt64(&s.coalesced)
}

// Replays returns the number of grace-window replays.
func (s *Statistics) Replays() int64 {
	return atomic.LoadInt64(&s.replays)
}

// SavedCalls returns how many executions deduplication avoided.
func (s *Statistics) SavedCalls() int64 {
	return s.CoalescedCount() + s.Replays()
}

// DedupRatio returns the fraction of callers that did not execute.
func (s *Statistics) DedupRatio() float64 {
	saved := s.SavedCalls()
	total := s.Executions() + saved
	if total == 0 {
		return 0
	}
	return float64(saved) / float64(total)
}

// Uptime returns how long the deduplicator has been running.
func (s *Statistics) Uptime() time.Duration {
	return time.Since(s.startTime)
}

// StatsSummary is a serializable snapshot of all statistics.
type StatsSummary struct {
	Executions int64         `json:"executions"`
	Coalesced  int64         `json:"coalesced"`
	Replays    int64         `json:"replays"`
	SavedCalls int64         `json:"saved_calls"`
	DedupRatio float64       `json:"dedup_ratio"`
	Uptime     time.Duration `json:"uptime"`
}

// Summary returns a snapshot of all statistics.
func (s *Statistics) Summary() StatsSummary {
	return StatsSummary{
		Executions: s.Executions(),
		Coalesced:  s.CoalescedCount(),
		Replays:    s.Replays(),
		SavedCalls: s.SavedCalls(),
		DedupRatio: s.DedupRatio(),
		Uptime:     s.Uptime(),
	}
}
