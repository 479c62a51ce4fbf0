package rolling

import (
	"sort"
	"time"
)

// Sample is one recorded call outcome.
type Sample struct {
	Success  bool
	Duration time.Duration
	At       time.Time
}

// Window tracks the most recent call outcomes for a single operation.
// It answers the questions the circuit breaker and analytics layers ask:
// what fraction of recent calls failed, and how slow were they.
type Window struct {
	ring *Ring[Sample]
}

// NewWindow creates a window covering the last capacity outcomes.
func NewWindow(capacity int) *Window {
	return &Window{ring: NewRing[Sample](capacity)}
}

// Record adds one outcome to the window.
func (w *Window) Record(success bool, duration time.Duration) {
	w.ring.Push(Sample{Success: success, Duration: duration, At: time.Now()})
}

// Count returns the number of recorded outcomes, capped at capacity.
func (w *Window) Count() int {
	return w.ring.Len()
}

// Capacity returns the window size.
func (w *Window) Capacity() int {
	return w.ring.Cap()
}

// FailureRate returns the fraction of failed outcomes in [0,1].
// An empty window reports zero.
func (w *Window) FailureRate() float64 {
	total, failures := 0, 0
	w.ring.Each(func(s Sample) {
		total++
		if !s.Success {
			failures++
		}
	})
	if total == 0 {
		return 0
	}
	return float64(failures) / float64(total)
}

// SuccessRate returns the fraction of successful outcomes in [0,1].
// An empty window reports 1.
func (w *Window) SuccessRate() float64 {
	if w.ring.Len() == 0 {
		return 1
	}
	return 1 - w.FailureRate()
}

// AverageDuration returns the mean duration across the window.
func (w *Window) AverageDuration() time.Duration {
	var total time.Duration
	count := 0
	w.ring.Each(func(s Sample) {
		total += s.Duration
		count++
	})
	if count == 0 {
		return 0
	}
	return total / time.Duration(count)
}

// Percentile returns the duration at percentile p (0 < p <= 100).
// An empty window reports zero.
func (w *Window) Percentile(p float64) time.Duration {
	durations := make([]time.Duration, 0, w.ring.Len())
	w.ring.Each(func(s Sample) {
		durations = append(durations, s.Duration)
	})
	if len(durations) == 0 {
		return 0
	}
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	idx := int(float64(len(durations))*p/100) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(durations) {
		idx = len(durations) - 1
	}
	return durations[idx]
}

// Since counts outcomes recorded after the cutoff.
func (w *Window) Since(cutoff time.Time) (total, failures int) {
	w.ring.Each(func(s Sample) {
		if s.At.After(cutoff) {
			total++
			if !s.Success {
				failures++
			}
		}
	})
	return total, failures
}

// Reset discards all recorded outcomes.
func (w *Window) Reset() {
	w.ring.Clear()
}
