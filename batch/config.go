package batch

import (
	"fmt"
	"time"
)

const (
	minChunkBound = 10
	maxChunkBound = 500
)

// Config holds batch engine configuration.
type Config struct {
	// ChunkSize is the initial number of items per chunk, clamped to
	// [MinChunkSize, MaxChunkSize].
	ChunkSize int `json:"chunkSize"`

	// MinChunkSize and MaxChunkSize bound adaptive resizing.
	MinChunkSize int `json:"minChunkSize"`
	MaxChunkSize int `json:"maxChunkSize"`

	// Adaptive enables scaling the chunk size from observed chunk
	// durations, sequential mode only.
	Adaptive bool `json:"adaptive"`

	// TargetChunkDuration is the per-chunk duration adaptive sizing
	// steers toward.
	TargetChunkDuration time.Duration `json:"targetChunkDuration"`

	// TargetTolerance is the fraction around the target within which no
	// resize happens.
	TargetTolerance float64 `json:"targetTolerance"`

	// InterChunkDelay is the pause between chunks to avoid overwhelming
	// the remote resource.
	InterChunkDelay time.Duration `json:"interChunkDelay"`

	// AbortFailureRate aborts remaining chunks when the failed-chunk
	// rate exceeds it after more than AbortMinChunks chunks.
	AbortFailureRate float64 `json:"abortFailureRate"`
	AbortMinChunks   int     `json:"abortMinChunks"`

	// Concurrency above one runs chunks through a bounded worker group.
	// Results still aggregate by chunk index. Adaptive sizing is a
	// sequential-mode feature and is ignored when concurrent.
	Concurrency int `json:"concurrency"`

	// HistorySize bounds the ring of completed batch results.
	HistorySize int `json:"historySize"`
}

// DefaultConfig returns a batch configuration matching typical API
// bulk-operation limits.
func DefaultConfig() Config {
	return Config{
		ChunkSize:           100,
		MinChunkSize:        minChunkBound,
		MaxChunkSize:        maxChunkBound,
		Adaptive:            false,
		TargetChunkDuration: 5 * time.Second,
		TargetTolerance:     0.2,
		InterChunkDelay:     200 * time.Millisecond,
		AbortFailureRate:    0.5,
		AbortMinChunks:      3,
		Concurrency:         1,
		HistorySize:         50,
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.ChunkSize < 0 {
		return fmt.Errorf("batch.Validate: negative chunk size %d", c.ChunkSize)
	}
	if c.TargetTolerance < 0 || c.TargetTolerance >= 1 {
		return fmt.Errorf("batch.Validate: target tolerance %v outside [0,1)", c.TargetTolerance)
	}
	if c.AbortFailureRate < 0 || c.AbortFailureRate > 1 {
		return fmt.Errorf("batch.Validate: abort failure rate %v outside [0,1]", c.AbortFailureRate)
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("batch.Validate: negative concurrency %d", c.Concurrency)
	}
	return nil
}

// withDefaults fills in zero values and clamps the chunk bounds.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.ChunkSize == 0 {
		c.ChunkSize = def.ChunkSize
	}
	if c.MinChunkSize == 0 {
		c.MinChunkSize = def.MinChunkSize
	}
	if c.MaxChunkSize == 0 {
		c.MaxChunkSize = def.MaxChunkSize
	}
	if c.MinChunkSize < minChunkBound {
		c.MinChunkSize = minChunkBound
	}
	if c.MaxChunkSize > maxChunkBound {
		c.MaxChunkSize = maxChunkBound
	}
	if c.ChunkSize < c.MinChunkSize {
		c.ChunkSize = c.MinChunkSize
	}
	if c.ChunkSize > c.MaxChunkSize {
		c.ChunkSize = c.MaxChunkSize
	}
	if c.TargetChunkDuration == 0 {
		c.TargetChunkDuration = def.TargetChunkDuration
	}
	if c.TargetTolerance == 0 {
		c.TargetTolerance = def.TargetTolerance
	}
	if c.InterChunkDelay == 0 {
		c.InterChunkDelay = def.InterChunkDelay
	}
	if c.AbortFailureRate == 0 {
		c.AbortFailureRate = def.AbortFailureRate
	}
	if c.AbortMinChunks == 0 {
		c.AbortMinChunks = def.AbortMinChunks
	}
	if c.Concurrency == 0 {
		c.Concurrency = 1
	}
	if c.HistorySize == 0 {
		c.HistorySize = def.HistorySize
	}
	return c
}
