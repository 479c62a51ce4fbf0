package batch

import (
	"context"
	"time"
)

// Operation processes one chunk of items and returns a chunk-level result.
type Operation func(ctx context.Context, items []any) (any, error)

// ChunkError records a chunk that failed or was aborted, retaining its
// items so the caller can replay them.
type ChunkError struct {
	ChunkIndex int    `json:"chunk_index"`
	Items      []any  `json:"-"`
	Err        error  `json:"-"`
	Message    string `json:"message"`
	Aborted    bool   `json:"aborted"`
}

// Timing captures batch-level timing for introspection.
type Timing struct {
	StartedAt      time.Time       `json:"started_at"`
	CompletedAt    time.Time       `json:"completed_at"`
	Elapsed        time.Duration   `json:"elapsed"`
	ChunkDurations []time.Duration `json:"chunk_durations"`
}

// Result is the structured outcome of a batch run. Partial failure is a
// normal result, not an error: Successful and Failed are item counts
// that always sum to the total item count, and Errors retains the
// failed chunks in index order.
type Result struct {
	BatchID    string       `json:"batch_id"`
	Successful int          `json:"successful"`
	Failed     int          `json:"failed"`
	Results    []any        `json:"-"`
	Errors     []ChunkError `json:"errors,omitempty"`
	Timing     Timing       `json:"timing"`
	Aborted    bool         `json:"aborted"`
}

// Progress is reported to the caller's callback after each chunk.
type Progress struct {
	BatchProgress  float64       `json:"batch_progress"` // percent complete
	ItemsProcessed int           `json:"items_processed"`
	TotalItems     int           `json:"total_items"`
	SuccessRate    float64       `json:"success_rate"`
	ElapsedTime    time.Duration `json:"elapsed_time"`
}

// ProgressFunc receives progress updates. Panics and errors inside the
// callback are swallowed and logged, never aborting the batch.
type ProgressFunc func(Progress)

// partition splits items into chunks of size, merging a final chunk
// smaller than 30% of size into the previous one.
func partition(items []any, size int) [][]any {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 || size >= len(items) {
		return [][]any{items}
	}

	var chunks [][]any
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}

	last := len(chunks) - 1
	if last > 0 && len(chunks[last])*10 < size*3 {
		chunks[last-1] = append(chunks[last-1][:len(chunks[last-1]):len(chunks[last-1])], chunks[last]...)
		chunks = chunks[:last]
	}

	return chunks
}
