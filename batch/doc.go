// Package batch processes large item lists in chunks with adaptive
// sizing, pacing, and structured partial-failure reporting.
//
// The engine partitions items into chunks (default 100, bounds 10 to
// 500), merging an undersized tail into the previous chunk. Chunks run
// sequentially by default, each wrapped through the error recovery
// dispatcher, with a pacing delay between chunks. When more than half
// the chunks have failed after the first few, the remaining chunks are
// aborted and reported rather than silently dropped.
//
// With adaptive sizing enabled the chunk size is scaled after each
// chunk by sqrt(target/actual) toward a target duration, clamped to the
// configured bounds.
//
// A batch result is always structured: Successful and Failed are item
// counts summing to the total, Results holds per-chunk outputs in index
// order, and Errors retains failed chunks with their items for replay.
// Partial failure is a normal result, not an error.
//
//	engine, err := batch.New(batch.DefaultConfig())
//	if err != nil {
//		return err
//	}
//
//	result, err := engine.Process(ctx, uploadChunk, items,
//		batch.WithProgress(func(p batch.Progress) {
//			log.Info("batch progress", "percent", p.BatchProgress)
//		}))
//
// Setting Concurrency above one runs chunks through a bounded
// errgroup; aggregation stays deterministic by chunk index.
package batch
