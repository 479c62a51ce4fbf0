// Package dedup coalesces identical concurrent requests into a single
// execution.
//
// A Deduplicator guarantees that for a given key, at most one execution
// of the supplied function is in flight at a time. Concurrent callers
// with the same key block on the leading execution and all receive its
// result, success or failure. After an execution settles, the result is
// replayed to late arrivals for a configurable grace window, which
// absorbs double-submits and racing retries without touching the
// upstream API.
//
//	d := dedup.New[*Project](ctx, dedup.DefaultConfig())
//	defer d.Close()
//
//	project, shared, err := d.Do(ctx, "project:"+id, func(ctx context.Context) (*Project, error) {
//		return api.FetchProject(ctx, id)
//	})
//
// Callers that received a result without executing get shared == true,
// and failures are wrapped in errors.DeduplicationPropagatedError so the
// chain still unwraps to the original cause.
package dedup
