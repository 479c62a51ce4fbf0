package recovery

import (
	"context"
	"time"

	"github.com/Jacobolevy/smartling-mcp-server-sub002/breaker"
)

// Operation is a recoverable call. It reads its workload from the
// recovery context so strategies can shrink or split the item list
// between attempts.
type Operation func(ctx context.Context, rctx *Context) (any, error)

// Context carries the caller-supplied information strategies consult
// when recovering a failed operation.
type Context struct {
	// OperationType tags the call site, e.g. "batch" or "upload".
	// Batch contexts shed load on timeout instead of retrying as-is.
	OperationType string

	// ProjectID scopes the operation for logging.
	ProjectID string

	// Priority "high" raises the retry budget by two attempts.
	Priority string

	// Items is the workload. PAYLOAD_TOO_LARGE recovery splits it in
	// half recursively; TIMEOUT recovery shrinks it by a ratio.
	Items []any

	// BatchSize is the nominal batch size, reduced on load shedding.
	BatchSize int

	// Authenticate refreshes credentials. AUTH_ERROR recovery invokes
	// it once and retries; absent, auth errors surface immediately.
	Authenticate func(ctx context.Context) error

	// Breaker, when set, routes SERVER_ERROR retries through the
	// circuit breaker instead of plain backoff.
	Breaker *breaker.Breaker

	// Timeout bounds each attempt raced under the TIMEOUT strategy.
	// The strategy requires an explicit bound; zero disables racing.
	Timeout time.Duration
}

// clone returns a shallow copy with its own Items slice header.
func (rc *Context) clone() *Context {
	if rc == nil {
		return &Context{}
	}
	dup := *rc
	return &dup
}

// withItems returns a copy of the context carrying the given workload.
func (rc *Context) withItems(items []any) *Context {
	dup := rc.clone()
	dup.Items = items
	dup.BatchSize = len(items)
	return dup
}

// highPriority reports whether the context raises retry budgets.
func (rc *Context) highPriority() bool {
	return rc != nil && rc.Priority == "high"
}

// isBatch reports whether the context describes a batch operation.
func (rc *Context) isBatch() bool {
	return rc != nil && rc.OperationType == "batch"
}
