// Package recovery dispatches failed operations to per-kind recovery
// strategies.
//
// The dispatcher classifies each failure with errors.Classify and looks
// up a strategy for the kind:
//
//   - RATE_LIMIT: exponential backoff with jitter, retried as-is
//   - TIMEOUT: retried with the workload shrunk by a ratio, raced
//     against the context's explicit timeout bound
//   - AUTH_ERROR: one re-authentication cycle via the context-supplied
//     callback, then a single retry
//   - PAYLOAD_TOO_LARGE: the item list is halved and both halves run
//     through the full pipeline recursively until chunks reach size one
//     or the error kind changes; results are merged back together
//   - SERVER_ERROR: routed through the context's circuit breaker when
//     one is supplied, plain backoff otherwise
//   - NETWORK_ERROR / UNKNOWN: bounded retry with backoff
//
// Recovery recurses with an incrementing attempt counter; exceeding the
// strategy's budget surfaces a RecoveryExhaustedError wrapping the
// original cause. High-priority contexts get two extra attempts, and
// batch contexts shed load on timeouts.
//
//	d := recovery.NewDispatcher()
//	result, err := d.Do(ctx, uploadFiles, &recovery.Context{
//		OperationType: "upload",
//		ProjectID:     projectID,
//		Items:         items,
//		Authenticate:  client.Authenticate,
//		Timeout:       30 * time.Second,
//	})
package recovery
