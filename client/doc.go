// Package client provides the resilient HTTP client that ties the
// toolkit together: rate limiting, GET deduplication, response
// caching, error recovery, and circuit breaking around one upstream
// API.
//
// Request pipeline:
//
//	Get/Post/Put/Delete
//	  → recovery dispatcher (classify failures, backoff, re-auth,
//	    route server errors through the circuit breaker)
//	    → rate limiter (token bucket)
//	      → resty over a retryablehttp transport (connection-level
//	        retries only)
//
// GETs additionally pass through a deduplicator, so identical
// concurrent requests share one upstream call, and a TTL cache keyed
// by method, path, and sorted query parameters. Mutations bypass both;
// call InvalidateNamespace after a mutation to evict related cached
// responses.
//
// Non-2xx responses are surfaced as *errors.HTTPError so the recovery
// dispatcher can classify them: 429 backs off and retries, 401 runs
// one re-authentication cycle against the authentication endpoint,
// 5xx retries through the breaker, and 413 splits batched workloads.
package client
