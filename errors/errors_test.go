package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected string
	}{
		{KindRateLimit, "rate_limit"},
		{KindAuthError, "auth_error"},
		{KindTimeout, "timeout"},
		{KindPayloadTooLarge, "payload_too_large"},
		{KindServerError, "server_error"},
		{KindNetworkError, "network_error"},
		{KindUnknown, "unknown"},
		{Kind(999), "unknown"},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			if result := test.kind.String(); result != test.expected {
				t.Errorf("expected %s, got %s", test.expected, result)
			}
		})
	}
}

func TestClassify_StatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		expected Kind
	}{
		{"rate limit", 429, KindRateLimit},
		{"unauthorized", 401, KindAuthError},
		{"forbidden", 403, KindAuthError},
		{"request timeout", 408, KindTimeout},
		{"payload too large", 413, KindPayloadTooLarge},
		{"internal server error", 500, KindServerError},
		{"bad gateway", 502, KindServerError},
		{"service unavailable", 503, KindServerError},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := &HTTPError{StatusCode: test.code, Message: "upstream says no"}
			if result := Classify(err); result != test.expected {
				t.Errorf("expected %s, got %s for status %d", test.expected, result, test.code)
			}
		})
	}
}

func TestClassify_MessageText(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Kind
	}{
		{"nil error", nil, KindUnknown},
		{"rate limit text", fmt.Errorf("Rate Limit exceeded for project"), KindRateLimit},
		{"too many requests", fmt.Errorf("too many requests, slow down"), KindRateLimit},
		{"unauthorized text", fmt.Errorf("request Unauthorized"), KindAuthError},
		{"token expired", fmt.Errorf("token expired at 12:00"), KindAuthError},
		{"timeout text", fmt.Errorf("operation timed out after 30s"), KindTimeout},
		{"deadline exceeded sentinel", context.DeadlineExceeded, KindTimeout},
		{"too large text", fmt.Errorf("request entity too large"), KindPayloadTooLarge},
		{"bad gateway text", fmt.Errorf("502 Bad Gateway from proxy"), KindServerError},
		{"connection reset", fmt.Errorf("read tcp: connection reset by peer"), KindNetworkError},
		{"dns failure", fmt.Errorf("lookup api.example.com: no such host"), KindNetworkError},
		{"unknown", fmt.Errorf("something odd happened"), KindUnknown},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if result := Classify(test.err); result != test.expected {
				t.Errorf("expected %s, got %s for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestClassify_StatusWinsOverText(t *testing.T) {
	// A 429 whose body text mentions "timeout" must still classify as rate limit
	err := &HTTPError{StatusCode: 429, Message: "gateway timeout while throttling"}
	if result := Classify(err); result != KindRateLimit {
		t.Errorf("expected rate_limit, got %s", result)
	}
}

func TestClassify_WrappedHTTPError(t *testing.T) {
	inner := &HTTPError{StatusCode: 503, Message: "maintenance"}
	wrapped := fmt.Errorf("fetching strings: %w", inner)
	if result := Classify(wrapped); result != KindServerError {
		t.Errorf("expected server_error through wrap chain, got %s", result)
	}
}

func TestKind_Retryable(t *testing.T) {
	retryable := []Kind{KindRateLimit, KindTimeout, KindServerError, KindNetworkError, KindUnknown}
	for _, k := range retryable {
		if !k.Retryable() {
			t.Errorf("expected %s to be retryable", k)
		}
	}
	for _, k := range []Kind{KindAuthError, KindPayloadTooLarge} {
		if k.Retryable() {
			t.Errorf("expected %s to not be retryable", k)
		}
	}
}

func TestKindOf_HonorsClassifiedError(t *testing.T) {
	ce := &ClassifiedError{Kind: KindPayloadTooLarge, Err: fmt.Errorf("nothing matching")}
	wrapped := fmt.Errorf("outer: %w", ce)
	if result := KindOf(wrapped); result != KindPayloadTooLarge {
		t.Errorf("expected explicit classification to win, got %s", result)
	}
}

func TestWrap(t *testing.T) {
	base := errors.New("boom")
	wrapped := Wrap(base, "Dispatcher", "Do", "remote call")

	expected := "Dispatcher.Do: remote call failed: boom"
	if wrapped.Error() != expected {
		t.Errorf("expected %q, got %q", expected, wrapped.Error())
	}
	if !errors.Is(wrapped, base) {
		t.Error("expected wrapped error to unwrap to base")
	}
	if Wrap(nil, "c", "m", "a") != nil {
		t.Error("expected nil wrap of nil error")
	}
}

func TestWrapKind(t *testing.T) {
	base := errors.New("upstream said nope")
	wrapped := WrapKind(KindServerError, base, "Client", "Get", "fetch")

	if KindOf(wrapped) != KindServerError {
		t.Errorf("expected server_error, got %s", KindOf(wrapped))
	}
	if !errors.Is(wrapped, base) {
		t.Error("expected wrapped error to unwrap to base")
	}
}

func TestCircuitOpenError(t *testing.T) {
	err := &CircuitOpenError{Name: "smartling-api", OpenedAt: time.Now(), RetryAfter: 5 * time.Second}

	if !errors.Is(err, ErrCircuitOpen) {
		t.Error("expected CircuitOpenError to match ErrCircuitOpen sentinel")
	}
	if !IsCircuitOpen(fmt.Errorf("call blocked: %w", err)) {
		t.Error("expected IsCircuitOpen to see through wrapping")
	}
	if IsCircuitOpen(errors.New("unrelated")) {
		t.Error("expected unrelated error to not be circuit open")
	}
}

func TestRecoveryExhaustedError(t *testing.T) {
	cause := &HTTPError{StatusCode: 500, Message: "still broken"}
	err := &RecoveryExhaustedError{Kind: KindServerError, Attempts: 4, Err: cause}

	if !errors.Is(err, ErrMaxRetriesExceeded) {
		t.Error("expected exhaustion to match ErrMaxRetriesExceeded sentinel")
	}
	var he *HTTPError
	if !errors.As(err, &he) || he.StatusCode != 500 {
		t.Error("expected original cause to be reachable via errors.As")
	}
}

func TestStatusCode(t *testing.T) {
	if code, ok := StatusCode(&HTTPError{StatusCode: 404, Message: "gone"}); !ok || code != 404 {
		t.Errorf("expected 404, got %d (ok=%v)", code, ok)
	}
	if _, ok := StatusCode(errors.New("plain")); ok {
		t.Error("expected no status code for plain error")
	}
	if _, ok := StatusCode(nil); ok {
		t.Error("expected no status code for nil error")
	}
}
