package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/Jacobolevy/smartling-mcp-server-sub002/analytics"
	"github.com/Jacobolevy/smartling-mcp-server-sub002/breaker"
	"github.com/Jacobolevy/smartling-mcp-server-sub002/errors"
	"github.com/Jacobolevy/smartling-mcp-server-sub002/pkg/cache"
	"github.com/Jacobolevy/smartling-mcp-server-sub002/pkg/dedup"
	"github.com/Jacobolevy/smartling-mcp-server-sub002/recovery"
)

const authPath = "/auth-api/v2/authenticate"

// Client is a resilient HTTP client: requests are rate limited, GETs
// are deduplicated and served through a TTL cache, failures run
// through the recovery dispatcher, and server errors are routed
// through a circuit breaker.
type Client struct {
	config     Config
	rest       *resty.Client
	limiter    *rate.Limiter
	cache      cache.Cache[[]byte]
	dedup      *dedup.Deduplicator[[]byte]
	breaker    *breaker.Breaker
	dispatcher *recovery.Dispatcher
	recorder   *analytics.Recorder
	logger     *slog.Logger

	authMu sync.Mutex
	token  string
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger.With("component", "client")
		}
	}
}

// WithBreaker routes server-error recovery through the given breaker
// instead of the client's own.
func WithBreaker(b *breaker.Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

// WithDispatcher replaces the default recovery dispatcher.
func WithDispatcher(d *recovery.Dispatcher) Option {
	return func(c *Client) {
		c.dispatcher = d
	}
}

// WithRecorder records every request outcome into the analytics
// recorder.
func WithRecorder(r *analytics.Recorder) Option {
	return func(c *Client) {
		c.recorder = r
	}
}

// New creates a Client. The context bounds the background goroutines
// of the response cache and deduplicator; Close stops them as well.
func New(ctx context.Context, config Config, options ...Option) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "client", "New", "config validation")
	}
	config = config.withDefaults()

	c := &Client{
		config: config,
		logger: slog.Default().With("component", "client"),
	}
	for _, option := range options {
		option(c)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = config.RetryMax
	retryClient.RetryWaitMin = config.RetryWaitMin
	retryClient.RetryWaitMax = config.RetryWaitMax
	retryClient.Logger = nil
	// The transport retries connection-level failures only; HTTP error
	// statuses surface to the recovery dispatcher untouched.
	retryClient.CheckRetry = func(ctx context.Context, _ *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return err != nil, nil
	}

	c.rest = resty.New().
		SetBaseURL(config.BaseURL).
		SetTimeout(config.Timeout).
		SetTransport(&retryablehttp.RoundTripper{Client: retryClient}).
		SetHeader("User-Agent", "smartling-resilience/1.0")

	if config.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), config.RateBurst)
	} else {
		c.limiter = rate.NewLimiter(rate.Inf, 0)
	}

	if config.CacheTTL > 0 {
		responseCache, err := cache.New[[]byte](ctx, cache.Config{
			MaxSize:    config.CacheSize,
			DefaultTTL: config.CacheTTL,
		})
		if err != nil {
			return nil, errors.Wrap(err, "client", "New", "response cache")
		}
		c.cache = responseCache
	}

	c.dedup = dedup.New[[]byte](ctx, dedup.DefaultConfig())

	if c.breaker == nil {
		b, err := breaker.New("client:"+hostOf(config.BaseURL), breaker.DefaultConfig(),
			breaker.WithLogger(c.logger))
		if err != nil {
			return nil, errors.Wrap(err, "client", "New", "circuit breaker")
		}
		c.breaker = b
	}

	if c.dispatcher == nil {
		c.dispatcher = recovery.NewDispatcher(recovery.WithLogger(c.logger))
	}

	return c, nil
}

func hostOf(baseURL string) string {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(baseURL, "https://"), "http://")
	if idx := strings.IndexByte(trimmed, '/'); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	if trimmed == "" {
		return "default"
	}
	return trimmed
}

// Get issues a GET request. Identical concurrent GETs are coalesced
// into one upstream call and responses are served from the TTL cache
// until they expire.
func (c *Client) Get(ctx context.Context, path string, query map[string]string) ([]byte, error) {
	key := requestKey(http.MethodGet, path, query)

	if c.cache != nil {
		if body, ok := c.cache.Get(key); ok {
			return body, nil
		}
	}

	body, _, err := c.dedup.Do(ctx, key, func(ctx context.Context) ([]byte, error) {
		return c.execute(ctx, http.MethodGet, path, query, nil)
	})
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if _, err := c.cache.Set(key, body); err != nil {
			c.logger.Warn("response cache set failed", "key", key, "error", err)
		}
	}
	return body, nil
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) ([]byte, error) {
	return c.execute(ctx, http.MethodPost, path, nil, body)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) ([]byte, error) {
	return c.execute(ctx, http.MethodPut, path, nil, body)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) ([]byte, error) {
	return c.execute(ctx, http.MethodDelete, path, nil, nil)
}

// execute runs one request through the recovery dispatcher so rate
// limits, timeouts, auth failures, and server errors are recovered per
// their strategies.
func (c *Client) execute(ctx context.Context, method, path string, query map[string]string, body any) ([]byte, error) {
	operation := method + " " + path
	started := time.Now()

	rctx := &recovery.Context{
		OperationType: operation,
		Breaker:       c.breaker,
	}
	if c.config.UserIdentifier != "" {
		rctx.Authenticate = c.authenticate
	}

	result, err := c.dispatcher.Do(ctx, func(ctx context.Context, _ *recovery.Context) (any, error) {
		return c.doRequest(ctx, method, path, query, body)
	}, rctx)

	if c.recorder != nil {
		c.recorder.Record(operation, err == nil, time.Since(started))
	}
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// doRequest performs one HTTP round trip and maps non-2xx responses to
// classified HTTP errors.
func (c *Client) doRequest(ctx context.Context, method, path string, query map[string]string, body any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "client", "doRequest", "rate limit wait")
	}

	req := c.rest.R().SetContext(ctx)
	if query != nil {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if token := c.currentToken(); token != "" {
		req.SetAuthToken(token)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, errors.Wrap(err, "client", "doRequest", method+" "+path)
	}

	if resp.IsError() {
		message := strings.TrimSpace(resp.String())
		if message == "" {
			message = resp.Status()
		}
		return nil, &errors.HTTPError{
			StatusCode: resp.StatusCode(),
			Message:    message,
		}
	}

	return resp.Body(), nil
}

// authenticate refreshes the bearer token using the configured
// credentials. It is invoked by AUTH_ERROR recovery.
func (c *Client) authenticate(ctx context.Context) error {
	c.authMu.Lock()
	defer c.authMu.Unlock()

	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{
			"userIdentifier": c.config.UserIdentifier,
			"userSecret":     c.config.UserSecret,
		}).
		Post(authPath)
	if err != nil {
		return errors.Wrap(err, "client", "authenticate", "token request")
	}
	if resp.IsError() {
		return &errors.HTTPError{
			StatusCode: resp.StatusCode(),
			Message:    "authentication failed",
		}
	}

	var payload struct {
		Response struct {
			Data struct {
				AccessToken string `json:"accessToken"`
			} `json:"data"`
		} `json:"response"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return errors.Wrap(err, "client", "authenticate", "token decode")
	}
	if payload.Response.Data.AccessToken == "" {
		return errors.Wrap(errors.ErrInvalidData, "client", "authenticate", "empty access token")
	}

	c.token = payload.Response.Data.AccessToken
	c.logger.Info("access token refreshed")
	return nil
}

func (c *Client) currentToken() string {
	c.authMu.Lock()
	defer c.authMu.Unlock()
	return c.token
}

// InvalidateNamespace evicts every cached GET response whose key
// contains the substring, e.g. a project id after a mutation.
func (c *Client) InvalidateNamespace(substring string) int {
	if c.cache == nil {
		return 0
	}
	return c.cache.InvalidateMatching(substring)
}

// BreakerStatus returns the circuit breaker snapshot for monitoring.
func (c *Client) BreakerStatus() breaker.Status {
	return c.breaker.Status()
}

// CacheStats returns response cache statistics, or nil when caching is
// disabled.
func (c *Client) CacheStats() *cache.Statistics {
	if c.cache == nil {
		return nil
	}
	return c.cache.Stats()
}

// Close stops the response cache and deduplicator.
func (c *Client) Close() error {
	var firstErr error
	if c.cache != nil {
		if err := c.cache.Close(); err != nil {
			firstErr = err
		}
	}
	if err := c.dedup.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// requestKey builds a stable cache/dedup key from the method, path,
// and sorted query parameters.
func requestKey(method, path string, query map[string]string) string {
	if len(query) == 0 {
		return method + " " + path
	}

	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(method)
	b.WriteByte(' ')
	b.WriteString(path)
	b.WriteByte('?')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		fmt.Fprintf(&b, "%s=%s", k, query[k])
	}
	return b.String()
}
