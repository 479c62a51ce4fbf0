package client

import (
	"fmt"
	"net/url"
	"time"
)

// Config controls the resilient HTTP client.
type Config struct {
	// BaseURL is the API root every request path is resolved against.
	BaseURL string `json:"baseURL"`

	// UserIdentifier and UserSecret are the API credentials used by the
	// authentication endpoint. Leave empty for unauthenticated APIs.
	UserIdentifier string `json:"userIdentifier,omitempty"`
	UserSecret     string `json:"userSecret,omitempty"`

	// Timeout bounds each HTTP request end to end.
	Timeout time.Duration `json:"timeout"`

	// RetryMax and the wait bounds configure transport-level retries
	// for connection failures. Application-level recovery (429, 5xx,
	// auth) is handled by the recovery dispatcher above the transport.
	RetryMax     int           `json:"retryMax"`
	RetryWaitMin time.Duration `json:"retryWaitMin"`
	RetryWaitMax time.Duration `json:"retryWaitMax"`

	// RateLimit caps outgoing requests per second. Zero means
	// unlimited. RateBurst is the token bucket size.
	RateLimit float64 `json:"rateLimit"`
	RateBurst int     `json:"rateBurst"`

	// CacheTTL is how long GET responses are served from cache. Zero
	// disables response caching.
	CacheTTL time.Duration `json:"cacheTTL"`

	// CacheSize bounds the response cache entry count.
	CacheSize int `json:"cacheSize"`
}

// DefaultConfig returns client defaults aimed at a rate-limited
// translation management API.
func DefaultConfig() Config {
	return Config{
		BaseURL:      "https://api.smartling.com",
		Timeout:      30 * time.Second,
		RetryMax:     3,
		RetryWaitMin: 500 * time.Millisecond,
		RetryWaitMax: 10 * time.Second,
		RateLimit:    10,
		RateBurst:    20,
		CacheTTL:     5 * time.Minute,
		CacheSize:    1000,
	}
}

// Validate checks configuration bounds.
func (c Config) Validate() error {
	if c.BaseURL != "" {
		if _, err := url.Parse(c.BaseURL); err != nil {
			return fmt.Errorf("client.Validate: invalid base URL: %w", err)
		}
	}
	if c.Timeout < 0 {
		return fmt.Errorf("client.Validate: negative timeout %v", c.Timeout)
	}
	if c.RetryMax < 0 {
		return fmt.Errorf("client.Validate: negative retry max %d", c.RetryMax)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("client.Validate: negative rate limit %v", c.RateLimit)
	}
	if c.RateBurst < 0 {
		return fmt.Errorf("client.Validate: negative rate burst %d", c.RateBurst)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("client.Validate: negative cache size %d", c.CacheSize)
	}
	return nil
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.BaseURL == "" {
		c.BaseURL = def.BaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = def.Timeout
	}
	if c.RetryWaitMin == 0 {
		c.RetryWaitMin = def.RetryWaitMin
	}
	if c.RetryWaitMax == 0 {
		c.RetryWaitMax = def.RetryWaitMax
	}
	if c.RateLimit > 0 && c.RateBurst == 0 {
		c.RateBurst = int(c.RateLimit)
	}
	if c.CacheSize == 0 {
		c.CacheSize = def.CacheSize
	}
	return c
}
