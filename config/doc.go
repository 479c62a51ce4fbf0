// Package config loads and validates the toolkit configuration.
//
// Configuration is layered: package defaults, then optional JSON file
// layers (later layers win), then environment variable overrides via
// envconfig with the RESILIENCE prefix:
//
//	RESILIENCE_CACHE_MAXSIZE=5000
//	RESILIENCE_CLIENT_BASEURL=https://api.smartling.com
//	RESILIENCE_CLIENT_USERSECRET=...
//
// Each section of Config reuses the owning package's config type, so a
// loaded section can be passed to its component constructor directly:
//
//	cfg, err := config.NewLoader().LoadFile("toolkit.json")
//	if err != nil {
//	    return err
//	}
//	store, err := cache.New(ctx, cfg.Cache)
//
// Duration fields in JSON files are nanosecond integers, matching
// encoding/json's handling of time.Duration. Environment overrides
// accept Go duration strings ("30s", "5m").
//
// File access is validated before use: paths must be .json, must not
// traverse outside the working directory, and files are capped at 10MB
// with a JSON nesting depth limit. Config.String redacts the client
// secret, and SaveToFile writes with owner-only permissions.
//
// SafeConfig wraps a Config for concurrent use: Get returns deep
// copies and Update validates before swapping.
package config
