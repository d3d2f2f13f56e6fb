package feedfetch

import (
	"time"

	"feedrelay/pkg/config"
)

// defaultUserAgent identifies fetch requests to feed hosts, matching the
// upstream project this pipeline's behavior is modeled on.
const defaultUserAgent = "el_monitorro"

// Config holds the configuration for the feed fetcher (C2).
type Config struct {
	// UserAgent is sent on every feed fetch request.
	UserAgent string

	// RequestTimeout bounds a single HTTP GET, including redirects.
	RequestTimeout time.Duration

	// MaxRedirects is the maximum number of redirect hops to follow.
	MaxRedirects int
}

// DefaultConfig returns the default feed fetch configuration.
func DefaultConfig() Config {
	return Config{
		UserAgent:      defaultUserAgent,
		RequestTimeout: 5 * time.Second,
		MaxRedirects:   10,
	}
}

// LoadConfigFromEnv loads feed fetch configuration from the environment,
// falling back to defaults for unset or invalid values.
//
// Environment variables:
//   - REQUEST_TIMEOUT: per-request timeout in seconds (default 5)
func LoadConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.RequestTimeout = time.Duration(config.GetEnvInt("REQUEST_TIMEOUT", 5)) * time.Second
	return cfg
}
