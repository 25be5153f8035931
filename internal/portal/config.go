package portal

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// DefaultBaseURL is the portal API root used when nothing is configured.
const DefaultBaseURL = "http://localhost:8080/api"

// Config holds portal client configuration.
type Config struct {
	// BaseURL is the API root, including the /api prefix.
	BaseURL string
	// Token is the bearer token sent with authenticated requests.
	Token string
	// Timeout bounds a single HTTP request. Default: 10s.
	Timeout time.Duration
	Retry   RetryConfig
}

// RetryConfig configures retries of transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Timeout: 10 * time.Second,
		Retry: RetryConfig{
			MaxAttempts: 4,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     8 * time.Second,
			Multiplier:  2.0,
		},
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if u := os.Getenv("PRACTIZ_PORTAL_URL"); u != "" {
		cfg.BaseURL = u
	}
	if t := os.Getenv("PRACTIZ_TOKEN"); t != "" {
		cfg.Token = t
	}
	if d := os.Getenv("PRACTIZ_HTTP_TIMEOUT"); d != "" {
		if v, err := time.ParseDuration(d); err == nil {
			cfg.Timeout = v
		}
	}
	if n := os.Getenv("PRACTIZ_HTTP_RETRIES"); n != "" {
		if v, err := strconv.Atoi(n); err == nil && v > 0 {
			cfg.Retry.MaxAttempts = v
		}
	}

	return cfg
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid portal URL %q: %w", c.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("portal URL %q must be http or https", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("portal timeout must be positive")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("portal retry attempts must be at least 1")
	}
	return nil
}
