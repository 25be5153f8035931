package devserver

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// DefaultOrigins are the browser origins the portal front end is served from.
var DefaultOrigins = []string{
	"http://go.ylmz.com.cn",
	"https://go.ylmz.com.cn",
	"http://localhost:3000",
	"http://localhost:5173",
	"http://0.0.0.0:3000",
}

// Config configures the development portal server.
type Config struct {
	// Addr is the listen address. Default: ":8080".
	Addr string
	// Secret signs issued tokens with HS256.
	Secret string
	// FixturesPath replaces the embedded demo data when set.
	FixturesPath string
	// CORSOrigins lists allowed browser origins.
	CORSOrigins []string
	// TokenTTL is how long issued tokens stay valid. Default: 24h.
	TokenTTL time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:        ":8080",
		Secret:      "practiz-dev-secret",
		CORSOrigins: DefaultOrigins,
		TokenTTL:    24 * time.Hour,
	}
}

// ConfigFromEnv builds a Config from PRACTIZ_DEV_* variables, falling back
// to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("PRACTIZ_DEV_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("PRACTIZ_DEV_SECRET"); v != "" {
		cfg.Secret = v
	}
	if v := os.Getenv("PRACTIZ_DEV_FIXTURES"); v != "" {
		cfg.FixturesPath = v
	}
	if v := os.Getenv("PRACTIZ_DEV_CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORSOrigins = origins
	}
	if v := os.Getenv("PRACTIZ_DEV_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.TokenTTL = d
		}
	}
	return cfg
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("listen address is required")
	}
	if len(c.Secret) < 8 {
		return fmt.Errorf("token secret must be at least 8 characters")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive")
	}
	return nil
}
