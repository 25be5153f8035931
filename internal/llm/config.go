package llm

import (
	"fmt"
	"os"
	"time"
)

// Provider names accepted by Config.Provider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
	ProviderMock       = "mock"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// Config selects and configures a provider. An empty Provider means no
// LLM features.
type Config struct {
	Provider string

	Anthropic  VendorConfig
	OpenAI     VendorConfig
	OpenRouter VendorConfig
	Gemini     VendorConfig

	Retry RetryConfig
	// Timeout bounds one Generate call including retries.
	Timeout time.Duration
}

// VendorConfig is the per-vendor key, model and endpoint.
type VendorConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig controls backoff for transient provider failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig has no provider selected and small, cheap default models.
func DefaultConfig() Config {
	return Config{
		Anthropic:  VendorConfig{Model: "claude-haiku"},
		OpenAI:     VendorConfig{Model: "gpt-4o-mini"},
		OpenRouter: VendorConfig{Model: "google/gemini-2.0-flash-001", BaseURL: openRouterBaseURL},
		Gemini:     VendorConfig{Model: "gemini-flash"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     8 * time.Second,
			Multiplier:  2,
		},
		Timeout: 20 * time.Second,
	}
}

// ConfigFromEnv reads PRACTIZ_LLM_PROVIDER and the PRACTIZ_<VENDOR>_API_KEY,
// _MODEL and _BASE_URL variables. When no provider is named it falls back to
// DiscoverConfig.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.Provider = os.Getenv("PRACTIZ_LLM_PROVIDER")

	readVendor(&cfg.Anthropic, "ANTHROPIC")
	readVendor(&cfg.OpenAI, "OPENAI")
	readVendor(&cfg.OpenRouter, "OPENROUTER")
	readVendor(&cfg.Gemini, "GEMINI")

	if d, err := time.ParseDuration(os.Getenv("PRACTIZ_LLM_TIMEOUT")); err == nil && d > 0 {
		cfg.Timeout = d
	}

	if cfg.Provider == "" {
		if found, ok := DiscoverConfig(); ok {
			found.Retry, found.Timeout = cfg.Retry, cfg.Timeout
			return found
		}
	}
	return cfg
}

func readVendor(v *VendorConfig, name string) {
	if s := os.Getenv("PRACTIZ_" + name + "_API_KEY"); s != "" {
		v.APIKey = s
	}
	if s := os.Getenv("PRACTIZ_" + name + "_MODEL"); s != "" {
		v.Model = s
	}
	if s := os.Getenv("PRACTIZ_" + name + "_BASE_URL"); s != "" {
		v.BaseURL = s
	}
}

// DiscoverConfig looks for the vendors' own API key variables, in the
// order Gemini, OpenAI, Anthropic, OpenRouter, and selects the first found.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()
	probes := []struct {
		env      string
		provider string
		vendor   *VendorConfig
	}{
		{"GEMINI_API_KEY", ProviderGemini, &cfg.Gemini},
		{"OPENAI_API_KEY", ProviderOpenAI, &cfg.OpenAI},
		{"ANTHROPIC_API_KEY", ProviderAnthropic, &cfg.Anthropic},
		{"OPENROUTER_API_KEY", ProviderOpenRouter, &cfg.OpenRouter},
	}
	for _, p := range probes {
		if k := os.Getenv(p.env); k != "" {
			cfg.Provider = p.provider
			p.vendor.APIKey = k
			return cfg, true
		}
	}
	return Config{}, false
}

// Enabled reports whether a provider is selected.
func (c Config) Enabled() bool {
	return c.Provider != ""
}

// Validate checks that the selected provider has a key.
func (c Config) Validate() error {
	var v VendorConfig
	switch c.Provider {
	case "", ProviderMock:
		return nil
	case ProviderAnthropic:
		v = c.Anthropic
	case ProviderOpenAI:
		v = c.OpenAI
	case ProviderOpenRouter:
		v = c.OpenRouter
	case ProviderGemini:
		v = c.Gemini
	default:
		return fmt.Errorf("unknown llm provider %q", c.Provider)
	}
	if v.APIKey == "" {
		return fmt.Errorf("an API key is required for the %s provider", c.Provider)
	}
	return nil
}
