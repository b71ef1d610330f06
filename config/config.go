// Package config loads the client configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ErrConfiguration reports an invalid configuration.
var ErrConfiguration = errors.New("invalid configuration")

// Model providers.
const (
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
)

// Config holds all configuration for the toolquery client.
type Config struct {
	// Language model
	LLMProvider     string `envconfig:"LLM_PROVIDER" default:"openai"` // openai, ollama, anthropic
	LLMModel        string `envconfig:"LLM_MODEL"`                     // Provider default when empty
	LLMBaseURL      string `envconfig:"LLM_BASE_URL"`                  // OpenAI-compatible endpoint; Groq when empty
	LLMAPIKey       string `envconfig:"LLM_API_KEY"`
	GroqAPIKey      string `envconfig:"GROQ_API_KEY"` // Fallback for LLM_API_KEY
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY"`
	OllamaHost      string `envconfig:"OLLAMA_HOST" default:"http://localhost:11434"`

	// Backends
	BackendsFile    string        `envconfig:"BACKENDS_FILE"` // YAML backend list; built-in docs/search when empty
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	ParallelConnect bool          `envconfig:"PARALLEL_CONNECT" default:"false"`

	// Conversations
	HistoryLimit int `envconfig:"HISTORY_LIMIT" default:"20"` // Messages of history sent with each query

	// Observability
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty   bool   `envconfig:"LOG_PRETTY" default:"false"`
	MetricsAddr string `envconfig:"METRICS_ADDR"` // e.g. :9090; metrics disabled when empty
}

// Load reads a .env file if present, then the environment, and validates
// the result.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFromEnv()
}

// LoadFromEnv reads the environment without looking for a .env file.
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// APIKey returns the key for the configured provider. LLM_API_KEY wins;
// openai falls back to GROQ_API_KEY and anthropic to ANTHROPIC_API_KEY.
func (c *Config) APIKey() string {
	if c.LLMAPIKey != "" {
		return c.LLMAPIKey
	}
	switch c.LLMProvider {
	case ProviderOpenAI:
		return c.GroqAPIKey
	case ProviderAnthropic:
		return c.AnthropicAPIKey
	}
	return ""
}

// Validate checks the provider, its credentials and the timeouts.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderOpenAI, ProviderAnthropic:
		if c.APIKey() == "" {
			return fmt.Errorf("%w: an API key is required for provider %q (LLM_API_KEY)", ErrConfiguration, c.LLMProvider)
		}
	case ProviderOllama:
	default:
		return fmt.Errorf("%w: unknown LLM_PROVIDER %q", ErrConfiguration, c.LLMProvider)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: REQUEST_TIMEOUT must be positive", ErrConfiguration)
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("%w: HISTORY_LIMIT must not be negative", ErrConfiguration)
	}
	return nil
}
