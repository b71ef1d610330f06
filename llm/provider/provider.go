// Package provider creates an llm.Client for a named provider.
package provider

import (
	"errors"
	"fmt"

	"github.com/jonwraymond/toolquery/config"
	"github.com/jonwraymond/toolquery/llm"
	"github.com/jonwraymond/toolquery/llm/anthropic"
	"github.com/jonwraymond/toolquery/llm/ollama"
	"github.com/jonwraymond/toolquery/llm/openai"
)

// ErrUnsupportedProvider is returned for an unknown provider name.
var ErrUnsupportedProvider = errors.New("unsupported model provider")

// Options selects and configures a provider.
type Options struct {
	Provider string
	Model    string

	// URL is the base URL (openai) or host (ollama).
	URL    string
	APIKey string
}

// FromConfig builds Options from the loaded configuration.
func FromConfig(cfg *config.Config) Options {
	opts := Options{
		Provider: cfg.LLMProvider,
		Model:    cfg.LLMModel,
		URL:      cfg.LLMBaseURL,
		APIKey:   cfg.APIKey(),
	}
	if cfg.LLMProvider == config.ProviderOllama {
		opts.URL = cfg.OllamaHost
	}
	return opts
}

// New creates the client for opts.Provider.
func New(opts Options) (llm.Client, error) {
	var (
		client llm.Client
		err    error
	)
	switch opts.Provider {
	case config.ProviderOpenAI:
		client, err = openai.New(openai.Options{APIKey: opts.APIKey, BaseURL: opts.URL, Model: opts.Model})
	case config.ProviderOllama:
		client, err = ollama.New(ollama.Options{Host: opts.URL, Model: opts.Model})
	case config.ProviderAnthropic:
		client, err = anthropic.New(anthropic.Options{APIKey: opts.APIKey, BaseURL: opts.URL, Model: opts.Model})
	case "":
		return nil, fmt.Errorf("%w: provider was empty", ErrUnsupportedProvider)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, opts.Provider)
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}
