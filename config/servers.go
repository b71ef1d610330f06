package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// SearchServer configures the web search tool server.
type SearchServer struct {
	GoogleAPIKey   string `envconfig:"GOOGLE_API_KEY" required:"true"`
	SearchEngineID string `envconfig:"GOOGLE_SEARCH_ENGINE_ID" required:"true"`
	Results        int64  `envconfig:"SEARCH_RESULTS" default:"10"` // 1..10, a Custom Search API limit

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// DocsServer configures the Google Drive document server. Credentials come
// from GOOGLE_CREDENTIALS_FILE when set, otherwise from Application Default
// Credentials.
type DocsServer struct {
	CredentialsFile string `envconfig:"GOOGLE_CREDENTIALS_FILE"`
	GoogleAPIKey    string `envconfig:"GOOGLE_API_KEY"` // Public files only
	MaxPDFBytes     int64  `envconfig:"MAX_PDF_BYTES" default:"33554432"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadSearchServer reads the search server configuration.
func LoadSearchServer() (*SearchServer, error) {
	_ = godotenv.Load()

	var cfg SearchServer
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if cfg.Results < 1 || cfg.Results > 10 {
		return nil, fmt.Errorf("%w: SEARCH_RESULTS must be between 1 and 10", ErrConfiguration)
	}
	return &cfg, nil
}

// LoadDocsServer reads the docs server configuration.
func LoadDocsServer() (*DocsServer, error) {
	_ = godotenv.Load()

	var cfg DocsServer
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if cfg.MaxPDFBytes <= 0 {
		return nil, fmt.Errorf("%w: MAX_PDF_BYTES must be positive", ErrConfiguration)
	}
	return &cfg, nil
}
