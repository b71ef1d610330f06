package config

import (
	"errors"
	"os"
	"testing"
)

func clearServerEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GOOGLE_API_KEY", "GOOGLE_SEARCH_ENGINE_ID", "SEARCH_RESULTS",
		"GOOGLE_CREDENTIALS_FILE", "MAX_PDF_BYTES", "LOG_LEVEL",
	} {
		if v, ok := os.LookupEnv(k); ok {
			t.Cleanup(func() { os.Setenv(k, v) })
		}
		os.Unsetenv(k)
	}
}

func TestLoadSearchServer(t *testing.T) {
	clearServerEnv(t)
	t.Setenv("GOOGLE_API_KEY", "key")
	t.Setenv("GOOGLE_SEARCH_ENGINE_ID", "cx")

	cfg, err := LoadSearchServer()
	if err != nil {
		t.Fatalf("LoadSearchServer() failed: %v", err)
	}
	if cfg.GoogleAPIKey != "key" || cfg.SearchEngineID != "cx" {
		t.Errorf("credentials = %q/%q", cfg.GoogleAPIKey, cfg.SearchEngineID)
	}
	if cfg.Results != 10 {
		t.Errorf("Results = %d, want 10", cfg.Results)
	}
}

func TestLoadSearchServer_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing key", map[string]string{"GOOGLE_SEARCH_ENGINE_ID": "cx"}},
		{"missing engine", map[string]string{"GOOGLE_API_KEY": "key"}},
		{"too many results", map[string]string{"GOOGLE_API_KEY": "key", "GOOGLE_SEARCH_ENGINE_ID": "cx", "SEARCH_RESULTS": "11"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearServerEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadSearchServer()
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("LoadSearchServer() error = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestLoadDocsServer(t *testing.T) {
	clearServerEnv(t)
	t.Setenv("GOOGLE_CREDENTIALS_FILE", "/etc/creds.json")

	cfg, err := LoadDocsServer()
	if err != nil {
		t.Fatalf("LoadDocsServer() failed: %v", err)
	}
	if cfg.CredentialsFile != "/etc/creds.json" {
		t.Errorf("CredentialsFile = %q", cfg.CredentialsFile)
	}
	if cfg.MaxPDFBytes != 32<<20 {
		t.Errorf("MaxPDFBytes = %d, want %d", cfg.MaxPDFBytes, 32<<20)
	}

	t.Setenv("MAX_PDF_BYTES", "0")
	if _, err := LoadDocsServer(); !errors.Is(err, ErrConfiguration) {
		t.Errorf("LoadDocsServer() error = %v, want ErrConfiguration", err)
	}
}
