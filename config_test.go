package main

import (
	"strings"
	"testing"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("SCRAPEVIEW_BACKEND_URL", "")
	t.Setenv("SCRAPEVIEW_GOOGLE_CLIENT_ID", "")
	t.Setenv("SCRAPEVIEW_GOOGLE_CLIENT_SECRET", "")
	t.Setenv("SCRAPEVIEW_DB_PATH", "")
	t.Setenv("SCRAPEVIEW_LOG_LEVEL", "")

	cfg := LoadConfig()

	if cfg.BackendURL != DefaultBackendURL {
		t.Errorf("Expected default backend URL, got %q", cfg.BackendURL)
	}
	if cfg.DBPath == "" {
		t.Error("Expected a default database path")
	}
	if !strings.HasSuffix(cfg.DBPath, "scrapeview.db") {
		t.Errorf("Unexpected default database path: %q", cfg.DBPath)
	}
}

func TestLoadConfig_TrimsTrailingSlash(t *testing.T) {
	t.Setenv("SCRAPEVIEW_BACKEND_URL", "https://scraper.example.com/")

	cfg := LoadConfig()
	if cfg.BackendURL != "https://scraper.example.com" {
		t.Errorf("Trailing slash not trimmed: %q", cfg.BackendURL)
	}
}

func TestConfig_ValidateForLogin(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"both present", Config{GoogleClientID: "id", GoogleClientSecret: "secret"}, false},
		{"missing id", Config{GoogleClientSecret: "secret"}, true},
		{"missing secret", Config{GoogleClientID: "id"}, true},
		{"missing both", Config{}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.ValidateForLogin()
			if tc.wantErr && err == nil {
				t.Error("Expected a validation error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}
