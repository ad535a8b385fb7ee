package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all externally supplied settings. Values come from the
// environment, optionally seeded from a .env file in the working directory.
type Config struct {
	BackendURL         string
	GoogleClientID     string
	GoogleClientSecret string
	DBPath             string
	LogLevel           string
}

// DefaultBackendURL is used when no backend is configured.
const DefaultBackendURL = "http://localhost:8080"

// LoadConfig reads configuration from the environment. A .env file is loaded
// first if one exists; real environment variables win over it.
func LoadConfig() Config {
	if err := godotenv.Load(); err == nil {
		slog.Debug("Loaded .env file")
	}

	cfg := Config{
		BackendURL:         os.Getenv("SCRAPEVIEW_BACKEND_URL"),
		GoogleClientID:     os.Getenv("SCRAPEVIEW_GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("SCRAPEVIEW_GOOGLE_CLIENT_SECRET"),
		DBPath:             os.Getenv("SCRAPEVIEW_DB_PATH"),
		LogLevel:           os.Getenv("SCRAPEVIEW_LOG_LEVEL"),
	}

	if cfg.BackendURL == "" {
		slog.Debug("No backend URL configured, using default", "url", DefaultBackendURL)
		cfg.BackendURL = DefaultBackendURL
	}
	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")

	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath()
	}

	return cfg
}

// ValidateForLogin checks the settings the OAuth flow needs. Scraping against
// an already persisted session works without them.
func (c Config) ValidateForLogin() error {
	if c.GoogleClientID == "" {
		return fmt.Errorf("SCRAPEVIEW_GOOGLE_CLIENT_ID is required for login")
	}
	if c.GoogleClientSecret == "" {
		return fmt.Errorf("SCRAPEVIEW_GOOGLE_CLIENT_SECRET is required for login")
	}
	return nil
}

// defaultDBPath places the session database next to the executable.
func defaultDBPath() string {
	exePath, err := os.Executable()
	if err != nil {
		slog.Warn("Error getting executable path, using working directory", "error", err)
		return "scrapeview.db"
	}
	return filepath.Join(filepath.Dir(exePath), "scrapeview.db")
}

// configureLogging sets up slog according to the configured level.
func configureLogging(level string) {
	var slogLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelWarn
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(handler))
}
