package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Storage keys for the four independently persisted session values. Absence
// of any key is a valid state meaning "nothing saved yet".
const (
	keyIdentity = "identity"
	keyResults  = "results"
	keyLastURL  = "last_url"
	keySummary  = "summary"
)

// SessionStore persists session state as string-keyed JSON values, the local
// stand-in for browser storage. Writes are whole-value replacements.
type SessionStore struct {
	db *sql.DB
}

// OpenSessionStore opens (and if needed creates) the session database.
func OpenSessionStore(dbPath string) (*SessionStore, error) {
	slog.Debug("Opening session store", "path", dbPath)

	db, err := sql.Open("sqlite", dbPath) // Use "sqlite" driver name
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Single connection: keeps writes serialized and makes :memory: behave
	db.SetMaxOpenConns(1)

	createTable := `
	CREATE TABLE IF NOT EXISTS session_store (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.Exec(createTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create session_store table: %w", err)
	}

	return &SessionStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SessionStore) Close() error {
	return s.db.Close()
}

// put JSON-serializes value under key, replacing any previous value.
func (s *SessionStore) put(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", key, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO session_store (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		key, string(data))
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}

	slog.Debug("Stored session value", "key", key)
	return nil
}

// get deserializes the value under key into out. A missing or unparseable
// value reads as absent (ok == false), never as an error to the caller.
func (s *SessionStore) get(key string, out any) bool {
	var data string
	err := s.db.QueryRow("SELECT value FROM session_store WHERE key = ?", key).Scan(&data)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		slog.Warn("Failed to read session value", "key", key, "error", err)
		return false
	}

	if err := json.Unmarshal([]byte(data), out); err != nil {
		slog.Warn("Discarding unparseable session value", "key", key, "error", err)
		return false
	}
	return true
}

// delete removes key from the store. Deleting an absent key is not an error.
func (s *SessionStore) delete(keys ...string) error {
	for _, key := range keys {
		if _, err := s.db.Exec("DELETE FROM session_store WHERE key = ?", key); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
	}
	return nil
}

// SaveIdentity persists the authenticated user.
func (s *SessionStore) SaveIdentity(identity UserIdentity) error {
	return s.put(keyIdentity, identity)
}

// LoadIdentity returns the persisted user, if any.
func (s *SessionStore) LoadIdentity() (UserIdentity, bool) {
	var identity UserIdentity
	ok := s.get(keyIdentity, &identity)
	return identity, ok && identity.Email != ""
}

// SaveResults persists the categorized result set.
func (s *SessionStore) SaveResults(results CategorizedResults) error {
	return s.put(keyResults, results)
}

// LoadResults returns the cached result set, if any.
func (s *SessionStore) LoadResults() (CategorizedResults, bool) {
	var results CategorizedResults
	ok := s.get(keyResults, &results)
	return results, ok && results != nil
}

// SaveLastURL persists the normalized URL of the most recent fresh scrape.
func (s *SessionStore) SaveLastURL(url string) error {
	return s.put(keyLastURL, url)
}

// LoadLastURL returns the cached scrape URL, if any.
func (s *SessionStore) LoadLastURL() (string, bool) {
	var url string
	ok := s.get(keyLastURL, &url)
	return url, ok && url != ""
}

// SaveSummary persists the website summary.
func (s *SessionStore) SaveSummary(summary *WebsiteSummary) error {
	if summary == nil {
		return s.delete(keySummary)
	}
	return s.put(keySummary, summary)
}

// LoadSummary returns the cached website summary, if any.
func (s *SessionStore) LoadSummary() (*WebsiteSummary, bool) {
	var summary WebsiteSummary
	if !s.get(keySummary, &summary) || summary.IsZero() {
		return nil, false
	}
	return &summary, true
}

// ClearScrapeCache removes the cached results, scrape URL and summary but
// leaves the identity alone.
func (s *SessionStore) ClearScrapeCache() error {
	return s.delete(keyResults, keyLastURL, keySummary)
}

// ClearAll removes every persisted key.
func (s *SessionStore) ClearAll() error {
	if _, err := s.db.Exec("DELETE FROM session_store"); err != nil {
		return fmt.Errorf("failed to clear session store: %w", err)
	}
	slog.Debug("Cleared all session state")
	return nil
}
