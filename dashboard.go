package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Message display lifetimes, matching the portal's notification timers.
const (
	successMessageTTL = 5 * time.Second
	errorMessageTTL   = 10 * time.Second
)

// StatusMessage is a user-visible notice with an expiry for watch-mode
// rendering. Expired messages are simply not rendered.
type StatusMessage struct {
	Text      string
	IsError   bool
	ExpiresAt time.Time
}

// Active reports whether the message should still be shown.
func (m StatusMessage) Active() bool {
	return m.Text != "" && time.Now().Before(m.ExpiresAt)
}

// Dashboard owns all working session state and orchestrates scrapes against
// it. All mutations of the cached state go through its methods; nothing else
// writes to the store.
type Dashboard struct {
	store   *SessionStore
	client  *BackendClient
	fetcher *SummaryFetcher

	// Per-operation re-entrancy tokens. A scrape and a refresh may overlap,
	// but the same operation never runs against itself.
	scrapeMu  sync.Mutex
	refreshMu sync.Mutex

	mu       sync.Mutex
	identity *UserIdentity
	results  CategorizedResults
	lastURL  string
	summary  *WebsiteSummary
	status   StatusMessage
}

// NewDashboard creates a dashboard and restores any previously persisted
// state. Identity and scrape cache are restored independently: a cleared
// identity does not invalidate cached results from an earlier session.
func NewDashboard(store *SessionStore, client *BackendClient, fetcher *SummaryFetcher) *Dashboard {
	d := &Dashboard{
		store:   store,
		client:  client,
		fetcher: fetcher,
	}

	if identity, ok := store.LoadIdentity(); ok {
		d.identity = &identity
		slog.Debug("Restored identity", "email", identity.Email)
	}
	if results, ok := store.LoadResults(); ok {
		d.results = results
	}
	if lastURL, ok := store.LoadLastURL(); ok {
		d.lastURL = lastURL
	}
	if summary, ok := store.LoadSummary(); ok {
		d.summary = summary
	}

	return d
}

// Identity returns the authenticated user, if any.
func (d *Dashboard) Identity() *UserIdentity {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.identity
}

// Results returns the cached result set.
func (d *Dashboard) Results() CategorizedResults {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.results
}

// LastURL returns the normalized URL of the most recent fresh scrape.
func (d *Dashboard) LastURL() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastURL
}

// Summary returns the cached website summary, if any.
func (d *Dashboard) Summary() *WebsiteSummary {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.summary
}

// Status returns the current status message.
func (d *Dashboard) Status() StatusMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

// setStatus records a user-visible message with the appropriate lifetime.
func (d *Dashboard) setStatus(text string, isError bool) {
	ttl := successMessageTTL
	if isError {
		ttl = errorMessageTTL
	}
	d.mu.Lock()
	d.status = StatusMessage{Text: text, IsError: isError, ExpiresAt: time.Now().Add(ttl)}
	d.mu.Unlock()
}

// Scrape performs a fresh scrape of rawURL, replacing the cached state.
func (d *Dashboard) Scrape(ctx context.Context, rawURL string) (ScrapeOutcome, error) {
	if !d.scrapeMu.TryLock() {
		return ScrapeOutcome{}, fmt.Errorf("%w: a scrape is already in progress", errValidation)
	}
	defer d.scrapeMu.Unlock()

	return d.runScrape(ctx, rawURL, false)
}

// Refresh performs a merge-mode scrape of the cached URL: newly scraped
// stories are deduplicated against the cached ones and appended.
func (d *Dashboard) Refresh(ctx context.Context) (ScrapeOutcome, error) {
	if !d.refreshMu.TryLock() {
		return ScrapeOutcome{}, fmt.Errorf("%w: a refresh is already in progress", errValidation)
	}
	defer d.refreshMu.Unlock()

	lastURL := d.LastURL()
	if lastURL == "" {
		return ScrapeOutcome{}, fmt.Errorf("%w: nothing scraped yet, nothing to refresh", errValidation)
	}
	return d.runScrape(ctx, lastURL, true)
}

// runScrape is the shared scrape path. Merge mode is only honored when the
// normalized URL matches the cached one; otherwise the request silently
// degrades to a fresh scrape.
func (d *Dashboard) runScrape(ctx context.Context, rawURL string, merge bool) (ScrapeOutcome, error) {
	normalized, err := normalizeInputURL(rawURL)
	if err != nil {
		d.setStatus(err.Error(), true)
		return ScrapeOutcome{}, err
	}

	if merge && normalized != d.LastURL() {
		slog.Debug("Merge requested for a different URL, treating as fresh", "url", normalized)
		merge = false
	}

	incoming, summary, err := d.client.Scrape(ctx, normalized)
	if errors.Is(err, errNoData) {
		d.setStatus("No scrapable data found on that page. Try another URL.", false)
		return ScrapeOutcome{Message: "No scrapable data found on that page. Try another URL."}, nil
	}
	if err != nil {
		d.setStatus(err.Error(), true)
		return ScrapeOutcome{}, err
	}

	var outcome ScrapeOutcome
	if merge {
		merged, added := mergeResults(d.Results(), incoming)
		outcome = ScrapeOutcome{
			Results:    merged,
			Summary:    d.Summary(), // merge never touches the summary
			AddedCount: added,
			Merged:     true,
		}
		if added == 0 {
			outcome.Message = "No new items found"
		} else {
			outcome.Message = fmt.Sprintf("%d new unique items added", added)
		}
	} else {
		if summary == nil && d.fetcher != nil {
			summary = d.fetchFallbackSummary(ctx, normalized)
		}
		outcome = ScrapeOutcome{
			Results: incoming,
			Summary: summary,
			Message: fmt.Sprintf("%d items scraped from %s", incoming.TotalStories(), normalized),
		}
	}

	if err := d.persist(outcome, normalized, merge); err != nil {
		d.setStatus(err.Error(), true)
		return ScrapeOutcome{}, err
	}

	d.mu.Lock()
	d.results = outcome.Results
	d.lastURL = normalized
	d.summary = outcome.Summary
	d.mu.Unlock()

	d.setStatus(outcome.Message, false)
	slog.Info("Scrape complete", "url", normalized, "merge", merge, "stories", outcome.Results.TotalStories())
	return outcome, nil
}

// fetchFallbackSummary builds a website summary locally when the backend did
// not supply one. Best effort only.
func (d *Dashboard) fetchFallbackSummary(ctx context.Context, pageURL string) *WebsiteSummary {
	summary, err := d.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		slog.Debug("Fallback summary fetch failed", "url", pageURL, "error", err)
		return nil
	}
	return summary
}

// persist writes the outcome to the store. On a fresh scrape the summary is
// replaced wholesale (including removal when absent); on merge it is left as
// stored.
func (d *Dashboard) persist(outcome ScrapeOutcome, normalized string, merge bool) error {
	if err := d.store.SaveResults(outcome.Results); err != nil {
		return err
	}
	if err := d.store.SaveLastURL(normalized); err != nil {
		return err
	}
	if !merge {
		if err := d.store.SaveSummary(outcome.Summary); err != nil {
			return err
		}
	}
	return nil
}

// SetIdentity records a freshly authenticated user and persists it.
func (d *Dashboard) SetIdentity(identity UserIdentity) error {
	if err := d.store.SaveIdentity(identity); err != nil {
		return err
	}
	d.mu.Lock()
	d.identity = &identity
	d.mu.Unlock()
	slog.Info("Logged in", "email", identity.Email)
	return nil
}

// Logout clears the identity and all cached scrape state, including the
// website summary, so a later login never observes a stale summary.
func (d *Dashboard) Logout() error {
	if err := d.store.delete(keyIdentity); err != nil {
		return err
	}
	if err := d.store.ClearScrapeCache(); err != nil {
		return err
	}

	d.mu.Lock()
	d.identity = nil
	d.results = nil
	d.lastURL = ""
	d.summary = nil
	d.mu.Unlock()

	slog.Info("Logged out")
	return nil
}

// ForceLogout is the health monitor's escalation path: tear the session down
// and surface a terminal error message.
func (d *Dashboard) ForceLogout() {
	if err := d.Logout(); err != nil {
		slog.Error("Forced logout failed to clear state", "error", err)
	}
	d.setStatus(fmt.Sprintf("%v: backend unreachable, you have been logged out", errSessionTerminated), true)
}

// ClearAll erases every persisted key and resets working state.
func (d *Dashboard) ClearAll() error {
	if err := d.store.ClearAll(); err != nil {
		return err
	}

	d.mu.Lock()
	d.identity = nil
	d.results = nil
	d.lastURL = ""
	d.summary = nil
	d.status = StatusMessage{}
	d.mu.Unlock()

	return nil
}
