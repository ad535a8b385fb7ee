package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

// Error taxonomy for the scrape path. All of these are reported to the user
// as a single message at the dashboard boundary and never propagate further.
var (
	errValidation        = errors.New("validation error")
	errNetwork           = errors.New("network error")
	errBackend           = errors.New("backend error")
	errNoData            = errors.New("no data found")
	errSessionTerminated = errors.New("session terminated")
)

const (
	scrapeTimeout = 30 * time.Second
	healthTimeout = 5 * time.Second
)

// BackendClient talks to the scraping backend.
type BackendClient struct {
	http    *resty.Client
	baseURL string
}

// NewBackendClient creates a client for the given backend base URL.
func NewBackendClient(baseURL string) *BackendClient {
	return &BackendClient{
		http:    resty.New(),
		baseURL: baseURL,
	}
}

// backendError is the error envelope the backend returns on non-2xx.
type backendError struct {
	Error string `json:"error"`
}

// Scrape requests a scrape of targetURL and splits the reserved websiteSummary
// field out of the category map. The request is cancelled after 30 seconds.
func (c *BackendClient) Scrape(ctx context.Context, targetURL string) (CategorizedResults, *WebsiteSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, scrapeTimeout)
	defer cancel()

	slog.Debug("Requesting scrape", "url", c.scrapeRequestURL(targetURL))
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("url", targetURL).
		Get(c.baseURL + "/scrape")
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errNetwork, err)
	}

	if res.StatusCode() < 200 || res.StatusCode() >= 300 {
		var envelope backendError
		if err := json.Unmarshal(res.Body(), &envelope); err == nil && envelope.Error != "" {
			return nil, nil, fmt.Errorf("%w: %s", errBackend, envelope.Error)
		}
		return nil, nil, fmt.Errorf("%w: unexpected status %d", errBackend, res.StatusCode())
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(res.Body(), &raw); err != nil {
		return nil, nil, fmt.Errorf("%w: malformed response: %v", errBackend, err)
	}

	results := make(CategorizedResults)
	var summary *WebsiteSummary
	for key, value := range raw {
		if key == "websiteSummary" {
			var s WebsiteSummary
			if err := json.Unmarshal(value, &s); err != nil {
				slog.Warn("Ignoring malformed website summary", "error", err)
				continue
			}
			if !s.IsZero() {
				summary = &s
			}
			continue
		}

		var stories []Story
		if err := json.Unmarshal(value, &stories); err != nil {
			slog.Warn("Ignoring malformed category", "category", key, "error", err)
			continue
		}
		results[key] = stories
	}

	slog.Debug("Scrape response parsed", "categories", len(results), "stories", results.TotalStories(), "hasSummary", summary != nil)

	if results.IsEmpty() && summary == nil {
		return nil, nil, errNoData
	}
	return results, summary, nil
}

// Health probes the backend's liveness endpoint. Only reachability matters:
// any completed HTTP response means the server is alive, regardless of status.
func (c *BackendClient) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	_, err := c.http.R().
		SetContext(ctx).
		Get(c.baseURL + "/health")
	if err != nil {
		return fmt.Errorf("%w: %v", errNetwork, err)
	}
	return nil
}

// scrapeRequestURL is the full scrape URL for logging and debugging.
func (c *BackendClient) scrapeRequestURL(targetURL string) string {
	return c.baseURL + "/scrape?url=" + url.QueryEscape(targetURL)
}
