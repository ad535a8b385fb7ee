package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// SummaryFetcher builds a WebsiteSummary from a page's own metadata when the
// backend did not supply one. OpenGraph properties win; plain meta tags fill
// the gaps.
type SummaryFetcher struct {
	client *http.Client
}

// NewSummaryFetcher creates a fetcher with a bounded request budget.
func NewSummaryFetcher() *SummaryFetcher {
	return &SummaryFetcher{
		client: &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Limit redirects to 10
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
	}
}

// Fetch downloads targetURL and extracts site metadata from its head.
func (f *SummaryFetcher) Fetch(ctx context.Context, targetURL string) (*WebsiteSummary, error) {
	parsedURL, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "scrapeview/1.0 (metadata fetcher)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	slog.Debug("Fetching page metadata", "url", targetURL)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return nil, fmt.Errorf("not an HTML page: %s", contentType)
	}

	// Limit response body size to 1MB
	limitedReader := io.LimitReader(resp.Body, 1024*1024)

	doc, err := goquery.NewDocumentFromReader(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	summary := extractSummary(doc)
	summary.Domain = parsedURL.Host
	cleanSummary(summary)

	if summary.IsZero() {
		return nil, fmt.Errorf("no usable metadata found")
	}

	slog.Debug("Extracted page metadata", "url", targetURL, "title", summary.Title)
	return summary, nil
}

// extractSummary pulls metadata out of a parsed document.
func extractSummary(doc *goquery.Document) *WebsiteSummary {
	summary := &WebsiteSummary{}

	doc.Find("meta").Each(func(i int, s *goquery.Selection) {
		content, ok := s.Attr("content")
		if !ok || content == "" {
			return
		}

		if property, ok := s.Attr("property"); ok {
			switch property {
			case "og:title":
				setIfEmpty(&summary.Title, content)
			case "og:type":
				setIfEmpty(&summary.Type, content)
			case "og:site_name":
				setIfEmpty(&summary.SiteName, content)
			case "og:description":
				setIfEmpty(&summary.Description, content)
			case "og:image":
				setIfEmpty(&summary.Image, content)
			case "og:locale":
				setIfEmpty(&summary.Language, content)
			}
			return
		}

		if name, ok := s.Attr("name"); ok {
			switch name {
			case "author":
				setIfEmpty(&summary.Author, content)
			case "publisher":
				setIfEmpty(&summary.Publisher, content)
			case "copyright":
				setIfEmpty(&summary.Copyright, content)
			case "description":
				setIfEmpty(&summary.Description, content)
			case "keywords":
				setIfEmpty(&summary.Keywords, content)
			case "theme-color":
				setIfEmpty(&summary.ThemeColor, content)
			case "application-name":
				setIfEmpty(&summary.AppName, content)
			}
		}
	})

	// Fallbacks outside the meta tags
	if summary.Title == "" {
		summary.Title = doc.Find("title").First().Text()
	}
	if lang, ok := doc.Find("html").First().Attr("lang"); ok {
		setIfEmpty(&summary.Language, lang)
	}
	if favicon, ok := doc.Find(`link[rel="icon"], link[rel="shortcut icon"]`).First().Attr("href"); ok {
		summary.Favicon = favicon
	}

	return summary
}

// setIfEmpty assigns value to dst only when dst is still unset.
func setIfEmpty(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}

// cleanSummary trims whitespace and drops invalid URLs.
func cleanSummary(summary *WebsiteSummary) {
	summary.Title = strings.TrimSpace(summary.Title)
	summary.Description = strings.TrimSpace(summary.Description)
	summary.SiteName = strings.TrimSpace(summary.SiteName)
	summary.Author = strings.TrimSpace(summary.Author)

	if summary.Image != "" {
		if _, err := url.Parse(summary.Image); err != nil {
			summary.Image = ""
		}
	}
}
