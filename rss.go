package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/feeds"
)

// orderedCategories returns the categories present in results: the fixed
// label set first, in display order, then any backend-invented labels
// alphabetically after it.
func orderedCategories(results CategorizedResults) []string {
	var ordered []string
	seen := make(map[string]bool)

	for _, category := range knownCategories {
		if len(results[category]) > 0 {
			ordered = append(ordered, category)
			seen[category] = true
		}
	}

	var extras []string
	for category, stories := range results {
		if !seen[category] && len(stories) > 0 {
			extras = append(extras, category)
		}
	}
	sort.Strings(extras)

	return append(ordered, extras...)
}

// renderResults formats the cached state for the terminal.
func renderResults(results CategorizedResults, summary *WebsiteSummary, lastURL string) string {
	var out strings.Builder

	if lastURL != "" {
		fmt.Fprintf(&out, "Results for %s (%d items)\n", lastURL, results.TotalStories())
	}

	if !summary.IsZero() {
		out.WriteString("\n")
		if summary.Title != "" {
			fmt.Fprintf(&out, "  %s\n", summary.Title)
		}
		if summary.SiteName != "" || summary.Domain != "" {
			fmt.Fprintf(&out, "  %s %s\n", summary.SiteName, summary.Domain)
		}
		if summary.Description != "" {
			fmt.Fprintf(&out, "  %s\n", summary.Description)
		}
	}

	for _, category := range orderedCategories(results) {
		fmt.Fprintf(&out, "\n%s (%d)\n", category, len(results[category]))
		for _, story := range results[category] {
			fmt.Fprintf(&out, "  - %s", story.Title)
			if story.Company != "" {
				fmt.Fprintf(&out, " [%s]", story.Company)
			}
			out.WriteString("\n")
			if story.Link != NoLink && story.Link != "" {
				fmt.Fprintf(&out, "    %s\n", story.Link)
			}
			if story.Snippet != "" {
				fmt.Fprintf(&out, "    %s\n", story.Snippet)
			}
		}
	}

	if results.IsEmpty() && summary.IsZero() {
		out.WriteString("Nothing cached yet. Run 'scrapeview scrape <url>' first.\n")
	}

	return out.String()
}

// generateFeed creates an Atom feed from the cached result set, one entry per
// story, grouped by category in display order.
func generateFeed(results CategorizedResults, summary *WebsiteSummary, lastURL string) (string, error) {
	slog.Debug("Generating feed", "itemCount", results.TotalStories())
	now := time.Now()

	title := "scrapeview results"
	if !summary.IsZero() && summary.Title != "" {
		title = summary.Title
	}
	description := fmt.Sprintf("Scraped stories from %s", lastURL)
	if !summary.IsZero() && summary.Description != "" {
		description = summary.Description
	}

	feed := &feeds.Feed{
		Title:       title,
		Description: description,
		Link:        &feeds.Link{Href: lastURL, Rel: "self", Type: "text/html"},
		Id:          fmt.Sprintf("tag:scrapeview:%s", lastURL),
		Created:     now,
		Updated:     now,
	}

	for _, category := range orderedCategories(results) {
		for i, story := range results[category] {
			link := story.Link
			if link == NoLink || link == "" {
				link = lastURL
			}

			feed.Items = append(feed.Items, &feeds.Item{
				Title: story.Title,
				Link:  &feeds.Link{Href: link},
				Id:    fmt.Sprintf("tag:scrapeview:%s:%s:%d", lastURL, category, i),
				Author: &feeds.Author{
					Name: story.Company,
				},
				Description: fmt.Sprintf("Category: %s | %s", category, story.Snippet),
				Created:     now,
				Updated:     now,
			})
		}
	}

	atom, err := feed.ToAtom()
	if err != nil {
		return "", fmt.Errorf("failed to render feed: %w", err)
	}
	return atom, nil
}

// exportFeed writes the Atom feed for the cached state into outDir.
func exportFeed(d *Dashboard, outDir string) (string, error) {
	if d.Results().IsEmpty() {
		return "", fmt.Errorf("%w: nothing cached to export", errValidation)
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	atom, err := generateFeed(d.Results(), d.Summary(), d.LastURL())
	if err != nil {
		return "", err
	}

	filename := filepath.Join(outDir, "scrapeview.xml")
	if err := os.WriteFile(filename, []byte(atom), 0644); err != nil {
		return "", fmt.Errorf("failed to write feed: %w", err)
	}

	slog.Info("Feed saved", "count", d.Results().TotalStories(), "filename", filename)
	return filename, nil
}
