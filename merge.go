package main

import (
	"fmt"
	"strings"
)

// normalizeInputURL trims the raw input and prepends https:// when no scheme
// is present. The normalized form is both the request parameter and the cache
// key, so "example.com" and "https://example.com" refresh the same entry.
func normalizeInputURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty URL", errValidation)
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "https://" + trimmed
	}
	return trimmed, nil
}

// normalizeKey lowercases and trims a dedup key component.
func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// mergeResults combines freshly scraped stories with the previously cached
// ones, category by category. Existing stories are never dropped or reordered;
// incoming stories are appended in their original order when they are not
// duplicates of anything already present. The returned count is the total
// number of stories appended across all categories.
//
// A story is a duplicate when its normalized link OR normalized title already
// exists in the category. Stories carrying the "#" no-link sentinel are judged
// on title alone.
func mergeResults(existing, incoming CategorizedResults) (CategorizedResults, int) {
	merged := make(CategorizedResults, len(existing)+len(incoming))
	for category, stories := range existing {
		merged[category] = append([]Story(nil), stories...)
	}

	added := 0
	for category, stories := range incoming {
		links := make(map[string]bool)
		titles := make(map[string]bool)
		for _, s := range merged[category] {
			links[normalizeKey(s.Link)] = true
			titles[normalizeKey(s.Title)] = true
		}

		for _, s := range stories {
			link := normalizeKey(s.Link)
			title := normalizeKey(s.Title)

			keep := false
			if s.Link == NoLink {
				keep = !titles[title]
			} else {
				keep = !links[link] && !titles[title]
			}
			if !keep {
				continue
			}

			merged[category] = append(merged[category], s)
			links[link] = true
			titles[title] = true
			added++
		}
	}

	return merged, added
}
