package main

// UserIdentity is the authenticated Google user as persisted for the session.
type UserIdentity struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	PictureURL string `json:"pictureUrl"`
	Token      string `json:"token"`
}

// Story is a single scraped item within a category. A Link of "#" means the
// backend found no usable link for the item.
type Story struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Company string `json:"company"`
	Snippet string `json:"snippet,omitempty"`
}

// NoLink is the sentinel link value for stories without a usable URL.
const NoLink = "#"

// CategorizedResults maps a category label to its ordered stories. Order
// within a category is display order and must be preserved.
type CategorizedResults map[string][]Story

// knownCategories is the fixed label set the backend buckets stories into,
// in display order. Labels outside this set are rendered after it.
var knownCategories = []string{
	"Tech",
	"AI",
	"Startups",
	"Tutorials",
	"OpenSource",
	"Programming",
	"Web",
	"Security",
	"Jobs",
	"Other",
}

// TotalStories counts stories across all categories.
func (r CategorizedResults) TotalStories() int {
	total := 0
	for _, stories := range r {
		total += len(stories)
	}
	return total
}

// IsEmpty reports whether no category holds any story.
func (r CategorizedResults) IsEmpty() bool {
	return r.TotalStories() == 0
}

// WebsiteSummary is flat metadata about the scraped site as a whole. It is
// replaced wholesale on a fresh scrape and retained untouched on refresh.
type WebsiteSummary struct {
	Title       string `json:"title,omitempty"`
	Domain      string `json:"domain,omitempty"`
	Type        string `json:"type,omitempty"`
	Language    string `json:"language,omitempty"`
	SiteName    string `json:"siteName,omitempty"`
	Author      string `json:"author,omitempty"`
	Publisher   string `json:"publisher,omitempty"`
	ThemeColor  string `json:"themeColor,omitempty"`
	AppName     string `json:"appName,omitempty"`
	Copyright   string `json:"copyright,omitempty"`
	Description string `json:"description,omitempty"`
	Keywords    string `json:"keywords,omitempty"`
	Image       string `json:"image,omitempty"`
	Favicon     string `json:"favicon,omitempty"`
}

// IsZero reports whether the summary carries no metadata at all.
func (s *WebsiteSummary) IsZero() bool {
	return s == nil || *s == WebsiteSummary{}
}

// ScrapeOutcome is what a completed scrape reports back to the caller.
type ScrapeOutcome struct {
	Results CategorizedResults
	Summary *WebsiteSummary
	// AddedCount is only meaningful in merge mode: the number of new unique
	// stories appended to the cached set.
	AddedCount int
	Merged     bool
	Message    string
}
