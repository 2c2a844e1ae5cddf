package models

import "time"

// Kinds of Hacker News items
const (
	KindStory = "story" // self post with a text body
	KindLink  = "link"  // submission pointing at an external URL
)

// RawHit is one item returned by the Hacker News search index
type RawHit struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       *string   `json:"url"` // external link, nil for text posts
	HNURL     string    `json:"hnUrl"`
	Author    string    `json:"author"`
	Points    int       `json:"points"`
	Comments  int       `json:"comments"`
	CreatedAt time.Time `json:"date"`
	Kind      string    `json:"type"` // KindStory or KindLink
}

// DayBucket aggregates the mentions of one calendar day
type DayBucket struct {
	Date          string   `json:"date"` // YYYY-MM-DD
	MentionCount  int      `json:"count"`
	TotalPoints   int      `json:"points"`
	TotalComments int      `json:"comments"`
	Items         []RawHit `json:"items"`
}

// MentionSummary is the aggregated Hacker News view of one query
type MentionSummary struct {
	Query         string      `json:"query"`
	TotalMentions int         `json:"totalMentions"`
	TotalPoints   int         `json:"totalPoints"`
	TotalComments int         `json:"totalComments"`
	DailyBuckets  []DayBucket `json:"dailyMetrics"`
	AllItems      []RawHit    `json:"items"`
}

// WebMention is a single result scraped from the web search source
type WebMention struct {
	Title   string    `json:"title"`
	URL     string    `json:"url"`
	Snippet string    `json:"snippet"`
	Source  string    `json:"source"` // always "web"
	Date    time.Time `json:"date"`   // retrieval time, the source exposes no publish date
}

// WebMentionBatch holds the best-effort web results for one query.
// A non-empty Error means the web path degraded; Results is then empty.
type WebMentionBatch struct {
	Query   string       `json:"query"`
	Results []WebMention `json:"results"`
	Error   string       `json:"error,omitempty"`
}

// CombinedSearchResult is the unit handed to the presentation layer
type CombinedSearchResult struct {
	Query          string           `json:"query"`
	MentionSummary *MentionSummary  `json:"mentionSummary"`
	WebMentions    *WebMentionBatch `json:"webMentions"`
}

// Digest is the periodic watchlist report
type Digest struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Schedule    string        `json:"schedule"`
	Entries     []DigestEntry `json:"entries"`
}

// DigestEntry is the outcome of one watched query. Error is set when the
// search failed; Result is nil in that case.
type DigestEntry struct {
	Query  string                `json:"query"`
	Result *CombinedSearchResult `json:"result,omitempty"`
	Error  string                `json:"error,omitempty"`
}

// TotalMentions sums Hacker News mentions across all successful entries
func (d *Digest) TotalMentions() int {
	total := 0
	for _, entry := range d.Entries {
		if entry.Result != nil && entry.Result.MentionSummary != nil {
			total += entry.Result.MentionSummary.TotalMentions
		}
	}
	return total
}
