package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/azure/mention-tracker/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const (
	// hackerNewsWindow is how far back the search index is queried
	hackerNewsWindow = 7 * 24 * time.Hour

	// hackerNewsPageSize is the maximum page size the search index accepts
	hackerNewsPageSize = 1000

	hackerNewsItemURL = "https://news.ycombinator.com/item?id="
)

// HackerNewsSource implements the Hacker News search index source
type HackerNewsSource struct {
	client    *resty.Client
	searchURL string
	now       func() time.Time
}

// Ensure HackerNewsSource implements MentionFetcher
var _ MentionFetcher = (*HackerNewsSource)(nil)

type hackerNewsSearchResponse struct {
	Hits []hackerNewsHit `json:"hits"`
}

type hackerNewsHit struct {
	ObjectID    string  `json:"objectID"`
	Title       string  `json:"title"`
	URL         *string `json:"url"`
	Author      string  `json:"author"`
	Points      *int    `json:"points"`
	NumComments *int    `json:"num_comments"`
	StoryText   *string `json:"story_text"`
	CreatedAt   string  `json:"created_at"`
	CreatedAtI  int64   `json:"created_at_i"`
}

// NewHackerNewsSource creates a new Hacker News source querying searchURL
func NewHackerNewsSource(searchURL string, timeout time.Duration) *HackerNewsSource {
	return &HackerNewsSource{
		client: resty.New().
			SetTimeout(timeout).
			SetHeader("User-Agent", "Mention-Tracker/1.0").
			SetHeader("Accept", "application/json"),
		searchURL: searchURL,
		now:       time.Now,
	}
}

func (h *HackerNewsSource) GetName() string {
	return "hackernews"
}

// FetchMentions returns every item created in the last seven days that
// matches query. One request is made, without retries.
func (h *HackerNewsSource) FetchMentions(ctx context.Context, query string) ([]models.RawHit, error) {
	since := h.now().Add(-hackerNewsWindow)

	resp, err := h.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"query":          query,
			"numericFilters": fmt.Sprintf("created_at_i>%d", since.Unix()),
			"hitsPerPage":    strconv.Itoa(hackerNewsPageSize),
		}).
		Get(h.searchURL)

	if err != nil {
		return nil, fmt.Errorf("%w: hacker news search: %w", ErrUpstreamUnavailable, err)
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: hacker news search returned status %d", ErrUpstreamUnavailable, resp.StatusCode())
	}

	var body hackerNewsSearchResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("%w: decoding hacker news response: %w", ErrUpstreamError, err)
	}

	hits := make([]models.RawHit, 0, len(body.Hits))
	for _, hit := range body.Hits {
		hits = append(hits, hit.toRawHit())
	}

	logrus.WithFields(logrus.Fields{
		"source": h.GetName(),
		"query":  query,
		"hits":   len(hits),
	}).Debug("Fetched Hacker News hits")

	return hits, nil
}

func (hit hackerNewsHit) toRawHit() models.RawHit {
	raw := models.RawHit{
		ID:        hit.ObjectID,
		Title:     hit.Title,
		HNURL:     hackerNewsItemURL + hit.ObjectID,
		Author:    hit.Author,
		CreatedAt: hit.createdAt(),
		Kind:      models.KindLink,
	}

	if hit.URL != nil && *hit.URL != "" {
		u := *hit.URL
		raw.URL = &u
	}
	if hit.Points != nil && *hit.Points > 0 {
		raw.Points = *hit.Points
	}
	if hit.NumComments != nil && *hit.NumComments > 0 {
		raw.Comments = *hit.NumComments
	}
	if hit.StoryText != nil && *hit.StoryText != "" {
		raw.Kind = models.KindStory
	}

	return raw
}

// createdAt prefers the epoch field and falls back to the ISO timestamp.
// The zero time marks a hit without a usable timestamp.
func (hit hackerNewsHit) createdAt() time.Time {
	if hit.CreatedAtI > 0 {
		return time.Unix(hit.CreatedAtI, 0).UTC()
	}
	if hit.CreatedAt == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339, hit.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return parsed.UTC()
}
