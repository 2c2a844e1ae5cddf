package sources

import (
	"context"

	"github.com/azure/mention-tracker/internal/models"
)

// MentionFetcher retrieves raw Hacker News hits for a query.
// Failures are reported as ErrUpstreamUnavailable or ErrUpstreamError.
type MentionFetcher interface {
	GetName() string
	FetchMentions(ctx context.Context, query string) ([]models.RawHit, error)
}

// WebScraper retrieves best-effort web mentions for a query. It never fails;
// problems are reported in the returned batch's Error field.
type WebScraper interface {
	GetName() string
	Scrape(ctx context.Context, query string, limit int) *models.WebMentionBatch
}
