package search

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/azure/mention-tracker/internal/aggregation"
	"github.com/azure/mention-tracker/internal/config"
	"github.com/azure/mention-tracker/internal/models"
	"github.com/azure/mention-tracker/internal/sources"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// ErrInvalidQuery is returned for empty or whitespace-only queries
var ErrInvalidQuery = errors.New("query must not be empty")

// Service runs the Hacker News and web mention paths for a query
type Service struct {
	config     *config.Config
	fetcher    sources.MentionFetcher
	scraper    sources.WebScraper
	aggregator *aggregation.Aggregator
	flight     singleflight.Group
	stats      Stats
	mu         sync.RWMutex
}

// Stats holds process-local search counters
type Stats struct {
	TotalSearches      int       `json:"total_searches"`
	FailedSearches     int       `json:"failed_searches"`
	DegradedWebBatches int       `json:"degraded_web_batches"`
	LastSearch         time.Time `json:"last_search"`
	LastSearchDuration string    `json:"last_search_duration"`
}

// NewService creates a new search service
func NewService(cfg *config.Config, fetcher sources.MentionFetcher, scraper sources.WebScraper, aggregator *aggregation.Aggregator) *Service {
	return &Service{
		config:     cfg,
		fetcher:    fetcher,
		scraper:    scraper,
		aggregator: aggregator,
	}
}

// Search runs both paths concurrently and combines them. A Hacker News
// failure fails the whole search with that path's error; the web path only
// ever degrades into its batch's Error field. A non-positive limit uses the
// configured number of web results.
func (s *Service) Search(ctx context.Context, query string, limit int) (*models.CombinedSearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrInvalidQuery
	}
	if limit <= 0 {
		limit = s.config.WebResultLimit
	}

	if !s.config.CoalesceQueries {
		return s.search(ctx, query, limit)
	}

	// The shared call outlives any single caller; each caller still honors
	// its own context while waiting.
	ch := s.flight.DoChan(flightKey(query, limit), func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.sharedTimeout())
		defer cancel()
		return s.search(shared, query, limit)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			logrus.WithField("query", query).Debug("Coalesced concurrent search")
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.CombinedSearchResult), nil
	}
}

func flightKey(query string, limit int) string {
	return query + "\x00" + strconv.Itoa(limit)
}

// sharedTimeout bounds a coalesced search, which no caller can cancel
func (s *Service) sharedTimeout() time.Duration {
	if s.config.HTTPTimeout > 0 {
		return 2 * s.config.HTTPTimeout
	}
	return time.Minute
}

func (s *Service) search(ctx context.Context, query string, limit int) (*models.CombinedSearchResult, error) {
	start := time.Now()

	var (
		summary *models.MentionSummary
		batch   *models.WebMentionBatch
		g       errgroup.Group
	)

	g.Go(func() error {
		var err error
		summary, err = s.mentionSummary(ctx, query)
		return err
	})

	g.Go(func() error {
		batch = s.scrape(ctx, query, limit)
		return nil
	})

	err := g.Wait()
	s.recordSearch(time.Since(start), err, batch)

	if err != nil {
		logrus.WithField("query", query).Errorf("Search failed: %v", err)
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"query":        query,
		"mentions":     summary.TotalMentions,
		"web_mentions": len(batch.Results),
		"web_degraded": batch.Error != "",
		"duration":     time.Since(start).String(),
	}).Info("Search completed")

	return &models.CombinedSearchResult{
		Query:          query,
		MentionSummary: summary,
		WebMentions:    batch,
	}, nil
}

// SearchHackerNews runs the Hacker News path alone
func (s *Service) SearchHackerNews(ctx context.Context, query string) (*models.MentionSummary, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrInvalidQuery
	}
	return s.mentionSummary(ctx, query)
}

// ScrapeWeb runs the web path alone. It never fails: an empty query yields a
// batch carrying the error. A non-positive limit uses the configured default.
func (s *Service) ScrapeWeb(ctx context.Context, query string, limit int) *models.WebMentionBatch {
	if strings.TrimSpace(query) == "" {
		return &models.WebMentionBatch{
			Query:   query,
			Results: []models.WebMention{},
			Error:   ErrInvalidQuery.Error(),
		}
	}
	if limit <= 0 {
		limit = s.config.WebResultLimit
	}
	return s.scrape(ctx, query, limit)
}

func (s *Service) mentionSummary(ctx context.Context, query string) (*models.MentionSummary, error) {
	hits, err := s.fetcher.FetchMentions(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.aggregator.Aggregate(query, hits), nil
}

func (s *Service) scrape(ctx context.Context, query string, limit int) *models.WebMentionBatch {
	batch := s.scraper.Scrape(ctx, query, limit)
	if batch == nil {
		batch = &models.WebMentionBatch{
			Query:   query,
			Results: []models.WebMention{},
			Error:   "web scraper returned no result",
		}
	}
	return batch
}

func (s *Service) recordSearch(duration time.Duration, err error, batch *models.WebMentionBatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.TotalSearches++
	s.stats.LastSearch = time.Now()
	s.stats.LastSearchDuration = duration.String()

	if err != nil {
		s.stats.FailedSearches++
	}
	if batch != nil && batch.Error != "" {
		s.stats.DegradedWebBatches++
	}
}

// Stats returns a snapshot of the search counters
func (s *Service) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.stats
}
