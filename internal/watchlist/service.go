package watchlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/azure/mention-tracker/internal/config"
	"github.com/azure/mention-tracker/internal/models"
	"github.com/azure/mention-tracker/internal/notifications"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// maxConcurrent bounds how many watched queries are searched at once
const maxConcurrent = 4

// ErrNoWatchQueries is returned by Run when the watchlist is empty
var ErrNoWatchQueries = errors.New("no watch queries configured")

// Searcher runs one combined mention search
type Searcher interface {
	Search(ctx context.Context, query string, limit int) (*models.CombinedSearchResult, error)
}

// Service builds and delivers the periodic digest for the watched queries
type Service struct {
	config   *config.Config
	searcher Searcher
	notifier notifications.Notifier
}

// NewService creates a new watchlist service
func NewService(cfg *config.Config, searcher Searcher, notifier notifications.Notifier) *Service {
	return &Service{
		config:   cfg,
		searcher: searcher,
		notifier: notifier,
	}
}

// Run searches every watched query and sends the digest. A failed search is
// recorded in its digest entry and does not stop the others.
func (s *Service) Run(ctx context.Context) (*models.Digest, error) {
	queries := s.config.WatchQueries
	if len(queries) == 0 {
		return nil, ErrNoWatchQueries
	}

	start := time.Now()
	logrus.Infof("Starting watchlist digest for %d queries", len(queries))

	digest := &models.Digest{
		GeneratedAt: start,
		Schedule:    s.config.DigestSchedule,
		Entries:     make([]models.DigestEntry, len(queries)),
	}

	var g errgroup.Group
	g.SetLimit(maxConcurrent)

	for i, query := range queries {
		g.Go(func() error {
			entry := models.DigestEntry{Query: query}

			result, err := s.searcher.Search(ctx, query, 0)
			if err != nil {
				logrus.Warnf("Watchlist search for %q failed: %v", query, err)
				entry.Error = err.Error()
			} else {
				entry.Result = result
			}

			// Each goroutine owns its slot
			digest.Entries[i] = entry
			return nil
		})
	}
	// Failures are kept per entry, so Wait never reports an error
	_ = g.Wait()

	if err := s.notifier.SendDigest(digest); err != nil {
		return digest, fmt.Errorf("failed to deliver digest: %w", err)
	}

	logrus.Infof("Watchlist digest completed in %v with %d mentions", time.Since(start), digest.TotalMentions())
	return digest, nil
}
