package api

import (
	"context"
	"net/http"
	"time"

	"github.com/azure/mention-tracker/internal/models"
	"github.com/azure/mention-tracker/internal/search"
	"github.com/gorilla/mux"
)

// Searcher is the search surface exposed over HTTP
type Searcher interface {
	Search(ctx context.Context, query string, limit int) (*models.CombinedSearchResult, error)
	SearchHackerNews(ctx context.Context, query string) (*models.MentionSummary, error)
	ScrapeWeb(ctx context.Context, query string, limit int) *models.WebMentionBatch
	Stats() search.Stats
}

// Ensure search.Service implements Searcher
var _ Searcher = (*search.Service)(nil)

// NewRouter wires the HTTP routes. Searches started by a request are not
// cancelled when the client goes away; timeout bounds them instead.
func NewRouter(searcher Searcher, timeout time.Duration) *mux.Router {
	h := &handlers{searcher: searcher, timeout: timeout}

	router := mux.NewRouter()
	router.Use(requestIDMiddleware, loggingMiddleware, corsMiddleware)

	// Health check endpoint
	router.HandleFunc("/health", h.health).Methods(http.MethodGet)

	// Process-local search counters
	router.HandleFunc("/metrics", h.metrics).Methods(http.MethodGet)

	router.HandleFunc("/api/search", h.search).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/api/search/hackernews", h.searchHackerNews).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/api/search/web", h.searchWeb).Methods(http.MethodPost, http.MethodOptions)

	return router
}
