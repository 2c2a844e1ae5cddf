package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/azure/mention-tracker/internal/search"
	"github.com/azure/mention-tracker/internal/sources"
	"github.com/sirupsen/logrus"
)

type handlers struct {
	searcher Searcher
	timeout  time.Duration
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *handlers) metrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.searcher.Stats())
}

func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSearchRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.searchContext(r)
	defer cancel()

	result, err := h.searcher.Search(ctx, req.Query, req.Limit)
	if err != nil {
		writeSearchError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *handlers) searchHackerNews(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSearchRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.searchContext(r)
	defer cancel()

	summary, err := h.searcher.SearchHackerNews(ctx, req.Query)
	if err != nil {
		writeSearchError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// searchWeb always answers 200; failures travel in the batch's error field
func (h *handlers) searchWeb(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSearchRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.searchContext(r)
	defer cancel()

	writeJSON(w, http.StatusOK, h.searcher.ScrapeWeb(ctx, req.Query, req.Limit))
}

// searchContext detaches the search from the client connection. A started
// search runs to completion or until the server-side timeout.
func (h *handlers) searchContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx := context.WithoutCancel(r.Context())
	if h.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.timeout)
}

func decodeSearchRequest(w http.ResponseWriter, r *http.Request) (*searchRequest, bool) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "request body must be JSON with a query field"})
		return nil, false
	}
	return &req, true
}

func writeSearchError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		logrus.WithField("request_id", requestIDFrom(r.Context())).Errorf("Search request failed: %v", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, search.ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, sources.ErrUpstreamUnavailable), errors.Is(err, sources.ErrUpstreamError):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}
