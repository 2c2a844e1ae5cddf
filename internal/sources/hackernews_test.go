package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/azure/mention-tracker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hackerNewsFixture = `{
  "hits": [
    {
      "objectID": "101",
      "title": "Acme raises Series B",
      "url": "https://acme.example/news",
      "author": "alice",
      "points": 42,
      "num_comments": 7,
      "story_text": null,
      "created_at": "2024-06-15T10:00:00.000Z",
      "created_at_i": 1718445600
    },
    {
      "objectID": "102",
      "title": "Ask HN: Anyone using Acme?",
      "url": null,
      "author": "bob",
      "points": null,
      "num_comments": null,
      "story_text": "Curious about experiences",
      "created_at": "2024-06-14T08:30:00.000Z"
    },
    {
      "objectID": "103",
      "title": "No timestamp",
      "url": "",
      "author": "carol",
      "points": 1,
      "num_comments": 0
    }
  ]
}`

func newTestHackerNewsSource(url string) *HackerNewsSource {
	source := NewHackerNewsSource(url, 5*time.Second)
	source.now = func() time.Time { return time.Unix(1718500000, 0) }
	return source
}

func TestHackerNewsSource_GetName(t *testing.T) {
	source := NewHackerNewsSource("http://localhost", time.Second)
	assert.Equal(t, "hackernews", source.GetName())
}

func TestHackerNewsSource_FetchMentions(t *testing.T) {
	var gotQuery, gotFilter, gotPageSize string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		gotFilter = r.URL.Query().Get("numericFilters")
		gotPageSize = r.URL.Query().Get("hitsPerPage")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(hackerNewsFixture))
	}))
	defer server.Close()

	hits, err := newTestHackerNewsSource(server.URL).FetchMentions(context.Background(), "  Acme Corp ")
	require.NoError(t, err)

	assert.Equal(t, "  Acme Corp ", gotQuery, "query must be passed through as-is")
	assert.Equal(t, "created_at_i>1717895200", gotFilter)
	assert.Equal(t, "1000", gotPageSize)

	require.Len(t, hits, 3)

	first := hits[0]
	assert.Equal(t, "101", first.ID)
	assert.Equal(t, "Acme raises Series B", first.Title)
	require.NotNil(t, first.URL)
	assert.Equal(t, "https://acme.example/news", *first.URL)
	assert.Equal(t, "https://news.ycombinator.com/item?id=101", first.HNURL)
	assert.Equal(t, "alice", first.Author)
	assert.Equal(t, 42, first.Points)
	assert.Equal(t, 7, first.Comments)
	assert.Equal(t, models.KindLink, first.Kind)
	assert.Equal(t, time.Unix(1718445600, 0).UTC(), first.CreatedAt)

	second := hits[1]
	assert.Nil(t, second.URL)
	assert.Equal(t, 0, second.Points)
	assert.Equal(t, 0, second.Comments)
	assert.Equal(t, models.KindStory, second.Kind)
	assert.Equal(t, time.Date(2024, time.June, 14, 8, 30, 0, 0, time.UTC), second.CreatedAt)

	third := hits[2]
	assert.Nil(t, third.URL)
	assert.True(t, third.CreatedAt.IsZero())
}

func TestHackerNewsSource_MissingHitsIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"nbHits": 0}`))
	}))
	defer server.Close()

	hits, err := newTestHackerNewsSource(server.URL).FetchMentions(context.Background(), "acme")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestHackerNewsSource_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected error
	}{
		{
			name:     "Server error",
			status:   http.StatusInternalServerError,
			body:     `{"message":"boom"}`,
			expected: ErrUpstreamUnavailable,
		},
		{
			name:     "Rate limited",
			status:   http.StatusTooManyRequests,
			body:     ``,
			expected: ErrUpstreamUnavailable,
		},
		{
			name:     "Malformed JSON",
			status:   http.StatusOK,
			body:     `{"hits": [`,
			expected: ErrUpstreamError,
		},
		{
			name:     "Wrong shape",
			status:   http.StatusOK,
			body:     `{"hits": "nope"}`,
			expected: ErrUpstreamError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			hits, err := newTestHackerNewsSource(server.URL).FetchMentions(context.Background(), "acme")
			assert.ErrorIs(t, err, tt.expected)
			assert.Nil(t, hits)
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "no retries expected")
		})
	}
}

func TestHackerNewsSource_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestHackerNewsSource(url).FetchMentions(context.Background(), "acme")
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}
