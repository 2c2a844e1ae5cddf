package notifications

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/azure/mention-tracker/internal/config"
	"github.com/azure/mention-tracker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDigest() *models.Digest {
	created := time.Date(2024, time.June, 14, 9, 0, 0, 0, time.UTC)

	var items []models.RawHit
	for i := 1; i <= 7; i++ {
		id := strconv.Itoa(i)
		items = append(items, models.RawHit{
			ID:        id,
			Title:     "Acme story " + id,
			HNURL:     "https://news.ycombinator.com/item?id=" + id,
			Author:    "alice",
			Points:    i * 10,
			Comments:  i,
			CreatedAt: created,
			Kind:      models.KindLink,
		})
	}

	return &models.Digest{
		GeneratedAt: time.Date(2024, time.June, 15, 9, 0, 0, 0, time.UTC),
		Schedule:    "0 0 9 * * MON",
		Entries: []models.DigestEntry{
			{
				Query: "Acme",
				Result: &models.CombinedSearchResult{
					Query: "Acme",
					MentionSummary: &models.MentionSummary{
						Query:         "Acme",
						TotalMentions: len(items),
						TotalPoints:   280,
						TotalComments: 28,
						AllItems:      items,
					},
					WebMentions: &models.WebMentionBatch{
						Query: "Acme",
						Results: []models.WebMention{
							{Title: "Acme homepage", URL: "https://acme.example", Snippet: "Rockets", Source: "web"},
						},
					},
				},
			},
			{
				Query: "Globex",
				Error: "upstream unavailable: hacker news search returned status 503",
			},
		},
	}
}

func TestDigest_TotalMentions(t *testing.T) {
	assert.Equal(t, 7, sampleDigest().TotalMentions())
}

func TestTopHits(t *testing.T) {
	items := sampleDigest().Entries[0].Result.MentionSummary.AllItems

	top := topHits(items)

	require.Len(t, top, topItems)
	assert.Equal(t, "7", top[0].ID)
	assert.Equal(t, "3", top[topItems-1].ID)
	assert.Equal(t, "1", items[0].ID, "input must not be reordered")
}

func TestBuildTeamsMessage(t *testing.T) {
	message := buildTeamsMessage(sampleDigest())

	assert.Equal(t, "MessageCard", message.Type)
	assert.Equal(t, "Mention Digest - 2 queries", message.Title)
	assert.Contains(t, message.Text, "7 Hacker News mentions")
	require.Len(t, message.Sections, 2)

	acme := message.Sections[0]
	assert.Equal(t, "Acme", acme.ActivityTitle)
	assert.Contains(t, acme.Facts, TeamsFact{Name: "Mentions", Value: "7"})
	assert.Contains(t, acme.Facts, TeamsFact{Name: "Web mentions", Value: "1"})
	assert.Contains(t, acme.ActivityText, "[Acme story 7](https://news.ycombinator.com/item?id=7)")

	globex := message.Sections[1]
	assert.Contains(t, globex.ActivityText, "Search failed")
	assert.Empty(t, globex.Facts)
}

func TestBuildEmailText(t *testing.T) {
	text := buildEmailText(sampleDigest())

	assert.Contains(t, text, "Total Hacker News mentions: 7")
	assert.Contains(t, text, "Mentions: 7 | Points: 280 | Comments: 28")
	assert.Contains(t, text, "1. Acme story 7 (70 points)")
	assert.NotContains(t, text, "Acme story 1 ")
	assert.Contains(t, text, "* Acme homepage")
	assert.Contains(t, text, "Search failed: upstream unavailable")
}

func TestBuildEmailHTML(t *testing.T) {
	html, err := buildEmailHTML(sampleDigest())
	require.NoError(t, err)

	assert.Contains(t, html, "<h2>Acme</h2>")
	assert.Contains(t, html, "https://news.ycombinator.com/item?id=7")
	assert.Contains(t, html, "Search failed: upstream unavailable")
	assert.Contains(t, html, "Rockets")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate(10, "short"))
	assert.Equal(t, "abc...", truncate(3, "abcdef"))

	cut := truncate(4, "Zürich café")
	assert.Equal(t, "Züri...", cut)
	assert.True(t, utf8.ValidString(cut))
	assert.Equal(t, "日本語", truncate(3, "日本語"))
}

func TestTopHits_TiesKeepOrder(t *testing.T) {
	items := []models.RawHit{
		{ID: "a", Points: 5},
		{ID: "b", Points: 9},
		{ID: "c", Points: 5},
		{ID: "d", Points: 9},
		{ID: "e", Points: 5},
		{ID: "f", Points: 1},
	}

	top := topHits(items)

	ids := make([]string, 0, len(top))
	for _, hit := range top {
		ids = append(ids, hit.ID)
	}
	assert.Equal(t, []string{"b", "d", "a", "c", "e"}, ids)
}

func TestSendDigest_Teams(t *testing.T) {
	var received TeamsMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	service := NewService(&config.Config{TeamsWebhookURL: server.URL})

	require.NoError(t, service.SendDigest(sampleDigest()))
	assert.Equal(t, "Mention Digest - 2 queries", received.Title)
	assert.Len(t, received.Sections, 2)
}

func TestSendDigest_TeamsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("invalid card"))
	}))
	defer server.Close()

	service := NewService(&config.Config{TeamsWebhookURL: server.URL})

	err := service.SendDigest(sampleDigest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Teams")
	assert.Contains(t, err.Error(), "invalid card")
}

func TestSendDigest_NoChannels(t *testing.T) {
	service := NewService(&config.Config{})
	assert.NoError(t, service.SendDigest(sampleDigest()))
}

func TestConsoleNotifier(t *testing.T) {
	var buf strings.Builder

	require.NoError(t, NewConsoleNotifier(&buf).SendDigest(sampleDigest()))
	assert.Contains(t, buf.String(), "MENTION DIGEST")
	assert.Contains(t, buf.String(), "Globex")
}
