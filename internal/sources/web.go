package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/azure/mention-tracker/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// DefaultWebLimit is the number of web mentions returned when no limit is given
const DefaultWebLimit = 10

// Structural selectors for the search results page
const (
	resultSelector  = "div.g"
	titleSelector   = "h3"
	linkSelector    = "a"
	snippetSelector = "div.VwiC3b"
)

var whitespace = regexp.MustCompile(`\s+`)

// WebSource scrapes a general web search results page
type WebSource struct {
	client    *resty.Client
	searchURL string
	timeout   time.Duration
	limiter   *rate.Limiter
	now       func() time.Time
}

// Ensure WebSource implements WebScraper
var _ WebScraper = (*WebSource)(nil)

// NewWebSource creates a new web search scraper. Requests are limited to
// ratePerSecond against the search page; timeout bounds each scrape,
// including the wait for the limiter.
func NewWebSource(searchURL, userAgent string, timeout time.Duration, ratePerSecond float64) *WebSource {
	return &WebSource{
		client: resty.New().
			SetTimeout(timeout).
			SetHeader("User-Agent", userAgent).
			SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
			SetHeader("Accept-Language", "en-US,en;q=0.9"),
		searchURL: searchURL,
		timeout:   timeout,
		limiter:   rate.NewLimiter(rate.Limit(ratePerSecond), 1),
		now:       time.Now,
	}
}

func (w *WebSource) GetName() string {
	return "web"
}

// Scrape returns up to limit web mentions for query. Any failure, including
// a panic while parsing, yields an empty batch carrying the error message.
func (w *WebSource) Scrape(ctx context.Context, query string, limit int) (batch *models.WebMentionBatch) {
	if limit <= 0 {
		limit = DefaultWebLimit
	}

	defer func() {
		if r := recover(); r != nil {
			batch = w.failedBatch(query, fmt.Errorf("parsing search results: %v", r))
		}
	}()

	results, err := w.scrape(ctx, query, limit)
	if err != nil {
		return w.failedBatch(query, err)
	}

	logrus.WithFields(logrus.Fields{
		"source":  w.GetName(),
		"query":   query,
		"results": len(results),
	}).Debug("Scraped web mentions")

	return &models.WebMentionBatch{
		Query:   query,
		Results: results,
	}
}

func (w *WebSource) scrape(ctx context.Context, query string, limit int) ([]models.WebMention, error) {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	if err := w.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	resp, err := w.client.R().
		SetContext(ctx).
		SetQueryParam("q", query).
		Get(w.searchURL)

	if err != nil {
		return nil, fmt.Errorf("web search request failed: %w", err)
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("web search returned status %d", resp.StatusCode())
	}

	pageURL, err := url.Parse(w.searchURL)
	if err != nil {
		return nil, fmt.Errorf("invalid search URL: %w", err)
	}
	if resp.RawResponse != nil && resp.RawResponse.Request != nil {
		pageURL = resp.RawResponse.Request.URL
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML response: %w", err)
	}

	return parseWebResults(doc, pageURL, limit, w.now()), nil
}

// parseWebResults extracts up to limit results. Entries lacking a title or a
// link are skipped and do not count toward limit.
func parseWebResults(doc *goquery.Document, pageURL *url.URL, limit int, retrievedAt time.Time) []models.WebMention {
	results := []models.WebMention{}

	doc.Find(resultSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		title := cleanText(s.Find(titleSelector).First().Text())
		href, ok := s.Find(linkSelector).First().Attr("href")
		href = strings.TrimSpace(href)
		if title == "" || !ok || href == "" {
			return true
		}

		link, err := pageURL.Parse(href)
		if err != nil {
			return true
		}

		results = append(results, models.WebMention{
			Title:   title,
			URL:     unwrapRedirect(link).String(),
			Snippet: cleanText(s.Find(snippetSelector).First().Text()),
			Source:  "web",
			Date:    retrievedAt,
		})

		return len(results) < limit
	})

	return results
}

// unwrapRedirect returns the target of a search engine "/url?q=" redirect link
func unwrapRedirect(link *url.URL) *url.URL {
	if link.Path != "/url" {
		return link
	}
	target := link.Query().Get("q")
	if target == "" {
		target = link.Query().Get("url")
	}
	if parsed, err := url.Parse(target); err == nil && parsed.IsAbs() {
		return parsed
	}
	return link
}

func cleanText(text string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}

func (w *WebSource) failedBatch(query string, err error) *models.WebMentionBatch {
	logrus.WithFields(logrus.Fields{
		"source": w.GetName(),
		"query":  query,
	}).Warnf("Web scrape degraded: %v", err)

	return &models.WebMentionBatch{
		Query:   query,
		Results: []models.WebMention{},
		Error:   err.Error(),
	}
}
