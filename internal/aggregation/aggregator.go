package aggregation

import (
	"time"

	"github.com/azure/mention-tracker/internal/models"
	"github.com/sirupsen/logrus"
)

// WindowDays is the number of calendar days a MentionSummary covers
const WindowDays = 7

// Aggregator folds raw Hacker News hits into per-day buckets and window totals
type Aggregator struct {
	location *time.Location
	now      func() time.Time
}

// NewAggregator creates an aggregator computing day boundaries in loc.
// A nil clock defaults to time.Now.
func NewAggregator(loc *time.Location, now func() time.Time) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Aggregator{location: loc, now: now}
}

// Aggregate builds the summary for hits anchored at the current time
func (a *Aggregator) Aggregate(query string, hits []models.RawHit) *models.MentionSummary {
	return a.AggregateAt(query, hits, a.now())
}

// AggregateAt builds the summary for hits with the window ending on anchor's day.
// Hits without a timestamp or outside the window are left out of both the
// buckets and AllItems, so totals always equal the bucket sums.
func (a *Aggregator) AggregateAt(query string, hits []models.RawHit, anchor time.Time) *models.MentionSummary {
	days, _ := DaysWindow(WindowDays, anchor.In(a.location))

	buckets := make([]models.DayBucket, len(days))
	index := make(map[string]int, len(days))
	for i, day := range days {
		buckets[i] = models.DayBucket{Date: day, Items: []models.RawHit{}}
		index[day] = i
	}

	summary := &models.MentionSummary{
		Query:        query,
		DailyBuckets: buckets,
		AllItems:     []models.RawHit{},
	}

	missingTime, outside := 0, 0
	for _, hit := range hits {
		if hit.CreatedAt.IsZero() {
			missingTime++
			continue
		}

		i, ok := index[hit.CreatedAt.In(a.location).Format(DateLayout)]
		if !ok {
			outside++
			continue
		}

		bucket := &buckets[i]
		bucket.MentionCount++
		bucket.TotalPoints += hit.Points
		bucket.TotalComments += hit.Comments
		bucket.Items = append(bucket.Items, hit)

		summary.AllItems = append(summary.AllItems, hit)
	}

	// Totals come from the kept items, not from the buckets
	summary.TotalMentions = len(summary.AllItems)
	for _, hit := range summary.AllItems {
		summary.TotalPoints += hit.Points
		summary.TotalComments += hit.Comments
	}

	if missingTime > 0 || outside > 0 {
		logrus.WithFields(logrus.Fields{
			"query":        query,
			"missing_time": missingTime,
			"outside":      outside,
		}).Debug("Dropped hits outside the aggregation window")
	}

	return summary
}
