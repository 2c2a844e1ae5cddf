package aggregation

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the calendar-day key format used for buckets
const DateLayout = "2006-01-02"

// ErrInvalidWindow is returned when a window of zero or negative days is requested
var ErrInvalidWindow = errors.New("window size must be positive")

// DaysWindow returns the n calendar days ending at anchor's day, oldest first.
// Days are computed in anchor's location.
func DaysWindow(n int, anchor time.Time) ([]string, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWindow, n)
	}

	year, month, day := anchor.Date()
	days := make([]string, n)
	for i := 0; i < n; i++ {
		// Noon keeps DST transitions at midnight from moving the date
		d := time.Date(year, month, day-(n-1-i), 12, 0, 0, 0, anchor.Location())
		days[i] = d.Format(DateLayout)
	}

	return days, nil
}
