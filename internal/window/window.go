// Package window computes the rolling date window substituted into tracker
// queries.
package window

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spiffcs/evidence-collector/internal/model"
)

// DateLayout is the format of the dates substituted into queries.
const DateLayout = "2006-01-02"

// Placeholder marks a date slot in a query template.
const Placeholder = "%s"

// DefaultDays is the number of days looked back when nothing is configured.
const DefaultDays = 90

// Window is a date range ending one day after the moment it was computed.
type Window struct {
	Start time.Time
	End   time.Time
	Days  int
}

// New returns the window covering the given number of days before now,
// ending one day after now so that today's activity is included.
func New(now time.Time, days int) Window {
	if days <= 0 {
		days = DefaultDays
	}
	return Window{
		Start: now.AddDate(0, 0, -days),
		End:   now.AddDate(0, 0, 1),
		Days:  days,
	}
}

// StartDate returns the start of the window as YYYY-MM-DD.
func (w Window) StartDate() string {
	return w.Start.Format(DateLayout)
}

// EndDate returns the end of the window as YYYY-MM-DD.
func (w Window) EndDate() string {
	return w.End.Format(DateLayout)
}

// Apply substitutes the window into a query template. The template must
// contain either no placeholder or exactly two: the first receives the start
// date and the second the end date.
func (w Window) Apply(query string) (string, error) {
	switch n := strings.Count(query, Placeholder); n {
	case 0:
		return query, nil
	case 2:
		query = strings.Replace(query, Placeholder, w.StartDate(), 1)
		return strings.Replace(query, Placeholder, w.EndDate(), 1), nil
	default:
		return "", fmt.Errorf("%w: query must contain 0 or 2 %q placeholders, found %d", model.ErrConfiguration, Placeholder, n)
	}
}

// MaxDays is the longest range ParseDays accepts.
const MaxDays = 100 * 365

// ParseDays parses human-readable ranges like "90", "90d", "12w", "3mo"
// or "1y" into a number of days, at most MaxDays.
func ParseDays(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return scaleDays(s, n, 1)
	}

	var n int
	var unit string
	if _, err := fmt.Sscanf(s, "%d%s", &n, &unit); err != nil {
		return 0, fmt.Errorf("invalid range format: %s (use e.g., 90d, 12w, 3mo)", s)
	}

	switch unit {
	case "d", "day", "days":
		return scaleDays(s, n, 1)
	case "w", "wk", "wks", "week", "weeks":
		return scaleDays(s, n, 7)
	case "mo", "month", "months":
		return scaleDays(s, n, 30)
	case "y", "yr", "yrs", "year", "years":
		return scaleDays(s, n, 365)
	default:
		return 0, fmt.Errorf("unknown range unit: %s", unit)
	}
}

// scaleDays multiplies n units of perUnit days, rejecting anything outside
// 1..MaxDays before the multiplication can wrap.
func scaleDays(s string, n, perUnit int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("invalid range: %s (must be positive)", s)
	}
	if n > MaxDays/perUnit {
		return 0, fmt.Errorf("invalid range: %s (longer than %d days)", s, MaxDays)
	}
	return n * perUnit, nil
}
