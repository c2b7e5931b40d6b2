// Package reportdate resolves civil calendar dates for daily reports.
package reportdate

import (
	"fmt"
	"time"
)

// Layout is the summary_date format.
const Layout = "2006-01-02"

// DefaultOffset is the deployment's civil timezone (UTC+7).
const DefaultOffset = 7 * time.Hour

// Zone returns a fixed-offset location for the given UTC offset.
func Zone(offset time.Duration) *time.Location {
	hours := int(offset / time.Hour)
	minutes := int((offset % time.Hour) / time.Minute)
	if minutes < 0 {
		minutes = -minutes
	}
	return time.FixedZone(fmt.Sprintf("UTC%+03d:%02d", hours, minutes), int(offset/time.Second))
}

// Yesterday returns the calendar date, in loc, of the instant 24 hours
// before now. The host's local timezone plays no part.
func Yesterday(now time.Time, loc *time.Location) string {
	return now.UTC().Add(-24 * time.Hour).In(loc).Format(Layout)
}

// DayBounds returns the half-open interval [start, end) covering date in loc.
func DayBounds(date string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(Layout, date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid report date %q: %w", date, err)
	}
	return start, start.AddDate(0, 0, 1), nil
}

// Valid reports whether date is a well-formed summary date.
func Valid(date string) bool {
	_, err := time.Parse(Layout, date)
	return err == nil
}

// Resolver computes report dates against an injectable clock.
type Resolver struct {
	Location *time.Location
	Now      func() time.Time
}

// NewResolver creates a resolver for loc using the wall clock.
func NewResolver(loc *time.Location) *Resolver {
	return &Resolver{
		Location: loc,
		Now:      time.Now,
	}
}

// Yesterday returns the previous civil day relative to the resolver's clock.
func (r *Resolver) Yesterday() string {
	return Yesterday(r.Now(), r.Location)
}
