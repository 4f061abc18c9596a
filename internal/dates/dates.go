// Package dates provides calendar-date ranges and free-text date normalization.
package dates

import (
	"fmt"
	"time"
)

// Layout is the wire and storage format for calendar dates.
const Layout = "2006-01-02"

// Range is an inclusive range of calendar dates. Both ends are UTC midnight.
type Range struct {
	Start time.Time
	End   time.Time
}

// ParseDate parses a "2006-01-02" calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// ParseRange parses start and end dates and checks start <= end.
func ParseRange(start, end string) (Range, error) {
	s, err := ParseDate(start)
	if err != nil {
		return Range{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return Range{}, err
	}
	if e.Before(s) {
		return Range{}, fmt.Errorf("start date %s is after end date %s", start, end)
	}
	return Range{Start: s, End: e}, nil
}

// Days returns the inclusive number of days in the range.
func (r Range) Days() int {
	return daysBetween(r.Start, r.End) + 1
}

// Overlap returns the number of days shared by both ranges (inclusive), or 0
// when they are disjoint.
func (r Range) Overlap(o Range) int {
	start := r.Start
	if o.Start.After(start) {
		start = o.Start
	}
	end := r.End
	if o.End.Before(end) {
		end = o.End
	}
	if end.Before(start) {
		return 0
	}
	return daysBetween(start, end) + 1
}

// Contains reports whether day falls inside the range.
func (r Range) Contains(day time.Time) bool {
	return !day.Before(r.Start) && !day.After(r.End)
}

// StartString returns the start date in Layout.
func (r Range) StartString() string {
	return r.Start.Format(Layout)
}

// EndString returns the end date in Layout.
func (r Range) EndString() string {
	return r.End.Format(Layout)
}

func (r Range) String() string {
	return r.StartString() + ".." + r.EndString()
}

// Human renders the range for chat messages, e.g. "Mar 10 - Mar 15, 2025".
func (r Range) Human() string {
	if r.Start.Year() != r.End.Year() {
		return r.Start.Format("Jan 2, 2006") + " - " + r.End.Format("Jan 2, 2006")
	}
	if r.Start.Equal(r.End) {
		return r.Start.Format("Jan 2, 2006")
	}
	return r.Start.Format("Jan 2") + " - " + r.End.Format("Jan 2, 2006")
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// civil returns t truncated to its UTC calendar date.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
