package entity

import (
	"fmt"
	"time"
)

const (
	// DateCodeLayout is the six digit YYMMDD encoding used in page and thumbnail names.
	DateCodeLayout = "060102"

	// DisplayLayout is the human readable label layout, e.g. "2013 Dec 24".
	DisplayLayout = "2006 Jan 02"

	// InputLayout is the layout accepted from users, e.g. "2013-12-24".
	InputLayout = "2006-01-02"
)

// Inception is the date of the first published page. No page exists before it.
var Inception = time.Date(1995, time.June, 16, 0, 0, 0, 0, time.UTC)

// Day truncates t to its calendar date, expressed as midnight UTC.
// The wall-clock date in t's own location is kept, so 23:30 in New York stays on the same day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// PreviousDay returns the calendar date one day before d.
func PreviousDay(d time.Time) time.Time {
	return Day(d).AddDate(0, 0, -1)
}

// DateCode returns the YYMMDD code for d.
func DateCode(d time.Time) string {
	return d.Format(DateCodeLayout)
}

// DisplayDate formats d as "2006 Jan 02".
func DisplayDate(d time.Time) string {
	return d.Format(DisplayLayout)
}

// ParseDate parses a YYYY-MM-DD string into a calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(InputLayout, s)
	if err != nil {
		return time.Time{}, &ValidationError{
			Field:   "date",
			Message: fmt.Sprintf("expected YYYY-MM-DD, got %q", s),
		}
	}
	return Day(t), nil
}
