package timeindex

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// DateLayout is the layout of date fields in the content store.
const DateLayout = "2006-01-02"

// ParseDate parses a "YYYY-MM-DD" date. Longer datetime strings are cut to
// their date part.
func ParseDate(s string) (time.Time, error) {
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("timeindex: parse date %q: %w", s, err)
	}
	return d, nil
}

// HumanDate renders "2027-04-05" as "5th April 2027". Empty or invalid
// input yields "".
func HumanDate(s string) string {
	if s == "" {
		return ""
	}
	d, err := ParseDate(s)
	if err != nil {
		return ""
	}
	return humanize.Ordinal(d.Day()) + " " + d.Format("January 2006")
}

// At combines a calendar date with a wall-clock time in loc. Minute
// offsets beyond 24h roll over into the following day.
func At(date time.Time, t string, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	return midnight.Add(time.Duration(ToMinutes(t)) * time.Minute)
}
