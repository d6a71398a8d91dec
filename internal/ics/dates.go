package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/model"
	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/timeindex"
)

// DayDates resolves the calendar date of every Day, keyed by Day id.
//
// A Day's own date wins. Days without one are dated by position: the
// congress start date recurs daily, and the i-th Day takes the i-th
// occurrence. Days that can be dated neither way are left out.
func DayDates(c model.Congress, loc *time.Location) (map[model.ID]time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	out := make(map[model.ID]time.Time, len(c.Days))

	var series []time.Time
	if c.StartDate != "" && len(c.Days) > 0 {
		start, err := timeindex.ParseDate(c.StartDate)
		if err != nil {
			return nil, err
		}
		r, err := rrule.NewRRule(rrule.ROption{
			Freq:    rrule.DAILY,
			Count:   len(c.Days),
			Dtstart: time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc),
		})
		if err != nil {
			return nil, err
		}
		series = r.All()
	}

	for i, d := range c.Days {
		if d.Date != "" {
			date, err := timeindex.ParseDate(d.Date)
			if err != nil {
				return nil, err
			}
			out[d.ID] = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
			continue
		}
		if i < len(series) {
			out[d.ID] = series[i]
		}
	}
	if len(out) == 0 && len(c.Days) > 0 {
		return nil, errors.New("ics: no day can be dated; set the congress start date")
	}
	return out, nil
}
