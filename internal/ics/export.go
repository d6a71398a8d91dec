// Package ics exports a built congress schedule as an iCalendar feed.
package ics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/grid"
	appLog "github.com/matthewnfaulkner/apoacongress-congressapp/internal/log"
	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/model"
	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/timeindex"
)

// ExportConfig controls how the feed is written.
type ExportConfig struct {
	// Location is the timezone the congress times are authored in.
	// If nil, time.Local is used.
	Location *time.Location

	// Domain is the right-hand side of every UID.
	Domain string

	// IncludeDrafts exports breaks of draft schedules too; it should
	// match the grid.Options the result was built with.
	IncludeDrafts bool

	// Now stamps DTSTAMP. Zero means time.Now.
	Now time.Time
}

// Export renders every placed session and every break of the result as a
// VEVENT. Sessions carry their room as LOCATION and their event tree as
// DESCRIPTION.
func Export(c model.Congress, result grid.Result, cfg ExportConfig) ([]byte, error) {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Domain == "" {
		cfg.Domain = "congressapp"
	}
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}

	dates, err := DayDates(c, cfg.Location)
	if err != nil {
		return nil, err
	}
	days := make(map[model.ID]model.Day, len(c.Days))
	for _, d := range c.Days {
		days[d.ID] = d
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//congressapp//schedule//EN")
	cal.SetXWRCalName(c.Title)
	cal.SetXWRTimezone(cfg.Location.String())

	count := 0
	for _, tab := range result.Tabs {
		date, ok := dates[tab.Value]
		if !ok {
			appLog.Warn("ics export: day has no date; skipped", "day", tab.Value)
			continue
		}
		for _, s := range tab.Sessions {
			ev := cal.AddEvent(fmt.Sprintf("session-%s@%s", s.Session.ID, cfg.Domain))
			ev.SetDtStampTime(cfg.Now)
			ev.SetStartAt(timeindex.At(date, s.Session.StartTime, cfg.Location))
			ev.SetEndAt(timeindex.At(date, s.Session.EndTime, cfg.Location))
			ev.SetSummary(s.Session.Title)
			if loc := columnTitle(tab, s.X); loc != "" {
				ev.SetLocation(loc)
			}
			if desc := describe(s.Events); desc != "" {
				ev.SetDescription(desc)
			}
			if s.Session.Section != nil && s.Session.Section.Name != "" {
				ev.SetProperty(ical.ComponentPropertyCategories, s.Session.Section.Name)
			}
			count++
		}
		for _, br := range dayBreaks(days[tab.Value], cfg.IncludeDrafts) {
			ev := cal.AddEvent(fmt.Sprintf("break-%s@%s", br.ID, cfg.Domain))
			ev.SetDtStampTime(cfg.Now)
			ev.SetStartAt(timeindex.At(date, br.StartTime, cfg.Location))
			ev.SetEndAt(timeindex.At(date, br.EndTime, cfg.Location))
			ev.SetSummary(br.Name)
			ev.SetProperty(ical.ComponentPropertyCategories, "Break")
			count++
		}
	}

	appLog.Debug("ics export completed", "congress", c.ID, "event_count", count)
	return []byte(cal.Serialize()), nil
}

func columnTitle(tab grid.Tab, x int) string {
	if x < 0 || x >= len(tab.ColHeaders) {
		return ""
	}
	return tab.ColHeaders[x].Label
}

// dayBreaks returns the breaks of participating schedules, each once.
func dayBreaks(d model.Day, includeDrafts bool) []model.Break {
	seen := make(map[model.ID]bool)
	var out []model.Break
	for _, sc := range d.Schedules {
		if !sc.Published() && !includeDrafts {
			continue
		}
		for _, br := range sc.Breaks {
			if seen[br.ID] {
				continue
			}
			seen[br.ID] = true
			out = append(out, br)
		}
	}
	return out
}

// describe writes one line per event, indented by depth:
//
//	09:00-09:15 Welcome address (Chair: Ada Lim)
func describe(events []grid.FlatEvent) string {
	var b strings.Builder
	stack := make([]grid.FlatEvent, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		stack = append(stack, events[i])
	}
	for len(stack) > 0 {
		ev := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.Repeat("  ", ev.Depth-1))
		fmt.Fprintf(&b, "%s-%s %s", ev.Start, ev.End, ev.Title)
		if people := assigned(ev.Assignments); people != "" {
			b.WriteString(" (" + people + ")")
		}
		for i := len(ev.Children) - 1; i >= 0; i-- {
			stack = append(stack, ev.Children[i])
		}
	}
	return b.String()
}

func assigned(as []model.Assignment) string {
	parts := make([]string, 0, len(as))
	for _, a := range as {
		if a.Person == nil {
			continue
		}
		name := a.Person.FullName()
		if a.Role != nil && a.Role.Name != "" {
			name = a.Role.Name + ": " + name
		}
		parts = append(parts, name)
	}
	return strings.Join(parts, ", ")
}
