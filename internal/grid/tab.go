package grid

import (
	"fmt"
	"sort"

	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/model"
	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/timeindex"
)

// dayBuilder holds the mutable layout state of exactly one Day.
type dayBuilder struct {
	opts   Options
	titles map[model.ID]string
	rows   RowIndex
	cols   *ColumnResolver
	occ    *occupancy
	booked map[model.ID][]interval
	tab    Tab
}

// BuildDay assembles the Tab of one Day. It returns (nil, nil) when no
// schedule of the Day participates: only published schedules do, plus
// drafts when opts.IncludeDrafts is set. titles maps room ids to names
// for rooms that arrive collapsed.
func BuildDay(day model.Day, titles map[model.ID]string, opts Options) (*Tab, error) {
	opts = opts.normalized()

	sessions, breaks, published, participating := collect(day, opts.IncludeDrafts)
	if !participating {
		return nil, nil
	}

	start, end := dayBounds(day, sessions)
	rows, err := NewRowIndex(start, end, int(day.TimeSubdivision))
	if err != nil {
		return nil, fmt.Errorf("day %s: %w", day.ID, err)
	}

	plain := make([]model.Session, len(sessions))
	for i, ps := range sessions {
		plain[i] = ps.session
	}

	b := &dayBuilder{
		opts:   opts,
		titles: titles,
		rows:   rows,
		cols:   ResolveColumns(plain, breaks, titles),
		occ:    newOccupancy(),
		booked: make(map[model.ID][]interval),
	}
	b.tab = Tab{
		Label:           day.Title,
		Value:           day.ID,
		Date:            day.Date,
		DateLabel:       timeindex.HumanDate(day.Date),
		StartTime:       start,
		EndTime:         end,
		TimeSubDivision: rows.Subdivision(),
		TotalRows:       rows.TotalRows(),
		TimeScale:       60 / float64(rows.Subdivision()),
		NumRooms:        b.cols.NumRooms(),
		Published:       published,
		ColHeaders:      []GridItem{},
		Sessions:        []SessionItem{},
		Breaks:          []GridItem{},
		Empties:         []GridItem{},
	}

	b.placeSessions(sessions)
	b.insertBreaks(breaks)
	b.fillEmpty()
	b.finish(day)

	return &b.tab, nil
}

// finish attaches column headers and time slot metadata.
func (b *dayBuilder) finish(day model.Day) {
	b.tab.NumCols = b.cols.NumCols()
	for _, col := range b.cols.Columns() {
		b.tab.ColHeaders = append(b.tab.ColHeaders, GridItem{
			X:      col.Index,
			Y:      0,
			W:      1,
			H:      1,
			I:      fmt.Sprintf("header-%d", col.Index),
			Static: true,
			Type:   ItemHeader,
			Label:  col.Title,
		})
	}

	for _, ts := range day.TimeSlots {
		slot := model.TimeSlot{
			ID:        ts.ID,
			StartTime: timeindex.RemoveSeconds(ts.StartTime),
			EndTime:   timeindex.RemoveSeconds(ts.EndTime),
		}
		b.tab.TimeSlots = append(b.tab.TimeSlots, slot)
		if !b.slotCovered(slot) {
			b.tab.EmptyTimeSlots = append(b.tab.EmptyTimeSlots, slot)
		}
	}
}

// slotCovered reports whether any placed session overlaps the slot in
// time.
func (b *dayBuilder) slotCovered(slot model.TimeSlot) bool {
	s0, s1 := timeindex.ToMinutes(slot.StartTime), timeindex.ToMinutes(slot.EndTime)
	for _, it := range b.tab.Sessions {
		a0 := timeindex.ToMinutes(it.Session.StartTime)
		a1 := timeindex.ToMinutes(it.Session.EndTime)
		if a0 < s1 && s0 < a1 {
			return true
		}
	}
	return false
}

func (b *dayBuilder) omit(id model.ID, typ ItemType, reason OmissionReason, count int) {
	if count <= 0 {
		return
	}
	b.tab.Omissions = append(b.tab.Omissions, Omission{ID: id, Type: typ, Reason: reason, Count: count})
}

// collect gathers the sessions and breaks of all participating schedules
// in placement order: by start time, then title or name, then id.
func collect(day model.Day, includeDrafts bool) (sessions []placedSession, breaks []model.Break, published, participating bool) {
	for _, sch := range day.Schedules {
		if !sch.Published() && !includeDrafts {
			continue
		}
		participating = true
		if sch.Published() {
			published = true
		}
		for _, s := range sch.Sessions {
			sessions = append(sessions, placedSession{session: s, published: sch.Published()})
		}
		breaks = append(breaks, sch.Breaks...)
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		a, b := sessions[i].session, sessions[j].session
		return lessByStart(a.StartTime, b.StartTime, a.Title, b.Title, a.ID, b.ID)
	})
	sort.SliceStable(breaks, func(i, j int) bool {
		a, b := breaks[i], breaks[j]
		return lessByStart(a.StartTime, b.StartTime, a.Name, b.Name, a.ID, b.ID)
	})
	return sessions, breaks, published, participating
}

func lessByStart(startA, startB, nameA, nameB string, idA, idB model.ID) bool {
	ma, mb := timeindex.ToMinutes(startA), timeindex.ToMinutes(startB)
	if ma != mb {
		return ma < mb
	}
	if nameA != nameB {
		return nameA < nameB
	}
	return idA < idB
}

// dayBounds returns the Day's own bounds, falling back to the earliest
// session start and latest session end when a bound is absent.
func dayBounds(day model.Day, sessions []placedSession) (string, string) {
	start := timeindex.RemoveSeconds(day.StartTime)
	end := timeindex.RemoveSeconds(day.EndTime)
	if timeindex.Valid(day.StartTime) && timeindex.Valid(day.EndTime) {
		return start, end
	}

	minStart, maxEnd := 0, 0
	for i, ps := range sessions {
		s := timeindex.ToMinutes(ps.session.StartTime)
		e := timeindex.ToMinutes(ps.session.EndTime)
		if i == 0 || s < minStart {
			minStart = s
		}
		if i == 0 || e > maxEnd {
			maxEnd = e
		}
	}
	if !timeindex.Valid(day.StartTime) {
		start = timeindex.FormatMinutes(minStart)
	}
	if !timeindex.Valid(day.EndTime) {
		end = timeindex.FormatMinutes(maxEnd)
	}
	return start, end
}
