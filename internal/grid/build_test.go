package grid

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/model"
)

func TestBuildFixture(t *testing.T) {
	c := loadCongress(t, "testdata/congress.jsonc")
	res := Build(c, Options{})

	if len(res.Failures) != 0 {
		t.Fatalf("unexpected failures: %+v", res.Failures)
	}
	if len(res.Tabs) != 1 {
		t.Fatalf("got %d tabs, want 1 (draft-only day omitted)", len(res.Tabs))
	}
	if !reflect.DeepEqual(res.EmptyDays, []model.ID{"101"}) {
		t.Errorf("EmptyDays = %v, want [101]", res.EmptyDays)
	}

	tab := res.Tabs[0]
	if tab.Label != "Day 1" || tab.Value != "100" || tab.DateLabel != "5th April 2027" {
		t.Errorf("tab identity = %q %q %q", tab.Label, tab.Value, tab.DateLabel)
	}
	if tab.StartTime != "08:00" || tab.EndTime != "10:00" || tab.TimeSubDivision != 30 {
		t.Errorf("bounds = %s-%s/%d", tab.StartTime, tab.EndTime, tab.TimeSubDivision)
	}
	if tab.TotalRows != 4 || tab.TimeScale != 2 {
		t.Errorf("TotalRows = %d, TimeScale = %v", tab.TotalRows, tab.TimeScale)
	}
	if tab.NumCols != 3 || tab.NumRooms != 3 || !tab.Published {
		t.Errorf("NumCols = %d, NumRooms = %d, Published = %v", tab.NumCols, tab.NumRooms, tab.Published)
	}

	wantHeaders := []string{"Hall A", "Hall B", "Room 101"}
	if len(tab.ColHeaders) != len(wantHeaders) {
		t.Fatalf("got %d headers", len(tab.ColHeaders))
	}
	for i, h := range tab.ColHeaders {
		if h.Label != wantHeaders[i] || h.X != i || h.Y != 0 || h.Type != ItemHeader || !h.Static {
			t.Errorf("header %d = %+v", i, h)
		}
	}

	// Day 08:00-10:00 in 30 minute rows; 09:00-09:30 in the second room.
	s, ok := findSession(tab, "502")
	if !ok {
		t.Fatal("session 502 not placed")
	}
	if s.X != 1 || s.Y != 2 || s.W != 1 || s.H != 1 {
		t.Errorf("session 502 at {x:%d y:%d w:%d h:%d}, want {1 2 1 1}", s.X, s.Y, s.W, s.H)
	}
	if !s.Static || s.IsDraggable || s.Type != ItemSession || s.I != "session-502" {
		t.Errorf("session 502 flags = %+v", s.GridItem)
	}

	opening, _ := findSession(tab, "501")
	if opening.Y != 1 || opening.H != 2 || opening.Color != "#aa0000" || opening.Label != "Opening plenary" {
		t.Errorf("session 501 = %+v", opening.GridItem)
	}
	if opening.Session.StartTime != "08:30" || opening.Session.EndTime != "09:30" {
		t.Errorf("session 501 times = %s-%s", opening.Session.StartTime, opening.Session.EndTime)
	}

	// Break without rooms spans the full row.
	if len(tab.Breaks) != 1 {
		t.Fatalf("got %d breaks", len(tab.Breaks))
	}
	br := tab.Breaks[0]
	if br.X != 0 || br.Y != 0 || br.W != 3 || br.H != 1 || br.Type != ItemBreak || !br.Static || br.Label != "Registration" {
		t.Errorf("break = %+v", br)
	}

	if len(tab.Empties) != 5 {
		t.Errorf("got %d empty cells, want 5", len(tab.Empties))
	}
	assertNoOverlap(t, tab)

	if len(tab.TimeSlots) != 4 || tab.TimeSlots[0].StartTime != "08:00" {
		t.Errorf("TimeSlots = %+v", tab.TimeSlots)
	}
	if len(tab.EmptyTimeSlots) != 1 || tab.EmptyTimeSlots[0].ID != "1" {
		t.Errorf("EmptyTimeSlots = %+v", tab.EmptyTimeSlots)
	}
	if len(tab.Omissions) != 0 {
		t.Errorf("Omissions = %+v", tab.Omissions)
	}
}

func TestBuildPreviewIncludesDrafts(t *testing.T) {
	c := loadCongress(t, "testdata/congress.jsonc")
	res := Build(c, Options{IncludeDrafts: true})

	if len(res.Tabs) != 2 {
		t.Fatalf("got %d tabs, want 2", len(res.Tabs))
	}
	day1, day2 := res.Tabs[0], res.Tabs[1]
	if day2.Published || day2.NumCols != 0 || len(day2.ColHeaders) != 0 {
		t.Errorf("draft day = published %v, %d cols", day2.Published, day2.NumCols)
	}

	draft, ok := findSession(day1, "599")
	if !ok {
		t.Fatal("draft session not placed in preview")
	}
	if draft.Static || !draft.IsDraggable || draft.X != 0 {
		t.Errorf("draft session = %+v", draft.GridItem)
	}

	// The registration break now crosses the draft session in column 0
	// and is split over the two free columns.
	if len(day1.Breaks) != 2 {
		t.Fatalf("got %d break cells, want 2", len(day1.Breaks))
	}
	for _, b := range day1.Breaks {
		if b.W != 1 || b.X == 0 {
			t.Errorf("break cell = %+v", b)
		}
	}
	want := []Omission{{ID: "7", Type: ItemBreak, Reason: OmitBreakOverlap, Count: 1}}
	if !reflect.DeepEqual(day1.Omissions, want) {
		t.Errorf("Omissions = %+v", day1.Omissions)
	}
	assertNoOverlap(t, day1)
}

func day(id string, start, end string, sub int, schedules ...model.Schedule) model.Day {
	return model.Day{
		ID:              model.ID(id),
		Title:           "Day " + id,
		StartTime:       start,
		EndTime:         end,
		TimeSubdivision: model.Minutes(sub),
		Schedules:       schedules,
	}
}

func published(sessions []model.Session, breaks ...model.Break) model.Schedule {
	return model.Schedule{ID: "s", Status: model.StatusPublished, Sessions: sessions, Breaks: breaks}
}

func session(id, start, end, roomID string) model.Session {
	s := model.Session{ID: model.ID(id), Title: "Session " + id, StartTime: start, EndTime: end}
	if roomID != "" {
		s.Room = &model.Room{ID: model.ID(roomID)}
	}
	return s
}

func TestBuildDaySameRoomConflictExpandsColumns(t *testing.T) {
	d := day("1", "08:00", "12:00", 30, published([]model.Session{
		session("a", "09:00", "10:00", "r1"),
		session("b", "09:30", "10:30", "r1"),
		session("c", "09:00", "09:30", "r2"),
		session("d", "09:45", "10:15", "r1"),
		session("e", "11:00", "11:30", "r1"),
	}))

	tab, err := BuildDay(d, nil, Options{})
	if err != nil {
		t.Fatalf("BuildDay: %v", err)
	}
	if tab.NumRooms != 2 {
		t.Errorf("NumRooms = %d, want 2", tab.NumRooms)
	}

	got := map[model.ID]int{}
	for _, s := range tab.Sessions {
		got[s.Session.ID] = s.X
	}
	// a holds r1's own column; b overlaps a and gets a new column; d
	// overlaps both and gets another new one; e fits back in the room's
	// own column.
	want := map[model.ID]int{"a": 0, "c": 1, "b": 2, "d": 3, "e": 0}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("columns = %v, want %v", got, want)
	}
	if tab.NumCols != 4 {
		t.Errorf("NumCols = %d, want 4", tab.NumCols)
	}
	if len(tab.ColHeaders) != 4 || tab.ColHeaders[2].Label != tab.ColHeaders[0].Label {
		t.Errorf("headers = %+v", tab.ColHeaders)
	}
	assertNoOverlap(t, *tab)
}

func TestBuildDayTimeOverlapOffRowBoundaries(t *testing.T) {
	// Both sessions fall in different 30 minute rows but overlap 09:30-09:45.
	d := day("1", "08:00", "12:00", 30, published([]model.Session{
		session("a", "09:15", "09:45", "r1"),
		session("b", "09:30", "10:00", "r1"),
	}))
	tab, err := BuildDay(d, nil, Options{})
	if err != nil {
		t.Fatalf("BuildDay: %v", err)
	}
	a, _ := findSession(*tab, "a")
	b, _ := findSession(*tab, "b")
	if a.X != 0 || b.X != 1 {
		t.Errorf("columns a=%d b=%d, want 0 and 1", a.X, b.X)
	}
	if tab.NumCols != 2 {
		t.Errorf("NumCols = %d, want 2", tab.NumCols)
	}
	assertNoTimeOverlap(t, *tab)
}

func TestBuildDayConflictAlwaysAppendsColumn(t *testing.T) {
	d := day("1", "08:00", "12:00", 30, published([]model.Session{
		session("a", "09:00", "11:00", "r1"),
		session("b", "09:00", "09:30", "r1"),
		session("c", "10:00", "10:30", "r1"),
	}))
	tab, err := BuildDay(d, nil, Options{})
	if err != nil {
		t.Fatalf("BuildDay: %v", err)
	}
	got := map[model.ID]int{}
	for _, s := range tab.Sessions {
		got[s.Session.ID] = s.X
	}
	// c conflicts while NumCols is 2, so it lands at column 2 even though
	// column 1 is free at 10:00.
	want := map[model.ID]int{"a": 0, "b": 1, "c": 2}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("columns = %v, want %v", got, want)
	}
	if tab.NumCols != 3 || tab.NumRooms != 1 {
		t.Errorf("NumCols = %d, NumRooms = %d", tab.NumCols, tab.NumRooms)
	}
}

func TestBuildDaySessionStartingBeforeDay(t *testing.T) {
	d := day("1", "08:00", "10:00", 30, published([]model.Session{
		session("a", "07:00", "08:30", "r1"),
		session("b", "08:30", "09:00", "r1"),
	}))
	tab, err := BuildDay(d, nil, Options{})
	if err != nil {
		t.Fatalf("BuildDay: %v", err)
	}
	a, _ := findSession(*tab, "a")
	b, _ := findSession(*tab, "b")
	if a.X != 0 || a.Y != 0 || a.H != 1 {
		t.Errorf("a = {x:%d y:%d h:%d}, want {0 0 1}", a.X, a.Y, a.H)
	}
	if b.X != 0 || b.Y != 1 || b.H != 1 {
		t.Errorf("b = {x:%d y:%d h:%d}, want {0 1 1}", b.X, b.Y, b.H)
	}
	if tab.NumCols != 1 {
		t.Errorf("NumCols = %d, want 1", tab.NumCols)
	}
}

func TestBuildDayInvalidSubdivisionIsLocal(t *testing.T) {
	c := model.Congress{Days: []model.Day{
		day("bad", "08:00", "10:00", 0, published([]model.Session{session("x", "08:00", "09:00", "r")})),
		day("good", "08:00", "10:00", 30, published([]model.Session{session("y", "08:00", "09:00", "r")})),
	}}
	res := Build(c, Options{})

	if len(res.Failures) != 1 || res.Failures[0].DayID != "bad" {
		t.Fatalf("Failures = %+v", res.Failures)
	}
	if !errors.Is(res.Failures[0].Err, ErrInvalidSubdivision) {
		t.Errorf("err = %v", res.Failures[0].Err)
	}
	if len(res.Tabs) != 1 || res.Tabs[0].Value != "good" {
		t.Errorf("Tabs = %+v", res.Tabs)
	}
}

func TestBuildDayWithoutColumns(t *testing.T) {
	d := day("1", "08:00", "10:00", 30, published([]model.Session{
		session("a", "08:00", "09:00", ""),
		session("b", "09:00", "09:30", ""),
	}))
	tab, err := BuildDay(d, nil, Options{})
	if err != nil {
		t.Fatalf("BuildDay: %v", err)
	}
	if tab.NumCols != 0 || len(tab.ColHeaders) != 0 || len(tab.Sessions) != 0 {
		t.Errorf("tab = cols %d headers %d sessions %d", tab.NumCols, len(tab.ColHeaders), len(tab.Sessions))
	}
	if len(tab.Omissions) != 2 || tab.Omissions[0].Reason != OmitNoColumns {
		t.Errorf("Omissions = %+v", tab.Omissions)
	}
}

func TestBuildDayRoomlessSessionGetsImplicitColumn(t *testing.T) {
	d := day("1", "08:00", "10:00", 30, published([]model.Session{
		session("a", "08:00", "09:00", "r1"),
		session("b", "08:00", "09:00", ""),
	}))
	tab, err := BuildDay(d, nil, Options{})
	if err != nil {
		t.Fatalf("BuildDay: %v", err)
	}
	b, ok := findSession(*tab, "b")
	if !ok || b.X != 1 {
		t.Fatalf("roomless session = %+v, %v", b.GridItem, ok)
	}
	if tab.NumCols != 2 || tab.NumRooms != 1 {
		t.Errorf("NumCols = %d, NumRooms = %d", tab.NumCols, tab.NumRooms)
	}
}

func TestBuildDayDerivesMissingBounds(t *testing.T) {
	d := day("1", "", "", 15, published([]model.Session{
		session("a", "10:00:00", "10:30:00", "r1"),
		session("b", "09:15", "09:45", "r2"),
	}))
	tab, err := BuildDay(d, nil, Options{})
	if err != nil {
		t.Fatalf("BuildDay: %v", err)
	}
	if tab.StartTime != "09:15" || tab.EndTime != "10:30" || tab.TotalRows != 5 {
		t.Errorf("bounds = %s-%s rows %d", tab.StartTime, tab.EndTime, tab.TotalRows)
	}
}

func TestBuildDayRoomScopedBreaks(t *testing.T) {
	lunch := model.Break{
		ID: "lunch", Name: "Lunch", StartTime: "12:00", EndTime: "13:00",
		Rooms: []model.BreakRoom{{Room: &model.Room{ID: "r2"}}, {Room: &model.Room{ID: "r3"}}},
	}
	d := day("1", "11:00", "14:00", 30, published([]model.Session{
		session("a", "11:00", "12:30", "r1"),
		session("b", "12:30", "13:00", "r2"),
	}, lunch))

	tab, err := BuildDay(d, map[model.ID]string{"r3": "Foyer"}, Options{})
	if err != nil {
		t.Fatalf("BuildDay: %v", err)
	}
	if tab.NumCols != 3 || tab.ColHeaders[2].Label != "Foyer" {
		t.Fatalf("columns = %d %+v", tab.NumCols, tab.ColHeaders)
	}
	// r2 is taken by session b from 12:30, so only the Foyer cell remains.
	if len(tab.Breaks) != 1 {
		t.Fatalf("breaks = %+v", tab.Breaks)
	}
	br := tab.Breaks[0]
	if br.X != 2 || br.Y != 2 || br.H != 2 || br.W != 1 || br.I != "break-lunch-r3" {
		t.Errorf("break = %+v", br)
	}
	if len(tab.Omissions) != 1 || tab.Omissions[0].Reason != OmitBreakOverlap {
		t.Errorf("Omissions = %+v", tab.Omissions)
	}
	assertNoOverlap(t, *tab)
}

func TestBuildDayEmptyFillBoundedByContent(t *testing.T) {
	d := day("1", "08:00", "12:00", 30, published([]model.Session{
		session("a", "09:00", "09:30", "r1"),
		session("b", "10:00", "10:30", "r2"),
	}))
	tab, err := BuildDay(d, nil, Options{})
	if err != nil {
		t.Fatalf("BuildDay: %v", err)
	}
	// Rows 2..4 are used; 3 rows x 2 cols minus 2 sessions.
	if len(tab.Empties) != 4 {
		t.Fatalf("got %d empties", len(tab.Empties))
	}
	for _, e := range tab.Empties {
		if e.Y < 2 || e.Y > 4 || e.Type != ItemEmpty || !e.Static {
			t.Errorf("empty = %+v", e)
		}
	}
}

func TestBuildDayNoPublishedSchedule(t *testing.T) {
	d := day("1", "08:00", "10:00", 30, model.Schedule{Status: model.StatusArchived})
	tab, err := BuildDay(d, nil, Options{})
	if tab != nil || err != nil {
		t.Errorf("BuildDay = %v, %v; want nil, nil", tab, err)
	}
}

func TestBuildDayNoRows(t *testing.T) {
	d := day("1", "10:00", "10:00", 30, published([]model.Session{session("a", "10:00", "10:30", "r1")}))
	tab, err := BuildDay(d, nil, Options{})
	if err != nil {
		t.Fatalf("BuildDay: %v", err)
	}
	if len(tab.Sessions) != 0 || len(tab.Omissions) != 1 || tab.Omissions[0].Reason != OmitNoRows {
		t.Errorf("tab = %+v", tab)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	c := randomCongress(rand.New(rand.NewSource(7)), 6)
	first, err := json.Marshal(Build(c, Options{Workers: 1}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, _ := json.Marshal(Build(c, Options{Workers: 8}))
		if string(again) != string(first) {
			t.Fatal("Build output differs between runs")
		}
	}
}

func TestBuildGridInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 50; iter++ {
		c := randomCongress(rng, 3)
		res := Build(c, Options{})
		for _, tab := range res.Tabs {
			assertNoOverlap(t, tab)
			assertNoTimeOverlap(t, tab)
			if len(tab.ColHeaders) != tab.NumCols {
				t.Errorf("headers %d != NumCols %d", len(tab.ColHeaders), tab.NumCols)
			}
			if tab.NumCols < tab.NumRooms {
				t.Errorf("NumCols %d < NumRooms %d", tab.NumCols, tab.NumRooms)
			}
		}
		if t.Failed() {
			t.Fatalf("invariants broken at iteration %d", iter)
		}
	}
}

func randomCongress(rng *rand.Rand, days int) model.Congress {
	c := model.Congress{ID: "c"}
	for d := 0; d < days; d++ {
		var sessions []model.Session
		for s := 0; s < 12; s++ {
			start := 8*60 + rng.Intn(9)*15
			dur := 15 + rng.Intn(8)*15
			room := ""
			if rng.Intn(10) > 0 {
				room = fmt.Sprintf("r%d", rng.Intn(4))
			}
			sessions = append(sessions, session(fmt.Sprintf("%d-%d", d, s), fmtMin(start), fmtMin(start+dur), room))
		}
		var breaks []model.Break
		if rng.Intn(2) == 0 {
			breaks = append(breaks, model.Break{ID: model.ID(fmt.Sprintf("b%d", d)), StartTime: "10:00", EndTime: "10:30"})
		}
		if rng.Intn(2) == 0 {
			breaks = append(breaks, model.Break{
				ID: model.ID(fmt.Sprintf("rb%d", d)), StartTime: "12:00", EndTime: "12:45",
				Rooms: []model.BreakRoom{{Room: &model.Room{ID: "r1"}}, {Room: &model.Room{ID: "r9"}}},
			})
		}
		c.Days = append(c.Days, day(fmt.Sprint(d), "08:00", "13:00", 15+15*rng.Intn(2), published(sessions, breaks...)))
	}
	return c
}

func fmtMin(m int) string { return fmt.Sprintf("%02d:%02d", m/60, m%60) }
