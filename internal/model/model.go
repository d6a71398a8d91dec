// Package model holds the congress document as delivered by the content
// store. Field names follow the store's collections; relations may arrive
// either expanded (an object) or collapsed (just the id), and every
// relation type here accepts both.
package model

import "encoding/json"

// Status is the publication status of a Schedule.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// Congress is the root document: one multi-day event for a site.
type Congress struct {
	ID        ID     `json:"id"`
	Title     string `json:"title"`
	StartDate string `json:"startdate,omitempty"`
	EndDate   string `json:"enddate,omitempty"`
	Venue     *Venue `json:"venue,omitempty"`
	Days      []Day  `json:"days"`
}

// Venue lists the rooms of the congress location.
type Venue struct {
	ID    ID     `json:"id"`
	Title string `json:"title"`
	Rooms []Room `json:"rooms,omitempty"`
}

// Day is one calendar day with its own time bounds and row granularity.
type Day struct {
	ID              ID         `json:"id"`
	Title           string     `json:"title"`
	Date            string     `json:"date,omitempty"`
	StartTime       string     `json:"starttime,omitempty"`
	EndTime         string     `json:"endtime,omitempty"`
	TimeSubdivision Minutes    `json:"time_subdivision"`
	TimeSlots       []TimeSlot `json:"timeslots,omitempty"`
	Schedules       []Schedule `json:"schedules,omitempty"`
}

// TimeSlot is a raw slot of a Day as authored in the content store.
type TimeSlot struct {
	ID        ID     `json:"id"`
	StartTime string `json:"starttime"`
	EndTime   string `json:"endtime"`
}

// Schedule is one plan for a Day.
type Schedule struct {
	ID       ID        `json:"id"`
	Name     string    `json:"name"`
	Status   Status    `json:"status"`
	Breaks   []Break   `json:"breaks,omitempty"`
	Sessions []Session `json:"sessions,omitempty"`
}

// Published reports whether the schedule is the published plan of record.
func (s Schedule) Published() bool {
	return s.Status == StatusPublished
}

// Room is a column of the grid.
type Room struct {
	ID    ID     `json:"id"`
	Title string `json:"title,omitempty"`
}

// Section groups sessions for display (track name and colour).
type Section struct {
	ID    ID     `json:"id"`
	Name  string `json:"name,omitempty"`
	Slug  string `json:"slug,omitempty"`
	Color string `json:"color,omitempty"`
}

// Session is a room-and-time-bounded block containing Events.
type Session struct {
	ID        ID       `json:"id"`
	Title     string   `json:"title"`
	StartTime string   `json:"starttime"`
	EndTime   string   `json:"endtime"`
	Day       *DayRef  `json:"day,omitempty"`
	Room      *Room    `json:"room,omitempty"`
	Section   *Section `json:"section,omitempty"`
	Events    []Event  `json:"events,omitempty"`
}

// RoomID returns the owning room id, or "" when the session has none.
func (s Session) RoomID() ID {
	if s.Room == nil {
		return ""
	}
	return s.Room.ID
}

// DayRef is a collapsed reference back to the owning Day.
type DayRef struct {
	ID ID `json:"id"`
}

// Event is a scheduled item positioned relative to its Session's start.
type Event struct {
	ID            ID           `json:"id"`
	Title         string       `json:"title"`
	RelativeStart Minutes      `json:"relative_start"`
	Duration      Minutes      `json:"duration"`
	Type          *TypeRef     `json:"type,omitempty"`
	Children      []Event      `json:"children,omitempty"`
	Assignments   []Assignment `json:"assignments,omitempty"`
}

// Assignment binds a Person to an Event through a Role.
type Assignment struct {
	Person *Person `json:"person,omitempty"`
	Role   *Role   `json:"role,omitempty"`
}

// Person is a speaker, chair or other participant. Profile fields are only
// present when the person is read on its own.
type Person struct {
	ID             ID              `json:"id"`
	Title          string          `json:"title,omitempty"`
	FirstName      string          `json:"first_name,omitempty"`
	LastName       string          `json:"last_name,omitempty"`
	Country        string          `json:"country,omitempty"`
	Qualifications string          `json:"qualifications,omitempty"`
	Image          ID              `json:"image,omitempty"`
	Bio            string          `json:"bio,omitempty"`
	Affiliations   json.RawMessage `json:"affiliations,omitempty"`
	Committees     json.RawMessage `json:"committee_positions,omitempty"`
	Assignments    json.RawMessage `json:"assignments,omitempty"`
}

// FullName joins first and last name.
func (p Person) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	default:
		return p.FirstName + " " + p.LastName
	}
}

// Role is the capacity in which a Person takes part in an Event.
type Role struct {
	ID   ID     `json:"id"`
	Name string `json:"name,omitempty"`
}

// Break is a non-session interval. An empty room list means the break
// spans every column.
type Break struct {
	ID        ID          `json:"id"`
	StartTime string      `json:"starttime"`
	EndTime   string      `json:"endtime"`
	Name      string      `json:"name"`
	Rooms     []BreakRoom `json:"rooms,omitempty"`
}

// BreakRoom is the junction row linking a Break to a Room.
type BreakRoom struct {
	Room *Room `json:"room,omitempty"`
}

// RoomIDs returns the non-empty room ids of the break in authored order.
func (b Break) RoomIDs() []ID {
	out := make([]ID, 0, len(b.Rooms))
	for _, r := range b.Rooms {
		if r.Room == nil || r.Room.ID == "" {
			continue
		}
		out = append(out, r.Room.ID)
	}
	return out
}
