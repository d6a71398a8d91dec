package grid

import (
	"errors"

	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/model"
)

// ErrInvalidSubdivision is returned for a Day whose time subdivision is
// zero or negative.
var ErrInvalidSubdivision = errors.New("grid: time subdivision must be positive")

// ItemType tags a GridItem. The numeric values are part of the output
// format consumed by the grid renderer.
type ItemType int

const (
	ItemSession ItemType = iota
	ItemBreak
	ItemHeader
	ItemEmpty
)

func (t ItemType) String() string {
	switch t {
	case ItemSession:
		return "session"
	case ItemBreak:
		return "break"
	case ItemHeader:
		return "header"
	case ItemEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// GridItem is one positioned rectangle. Coordinates are zero-based; X is a
// column, Y a row, W and H are sizes in columns and rows.
type GridItem struct {
	X           int      `json:"x"`
	Y           int      `json:"y"`
	W           int      `json:"w"`
	H           int      `json:"h"`
	I           string   `json:"i"`
	Static      bool     `json:"static"`
	Type        ItemType `json:"type"`
	Label       string   `json:"label"`
	Color       string   `json:"color,omitempty"`
	IsResizable bool     `json:"isResizable"`
	IsDraggable bool     `json:"isDraggable"`
}

// SessionInfo is the session metadata attached to a placed session.
type SessionInfo struct {
	ID        model.ID       `json:"id"`
	Title     string         `json:"title"`
	StartTime string         `json:"starttime"`
	EndTime   string         `json:"endtime"`
	Room      *model.Room    `json:"room,omitempty"`
	Section   *model.Section `json:"section,omitempty"`
}

// SessionItem is a placed session with its flattened event tree.
type SessionItem struct {
	GridItem
	Session SessionInfo `json:"session"`
	Events  []FlatEvent `json:"events"`
}

// OmissionReason explains why something was not placed as authored.
type OmissionReason string

const (
	// OmitNoColumns: the Day resolved no columns, so the session has nowhere to go.
	OmitNoColumns OmissionReason = "no_columns"
	// OmitNoRows: the Day's time bounds produce no rows.
	OmitNoRows OmissionReason = "no_rows"
	// OmitBreakOverlap: a break cell would cover an occupied cell and was dropped.
	OmitBreakOverlap OmissionReason = "break_overlap"
	// OmitEventDepth: nested events below the depth limit were dropped.
	OmitEventDepth OmissionReason = "event_depth"
)

// Omission records a non-fatal placement problem. Count is the number of
// affected items (cells for breaks, events for truncated trees).
type Omission struct {
	ID     model.ID       `json:"id"`
	Type   ItemType       `json:"type"`
	Reason OmissionReason `json:"reason"`
	Count  int            `json:"count"`
}

// Tab is the grid for one Day.
type Tab struct {
	Label           string           `json:"label"`
	Value           model.ID         `json:"value"`
	Date            string           `json:"date,omitempty"`
	DateLabel       string           `json:"dateLabel,omitempty"`
	StartTime       string           `json:"startTime"`
	EndTime         string           `json:"endTime"`
	TimeSubDivision int              `json:"timeSubDivision"`
	TotalRows       int              `json:"totalRows"`
	TimeScale       float64          `json:"timeScale"`
	NumCols         int              `json:"numCols"`
	NumRooms        int              `json:"numRooms"`
	ColHeaders      []GridItem       `json:"colHeaders"`
	Sessions        []SessionItem    `json:"sessions"`
	Breaks          []GridItem       `json:"breaks"`
	Empties         []GridItem       `json:"empties"`
	TimeSlots       []model.TimeSlot `json:"timeSlots,omitempty"`
	EmptyTimeSlots  []model.TimeSlot `json:"emptyTimeSlots,omitempty"`
	Published       bool             `json:"published"`
	Omissions       []Omission       `json:"omissions,omitempty"`
}

// Failure is a Day that could not be turned into a Tab.
type Failure struct {
	DayID model.ID
	Err   error
}

// Result is the output of Build. Tabs keep the input Day order.
// EmptyDays lists Days that were skipped because no schedule participated.
type Result struct {
	Tabs      []Tab      `json:"tabs"`
	Failures  []Failure  `json:"-"`
	EmptyDays []model.ID `json:"-"`
}

// Options controls a Build.
type Options struct {
	// IncludeDrafts lets non-published schedules participate (preview
	// mode). Their sessions are placed but not static.
	IncludeDrafts bool

	// MaxEventDepth bounds the event tree; 1 keeps only top-level events.
	// Zero means DefaultMaxEventDepth.
	MaxEventDepth int

	// Workers bounds how many Days are built concurrently. Zero means
	// DefaultWorkers.
	Workers int
}

const (
	DefaultMaxEventDepth = 3
	DefaultWorkers       = 4
)

func (o Options) normalized() Options {
	if o.MaxEventDepth <= 0 {
		o.MaxEventDepth = DefaultMaxEventDepth
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	return o
}
