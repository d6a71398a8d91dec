package grid

import (
	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/model"
)

// Column is one grid column. Overflow columns are appended when sessions
// in the same room overlap in time; they carry the room they relieve.
type Column struct {
	Index    int      `json:"index"`
	RoomID   model.ID `json:"roomId"`
	Title    string   `json:"title"`
	Overflow bool     `json:"overflow,omitempty"`
}

// ColumnResolver assigns stable column indices to the rooms of one Day.
// It is owned by a single Day's builder and is not safe for concurrent use.
type ColumnResolver struct {
	cols    []Column
	primary map[model.ID]int
	rooms   int
}

// ResolveColumns collects the distinct rooms referenced by sessions and
// then by breaks, in that order, and numbers them from 0. Both slices must
// already be in placement order. titles supplies room names for rooms that
// arrive collapsed to their id.
func ResolveColumns(sessions []model.Session, breaks []model.Break, titles map[model.ID]string) *ColumnResolver {
	c := &ColumnResolver{primary: make(map[model.ID]int)}
	for _, s := range sessions {
		if s.Room == nil || s.Room.ID == "" {
			continue
		}
		c.add(s.Room.ID, roomTitle(s.Room, titles))
	}
	for _, b := range breaks {
		for _, r := range b.Rooms {
			if r.Room == nil || r.Room.ID == "" {
				continue
			}
			c.add(r.Room.ID, roomTitle(r.Room, titles))
		}
	}
	c.rooms = len(c.cols)
	return c
}

func (c *ColumnResolver) add(id model.ID, title string) {
	if idx, ok := c.primary[id]; ok {
		if c.cols[idx].Title == "" {
			c.cols[idx].Title = title
		}
		return
	}
	c.primary[id] = len(c.cols)
	c.cols = append(c.cols, Column{Index: len(c.cols), RoomID: id, Title: title})
}

// NumCols is the current number of columns, overflow included.
func (c *ColumnResolver) NumCols() int { return len(c.cols) }

// NumRooms is the number of distinct rooms resolved up front.
func (c *ColumnResolver) NumRooms() int { return c.rooms }

// Columns returns the columns in index order.
func (c *ColumnResolver) Columns() []Column { return c.cols }

// ColumnOf returns the primary column of a room.
func (c *ColumnResolver) ColumnOf(room model.ID) (int, bool) {
	idx, ok := c.primary[room]
	return idx, ok
}

// Append adds a column at index NumCols. A room without a primary column
// gets the new column as its primary one; otherwise it becomes an overflow
// column for that room.
func (c *ColumnResolver) Append(room model.ID, title string) int {
	idx := len(c.cols)
	if _, ok := c.primary[room]; !ok {
		c.primary[room] = idx
		c.cols = append(c.cols, Column{Index: idx, RoomID: room, Title: title})
		return idx
	}
	if title == "" {
		title = c.cols[c.primary[room]].Title
	}
	c.cols = append(c.cols, Column{Index: idx, RoomID: room, Title: title, Overflow: true})
	return idx
}

func roomTitle(r *model.Room, titles map[model.ID]string) string {
	if r.Title != "" {
		return r.Title
	}
	return titles[r.ID]
}
