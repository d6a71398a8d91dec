package grid

import (
	"fmt"

	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/model"
	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/timeindex"
)

// placedSession pairs a session with the publication state of the
// schedule it came from.
type placedSession struct {
	session   model.Session
	published bool
}

// interval is a half-open [start, end) range in minutes since 00:00.
type interval struct{ start, end int }

func (a interval) overlaps(b interval) bool {
	return a.start < b.end && b.start < a.end
}

// placeSessions positions every session of the Day. Sessions must be in
// start/title order. A session goes to its room's column unless its time
// range overlaps a session already placed in that room, or its rows are
// taken there; then it gets a new column appended at NumCols. No two
// sessions share a cell and no column holds two overlapping sessions.
func (b *dayBuilder) placeSessions(sessions []placedSession) {
	for _, ps := range sessions {
		s := ps.session

		y, h, ok := b.rows.Span(s.StartTime, s.EndTime)
		if !ok {
			b.omit(s.ID, ItemSession, OmitNoRows, 1)
			continue
		}

		roomID := s.RoomID()
		if roomID == "" && b.cols.NumCols() == 0 {
			b.omit(s.ID, ItemSession, OmitNoColumns, 1)
			continue
		}

		span := interval{timeindex.ToMinutes(s.StartTime), timeindex.ToMinutes(s.EndTime)}
		col, ok := b.cols.ColumnOf(roomID)
		if !ok || b.roomBusy(roomID, span) || !b.occ.free(col, y, h) {
			title := ""
			if s.Room != nil {
				title = roomTitle(s.Room, b.titles)
			}
			col = b.cols.Append(roomID, title)
		}
		b.booked[roomID] = append(b.booked[roomID], span)

		item := GridItem{
			X:           col,
			Y:           y,
			W:           1,
			H:           h,
			I:           "session-" + string(s.ID),
			Static:      ps.published,
			Type:        ItemSession,
			Label:       s.Title,
			IsDraggable: !ps.published,
			IsResizable: !ps.published,
		}
		if s.Section != nil {
			item.Color = s.Section.Color
		}
		b.occ.mark(item)

		events, dropped := Flatten(s.StartTime, s.Events, b.opts.MaxEventDepth)
		if dropped > 0 {
			b.omit(s.ID, ItemSession, OmitEventDepth, dropped)
		}

		b.tab.Sessions = append(b.tab.Sessions, SessionItem{
			GridItem: item,
			Session: SessionInfo{
				ID:        s.ID,
				Title:     s.Title,
				StartTime: timeindex.RemoveSeconds(s.StartTime),
				EndTime:   timeindex.RemoveSeconds(s.EndTime),
				Room:      s.Room,
				Section:   s.Section,
			},
			Events: events,
		})
	}
}

// roomBusy reports whether span overlaps a session already placed in room.
func (b *dayBuilder) roomBusy(room model.ID, span interval) bool {
	for _, other := range b.booked[room] {
		if span.overlaps(other) {
			return true
		}
	}
	return false
}

// insertBreaks places break cells after all sessions. A room-scoped break
// gets one cell per listed room; a break without rooms spans every column
// in a single item. Cells that would cover an occupied cell are dropped,
// and a full-row break crossing occupied cells is split into single
// columns on the free ones.
func (b *dayBuilder) insertBreaks(breaks []model.Break) {
	for _, br := range breaks {
		y, h, ok := b.rows.Span(br.StartTime, br.EndTime)
		if !ok {
			b.omit(br.ID, ItemBreak, OmitNoRows, 1)
			continue
		}

		roomIDs := br.RoomIDs()
		if len(roomIDs) > 0 {
			for _, rid := range roomIDs {
				col, _ := b.cols.ColumnOf(rid)
				if !b.occ.free(col, y, h) {
					b.omit(br.ID, ItemBreak, OmitBreakOverlap, 1)
					continue
				}
				b.addBreak(br, col, y, 1, h, fmt.Sprintf("break-%s-%s", br.ID, rid))
			}
			continue
		}

		numCols := b.cols.NumCols()
		if numCols == 0 {
			b.omit(br.ID, ItemBreak, OmitNoColumns, 1)
			continue
		}

		allFree := true
		for c := 0; c < numCols; c++ {
			if !b.occ.free(c, y, h) {
				allFree = false
				break
			}
		}
		if allFree {
			b.addBreak(br, 0, y, numCols, h, "break-"+string(br.ID))
			continue
		}

		blocked := 0
		for c := 0; c < numCols; c++ {
			if !b.occ.free(c, y, h) {
				blocked++
				continue
			}
			b.addBreak(br, c, y, 1, h, fmt.Sprintf("break-%s-c%d", br.ID, c))
		}
		b.omit(br.ID, ItemBreak, OmitBreakOverlap, blocked)
	}
}

func (b *dayBuilder) addBreak(br model.Break, x, y, w, h int, id string) {
	item := GridItem{
		X:      x,
		Y:      y,
		W:      w,
		H:      h,
		I:      id,
		Static: true,
		Type:   ItemBreak,
		Label:  br.Name,
	}
	b.occ.mark(item)
	b.tab.Breaks = append(b.tab.Breaks, item)
}

// fillEmpty emits an Empty item for every unoccupied cell inside the used
// row range. Rows outside that range stay unfilled.
func (b *dayBuilder) fillEmpty() {
	lo, hi, ok := b.occ.bounds()
	if !ok {
		return
	}
	numCols := b.cols.NumCols()
	for r := lo; r <= hi; r++ {
		for c := 0; c < numCols; c++ {
			if b.occ.occupied(r, c) {
				continue
			}
			b.tab.Empties = append(b.tab.Empties, GridItem{
				X:      c,
				Y:      r,
				W:      1,
				H:      1,
				I:      fmt.Sprintf("empty-%d-%d", r, c),
				Static: true,
				Type:   ItemEmpty,
			})
		}
	}
}
