package grid

import (
	"sort"

	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/model"
	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/timeindex"
)

// FlatEvent is an event of a session's tree after normalization.
// RelativeStart and Duration are minutes from the owning session's start
// at every depth; Start and End are the same instants as wall-clock times.
type FlatEvent struct {
	ID            model.ID           `json:"id"`
	Title         string             `json:"title"`
	RelativeStart int                `json:"relative_start"`
	Duration      int                `json:"duration"`
	Start         string             `json:"start"`
	End           string             `json:"end"`
	Depth         int                `json:"depth"`
	Kind          Collection         `json:"kind,omitempty"`
	Type          EventType          `json:"type,omitempty"`
	Assignments   []model.Assignment `json:"assignments,omitempty"`
	Children      []FlatEvent        `json:"children,omitempty"`
}

type flattenFrame struct {
	src   *model.Event
	dst   *FlatEvent
	depth int
}

// Flatten normalizes the event trees of one session. Siblings are ordered
// by relative start (stable). Levels deeper than maxDepth are dropped;
// the number of dropped events is returned.
//
// The walk uses an explicit stack, so malformed deep input cannot grow the
// goroutine stack.
func Flatten(sessionStart string, events []model.Event, maxDepth int) ([]FlatEvent, int) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxEventDepth
	}
	origin := timeindex.ToMinutes(sessionStart)

	top := sortedEvents(events)
	roots := make([]FlatEvent, len(top))
	stack := make([]flattenFrame, 0, len(top))
	for i := len(top) - 1; i >= 0; i-- {
		stack = append(stack, flattenFrame{src: top[i], dst: &roots[i], depth: 1})
	}

	dropped := 0
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		ev := f.src
		rel, dur := int(ev.RelativeStart), int(ev.Duration)
		*f.dst = FlatEvent{
			ID:            ev.ID,
			Title:         ev.Title,
			RelativeStart: rel,
			Duration:      dur,
			Start:         timeindex.FormatMinutes(origin + rel),
			End:           timeindex.FormatMinutes(origin + rel + dur),
			Depth:         f.depth,
			Type:          ResolveType(ev.Type),
			Assignments:   ev.Assignments,
		}
		if f.dst.Type != nil {
			f.dst.Kind = f.dst.Type.Collection()
		}

		if len(ev.Children) == 0 {
			continue
		}
		if f.depth >= maxDepth {
			dropped += countEvents(ev.Children)
			continue
		}

		// The children slice is sized once so the pointers pushed below
		// stay valid.
		kids := sortedEvents(ev.Children)
		f.dst.Children = make([]FlatEvent, len(kids))
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, flattenFrame{src: kids[i], dst: &f.dst.Children[i], depth: f.depth + 1})
		}
	}
	return roots, dropped
}

func sortedEvents(events []model.Event) []*model.Event {
	out := make([]*model.Event, len(events))
	for i := range events {
		out[i] = &events[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RelativeStart < out[j].RelativeStart
	})
	return out
}

// countEvents counts every event in the given subtrees.
func countEvents(events []model.Event) int {
	n := 0
	pending := [][]model.Event{events}
	for len(pending) > 0 {
		level := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		n += len(level)
		for i := range level {
			if len(level[i].Children) > 0 {
				pending = append(pending, level[i].Children)
			}
		}
	}
	return n
}
