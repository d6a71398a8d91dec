package grid

import (
	"golang.org/x/sync/errgroup"

	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/model"
)

// Build turns every Day of the congress into a Tab. Days are built
// concurrently, each in its own builder; a Day that fails is reported in
// Result.Failures and does not affect the others. Tabs keep Day order.
func Build(c model.Congress, opts Options) Result {
	opts = opts.normalized()
	titles := RoomTitles(c.Venue)

	type dayOutcome struct {
		tab *Tab
		err error
	}
	outcomes := make([]dayOutcome, len(c.Days))

	var g errgroup.Group
	g.SetLimit(opts.Workers)
	for i := range c.Days {
		g.Go(func() error {
			tab, err := BuildDay(c.Days[i], titles, opts)
			outcomes[i] = dayOutcome{tab: tab, err: err}
			return nil
		})
	}
	_ = g.Wait()

	res := Result{Tabs: make([]Tab, 0, len(c.Days))}
	for i, o := range outcomes {
		switch {
		case o.err != nil:
			res.Failures = append(res.Failures, Failure{DayID: c.Days[i].ID, Err: o.err})
		case o.tab == nil:
			res.EmptyDays = append(res.EmptyDays, c.Days[i].ID)
		default:
			res.Tabs = append(res.Tabs, *o.tab)
		}
	}
	return res
}

// RoomTitles indexes the venue's rooms by id.
func RoomTitles(v *model.Venue) map[model.ID]string {
	titles := make(map[model.ID]string)
	if v == nil {
		return titles
	}
	for _, r := range v.Rooms {
		if r.ID != "" {
			titles[r.ID] = r.Title
		}
	}
	return titles
}
