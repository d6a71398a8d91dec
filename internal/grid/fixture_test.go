package grid

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/tidwall/jsonc"

	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/model"
	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/timeindex"
)

func loadCongress(t *testing.T, path string) model.Congress {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	var c model.Congress
	if err := json.Unmarshal(jsonc.ToJSON(data), &c); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return c
}

func findSession(tab Tab, id model.ID) (SessionItem, bool) {
	for _, s := range tab.Sessions {
		if s.Session.ID == id {
			return s, true
		}
	}
	return SessionItem{}, false
}

// assertNoOverlap checks that sessions and breaks never share a cell and
// stay inside the grid.
func assertNoOverlap(t *testing.T, tab Tab) {
	t.Helper()
	seen := make(map[cell]string)
	check := func(it GridItem) {
		if it.X < 0 || it.X+it.W > tab.NumCols {
			t.Errorf("%s: columns [%d,%d) outside [0,%d)", it.I, it.X, it.X+it.W, tab.NumCols)
		}
		if it.Y < 0 || it.Y+it.H > tab.TotalRows {
			t.Errorf("%s: rows [%d,%d) outside [0,%d)", it.I, it.Y, it.Y+it.H, tab.TotalRows)
		}
		for r := it.Y; r < it.Y+it.H; r++ {
			for c := it.X; c < it.X+it.W; c++ {
				if other, ok := seen[cell{r, c}]; ok {
					t.Errorf("%s overlaps %s at row %d col %d", it.I, other, r, c)
				}
				seen[cell{r, c}] = it.I
			}
		}
	}
	for _, s := range tab.Sessions {
		check(s.GridItem)
	}
	for _, b := range tab.Breaks {
		check(b)
	}
	for _, e := range tab.Empties {
		check(e)
	}
}

// assertNoTimeOverlap checks that no column holds two sessions whose time
// ranges overlap.
func assertNoTimeOverlap(t *testing.T, tab Tab) {
	t.Helper()
	byCol := make(map[int][]SessionItem)
	for _, s := range tab.Sessions {
		byCol[s.X] = append(byCol[s.X], s)
	}
	for col, items := range byCol {
		for i := range items {
			for j := i + 1; j < len(items); j++ {
				a := interval{timeindex.ToMinutes(items[i].Session.StartTime), timeindex.ToMinutes(items[i].Session.EndTime)}
				b := interval{timeindex.ToMinutes(items[j].Session.StartTime), timeindex.ToMinutes(items[j].Session.EndTime)}
				if a.overlaps(b) {
					t.Errorf("column %d: %s and %s overlap in time", col, items[i].I, items[j].I)
				}
			}
		}
	}
}
