package grid

type cell struct{ row, col int }

// occupancy tracks which cells of one Day's grid are taken.
type occupancy struct {
	taken  map[cell]struct{}
	minRow int
	maxRow int
}

func newOccupancy() *occupancy {
	return &occupancy{taken: make(map[cell]struct{}), minRow: -1, maxRow: -1}
}

// free reports whether rows [y, y+h) of column col are unoccupied.
func (o *occupancy) free(col, y, h int) bool {
	for r := y; r < y+h; r++ {
		if _, ok := o.taken[cell{r, col}]; ok {
			return false
		}
	}
	return true
}

func (o *occupancy) occupied(row, col int) bool {
	_, ok := o.taken[cell{row, col}]
	return ok
}

// mark claims the rectangle of it and widens the used row range.
func (o *occupancy) mark(it GridItem) {
	for r := it.Y; r < it.Y+it.H; r++ {
		for c := it.X; c < it.X+it.W; c++ {
			o.taken[cell{r, c}] = struct{}{}
		}
	}
	last := it.Y + it.H - 1
	if o.minRow < 0 || it.Y < o.minRow {
		o.minRow = it.Y
	}
	if last > o.maxRow {
		o.maxRow = last
	}
}

// bounds returns the used row range; ok is false when nothing is placed.
func (o *occupancy) bounds() (lo, hi int, ok bool) {
	if o.minRow < 0 {
		return 0, 0, false
	}
	return o.minRow, o.maxRow, true
}
