package grid

import (
	"fmt"

	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/timeindex"
)

// RowIndex maps wall-clock times of one Day to grid rows.
type RowIndex struct {
	start int
	sub   int
	total int
}

// NewRowIndex derives the rows of a Day running from start to end with
// rows of sub minutes. An end at or before start yields zero rows.
func NewRowIndex(start, end string, sub int) (RowIndex, error) {
	if sub <= 0 {
		return RowIndex{}, fmt.Errorf("%w: got %d", ErrInvalidSubdivision, sub)
	}
	span := timeindex.MinutesBetween(start, end)
	total := 0
	if span > 0 {
		total = ceilDiv(span, sub)
	}
	return RowIndex{start: timeindex.ToMinutes(start), sub: sub, total: total}, nil
}

// TotalRows is the number of rows of the Day.
func (r RowIndex) TotalRows() int { return r.total }

// Subdivision is the row length in minutes.
func (r RowIndex) Subdivision() int { return r.sub }

// RowOf returns the row containing t, clamped to [0, TotalRows).
func (r RowIndex) RowOf(t string) int {
	row := floorDiv(timeindex.ToMinutes(t)-r.start, r.sub)
	return clamp(row, 0, r.total-1)
}

// RowSpan returns how many rows a duration covers; at least one.
func (r RowIndex) RowSpan(minutes int) int {
	if minutes <= 0 {
		return 1
	}
	return max(1, ceilDiv(minutes, r.sub))
}

// Span returns the row and height of the interval [start, end), cut to the
// Day on both sides so that y+h never exceeds TotalRows. ok is false when
// the Day has no rows.
func (r RowIndex) Span(start, end string) (y, h int, ok bool) {
	if r.total == 0 {
		return 0, 0, false
	}
	y = r.RowOf(start)
	from := max(timeindex.ToMinutes(start), r.start)
	h = r.RowSpan(timeindex.ToMinutes(end) - from)
	if y+h > r.total {
		h = r.total - y
	}
	return y, h, true
}

// StartOf returns the wall-clock time at which row begins.
func (r RowIndex) StartOf(row int) string {
	return timeindex.FormatMinutes(r.start + row*r.sub)
}

func ceilDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a > 0) == (b > 0) {
		q++
	}
	return q
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}
