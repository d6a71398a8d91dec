package grid

import (
	"errors"
	"testing"
)

func TestNewRowIndex(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		sub        int
		wantRows   int
	}{
		{"even", "08:00", "10:00", 30, 4},
		{"partial last row", "08:00", "10:10", 30, 5},
		{"seconds truncated", "08:00:00", "09:00:59", 15, 4},
		{"end before start", "10:00", "08:00", 30, 0},
		{"missing bounds", "", "", 30, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRowIndex(tt.start, tt.end, tt.sub)
			if err != nil {
				t.Fatalf("NewRowIndex: %v", err)
			}
			if r.TotalRows() != tt.wantRows {
				t.Errorf("TotalRows = %d, want %d", r.TotalRows(), tt.wantRows)
			}
		})
	}
}

func TestNewRowIndexRejectsNonPositiveSubdivision(t *testing.T) {
	for _, sub := range []int{0, -15} {
		if _, err := NewRowIndex("08:00", "10:00", sub); !errors.Is(err, ErrInvalidSubdivision) {
			t.Errorf("sub=%d: err = %v, want ErrInvalidSubdivision", sub, err)
		}
	}
}

func TestRowOfClamps(t *testing.T) {
	r, _ := NewRowIndex("08:00", "10:00", 30)
	tests := map[string]int{
		"08:00": 0,
		"08:29": 0,
		"08:30": 1,
		"09:00": 2,
		"09:59": 3,
		"10:00": 3,
		"12:00": 3,
		"07:00": 0,
		"bogus": 0,
	}
	for in, want := range tests {
		if got := r.RowOf(in); got != want {
			t.Errorf("RowOf(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestRowSpan(t *testing.T) {
	r, _ := NewRowIndex("08:00", "10:00", 30)
	tests := map[int]int{-10: 1, 0: 1, 1: 1, 30: 1, 31: 2, 90: 3}
	for minutes, want := range tests {
		if got := r.RowSpan(minutes); got != want {
			t.Errorf("RowSpan(%d) = %d, want %d", minutes, got, want)
		}
	}
}

func TestSpanStaysInsideDay(t *testing.T) {
	r, _ := NewRowIndex("08:00", "10:00", 30)

	y, h, ok := r.Span("09:00", "09:30")
	if !ok || y != 2 || h != 1 {
		t.Errorf("Span(09:00-09:30) = %d,%d,%v", y, h, ok)
	}

	y, h, ok = r.Span("09:30", "11:00")
	if !ok || y != 3 || h != 1 {
		t.Errorf("Span overflowing end = %d,%d,%v", y, h, ok)
	}

	y, h, ok = r.Span("07:00", "08:30")
	if !ok || y != 0 || h != 1 {
		t.Errorf("Span starting before the day = %d,%d,%v, want 0,1", y, h, ok)
	}

	empty, _ := NewRowIndex("10:00", "10:00", 30)
	if _, _, ok := empty.Span("10:00", "10:30"); ok {
		t.Error("Span on a day without rows should not be ok")
	}
}

func TestStartOf(t *testing.T) {
	r, _ := NewRowIndex("08:00", "10:00", 15)
	if got := r.StartOf(5); got != "09:15" {
		t.Errorf("StartOf(5) = %q", got)
	}
}

func TestDivHelpers(t *testing.T) {
	if ceilDiv(7, 3) != 3 || ceilDiv(6, 3) != 2 || ceilDiv(-7, 3) != -2 {
		t.Error("ceilDiv")
	}
	if floorDiv(7, 3) != 2 || floorDiv(-7, 3) != -3 || floorDiv(-6, 3) != -2 {
		t.Error("floorDiv")
	}
}
