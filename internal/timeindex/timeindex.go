// Package timeindex converts wall-clock "HH:MM" strings to minute offsets
// and back.
//
// Input is forgiving: a missing, empty or unparsable time is read as
// "00:00" rather than reported as an error. A trailing seconds component
// ("09:30:00") is truncated. There is no date and no timezone; values above
// 24h only arise from explicit addition.
package timeindex

import (
	"fmt"
	"strconv"
	"strings"
)

// Zero is the value substituted for missing or malformed input.
const Zero = "00:00"

// TimeValue is an hour/minute pair.
type TimeValue struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// ToMinutes returns the number of minutes since 00:00 for t.
func ToMinutes(t string) int {
	m, ok := parse(t)
	if !ok {
		return 0
	}
	return m
}

// Valid reports whether t parses as a wall-clock time. Callers use it to
// tell an absent bound from an explicit "00:00".
func Valid(t string) bool {
	_, ok := parse(t)
	return ok
}

// MinutesBetween returns end - start in minutes. The result is negative
// when end is before start.
func MinutesBetween(start, end string) int {
	return ToMinutes(end) - ToMinutes(start)
}

// AddMinutes shifts t by delta minutes. Results are not wrapped at 24h;
// negative results are formatted as "-HH:MM".
func AddMinutes(t string, delta int) string {
	return FormatMinutes(ToMinutes(t) + delta)
}

// FormatMinutes renders a minute offset as zero-padded "HH:MM".
func FormatMinutes(total int) string {
	sign := ""
	if total < 0 {
		sign = "-"
		total = -total
	}
	return fmt.Sprintf("%s%02d:%02d", sign, total/60, total%60)
}

// RemoveSeconds normalizes t to "HH:MM". An empty input stays empty so
// that optional fields remain absent.
func RemoveSeconds(t string) string {
	if strings.TrimSpace(t) == "" {
		return ""
	}
	return FormatMinutes(ToMinutes(t))
}

// ToTimeValue splits t into hour and minute.
func ToTimeValue(t string) TimeValue {
	return FromTotalMinutes(ToMinutes(t))
}

// FromTotalMinutes splits a minute offset into hour and minute.
func FromTotalMinutes(total int) TimeValue {
	return TimeValue{Hour: total / 60, Minute: total % 60}
}

// FromTimeValue is the inverse of ToTimeValue.
func FromTimeValue(v TimeValue) string {
	return FormatMinutes(v.Minutes())
}

// Minutes returns the offset since 00:00.
func (v TimeValue) Minutes() int {
	return v.Hour*60 + v.Minute
}

func (v TimeValue) String() string {
	return FromTimeValue(v)
}

// parse reads "[-]H:MM" with an optional ":SS" suffix, which is ignored.
func parse(t string) (int, bool) {
	t = strings.TrimSpace(t)
	if t == "" {
		return 0, false
	}
	neg := false
	if strings.HasPrefix(t, "-") {
		neg = true
		t = t[1:]
	}

	parts := strings.Split(t, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || parts[0] == "" || strings.HasPrefix(parts[0], "+") {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || strings.HasPrefix(parts[1], "+") {
		return 0, false
	}
	if len(parts) == 3 {
		if _, err := strconv.Atoi(parts[2]); err != nil {
			return 0, false
		}
	}

	total := h*60 + m
	if neg {
		total = -total
	}
	return total, true
}
