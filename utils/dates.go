// utils/dates.go
package utils

import (
	"fmt"
	"time"
)

const DayLayout = "2006-01-02"

func BeginningOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// DayWindow returns [start, end) covering the calendar day of t in t's location.
func DayWindow(t time.Time) (time.Time, time.Time) {
	start := BeginningOfDay(t)
	return start, start.AddDate(0, 0, 1)
}

// ParseDay parses YYYY-MM-DD in loc. An empty string means today.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return BeginningOfDay(time.Now().In(loc)), nil
	}
	d, err := time.ParseInLocation(DayLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}
