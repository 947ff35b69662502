package domain

import (
	"errors"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var errInvalidWeekday = errors.New("invalid weekday")

// ParseWeekday accepts full or three-letter English day names, case-insensitively.
func ParseWeekday(label string) (time.Weekday, error) {
	l := strings.ToLower(strings.TrimSpace(label))
	if len(l) < 3 {
		return 0, errInvalidWeekday
	}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		name := strings.ToLower(wd.String())
		if l == name || l == name[:3] {
			return wd, nil
		}
	}
	return 0, errInvalidWeekday
}

// NextSlotDate returns the first calendar date on or after from whose weekday
// matches the slot's day label, formatted with DateLayout.
func NextSlotDate(s Slot, from time.Time) (string, error) {
	wd, err := ParseWeekday(s.Day)
	if err != nil {
		return "", err
	}
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, weekdayOffset(day.Weekday(), wd)).Format(DateLayout), nil
}

func weekdayOffset(from, to time.Weekday) int {
	return (int(to) - int(from) + 7) % 7
}
