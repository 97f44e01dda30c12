// Package calendar answers working-day questions from the holiday list.
package calendar

import "time"

type Holiday struct {
	ID          int64     `json:"id"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
}

const dayLayout = "2006-01-02"

func dayKey(t time.Time) string {
	return t.Format(dayLayout)
}

// ParseDay parses a YYYY-MM-DD date as midnight UTC.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(dayLayout, s)
}

// IsWorkingDay reports whether day is neither a Sunday nor a holiday.
func IsWorkingDay(day time.Time, holidays []Holiday) bool {
	if day.Weekday() == time.Sunday {
		return false
	}

	key := dayKey(day)
	for _, h := range holidays {
		if dayKey(h.Date) == key {
			return false
		}
	}

	return true
}

// WorkingDays counts working days between from and to, both inclusive.
func WorkingDays(from, to time.Time, holidays []Holiday) int {
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	to = time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	if to.Before(from) {
		return 0
	}

	off := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		off[dayKey(h.Date)] = struct{}{}
	}

	count := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Sunday {
			continue
		}
		if _, ok := off[dayKey(d)]; ok {
			continue
		}
		count++
	}

	return count
}
