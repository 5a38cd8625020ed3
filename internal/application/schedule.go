package application

import (
	"fmt"
	"strings"
	"time"
)

// Schedule is a weekly sync slot in the form "Weekday HH:MM", e.g.
// "Sunday 03:00". The day name is matched case-insensitively.
type Schedule struct {
	Weekday time.Weekday
	Hour    int
	Minute  int
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseSchedule parses a "Weekday HH:MM" schedule string.
func ParseSchedule(s string) (Schedule, error) {
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return Schedule{}, fmt.Errorf("invalid schedule %q: expected \"Weekday HH:MM\"", s)
	}

	weekday, ok := weekdays[strings.ToLower(parts[0])]
	if !ok {
		return Schedule{}, fmt.Errorf("invalid schedule %q: unknown weekday %q", s, parts[0])
	}

	var hour, minute int
	if _, err := fmt.Sscanf(parts[1], "%d:%d", &hour, &minute); err != nil {
		return Schedule{}, fmt.Errorf("invalid schedule %q: bad time %q", s, parts[1])
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return Schedule{}, fmt.Errorf("invalid schedule %q: time out of range", s)
	}

	return Schedule{Weekday: weekday, Hour: hour, Minute: minute}, nil
}

// Next returns the first occurrence of the schedule strictly after now,
// in now's location.
func (s Schedule) Next(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.Hour, s.Minute, 0, 0, now.Location())

	daysAhead := (int(s.Weekday) - int(now.Weekday()) + 7) % 7
	next = next.AddDate(0, 0, daysAhead)

	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}

	return next
}
