// Package domain holds the calendar arithmetic shared by the session
// orchestrator and the trigger registry. It covers local times of day,
// user-local dates and next-fire computation in a user's timezone.
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the storage format of user-local calendar dates.
const DateLayout = "2006-01-02"

// ErrInvalidTimeOfDay is returned when an HH:MM string cannot be parsed.
var ErrInvalidTimeOfDay = errors.New("invalid time of day")

// ErrInvalidDate is returned when a YYYY-MM-DD string cannot be parsed.
var ErrInvalidDate = errors.New("invalid date")

// TimeOfDay is a wall-clock time without a date or zone.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" (24h clock). Surrounding spaces are ignored.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Date is a user-local calendar date in DateLayout form.
type Date string

// DateOf returns the calendar date of t as observed in loc.
func DateOf(t time.Time, loc *time.Location) Date {
	return Date(t.In(loc).Format(DateLayout))
}

// ParseDate validates s and returns it as a Date.
func ParseDate(s string) (Date, error) {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date(s), nil
}

func (d Date) String() string { return string(d) }

// NextFire returns the first instant strictly after `after` at which the
// wall clock in loc reads at, at most once per local calendar day.
//
// On a day when at falls into a daylight-saving gap the firing moves
// forward by the length of the gap (02:30 becomes 03:30). On a day when
// at occurs twice only the first occurrence counts.
func NextFire(after time.Time, at TimeOfDay, loc *time.Location) time.Time {
	local := after.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	for {
		candidate := wallClock(day, at, loc)
		if candidate.After(after) {
			return candidate
		}
		day = day.AddDate(0, 0, 1)
	}
}

// wallClock resolves at on the calendar day of day (a UTC midnight) in loc.
// Both offsets in force around that day are tried so an ambiguous time
// resolves to its earlier instant.
func wallClock(day time.Time, at TimeOfDay, loc *time.Location) time.Time {
	y, m, d := day.Date()
	_, before := time.Date(y, m, d-1, 12, 0, 0, 0, loc).Zone()
	_, after := time.Date(y, m, d+1, 12, 0, 0, 0, loc).Zone()

	var first time.Time
	for _, offset := range []int{before, after} {
		t := time.Date(y, m, d, at.Hour, at.Minute, 0, 0, time.FixedZone("", offset)).In(loc)
		if t.Day() != d || t.Hour() != at.Hour || t.Minute() != at.Minute {
			continue
		}
		if first.IsZero() || t.Before(first) {
			first = t
		}
	}
	if !first.IsZero() {
		return first
	}

	// Skipped by a gap: the pre-transition offset reads as the same
	// distance past the gap.
	return time.Date(y, m, d, at.Hour, at.Minute, 0, 0, time.FixedZone("", before)).In(loc)
}
