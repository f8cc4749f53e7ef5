// Package dateutil holds the calendar-day arithmetic shared by every view.
// All comparisons truncate both sides to midnight in the reference time's
// location before subtracting.
package dateutil

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Midnight truncates t to the start of its calendar day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the number of calendar days from `from` to `to`,
// evaluated in to's location. DST transitions never yield fractional days.
func DaysBetween(from, to time.Time) int {
	fy, fm, fd := from.In(to.Location()).Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a) / (24 * time.Hour))
}

// SameDay reports whether a and b fall on the same calendar day in b's location.
func SameDay(a, b time.Time) bool {
	return DaysBetween(a, b) == 0
}

// DaysOverdue returns how many whole days today is past due, or 0.
func DaysOverdue(due *time.Time, today time.Time) int {
	if due == nil {
		return 0
	}
	if n := DaysBetween(*due, today); n > 0 {
		return n
	}
	return 0
}

// IsOverdue reports whether due is strictly before today's calendar day.
func IsOverdue(due *time.Time, today time.Time) bool {
	return DaysOverdue(due, today) > 0
}

// RelativeLabel renders a due date relative to today.
func RelativeLabel(due *time.Time, today time.Time) string {
	if due == nil {
		return "No due date"
	}
	diff := -DaysBetween(*due, today)
	switch {
	case diff < 0:
		return "Overdue"
	case diff == 0:
		return "Today"
	case diff == 1:
		return "Tomorrow"
	case diff <= 7:
		return fmt.Sprintf("%d days from now", diff)
	default:
		return ShortDate(due.In(today.Location()))
	}
}

// ShortDate formats t as "Jan 2".
func ShortDate(t time.Time) string {
	return t.Format("Jan 2")
}

// LongDate formats t as "January 2, 2006".
func LongDate(t time.Time) string {
	return t.Format("January 2, 2006")
}

// ParseDate parses a YYYY-MM-DD date in loc. Blank input yields nil.
func ParseDate(v string, loc *time.Location) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, v, loc)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", v, err)
	}
	return &t, nil
}

// FormatDate renders an optional date as YYYY-MM-DD, or "" when absent.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}
