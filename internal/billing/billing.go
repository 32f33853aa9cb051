package billing

import (
	"fmt"
	"time"
)

// Interval is the fixed period between two billing events of a recurring expense.
type Interval string

const (
	IntervalWeekly    Interval = "weekly"
	IntervalMonthly   Interval = "monthly"
	IntervalQuarterly Interval = "quarterly"
	IntervalYearly    Interval = "yearly"
)

// Intervals lists every supported interval in ascending period order.
var Intervals = []Interval{IntervalWeekly, IntervalMonthly, IntervalQuarterly, IntervalYearly}

func (i Interval) Valid() bool {
	switch i {
	case IntervalWeekly, IntervalMonthly, IntervalQuarterly, IntervalYearly:
		return true
	}

	return false
}

func ParseInterval(s string) (Interval, error) {
	i := Interval(s)
	if !i.Valid() {
		return "", fmt.Errorf("unknown interval %q", s)
	}

	return i, nil
}

// Today returns the calendar date of now, in now's location, as UTC midnight.
func Today(now time.Time) time.Time {
	return truncate(now)
}

// Advance returns the earliest date reachable from due by whole interval steps
// that is not before today. A zero due date or an unknown interval is returned
// unchanged, as is a due date that is already today or later.
func Advance(due time.Time, interval Interval, today time.Time) time.Time {
	if due.IsZero() || !interval.Valid() {
		return due
	}

	today = truncate(today)
	anchor := truncate(due)

	next := anchor
	for k := 1; next.Before(today); k++ {
		next = step(anchor, interval, k)
	}

	if next.Equal(anchor) {
		return due
	}

	return next
}

// step moves date forward by k periods. Month based periods are computed from
// the anchor so the day of month does not drift after a clamped month.
func step(anchor time.Time, interval Interval, k int) time.Time {
	switch interval {
	case IntervalWeekly:
		return anchor.AddDate(0, 0, 7*k)
	case IntervalMonthly:
		return addMonthsClamped(anchor, k)
	case IntervalQuarterly:
		return addMonthsClamped(anchor, 3*k)
	case IntervalYearly:
		return addMonthsClamped(anchor, 12*k)
	}

	return anchor
}

// addMonthsClamped adds n calendar months, clamping the day to the last day of
// the target month (Jan 31 + 1 month = Feb 28/29).
func addMonthsClamped(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	lastDay := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()

	day := t.Day()
	if day > lastDay {
		day = lastDay
	}

	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

func truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
