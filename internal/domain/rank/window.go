package rank

import (
	"time"

	"github.com/rayyanhq/mutabaa/internal/domain/model"
)

// Window selects which card dates contribute to an aggregation.
type Window struct {
	start time.Time // zero = unbounded
	end   time.Time // zero = unbounded
}

// AllTime matches every card date.
func AllTime() Window { return Window{} }

// DayOf matches a single calendar date.
func DayOf(t time.Time) Window {
	d := model.Day(t)
	return Window{start: d, end: d}
}

// WeekOf matches the week containing t, anchored on Monday, up to and
// including t itself.
func WeekOf(t time.Time) Window {
	d := model.Day(t)
	offset := (int(d.Weekday()) + 6) % 7 // Monday = 0
	return Window{start: d.AddDate(0, 0, -offset), end: d}
}

// LastDays matches the rolling n-day window ending at t, inclusive.
func LastDays(t time.Time, n int) Window {
	d := model.Day(t)
	return Window{start: d.AddDate(0, 0, -(n - 1)), end: d}
}

// Between matches the inclusive [from, to] date range.
func Between(from, to time.Time) Window {
	return Window{start: model.Day(from), end: model.Day(to)}
}

// Contains reports whether the calendar date of t falls in the window.
func (w Window) Contains(t time.Time) bool {
	d := model.Day(t)
	if !w.start.IsZero() && d.Before(w.start) {
		return false
	}
	if !w.end.IsZero() && d.After(w.end) {
		return false
	}
	return true
}

// Bounds returns the window edges; zero times mean unbounded.
func (w Window) Bounds() (time.Time, time.Time) { return w.start, w.end }

// Days is the number of calendar days covered, 0 for unbounded windows.
func (w Window) Days() int {
	if w.start.IsZero() || w.end.IsZero() {
		return 0
	}
	return int(w.end.Sub(w.start).Hours()/24) + 1
}
