// Package listing provides the generic filter -> sort -> paginate
// pipeline shared by every list view. The pipeline is a pure function of
// (collection, query); it holds no hidden state.
package listing

import (
	"sort"
	"strings"
	"time"

	"github.com/rayyanhq/mutabaa/internal/domain/model"
)

// Predicate decides whether an item passes one filter dimension.
// Predicates are ANDed; an absent filter means "match everything".
type Predicate[T any] func(T) bool

// Query configures one pipeline run. Less is optional; a nil Less keeps
// the input order. Page is 1-based. PageSize must be positive.
type Query[T any] struct {
	Filters  []Predicate[T]
	Less     func(a, b T) bool
	Page     int
	PageSize int
}

// Page is one slice of the filtered, sorted collection plus the totals
// computed from the filtered (not raw) size.
type Page[T any] struct {
	Items      []T
	Page       int
	PageSize   int
	TotalItems int
	TotalPages int
}

// Apply runs the pipeline in the strict filter -> sort -> paginate order.
// A page beyond the last valid one returns an empty slice with correct
// totals rather than failing.
func Apply[T any](items []T, q Query[T]) Page[T] {
	filtered := make([]T, 0, len(items))
	for _, it := range items {
		if matchAll(it, q.Filters) {
			filtered = append(filtered, it)
		}
	}

	if q.Less != nil {
		sort.SliceStable(filtered, func(i, j int) bool { return q.Less(filtered[i], filtered[j]) })
	}

	size := q.PageSize
	if size <= 0 {
		size = len(filtered)
		if size == 0 {
			size = 1
		}
	}
	page := q.Page
	if page < 1 {
		page = 1
	}

	total := len(filtered)
	totalPages := (total + size - 1) / size

	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}

	return Page[T]{
		Items:      filtered[start:end],
		Page:       page,
		PageSize:   size,
		TotalItems: total,
		TotalPages: totalPages,
	}
}

func matchAll[T any](it T, filters []Predicate[T]) bool {
	for _, f := range filters {
		if f != nil && !f(it) {
			return false
		}
	}
	return true
}

// Substring matches items whose extracted name-like fields contain the
// needle as a literal substring. An empty needle matches everything.
func Substring[T any](needle string, fields func(T) []string) Predicate[T] {
	if needle == "" {
		return nil
	}
	return func(it T) bool {
		for _, f := range fields(it) {
			if strings.Contains(f, needle) {
				return true
			}
		}
		return false
	}
}

// GenderIs matches items whose gender equals the wanted value, accepting
// either the canonical code or the localized label on the filter side.
// An empty filter matches everything.
func GenderIs[T any](want string, gender func(T) model.Gender) Predicate[T] {
	if want == "" {
		return nil
	}
	norm := model.NormalizeGender(want)
	return func(it T) bool { return gender(it) == norm }
}

// Equals matches items whose categorical key equals want. The zero value
// of K disables the filter.
func Equals[T any, K comparable](want K, key func(T) K) Predicate[T] {
	var zero K
	if want == zero {
		return nil
	}
	return func(it T) bool { return key(it) == want }
}

// InRange matches items whose derived value lies in the inclusive
// [min, max] interval. Nil bounds are open.
func InRange[T any](min, max *float64, value func(T) float64) Predicate[T] {
	if min == nil && max == nil {
		return nil
	}
	return func(it T) bool {
		v := value(it)
		if min != nil && v < *min {
			return false
		}
		if max != nil && v > *max {
			return false
		}
		return true
	}
}

// OnDate matches items whose associated date falls on the given calendar
// date. A zero date disables the filter.
func OnDate[T any](date time.Time, when func(T) time.Time) Predicate[T] {
	if date.IsZero() {
		return nil
	}
	return func(it T) bool { return model.SameDay(when(it), date) }
}

// BetweenDates matches items whose associated date falls in the
// inclusive [from, to] range. Zero bounds are open.
func BetweenDates[T any](from, to time.Time, when func(T) time.Time) Predicate[T] {
	if from.IsZero() && to.IsZero() {
		return nil
	}
	return func(it T) bool {
		d := model.Day(when(it))
		if !from.IsZero() && d.Before(model.Day(from)) {
			return false
		}
		if !to.IsZero() && d.After(model.Day(to)) {
			return false
		}
		return true
	}
}
