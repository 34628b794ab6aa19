// Package listing implements table sorting, filtering and pagination over fetched rows.
package listing

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// Direction is a column sort direction. The zero value means unsorted.
type Direction string

const (
	Unsorted   Direction = ""
	Descending Direction = "desc"
	Ascending  Direction = "asc"
)

// ParseDirection maps a query value to a Direction. Unknown values are Unsorted.
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "desc":
		return Descending
	case "asc":
		return Ascending
	default:
		return Unsorted
	}
}

// SortState is the current column and direction of a table.
type SortState struct {
	Column    string    `json:"sort_by,omitempty"`
	Direction Direction `json:"sort_direction,omitempty"`
}

// Active reports whether the state sorts anything.
func (s SortState) Active() bool {
	return s.Column != "" && s.Direction != Unsorted
}

// Toggle returns the state after clicking column's header:
// a new column starts descending, then ascending, then unsorted.
func (s SortState) Toggle(column string) SortState {
	if column != s.Column || s.Direction == Unsorted {
		return SortState{Column: column, Direction: Descending}
	}
	if s.Direction == Descending {
		return SortState{Column: column, Direction: Ascending}
	}
	return SortState{}
}

// Column describes how to order rows of type T by one field.
type Column[T any] struct {
	isNull  func(T) bool
	compare func(a, b T) int
}

// Nullable orders by a pointer field; nil values sort last in both directions.
func Nullable[T any, V cmp.Ordered](get func(T) *V) Column[T] {
	return Column[T]{
		isNull: func(item T) bool { return get(item) == nil },
		compare: func(a, b T) int {
			return cmp.Compare(*get(a), *get(b))
		},
	}
}

// Value orders by a field that is always present.
func Value[T any, V cmp.Ordered](get func(T) V) Column[T] {
	return Column[T]{
		isNull:  func(T) bool { return false },
		compare: func(a, b T) int { return cmp.Compare(get(a), get(b)) },
	}
}

// Text orders case-insensitively; empty strings count as null.
func Text[T any](get func(T) string) Column[T] {
	return Column[T]{
		isNull: func(item T) bool { return get(item) == "" },
		compare: func(a, b T) int {
			return cmp.Compare(strings.ToLower(get(a)), strings.ToLower(get(b)))
		},
	}
}

// Time orders by an optional timestamp.
func Time[T any](get func(T) *time.Time) Column[T] {
	return Column[T]{
		isNull:  func(item T) bool { return get(item) == nil },
		compare: func(a, b T) int { return get(a).Compare(*get(b)) },
	}
}

// Sort returns a sorted copy of items. The input slice is never reordered, so an
// unsorted state (or an unknown column) yields the original order. Sorting is
// stable and null values always come last.
func Sort[T any](items []T, state SortState, columns map[string]Column[T]) []T {
	out := slices.Clone(items)
	if !state.Active() {
		return out
	}
	col, ok := columns[state.Column]
	if !ok {
		return out
	}

	slices.SortStableFunc(out, func(a, b T) int {
		an, bn := col.isNull(a), col.isNull(b)
		switch {
		case an && bn:
			return 0
		case an:
			return 1
		case bn:
			return -1
		}
		c := col.compare(a, b)
		if state.Direction == Descending {
			return -c
		}
		return c
	})
	return out
}

// Filter returns the items for which keep returns true.
func Filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
