// Package views derives filtered, sorted and aggregated read models from a
// task collection. Every function is pure: inputs are never mutated and the
// reference time is always passed in.
package views

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"donelog/internal/dateutil"
	"donelog/internal/task"
)

// Filter selects tasks by completion state.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// Filters lists the filters in cycling order.
var Filters = []Filter{FilterAll, FilterActive, FilterCompleted}

// SortMode selects the list ordering.
type SortMode string

const (
	SortByDate     SortMode = "date"
	SortByPriority SortMode = "priority"
)

// SortModes lists the sort modes in cycling order.
var SortModes = []SortMode{SortByDate, SortByPriority}

// InvalidOptionError indicates an unknown filter, sort mode or time range.
type InvalidOptionError struct {
	Kind  string
	Value string
	Valid []string
}

func (e InvalidOptionError) Error() string {
	return fmt.Sprintf("invalid %s: %s (valid: %s)", e.Kind, e.Value, strings.Join(e.Valid, ", "))
}

// ParseFilter maps user input to a Filter. Blank input means all.
func ParseFilter(s string) (Filter, error) {
	return parseOption("filter", s, FilterAll, Filters)
}

// ParseSortMode maps user input to a SortMode. Blank input means date.
func ParseSortMode(s string) (SortMode, error) {
	return parseOption("sort", s, SortByDate, SortModes)
}

func parseOption[T ~string](kind, s string, def T, valid []T) (T, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return def, nil
	}
	for _, v := range valid {
		if string(v) == s {
			return v, nil
		}
	}
	names := make([]string, len(valid))
	for i, v := range valid {
		names[i] = string(v)
	}
	return "", InvalidOptionError{Kind: kind, Value: s, Valid: names}
}

// Next returns the option after cur in valid, wrapping around.
func Next[T comparable](cur T, valid []T) T {
	i := slices.Index(valid, cur)
	return valid[(i+1)%len(valid)]
}

// Match reports whether t passes the filter.
func (f Filter) Match(t task.Task) bool {
	switch f {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// Apply returns the tasks that pass the filter, in input order.
func (f Filter) Apply(tasks []task.Task) []task.Task {
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Item is a task decorated with its derived due-date state.
type Item struct {
	Task        task.Task
	DaysOverdue int
	DueLabel    string
}

// Overdue reports whether the item counts as overdue.
func (it Item) Overdue() bool {
	return it.DaysOverdue > 0
}

// Decorate computes overdue days and due labels. Completed tasks are never overdue.
func Decorate(tasks []task.Task, today time.Time) []Item {
	items := make([]Item, len(tasks))
	for i, t := range tasks {
		items[i] = Item{Task: t, DueLabel: dateutil.RelativeLabel(t.DueDate, today)}
		if !t.Completed {
			items[i].DaysOverdue = dateutil.DaysOverdue(t.DueDate, today)
		}
	}
	return items
}

// SortItems orders items in place: overdue items first (most overdue first),
// then by the chosen mode.
func SortItems(items []Item, mode SortMode) {
	slices.SortStableFunc(items, func(a, b Item) int {
		switch {
		case a.Overdue() && !b.Overdue():
			return -1
		case !a.Overdue() && b.Overdue():
			return 1
		case a.Overdue() && b.Overdue():
			if c := cmp.Compare(b.DaysOverdue, a.DaysOverdue); c != 0 {
				return c
			}
			return compareDue(a.Task.DueDate, b.Task.DueDate)
		}
		if mode == SortByPriority {
			return cmp.Compare(task.PriorityOrder(a.Task.Priority), task.PriorityOrder(b.Task.Priority))
		}
		return compareDue(a.Task.DueDate, b.Task.DueDate)
	})
}

// compareDue orders by ascending due date with missing dates last.
func compareDue(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return a.Compare(*b)
	}
}

// List filters, decorates and sorts tasks for the list view.
func List(tasks []task.Task, filter Filter, mode SortMode, now time.Time) []Item {
	items := Decorate(filter.Apply(tasks), now)
	SortItems(items, mode)
	return items
}

// CountActive returns the number of incomplete tasks.
func CountActive(tasks []task.Task) int {
	n := 0
	for _, t := range tasks {
		if !t.Completed {
			n++
		}
	}
	return n
}
