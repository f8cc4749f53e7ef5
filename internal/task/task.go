// Package task defines the to-do record and the rules for creating and patching it.
package task

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Priority represents the importance level of a task.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Priorities lists every priority, most important first.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// PriorityOrder returns the sort order for a priority (lower = higher priority).
func PriorityOrder(p Priority) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// IsValidPriority checks if a priority string is valid.
func IsValidPriority(p Priority) bool {
	return slices.Contains(Priorities, p)
}

// ParsePriority maps user input to a Priority. Blank input means medium.
func ParsePriority(s string) (Priority, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PriorityMedium, nil
	}
	p := Priority(s)
	if !IsValidPriority(p) {
		return "", InvalidPriorityError{Value: s}
	}
	return p, nil
}

// Task is a single to-do item.
type Task struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description *string    `json:"description" yaml:"description,omitempty"`
	Priority    Priority   `json:"priority" yaml:"priority"`
	DueDate     *time.Time `json:"due_date" yaml:"due_date,omitempty"`
	Completed   bool       `json:"completed" yaml:"completed"`
	CompletedAt *time.Time `json:"completed_at" yaml:"completed_at,omitempty"`
	Reflection  *string    `json:"reflection" yaml:"reflection,omitempty"`
	CreatedAt   time.Time  `json:"created_at" yaml:"created_at"`
}

// Draft carries the user-supplied fields of a task that does not exist yet.
type Draft struct {
	Title       string
	Description string
	Priority    Priority
	DueDate     *time.Time
}

// New validates a draft and turns it into a fresh, incomplete task.
func New(d Draft, now time.Time) (Task, error) {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return Task{}, ErrEmptyTitle
	}
	priority := d.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	if !IsValidPriority(priority) {
		return Task{}, InvalidPriorityError{Value: string(priority)}
	}
	t := Task{
		ID:        uuid.NewString(),
		Title:     title,
		Priority:  priority,
		CreatedAt: now,
	}
	if desc := strings.TrimSpace(d.Description); desc != "" {
		t.Description = &desc
	}
	if d.DueDate != nil {
		due := *d.DueDate
		t.DueDate = &due
	}
	return t, nil
}

// Clone returns a copy that shares no pointers with t.
func (t Task) Clone() Task {
	c := t
	c.Description = clonePtr(t.Description)
	c.DueDate = clonePtr(t.DueDate)
	c.CompletedAt = clonePtr(t.CompletedAt)
	c.Reflection = clonePtr(t.Reflection)
	return c
}

// Apply returns a copy of t with the patch merged in. The patch is assumed valid.
func (t Task) Apply(p Patch) Task {
	c := t.Clone()
	if p.Title != nil {
		c.Title = strings.TrimSpace(*p.Title)
	}
	if p.Priority != nil {
		c.Priority = *p.Priority
	}
	if p.Completed != nil {
		c.Completed = *p.Completed
	}
	p.Description.applyTo(&c.Description)
	p.DueDate.applyTo(&c.DueDate)
	p.CompletedAt.applyTo(&c.CompletedAt)
	p.Reflection.applyTo(&c.Reflection)
	return c
}

// StringValue dereferences an optional string.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
