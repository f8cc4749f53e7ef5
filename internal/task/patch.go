package task

import (
	"strings"
	"time"
)

// Nullable is a patch value for an optional field. Set marks the field as
// part of the patch; a nil Value clears it.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// SetTo returns a Nullable that assigns v.
func SetTo[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

// Clear returns a Nullable that removes the field's value.
func Clear[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

func (n Nullable[T]) applyTo(dst **T) {
	if !n.Set {
		return
	}
	*dst = clonePtr(n.Value)
}

// Patch is a partial update. Nil pointers and unset Nullables leave the
// field untouched.
type Patch struct {
	Title       *string
	Priority    *Priority
	Completed   *bool
	Description Nullable[string]
	DueDate     Nullable[time.Time]
	CompletedAt Nullable[time.Time]
	Reflection  Nullable[string]
}

// Validate rejects patches that would break a task's field rules.
func (p Patch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return ErrEmptyTitle
	}
	if p.Priority != nil && !IsValidPriority(*p.Priority) {
		return InvalidPriorityError{Value: string(*p.Priority)}
	}
	return nil
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Priority == nil && p.Completed == nil &&
		!p.Description.Set && !p.DueDate.Set && !p.CompletedAt.Set && !p.Reflection.Set
}

// CompletePatch marks a task done at the given time with an optional reflection.
func CompletePatch(at time.Time, reflection *string) Patch {
	done := true
	p := Patch{
		Completed:   &done,
		CompletedAt: SetTo(at),
		Reflection:  Clear[string](),
	}
	if reflection != nil {
		p.Reflection = SetTo(*reflection)
	}
	return p
}

// ReopenPatch clears completion state and reflection in a single write.
func ReopenPatch() Patch {
	done := false
	return Patch{
		Completed:   &done,
		CompletedAt: Clear[time.Time](),
		Reflection:  Clear[string](),
	}
}

// Field is one column assignment of a patch, keyed by its wire name.
// Optional values are *string or *time.Time, nil meaning NULL.
type Field struct {
	Name  string
	Value any
}

// Fields lists the assignments a patch makes, in a fixed column order.
func (p Patch) Fields() []Field {
	var fields []Field
	if p.Title != nil {
		fields = append(fields, Field{Name: "title", Value: strings.TrimSpace(*p.Title)})
	}
	if p.Description.Set {
		fields = append(fields, Field{Name: "description", Value: clonePtr(p.Description.Value)})
	}
	if p.Priority != nil {
		fields = append(fields, Field{Name: "priority", Value: string(*p.Priority)})
	}
	if p.DueDate.Set {
		fields = append(fields, Field{Name: "due_date", Value: clonePtr(p.DueDate.Value)})
	}
	if p.Completed != nil {
		fields = append(fields, Field{Name: "completed", Value: *p.Completed})
	}
	if p.CompletedAt.Set {
		fields = append(fields, Field{Name: "completed_at", Value: clonePtr(p.CompletedAt.Value)})
	}
	if p.Reflection.Set {
		fields = append(fields, Field{Name: "reflection", Value: clonePtr(p.Reflection.Value)})
	}
	return fields
}
