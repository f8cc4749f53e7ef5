// Package reflection gates task completion behind an optional free-text note.
//
// The flow has two states. Begin moves it from Idle to AwaitingReflection for
// one task; Save, Skip and Cancel all yield the completion patch for that
// task. Dismissing the prompt never aborts the completion, only the note.
// The caller persists the patch and then calls Done to return to Idle, so a
// failed write leaves the prompt open for another attempt.
package reflection

import (
	"errors"
	"strings"
	"time"

	"donelog/internal/task"
)

// ErrNoPendingReflection is returned when no completion is awaiting a note.
var ErrNoPendingReflection = errors.New("no task is awaiting reflection")

// State is the flow's current state.
type State int

const (
	Idle State = iota
	AwaitingReflection
)

func (s State) String() string {
	if s == AwaitingReflection {
		return "awaiting-reflection"
	}
	return "idle"
}

// Flow tracks the single pending completion.
type Flow struct {
	state   State
	pending task.Task
	now     func() time.Time
}

// New returns an idle flow. A nil clock defaults to time.Now.
func New(now func() time.Time) *Flow {
	if now == nil {
		now = time.Now
	}
	return &Flow{now: now}
}

// State returns the current state.
func (f *Flow) State() State {
	return f.state
}

// Pending returns the task awaiting a note, if any.
func (f *Flow) Pending() (task.Task, bool) {
	if f.state != AwaitingReflection {
		return task.Task{}, false
	}
	return f.pending.Clone(), true
}

// Begin starts awaiting a note for t. A previously pending task is replaced.
func (f *Flow) Begin(t task.Task) {
	f.pending = t.Clone()
	f.state = AwaitingReflection
}

// Save returns the completion patch carrying text. Blank text records no note.
func (f *Flow) Save(text string) (string, task.Patch, error) {
	if f.state != AwaitingReflection {
		return "", task.Patch{}, ErrNoPendingReflection
	}
	var note *string
	if trimmed := strings.TrimSpace(text); trimmed != "" {
		note = &trimmed
	}
	return f.pending.ID, task.CompletePatch(f.now(), note), nil
}

// Skip returns the completion patch without a note.
func (f *Flow) Skip() (string, task.Patch, error) {
	return f.Save("")
}

// Cancel is Skip: dismissing the prompt still completes the task.
func (f *Flow) Cancel() (string, task.Patch, error) {
	return f.Skip()
}

// Done returns the flow to Idle once the patch has been persisted.
func (f *Flow) Done() {
	f.pending = task.Task{}
	f.state = Idle
}
