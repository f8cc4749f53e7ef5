// Package store owns the in-memory task collection. Every mutation goes
// through a Store method that validates, persists through the backend and,
// only once the backend confirms, commits the change and notifies
// subscribers. Readers always receive deep copies.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"donelog/internal/reflection"
	"donelog/internal/task"
)

// ErrCompletionViaToggle is returned when Update is asked to change
// completion state, which only ToggleComplete and the reflection flow may do.
var ErrCompletionViaToggle = errors.New("completion state changes only through toggle")

// Toggle reports the outcome of ToggleComplete.
type Toggle struct {
	// Task is the task after the call. When Pending is set it is unchanged.
	Task task.Task
	// Pending is set when completion is waiting on the reflection flow.
	Pending bool
}

// Store is the single owner of the task collection.
type Store struct {
	mu      sync.Mutex
	backend Backend
	tasks   []task.Task
	flow    *reflection.Flow
	now     func() time.Time
	logger  *log.Logger
	subs    map[int]chan []task.Task
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for persistence diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New returns an empty store over backend. Call Load to populate it.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		now:     time.Now,
		logger:  log.New(io.Discard),
		subs:    map[int]chan []task.Task{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.flow = reflection.New(s.now)
	return s
}

// Open returns a store over backend, loaded once.
func Open(ctx context.Context, backend Backend, opts ...Option) (*Store, error) {
	s := New(backend, opts...)
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Load replaces the collection with the backend's contents. Snapshot backends
// that cannot be read are logged and start empty; table backends return the
// error and keep the current collection.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.backend.load(ctx)
	if err != nil {
		if !s.backend.tolerant() {
			s.logger.Warn("load tasks failed", "err", err)
			return fmt.Errorf("load tasks: %w", err)
		}
		s.logger.Error("local task data unreadable, starting empty", "err", err)
		tasks = nil
	}
	s.tasks = cloneAll(tasks)
	s.logger.Debug("tasks loaded", "count", len(s.tasks))
	s.publishLocked()
	return nil
}

// Snapshot returns a copy of the collection in its current order.
func (s *Store) Snapshot() []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.tasks)
}

// Get returns a copy of the task with id.
func (s *Store) Get(id string) (task.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return task.Task{}, false
	}
	return s.tasks[i].Clone(), true
}

// Add validates the draft, persists the new task and puts it first.
func (s *Store) Add(ctx context.Context, d task.Draft) (task.Task, error) {
	t, err := task.New(d, s.now())
	if err != nil {
		return task.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := append([]task.Task{t}, s.tasks...)
	stored, err := s.backend.insert(ctx, next, t)
	if err != nil {
		s.logger.Warn("add task failed", "title", t.Title, "err", err)
		return task.Task{}, fmt.Errorf("add task: %w", err)
	}
	s.tasks = append([]task.Task{stored}, s.tasks...)
	s.logger.Debug("task added", "id", stored.ID)
	s.publishLocked()
	return stored.Clone(), nil
}

// Update merges p into the task with id. Completion fields are rejected.
func (s *Store) Update(ctx context.Context, id string, p task.Patch) (task.Task, error) {
	if err := p.Validate(); err != nil {
		return task.Task{}, err
	}
	if p.Completed != nil || p.CompletedAt.Set || p.Reflection.Set {
		return task.Task{}, ErrCompletionViaToggle
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(ctx, id, p)
}

// Delete removes the task with id. Deleting a missing task is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return nil
	}
	next := make([]task.Task, 0, len(s.tasks)-1)
	next = append(next, s.tasks[:i]...)
	next = append(next, s.tasks[i+1:]...)
	if err := s.backend.remove(ctx, next, id); err != nil {
		s.logger.Warn("delete task failed", "id", id, "err", err)
		return fmt.Errorf("delete task: %w", err)
	}
	s.tasks = next
	if p, ok := s.flow.Pending(); ok && p.ID == id {
		s.flow.Done()
	}
	s.logger.Debug("task deleted", "id", id)
	s.publishLocked()
	return nil
}

// ToggleComplete moves the task with id toward target. Completing an
// incomplete task does not write anything: it opens the reflection flow and
// reports Pending. Un-completing clears completion time and reflection in one
// write.
func (s *Store) ToggleComplete(ctx context.Context, id string, target bool) (Toggle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return Toggle{}, task.NotFoundError{ID: id}
	}
	cur := s.tasks[i]
	if target {
		if cur.Completed {
			return Toggle{Task: cur.Clone()}, nil
		}
		s.flow.Begin(cur)
		return Toggle{Task: cur.Clone(), Pending: true}, nil
	}
	if !cur.Completed && cur.CompletedAt == nil && cur.Reflection == nil {
		return Toggle{Task: cur.Clone()}, nil
	}
	t, err := s.applyLocked(ctx, id, task.ReopenPatch())
	if err != nil {
		return Toggle{}, err
	}
	return Toggle{Task: t}, nil
}

// PendingReflection returns the task waiting on the reflection flow.
func (s *Store) PendingReflection() (task.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flow.Pending()
}

// SaveReflection completes the pending task with text as its reflection.
// Blank text records no reflection.
func (s *Store) SaveReflection(ctx context.Context, text string) (task.Task, error) {
	return s.finishReflection(ctx, func(f *reflection.Flow) (string, task.Patch, error) {
		return f.Save(text)
	})
}

// SkipReflection completes the pending task without a reflection.
func (s *Store) SkipReflection(ctx context.Context) (task.Task, error) {
	return s.finishReflection(ctx, (*reflection.Flow).Skip)
}

// CancelReflection dismisses the prompt. The completion still commits.
func (s *Store) CancelReflection(ctx context.Context) (task.Task, error) {
	return s.finishReflection(ctx, (*reflection.Flow).Cancel)
}

func (s *Store) finishReflection(ctx context.Context, step func(*reflection.Flow) (string, task.Patch, error)) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, patch, err := step(s.flow)
	if err != nil {
		return task.Task{}, err
	}
	t, err := s.applyLocked(ctx, id, patch)
	var nf task.NotFoundError
	if errors.As(err, &nf) {
		s.flow.Done()
		return task.Task{}, err
	}
	if err != nil {
		return task.Task{}, err
	}
	s.flow.Done()
	return t, nil
}

// History returns completed tasks with a completion time, newest first.
func (s *Store) History(ctx context.Context) ([]task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.backend.history(ctx, s.tasks)
	if err != nil {
		s.logger.Warn("load completed tasks failed", "err", err)
		return nil, fmt.Errorf("load completed tasks: %w", err)
	}
	return cloneAll(tasks), nil
}

// Subscribe returns a channel that receives a fresh snapshot after every
// committed change, starting with the current collection. Slow readers only
// see the latest snapshot. The returned func unsubscribes and closes the channel.
func (s *Store) Subscribe() (<-chan []task.Task, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan []task.Task, 1)
	ch <- cloneAll(s.tasks)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

func (s *Store) applyLocked(ctx context.Context, id string, p task.Patch) (task.Task, error) {
	i := s.indexLocked(id)
	if i < 0 {
		return task.Task{}, task.NotFoundError{ID: id}
	}
	if p.IsEmpty() {
		return s.tasks[i].Clone(), nil
	}
	merged := s.tasks[i].Apply(p)
	next := cloneAll(s.tasks)
	next[i] = merged

	stored, err := s.backend.update(ctx, next, id, p, merged)
	if err != nil {
		s.logger.Warn("update task failed", "id", id, "err", err)
		return task.Task{}, fmt.Errorf("update task: %w", err)
	}
	s.tasks[i] = stored
	s.logger.Debug("task updated", "id", id)
	s.publishLocked()
	return stored.Clone(), nil
}

func (s *Store) indexLocked(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) publishLocked() {
	for _, ch := range s.subs {
		snap := cloneAll(s.tasks)
		select {
		case ch <- snap:
			continue
		default:
		}
		// drop the stale snapshot and replace it
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func cloneAll(tasks []task.Task) []task.Task {
	out := make([]task.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
