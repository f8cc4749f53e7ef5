package store

import (
	"context"
	"slices"

	"donelog/internal/storage"
	"donelog/internal/task"
)

// Backend is the persistence side-channel behind a Store. Use Snapshot for
// backends that rewrite the whole collection and Rows for per-row tables.
type Backend interface {
	load(ctx context.Context) ([]task.Task, error)
	insert(ctx context.Context, next []task.Task, t task.Task) (task.Task, error)
	update(ctx context.Context, next []task.Task, id string, p task.Patch, merged task.Task) (task.Task, error)
	remove(ctx context.Context, next []task.Task, id string) error
	history(ctx context.Context, current []task.Task) ([]task.Task, error)
	// tolerant reports whether load failures degrade to an empty collection.
	tolerant() bool
}

// Snapshot adapts a whole-collection backend such as the local key-value store.
func Snapshot(s storage.Snapshotter) Backend {
	return snapshotBackend{s: s}
}

// Rows adapts a per-row table backend such as SQLite or PostgreSQL.
func Rows(t storage.Table) Backend {
	return rowBackend{t: t}
}

type snapshotBackend struct {
	s storage.Snapshotter
}

func (b snapshotBackend) load(ctx context.Context) ([]task.Task, error) {
	return b.s.Load(ctx)
}

func (b snapshotBackend) insert(ctx context.Context, next []task.Task, t task.Task) (task.Task, error) {
	return t, b.s.Save(ctx, next)
}

func (b snapshotBackend) update(ctx context.Context, next []task.Task, _ string, _ task.Patch, merged task.Task) (task.Task, error) {
	return merged, b.s.Save(ctx, next)
}

func (b snapshotBackend) remove(ctx context.Context, next []task.Task, _ string) error {
	return b.s.Save(ctx, next)
}

func (b snapshotBackend) history(_ context.Context, current []task.Task) ([]task.Task, error) {
	var out []task.Task
	for _, t := range current {
		if t.Completed && t.CompletedAt != nil {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, func(a, b task.Task) int {
		return b.CompletedAt.Compare(*a.CompletedAt)
	})
	return out, nil
}

func (snapshotBackend) tolerant() bool { return true }

type rowBackend struct {
	t storage.Table
}

func (b rowBackend) load(ctx context.Context) ([]task.Task, error) {
	return b.t.List(ctx)
}

func (b rowBackend) insert(ctx context.Context, _ []task.Task, t task.Task) (task.Task, error) {
	return b.t.Insert(ctx, t)
}

func (b rowBackend) update(ctx context.Context, _ []task.Task, id string, p task.Patch, _ task.Task) (task.Task, error) {
	return b.t.Update(ctx, id, p)
}

func (b rowBackend) remove(ctx context.Context, _ []task.Task, id string) error {
	return b.t.Delete(ctx, id)
}

func (b rowBackend) history(ctx context.Context, _ []task.Task) ([]task.Task, error) {
	return b.t.ListCompleted(ctx)
}

func (rowBackend) tolerant() bool { return false }
