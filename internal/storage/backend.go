// Package storage holds the persistence contracts for tasks and the embedded
// SQLite table backend. The local key-value and hosted PostgreSQL backends
// live in the kv and postgres subpackages.
package storage

import (
	"context"

	"donelog/internal/task"
)

// Snapshotter persists the whole collection at once.
type Snapshotter interface {
	Load(ctx context.Context) ([]task.Task, error)
	Save(ctx context.Context, tasks []task.Task) error
}

// Table persists one row per operation against a tasks table keyed by id.
type Table interface {
	// List returns every task, newest created first.
	List(ctx context.Context) ([]task.Task, error)
	// ListCompleted returns completed tasks with a completion time, newest completion first.
	ListCompleted(ctx context.Context) ([]task.Task, error)
	// Insert stores t and returns the row as stored.
	Insert(ctx context.Context, t task.Task) (task.Task, error)
	// Update applies p to the row with id and returns the updated row.
	// It returns task.NotFoundError when no row matches.
	Update(ctx context.Context, id string, p task.Patch) (task.Task, error)
	// Delete removes the row with id. A missing row is not an error.
	Delete(ctx context.Context, id string) error
}

// Columns is the tasks table column list in scan order.
const Columns = "id, title, description, priority, due_date, completed, completed_at, reflection, created_at"
