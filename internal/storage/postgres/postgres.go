// Package postgres is the hosted tasks table backend.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"donelog/internal/storage"
	"donelog/internal/task"
)

const tasksTable = "tasks"

// Store is a PostgreSQL-backed tasks table.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Table = (*Store)(nil)

// Open connects to dsn and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is empty")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	s := New(pool)
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing pool. The caller owns the pool's lifetime.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// EnsureSchema creates the tasks table and its indexes if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + tasksTable + ` (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL CHECK (length(btrim(title)) > 0),
			description TEXT,
			priority TEXT NOT NULL DEFAULT 'medium' CHECK (priority IN ('low', 'medium', 'high')),
			due_date TIMESTAMPTZ,
			completed BOOLEAN NOT NULL DEFAULT FALSE,
			completed_at TIMESTAMPTZ,
			reflection TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`ALTER TABLE ` + tasksTable + ` ADD COLUMN IF NOT EXISTS completed_at TIMESTAMPTZ`,
		`ALTER TABLE ` + tasksTable + ` ADD COLUMN IF NOT EXISTS reflection TEXT`,
		`CREATE INDEX IF NOT EXISTS tasks_created_at_idx ON ` + tasksTable + ` (created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS tasks_completed_at_idx ON ` + tasksTable + ` (completed_at DESC) WHERE completed`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]task.Task, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+storage.Columns+` FROM `+tasksTable+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return collectTasks(rows)
}

func (s *Store) ListCompleted(ctx context.Context) ([]task.Task, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+storage.Columns+` FROM `+tasksTable+`
		WHERE completed = TRUE AND completed_at IS NOT NULL
		ORDER BY completed_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list completed tasks: %w", err)
	}
	return collectTasks(rows)
}

func (s *Store) Insert(ctx context.Context, t task.Task) (task.Task, error) {
	row := s.pool.QueryRow(ctx, `INSERT INTO `+tasksTable+` (`+storage.Columns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+storage.Columns,
		t.ID, t.Title, t.Description, string(t.Priority), t.DueDate,
		t.Completed, t.CompletedAt, t.Reflection, t.CreatedAt)
	stored, err := scanTask(row)
	if err != nil {
		return task.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return stored, nil
}

func (s *Store) Update(ctx context.Context, id string, p task.Patch) (task.Task, error) {
	fields := p.Fields()
	if len(fields) == 0 {
		row := s.pool.QueryRow(ctx, `SELECT `+storage.Columns+` FROM `+tasksTable+` WHERE id = $1`, id)
		return s.scanOne(row, id, "get")
	}

	args := []any{id}
	sets := make([]string, len(fields))
	for i, f := range fields {
		args = append(args, f.Value)
		sets[i] = fmt.Sprintf("%s = $%d", f.Name, len(args))
	}
	row := s.pool.QueryRow(ctx, `UPDATE `+tasksTable+` SET `+strings.Join(sets, ", ")+`
		WHERE id = $1
		RETURNING `+storage.Columns, args...)
	return s.scanOne(row, id, "update")
}

// scanOne reads a single task row; op names the statement in wrapped errors.
func (s *Store) scanOne(row pgx.Row, id, op string) (task.Task, error) {
	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return task.Task{}, task.NotFoundError{ID: id}
	}
	if err != nil {
		return task.Task{}, fmt.Errorf("%s task %s: %w", op, id, err)
	}
	return t, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM `+tasksTable+` WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}

func scanTask(row pgx.Row) (task.Task, error) {
	var t task.Task
	var priority string
	err := row.Scan(&t.ID, &t.Title, &t.Description, &priority, &t.DueDate,
		&t.Completed, &t.CompletedAt, &t.Reflection, &t.CreatedAt)
	if err != nil {
		return task.Task{}, err
	}
	t.Priority = task.Priority(priority)
	t.CreatedAt = t.CreatedAt.Local()
	t.DueDate = localPtr(t.DueDate)
	t.CompletedAt = localPtr(t.CompletedAt)
	return t, nil
}

func collectTasks(rows pgx.Rows) ([]task.Task, error) {
	defer rows.Close()
	tasks := []task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func localPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	l := t.Local()
	return &l
}
