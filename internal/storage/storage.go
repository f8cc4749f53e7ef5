package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"donelog/internal/task"
)

// timeLayout is fixed-width so text timestamps sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is the SQLite-backed tasks table.
type Store struct {
	db *sql.DB
}

var _ Table = (*Store)(nil)

// Open opens (creating if needed) the database at dbPath and migrates the schema.
func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT DEFAULT NULL,
	priority TEXT NOT NULL DEFAULT 'medium',
	due_date TEXT DEFAULT NULL,
	completed INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);`
	if _, err := s.db.Exec(ddl); err != nil {
		return err
	}
	return s.ensureTaskColumns()
}

// ensureTaskColumns adds the completion-tracking columns to databases created
// before they existed.
func (s *Store) ensureTaskColumns() error {
	required := map[string]string{
		"completed_at": "ALTER TABLE tasks ADD COLUMN completed_at TEXT DEFAULT NULL;",
		"reflection":   "ALTER TABLE tasks ADD COLUMN reflection TEXT DEFAULT NULL;",
	}
	existing := map[string]struct{}{}
	rows, err := s.db.Query(`PRAGMA table_info(tasks);`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return err
		}
		existing[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	// the single connection must be released before altering
	rows.Close()
	for col, alter := range required {
		if _, ok := existing[col]; ok {
			continue
		}
		if _, err := s.db.Exec(alter); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]task.Task, error) {
	return s.query(ctx, `SELECT `+Columns+` FROM tasks ORDER BY created_at DESC;`)
}

func (s *Store) ListCompleted(ctx context.Context) ([]task.Task, error) {
	return s.query(ctx, `SELECT `+Columns+` FROM tasks
WHERE completed = 1 AND completed_at IS NOT NULL
ORDER BY completed_at DESC;`)
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]task.Task, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *Store) Insert(ctx context.Context, t task.Task) (task.Task, error) {
	row := s.db.QueryRowContext(ctx, `INSERT INTO tasks (`+Columns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING `+Columns+`;`,
		t.ID, t.Title, nullString(t.Description), string(t.Priority), nullTime(t.DueDate),
		boolInt(t.Completed), nullTime(t.CompletedAt), nullString(t.Reflection), formatTime(t.CreatedAt))
	stored, err := scanTask(row)
	if err != nil {
		return task.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return stored, nil
}

func (s *Store) Update(ctx context.Context, id string, p task.Patch) (task.Task, error) {
	fields := p.Fields()
	if len(fields) == 0 {
		return s.get(ctx, id)
	}
	sets := make([]string, len(fields))
	args := make([]any, 0, len(fields)+1)
	for i, f := range fields {
		sets[i] = f.Name + " = ?"
		args = append(args, encodeValue(f.Value))
	}
	args = append(args, id)

	row := s.db.QueryRowContext(ctx, `UPDATE tasks SET `+strings.Join(sets, ", ")+`
WHERE id = ?
RETURNING `+Columns+`;`, args...)
	updated, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return task.Task{}, task.NotFoundError{ID: id}
	}
	if err != nil {
		return task.Task{}, fmt.Errorf("update task %s: %w", id, err)
	}
	return updated, nil
}

func (s *Store) get(ctx context.Context, id string) (task.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+Columns+` FROM tasks WHERE id = ?;`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return task.Task{}, task.NotFoundError{ID: id}
	}
	return t, err
}

func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?;`, id)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(sc scanner) (task.Task, error) {
	var t task.Task
	var priority, createdStr string
	var completed int
	var desc, dueStr, completedStr, reflection sql.NullString

	if err := sc.Scan(&t.ID, &t.Title, &desc, &priority, &dueStr, &completed, &completedStr, &reflection, &createdStr); err != nil {
		return task.Task{}, err
	}
	t.Priority = task.Priority(priority)
	t.Completed = completed == 1
	t.Description = stringPtr(desc)
	t.Reflection = stringPtr(reflection)

	var err error
	if t.DueDate, err = parseNullTime(dueStr); err != nil {
		return task.Task{}, err
	}
	if t.CompletedAt, err = parseNullTime(completedStr); err != nil {
		return task.Task{}, err
	}
	created, err := time.Parse(time.RFC3339Nano, createdStr)
	if err != nil {
		return task.Task{}, fmt.Errorf("parse created_at: %w", err)
	}
	t.CreatedAt = created.Local()
	return t, nil
}

func encodeValue(v any) any {
	switch v := v.(type) {
	case bool:
		return boolInt(v)
	case *string:
		return nullString(v)
	case *time.Time:
		return nullTime(v)
	default:
		return v
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil, fmt.Errorf("parse time %q: %w", s.String, err)
	}
	local := parsed.Local()
	return &local, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
