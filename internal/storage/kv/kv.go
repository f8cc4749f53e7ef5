// Package kv is the local key-value backend: each key is one JSON file in a
// directory, and the task collection lives under a single fixed key that is
// rewritten wholesale on every save.
package kv

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"donelog/internal/task"
)

// DefaultKey is the key the task collection is stored under.
const DefaultKey = "todos"

const schemaURL = "todos.schema.json"

//go:embed schema.json
var schemaJSON string

// CorruptPayloadError indicates the stored value could not be decoded or
// failed schema validation.
type CorruptPayloadError struct {
	Key string
	Err error
}

func (e *CorruptPayloadError) Error() string {
	return fmt.Sprintf("corrupt payload under %q: %v", e.Key, e.Err)
}

func (e *CorruptPayloadError) Unwrap() error {
	return e.Err
}

// Store is a directory of JSON values keyed by name.
type Store struct {
	dir    string
	key    string
	schema *jsonschema.Schema
}

// Open prepares dir for use and compiles the payload schema.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("data dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Store{dir: dir, key: DefaultKey, schema: schema}, nil
}

// Dir returns the directory backing the store.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Get returns the raw value under key. ok is false when the key is absent.
func (s *Store) Get(key string) (value []byte, ok bool, err error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set replaces the value under key atomically.
func (s *Store) Set(key string, value []byte) error {
	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path(key))
}

// Load decodes the task collection. A missing key yields an empty collection;
// an unreadable value yields a *CorruptPayloadError.
func (s *Store) Load(_ context.Context) ([]task.Task, error) {
	data, ok, err := s.Get(s.key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.key, err)
	}
	if !ok || len(bytes.TrimSpace(data)) == 0 {
		return []task.Task{}, nil
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &CorruptPayloadError{Key: s.key, Err: err}
	}
	if err := s.schema.Validate(doc); err != nil {
		return nil, &CorruptPayloadError{Key: s.key, Err: err}
	}
	tasks := []task.Task{}
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, &CorruptPayloadError{Key: s.key, Err: err}
	}
	for i := range tasks {
		toLocal(&tasks[i])
	}
	return tasks, nil
}

// toLocal moves decoded timestamps out of the fixed offsets JSON carries so
// calendar-day math runs in the user's zone.
func toLocal(t *task.Task) {
	t.CreatedAt = t.CreatedAt.Local()
	for _, p := range []**time.Time{&t.DueDate, &t.CompletedAt} {
		if *p != nil {
			local := (*p).Local()
			*p = &local
		}
	}
}

// Save rewrites the whole collection.
func (s *Store) Save(_ context.Context, tasks []task.Task) error {
	if tasks == nil {
		tasks = []task.Task{}
	}
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal tasks: %w", err)
	}
	data = append(data, '\n')
	if err := s.Set(s.key, data); err != nil {
		return fmt.Errorf("write %s: %w", s.key, err)
	}
	return nil
}
