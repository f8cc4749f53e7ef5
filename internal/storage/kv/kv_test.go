package kv

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"donelog/internal/task"
)

func TestLoadMissingKey(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	tasks, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if tasks == nil || len(tasks) != 0 {
		t.Errorf("Load = %v, want empty non-nil slice", tasks)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	due := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	done := created.Add(26 * time.Hour)
	note := "smooth"

	tk, err := task.New(task.Draft{Title: "Write report", Priority: task.PriorityHigh, DueDate: &due}, created)
	if err != nil {
		t.Fatalf("task.New failed: %v", err)
	}
	tk = tk.Apply(task.CompletePatch(done, &note))

	if err := s.Save(context.Background(), []task.Task{tk}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, DefaultKey+".json")); err != nil {
		t.Fatalf("expected value file: %v", err)
	}

	loaded, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("len = %d, want 1", len(loaded))
	}
	got := loaded[0]
	if got.ID != tk.ID || got.Title != "Write report" || got.Priority != task.PriorityHigh {
		t.Errorf("loaded = %+v", got)
	}
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Errorf("DueDate = %v, want %v", got.DueDate, due)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(done) {
		t.Errorf("CompletedAt = %v, want %v", got.CompletedAt, done)
	}
	if task.StringValue(got.Reflection) != note {
		t.Errorf("Reflection = %q, want %q", task.StringValue(got.Reflection), note)
	}
	for name, ts := range map[string]time.Time{"CreatedAt": got.CreatedAt, "DueDate": *got.DueDate, "CompletedAt": *got.CompletedAt} {
		if ts.Location() != time.Local {
			t.Errorf("%s location = %v, want Local", name, ts.Location())
		}
	}
}

func TestLoadCorruptPayload(t *testing.T) {
	tests := map[string]string{
		"not json":       `{"oops"`,
		"wrong shape":    `{"id": "a"}`,
		"bad priority":   `[{"id":"a","title":"t","priority":"urgent","completed":false,"created_at":"2025-03-01T09:00:00Z"}]`,
		"missing title":  `[{"id":"a","priority":"low","completed":false,"created_at":"2025-03-01T09:00:00Z"}]`,
		"completed type": `[{"id":"a","title":"t","priority":"low","completed":"yes","created_at":"2025-03-01T09:00:00Z"}]`,
	}
	for name, payload := range tests {
		t.Run(name, func(t *testing.T) {
			s, err := Open(t.TempDir())
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			if err := s.Set(DefaultKey, []byte(payload)); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			_, err = s.Load(context.Background())
			var corrupt *CorruptPayloadError
			if !errors.As(err, &corrupt) {
				t.Fatalf("Load error = %v, want CorruptPayloadError", err)
			}
			if corrupt.Key != DefaultKey {
				t.Errorf("Key = %q, want %q", corrupt.Key, DefaultKey)
			}
		})
	}
}

func TestSetGet(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, ok, err := s.Get("absent"); err != nil || ok {
		t.Errorf("Get(absent) ok=%v err=%v", ok, err)
	}
	if err := s.Set("k", []byte("v1")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set("k", []byte("v2")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok, err := s.Get("k")
	if err != nil || !ok || string(got) != "v2" {
		t.Errorf("Get(k) = %q, %v, %v", got, ok, err)
	}
	entries, err := os.ReadDir(s.Dir())
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want 1 (temp files must not linger)", len(entries))
	}
}
