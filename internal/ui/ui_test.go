package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"

	"donelog/internal/config"
	"donelog/internal/storage/kv"
	"donelog/internal/store"
	"donelog/internal/task"
)

var testNow = time.Date(2024, 6, 10, 9, 0, 0, 0, time.Local)

type brokenSnapshot struct{}

func (brokenSnapshot) Load(context.Context) ([]task.Task, error) { return nil, nil }
func (brokenSnapshot) Save(context.Context, []task.Task) error   { return errors.New("disk full") }

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.LoadOrCreate(t.TempDir() + "/config.toml")
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	return cfg
}

func newTestModel(t *testing.T, backend store.Backend) (Model, *store.Store) {
	t.Helper()
	clock := func() time.Time { return testNow }
	st, err := store.Open(context.Background(), backend, store.WithClock(clock))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	m := newModel(context.Background(), st, testConfig(t), nil, clock)
	m.input.Cursor.SetMode(cursor.CursorStatic)
	return m, st
}

func newKVModel(t *testing.T) (Model, *store.Store) {
	t.Helper()
	db, err := kv.Open(t.TempDir())
	if err != nil {
		t.Fatalf("kv.Open: %v", err)
	}
	return newTestModel(t, store.Snapshot(db))
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// press sends a key and runs the resulting command, feeding its message back
// into the model. Store changes are delivered the way the subscription would.
func press(t *testing.T, m Model, st *store.Store, k string) Model {
	t.Helper()
	next, cmd := m.Update(keyMsg(k))
	m = next.(Model)
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			break
		}
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	next, _ = m.Update(snapshotMsg(st.Snapshot()))
	return next.(Model)
}

func addTask(t *testing.T, m Model, st *store.Store, title string) Model {
	t.Helper()
	m = press(t, m, st, m.cfg.Keys.Add)
	if m.mode != modeForm {
		t.Fatalf("mode = %v, want form", m.mode)
	}
	m.input.SetValue(title)
	for i := 0; i < fieldCount; i++ {
		m = press(t, m, st, "enter")
	}
	return m
}

func TestAddThroughForm(t *testing.T) {
	m, st := newKVModel(t)
	m = addTask(t, m, st, "Write report")

	if m.mode != modeBrowse {
		t.Fatalf("mode = %v, want browse", m.mode)
	}
	if len(m.items) != 1 || m.items[0].Task.Title != "Write report" {
		t.Fatalf("items = %+v", m.items)
	}
	if m.items[0].Task.Priority != task.PriorityMedium {
		t.Fatalf("Priority = %q, want medium", m.items[0].Task.Priority)
	}
	if !strings.Contains(m.View(), "Write report") {
		t.Fatalf("view missing task:\n%s", m.View())
	}
}

func TestEmptyTitleShowsError(t *testing.T) {
	m, st := newKVModel(t)
	m = addTask(t, m, st, "   ")
	if m.errMsg == "" || m.mode != modeForm {
		t.Fatalf("errMsg = %q mode = %v, want error with form open", m.errMsg, m.mode)
	}
	if len(st.Snapshot()) != 0 {
		t.Fatalf("invalid task reached the store")
	}
}

func TestToggleOpensReflection(t *testing.T) {
	m, st := newKVModel(t)
	m = addTask(t, m, st, "ship it")

	m = press(t, m, st, m.cfg.Keys.Toggle)
	if m.mode != modeReflect {
		t.Fatalf("mode = %v, want reflect", m.mode)
	}
	if m.items[0].Task.Completed {
		t.Fatalf("task completed before the reflection was answered")
	}

	m.input.SetValue("learned a lot")
	m = press(t, m, st, "enter")
	if m.mode != modeBrowse {
		t.Fatalf("mode = %v, want browse", m.mode)
	}
	got := m.items[0].Task
	if !got.Completed || task.StringValue(got.Reflection) != "learned a lot" {
		t.Fatalf("task = %+v", got)
	}

	m = press(t, m, st, m.cfg.Keys.Toggle)
	got = m.items[0].Task
	if got.Completed || got.Reflection != nil || got.CompletedAt != nil {
		t.Fatalf("reopened task = %+v", got)
	}
}

func TestReflectionKeysIgnoredWhileSaving(t *testing.T) {
	m, st := newKVModel(t)
	m = addTask(t, m, st, "once")
	m = press(t, m, st, m.cfg.Keys.Toggle)

	next, first := m.Update(keyMsg("enter"))
	m = next.(Model)
	if first == nil {
		t.Fatalf("enter did not start a save")
	}
	for _, k := range []string{"enter", "esc"} {
		next, cmd := m.Update(keyMsg(k))
		m = next.(Model)
		if cmd != nil {
			t.Fatalf("%s queued a second save while the first was in flight", k)
		}
	}

	next, _ = m.Update(first())
	m = next.(Model)
	if m.errMsg != "" || m.mode != modeBrowse || m.saving {
		t.Fatalf("errMsg = %q mode = %v saving = %v", m.errMsg, m.mode, m.saving)
	}
	if got, _ := st.Get(m.items[0].Task.ID); !got.Completed {
		t.Fatalf("task not completed: %+v", got)
	}
}

func TestEscClosesReflectionAndCompletes(t *testing.T) {
	m, st := newKVModel(t)
	m = addTask(t, m, st, "quick one")
	m = press(t, m, st, m.cfg.Keys.Toggle)
	m = press(t, m, st, "esc")

	got := m.items[0].Task
	if m.mode != modeBrowse || !got.Completed || got.Reflection != nil {
		t.Fatalf("mode = %v task = %+v", m.mode, got)
	}
}

func TestDeleteConfirm(t *testing.T) {
	m, st := newKVModel(t)
	m = addTask(t, m, st, "temp")

	m = press(t, m, st, m.cfg.Keys.Delete)
	m = press(t, m, st, "n")
	if len(m.items) != 1 {
		t.Fatalf("delete happened after 'n'")
	}
	m = press(t, m, st, m.cfg.Keys.Delete)
	m = press(t, m, st, "y")
	if len(m.items) != 0 {
		t.Fatalf("items = %+v, want empty", m.items)
	}
}

func TestPersistenceErrorIsDismissible(t *testing.T) {
	m, st := newTestModel(t, store.Snapshot(brokenSnapshot{}))
	m = addTask(t, m, st, "doomed")
	if !strings.Contains(m.errMsg, "disk full") {
		t.Fatalf("errMsg = %q, want disk full", m.errMsg)
	}
	m = press(t, m, st, "esc")
	if m.errMsg != "" {
		t.Fatalf("errMsg = %q after a key press", m.errMsg)
	}
}

func TestViewsRender(t *testing.T) {
	m, st := newKVModel(t)
	m = addTask(t, m, st, "Write report")
	m = press(t, m, st, m.cfg.Keys.Toggle)
	m = press(t, m, st, "enter")

	m = press(t, m, st, m.cfg.Keys.Dashboard)
	if out := m.View(); !strings.Contains(out, "Productivity") || !strings.Contains(out, "100%") {
		t.Fatalf("dashboard view:\n%s", out)
	}
	m = press(t, m, st, m.cfg.Keys.CycleRange)
	if m.rng != "90d" {
		t.Fatalf("range = %q, want 90d", m.rng)
	}

	m = press(t, m, st, m.cfg.Keys.Timeline)
	if len(m.history) != 1 {
		t.Fatalf("history = %+v", m.history)
	}
	if out := m.View(); !strings.Contains(out, "June 10, 2024") {
		t.Fatalf("timeline view:\n%s", out)
	}
}

func TestFilterCycle(t *testing.T) {
	m, st := newKVModel(t)
	m = addTask(t, m, st, "open")
	m = press(t, m, st, m.cfg.Keys.CycleFilter)
	if m.filter != "active" || len(m.items) != 1 {
		t.Fatalf("filter = %q items = %d", m.filter, len(m.items))
	}
	m = press(t, m, st, m.cfg.Keys.CycleFilter)
	if m.filter != "completed" || len(m.items) != 0 {
		t.Fatalf("filter = %q items = %d", m.filter, len(m.items))
	}
}

func TestClampCursorAndWrapIndex(t *testing.T) {
	clamp := []struct{ cur, n, want int }{
		{0, 0, 0}, {-1, 3, 0}, {5, 3, 2}, {1, 3, 1},
	}
	for _, tt := range clamp {
		if got := clampCursor(tt.cur, tt.n); got != tt.want {
			t.Errorf("clampCursor(%d, %d) = %d, want %d", tt.cur, tt.n, got, tt.want)
		}
	}
	wrap := []struct{ idx, n, want int }{
		{4, 4, 0}, {-1, 4, 3}, {2, 4, 2}, {1, 0, 0},
	}
	for _, tt := range wrap {
		if got := wrapIndex(tt.idx, tt.n); got != tt.want {
			t.Errorf("wrapIndex(%d, %d) = %d, want %d", tt.idx, tt.n, got, tt.want)
		}
	}
}
