package output

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"donelog/internal/task"
	"donelog/internal/views"
)

var now = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func sampleTask() task.Task {
	done := now.Add(-2 * time.Hour)
	reflection := "smooth"
	return task.Task{
		ID:          "0b6f5c1e-1111-2222-3333-444455556666",
		Title:       "Write report",
		Priority:    task.PriorityHigh,
		Completed:   true,
		CompletedAt: &done,
		Reflection:  &reflection,
		CreatedAt:   now.Add(-72 * time.Hour),
	}
}

func TestNew(t *testing.T) {
	for _, name := range []string{"", FormatHuman, FormatJSON, FormatYAML} {
		if _, err := New(name, now); err != nil {
			t.Errorf("New(%q) = %v", name, err)
		}
	}
	if _, err := New("xml", now); err == nil {
		t.Fatalf("New(xml) succeeded")
	}
}

func TestHumanTask(t *testing.T) {
	out := NewHumanFormatter(now).FormatTask(sampleTask())
	for _, want := range []string{"[x] Write report", "Priority:  high", "3 days ago", "Reflection: smooth", "No due date"} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatTask output missing %q:\n%s", want, out)
		}
	}
}

func TestHumanItemsOverdue(t *testing.T) {
	due := now.AddDate(0, 0, -2)
	tk := task.Task{ID: "abc", Title: "late", Priority: task.PriorityLow, DueDate: &due, CreatedAt: now}
	out := NewHumanFormatter(now).FormatItems(views.List([]task.Task{tk}, views.FilterAll, views.SortByDate, now))
	if !strings.Contains(out, "2 days overdue") {
		t.Fatalf("FormatItems = %q, want overdue count", out)
	}
	if got := NewHumanFormatter(now).FormatItems(nil); got != "No tasks found.\n" {
		t.Fatalf("empty FormatItems = %q", got)
	}
}

func TestHumanTimeline(t *testing.T) {
	groups := views.Timeline([]task.Task{sampleTask()}, time.UTC)
	out := NewHumanFormatter(now).FormatTimeline(groups)
	if !strings.Contains(out, "June 10, 2024") || !strings.Contains(out, `"smooth"`) {
		t.Fatalf("FormatTimeline = %q", out)
	}
}

func TestJSONItemsFlattenTask(t *testing.T) {
	items := views.List([]task.Task{sampleTask()}, views.FilterAll, views.SortByDate, now)
	out := NewJSONFormatter().FormatItems(items)

	var got []map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0]["title"] != "Write report" || got[0]["due_label"] != "No due date" {
		t.Fatalf("item = %v", got[0])
	}
	if _, ok := got[0]["days_overdue"]; !ok {
		t.Fatalf("days_overdue missing: %v", got[0])
	}
}

func TestYAMLMetrics(t *testing.T) {
	m := views.Compute([]task.Task{sampleTask()}, views.Range30d, now)
	out := NewYAMLFormatter().FormatMetrics(m)

	var got map[string]any
	if err := yaml.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid YAML: %v\n%s", err, out)
	}
	if got["range"] != "30d" || got["total"] != 1 {
		t.Fatalf("metrics doc = %v", got)
	}
}

func TestErrorAndMessage(t *testing.T) {
	err := errors.New("boom")
	if got := NewHumanFormatter(now).FormatError(err); got != "Error: boom\n" {
		t.Errorf("human error = %q", got)
	}
	if got := NewJSONFormatter().FormatError(err); !strings.Contains(got, `"error": "boom"`) {
		t.Errorf("json error = %q", got)
	}
	if got := NewYAMLFormatter().FormatMessage("saved"); got != "message: saved\n" {
		t.Errorf("yaml message = %q", got)
	}
}
