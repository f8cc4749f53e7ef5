package task

import (
	"errors"
	"testing"
	"time"
)

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in      string
		want    Priority
		wantErr bool
	}{
		{"high", PriorityHigh, false},
		{" Medium ", PriorityMedium, false},
		{"LOW", PriorityLow, false},
		{"", PriorityMedium, false},
		{"critical", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePriority(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePriority(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePriority(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPriorityOrder(t *testing.T) {
	if PriorityOrder(PriorityHigh) >= PriorityOrder(PriorityMedium) {
		t.Error("High should have lower order than Medium")
	}
	if PriorityOrder(PriorityMedium) >= PriorityOrder(PriorityLow) {
		t.Error("Medium should have lower order than Low")
	}
}

func TestPrioritiesAreValidAndOrdered(t *testing.T) {
	for i, p := range Priorities {
		if !IsValidPriority(p) {
			t.Errorf("IsValidPriority(%q) = false", p)
		}
		if got := PriorityOrder(p); got != i {
			t.Errorf("PriorityOrder(%q) = %d, want %d", p, got, i)
		}
	}
	if IsValidPriority("urgent") {
		t.Error("IsValidPriority(urgent) = true")
	}
}

func TestNew(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	got, err := New(Draft{Title: "  Write report  ", Description: "   "}, now)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if got.ID == "" {
		t.Error("ID should be assigned")
	}
	if got.Title != "Write report" {
		t.Errorf("Title = %q, want %q", got.Title, "Write report")
	}
	if got.Priority != PriorityMedium {
		t.Errorf("Priority = %q, want %q", got.Priority, PriorityMedium)
	}
	if got.Description != nil {
		t.Errorf("Description = %q, want nil", *got.Description)
	}
	if got.Completed || got.CompletedAt != nil || got.Reflection != nil {
		t.Error("new task should be incomplete without reflection")
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, now)
	}

	other, err := New(Draft{Title: "Write report"}, now)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if other.ID == got.ID {
		t.Error("expected distinct IDs")
	}
}

func TestNewRejectsInvalidDrafts(t *testing.T) {
	now := time.Now()
	if _, err := New(Draft{Title: "   "}, now); !errors.Is(err, ErrEmptyTitle) {
		t.Errorf("blank title error = %v, want ErrEmptyTitle", err)
	}
	_, err := New(Draft{Title: "x", Priority: "urgent"}, now)
	var invalid InvalidPriorityError
	if !errors.As(err, &invalid) {
		t.Fatalf("priority error = %v, want InvalidPriorityError", err)
	}
	if invalid.Value != "urgent" {
		t.Errorf("Value = %q, want %q", invalid.Value, "urgent")
	}
}

func TestApplyCompleteAndReopen(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	base, err := New(Draft{Title: "Ship it"}, now)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	note := "went fine"
	done := base.Apply(CompletePatch(now.Add(time.Hour), &note))
	if !done.Completed || done.CompletedAt == nil || StringValue(done.Reflection) != note {
		t.Fatalf("complete patch not applied: %+v", done)
	}
	if base.Completed {
		t.Error("Apply must not mutate the receiver")
	}

	reopened := done.Apply(ReopenPatch())
	if reopened.Completed {
		t.Error("Completed should be false")
	}
	if reopened.CompletedAt != nil {
		t.Error("CompletedAt should be cleared")
	}
	if reopened.Reflection != nil {
		t.Error("Reflection should be cleared")
	}
}

func TestApplyLeavesUnsetFields(t *testing.T) {
	due := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	base, err := New(Draft{Title: "Plan", Description: "notes", DueDate: &due}, time.Now())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	high := PriorityHigh
	got := base.Apply(Patch{Priority: &high})
	if got.Priority != PriorityHigh {
		t.Errorf("Priority = %q, want %q", got.Priority, PriorityHigh)
	}
	if StringValue(got.Description) != "notes" {
		t.Errorf("Description = %q, want %q", StringValue(got.Description), "notes")
	}
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Errorf("DueDate = %v, want %v", got.DueDate, due)
	}

	cleared := got.Apply(Patch{DueDate: Clear[time.Time]()})
	if cleared.DueDate != nil {
		t.Error("DueDate should be cleared")
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	desc := "original"
	orig := Task{ID: "a", Title: "t", Description: &desc}
	c := orig.Clone()
	*c.Description = "changed"
	if *orig.Description != "original" {
		t.Error("Clone shares Description pointer")
	}
}

func TestPatchValidate(t *testing.T) {
	empty := "  "
	if err := (Patch{Title: &empty}).Validate(); !errors.Is(err, ErrEmptyTitle) {
		t.Errorf("Validate() = %v, want ErrEmptyTitle", err)
	}
	bad := Priority("nope")
	if err := (Patch{Priority: &bad}).Validate(); err == nil {
		t.Error("expected invalid priority error")
	}
	if !(Patch{}).IsEmpty() {
		t.Error("zero patch should be empty")
	}
	if ReopenPatch().IsEmpty() {
		t.Error("reopen patch should not be empty")
	}
}

func TestPatchFields(t *testing.T) {
	title := " New title "
	fields := Patch{Title: &title, DueDate: Clear[time.Time]()}.Fields()
	if len(fields) != 2 {
		t.Fatalf("len(Fields) = %d, want 2", len(fields))
	}
	if fields[0].Name != "title" || fields[0].Value != "New title" {
		t.Errorf("fields[0] = %+v", fields[0])
	}
	if fields[1].Name != "due_date" || fields[1].Value.(*time.Time) != nil {
		t.Errorf("fields[1] = %+v", fields[1])
	}

	names := []string{}
	for _, f := range ReopenPatch().Fields() {
		names = append(names, f.Name)
	}
	want := []string{"completed", "completed_at", "reflection"}
	if len(names) != len(want) {
		t.Fatalf("reopen fields = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("reopen fields = %v, want %v", names, want)
		}
	}
}
