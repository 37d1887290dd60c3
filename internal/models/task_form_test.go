package models

import (
	"errors"
	"slices"
	"testing"
	"time"
)

func TestSubmitRequiresTitle(t *testing.T) {
	for _, title := range []string{"", "   ", "\t"} {
		_, err := TaskForm{Title: title}.Submit("u1")
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("title %q: expected ValidationError, got %v", title, err)
		}
		if verr.Field != "title" {
			t.Errorf("Field = %q, want title", verr.Field)
		}
	}
}

func TestSubmitDefaults(t *testing.T) {
	fields, err := TaskForm{Title: "  Write docs  "}.Submit("u1")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if fields.Title != "Write docs" {
		t.Errorf("Title = %q", fields.Title)
	}
	if fields.AssignedTo != "u1" {
		t.Errorf("AssignedTo = %q, want current user", fields.AssignedTo)
	}
	if fields.Priority != PriorityMedium {
		t.Errorf("Priority = %q, want medium", fields.Priority)
	}
	if fields.Status != StatusTodo {
		t.Errorf("Status = %q, want todo", fields.Status)
	}
	if fields.Labels == nil || len(fields.Labels) != 0 {
		t.Errorf("Labels = %#v, want empty slice", fields.Labels)
	}
}

func TestSubmitRejectsInvalidEnums(t *testing.T) {
	cases := []TaskForm{
		{Title: "x", Priority: "urgent"},
		{Title: "x", Status: "cancelled"},
		{Title: "x", DueDate: "15/10/2026"},
	}
	for _, f := range cases {
		if _, err := f.Submit("u1"); err == nil {
			t.Errorf("expected error for %+v", f)
		}
	}
}

func TestParseLabels(t *testing.T) {
	cases := map[string][]string{
		"a, b ,  ":      {"a", "b"},
		"":              {},
		" , ,":          {},
		"bug,ui , help": {"bug", "ui", "help"},
	}
	for in, want := range cases {
		if got := ParseLabels(in); !slices.Equal(got, want) {
			t.Errorf("ParseLabels(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestTaskFormFromRoundTrip(t *testing.T) {
	task := Task{
		Title:      "Ship",
		AssignedTo: "u2",
		Priority:   PriorityHigh,
		Status:     StatusReview,
		DueDate:    "2026-10-15",
		Labels:     []string{"a", "b"},
	}
	form := TaskFormFrom(task)
	if form.Labels != "a, b" {
		t.Errorf("Labels = %q, want %q", form.Labels, "a, b")
	}
	fields, err := form.Submit("u1")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if fields.AssignedTo != "u2" || fields.Priority != PriorityHigh || fields.Status != StatusReview {
		t.Errorf("unexpected fields: %+v", fields)
	}
	if !slices.Equal(fields.Labels, task.Labels) {
		t.Errorf("Labels = %v, want %v", fields.Labels, task.Labels)
	}
}

func TestTaskPatchFieldsOnlySetValues(t *testing.T) {
	status := StatusDone
	got := TaskPatch{Status: &status}.Fields()
	if len(got) != 1 || got["status"] != "done" {
		t.Fatalf("Fields() = %v", got)
	}

	items := []Item(nil)
	got = WithItems(Checklists, items).Fields()
	if v, ok := got["checklists"].([]Item); !ok || v == nil {
		t.Fatalf("checklists = %#v, want empty non-nil slice", got["checklists"])
	}
}

func TestSortMessages(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	msgs := []ChatMessage{
		{ID: "c", CreatedAt: base.Add(2 * time.Minute)},
		{ID: "b", CreatedAt: base},
		{ID: "a", CreatedAt: base},
		{ID: "d", CreatedAt: base.Add(time.Minute)},
	}
	SortMessages(msgs)
	var order []string
	for _, m := range msgs {
		order = append(order, m.ID)
	}
	if want := []string{"a", "b", "d", "c"}; !slices.Equal(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}
