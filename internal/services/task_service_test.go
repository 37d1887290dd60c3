package services

import (
	"context"
	"errors"
	"testing"

	"taskhub/internal/models"
	"taskhub/internal/repositories"
)

func TestCreateTaskForcesEmptyItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _ := f.projects.Create(ctx, "owner", "Alpha", "")

	task, err := f.tasks.Create(ctx, p.ID, models.TaskFields{Title: "t", Labels: []string{"a"}})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	got, _ := f.tasks.GetByID(ctx, task.ID)
	if got.Subtasks == nil || len(got.Subtasks) != 0 || got.Checklists == nil || len(got.Checklists) != 0 {
		t.Errorf("expected empty item lists, got %+v / %+v", got.Subtasks, got.Checklists)
	}
	if got.ProjectID != p.ID || got.CreatedAt.IsZero() {
		t.Errorf("projectId/createdAt not set: %+v", got)
	}
	if got.Priority != models.PriorityMedium || got.Status != models.StatusTodo {
		t.Errorf("defaults not applied: %+v", got)
	}

	if _, err := f.tasks.Create(ctx, "missing", models.TaskFields{Title: "t"}); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("unknown project: expected ErrNotFound, got %v", err)
	}

	var verr *models.ValidationError
	if _, err := f.tasks.Create(ctx, p.ID, models.TaskFields{Title: "t", Priority: "urgent"}); !errors.As(err, &verr) || verr.Field != "priority" {
		t.Errorf("invalid priority: expected validation error, got %v", err)
	}
	if _, err := f.tasks.Create(ctx, p.ID, models.TaskFields{Title: "t", Status: "blocked"}); !errors.As(err, &verr) || verr.Field != "status" {
		t.Errorf("invalid status: expected validation error, got %v", err)
	}
	if all, _ := f.tasks.ListByProject(ctx, p.ID); len(all) != 1 {
		t.Errorf("invalid tasks were stored: %d tasks", len(all))
	}
}

func TestInvalidFormDoesNotMutate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _ := f.projects.Create(ctx, "owner", "Alpha", "")

	if _, err := (models.TaskForm{Title: " "}).Submit("owner"); err == nil {
		t.Fatal("expected validation error")
	}
	if _, err := f.tasks.Create(ctx, p.ID, models.TaskFields{Title: " "}); err == nil {
		t.Fatal("expected validation error from service")
	}
	if all, _ := f.tasks.ListByProject(ctx, p.ID); len(all) != 0 {
		t.Errorf("expected no tasks, got %d", len(all))
	}
}

func TestToggleSubtaskTwiceRestores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _ := f.projects.Create(ctx, "owner", "Alpha", "")
	task, _ := f.tasks.Create(ctx, p.ID, models.TaskFields{Title: "t"})

	task, err := f.tasks.AddItem(ctx, task.ID, models.Subtasks, "first")
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	f.tasks.AddItem(ctx, task.ID, models.Subtasks, "second")
	task, _ = f.tasks.GetByID(ctx, task.ID)
	itemID := task.Subtasks[0].ID

	toggled, err := f.tasks.ToggleItem(ctx, task.ID, models.Subtasks, itemID)
	if err != nil {
		t.Fatalf("ToggleItem failed: %v", err)
	}
	stored, _ := f.tasks.GetByID(ctx, task.ID)
	if !stored.Subtasks[0].Completed || len(stored.Subtasks) != 2 || stored.Subtasks[1].Completed {
		t.Fatalf("after first toggle: %+v", stored.Subtasks)
	}
	if !toggled.Subtasks[0].Completed {
		t.Errorf("returned task not updated: %+v", toggled.Subtasks)
	}

	f.tasks.ToggleItem(ctx, task.ID, models.Subtasks, itemID)
	stored, _ = f.tasks.GetByID(ctx, task.ID)
	if stored.Subtasks[0].Completed || stored.Subtasks[0].Text != "first" {
		t.Errorf("after second toggle: %+v", stored.Subtasks)
	}

	if _, err := f.tasks.ToggleItem(ctx, task.ID, models.Subtasks, "nope"); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("unknown item: expected ErrNotFound, got %v", err)
	}
}

func TestChecklistItemsAreSeparate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _ := f.projects.Create(ctx, "owner", "Alpha", "")
	task, _ := f.tasks.Create(ctx, p.ID, models.TaskFields{Title: "t"})

	f.tasks.AddItem(ctx, task.ID, models.Checklists, "check")
	if _, err := f.tasks.AddItem(ctx, task.ID, models.Checklists, "  "); err == nil {
		t.Error("blank item text must be rejected")
	}
	stored, _ := f.tasks.GetByID(ctx, task.ID)
	if len(stored.Checklists) != 1 || len(stored.Subtasks) != 0 {
		t.Fatalf("unexpected lists: %+v / %+v", stored.Subtasks, stored.Checklists)
	}

	stored, err := f.tasks.DeleteItem(ctx, task.ID, models.Checklists, stored.Checklists[0].ID)
	if err != nil {
		t.Fatalf("DeleteItem failed: %v", err)
	}
	if len(stored.Checklists) != 0 {
		t.Errorf("checklist not emptied: %+v", stored.Checklists)
	}
}

func TestUpdateMergesOnlyGivenFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _ := f.projects.Create(ctx, "owner", "Alpha", "")
	task, _ := f.tasks.Create(ctx, p.ID, models.TaskFields{Title: "t", Description: "keep"})

	got, err := f.tasks.UpdateStatus(ctx, task.ID, models.StatusReview)
	if err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if got.Status != models.StatusReview || got.Description != "keep" {
		t.Errorf("unexpected task: %+v", got)
	}
	if _, err := f.tasks.UpdateStatus(ctx, task.ID, "archived"); err == nil {
		t.Error("invalid status must be rejected")
	}
}

func TestDeleteTaskRemovesComments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _ := f.projects.Create(ctx, "owner", "Alpha", "")
	task, _ := f.tasks.Create(ctx, p.ID, models.TaskFields{Title: "t"})
	f.comments.Add(ctx, task.ID, "owner", "one")

	if err := f.tasks.Delete(ctx, task.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if left, _ := f.comments.List(ctx, task.ID); len(left) != 0 {
		t.Errorf("comments left: %d", len(left))
	}
}
