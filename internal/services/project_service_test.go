package services

import (
	"context"
	"errors"
	"slices"
	"testing"

	"taskhub/internal/models"
	"taskhub/internal/repositories"
)

func TestCreateProjectOwnerIsMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.projects.Create(ctx, "owner", "  Alpha ", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.Name != "Alpha" || p.OwnerID != "owner" || !p.HasMember("owner") {
		t.Fatalf("unexpected project: %+v", p)
	}

	var verr *models.ValidationError
	if _, err := f.projects.Create(ctx, "owner", "   ", ""); !errors.As(err, &verr) {
		t.Errorf("blank name: expected ValidationError, got %v", err)
	}
	if _, err := f.projects.Create(ctx, "", "Beta", ""); !errors.As(err, &verr) {
		t.Errorf("no identity: expected ValidationError, got %v", err)
	}
	if all, _ := f.projects.List(ctx, "owner"); len(all) != 1 {
		t.Errorf("rejected creates must not write, got %d projects", len(all))
	}
}

func TestAddMemberRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _ := f.projects.Create(ctx, "owner", "Alpha", "")

	if _, err := f.projects.AddMember(ctx, p.ID, "u2"); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	var verr *models.ValidationError
	if _, err := f.projects.AddMember(ctx, p.ID, "u2"); !errors.As(err, &verr) {
		t.Errorf("duplicate: expected ValidationError, got %v", err)
	}
	if _, err := f.projects.AddMember(ctx, p.ID, "  "); !errors.As(err, &verr) {
		t.Errorf("blank: expected ValidationError, got %v", err)
	}

	got, _ := f.projects.Get(ctx, p.ID)
	if want := []string{"owner", "u2"}; !slices.Equal(got.Members, want) {
		t.Errorf("members = %v, want %v", got.Members, want)
	}
}

func TestRemoveMemberKeepsOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _ := f.projects.Create(ctx, "owner", "Alpha", "")
	f.projects.AddMember(ctx, p.ID, "u2")
	f.projects.AddMember(ctx, p.ID, "u3")

	got, err := f.projects.RemoveMember(ctx, p.ID, "u2")
	if err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}
	if want := []string{"owner", "u3"}; !slices.Equal(got.Members, want) {
		t.Errorf("members = %v, want %v", got.Members, want)
	}

	var verr *models.ValidationError
	if _, err := f.projects.RemoveMember(ctx, p.ID, "owner"); !errors.As(err, &verr) {
		t.Errorf("removing owner: expected ValidationError, got %v", err)
	}
	got, _ = f.projects.Get(ctx, p.ID)
	if !got.HasMember(got.OwnerID) {
		t.Errorf("owner missing from members: %v", got.Members)
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _ := f.projects.Create(ctx, "owner", "Alpha", "")
	task, _ := f.tasks.Create(ctx, p.ID, models.TaskFields{Title: "t"})
	f.comments.Add(ctx, task.ID, "owner", "hello")
	f.chat.Send(ctx, p.ID, "owner", "hi")

	if err := f.projects.Delete(ctx, "someone-else", p.ID); !errors.Is(err, ErrNotProjectOwner) {
		t.Fatalf("non-owner delete: expected ErrNotProjectOwner, got %v", err)
	}
	if err := f.projects.Delete(ctx, "owner", p.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := f.projects.Get(ctx, p.ID); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("project still present: %v", err)
	}
	if left, _ := f.tasks.ListByProject(ctx, p.ID); len(left) != 0 {
		t.Errorf("tasks left: %d", len(left))
	}
	if left, _ := f.comments.List(ctx, task.ID); len(left) != 0 {
		t.Errorf("comments left: %d", len(left))
	}
	if left, _ := f.chat.ListMessages(ctx, p.ID); len(left) != 0 {
		t.Errorf("messages left: %d", len(left))
	}
}
