package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskhub/internal/docstore"
	"taskhub/internal/models"
)

func newStore(t *testing.T) *docstore.MemoryStore {
	t.Helper()
	s := docstore.NewMemoryStore("test")
	t.Cleanup(func() { s.Close() })
	return s
}

func TestProjectRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewProjectRepository(newStore(t))

	created := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	p := &models.Project{Name: "Alpha", OwnerID: "u1", Members: []string{"u1"}, CreatedAt: created}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.ID == "" {
		t.Fatal("Create did not set ID")
	}

	got, err := repo.FindByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if got.ID != p.ID || got.Name != "Alpha" || !got.CreatedAt.Equal(created) {
		t.Errorf("unexpected project: %+v", got)
	}

	if _, err := repo.FindByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	repo.AddMember(ctx, p.ID, "u2")
	mine, _ := repo.ListByMember(ctx, "u2")
	if len(mine) != 1 || mine[0].ID != p.ID {
		t.Errorf("ListByMember(u2) = %+v", mine)
	}
}

func TestFeedAppliesTransform(t *testing.T) {
	ctx := context.Background()
	repo := NewChatRepository(newStore(t))

	base := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	repo.CreateMessage(ctx, &models.ChatMessage{ProjectID: "p1", Message: "late", CreatedAt: base.Add(time.Minute)})
	repo.CreateMessage(ctx, &models.ChatMessage{ProjectID: "p1", Message: "early", CreatedAt: base})

	feed, err := repo.SubscribeMessages(ctx, "p1")
	if err != nil {
		t.Fatalf("SubscribeMessages failed: %v", err)
	}
	defer feed.Close()
	feed.WithTransform(models.SortMessages)

	msgs, err := feed.Next(ctx)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Message != "early" || msgs[1].Message != "late" {
		t.Fatalf("unexpected order: %+v", msgs)
	}

	feed.Close()
	if _, err := feed.Next(ctx); !errors.Is(err, docstore.ErrSubscriptionClosed) {
		t.Errorf("expected ErrSubscriptionClosed, got %v", err)
	}
}

func TestCascadeDeleteProject(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	projects := NewProjectRepository(store)
	tasks := NewTaskRepository(store)
	comments := NewCommentRepository(store)
	chat := NewChatRepository(store)
	cascade := NewCascadeRepository(store)

	p := &models.Project{Name: "Doomed", OwnerID: "u1", Members: []string{"u1"}}
	other := &models.Project{Name: "Other", OwnerID: "u1", Members: []string{"u1"}}
	projects.Create(ctx, p)
	projects.Create(ctx, other)

	t1 := &models.Task{ProjectID: p.ID, Title: "a"}
	t2 := &models.Task{ProjectID: other.ID, Title: "b"}
	tasks.Store(ctx, t1)
	tasks.Store(ctx, t2)
	comments.Create(ctx, &models.Comment{TaskID: t1.ID, Text: "gone"})
	comments.Create(ctx, &models.Comment{TaskID: t2.ID, Text: "kept"})
	chat.CreateMessage(ctx, &models.ChatMessage{ProjectID: p.ID, Message: "gone"})
	chat.CreateMessage(ctx, &models.ChatMessage{ProjectID: other.ID, Message: "kept"})

	if err := cascade.DeleteProject(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProject failed: %v", err)
	}

	if _, err := projects.FindByID(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("project still present")
	}
	if left, _ := tasks.ListByProject(ctx, p.ID); len(left) != 0 {
		t.Errorf("tasks left: %+v", left)
	}
	if left, _ := comments.ListByTask(ctx, t1.ID); len(left) != 0 {
		t.Errorf("comments left: %+v", left)
	}
	if left, _ := chat.ListMessages(ctx, p.ID); len(left) != 0 {
		t.Errorf("messages left: %+v", left)
	}

	if left, _ := tasks.ListByProject(ctx, other.ID); len(left) != 1 {
		t.Errorf("other project's tasks touched: %+v", left)
	}
	if left, _ := comments.ListByTask(ctx, t2.ID); len(left) != 1 {
		t.Errorf("other task's comments touched: %+v", left)
	}
	if left, _ := chat.ListMessages(ctx, other.ID); len(left) != 1 {
		t.Errorf("other project's messages touched: %+v", left)
	}
}

func TestTaskRepositoryPartialUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(newStore(t))

	task := &models.Task{ProjectID: "p1", Title: "a", Status: models.StatusTodo, Labels: []string{"x"}}
	repo.Store(ctx, task)

	status := models.StatusDone
	if err := repo.Update(ctx, task.ID, models.TaskPatch{Status: &status}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	got, _ := repo.FindByID(ctx, task.ID)
	if got.Status != models.StatusDone || got.Title != "a" || len(got.Labels) != 1 {
		t.Errorf("unexpected task after update: %+v", got)
	}
}
