package services

import (
	"testing"
	"time"

	"taskhub/internal/docstore"
	"taskhub/internal/repositories"
)

type fixture struct {
	store    *docstore.MemoryStore
	projects ProjectService
	tasks    TaskService
	comments CommentService
	chat     ChatService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := docstore.NewMemoryStore("test")
	t.Cleanup(func() { store.Close() })

	projectRepo := repositories.NewProjectRepository(store)
	taskRepo := repositories.NewTaskRepository(store)
	cascade := repositories.NewCascadeRepository(store)

	return &fixture{
		store:    store,
		projects: NewProjectService(projectRepo, cascade),
		tasks:    NewTaskService(taskRepo, projectRepo, cascade),
		comments: NewCommentService(repositories.NewCommentRepository(store), taskRepo),
		chat:     NewChatService(repositories.NewChatRepository(store), projectRepo),
	}
}

// fakeClock hands out strictly increasing times.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}
