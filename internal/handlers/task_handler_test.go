package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"taskhub/internal/docstore"
	"taskhub/internal/middleware"
	"taskhub/internal/models"
	"taskhub/internal/repositories"
	"taskhub/internal/services"
)

// blockingNotifier holds every notification until release is closed.
type blockingNotifier struct {
	release  chan struct{}
	notified chan *models.Task
}

func (n *blockingNotifier) NotifyAssignee(ctx context.Context, prefix string, t *models.Task) {
	<-n.release
	if ctx.Err() == nil {
		n.notified <- t
	}
}

func TestCreateTaskRespondsBeforeNotification(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := docstore.NewMemoryStore("test")
	t.Cleanup(func() { store.Close() })

	projectRepo := repositories.NewProjectRepository(store)
	cascade := repositories.NewCascadeRepository(store)
	projects := services.NewProjectService(projectRepo, cascade)
	tasks := services.NewTaskService(repositories.NewTaskRepository(store), projectRepo, cascade)
	p, err := projects.Create(context.Background(), "owner", "Alpha", "")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	notifier := &blockingNotifier{release: make(chan struct{}), notified: make(chan *models.Task, 1)}
	h := NewTaskHandler(tasks, services.NewConfirmationGate(time.Minute), services.NewNoticeBoard(), notifier)

	r := gin.New()
	r.POST("/projects/:id/tasks", func(c *gin.Context) {
		c.Set(middleware.CtxUserID, "owner")
		c.Next()
	}, h.Create)

	body := `{"title":"Review","assignedTo":"u2"}`
	req := httptest.NewRequest(http.MethodPost, "/projects/"+p.ID+"/tasks", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	ctx, cancel := context.WithCancel(req.Context())
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		r.ServeHTTP(w, req)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		close(notifier.release)
		t.Fatal("handler waited for the notification")
	}
	if w.Code != http.StatusCreated {
		t.Fatalf("create task = %d %s", w.Code, w.Body.String())
	}

	// the request is over; the notification must still go out
	cancel()
	close(notifier.release)
	select {
	case task := <-notifier.notified:
		if task.AssignedTo != "u2" {
			t.Errorf("notified assignee = %q, want u2", task.AssignedTo)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("notification not sent")
	}
}
