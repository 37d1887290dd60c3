// internal/services/task_service.go
package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskhub/internal/models"
	"taskhub/internal/repositories"
)

// TaskService defines the interface for task-related business logic.
type TaskService interface {
	Create(ctx context.Context, projectID string, fields models.TaskFields) (*models.Task, error)
	GetByID(ctx context.Context, id string) (*models.Task, error)
	ListByProject(ctx context.Context, projectID string) ([]models.Task, error)
	ListByAssignee(ctx context.Context, userID string) ([]models.Task, error)
	SubscribeByProject(ctx context.Context, projectID string) (*repositories.Feed[models.Task], error)
	SubscribeByAssignee(ctx context.Context, userID string) (*repositories.Feed[models.Task], error)
	Update(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error)
	UpdateStatus(ctx context.Context, id string, to models.TaskStatus) (*models.Task, error)
	Delete(ctx context.Context, id string) error

	AddItem(ctx context.Context, taskID string, list models.ItemList, text string) (*models.Task, error)
	ToggleItem(ctx context.Context, taskID string, list models.ItemList, itemID string) (*models.Task, error)
	DeleteItem(ctx context.Context, taskID string, list models.ItemList, itemID string) (*models.Task, error)
}

type taskService struct {
	repo     repositories.TaskRepository
	projects repositories.ProjectRepository
	cascade  repositories.CascadeRepository
	now      func() time.Time
}

// NewTaskService creates a new instance of TaskService.
func NewTaskService(repo repositories.TaskRepository, projects repositories.ProjectRepository, cascade repositories.CascadeRepository) TaskService {
	return &taskService{repo: repo, projects: projects, cascade: cascade, now: time.Now}
}

func (s *taskService) Create(ctx context.Context, projectID string, fields models.TaskFields) (*models.Task, error) {
	if strings.TrimSpace(fields.Title) == "" {
		return nil, models.Invalid("title", "task title is required")
	}
	if fields.Priority != "" && !fields.Priority.Valid() {
		return nil, models.Invalid("priority", "must be one of low, medium, high")
	}
	if fields.Status != "" && !fields.Status.Valid() {
		return nil, models.Invalid("status", "must be one of todo, in_progress, review, done")
	}
	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		return nil, err
	}
	labels := fields.Labels
	if labels == nil {
		labels = []string{}
	}
	task := &models.Task{
		ProjectID:   projectID,
		Title:       fields.Title,
		Description: fields.Description,
		AssignedTo:  fields.AssignedTo,
		Priority:    fields.Priority,
		Status:      fields.Status,
		DueDate:     fields.DueDate,
		Labels:      labels,
		Subtasks:    []models.Item{},
		Checklists:  []models.Item{},
		CreatedAt:   s.now().UTC(),
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if task.Status == "" {
		task.Status = models.StatusTodo
	}
	if err := s.repo.Store(ctx, task); err != nil {
		return nil, err
	}
	log.Printf("[task][create][ok] id=%s project=%s assignee=%s", task.ID, projectID, task.AssignedTo)
	return task, nil
}

func (s *taskService) GetByID(ctx context.Context, id string) (*models.Task, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *taskService) ListByProject(ctx context.Context, projectID string) ([]models.Task, error) {
	return s.repo.ListByProject(ctx, projectID)
}

func (s *taskService) ListByAssignee(ctx context.Context, userID string) ([]models.Task, error) {
	return s.repo.ListByAssignee(ctx, userID)
}

func (s *taskService) SubscribeByProject(ctx context.Context, projectID string) (*repositories.Feed[models.Task], error) {
	return s.repo.SubscribeByProject(ctx, projectID)
}

func (s *taskService) SubscribeByAssignee(ctx context.Context, userID string) (*repositories.Feed[models.Task], error) {
	return s.repo.SubscribeByAssignee(ctx, userID)
}

func (s *taskService) Update(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, models.Invalid("title", "task title is required")
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return nil, models.Invalid("priority", "must be one of low, medium, high")
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, models.Invalid("status", "must be one of todo, in_progress, review, done")
	}
	if err := s.repo.Update(ctx, id, patch); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

func (s *taskService) UpdateStatus(ctx context.Context, id string, to models.TaskStatus) (*models.Task, error) {
	return s.Update(ctx, id, models.TaskPatch{Status: &to})
}

// Delete removes the task and its comments.
func (s *taskService) Delete(ctx context.Context, id string) error {
	if err := s.cascade.DeleteTask(ctx, id); err != nil {
		return err
	}
	log.Printf("[task][delete][ok] id=%s", id)
	return nil
}

func (s *taskService) AddItem(ctx context.Context, taskID string, list models.ItemList, text string) (*models.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.Invalid("text", "text is required")
	}
	return s.rewriteItems(ctx, taskID, list, func(items []models.Item) ([]models.Item, error) {
		return append(items, models.Item{ID: uuid.NewString(), Text: text}), nil
	})
}

func (s *taskService) ToggleItem(ctx context.Context, taskID string, list models.ItemList, itemID string) (*models.Task, error) {
	return s.rewriteItems(ctx, taskID, list, func(items []models.Item) ([]models.Item, error) {
		for i := range items {
			if items[i].ID == itemID {
				items[i].Completed = !items[i].Completed
				return items, nil
			}
		}
		return nil, repositories.ErrNotFound
	})
}

func (s *taskService) DeleteItem(ctx context.Context, taskID string, list models.ItemList, itemID string) (*models.Task, error) {
	return s.rewriteItems(ctx, taskID, list, func(items []models.Item) ([]models.Item, error) {
		out := make([]models.Item, 0, len(items))
		for _, it := range items {
			if it.ID != itemID {
				out = append(out, it)
			}
		}
		return out, nil
	})
}

// rewriteItems reads the task, changes one embedded sequence and writes the
// whole sequence back. Concurrent edits of the same task are last write wins.
func (s *taskService) rewriteItems(ctx context.Context, taskID string, list models.ItemList, fn func([]models.Item) ([]models.Item, error)) (*models.Task, error) {
	if !list.Valid() {
		return nil, models.Invalid("list", "unknown item list")
	}
	task, err := s.repo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	current := append([]models.Item(nil), task.Items(list)...)
	items, err := fn(current)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, taskID, models.WithItems(list, items)); err != nil {
		return nil, err
	}
	if list == models.Checklists {
		task.Checklists = items
	} else {
		task.Subtasks = items
	}
	log.Printf("[task][%s][ok] id=%s count=%d", list, taskID, len(items))
	return task, nil
}
