package repositories

import (
	"context"

	"taskhub/internal/docstore"
	"taskhub/internal/models"
)

type TaskRepository interface {
	Store(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id string) (*models.Task, error)
	ListByProject(ctx context.Context, projectID string) ([]models.Task, error)
	ListByAssignee(ctx context.Context, userID string) ([]models.Task, error)
	SubscribeByProject(ctx context.Context, projectID string) (*Feed[models.Task], error)
	SubscribeByAssignee(ctx context.Context, userID string) (*Feed[models.Task], error)
	Update(ctx context.Context, id string, patch models.TaskPatch) error
}

type taskRepository struct {
	store docstore.Store
}

func NewTaskRepository(store docstore.Store) TaskRepository {
	return &taskRepository{store: store}
}

func (r *taskRepository) Store(ctx context.Context, task *models.Task) error {
	fields, err := encode(task)
	if err != nil {
		return err
	}
	id, err := r.store.Insert(ctx, docstore.CollectionTasks, fields)
	if err != nil {
		return err
	}
	task.ID = id
	return nil
}

func (r *taskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	return getOne[models.Task](ctx, r.store, docstore.CollectionTasks, id)
}

func (r *taskRepository) ListByProject(ctx context.Context, projectID string) ([]models.Task, error) {
	return listAll[models.Task](ctx, r.store, docstore.CollectionTasks, docstore.Eq("projectId", projectID))
}

func (r *taskRepository) ListByAssignee(ctx context.Context, userID string) ([]models.Task, error) {
	return listAll[models.Task](ctx, r.store, docstore.CollectionTasks, docstore.Eq("assignedTo", userID))
}

func (r *taskRepository) SubscribeByProject(ctx context.Context, projectID string) (*Feed[models.Task], error) {
	return subscribe[models.Task](ctx, r.store, docstore.CollectionTasks, docstore.Eq("projectId", projectID))
}

func (r *taskRepository) SubscribeByAssignee(ctx context.Context, userID string) (*Feed[models.Task], error) {
	return subscribe[models.Task](ctx, r.store, docstore.CollectionTasks, docstore.Eq("assignedTo", userID))
}

func (r *taskRepository) Update(ctx context.Context, id string, patch models.TaskPatch) error {
	fields := patch.Fields()
	if len(fields) == 0 {
		return nil
	}
	return r.store.Update(ctx, docstore.CollectionTasks, id, fields)
}
