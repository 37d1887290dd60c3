package repositories

import (
	"context"

	"taskhub/internal/docstore"
	"taskhub/internal/models"
)

type CommentRepository interface {
	Create(ctx context.Context, c *models.Comment) error
	FindByID(ctx context.Context, id string) (*models.Comment, error)
	ListByTask(ctx context.Context, taskID string) ([]models.Comment, error)
	SubscribeByTask(ctx context.Context, taskID string) (*Feed[models.Comment], error)
	Delete(ctx context.Context, id string) error
}

type commentRepository struct {
	store docstore.Store
}

func NewCommentRepository(store docstore.Store) CommentRepository {
	return &commentRepository{store: store}
}

func (r *commentRepository) Create(ctx context.Context, c *models.Comment) error {
	fields, err := encode(c)
	if err != nil {
		return err
	}
	id, err := r.store.Insert(ctx, docstore.CollectionComments, fields)
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

func (r *commentRepository) FindByID(ctx context.Context, id string) (*models.Comment, error) {
	return getOne[models.Comment](ctx, r.store, docstore.CollectionComments, id)
}

func (r *commentRepository) ListByTask(ctx context.Context, taskID string) ([]models.Comment, error) {
	return listAll[models.Comment](ctx, r.store, docstore.CollectionComments, docstore.Eq("taskId", taskID))
}

func (r *commentRepository) SubscribeByTask(ctx context.Context, taskID string) (*Feed[models.Comment], error) {
	return subscribe[models.Comment](ctx, r.store, docstore.CollectionComments, docstore.Eq("taskId", taskID))
}

func (r *commentRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, docstore.CollectionComments, id)
}
