package repositories

import (
	"context"

	"taskhub/internal/docstore"
	"taskhub/internal/models"
)

type ProjectRepository interface {
	Create(ctx context.Context, p *models.Project) error
	FindByID(ctx context.Context, id string) (*models.Project, error)
	ListByMember(ctx context.Context, userID string) ([]models.Project, error)
	SubscribeByMember(ctx context.Context, userID string) (*Feed[models.Project], error)
	Update(ctx context.Context, id, name, description string) error
	AddMember(ctx context.Context, id, userID string) error
	RemoveMember(ctx context.Context, id, userID string) error
}

type projectRepository struct {
	store docstore.Store
}

func NewProjectRepository(store docstore.Store) ProjectRepository {
	return &projectRepository{store: store}
}

func (r *projectRepository) Create(ctx context.Context, p *models.Project) error {
	fields, err := encode(p)
	if err != nil {
		return err
	}
	id, err := r.store.Insert(ctx, docstore.CollectionProjects, fields)
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

func (r *projectRepository) FindByID(ctx context.Context, id string) (*models.Project, error) {
	return getOne[models.Project](ctx, r.store, docstore.CollectionProjects, id)
}

func (r *projectRepository) ListByMember(ctx context.Context, userID string) ([]models.Project, error) {
	return listAll[models.Project](ctx, r.store, docstore.CollectionProjects, docstore.Contains("members", userID))
}

func (r *projectRepository) SubscribeByMember(ctx context.Context, userID string) (*Feed[models.Project], error) {
	return subscribe[models.Project](ctx, r.store, docstore.CollectionProjects, docstore.Contains("members", userID))
}

func (r *projectRepository) Update(ctx context.Context, id, name, description string) error {
	return r.store.Update(ctx, docstore.CollectionProjects, id, map[string]any{
		"name":        name,
		"description": description,
	})
}

func (r *projectRepository) AddMember(ctx context.Context, id, userID string) error {
	return r.store.SetUnion(ctx, docstore.CollectionProjects, id, "members", userID)
}

func (r *projectRepository) RemoveMember(ctx context.Context, id, userID string) error {
	return r.store.SetRemove(ctx, docstore.CollectionProjects, id, "members", userID)
}
