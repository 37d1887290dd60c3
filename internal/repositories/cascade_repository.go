package repositories

import (
	"context"
	"fmt"

	"taskhub/internal/docstore"
)

// CascadeRepository removes a record together with everything that belongs to
// it. Dependants are collected first and removed in one DeleteAll batch.
type CascadeRepository interface {
	DeleteProject(ctx context.Context, projectID string) error
	DeleteTask(ctx context.Context, taskID string) error
}

type cascadeRepository struct {
	store docstore.Store
}

func NewCascadeRepository(store docstore.Store) CascadeRepository {
	return &cascadeRepository{store: store}
}

func (r *cascadeRepository) DeleteProject(ctx context.Context, projectID string) error {
	refs := []docstore.Ref{{Collection: docstore.CollectionProjects, ID: projectID}}

	tasks, err := r.store.GetAll(ctx, docstore.CollectionTasks, docstore.Eq("projectId", projectID))
	if err != nil {
		return fmt.Errorf("list tasks of project %s: %w", projectID, err)
	}
	for _, t := range tasks {
		comments, err := r.commentRefs(ctx, t.ID)
		if err != nil {
			return err
		}
		refs = append(refs, comments...)
		refs = append(refs, docstore.Ref{Collection: docstore.CollectionTasks, ID: t.ID})
	}

	msgs, err := r.store.GetAll(ctx, docstore.CollectionChatMessages, docstore.Eq("projectId", projectID))
	if err != nil {
		return fmt.Errorf("list messages of project %s: %w", projectID, err)
	}
	for _, m := range msgs {
		refs = append(refs, docstore.Ref{Collection: docstore.CollectionChatMessages, ID: m.ID})
	}

	return r.store.DeleteAll(ctx, refs)
}

func (r *cascadeRepository) DeleteTask(ctx context.Context, taskID string) error {
	refs, err := r.commentRefs(ctx, taskID)
	if err != nil {
		return err
	}
	refs = append(refs, docstore.Ref{Collection: docstore.CollectionTasks, ID: taskID})
	return r.store.DeleteAll(ctx, refs)
}

func (r *cascadeRepository) commentRefs(ctx context.Context, taskID string) ([]docstore.Ref, error) {
	comments, err := r.store.GetAll(ctx, docstore.CollectionComments, docstore.Eq("taskId", taskID))
	if err != nil {
		return nil, fmt.Errorf("list comments of task %s: %w", taskID, err)
	}
	refs := make([]docstore.Ref, 0, len(comments))
	for _, c := range comments {
		refs = append(refs, docstore.Ref{Collection: docstore.CollectionComments, ID: c.ID})
	}
	return refs, nil
}
