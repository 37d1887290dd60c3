package repositories

import (
	"context"

	"taskhub/internal/docstore"
	"taskhub/internal/models"
)

// ChatRepository stores project chat messages. Messages are never edited or
// deleted individually; they go away with their project.
type ChatRepository interface {
	CreateMessage(ctx context.Context, msg *models.ChatMessage) error
	ListMessages(ctx context.Context, projectID string) ([]models.ChatMessage, error)
	SubscribeMessages(ctx context.Context, projectID string) (*Feed[models.ChatMessage], error)
}

type chatRepository struct {
	store docstore.Store
}

func NewChatRepository(store docstore.Store) ChatRepository {
	return &chatRepository{store: store}
}

func (r *chatRepository) CreateMessage(ctx context.Context, msg *models.ChatMessage) error {
	fields, err := encode(msg)
	if err != nil {
		return err
	}
	id, err := r.store.Insert(ctx, docstore.CollectionChatMessages, fields)
	if err != nil {
		return err
	}
	msg.ID = id
	return nil
}

func (r *chatRepository) ListMessages(ctx context.Context, projectID string) ([]models.ChatMessage, error) {
	return listAll[models.ChatMessage](ctx, r.store, docstore.CollectionChatMessages, docstore.Eq("projectId", projectID))
}

func (r *chatRepository) SubscribeMessages(ctx context.Context, projectID string) (*Feed[models.ChatMessage], error) {
	return subscribe[models.ChatMessage](ctx, r.store, docstore.CollectionChatMessages, docstore.Eq("projectId", projectID))
}
