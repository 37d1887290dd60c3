package services

import (
	"context"
	"log"
	"strings"
	"time"

	"taskhub/internal/models"
	"taskhub/internal/repositories"
)

type ChatService interface {
	ListMessages(ctx context.Context, projectID string) ([]models.ChatMessage, error)
	Subscribe(ctx context.Context, projectID string) (*repositories.Feed[models.ChatMessage], error)
	Send(ctx context.Context, projectID, userID, text string) (*models.ChatMessage, error)
}

type chatService struct {
	repo     repositories.ChatRepository
	projects repositories.ProjectRepository
	now      func() time.Time
}

func NewChatService(repo repositories.ChatRepository, projects repositories.ProjectRepository) ChatService {
	return &chatService{repo: repo, projects: projects, now: time.Now}
}

// ListMessages returns the project chat oldest first.
func (s *chatService) ListMessages(ctx context.Context, projectID string) ([]models.ChatMessage, error) {
	msgs, err := s.repo.ListMessages(ctx, projectID)
	if err != nil {
		return nil, err
	}
	models.SortMessages(msgs)
	return msgs, nil
}

// Subscribe delivers every snapshot sorted oldest first.
func (s *chatService) Subscribe(ctx context.Context, projectID string) (*repositories.Feed[models.ChatMessage], error) {
	feed, err := s.repo.SubscribeMessages(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return feed.WithTransform(models.SortMessages), nil
}

func (s *chatService) Send(ctx context.Context, projectID, userID, text string) (*models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.Invalid("message", "message text is required")
	}
	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		return nil, err
	}
	msg := &models.ChatMessage{
		ProjectID: projectID,
		UserID:    userID,
		Message:   text,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		log.Printf("[chat][send][err] project=%s: %v", projectID, err)
		return nil, err
	}
	log.Printf("[chat][send][ok] id=%s project=%s user=%s", msg.ID, projectID, userID)
	return msg, nil
}
