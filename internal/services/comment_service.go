package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"taskhub/internal/models"
	"taskhub/internal/repositories"
)

var ErrNotCommentAuthor = errors.New("only the author can delete a comment")

type CommentService interface {
	List(ctx context.Context, taskID string) ([]models.Comment, error)
	Subscribe(ctx context.Context, taskID string) (*repositories.Feed[models.Comment], error)
	Get(ctx context.Context, commentID string) (*models.Comment, error)
	Add(ctx context.Context, taskID, userID, text string) (*models.Comment, error)
	Delete(ctx context.Context, userID, commentID string) error
}

type commentService struct {
	repo  repositories.CommentRepository
	tasks repositories.TaskRepository
	now   func() time.Time
}

func NewCommentService(repo repositories.CommentRepository, tasks repositories.TaskRepository) CommentService {
	return &commentService{repo: repo, tasks: tasks, now: time.Now}
}

func (s *commentService) List(ctx context.Context, taskID string) ([]models.Comment, error) {
	comments, err := s.repo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	models.SortComments(comments)
	return comments, nil
}

func (s *commentService) Subscribe(ctx context.Context, taskID string) (*repositories.Feed[models.Comment], error) {
	feed, err := s.repo.SubscribeByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return feed.WithTransform(models.SortComments), nil
}

func (s *commentService) Get(ctx context.Context, commentID string) (*models.Comment, error) {
	return s.repo.FindByID(ctx, commentID)
}

func (s *commentService) Add(ctx context.Context, taskID, userID, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.Invalid("text", "comment text is required")
	}
	if _, err := s.tasks.FindByID(ctx, taskID); err != nil {
		return nil, err
	}
	c := &models.Comment{TaskID: taskID, UserID: userID, Text: text, CreatedAt: s.now().UTC()}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	log.Printf("[comment][add][ok] id=%s task=%s user=%s", c.ID, taskID, userID)
	return c, nil
}

func (s *commentService) Delete(ctx context.Context, userID, commentID string) error {
	c, err := s.repo.FindByID(ctx, commentID)
	if err != nil {
		return err
	}
	if c.UserID != userID {
		return ErrNotCommentAuthor
	}
	if err := s.repo.Delete(ctx, commentID); err != nil {
		return err
	}
	log.Printf("[comment][delete][ok] id=%s", commentID)
	return nil
}
