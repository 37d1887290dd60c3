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

var ErrNotProjectOwner = errors.New("only the project owner can do this")

type ProjectService interface {
	List(ctx context.Context, userID string) ([]models.Project, error)
	Subscribe(ctx context.Context, userID string) (*repositories.Feed[models.Project], error)
	Get(ctx context.Context, projectID string) (*models.Project, error)
	Create(ctx context.Context, userID, name, description string) (*models.Project, error)
	Update(ctx context.Context, projectID, name, description string) (*models.Project, error)
	Delete(ctx context.Context, userID, projectID string) error
	AddMember(ctx context.Context, projectID, userID string) (*models.Project, error)
	RemoveMember(ctx context.Context, projectID, userID string) (*models.Project, error)
}

type projectService struct {
	repo    repositories.ProjectRepository
	cascade repositories.CascadeRepository
	now     func() time.Time
}

func NewProjectService(repo repositories.ProjectRepository, cascade repositories.CascadeRepository) ProjectService {
	return &projectService{repo: repo, cascade: cascade, now: time.Now}
}

func (s *projectService) List(ctx context.Context, userID string) ([]models.Project, error) {
	return s.repo.ListByMember(ctx, userID)
}

func (s *projectService) Subscribe(ctx context.Context, userID string) (*repositories.Feed[models.Project], error) {
	return s.repo.SubscribeByMember(ctx, userID)
}

func (s *projectService) Get(ctx context.Context, projectID string) (*models.Project, error) {
	return s.repo.FindByID(ctx, projectID)
}

func (s *projectService) Create(ctx context.Context, userID, name, description string) (*models.Project, error) {
	if userID == "" {
		return nil, models.Invalid("identity", "sign-in required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.Invalid("name", "project name is required")
	}
	p := &models.Project{
		Name:        name,
		Description: strings.TrimSpace(description),
		OwnerID:     userID,
		Members:     []string{userID},
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	log.Printf("[project][create][ok] id=%s owner=%s", p.ID, userID)
	return p, nil
}

func (s *projectService) Update(ctx context.Context, projectID, name, description string) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.Invalid("name", "project name is required")
	}
	if err := s.repo.Update(ctx, projectID, name, strings.TrimSpace(description)); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, projectID)
}

// Delete removes the project with its tasks, their comments and the chat.
func (s *projectService) Delete(ctx context.Context, userID, projectID string) error {
	p, err := s.repo.FindByID(ctx, projectID)
	if err != nil {
		return err
	}
	if !p.IsOwner(userID) {
		return ErrNotProjectOwner
	}
	if err := s.cascade.DeleteProject(ctx, projectID); err != nil {
		return err
	}
	log.Printf("[project][delete][ok] id=%s by=%s", projectID, userID)
	return nil
}

func (s *projectService) AddMember(ctx context.Context, projectID, userID string) (*models.Project, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, models.Invalid("userId", "member id is required")
	}
	p, err := s.repo.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.HasMember(userID) {
		return nil, models.Invalid("userId", "user is already a member")
	}
	if err := s.repo.AddMember(ctx, projectID, userID); err != nil {
		return nil, err
	}
	log.Printf("[project][member][add] id=%s user=%s", projectID, userID)
	return s.repo.FindByID(ctx, projectID)
}

func (s *projectService) RemoveMember(ctx context.Context, projectID, userID string) (*models.Project, error) {
	p, err := s.repo.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.IsOwner(userID) {
		return nil, models.Invalid("userId", "the project owner cannot be removed")
	}
	if err := s.repo.RemoveMember(ctx, projectID, userID); err != nil {
		return nil, err
	}
	log.Printf("[project][member][remove] id=%s user=%s", projectID, userID)
	return s.repo.FindByID(ctx, projectID)
}
