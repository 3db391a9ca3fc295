package service

import (
	"context"
	"strings"

	"github.com/systemcontrol/defect-service/internal/domain"
	"github.com/systemcontrol/defect-service/internal/repository"
	apperrors "github.com/systemcontrol/defect-service/pkg/util"
)

// ProjectService is a thin CRUD collaborator of the lifecycle engine; defects
// validate their project reference against it.
type ProjectService struct {
	store repository.Store
}

// NewProjectService constructs the service.
func NewProjectService(store repository.Store) *ProjectService {
	return &ProjectService{store: store}
}

// Create persists a project.
func (s *ProjectService) Create(ctx context.Context, project *domain.Project) (*domain.Project, error) {
	project.Name = strings.TrimSpace(project.Name)
	if project.Name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	if err := s.store.Projects().Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Get fetches one project.
func (s *ProjectService) Get(ctx context.Context, id int64) (*domain.Project, error) {
	project, err := s.store.Projects().GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewNotFound("project", map[string]any{"id": id})
		}
		return nil, err
	}
	return project, nil
}

// List returns all projects.
func (s *ProjectService) List(ctx context.Context) ([]domain.Project, error) {
	return s.store.Projects().List(ctx)
}

// Delete removes a project.
func (s *ProjectService) Delete(ctx context.Context, id int64) error {
	return s.store.Projects().Delete(ctx, id)
}
