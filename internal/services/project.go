package services

import (
	"context"
	"strings"

	"github.com/harjot20022001/bug-tracker/internal/logging"
	"github.com/harjot20022001/bug-tracker/types"
)

const msgProjectNotFound = "Project not found"

// ProjectRepository defines persistence operations for projects.
type ProjectRepository interface {
	List(ctx context.Context) ([]types.Project, error)
	Get(ctx context.Context, id string) (types.Project, error)
	Create(ctx context.Context, project types.Project) (types.Project, error)
	Update(ctx context.Context, project types.Project) (types.Project, error)
	Delete(ctx context.Context, id string) error
}

// ProjectInput carries writable project fields. Nil fields are left
// untouched on update. Any owner sent by the client is ignored.
type ProjectInput struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Members     []string `json:"members"`
}

type projectFields struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Members     []string `json:"members" validate:"dive,uuid"`
}

// ProjectService encapsulates project use-cases.
type ProjectService struct {
	repo        ProjectRepository
	attachments *AttachmentService
	log         logging.Logger
}

func NewProjectService(repo ProjectRepository, attachments *AttachmentService, log logging.Logger) *ProjectService {
	if log == nil {
		log = logging.Discard()
	}
	return &ProjectService{repo: repo, attachments: attachments, log: log}
}

func (s *ProjectService) List(ctx context.Context) ([]types.Project, error) {
	return s.repo.List(ctx)
}

func (s *ProjectService) Get(ctx context.Context, id string) (types.Project, error) {
	if !validID(id) {
		return types.Project{}, notFoundError(msgProjectNotFound)
	}
	project, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Project{}, fromStore(err, msgProjectNotFound)
	}
	return project, nil
}

// Create stores a new project owned by the caller.
func (s *ProjectService) Create(ctx context.Context, owner types.Identity, in ProjectInput) (types.Project, error) {
	project := types.Project{
		Owner:   types.UserRef{ID: owner.UserID},
		Members: in.Members,
	}
	applyProjectInput(&project, in)
	if err := validateProject(project); err != nil {
		return types.Project{}, err
	}

	created, err := s.repo.Create(ctx, project)
	if err != nil {
		return types.Project{}, fromStore(err, msgProjectNotFound)
	}
	s.log.Info(ctx, "project created", "project_id", created.ID, "owner_id", owner.UserID)
	return created, nil
}

// Update applies in to an existing project. The owner never changes.
func (s *ProjectService) Update(ctx context.Context, id string, in ProjectInput) (types.Project, error) {
	project, err := s.Get(ctx, id)
	if err != nil {
		return types.Project{}, err
	}

	applyProjectInput(&project, in)
	if in.Members != nil {
		project.Members = in.Members
	}
	if err := validateProject(project); err != nil {
		return types.Project{}, err
	}

	updated, err := s.repo.Update(ctx, project)
	if err != nil {
		return types.Project{}, fromStore(err, msgProjectNotFound)
	}
	return updated, nil
}

// Delete removes the project with its tickets and attachments. Stored
// attachment objects are removed best-effort afterwards.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return notFoundError(msgProjectNotFound)
	}
	attachments := s.attachments.projectAttachments(ctx, id)
	if err := s.repo.Delete(ctx, id); err != nil {
		return fromStore(err, msgProjectNotFound)
	}
	s.attachments.removeObjects(ctx, attachments)
	s.log.Info(ctx, "project deleted", "project_id", id, "attachments", len(attachments))
	return nil
}

func applyProjectInput(project *types.Project, in ProjectInput) {
	if in.Name != nil {
		project.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		project.Description = strings.TrimSpace(*in.Description)
	}
}

func validateProject(project types.Project) error {
	return validateStruct(projectFields{
		Name:        project.Name,
		Description: project.Description,
		Members:     project.Members,
	})
}
