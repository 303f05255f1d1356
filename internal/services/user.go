package services

import (
	"context"
	"errors"
	"strings"

	"github.com/harjot20022001/bug-tracker/internal/logging"
	"github.com/harjot20022001/bug-tracker/internal/store"
	"github.com/harjot20022001/bug-tracker/types"
)

const msgUserNotFound = "User not found"

// UserPatch carries the fields an admin may change on an account. Nil
// fields are left untouched.
type UserPatch struct {
	Name  *string     `json:"name"`
	Email *string     `json:"email"`
	Role  *types.Role `json:"role"`
}

type userFields struct {
	Name  string     `json:"name" validate:"required"`
	Email string     `json:"email" validate:"required,email"`
	Role  types.Role `json:"role" validate:"required,oneof=admin employee"`
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo UserRepository
	log  logging.Logger
}

func NewUserService(repo UserRepository, log logging.Logger) *UserService {
	if log == nil {
		log = logging.Discard()
	}
	return &UserService{repo: repo, log: log}
}

// List returns every user's public profile in creation order.
func (s *UserService) List(ctx context.Context) ([]types.PublicUser, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	public := make([]types.PublicUser, 0, len(users))
	for _, user := range users {
		public = append(public, user.Public())
	}
	return public, nil
}

func (s *UserService) Get(ctx context.Context, id string) (types.PublicUser, error) {
	if !validID(id) {
		return types.PublicUser{}, notFoundError(msgUserNotFound)
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.PublicUser{}, fromStore(err, msgUserNotFound)
	}
	return user.Public(), nil
}

// Update applies patch to the user and re-validates the result.
func (s *UserService) Update(ctx context.Context, id string, patch UserPatch) (types.PublicUser, error) {
	if !validID(id) {
		return types.PublicUser{}, notFoundError(msgUserNotFound)
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.PublicUser{}, fromStore(err, msgUserNotFound)
	}

	if patch.Name != nil {
		user.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil {
		user.Email = normalizeEmail(*patch.Email)
	}
	if patch.Role != nil {
		user.Role = *patch.Role
	}
	if err := validateStruct(userFields{Name: user.Name, Email: user.Email, Role: user.Role}); err != nil {
		return types.PublicUser{}, err
	}

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return types.PublicUser{}, validationError("Email already in use")
		}
		return types.PublicUser{}, fromStore(err, msgUserNotFound)
	}
	return updated.Public(), nil
}

// Delete removes the account. An admin may not delete themselves.
func (s *UserService) Delete(ctx context.Context, actor types.Identity, id string) error {
	if err := ForbidSelfDeletion(actor, id); err != nil {
		return err
	}
	if !validID(id) {
		return notFoundError(msgUserNotFound)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fromStore(err, msgUserNotFound)
	}
	s.log.Info(ctx, "user deleted", "user_id", id, "actor_id", actor.UserID)
	return nil
}
