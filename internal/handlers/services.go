package handlers

import (
	"context"
	"io"

	"github.com/harjot20022001/bug-tracker/internal/services"
	"github.com/harjot20022001/bug-tracker/types"
)

// The interfaces below are satisfied by the services package.

type SessionResolver interface {
	ResolveSession(token string) (types.Identity, error)
}

type AuthService interface {
	SessionResolver
	Register(ctx context.Context, in services.RegisterInput) (services.AuthResult, error)
	Login(ctx context.Context, email, password string) (services.AuthResult, error)
	Me(ctx context.Context, identity types.Identity) (types.PublicUser, error)
}

type UserService interface {
	List(ctx context.Context) ([]types.PublicUser, error)
	Get(ctx context.Context, id string) (types.PublicUser, error)
	Update(ctx context.Context, id string, patch services.UserPatch) (types.PublicUser, error)
	Delete(ctx context.Context, actor types.Identity, id string) error
}

type ProjectService interface {
	List(ctx context.Context) ([]types.Project, error)
	Get(ctx context.Context, id string) (types.Project, error)
	Create(ctx context.Context, owner types.Identity, in services.ProjectInput) (types.Project, error)
	Update(ctx context.Context, id string, in services.ProjectInput) (types.Project, error)
	Delete(ctx context.Context, id string) error
}

type TicketService interface {
	List(ctx context.Context, projectID string, in services.TicketFilterInput) ([]types.Ticket, error)
	Get(ctx context.Context, id string) (types.Ticket, error)
	Create(ctx context.Context, actor types.Identity, projectID string, in services.TicketInput) (types.Ticket, error)
	Update(ctx context.Context, actor types.Identity, id string, patch services.TicketPatch) (types.Ticket, types.TicketChanges, error)
	Delete(ctx context.Context, actor types.Identity, id string) error
}

type AttachmentService interface {
	List(ctx context.Context, ticketID string) ([]types.Attachment, error)
	Upload(ctx context.Context, actor types.Identity, ticketID string, upload services.Upload) (types.Attachment, error)
	Open(ctx context.Context, id string) (types.Attachment, io.ReadCloser, error)
	Delete(ctx context.Context, actor types.Identity, id string) error
	MaxBytes() int64
}

var (
	_ AuthService       = (*services.AuthService)(nil)
	_ UserService       = (*services.UserService)(nil)
	_ ProjectService    = (*services.ProjectService)(nil)
	_ TicketService     = (*services.TicketService)(nil)
	_ AttachmentService = (*services.AttachmentService)(nil)
)
