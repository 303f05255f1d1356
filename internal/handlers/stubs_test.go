package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/harjot20022001/bug-tracker/internal/services"
	"github.com/harjot20022001/bug-tracker/types"
)

const (
	adminToken    = "admin-token"
	employeeToken = "employee-token"
)

var (
	adminIdentity    = types.Identity{UserID: "11111111-1111-1111-1111-111111111111", Role: types.RoleAdmin}
	employeeIdentity = types.Identity{UserID: "22222222-2222-2222-2222-222222222222", Role: types.RoleEmployee}
)

type stubAuth struct {
	registerResult services.AuthResult
	loginErr       error
	registered     services.RegisterInput
}

func (s *stubAuth) ResolveSession(token string) (types.Identity, error) {
	switch token {
	case adminToken:
		return adminIdentity, nil
	case employeeToken:
		return employeeIdentity, nil
	}
	return types.Identity{}, &services.Error{Kind: services.KindAuth, Message: "Not authorized to access this route"}
}

func (s *stubAuth) Register(ctx context.Context, in services.RegisterInput) (services.AuthResult, error) {
	s.registered = in
	return s.registerResult, nil
}

func (s *stubAuth) Login(ctx context.Context, email, password string) (services.AuthResult, error) {
	if s.loginErr != nil {
		return services.AuthResult{}, s.loginErr
	}
	return services.AuthResult{Token: "t", User: types.PublicUser{Email: email}}, nil
}

func (s *stubAuth) Me(ctx context.Context, identity types.Identity) (types.PublicUser, error) {
	return types.PublicUser{ID: identity.UserID, Role: identity.Role}, nil
}

type stubUsers struct {
	deletedBy types.Identity
	deleteErr error
}

func (s *stubUsers) List(ctx context.Context) ([]types.PublicUser, error) {
	return []types.PublicUser{{ID: "a"}, {ID: "b"}}, nil
}

func (s *stubUsers) Get(ctx context.Context, id string) (types.PublicUser, error) {
	return types.PublicUser{ID: id}, nil
}

func (s *stubUsers) Update(ctx context.Context, id string, patch services.UserPatch) (types.PublicUser, error) {
	user := types.PublicUser{ID: id}
	if patch.Name != nil {
		user.Name = *patch.Name
	}
	return user, nil
}

func (s *stubUsers) Delete(ctx context.Context, actor types.Identity, id string) error {
	s.deletedBy = actor
	return s.deleteErr
}

type stubProjects struct {
	created types.Identity
	err     error
}

func (s *stubProjects) List(ctx context.Context) ([]types.Project, error) {
	return []types.Project{}, s.err
}

func (s *stubProjects) Get(ctx context.Context, id string) (types.Project, error) {
	return types.Project{ID: id}, s.err
}

func (s *stubProjects) Create(ctx context.Context, owner types.Identity, in services.ProjectInput) (types.Project, error) {
	s.created = owner
	return types.Project{ID: "p1", Name: *in.Name, Owner: types.UserRef{ID: owner.UserID}}, s.err
}

func (s *stubProjects) Update(ctx context.Context, id string, in services.ProjectInput) (types.Project, error) {
	return types.Project{ID: id}, s.err
}

func (s *stubProjects) Delete(ctx context.Context, id string) error {
	return s.err
}

type stubTickets struct {
	projectID string
	filter    services.TicketFilterInput
	patch     services.TicketPatch
	changes   types.TicketChanges
	err       error
}

func (s *stubTickets) List(ctx context.Context, projectID string, in services.TicketFilterInput) ([]types.Ticket, error) {
	s.projectID = projectID
	s.filter = in
	return []types.Ticket{{ID: "t1"}, {ID: "t2"}}, s.err
}

func (s *stubTickets) Get(ctx context.Context, id string) (types.Ticket, error) {
	return types.Ticket{ID: id}, s.err
}

func (s *stubTickets) Create(ctx context.Context, actor types.Identity, projectID string, in services.TicketInput) (types.Ticket, error) {
	s.projectID = projectID
	return types.Ticket{ID: "t1", Title: in.Title, ProjectID: projectID, Submitter: types.UserRef{ID: actor.UserID}}, s.err
}

func (s *stubTickets) Update(ctx context.Context, actor types.Identity, id string, patch services.TicketPatch) (types.Ticket, types.TicketChanges, error) {
	s.patch = patch
	return types.Ticket{ID: id}, s.changes, s.err
}

func (s *stubTickets) Delete(ctx context.Context, actor types.Identity, id string) error {
	return s.err
}

type stubAttachments struct {
	uploaded services.Upload
	content  []byte
	maxBytes int64
}

func (s *stubAttachments) List(ctx context.Context, ticketID string) ([]types.Attachment, error) {
	return []types.Attachment{{ID: "a1", TicketID: ticketID}}, nil
}

func (s *stubAttachments) Upload(ctx context.Context, actor types.Identity, ticketID string, upload services.Upload) (types.Attachment, error) {
	content, err := io.ReadAll(upload.Body)
	if err != nil {
		return types.Attachment{}, err
	}
	s.uploaded = upload
	s.content = content
	return types.Attachment{ID: "a1", TicketID: ticketID, Filename: upload.Filename, Size: upload.Size, UploaderID: actor.UserID}, nil
}

func (s *stubAttachments) Open(ctx context.Context, id string) (types.Attachment, io.ReadCloser, error) {
	return types.Attachment{ID: id, Filename: "trace.log", ContentType: "text/plain", Size: 5}, io.NopCloser(strings.NewReader("hello")), nil
}

func (s *stubAttachments) Delete(ctx context.Context, actor types.Identity, id string) error {
	return nil
}

func (s *stubAttachments) MaxBytes() int64 {
	if s.maxBytes == 0 {
		return 1 << 20
	}
	return s.maxBytes
}

type apiStubs struct {
	auth        *stubAuth
	users       *stubUsers
	projects    *stubProjects
	tickets     *stubTickets
	attachments *stubAttachments
}

func newAPI(t *testing.T) (http.Handler, *apiStubs) {
	t.Helper()
	stubs := &apiStubs{
		auth:        &stubAuth{},
		users:       &stubUsers{},
		projects:    &stubProjects{},
		tickets:     &stubTickets{},
		attachments: &stubAttachments{},
	}

	r := chi.NewRouter()
	r.Get("/health", Health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) { AuthRouter(r, stubs.auth, stubs.users, nil) })
		r.Route("/users", func(r chi.Router) { UserRouter(r, stubs.users, stubs.auth, nil) })
		r.Route("/projects", func(r chi.Router) {
			ProjectRouter(r, stubs.projects, stubs.tickets, stubs.auth, nil)
		})
		r.Route("/tickets", func(r chi.Router) {
			TicketRouter(r, stubs.tickets, stubs.attachments, stubs.auth, nil)
		})
		r.Route("/attachments", func(r chi.Router) { AttachmentRouter(r, stubs.attachments, stubs.auth, nil) })
	})
	return r, stubs
}

func do(t *testing.T, h http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
