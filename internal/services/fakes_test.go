package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harjot20022001/bug-tracker/internal/storage"
	"github.com/harjot20022001/bug-tracker/internal/store"
	"github.com/harjot20022001/bug-tracker/types"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]types.User
	seq   int
}

func newFakeUsers(users ...types.User) *fakeUsers {
	f := &fakeUsers{users: map[string]types.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUsers) List(_ context.Context) ([]types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeUsers) Create(_ context.Context, user types.User) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return types.User{}, store.ErrDuplicate
		}
	}
	f.seq++
	user.ID = uuid.NewString()
	user.CreatedAt = time.Unix(int64(f.seq), 0)
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUsers) Update(_ context.Context, user types.User) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	for _, u := range f.users {
		if u.ID != user.ID && u.Email == user.Email {
			return types.User{}, store.ErrDuplicate
		}
	}
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUsers) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

type fakeProjects struct {
	mu       sync.Mutex
	projects map[string]types.Project
	users    *fakeUsers
}

func newFakeProjects(users *fakeUsers) *fakeProjects {
	return &fakeProjects{projects: map[string]types.Project{}, users: users}
}

func (f *fakeProjects) resolve(p types.Project) types.Project {
	if u, err := f.users.GetByID(context.Background(), p.Owner.ID); err == nil {
		p.Owner = u.Ref()
	}
	return p
}

func (f *fakeProjects) List(_ context.Context) ([]types.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.Project, 0, len(f.projects))
	for _, p := range f.projects {
		out = append(out, f.resolve(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeProjects) Get(_ context.Context, id string) (types.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok {
		return types.Project{}, store.ErrNotFound
	}
	return f.resolve(p), nil
}

func (f *fakeProjects) Create(ctx context.Context, p types.Project) (types.Project, error) {
	f.mu.Lock()
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now()
	if p.Members == nil {
		p.Members = []string{}
	}
	f.projects[p.ID] = p
	f.mu.Unlock()
	return f.Get(ctx, p.ID)
}

func (f *fakeProjects) Update(ctx context.Context, p types.Project) (types.Project, error) {
	f.mu.Lock()
	existing, ok := f.projects[p.ID]
	if !ok {
		f.mu.Unlock()
		return types.Project{}, store.ErrNotFound
	}
	existing.Name, existing.Description, existing.Members = p.Name, p.Description, p.Members
	f.projects[p.ID] = existing
	f.mu.Unlock()
	return f.Get(ctx, p.ID)
}

func (f *fakeProjects) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.projects[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.projects, id)
	return nil
}

type fakeTickets struct {
	mu         sync.Mutex
	tickets    map[string]types.Ticket
	users      *fakeUsers
	lastFilter types.TicketFilter
}

func newFakeTickets(users *fakeUsers) *fakeTickets {
	return &fakeTickets{tickets: map[string]types.Ticket{}, users: users}
}

func (f *fakeTickets) resolve(t types.Ticket) types.Ticket {
	if u, err := f.users.GetByID(context.Background(), t.Submitter.ID); err == nil {
		t.Submitter = u.Ref()
	}
	if t.AssignedTo != nil {
		ref := types.UserRef{ID: t.AssignedTo.ID}
		if u, err := f.users.GetByID(context.Background(), ref.ID); err == nil {
			ref = u.Ref()
		}
		t.AssignedTo = &ref
	}
	return t
}

func (f *fakeTickets) List(_ context.Context, projectID string, filter types.TicketFilter) ([]types.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = filter
	out := make([]types.Ticket, 0)
	for _, t := range f.tickets {
		if t.ProjectID != projectID {
			continue
		}
		if filter.Search != "" {
			q := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(t.Title), q) && !strings.Contains(strings.ToLower(t.Description), q) {
				continue
			}
		}
		if filter.AssignedTo == types.FilterUnassigned && t.AssignedTo != nil {
			continue
		}
		out = append(out, f.resolve(t))
	}
	return out, nil
}

func (f *fakeTickets) Get(_ context.Context, id string) (types.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[id]
	if !ok {
		return types.Ticket{}, store.ErrNotFound
	}
	return f.resolve(t), nil
}

func (f *fakeTickets) put(t types.Ticket) (types.Ticket, error) {
	if t.AssignedTo != nil {
		if _, err := f.users.GetByID(context.Background(), t.AssignedTo.ID); err != nil {
			return types.Ticket{}, store.ErrInvalidReference
		}
	}
	f.mu.Lock()
	f.tickets[t.ID] = t
	f.mu.Unlock()
	return f.Get(context.Background(), t.ID)
}

func (f *fakeTickets) Create(_ context.Context, t types.Ticket) (types.Ticket, error) {
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now()
	return f.put(t)
}

func (f *fakeTickets) Update(_ context.Context, t types.Ticket) (types.Ticket, error) {
	f.mu.Lock()
	_, ok := f.tickets[t.ID]
	f.mu.Unlock()
	if !ok {
		return types.Ticket{}, store.ErrNotFound
	}
	return f.put(t)
}

func (f *fakeTickets) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tickets[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.tickets, id)
	return nil
}

type fakeAttachments struct {
	mu    sync.Mutex
	rows  map[string]types.Attachment
	byTkt map[string]string
}

func newFakeAttachments() *fakeAttachments {
	return &fakeAttachments{rows: map[string]types.Attachment{}, byTkt: map[string]string{}}
}

func (f *fakeAttachments) ListByTicket(_ context.Context, ticketID string) ([]types.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.Attachment, 0)
	for _, a := range f.rows {
		if a.TicketID == ticketID {
			out = append(out, a)
		}
	}
	return out, nil
}

// ListByProject maps tickets to projects through byTkt.
func (f *fakeAttachments) ListByProject(_ context.Context, projectID string) ([]types.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.Attachment, 0)
	for _, a := range f.rows {
		if f.byTkt[a.TicketID] == projectID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAttachments) Get(_ context.Context, id string) (types.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.rows[id]
	if !ok {
		return types.Attachment{}, store.ErrNotFound
	}
	return a, nil
}

func (f *fakeAttachments) Create(_ context.Context, a types.Attachment) (types.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.CreatedAt = time.Now()
	f.rows[a.ID] = a
	return a, nil
}

func (f *fakeAttachments) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	failDel bool
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}}
}

func (f *fakeObjects) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeObjects) Get(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeObjects) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDel {
		return errors.New("object store down")
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeObjects) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

type assignedCall struct {
	Ticket   types.Ticket
	Assignee types.UserRef
	Actor    types.UserRef
}

type updatedCall struct {
	Ticket  types.Ticket
	Actor   types.UserRef
	Changes types.TicketChanges
}

type recordingNotifier struct {
	mu       sync.Mutex
	assigned []assignedCall
	updated  []updatedCall
}

func (n *recordingNotifier) TicketAssigned(_ context.Context, ticket types.Ticket, assignee, actor types.UserRef) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.assigned = append(n.assigned, assignedCall{Ticket: ticket, Assignee: assignee, Actor: actor})
}

func (n *recordingNotifier) TicketUpdated(_ context.Context, ticket types.Ticket, actor types.UserRef, changes types.TicketChanges) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updated = append(n.updated, updatedCall{Ticket: ticket, Actor: actor, Changes: changes})
}

func (n *recordingNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.assigned = nil
	n.updated = nil
}

func testUser(name string, role types.Role) types.User {
	return types.User{
		ID:    uuid.NewString(),
		Name:  name,
		Email: strings.ToLower(name) + "@example.com",
		Role:  role,
	}
}
