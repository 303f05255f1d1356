package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/harjot20022001/bug-tracker/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestProjectService_CreateRoundTrip(t *testing.T) {
	admin := testUser("Admin", types.RoleAdmin)
	users := newFakeUsers(admin)
	svc := NewProjectService(newFakeProjects(users), nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, types.Identity{UserID: admin.ID, Role: types.RoleAdmin}, ProjectInput{
		Name:        strPtr("  Website "),
		Description: strPtr("Public site"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Website", created.Name)
	assert.Equal(t, admin.Ref(), created.Owner)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, got.Name)
	assert.Equal(t, created.Description, got.Description)
	assert.Equal(t, admin.ID, got.Owner.ID)
}

func TestProjectService_CreateValidation(t *testing.T) {
	svc := NewProjectService(newFakeProjects(newFakeUsers()), nil, nil)
	owner := types.Identity{UserID: uuid.NewString(), Role: types.RoleAdmin}

	_, err := svc.Create(context.Background(), owner, ProjectInput{Name: strPtr("   "), Description: strPtr("x")})
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Contains(t, err.Error(), "name is required")

	_, err = svc.Create(context.Background(), owner, ProjectInput{Name: strPtr("x")})
	assert.Contains(t, err.Error(), "description is required")

	_, err = svc.Create(context.Background(), owner, ProjectInput{
		Name: strPtr("x"), Description: strPtr("y"), Members: []string{"bogus"},
	})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestProjectService_UpdateKeepsOwner(t *testing.T) {
	admin := testUser("Admin", types.RoleAdmin)
	svc := NewProjectService(newFakeProjects(newFakeUsers(admin)), nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, types.Identity{UserID: admin.ID, Role: types.RoleAdmin}, ProjectInput{
		Name: strPtr("Website"), Description: strPtr("Public site"),
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, ProjectInput{Description: strPtr("Marketing site")})
	require.NoError(t, err)
	assert.Equal(t, "Website", updated.Name)
	assert.Equal(t, "Marketing site", updated.Description)
	assert.Equal(t, admin.ID, updated.Owner.ID)

	_, err = svc.Update(ctx, created.ID, ProjectInput{Name: strPtr("")})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestProjectService_NotFound(t *testing.T) {
	svc := NewProjectService(newFakeProjects(newFakeUsers()), nil, nil)
	ctx := context.Background()

	_, err := svc.Get(ctx, "not-a-uuid")
	assert.Equal(t, KindNotFound, KindOf(err))
	_, err = svc.Get(ctx, uuid.NewString())
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, KindNotFound, KindOf(svc.Delete(ctx, uuid.NewString())))
	_, err = svc.Update(ctx, uuid.NewString(), ProjectInput{})
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestProjectService_DeleteRemovesAttachmentObjects(t *testing.T) {
	admin := testUser("Admin", types.RoleAdmin)
	users := newFakeUsers(admin)
	projects := newFakeProjects(users)
	tickets := newFakeTickets(users)
	rows := newFakeAttachments()
	objects := newFakeObjects()
	attachments := NewAttachmentService(rows, tickets, objects, 0, nil)
	svc := NewProjectService(projects, attachments, nil)
	ctx := context.Background()
	actor := types.Identity{UserID: admin.ID, Role: types.RoleAdmin}

	project, err := svc.Create(ctx, actor, ProjectInput{Name: strPtr("P"), Description: strPtr("D")})
	require.NoError(t, err)
	ticket, err := tickets.Create(ctx, types.Ticket{
		Title: "t", Description: "d", Status: types.StatusOpen, Priority: types.PriorityLow,
		ProjectID: project.ID, Submitter: admin.Ref(),
	})
	require.NoError(t, err)
	rows.byTkt[ticket.ID] = project.ID

	_, err = attachments.Upload(ctx, actor, ticket.ID, Upload{
		Filename: "trace.log", Size: 5, Body: strings.NewReader("hello"),
	})
	require.NoError(t, err)
	require.Equal(t, 1, objects.count())

	require.NoError(t, svc.Delete(ctx, project.ID))
	assert.Equal(t, 0, objects.count())
	_, err = svc.Get(ctx, project.ID)
	assert.Equal(t, KindNotFound, KindOf(err))
}
