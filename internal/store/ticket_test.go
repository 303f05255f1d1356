package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/harjot20022001/bug-tracker/types"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ticketCols = []string{
	"id", "title", "description", "status", "priority", "project_id",
	"submitter_id", "submitter_name", "submitter_email",
	"assigned_to", "assignee_name", "assignee_email",
	"created_at",
}

func TestBuildTicketListQuery_NoFilter(t *testing.T) {
	query, args := buildTicketListQuery("p1", types.TicketFilter{})
	assert.Contains(t, query, "WHERE t.project_id = $1\n")
	assert.Contains(t, query, "ORDER BY t.created_at DESC")
	assert.NotContains(t, query, "ILIKE")
	assert.NotContains(t, query, "IS NULL")
	assert.Equal(t, []any{"p1"}, args)
}

func TestBuildTicketListQuery_AllIsNoConstraint(t *testing.T) {
	query, args := buildTicketListQuery("p1", types.TicketFilter{AssignedTo: types.FilterAll})
	assert.Contains(t, query, "WHERE t.project_id = $1\n\t\tORDER BY t.created_at DESC")
	assert.NotContains(t, query, "t.assigned_to IS NULL")
	assert.NotContains(t, query, "t.assigned_to = $")
	assert.Equal(t, []any{"p1"}, args)
}

func TestBuildTicketListQuery_SearchKeepsWhitespace(t *testing.T) {
	_, args := buildTicketListQuery("p1", types.TicketFilter{Search: " login"})
	assert.Equal(t, []any{"p1", "% login%"}, args)
}

func TestBuildTicketListQuery_Unassigned(t *testing.T) {
	query, args := buildTicketListQuery("p1", types.TicketFilter{AssignedTo: types.FilterUnassigned})
	assert.Contains(t, query, "(t.assigned_to IS NULL)")
	assert.Len(t, args, 1)
}

func TestBuildTicketListQuery_SearchAndUnassignedIntersect(t *testing.T) {
	query, args := buildTicketListQuery("p1", types.TicketFilter{
		Search:     "login",
		AssignedTo: types.FilterUnassigned,
	})
	assert.Contains(t, query,
		"t.project_id = $1 AND (t.title ILIKE $2 OR t.description ILIKE $2) AND (t.assigned_to IS NULL)")
	assert.Equal(t, []any{"p1", "%login%"}, args)
}

func TestBuildTicketListQuery_AllFilters(t *testing.T) {
	query, args := buildTicketListQuery("p1", types.TicketFilter{
		Search:     "crash",
		Status:     types.StatusOpen,
		Priority:   types.PriorityHigh,
		AssignedTo: "u7",
	})
	assert.Contains(t, query,
		"t.project_id = $1 AND t.status = $2 AND t.priority = $3 AND t.assigned_to = $5 AND (t.title ILIKE $4 OR t.description ILIKE $4)")
	assert.Equal(t, []any{"p1", "Open", "High", "%crash%", "u7"}, args)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `snake\_case`, escapeLike("snake_case"))
	assert.Equal(t, `C:\\dir`, escapeLike(`C:\dir`))
	assert.Equal(t, "plain", escapeLike("plain"))
}

func TestTicketRepository_ListResolvesReferences(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`(?s)FROM tickets t.*WHERE t.project_id = \$1 AND \(t.assigned_to IS NULL\)\s+ORDER BY t.created_at DESC`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(ticketCols).
			AddRow("t2", "Crash", "boom", "Open", "High", "p1", "u1", "Jane", "jane@example.com", nil, nil, nil, fixedTime).
			AddRow("t1", "Typo", "docs", "Closed", "Low", "p1", "u9", "", "", nil, nil, nil, fixedTime))

	tickets, err := NewTicketRepository(db).List(context.Background(), "p1", types.TicketFilter{AssignedTo: types.FilterUnassigned})
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Nil(t, tickets[0].AssignedTo)
	assert.Equal(t, types.PriorityHigh, tickets[0].Priority)
	assert.Equal(t, types.UserRef{ID: "u9"}, tickets[1].Submitter)
}

func TestTicketRepository_GetWithProject(t *testing.T) {
	db, mock := newMock(t)
	cols := append(append([]string{}, ticketCols...), "project_name", "project_description")
	mock.ExpectQuery(`(?s)JOIN projects p ON p.id = t.project_id.*WHERE t.id = \$1`).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("t1", "Crash", "boom", "In Progress", "Medium", "p1", "u1", "Jane", "jane@example.com",
				"u2", "Joe", "joe@example.com", fixedTime, "Alpha", "first"))

	ticket, err := NewTicketRepository(db).Get(context.Background(), "t1")
	require.NoError(t, err)
	require.NotNil(t, ticket.AssignedTo)
	assert.Equal(t, types.UserRef{ID: "u2", Name: "Joe", Email: "joe@example.com"}, *ticket.AssignedTo)
	assert.Equal(t, &types.ProjectRef{ID: "p1", Name: "Alpha", Description: "first"}, ticket.Project)
	assert.Equal(t, types.StatusInProgress, ticket.Status)
}

func TestTicketRepository_GetNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`WHERE t.id = \$1`).WillReturnError(sql.ErrNoRows)

	_, err := NewTicketRepository(db).Get(context.Background(), "t1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTicketRepository_UpdateWritesNullAssignee(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`UPDATE tickets`).
		WithArgs("Crash", "boom", "Closed", "Low", nil, "t1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	cols := append(append([]string{}, ticketCols...), "project_name", "project_description")
	mock.ExpectQuery(`WHERE t.id = \$1`).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("t1", "Crash", "boom", "Closed", "Low", "p1", "u1", "Jane", "jane@example.com",
				nil, nil, nil, fixedTime, "Alpha", "first"))

	ticket, err := NewTicketRepository(db).Update(context.Background(), types.Ticket{
		ID: "t1", Title: "Crash", Description: "boom", Status: types.StatusClosed, Priority: types.PriorityLow,
	})
	require.NoError(t, err)
	assert.Nil(t, ticket.AssignedTo)
}

func TestTicketRepository_CreateUnknownAssignee(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`INSERT INTO tickets`).
		WithArgs(sqlmock.AnyArg(), "Crash", "boom", "Open", "Medium", "p1", "u1", "ghost", sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "tickets_assigned_to_fkey"})

	_, err := NewTicketRepository(db).Create(context.Background(), types.Ticket{
		Title: "Crash", Description: "boom", Status: types.StatusOpen, Priority: types.PriorityMedium,
		ProjectID: "p1", Submitter: types.UserRef{ID: "u1"}, AssignedTo: &types.UserRef{ID: "ghost"},
	})
	assert.ErrorIs(t, err, ErrInvalidReference)
}
