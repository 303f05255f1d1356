package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harjot20022001/bug-tracker/types"
)

// TicketRepository handles persistence for tickets.
type TicketRepository struct {
	db *sql.DB
}

func NewTicketRepository(db *sql.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

const ticketSelect = `
		SELECT t.id, t.title, t.description, t.status, t.priority, t.project_id,
			t.submitter_id, COALESCE(s.name, ''), COALESCE(s.email, ''),
			t.assigned_to, a.name, a.email,
			t.created_at
		FROM tickets t
		LEFT JOIN users s ON s.id = t.submitter_id
		LEFT JOIN users a ON a.id = t.assigned_to`

const ticketSelectWithProject = `
		SELECT t.id, t.title, t.description, t.status, t.priority, t.project_id,
			t.submitter_id, COALESCE(s.name, ''), COALESCE(s.email, ''),
			t.assigned_to, a.name, a.email,
			t.created_at,
			p.name, p.description
		FROM tickets t
		JOIN projects p ON p.id = t.project_id
		LEFT JOIN users s ON s.id = t.submitter_id
		LEFT JOIN users a ON a.id = t.assigned_to`

func ticketDest(ticket *types.Ticket, assigneeID, assigneeName, assigneeEmail *sql.NullString) []any {
	return []any{
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.ProjectID,
		&ticket.Submitter.ID,
		&ticket.Submitter.Name,
		&ticket.Submitter.Email,
		assigneeID,
		assigneeName,
		assigneeEmail,
		&ticket.CreatedAt,
	}
}

func resolveAssignee(ticket *types.Ticket, id, name, email sql.NullString) {
	if !id.Valid {
		ticket.AssignedTo = nil
		return
	}
	ticket.AssignedTo = &types.UserRef{ID: id.String, Name: name.String, Email: email.String}
}

func scanTicket(row interface{ Scan(...any) error }) (types.Ticket, error) {
	var ticket types.Ticket
	var assigneeID, assigneeName, assigneeEmail sql.NullString
	if err := row.Scan(ticketDest(&ticket, &assigneeID, &assigneeName, &assigneeEmail)...); err != nil {
		return types.Ticket{}, err
	}
	resolveAssignee(&ticket, assigneeID, assigneeName, assigneeEmail)
	return ticket, nil
}

// escapeLike quotes the LIKE metacharacters so s matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// buildTicketListQuery composes the listing query for a project. The search
// group and the unassigned group are conjoined when both are active.
func buildTicketListQuery(projectID string, filter types.TicketFilter) (string, []any) {
	args := []any{projectID}
	placeholder := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	conds := []string{"t.project_id = $1"}
	if filter.Status != "" {
		conds = append(conds, "t.status = "+placeholder(string(filter.Status)))
	}
	if filter.Priority != "" {
		conds = append(conds, "t.priority = "+placeholder(string(filter.Priority)))
	}

	var groups [][]string
	if filter.Search != "" {
		p := placeholder("%" + escapeLike(filter.Search) + "%")
		groups = append(groups, []string{"t.title ILIKE " + p, "t.description ILIKE " + p})
	}
	switch filter.AssignedTo {
	case "", types.FilterAll:
	case types.FilterUnassigned:
		groups = append(groups, []string{"t.assigned_to IS NULL"})
	default:
		conds = append(conds, "t.assigned_to = "+placeholder(filter.AssignedTo))
	}
	for _, group := range groups {
		conds = append(conds, "("+strings.Join(group, " OR ")+")")
	}

	query := ticketSelect + "\n\t\tWHERE " + strings.Join(conds, " AND ") + "\n\t\tORDER BY t.created_at DESC"
	return query, args
}

// List returns the tickets of a project matching filter, newest first.
func (r *TicketRepository) List(ctx context.Context, projectID string, filter types.TicketFilter) ([]types.Ticket, error) {
	query, args := buildTicketListQuery(projectID, filter)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]types.Ticket, 0)
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tickets, nil
}

// Get loads a ticket with its project, submitter and assignee resolved.
func (r *TicketRepository) Get(ctx context.Context, id string) (types.Ticket, error) {
	const query = ticketSelectWithProject + `
		WHERE t.id = $1`

	var ticket types.Ticket
	var assigneeID, assigneeName, assigneeEmail sql.NullString
	project := types.ProjectRef{}
	dest := append(
		ticketDest(&ticket, &assigneeID, &assigneeName, &assigneeEmail),
		&project.Name,
		&project.Description,
	)
	if err := r.db.QueryRowContext(ctx, query, id).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Ticket{}, ErrNotFound
		}
		return types.Ticket{}, err
	}
	resolveAssignee(&ticket, assigneeID, assigneeName, assigneeEmail)
	project.ID = ticket.ProjectID
	ticket.Project = &project
	return ticket, nil
}

// Create inserts ticket and reloads it with references resolved.
func (r *TicketRepository) Create(ctx context.Context, ticket types.Ticket) (types.Ticket, error) {
	ticket.ID = uuid.NewString()
	ticket.CreatedAt = time.Now().UTC()

	const query = `
		INSERT INTO tickets (id, title, description, status, priority, project_id, submitter_id, assigned_to, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		ticket.ID,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.ProjectID,
		ticket.Submitter.ID,
		nullable(ticket.AssigneeID()),
		ticket.CreatedAt,
	); err != nil {
		return types.Ticket{}, mapError(err)
	}
	return r.Get(ctx, ticket.ID)
}

// Update writes the mutable fields and reloads the ticket. The project and
// submitter are never changed.
func (r *TicketRepository) Update(ctx context.Context, ticket types.Ticket) (types.Ticket, error) {
	const query = `
		UPDATE tickets
		SET title = $1,
			description = $2,
			status = $3,
			priority = $4,
			assigned_to = $5
		WHERE id = $6`
	result, err := r.db.ExecContext(
		ctx,
		query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		nullable(ticket.AssigneeID()),
		ticket.ID,
	)
	if err != nil {
		return types.Ticket{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Ticket{}, err
	}
	if affected == 0 {
		return types.Ticket{}, ErrNotFound
	}
	return r.Get(ctx, ticket.ID)
}

func (r *TicketRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tickets WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
