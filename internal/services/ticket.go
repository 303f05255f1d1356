package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/harjot20022001/bug-tracker/internal/logging"
	"github.com/harjot20022001/bug-tracker/internal/store"
	"github.com/harjot20022001/bug-tracker/types"
)

const (
	msgTicketNotFound    = "Ticket not found"
	msgAssigneeNotFound  = "Assigned user does not exist"
	msgOnlyAdminsDeletes = "Only admin users can delete tickets"
)

// TicketRepository defines persistence operations for tickets.
type TicketRepository interface {
	List(ctx context.Context, projectID string, filter types.TicketFilter) ([]types.Ticket, error)
	Get(ctx context.Context, id string) (types.Ticket, error)
	Create(ctx context.Context, ticket types.Ticket) (types.Ticket, error)
	Update(ctx context.Context, ticket types.Ticket) (types.Ticket, error)
	Delete(ctx context.Context, id string) error
}

// Notifier receives ticket events that may warrant an email. Implementations
// must not block the caller and never report failures back.
type Notifier interface {
	TicketAssigned(ctx context.Context, ticket types.Ticket, assignee, actor types.UserRef)
	TicketUpdated(ctx context.Context, ticket types.Ticket, actor types.UserRef, changes types.TicketChanges)
}

// OptionalID distinguishes an absent JSON field from null or "".
type OptionalID struct {
	Set bool
	ID  string
}

func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.ID = ""
		return nil
	}
	return json.Unmarshal(data, &o.ID)
}

// TicketFilterInput is the raw listing filter as received from a client.
type TicketFilterInput struct {
	Search     string
	Status     string
	Priority   string
	AssignedTo string
}

// TicketInput carries the fields accepted when filing a ticket.
type TicketInput struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Status      types.TicketStatus   `json:"status"`
	Priority    types.TicketPriority `json:"priority"`
	AssignedTo  *string              `json:"assignedTo"`
}

// TicketPatch carries a partial ticket update. Nil fields are untouched.
type TicketPatch struct {
	Title       *string               `json:"title"`
	Description *string               `json:"description"`
	Status      *types.TicketStatus   `json:"status"`
	Priority    *types.TicketPriority `json:"priority"`
	AssignedTo  OptionalID            `json:"assignedTo"`
}

type ticketFields struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// TicketService implements ticket queries and the update workflow.
type TicketService struct {
	repo        TicketRepository
	projects    ProjectRepository
	users       UserRepository
	notifier    Notifier
	attachments *AttachmentService
	log         logging.Logger
}

func NewTicketService(
	repo TicketRepository,
	projects ProjectRepository,
	users UserRepository,
	notifier Notifier,
	attachments *AttachmentService,
	log logging.Logger,
) *TicketService {
	if log == nil {
		log = logging.Discard()
	}
	return &TicketService{
		repo:        repo,
		projects:    projects,
		users:       users,
		notifier:    notifier,
		attachments: attachments,
		log:         log,
	}
}

// ParseFilter validates a raw filter. "all" and empty values impose no
// constraint. A non-blank search term is kept as given.
func ParseFilter(in TicketFilterInput) (types.TicketFilter, error) {
	var filter types.TicketFilter
	if strings.TrimSpace(in.Search) != "" {
		filter.Search = in.Search
	}

	if status := strings.TrimSpace(in.Status); status != "" && status != types.FilterAll {
		filter.Status = types.TicketStatus(status)
		if !filter.Status.Valid() {
			return types.TicketFilter{}, validationError("Invalid status filter")
		}
	}
	if priority := strings.TrimSpace(in.Priority); priority != "" && priority != types.FilterAll {
		filter.Priority = types.TicketPriority(priority)
		if !filter.Priority.Valid() {
			return types.TicketFilter{}, validationError("Invalid priority filter")
		}
	}
	switch assigned := strings.TrimSpace(in.AssignedTo); assigned {
	case "", types.FilterAll:
	case types.FilterUnassigned:
		filter.AssignedTo = types.FilterUnassigned
	default:
		if !validID(assigned) {
			return types.TicketFilter{}, validationError("Invalid assignedTo filter")
		}
		filter.AssignedTo = assigned
	}
	return filter, nil
}

// List returns a project's tickets matching the filter, newest first. An
// unknown project yields an empty list.
func (s *TicketService) List(ctx context.Context, projectID string, in TicketFilterInput) ([]types.Ticket, error) {
	filter, err := ParseFilter(in)
	if err != nil {
		return nil, err
	}
	if !validID(projectID) {
		return []types.Ticket{}, nil
	}
	return s.repo.List(ctx, projectID, filter)
}

func (s *TicketService) Get(ctx context.Context, id string) (types.Ticket, error) {
	if !validID(id) {
		return types.Ticket{}, notFoundError(msgTicketNotFound)
	}
	ticket, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Ticket{}, fromStore(err, msgTicketNotFound)
	}
	return ticket, nil
}

// Create files a ticket in a project on behalf of actor and notifies the
// assignee when it is someone else.
func (s *TicketService) Create(ctx context.Context, actor types.Identity, projectID string, in TicketInput) (types.Ticket, error) {
	if !validID(projectID) {
		return types.Ticket{}, notFoundError(msgProjectNotFound)
	}
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return types.Ticket{}, fromStore(err, msgProjectNotFound)
	}

	ticket := types.Ticket{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Status:      in.Status,
		Priority:    in.Priority,
		ProjectID:   projectID,
		Submitter:   types.UserRef{ID: actor.UserID},
	}
	if ticket.Status == "" {
		ticket.Status = types.StatusOpen
	}
	if ticket.Priority == "" {
		ticket.Priority = types.PriorityMedium
	}
	if in.AssignedTo != nil {
		if err := assign(&ticket, *in.AssignedTo); err != nil {
			return types.Ticket{}, err
		}
	}
	if err := validateTicket(ticket); err != nil {
		return types.Ticket{}, err
	}

	created, err := s.repo.Create(ctx, ticket)
	if err != nil {
		return types.Ticket{}, ticketStoreError(err)
	}
	s.log.Info(ctx, "ticket created", "ticket_id", created.ID, "project_id", projectID, "actor_id", actor.UserID)

	if created.AssignedTo != nil && created.AssigneeID() != actor.UserID {
		s.notify().TicketAssigned(ctx, created, *created.AssignedTo, s.actorRef(ctx, actor))
	}
	return created, nil
}

// Update applies patch, persists it and returns the reloaded ticket together
// with the field-level changes. Notifications are dispatched from the
// changes and never fail the update.
func (s *TicketService) Update(ctx context.Context, actor types.Identity, id string, patch TicketPatch) (types.Ticket, types.TicketChanges, error) {
	before, err := s.Get(ctx, id)
	if err != nil {
		return types.Ticket{}, types.TicketChanges{}, err
	}

	next := before
	if patch.Title != nil {
		next.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		next.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Status != nil {
		next.Status = *patch.Status
	}
	if patch.Priority != nil {
		next.Priority = *patch.Priority
	}
	if patch.AssignedTo.Set {
		if err := assign(&next, patch.AssignedTo.ID); err != nil {
			return types.Ticket{}, types.TicketChanges{}, err
		}
	}
	if err := validateTicket(next); err != nil {
		return types.Ticket{}, types.TicketChanges{}, err
	}

	after, err := s.repo.Update(ctx, next)
	if err != nil {
		return types.Ticket{}, types.TicketChanges{}, ticketStoreError(err)
	}

	changes := computeChanges(before, after)
	s.dispatch(ctx, actor, before, after, changes)
	return after, changes, nil
}

func (s *TicketService) dispatch(ctx context.Context, actor types.Identity, before, after types.Ticket, changes types.TicketChanges) {
	assignmentChanged := before.AssigneeID() != after.AssigneeID()
	assignAlert := assignmentChanged && after.AssignedTo != nil && after.AssigneeID() != actor.UserID
	updateAlert := !changes.Empty() && (after.AssignedTo != nil || assignmentChanged)
	if !assignAlert && !updateAlert {
		return
	}

	actorRef := s.actorRef(ctx, actor)
	if assignAlert {
		s.notify().TicketAssigned(ctx, after, *after.AssignedTo, actorRef)
	}
	if updateAlert {
		s.notify().TicketUpdated(ctx, after, actorRef, changes)
	}
}

// Delete hard-deletes a ticket. Only admins may delete.
func (s *TicketService) Delete(ctx context.Context, actor types.Identity, id string) error {
	if err := RequireRole(actor, types.RoleAdmin); err != nil {
		if KindOf(err) == KindForbidden {
			return forbiddenError(msgOnlyAdminsDeletes)
		}
		return err
	}
	if !validID(id) {
		return notFoundError(msgTicketNotFound)
	}
	attachments := s.attachments.ticketAttachments(ctx, id)
	if err := s.repo.Delete(ctx, id); err != nil {
		return fromStore(err, msgTicketNotFound)
	}
	s.attachments.removeObjects(ctx, attachments)
	s.log.Info(ctx, "ticket deleted", "ticket_id", id, "actor_id", actor.UserID)
	return nil
}

func (s *TicketService) notify() Notifier {
	if s.notifier == nil {
		return noopNotifier{}
	}
	return s.notifier
}

// actorRef resolves the acting user for email content. Lookup failures fall
// back to the bare id.
func (s *TicketService) actorRef(ctx context.Context, actor types.Identity) types.UserRef {
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		s.log.Warn(ctx, "resolve actor", "user_id", actor.UserID, "error", err)
		return types.UserRef{ID: actor.UserID}
	}
	return user.Ref()
}

// assign sets the ticket's assignee. An empty id unassigns.
func assign(ticket *types.Ticket, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		ticket.AssignedTo = nil
		return nil
	}
	if !validID(id) {
		return validationError(msgAssigneeNotFound)
	}
	ticket.AssignedTo = &types.UserRef{ID: id}
	return nil
}

func validateTicket(ticket types.Ticket) error {
	if err := validateStruct(ticketFields{Title: ticket.Title, Description: ticket.Description}); err != nil {
		return err
	}
	if !ticket.Status.Valid() {
		return validationError("status must be one of [Open, In Progress, Closed]")
	}
	if !ticket.Priority.Valid() {
		return validationError("priority must be one of [Low, Medium, High]")
	}
	return nil
}

func ticketStoreError(err error) error {
	if errors.Is(err, store.ErrInvalidReference) {
		return &Error{Kind: KindValidation, Message: msgAssigneeNotFound, Err: err}
	}
	return fromStore(err, msgTicketNotFound)
}

type noopNotifier struct{}

func (noopNotifier) TicketAssigned(context.Context, types.Ticket, types.UserRef, types.UserRef) {}

func (noopNotifier) TicketUpdated(context.Context, types.Ticket, types.UserRef, types.TicketChanges) {
}
