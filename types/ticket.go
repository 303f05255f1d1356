package types

import "time"

type TicketStatus string

const (
	StatusOpen       TicketStatus = "Open"
	StatusInProgress TicketStatus = "In Progress"
	StatusClosed     TicketStatus = "Closed"
)

// Valid reports whether s is one of the known statuses.
func (s TicketStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusClosed:
		return true
	}
	return false
}

type TicketPriority string

const (
	PriorityLow    TicketPriority = "Low"
	PriorityMedium TicketPriority = "Medium"
	PriorityHigh   TicketPriority = "High"
)

// Valid reports whether p is one of the known priorities.
func (p TicketPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Ticket is an issue filed against a project.
type Ticket struct {
	// ID is the unique identifier of the ticket.
	ID string `json:"id" db:"id"`

	// Title is a short summary of the issue.
	Title string `json:"title" db:"title"`

	// Description is the full issue text.
	Description string `json:"description" db:"description"`

	// Status is the workflow state. Defaults to Open.
	Status TicketStatus `json:"status" db:"status"`

	// Priority defaults to Medium.
	Priority TicketPriority `json:"priority" db:"priority"`

	// ProjectID identifies the owning project. It never changes.
	ProjectID string `json:"projectId" db:"project_id"`

	// Project is populated when the ticket is loaded individually.
	Project *ProjectRef `json:"project,omitempty"`

	// Submitter is the user who filed the ticket.
	Submitter UserRef `json:"submitter" db:"submitter_id"`

	// AssignedTo is nil when the ticket is unassigned.
	AssignedTo *UserRef `json:"assignedTo" db:"assigned_to"`

	// CreatedAt is the timestamp at which the ticket was filed.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// AssigneeID returns the assignee's id or "" when unassigned.
func (t Ticket) AssigneeID() string {
	if t.AssignedTo == nil {
		return ""
	}
	return t.AssignedTo.ID
}

// Filter sentinels accepted by ticket listings.
const (
	FilterAll        = "all"
	FilterUnassigned = "unassigned"
)

// TicketFilter narrows a project's ticket listing. Zero values impose no
// constraint. AssignedTo is either empty, FilterUnassigned or a user id.
type TicketFilter struct {
	Search     string
	Status     TicketStatus
	Priority   TicketPriority
	AssignedTo string
}

// FieldChange is the before/after pair recorded for a changed field.
type FieldChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// TicketChanges is the field-level diff computed on ticket update. A nil
// slot means the field did not change.
type TicketChanges struct {
	AssignedTo  *FieldChange `json:"assignedTo,omitempty"`
	Status      *FieldChange `json:"status,omitempty"`
	Priority    *FieldChange `json:"priority,omitempty"`
	Title       *FieldChange `json:"title,omitempty"`
	Description *FieldChange `json:"description,omitempty"`
}

// NamedChange pairs a field name with its change.
type NamedChange struct {
	Field string
	FieldChange
}

// Empty reports whether no field changed.
func (c TicketChanges) Empty() bool {
	return len(c.Entries()) == 0
}

// Entries lists the changed fields in a stable order.
func (c TicketChanges) Entries() []NamedChange {
	slots := []struct {
		field  string
		change *FieldChange
	}{
		{"assignedTo", c.AssignedTo},
		{"status", c.Status},
		{"priority", c.Priority},
		{"title", c.Title},
		{"description", c.Description},
	}
	entries := make([]NamedChange, 0, len(slots))
	for _, slot := range slots {
		if slot.change != nil {
			entries = append(entries, NamedChange{Field: slot.field, FieldChange: *slot.change})
		}
	}
	return entries
}
