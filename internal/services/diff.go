package services

import "github.com/harjot20022001/bug-tracker/types"

const unassignedLabel = "Unassigned"

// computeChanges records every tracked field that differs between before and
// after. Assignment is compared by id and recorded by display name.
func computeChanges(before, after types.Ticket) types.TicketChanges {
	var changes types.TicketChanges

	if before.AssigneeID() != after.AssigneeID() {
		changes.AssignedTo = &types.FieldChange{
			Old: assigneeLabel(before.AssignedTo),
			New: assigneeLabel(after.AssignedTo),
		}
	}
	if before.Status != after.Status {
		changes.Status = &types.FieldChange{Old: string(before.Status), New: string(after.Status)}
	}
	if before.Priority != after.Priority {
		changes.Priority = &types.FieldChange{Old: string(before.Priority), New: string(after.Priority)}
	}
	if before.Title != after.Title {
		changes.Title = &types.FieldChange{Old: before.Title, New: after.Title}
	}
	if before.Description != after.Description {
		changes.Description = &types.FieldChange{Old: before.Description, New: after.Description}
	}
	return changes
}

func assigneeLabel(ref *types.UserRef) string {
	switch {
	case ref == nil || ref.ID == "":
		return unassignedLabel
	case ref.Name != "":
		return ref.Name
	default:
		return ref.ID
	}
}
