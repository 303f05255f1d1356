package types

import "time"

// Project groups tickets. It is created by an admin who becomes its owner.
type Project struct {
	// ID is the unique identifier of the project.
	ID string `json:"id" db:"id"`

	// Name is the human-readable name of the project.
	Name string `json:"name" db:"name"`

	// Description summarizes what the project is about.
	Description string `json:"description" db:"description"`

	// Owner is the user who created the project. It is never reassigned.
	Owner UserRef `json:"owner" db:"owner_id"`

	// Members lists user ids attached to the project. No business rule
	// depends on it.
	Members []string `json:"members" db:"members"`

	// CreatedAt is the timestamp at which the project was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// ProjectRef is the project summary embedded in a ticket.
type ProjectRef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
