package types

import "time"

// Attachment is a file uploaded to a ticket. The content lives in object
// storage under ObjectKey.
type Attachment struct {
	ID          string    `json:"id" db:"id"`
	TicketID    string    `json:"ticketId" db:"ticket_id"`
	UploaderID  string    `json:"uploaderId" db:"uploader_id"`
	Filename    string    `json:"filename" db:"filename"`
	ContentType string    `json:"contentType" db:"content_type"`
	Size        int64     `json:"size" db:"size"`
	ObjectKey   string    `json:"-" db:"object_key"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}
