package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/harjot20022001/bug-tracker/types"
)

// AttachmentRepository handles persistence for ticket attachment metadata.
type AttachmentRepository struct {
	db *sql.DB
}

func NewAttachmentRepository(db *sql.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

const attachmentColumns = `id, ticket_id, uploader_id, filename, content_type, size, object_key, created_at`

func scanAttachment(row interface{ Scan(...any) error }) (types.Attachment, error) {
	var attachment types.Attachment
	err := row.Scan(
		&attachment.ID,
		&attachment.TicketID,
		&attachment.UploaderID,
		&attachment.Filename,
		&attachment.ContentType,
		&attachment.Size,
		&attachment.ObjectKey,
		&attachment.CreatedAt,
	)
	return attachment, err
}

func (r *AttachmentRepository) listWhere(ctx context.Context, query string, args ...any) ([]types.Attachment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attachments := make([]types.Attachment, 0)
	for rows.Next() {
		attachment, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, attachment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return attachments, nil
}

// ListByTicket returns a ticket's attachments in upload order.
func (r *AttachmentRepository) ListByTicket(ctx context.Context, ticketID string) ([]types.Attachment, error) {
	const query = `SELECT ` + attachmentColumns + ` FROM ticket_attachments WHERE ticket_id = $1 ORDER BY created_at`
	return r.listWhere(ctx, query, ticketID)
}

// ListByProject returns every attachment of every ticket in a project.
func (r *AttachmentRepository) ListByProject(ctx context.Context, projectID string) ([]types.Attachment, error) {
	const query = `
		SELECT a.id, a.ticket_id, a.uploader_id, a.filename, a.content_type, a.size, a.object_key, a.created_at
		FROM ticket_attachments a
		JOIN tickets t ON t.id = a.ticket_id
		WHERE t.project_id = $1`
	return r.listWhere(ctx, query, projectID)
}

func (r *AttachmentRepository) Get(ctx context.Context, id string) (types.Attachment, error) {
	const query = `SELECT ` + attachmentColumns + ` FROM ticket_attachments WHERE id = $1`
	attachment, err := scanAttachment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Attachment{}, ErrNotFound
		}
		return types.Attachment{}, err
	}
	return attachment, nil
}

// Create stores attachment metadata. ObjectKey must already be set.
func (r *AttachmentRepository) Create(ctx context.Context, attachment types.Attachment) (types.Attachment, error) {
	if attachment.ID == "" {
		attachment.ID = uuid.NewString()
	}
	attachment.CreatedAt = time.Now().UTC()

	const query = `
		INSERT INTO ticket_attachments (` + attachmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		attachment.ID,
		attachment.TicketID,
		attachment.UploaderID,
		attachment.Filename,
		attachment.ContentType,
		attachment.Size,
		attachment.ObjectKey,
		attachment.CreatedAt,
	); err != nil {
		return types.Attachment{}, mapError(err)
	}
	return attachment, nil
}

func (r *AttachmentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM ticket_attachments WHERE id = $1`
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
