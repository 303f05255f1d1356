package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/harjot20022001/bug-tracker/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var attachmentCols = []string{"id", "ticket_id", "uploader_id", "filename", "content_type", "size", "object_key", "created_at"}

func TestAttachmentRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`INSERT INTO ticket_attachments`).
		WithArgs("a1", "t1", "u1", "log.txt", "text/plain", int64(12), "tickets/t1/a1/log.txt", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	attachment, err := NewAttachmentRepository(db).Create(context.Background(), types.Attachment{
		ID: "a1", TicketID: "t1", UploaderID: "u1", Filename: "log.txt",
		ContentType: "text/plain", Size: 12, ObjectKey: "tickets/t1/a1/log.txt",
	})
	require.NoError(t, err)
	assert.False(t, attachment.CreatedAt.IsZero())
}

func TestAttachmentRepository_ListByProject(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`(?s)JOIN tickets t ON t.id = a.ticket_id\s+WHERE t.project_id = \$1`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(attachmentCols).
			AddRow("a1", "t1", "u1", "log.txt", "text/plain", 12, "k1", fixedTime))

	attachments, err := NewAttachmentRepository(db).ListByProject(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, attachments, 1)
	assert.Equal(t, "k1", attachments[0].ObjectKey)
}

func TestAttachmentRepository_DeleteMissing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`DELETE FROM ticket_attachments`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, NewAttachmentRepository(db).Delete(context.Background(), "a1"), ErrNotFound)
}
