package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/harjot20022001/bug-tracker/internal/logging"
	"github.com/harjot20022001/bug-tracker/internal/storage"
	"github.com/harjot20022001/bug-tracker/types"
)

const (
	msgAttachmentNotFound = "Attachment not found"
	msgStorageDisabled    = "Attachment storage is not configured"
	defaultMaxUpload      = 10 << 20
)

// AttachmentRepository defines persistence operations for attachment metadata.
type AttachmentRepository interface {
	ListByTicket(ctx context.Context, ticketID string) ([]types.Attachment, error)
	ListByProject(ctx context.Context, projectID string) ([]types.Attachment, error)
	Get(ctx context.Context, id string) (types.Attachment, error)
	Create(ctx context.Context, attachment types.Attachment) (types.Attachment, error)
	Delete(ctx context.Context, id string) error
}

// ObjectStore holds attachment content. Get reports a missing key with
// storage.ErrObjectNotFound.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Upload describes a file received for a ticket.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// AttachmentService stores ticket files in object storage. A nil objects
// store disables uploads and downloads.
type AttachmentService struct {
	repo     AttachmentRepository
	tickets  TicketRepository
	objects  ObjectStore
	maxBytes int64
	log      logging.Logger
}

func NewAttachmentService(
	repo AttachmentRepository,
	tickets TicketRepository,
	objects ObjectStore,
	maxBytes int64,
	log logging.Logger,
) *AttachmentService {
	if maxBytes <= 0 {
		maxBytes = defaultMaxUpload
	}
	if log == nil {
		log = logging.Discard()
	}
	return &AttachmentService{
		repo:     repo,
		tickets:  tickets,
		objects:  objects,
		maxBytes: maxBytes,
		log:      log,
	}
}

// Enabled reports whether an object store is configured.
func (s *AttachmentService) Enabled() bool {
	return s != nil && s.objects != nil
}

// MaxBytes is the largest accepted upload.
func (s *AttachmentService) MaxBytes() int64 {
	return s.maxBytes
}

func (s *AttachmentService) List(ctx context.Context, ticketID string) ([]types.Attachment, error) {
	if err := s.requireTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	return s.repo.ListByTicket(ctx, ticketID)
}

// Upload stores the file and records it against the ticket.
func (s *AttachmentService) Upload(ctx context.Context, actor types.Identity, ticketID string, upload Upload) (types.Attachment, error) {
	if !s.Enabled() {
		return types.Attachment{}, &Error{Kind: KindUnavailable, Message: msgStorageDisabled}
	}
	if err := s.requireTicket(ctx, ticketID); err != nil {
		return types.Attachment{}, err
	}
	if upload.Body == nil || upload.Size <= 0 {
		return types.Attachment{}, validationError("file is required")
	}
	if upload.Size > s.maxBytes {
		return types.Attachment{}, validationError(fmt.Sprintf("file must be at most %d bytes", s.maxBytes))
	}

	filename := cleanFilename(upload.Filename)
	contentType := strings.TrimSpace(upload.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	id := uuid.NewString()
	key := attachmentKey(ticketID, id, filename)
	if err := s.objects.Put(ctx, key, upload.Body, upload.Size, contentType); err != nil {
		return types.Attachment{}, fmt.Errorf("store attachment: %w", err)
	}

	attachment, err := s.repo.Create(ctx, types.Attachment{
		ID:          id,
		TicketID:    ticketID,
		UploaderID:  actor.UserID,
		Filename:    filename,
		ContentType: contentType,
		Size:        upload.Size,
		ObjectKey:   key,
	})
	if err != nil {
		s.removeObjects(ctx, []types.Attachment{{ID: id, ObjectKey: key}})
		return types.Attachment{}, fromStore(err, "Ticket not found")
	}
	s.log.Info(ctx, "attachment uploaded", "attachment_id", id, "ticket_id", ticketID, "size", upload.Size)
	return attachment, nil
}

// Open returns the attachment metadata and a reader for its content. The
// caller closes the reader.
func (s *AttachmentService) Open(ctx context.Context, id string) (types.Attachment, io.ReadCloser, error) {
	if !s.Enabled() {
		return types.Attachment{}, nil, &Error{Kind: KindUnavailable, Message: msgStorageDisabled}
	}
	attachment, err := s.get(ctx, id)
	if err != nil {
		return types.Attachment{}, nil, err
	}
	body, err := s.objects.Get(ctx, attachment.ObjectKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			s.log.Warn(ctx, "attachment content missing", "attachment_id", id, "key", attachment.ObjectKey)
			return types.Attachment{}, nil, &Error{Kind: KindNotFound, Message: msgAttachmentNotFound, Err: err}
		}
		return types.Attachment{}, nil, fmt.Errorf("open attachment: %w", err)
	}
	return attachment, body, nil
}

// Delete removes an attachment. Only admins and the uploader may do so.
func (s *AttachmentService) Delete(ctx context.Context, actor types.Identity, id string) error {
	attachment, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if actor.Role != types.RoleAdmin && actor.UserID != attachment.UploaderID {
		return forbiddenError("Not authorized to delete this attachment")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fromStore(err, msgAttachmentNotFound)
	}
	s.removeObjects(ctx, []types.Attachment{attachment})
	return nil
}

func (s *AttachmentService) get(ctx context.Context, id string) (types.Attachment, error) {
	if !validID(id) {
		return types.Attachment{}, notFoundError(msgAttachmentNotFound)
	}
	attachment, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Attachment{}, fromStore(err, msgAttachmentNotFound)
	}
	return attachment, nil
}

func (s *AttachmentService) requireTicket(ctx context.Context, ticketID string) error {
	if !validID(ticketID) {
		return notFoundError(msgTicketNotFound)
	}
	if _, err := s.tickets.Get(ctx, ticketID); err != nil {
		return fromStore(err, msgTicketNotFound)
	}
	return nil
}

// projectAttachments lists the attachments that a project delete will cascade
// to. Failures are logged and yield nil.
func (s *AttachmentService) projectAttachments(ctx context.Context, projectID string) []types.Attachment {
	if !s.Enabled() {
		return nil
	}
	attachments, err := s.repo.ListByProject(ctx, projectID)
	if err != nil {
		s.log.Warn(ctx, "list project attachments", "project_id", projectID, "error", err)
		return nil
	}
	return attachments
}

func (s *AttachmentService) ticketAttachments(ctx context.Context, ticketID string) []types.Attachment {
	if !s.Enabled() {
		return nil
	}
	attachments, err := s.repo.ListByTicket(ctx, ticketID)
	if err != nil {
		s.log.Warn(ctx, "list ticket attachments", "ticket_id", ticketID, "error", err)
		return nil
	}
	return attachments
}

// removeObjects deletes stored content best-effort.
func (s *AttachmentService) removeObjects(ctx context.Context, attachments []types.Attachment) {
	if !s.Enabled() {
		return
	}
	for _, attachment := range attachments {
		if err := s.objects.Delete(ctx, attachment.ObjectKey); err != nil {
			s.log.Warn(ctx, "remove attachment object", "attachment_id", attachment.ID, "key", attachment.ObjectKey, "error", err)
		}
	}
}

func attachmentKey(ticketID, attachmentID, filename string) string {
	return path.Join("tickets", ticketID, attachmentID, filename)
}

func cleanFilename(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	name = path.Base(name)
	if name == "." || name == "/" || name == "" {
		return "attachment"
	}
	return name
}
