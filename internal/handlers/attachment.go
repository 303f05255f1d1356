package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/harjot20022001/bug-tracker/internal/logging"
	"github.com/harjot20022001/bug-tracker/internal/services"
)

const (
	maxMultipartMemory = 8 << 20
	multipartOverhead  = 1 << 20
)

// AttachmentHandler serves ticket file uploads and downloads.
type AttachmentHandler struct {
	responder
	attachments AttachmentService
}

func NewAttachmentHandler(attachments AttachmentService, log logging.Logger) *AttachmentHandler {
	return &AttachmentHandler{responder: newResponder(log), attachments: attachments}
}

// AttachmentRouter registers single-attachment routes. Listing and upload
// are mounted per ticket by TicketRouter.
func AttachmentRouter(r chi.Router, attachments AttachmentService, sessions SessionResolver, log logging.Logger) {
	handler := NewAttachmentHandler(attachments, log)

	r.Use(RequireAuth(sessions))
	r.Get("/{attachmentID}", handler.Download)
	r.Delete("/{attachmentID}", handler.Delete)
}

func (h *AttachmentHandler) List(w http.ResponseWriter, r *http.Request) {
	attachments, err := h.attachments.List(r.Context(), chi.URLParam(r, "ticketID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeList(w, attachments)
}

// Upload accepts a multipart form with a single "file" part.
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	maxBytes := h.attachments.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("file must be at most %d bytes", maxBytes))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	identity, _ := identityFromContext(r.Context())
	attachment, err := h.attachments.Upload(r.Context(), identity, chi.URLParam(r, "ticketID"), services.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, attachment)
}

// Download streams the attachment content.
func (h *AttachmentHandler) Download(w http.ResponseWriter, r *http.Request) {
	attachment, body, err := h.attachments.Open(r.Context(), chi.URLParam(r, "attachmentID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", attachment.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": attachment.Filename}))
	if attachment.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(attachment.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.log.Warn(r.Context(), "attachment download interrupted", "attachment_id", attachment.ID, "error", err)
	}
}

func (h *AttachmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	if err := h.attachments.Delete(r.Context(), identity, chi.URLParam(r, "attachmentID")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, struct{}{})
}
