package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/harjot20022001/bug-tracker/internal/logging"
	"github.com/harjot20022001/bug-tracker/internal/services"
)

// TicketHandler provides HTTP handlers for ticket resources.
type TicketHandler struct {
	responder
	tickets TicketService
}

// NewTicketHandler constructs a TicketHandler with the provided dependencies.
func NewTicketHandler(tickets TicketService, log logging.Logger) *TicketHandler {
	return &TicketHandler{responder: newResponder(log), tickets: tickets}
}

// TicketRouter registers single-ticket routes and the ticket attachment
// collection on the given router. Project-scoped listing and creation live
// on ProjectRouter.
func TicketRouter(r chi.Router, tickets TicketService, attachments AttachmentService, sessions SessionResolver, log logging.Logger) {
	handler := NewTicketHandler(tickets, log)
	attachmentHandler := NewAttachmentHandler(attachments, log)

	r.Use(RequireAuth(sessions))
	r.Get("/{ticketID}", handler.Get)
	r.Put("/{ticketID}", handler.Update)
	r.Delete("/{ticketID}", handler.Delete)

	r.Get("/{ticketID}/attachments", attachmentHandler.List)
	r.Post("/{ticketID}/attachments", attachmentHandler.Upload)
}

// List returns the project's tickets, newest first. Supported query
// parameters are search, status, priority and assignedTo.
func (h *TicketHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := services.TicketFilterInput{
		Search:     query.Get("search"),
		Status:     query.Get("status"),
		Priority:   query.Get("priority"),
		AssignedTo: query.Get("assignedTo"),
	}

	tickets, err := h.tickets.List(r.Context(), chi.URLParam(r, "projectID"), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeList(w, tickets)
}

func (h *TicketHandler) Get(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.tickets.Get(r.Context(), chi.URLParam(r, "ticketID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, ticket)
}

func (h *TicketHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.TicketInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	identity, _ := identityFromContext(r.Context())
	ticket, err := h.tickets.Create(r.Context(), identity, chi.URLParam(r, "projectID"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, ticket)
}

// Update applies a partial update and reports the changed fields alongside
// the refreshed ticket.
func (h *TicketHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch services.TicketPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}

	identity, _ := identityFromContext(r.Context())
	ticket, changes, err := h.tickets.Update(r.Context(), identity, chi.URLParam(r, "ticketID"), patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := Response{Success: true, Data: ticket}
	if !changes.Empty() {
		resp.Changes = changes
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *TicketHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	if err := h.tickets.Delete(r.Context(), identity, chi.URLParam(r, "ticketID")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, struct{}{})
}
