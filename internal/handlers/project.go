package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/harjot20022001/bug-tracker/internal/logging"
	"github.com/harjot20022001/bug-tracker/internal/services"
	"github.com/harjot20022001/bug-tracker/types"
)

// ProjectHandler provides HTTP handlers for project resources.
type ProjectHandler struct {
	responder
	projects ProjectService
}

// NewProjectHandler constructs a ProjectHandler with the provided dependencies.
func NewProjectHandler(projects ProjectService, log logging.Logger) *ProjectHandler {
	return &ProjectHandler{responder: newResponder(log), projects: projects}
}

// ProjectRouter registers project routes, including the project's ticket
// collection, on the given router.
func ProjectRouter(r chi.Router, projects ProjectService, tickets TicketService, sessions SessionResolver, log logging.Logger) {
	handler := NewProjectHandler(projects, log)
	ticketHandler := NewTicketHandler(tickets, log)

	r.Use(RequireAuth(sessions))
	r.Get("/", handler.List)
	r.With(RequireRole(types.RoleAdmin)).Post("/", handler.Create)
	r.Get("/{projectID}", handler.Get)
	r.With(RequireRole(types.RoleAdmin)).Put("/{projectID}", handler.Update)
	r.With(RequireRole(types.RoleAdmin)).Delete("/{projectID}", handler.Delete)

	r.Get("/{projectID}/tickets", ticketHandler.List)
	r.Post("/{projectID}/tickets", ticketHandler.Create)
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeList(w, projects)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, err := h.projects.Get(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, project)
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.ProjectInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	identity, _ := identityFromContext(r.Context())
	project, err := h.projects.Create(r.Context(), identity, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, project)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in services.ProjectInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	project, err := h.projects.Update(r.Context(), chi.URLParam(r, "projectID"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, project)
}

// Delete removes the project together with its tickets and attachments.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.projects.Delete(r.Context(), chi.URLParam(r, "projectID")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, struct{}{})
}
