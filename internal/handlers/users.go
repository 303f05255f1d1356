package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/harjot20022001/bug-tracker/internal/logging"
	"github.com/harjot20022001/bug-tracker/internal/services"
	"github.com/harjot20022001/bug-tracker/types"
)

// UserHandler serves account listing and admin account management.
type UserHandler struct {
	responder
	users UserService
}

func NewUserHandler(users UserService, log logging.Logger) *UserHandler {
	return &UserHandler{responder: newResponder(log), users: users}
}

// UserRouter registers user routes on the given router.
func UserRouter(r chi.Router, users UserService, sessions SessionResolver, log logging.Logger) {
	handler := NewUserHandler(users, log)

	r.Use(RequireAuth(sessions))
	r.Get("/", handler.List)
	r.Get("/{userID}", handler.Get)
	r.With(RequireRole(types.RoleAdmin)).Put("/{userID}", handler.Update)
	r.With(RequireRole(types.RoleAdmin)).Delete("/{userID}", handler.Delete)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeList(w, users)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, user)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch services.UserPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.users.Update(r.Context(), chi.URLParam(r, "userID"), patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, user)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	if err := h.users.Delete(r.Context(), identity, chi.URLParam(r, "userID")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, struct{}{})
}
