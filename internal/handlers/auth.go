package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/harjot20022001/bug-tracker/internal/logging"
	"github.com/harjot20022001/bug-tracker/internal/services"
	"github.com/harjot20022001/bug-tracker/types"
)

// AuthHandler provides registration, login and session endpoints.
type AuthHandler struct {
	responder
	auth AuthService
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(auth AuthService, log logging.Logger) *AuthHandler {
	return &AuthHandler{responder: newResponder(log), auth: auth}
}

// AuthRouter registers auth routes on the given router. The /users routes
// mirror the ones mounted under /users.
func AuthRouter(r chi.Router, auth AuthService, users UserService, log logging.Logger) {
	handler := NewAuthHandler(auth, log)
	userHandler := NewUserHandler(users, log)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(auth))
		r.Get("/me", handler.Me)
		r.Get("/users", userHandler.List)
		r.With(RequireRole(types.RoleAdmin)).Put("/users/{userID}", userHandler.Update)
		r.With(RequireRole(types.RoleAdmin)).Delete("/users/{userID}", userHandler.Delete)
	})
}

// RequireAuth resolves the bearer token and injects the caller's identity
// into the request context.
func RequireAuth(sessions SessionResolver) func(http.Handler) http.Handler {
	guard := newResponder(nil)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				guard.fail(w, r, services.RequireAuthenticated(types.Identity{}))
				return
			}

			identity, err := sessions.ResolveSession(tokenString)
			if err == nil {
				err = services.RequireAuthenticated(identity)
			}
			if err != nil {
				guard.fail(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
		})
	}
}

// RequireRole rejects callers whose session role is not one of roles. It
// must run after RequireAuth.
func RequireRole(roles ...types.Role) func(http.Handler) http.Handler {
	guard := newResponder(nil)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, _ := identityFromContext(r.Context())
			err := services.RequireAuthenticated(identity)
			if err == nil {
				for _, role := range roles {
					if err = services.RequireRole(identity, role); err == nil {
						break
					}
				}
			}
			if err != nil {
				guard.fail(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Register creates a new user account and returns a session token.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.auth.Register(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{Success: true, Token: result.Token, User: result.User})
}

// Login verifies credentials and returns a session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Success: true, Token: result.Token, User: result.User})
}

// Me returns the current authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	if err := services.RequireAuthenticated(identity); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.auth.Me(r.Context(), identity)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeData(w, http.StatusOK, user)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Success bool             `json:"success"`
	Token   string           `json:"token"`
	User    types.PublicUser `json:"user"`
}
