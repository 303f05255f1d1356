package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/harjot20022001/bug-tracker/internal/handlers"
	"github.com/harjot20022001/bug-tracker/internal/logging"
)

// API bundles the use-cases served over HTTP.
type API struct {
	Auth        handlers.AuthService
	Users       handlers.UserService
	Projects    handlers.ProjectService
	Tickets     handlers.TicketService
	Attachments handlers.AttachmentService
}

// NewRouter builds the chi router with middleware and all API routes.
func NewRouter(api API, corsOrigins []string, log logging.Logger) *chi.Mux {
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
		cors.Handler(cors.Options{
			AllowedOrigins:   corsOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
	)
	router.NotFound(handlers.NotFound)
	router.MethodNotAllowed(handlers.MethodNotAllowed)

	router.Get("/health", handlers.Health)
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handlers.Health)
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, api.Auth, api.Users, log)
		})
		r.Route("/users", func(r chi.Router) {
			handlers.UserRouter(r, api.Users, api.Auth, log)
		})
		r.Route("/projects", func(r chi.Router) {
			handlers.ProjectRouter(r, api.Projects, api.Tickets, api.Auth, log)
		})
		r.Route("/tickets", func(r chi.Router) {
			handlers.TicketRouter(r, api.Tickets, api.Attachments, api.Auth, log)
		})
		r.Route("/attachments", func(r chi.Router) {
			handlers.AttachmentRouter(r, api.Attachments, api.Auth, log)
		})
	})
	return router
}
