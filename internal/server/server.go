package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/harjot20022001/bug-tracker/config"
	"github.com/harjot20022001/bug-tracker/internal/db"
	"github.com/harjot20022001/bug-tracker/internal/logging"
	"github.com/harjot20022001/bug-tracker/internal/mq"
	"github.com/harjot20022001/bug-tracker/internal/notify"
	"github.com/harjot20022001/bug-tracker/internal/services"
	"github.com/harjot20022001/bug-tracker/internal/storage"
	"github.com/harjot20022001/bug-tracker/internal/store"
)

const shutdownTimeout = 20 * time.Second

// Server wraps the HTTP server, router and the resources behind them.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	queue      *mq.MQ
	objects    *storage.Storage
	dispatcher *notify.Dispatcher
	worker     *notify.Worker
	log        logging.Logger

	workerCtx  context.Context
	stopWorker context.CancelFunc
	workerWG   sync.WaitGroup
}

// New opens every backing resource named by cfg and wires the API.
func New(ctx context.Context, cfg config.Config, log logging.Logger) (*Server, error) {
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if log == nil {
		log = logging.Discard()
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	queue, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("open message queue: %w", err)
	}

	objects, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		_ = queue.Close()
		_ = dbConn.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	s := &Server{
		db:         dbConn,
		queue:      queue,
		objects:    objects,
		dispatcher: notify.NewDispatcher(queue, cfg.Notify.Channel, log),
		log:        log,
	}

	if cfg.Notify.InProcessWorker {
		sender, err := NewSender(cfg, log)
		if err != nil {
			s.closeResources()
			return nil, err
		}
		s.worker = notify.NewWorker(queue, cfg.Notify.Channel, sender, log)
		s.workerCtx, s.stopWorker = context.WithCancel(context.WithoutCancel(ctx))
	} else if queue.Name() == "memory" {
		log.Warn(ctx, "in-process worker disabled with the memory queue; notifications will not be sent")
	}

	s.router = NewRouter(buildAPI(dbConn, objects, s.dispatcher, cfg, log), cfg.CORSOrigins, log)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info(ctx, "server configured",
		"port", port,
		"mq", queue.Name(),
		"storage", storageName(objects),
		"inprocess_worker", s.worker != nil,
	)
	return s, nil
}

func buildAPI(dbConn *sql.DB, objects *storage.Storage, notifier services.Notifier, cfg config.Config, log logging.Logger) API {
	userRepo := store.NewUserRepository(dbConn)
	projectRepo := store.NewProjectRepository(dbConn)
	ticketRepo := store.NewTicketRepository(dbConn)
	attachmentRepo := store.NewAttachmentRepository(dbConn)

	// A typed nil *storage.Storage must not reach the interface.
	var objectStore services.ObjectStore
	if objects != nil {
		objectStore = objects
	}

	attachmentService := services.NewAttachmentService(attachmentRepo, ticketRepo, objectStore, cfg.Storage.MaxUploadBytes, log)
	return API{
		Auth:        services.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, log),
		Users:       services.NewUserService(userRepo, log),
		Projects:    services.NewProjectService(projectRepo, attachmentService, log),
		Tickets:     services.NewTicketService(ticketRepo, projectRepo, userRepo, notifier, attachmentService, log),
		Attachments: attachmentService,
	}
}

// NewSender builds the email notifier from cfg. Without SMTP credentials the
// notifier is inert.
func NewSender(cfg config.Config, log logging.Logger) (*notify.Notifier, error) {
	mail, err := notify.NewMail(cfg.SMTP)
	if err != nil {
		return nil, fmt.Errorf("configure smtp: %w", err)
	}
	return notify.New(mail, notify.NewRenderer(cfg.FrontendURL), log), nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the in-process worker, if any, and then the HTTP server. It
// returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	if s.worker != nil {
		s.workerWG.Add(1)
		go func() {
			defer s.workerWG.Done()
			if err := s.worker.Run(s.workerCtx); err != nil && !errors.Is(err, context.Canceled) {
				s.log.Error(s.workerCtx, "notification worker stopped", "error", err)
			}
		}()
	}

	s.log.Info(context.Background(), "http server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Run starts the server and shuts it down once ctx is done.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start()
	}()

	select {
	case err := <-errCh:
		s.stopBackground()
		s.closeResources()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, drains queued notifications and
// releases every resource.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.stopBackground()
	s.closeResources()
	return err
}

func (s *Server) stopBackground() {
	s.dispatcher.Wait()
	if s.stopWorker != nil {
		s.stopWorker()
		s.workerWG.Wait()
	}
}

func (s *Server) closeResources() {
	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.objects != nil {
		_ = s.objects.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}

func storageName(objects *storage.Storage) string {
	if objects == nil {
		return "none"
	}
	return objects.Name()
}
