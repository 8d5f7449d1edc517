// Package web serves the upload, merge, correction, and download API.
package web

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/hfmatch/internal/config"
	"github.com/hfmatch/internal/web/handlers"
	"github.com/hfmatch/internal/web/middleware"
)

// Server is the HTTP front end over the matching pipeline. Run results
// are held in an in-memory job store keyed by run ID.
type Server struct {
	cfg        *config.Config
	log        *zap.Logger
	router     *mux.Router
	httpServer *http.Server
	jobs       *handlers.JobStore
	registry   handlers.RegistrySource
}

// NewServer wires routes and middleware. registry may be nil; the
// server then rejects registry-backed correction requests but serves
// everything else.
func NewServer(cfg *config.Config, log *zap.Logger, registry handlers.RegistrySource) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		cfg:      cfg,
		log:      log,
		jobs:     handlers.NewJobStore(),
		registry: registry,
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()

	mergeHandler := &handlers.MergeHandler{Cfg: s.cfg, Log: s.log, Jobs: s.jobs}
	correctHandler := &handlers.CorrectHandler{Cfg: s.cfg, Log: s.log, Jobs: s.jobs, Registry: s.registry}
	runsHandler := &handlers.RunsHandler{Log: s.log, Jobs: s.jobs}

	api := s.router.PathPrefix("/api").Subrouter()
	// OPTIONS is answered by the CORS middleware before the handler.
	api.HandleFunc("/merge", mergeHandler.Merge).Methods("POST", "OPTIONS")
	api.HandleFunc("/correct", correctHandler.Correct).Methods("POST", "OPTIONS")
	api.HandleFunc("/runs/{id}", runsHandler.GetRun).Methods("GET")
	api.HandleFunc("/runs/{id}/download", runsHandler.Download).Methods("GET")

	s.router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{"status":"ok"}`)
	}).Methods("GET")

	s.router.Use(middleware.CORS())
	s.router.Use(middleware.RequestLogging(s.log))
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	errc := make(chan error, 1)
	go func() {
		s.log.Info("server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serve: %w", err)
	case <-stop:
	}

	s.log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}
