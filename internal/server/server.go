// Package server exposes the pipeline over HTTP: a trigger endpoint that runs
// one cycle, a health check, and a status endpoint with the last cycle's
// counters.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"newsmesh/internal/config"
	"newsmesh/internal/core"
	"newsmesh/internal/logger"
)

// CycleRunner is the pipeline surface the server drives.
type CycleRunner interface {
	RunCycle(ctx context.Context) (core.CycleStats, error)
	LastStats() *core.CycleStats
}

// Server is the HTTP trigger server.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	runner     CycleRunner
	config     config.Server
	log        *slog.Logger
}

// New creates a server around a cycle runner.
func New(runner CycleRunner, cfg config.Server) *Server {
	s := &Server{
		router: chi.NewRouter(),
		runner: runner,
		config: cfg,
		log:    logger.Get(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 45 * time.Minute, // A trigger holds the connection for the whole cycle
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/trigger", s.handleTrigger)
	s.router.Post("/trigger", s.handleTrigger)
	s.router.Get("/api/status", s.handleStatus)
}

// Start runs the server until Shutdown.
func (s *Server) Start() error {
	s.log.Info("Starting HTTP server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// Router returns the chi router, for tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}
