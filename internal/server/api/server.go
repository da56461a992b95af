// Package api assembles the HTTP surface: router, middleware chain and
// server lifecycle with graceful shutdown.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/webdeskhq/webdesk/internal/logging"
	"github.com/webdeskhq/webdesk/internal/server/api/handlers"
	"github.com/webdeskhq/webdesk/internal/server/api/middleware"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the http.Server with routing and lifecycle management.
type Server struct {
	httpServer *http.Server
	logger     logging.Logger
}

// NewServer builds the router and the underlying http.Server. secretKey
// verifies bearer tokens on the /api/v1 subtree; health and metrics stay
// open.
func NewServer(addr string, secretKey []byte, h *handlers.APIHandler, health *handlers.HealthHandler, logger logging.Logger) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.Metrics())

	router.Get("/health", health.Health)
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(secretKey))

		r.Post("/files", h.SaveFile)
		r.Post("/files/upload", h.UploadFile)
		r.Get("/files", h.ListFiles)
		r.Get("/files/recent", h.ListRecent)
		r.Get("/files/{id}", h.GetFile)
		r.Get("/files/{id}/download", h.DownloadFile)
		r.Patch("/files/{id}/rename", h.RenameFile)
		r.Patch("/files/{id}/move", h.MoveFile)
		r.Delete("/files/{id}", h.DeleteFile)

		r.Get("/usage", h.GetUsage)

		r.Post("/panels", h.OpenPanel)
		r.Delete("/panels/{id}", h.ClosePanel)

		r.Post("/workspaces", h.CreateWorkspace)
		r.Get("/workspaces", h.ListWorkspaces)
	})

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		logger: logger,
	}
}

// Run serves until ctx is canceled, then drains in-flight requests
// within the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info(ctx, "http server started", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info(shutdownCtx, "shutting down http server")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown error: %w", err)
	}
	return nil
}
