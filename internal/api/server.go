package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/dori/taskdeck/internal/app"
	"github.com/dori/taskdeck/internal/config"
)

// shutdownTimeout bounds how long in-flight requests get after a stop signal
const shutdownTimeout = 5 * time.Second

// NewRouter registers every route on a ServeMux and wraps it in the middleware chain
func NewRouter(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/tasks", h.ListTasks)
	mux.HandleFunc("POST /api/tasks", h.CreateTask)
	mux.HandleFunc("GET /api/tasks/{id}", h.GetTask)
	mux.HandleFunc("PATCH /api/tasks/{id}", h.UpdateTask)
	mux.HandleFunc("DELETE /api/tasks/{id}", h.DeleteTask)
	mux.HandleFunc("PUT /api/tasks/{id}/fields/{name}", h.SetFieldValue)

	mux.HandleFunc("GET /api/view", h.View)
	mux.HandleFunc("DELETE /api/view", h.ResetView)

	mux.HandleFunc("GET /api/history", h.History)
	mux.HandleFunc("POST /api/history/undo", h.Undo)
	mux.HandleFunc("POST /api/history/redo", h.Redo)
	mux.HandleFunc("DELETE /api/history", h.ResetHistory)

	mux.HandleFunc("GET /api/fields", h.Fields)
	mux.HandleFunc("PUT /api/fields", h.SetFields)

	mux.HandleFunc("GET /api/selection", h.Selection)
	mux.HandleFunc("POST /api/selection", h.Select)
	mux.HandleFunc("DELETE /api/selection", h.ClearSelection)

	mux.HandleFunc("POST /api/bulk/update", h.BulkUpdate)
	mux.HandleFunc("POST /api/bulk/delete", h.BulkDelete)

	mux.HandleFunc("GET /api/trash", h.Trash)
	mux.HandleFunc("DELETE /api/trash", h.EmptyTrash)

	return Chain(mux,
		WithRequestID,
		WithRecover(logger),
		WithAccessLog(logger),
	)
}

// Server is the HTTP front end of an App
type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// NewServer builds a server for a using the server section of cfg
func NewServer(cfg *config.Config, a *app.App, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		srv: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      NewRouter(NewHandler(a), logger),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
		},
		logger: logger,
	}
}

// Run listens until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.srv.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shut down signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	s.logger.Info("shut down gracefully")
	return nil
}
