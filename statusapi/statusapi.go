// Package statusapi serves the run's progress counters and database status
// breakdown over HTTP for operators watching a long acquisition run.
package statusapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/vetmap/classify"
	"github.com/hazyhaar/vetmap/pipeline"
	"github.com/hazyhaar/vetmap/store"
)

// StatusCounter reads the persisted per-status row counts.
type StatusCounter interface {
	StatusCounts(ctx context.Context) (map[classify.Status]int, error)
}

// Server exposes /healthz and /progress.
type Server struct {
	progress *pipeline.Progress
	counts   StatusCounter
	logger   *slog.Logger
	httpSrv  *http.Server
}

// progressReply is the /progress payload.
type progressReply struct {
	pipeline.ProgressSnapshot
	Statuses map[classify.Status]int `json:"statuses,omitempty"`
}

// NewServer builds the status server. counts may be nil when no database is
// attached.
func NewServer(addr string, progress *pipeline.Progress, counts StatusCounter, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{progress: progress, counts: counts, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/progress", s.handleProgress)

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.httpSrv.Handler }

// Start serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("statusapi: listening", "addr", s.httpSrv.Addr)
		errCh <- s.httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	reply := progressReply{ProgressSnapshot: s.progress.Snapshot()}

	if s.counts != nil {
		counts, err := s.counts.StatusCounts(r.Context())
		if err != nil {
			s.logger.Warn("statusapi: status counts failed", "error", err)
		} else {
			reply.Statuses = counts
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(reply); err != nil {
		s.logger.Warn("statusapi: encode progress failed", "error", err)
	}
}

// interface check
var _ StatusCounter = (*store.DB)(nil)
