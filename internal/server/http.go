package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Status reports runtime figures for the health endpoint
type Status interface {
	Backends() int
	PendingDeletions() int
	NextDeletion() (time.Time, bool)
}

// HTTPServer serves health and metrics for operators
type HTTPServer struct {
	addr   string
	status Status
	log    zerolog.Logger
	router chi.Router
}

// NewHTTPServer creates the admin server
func NewHTTPServer(addr string, status Status, log zerolog.Logger) *HTTPServer {
	s := &HTTPServer{
		addr:   addr,
		status: status,
		log:    log.With().Str("component", "http").Logger(),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", s.health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	s.router = r
	return s
}

// Handler returns the router
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

// Start listens until ctx is done, then shuts down gracefully
func (s *HTTPServer) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.addr).Msg("admin server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type healthResponse struct {
	Status           string `json:"status"`
	Backends         int    `json:"backends"`
	PendingDeletions int        `json:"pending_deletions"`
	NextDeletionAt   *time.Time `json:"next_deletion_at,omitempty"`
}

func (s *HTTPServer) health(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok"}
	if s.status != nil {
		resp.Backends = s.status.Backends()
		resp.PendingDeletions = s.status.PendingDeletions()
		if next, ok := s.status.NextDeletion(); ok {
			resp.NextDeletionAt = &next
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Warn().Err(err).Msg("failed to write health response")
	}
}
