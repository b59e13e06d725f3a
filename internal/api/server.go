// Package api exposes the admin HTTP interface for long harvest runs:
//
//   - GET /healthz and /readyz for liveness probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/run for the live counters of the run in progress.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RunStatus reports a point-in-time view of the active run.
type RunStatus struct {
	RunID     string `json:"run_id"`
	Venues    int    `json:"venues"`
	Pages     int    `json:"pages"`
	Menus     int    `json:"menus"`
	Items     int    `json:"items"`
	Running   bool   `json:"running"`
	StartedAt string `json:"started_at,omitempty"`
}

// StatusFunc supplies the current RunStatus. It must be safe to call from
// multiple goroutines.
type StatusFunc func() RunStatus

// Server is the admin HTTP server. It is off by default and only started
// when an address is configured.
type Server struct {
	srv    *http.Server
	logger *zap.Logger
}

// NewServer builds the router and binds it to addr.
func NewServer(addr string, status StatusFunc, logger *zap.Logger) *Server {
	s := &Server{logger: logger}

	r := chi.NewRouter()
	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/v1/run", func(w http.ResponseWriter, _ *http.Request) {
		if status == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no run in progress"})
			return
		}
		writeJSON(w, http.StatusOK, status())
	})

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the router for use in tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start runs ListenAndServe on its own goroutine and returns immediately.
func (s *Server) Start() {
	go func() {
		s.logger.Info("Admin server started", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Admin server error", zap.Error(err))
		}
	}()
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
