// Package api exposes the HTTP interface for the notifier service: health
// and metrics endpoints, the host callback ingest routes, and read access to
// delivery history.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/printpulse/printpulse/internal/metrics"
	"github.com/printpulse/printpulse/internal/store"
)

const (
	defaultDeliveryLimit = 50
	maxDeliveryLimit     = 500
	historyTimeout       = 3 * time.Second
	requestTimeout       = 30 * time.Second
)

// Tracker is the subset of tracker operations driven over HTTP.
type Tracker interface {
	PrintStarted(jobName string)
	Progress(fraction float64)
	PrintEnded()
	Active() bool
}

// Server wires HTTP handlers to the tracker and delivery history.
type Server struct {
	router  chi.Router
	tracker Tracker
	history store.DeliveryRepository
	logger  *zap.Logger
}

// NewServer constructs a Server with middleware and routes. history may be
// nil, in which case the deliveries endpoint reports 503.
func NewServer(tracker Tracker, history store.DeliveryRepository, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		tracker: tracker,
		history: history,
		logger:  logger,
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/print", func(r chi.Router) {
			r.Post("/started", s.printStarted)
			r.Post("/progress", s.printProgress)
			r.Post("/ended", s.printEnded)
			r.Get("/status", s.printStatus)
		})
		r.Get("/deliveries", s.listDeliveries)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type startRequest struct {
	JobName string `json:"job_name"`
}

// printStarted accepts the callback and returns immediately; delivery happens
// off this request's goroutine.
func (s *Server) printStarted(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	s.tracker.PrintStarted(req.JobName)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

type progressRequest struct {
	Progress *float64 `json:"progress"`
}

func (s *Server) printProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Progress == nil {
		writeError(w, http.StatusBadRequest, "progress is required")
		return
	}
	s.tracker.Progress(*req.Progress)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) printEnded(w http.ResponseWriter, _ *http.Request) {
	s.tracker.PrintEnded()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) printStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"printing": s.tracker.Active()})
}

// listDeliveries handles GET /v1/deliveries?limit=&offset=. It returns
// {"deliveries": [...]} on success, 400 for invalid paging, 503 when history
// is disabled, or 500 if the repository call fails.
func (s *Server) listDeliveries(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "delivery history disabled")
		return
	}
	limit, offset, err := parseLimitOffset(r, defaultDeliveryLimit, maxDeliveryLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), historyTimeout)
	defer cancel()

	recs, err := s.history.ListDeliveries(ctx, limit, offset)
	if err != nil {
		s.logger.Error("list deliveries failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list deliveries")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"deliveries": toDeliveryDTOs(recs),
	})
}
