package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"devicescanner/internal/domain"
	"devicescanner/internal/logging"
	"devicescanner/internal/service"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 1000
)

// PresenceSource provides the live presence state
type PresenceSource interface {
	Presence() domain.Snapshot
	LastCycle() (service.CycleReport, bool)
}

// HistorySource provides stored arrivals and departures
type HistorySource interface {
	RecentEvents(ctx context.Context, limit int) ([]domain.PresenceEvent, error)
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// PresenceResponse is the body of GET /api/presence
type PresenceResponse struct {
	Taken      time.Time              `json:"taken"`
	Identities []domain.Identity      `json:"identities"`
	Present    []domain.PresenceEntry `json:"present"`
}

// HealthResponse is the body of GET /api/health
type HealthResponse struct {
	Status    string               `json:"status"`
	Uptime    string               `json:"uptime"`
	Sinks     []string             `json:"sinks"`
	LastCycle *service.CycleReport `json:"last_cycle,omitempty"`
}

// APIHandler serves the read-only status API
type APIHandler struct {
	presence PresenceSource
	history  HistorySource
	sinks    []string
	started  time.Time
	logger   zerolog.Logger
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(presence PresenceSource, sinks []string, logger zerolog.Logger) *APIHandler {
	if sinks == nil {
		sinks = []string{}
	}
	return &APIHandler{
		presence: presence,
		sinks:    sinks,
		started:  time.Now(),
		logger:   logging.Component(logger, "api"),
	}
}

// SetHistory enables GET /api/events/history
func (h *APIHandler) SetHistory(history HistorySource) {
	h.history = history
}

// GetPresence returns who is currently present
func (h *APIHandler) GetPresence(w http.ResponseWriter, r *http.Request) {
	snap := h.presence.Presence()
	h.writeJSON(w, PresenceResponse{
		Taken:      snap.Taken,
		Identities: snap.Identities(),
		Present:    snap.Present,
	}, http.StatusOK)
}

// GetHealth reports liveness and the outcome of the last cycle. The status is
// "starting" before the first cycle and "degraded" after a failed scan.
func (h *APIHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status: "starting",
		Uptime: time.Since(h.started).Round(time.Second).String(),
		Sinks:  h.sinks,
	}

	if last, ok := h.presence.LastCycle(); ok {
		resp.LastCycle = &last
		resp.Status = "ok"
		if last.ScanError != "" {
			resp.Status = "degraded"
		}
	}

	h.writeJSON(w, resp, http.StatusOK)
}

// GetEventHistory returns recent arrivals and departures, newest first
func (h *APIHandler) GetEventHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		h.writeError(w, "History disabled", "enable sqlite_enable to record presence history", http.StatusNotFound)
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeError(w, "Invalid limit", "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	events, err := h.history.RecentEvents(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load presence history")
		h.writeError(w, "Failed to load history", err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, events, http.StatusOK)
}

// NewRouter wires the API routes and the SSE endpoint
func NewRouter(api *APIHandler, events http.Handler, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/api/presence", api.GetPresence)
	r.Get("/api/health", api.GetHealth)
	r.Get("/api/events/history", api.GetEventHistory)
	if events != nil {
		r.Method(http.MethodGet, "/events", events)
	}

	return r
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn().Err(err).Msg("failed to encode JSON")
	}
}

func (h *APIHandler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	h.writeJSON(w, ErrorResponse{Error: error, Details: details}, statusCode)
}
