// Package api provides the JSON HTTP API of the trip dashboard.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"bike-dash/internal/domain"
	"bike-dash/internal/middleware"
	"bike-dash/internal/service/live"
	"bike-dash/internal/service/routes"
	"bike-dash/internal/service/trips"
)

// maxRouteLimit caps the limit query parameter of /routes.
const maxRouteLimit = 1000

// Error is the JSON body of every non-2xx response.
type Error struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// TripsResponse is returned by GET /trips and POST /trips/reload.
type TripsResponse struct {
	Dataset *domain.DatasetInfo `json:"dataset"`
	Preview *domain.Table       `json:"preview,omitempty"`
}

// APIHandler serves the /api/v1 endpoints.
type APIHandler struct {
	trips  *trips.Service
	routes *routes.Service
	live   *live.Service
	logger *slog.Logger
}

// NewHandler creates a new APIHandler with all required service dependencies.
func NewHandler(tripsSvc *trips.Service, routesSvc *routes.Service, liveSvc *live.Service, logger *slog.Logger) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIHandler{trips: tripsSvc, routes: routesSvc, live: liveSvc, logger: logger}
}

// MountRoutes registers the API under the router it is given, which the
// server mounts at /api/v1.
func (h *APIHandler) MountRoutes(r chi.Router) {
	r.Get("/trips", h.GetTrips)
	r.Post("/trips/reload", h.ReloadTrips)
	r.Get("/routes", h.GetRoutes)
	r.Get("/live", h.GetLive)
}

// GetTrips returns the dataset info and a preview of `limit` rows.
func (h *APIHandler) GetTrips(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.limitParam(w, r, trips.DefaultPreviewRows, trips.MaxPreviewRows)
	if !ok {
		return
	}
	info, err := h.trips.Info(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	preview, err := h.trips.Preview(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TripsResponse{Dataset: info, Preview: preview})
}

// ReloadTrips drops the cached dataset and loads it again.
func (h *APIHandler) ReloadTrips(w http.ResponseWriter, r *http.Request) {
	info, err := h.trips.Reload(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TripsResponse{Dataset: info})
}

// GetRoutes returns the top routes. Unresolvable station columns yield 200
// with a warning and no routes.
func (h *APIHandler) GetRoutes(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.limitParam(w, r, h.routes.Limit(), maxRouteLimit)
	if !ok {
		return
	}
	t, err := h.trips.Dataset(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	summary, err := h.routes.Summary(t, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GetLive returns the live station snapshot, or 503 when no feed is configured.
func (h *APIHandler) GetLive(w http.ResponseWriter, r *http.Request) {
	snap, err := h.live.Snapshot(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Healthz reports liveness. It does not touch the dataset or the feeds.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *APIHandler) limitParam(w http.ResponseWriter, r *http.Request, def, max int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > max {
		h.writeError(w, r, domain.ErrValidation("limit must be an integer between 1 and %d", max))
		return 0, false
	}
	return n, true
}

func (h *APIHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := httpStatusFromDomainError(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		h.logger.Error("api request failed", "path", r.URL.Path, "error", err)
		msg = "internal error"
	} else {
		h.logger.Warn("api request failed", "path", r.URL.Path, "status", code, "error", err)
	}
	writeJSON(w, code, Error{
		Code:      code,
		Message:   msg,
		RequestID: middleware.RequestIDFromContext(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
