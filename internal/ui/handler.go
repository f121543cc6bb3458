// Package ui renders the server-side dashboard pages.
package ui

import (
	"log/slog"
	"net/http"
	"strconv"

	"bike-dash/internal/service/live"
	"bike-dash/internal/service/routes"
	"bike-dash/internal/service/trips"

	gomponents "maragu.dev/gomponents"
)

type Handler struct {
	Trips      *trips.Service
	Routes     *routes.Service
	Live       *live.Service
	Production bool
	Logger     *slog.Logger
}

func NewHandler(
	tripsSvc *trips.Service,
	routesSvc *routes.Service,
	liveSvc *live.Service,
	production bool,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Trips:      tripsSvc,
		Routes:     routesSvc,
		Live:       liveSvc,
		Production: production,
		Logger:     logger,
	}
}

// intParam reads a positive integer query parameter, clamped to max.
// Missing or unparsable values yield def.
func intParam(r *http.Request, name string, def, max int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

func renderHTML(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}
