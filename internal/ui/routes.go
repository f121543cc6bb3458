package ui

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bike-dash/internal/ui/assets"
)

// MountRoutes registers the dashboard under the router it is given, which
// the server mounts at /ui.
func MountRoutes(r chi.Router, h *Handler) {
	staticFS, err := fs.Sub(assets.StaticFS(), "static")
	if err == nil {
		r.Handle("/static/*", http.StripPrefix("/ui/static/", http.FileServer(http.FS(staticFS))))
	}

	r.Group(func(r chi.Router) {
		r.Use(h.EnsureCSRFToken)
		r.Use(h.RequireCSRF)
		r.Get("/", h.Home)
		r.Get("/trips", h.TripsPage)
		r.Post("/trips/reload", h.ReloadTrips)
		r.Get("/routes", h.RoutesPage)
		r.Get("/live", h.LivePage)
	})
}
