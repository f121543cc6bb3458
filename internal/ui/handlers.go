package ui

import (
	"errors"
	"net/http"

	"bike-dash/internal/domain"
	"bike-dash/internal/service/trips"
)

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	info, err := h.Trips.Info(r.Context())
	msg := ""
	if err != nil {
		h.Logger.Warn("dataset unavailable", "error", err)
		msg = err.Error()
		info = nil
	}
	renderHTML(w, http.StatusOK, overviewPage(info, msg, h.Live.Enabled()))
}

func (h *Handler) TripsPage(w http.ResponseWriter, r *http.Request) {
	rows := intParam(r, "rows", trips.DefaultPreviewRows, trips.MaxPreviewRows)
	info, err := h.Trips.Info(r.Context())
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	preview, err := h.Trips.Preview(r.Context(), rows)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	renderHTML(w, http.StatusOK, tripsPage(r, info, preview, r.URL.Query().Get("reloaded") == "1"))
}

func (h *Handler) ReloadTrips(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Trips.Reload(r.Context()); err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	http.Redirect(w, r, "/ui/trips?reloaded=1", http.StatusSeeOther)
}

func (h *Handler) RoutesPage(w http.ResponseWriter, r *http.Request) {
	limit := intParam(r, "limit", h.Routes.Limit(), 100)
	t, err := h.Trips.Dataset(r.Context())
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	summary, err := h.Routes.Summary(t, limit)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	renderHTML(w, http.StatusOK, routesPage(summary, limit))
}

func (h *Handler) LivePage(w http.ResponseWriter, r *http.Request) {
	if !h.Live.Enabled() {
		renderHTML(w, http.StatusOK, liveDisabledPage())
		return
	}
	snap, err := h.Live.Snapshot(r.Context())
	if err != nil {
		h.Logger.Warn("live snapshot unavailable", "error", err)
		renderHTML(w, statusFromError(err), liveErrorPage(err.Error()))
		return
	}
	renderHTML(w, http.StatusOK, livePage(snap, h.Live.IndexURL()))
}

// statusFromError maps domain error categories to HTTP status codes.
func statusFromError(err error) int {
	var notFound *domain.NotFoundError
	var validation *domain.ValidationError
	var fetch *domain.FetchError
	var malformed *domain.MalformedError
	var mismatch *domain.SchemaMismatchError

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &fetch), errors.As(err, &malformed),
		errors.Is(err, domain.ErrMalformedIndex), errors.Is(err, domain.ErrFeedNotFound):
		return http.StatusBadGateway
	case errors.As(err, &mismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrFeatureDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) renderServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFromError(err)
	title := "Unexpected Error"
	message := "An unexpected error occurred while loading this page."

	switch status {
	case http.StatusNotFound:
		title, message = "No Trip Data", err.Error()
	case http.StatusBadRequest:
		title, message = "Invalid Request", err.Error()
	case http.StatusBadGateway:
		title, message = "Data Source Error", err.Error()
	case http.StatusUnprocessableEntity:
		title, message = "Unexpected Columns", err.Error()
	}

	h.Logger.Error("ui request failed", "path", r.URL.Path, "status", status, "error", err)
	renderHTML(w, status, errorPage(title, message))
}
