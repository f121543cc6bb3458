package ui

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"
	"time"

	gomponents "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"

	"bike-dash/internal/middleware"
)

const (
	csrfCookieName = "bikedash_csrf"
	csrfFormField  = "csrf_token"
	csrfHeader     = "X-CSRF-Token"
	csrfCookieTTL  = 12 * time.Hour
	csrfTokenBytes = 32
)

type csrfContextKey struct{}

// EnsureCSRFToken issues the double-submit cookie on first visit and puts
// the token in the request context for csrfField.
func (h *Handler) EnsureCSRFToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := readCSRFCookie(r)
		if token == "" {
			token = newCSRFToken()
			http.SetCookie(w, &http.Cookie{
				Name:     csrfCookieName,
				Value:    token,
				Path:     "/ui",
				MaxAge:   int(csrfCookieTTL / time.Second),
				HttpOnly: true,
				Secure:   h.Production,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfContextKey{}, token)))
	})
}

// RequireCSRF guards the dashboard's state-changing requests (the dataset
// reload). A request passes when it is not cross-origin and the submitted
// token, from the header or the form, equals the cookie.
func (h *Handler) RequireCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		reason := ""
		cookie := readCSRFCookie(r)
		switch {
		case crossOrigin(r):
			reason = "cross-origin request"
		case cookie == "":
			reason = "missing CSRF cookie"
		case subtle.ConstantTimeCompare([]byte(cookie), []byte(submittedCSRFToken(r))) != 1:
			reason = "CSRF token mismatch"
		}
		if reason != "" {
			h.Logger.Warn("csrf check failed",
				"path", r.URL.Path,
				"reason", reason,
				"request_id", middleware.RequestIDFromContext(r.Context()),
			)
			renderHTML(w, http.StatusForbidden, errorPage("Request Rejected", "The form could not be verified ("+reason+"). Reload the page and try again."))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// csrfField renders the hidden form input carrying the current token.
func csrfField(r *http.Request) gomponents.Node {
	token, _ := r.Context().Value(csrfContextKey{}).(string)
	if token == "" {
		token = readCSRFCookie(r)
	}
	return html.Input(html.Type("hidden"), html.Name(csrfFormField), html.Value(token))
}

func submittedCSRFToken(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(csrfHeader)); v != "" {
		return v
	}
	_ = r.ParseForm()
	return strings.TrimSpace(r.PostForm.Get(csrfFormField))
}

// crossOrigin reports whether the browser says the request came from
// another site. Requests without Sec-Fetch-Site or Origin are not judged.
func crossOrigin(r *http.Request) bool {
	if site := r.Header.Get("Sec-Fetch-Site"); site == "cross-site" {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || origin == "null" {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil {
		return true
	}
	return !strings.EqualFold(u.Host, r.Host)
}

func readCSRFCookie(r *http.Request) string {
	cookie, err := r.Cookie(csrfCookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}

func newCSRFToken() string {
	b := make([]byte, csrfTokenBytes)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
