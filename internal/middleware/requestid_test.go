package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serveWithID runs one request carrying header (when non-empty) through
// RequestID and returns the ID the handler saw and the response header.
func serveWithID(t *testing.T, header string) (seen, echoed string) {
	t.Helper()
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/trips", nil)
	if header != "" {
		req.Header.Set(RequestIDHeader, header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	return seen, rec.Header().Get(RequestIDHeader)
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{name: "absent", header: ""},
		{name: "uuid", header: "3f1c2a9e-5d7b-4c1e-9a0f-2b8e6d4c1a77", keep: true},
		{name: "dotted_trace", header: "dash.reload_7", keep: true},
		{name: "max_length", header: strings.Repeat("r", 128), keep: true},
		{name: "too_long", header: strings.Repeat("r", 129)},
		{name: "newline_forgery", header: "ok\nlevel=ERROR msg=forged"},
		{name: "carriage_return", header: "ok\rforged"},
		{name: "space", header: "two words"},
		{name: "markup", header: "<b>id</b>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen, echoed := serveWithID(t, tt.header)
			require.NotEmpty(t, seen)
			assert.Equal(t, seen, echoed, "context and response header agree")
			if tt.keep {
				assert.Equal(t, tt.header, seen)
			} else {
				assert.NotEqual(t, tt.header, seen)
				assert.Len(t, seen, 36, "replacement is a UUID")
			}
		})
	}
}

func TestRequestIDFromContext_EmptyWithoutMiddleware(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := RequestID(RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("A ↔ B"))
	})))

	req := httptest.NewRequest(http.MethodGet, "/ui/routes", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "http request", line["msg"])
	assert.Equal(t, "INFO", line["level"])
	assert.Equal(t, "GET", line["method"])
	assert.Equal(t, "/ui/routes", line["path"])
	assert.InDelta(t, float64(http.StatusOK), line["status"], 0)
	assert.InDelta(t, float64(len("A ↔ B")), line["bytes"], 0)
	assert.Equal(t, "req-42", line["request_id"])
}

func TestRequestLogLevel(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		status int
		want   slog.Level
	}{
		{name: "page", path: "/ui/trips", status: http.StatusOK, want: slog.LevelInfo},
		{name: "redirect", path: "/ui/trips/reload", status: http.StatusSeeOther, want: slog.LevelInfo},
		{name: "static_asset", path: "/ui/static/css/app.css", status: http.StatusOK, want: slog.LevelDebug},
		{name: "missing_asset", path: "/ui/static/nope.css", status: http.StatusNotFound, want: slog.LevelWarn},
		{name: "rate_limited", path: "/api/v1/routes", status: http.StatusTooManyRequests, want: slog.LevelWarn},
		{name: "upstream_failure", path: "/api/v1/live", status: http.StatusBadGateway, want: slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, requestLogLevel(tt.path, tt.status))
		})
	}
}
