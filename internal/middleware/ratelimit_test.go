package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

// hit sends one dashboard request from addr through h.
func hit(h http.Handler, addr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ui/routes", nil)
	req.RemoteAddr = addr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_Burst(t *testing.T) {
	h := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 3}).Handler(okHandler)

	for i := range 3 {
		rec := hit(h, "10.0.0.1:4000")
		require.Equal(t, http.StatusOK, rec.Code, "request %d is within the burst", i+1)
		assert.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := hit(h, "10.0.0.1:4001")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code, "port changes do not reset the client")
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2:4000").Code, "other clients keep their own bucket")
}

func TestRateLimiter_ErrorBody(t *testing.T) {
	h := RequestID(NewRateLimiter(RateLimitConfig{RequestsPerSecond: 0.5, Burst: 1}).Handler(okHandler))

	hit(h, "10.0.0.1:1")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/routes", nil)
	req.RemoteAddr = "10.0.0.1:1"
	req.Header.Set(RequestIDHeader, "limited-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.InDelta(t, float64(http.StatusTooManyRequests), body["code"], 0)
	assert.Equal(t, "rate limit exceeded", body["message"])
	assert.Equal(t, "limited-1", body["request_id"])
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{name: "ipv4", remoteAddr: "192.168.1.1:12345", want: "192.168.1.1"},
		{name: "ipv6", remoteAddr: "[::1]:12345", want: "::1"},
		{name: "forwarded_header_ignored", remoteAddr: "10.0.0.1:1234", forwarded: "203.0.113.50", want: "10.0.0.1"},
		{name: "no_port", remoteAddr: "10.0.0.9", want: "10.0.0.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}

func TestRateLimiter_Prune(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 10, Burst: 10})
	l.now = func() time.Time { return now }
	h := l.Handler(okHandler)

	hit(h, "10.0.0.1:1")
	hit(h, "10.0.0.2:1")
	require.Equal(t, 2, l.Clients())

	now = now.Add(5 * time.Minute)
	hit(h, "10.0.0.2:1")

	now = now.Add(6 * time.Minute)
	assert.Equal(t, 1, l.Prune(DefaultClientIdle))
	assert.Equal(t, 1, l.Clients())
	assert.Equal(t, 0, l.Prune(DefaultClientIdle))
}
