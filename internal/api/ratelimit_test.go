package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aviary-ai/aviary/internal/log"
)

func TestRateLimiterBurst(t *testing.T) {
	rl := newRateLimiter(0, 3) // no refill, 3 tokens

	for i := 0; i < 3; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d denied within burst", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Error("request allowed after burst exhausted")
	}

	// Other IPs are unaffected.
	if !rl.allow("10.0.0.2") {
		t.Error("fresh IP denied")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := newRateLimiter(0, 1)
	handler := rateLimitMiddleware(rl, false, log.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Error("429 response missing Retry-After header")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		realIP     string
		forwarded  string
		trustProxy bool
		want       string
	}{
		{"direct", "192.0.2.1:5000", "", "", false, "192.0.2.1"},
		{"ignores headers without trust", "192.0.2.1:5000", "203.0.113.9", "", false, "192.0.2.1"},
		{"x-real-ip", "192.0.2.1:5000", "203.0.113.9", "", true, "203.0.113.9"},
		{"x-forwarded-for first hop", "192.0.2.1:5000", "", "203.0.113.9, 198.51.100.2", true, "203.0.113.9"},
		{"invalid header falls back", "192.0.2.1:5000", "not-an-ip", "", true, "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := clientIP(req, tt.trustProxy); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
