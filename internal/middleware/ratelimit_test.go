package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLoginLimiterAllowsBurstThenBlocks(t *testing.T) {
	l := NewLoginLimiter(0.001, 3)

	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1:1234") {
			t.Fatalf("request %d within burst should be allowed", i+1)
		}
	}
	if l.Allow("10.0.0.1:1234") {
		t.Error("request over burst should be blocked")
	}
	// Separate IPs get separate buckets.
	if !l.Allow("10.0.0.2:1234") {
		t.Error("different IP should have its own bucket")
	}
}

func TestLoginLimiterMiddleware(t *testing.T) {
	l := NewLoginLimiter(0.001, 1)
	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	post := httptest.NewRequest(http.MethodPost, "/login", nil)
	post.RemoteAddr = "10.0.0.3:1234"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, post)
	if rec.Code != http.StatusOK {
		t.Fatalf("first POST status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, post)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second POST status = %d, want 429", rec.Code)
	}

	// GET is never throttled.
	get := httptest.NewRequest(http.MethodGet, "/login", nil)
	get.RemoteAddr = "10.0.0.3:1234"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, get)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d, want 200", rec.Code)
	}
}
