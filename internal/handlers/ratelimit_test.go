package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimiterThrottlesPerIP(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(0.001, 2)
	defer rl.Close()

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("10.0.0.1:1234"); code != http.StatusNoContent {
		t.Fatalf("first request = %d, want 204", code)
	}
	if code := send("10.0.0.1:1234"); code != http.StatusNoContent {
		t.Fatalf("second request = %d, want 204", code)
	}
	if code := send("10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Fatalf("third request = %d, want 429", code)
	}

	// A different client has its own bucket.
	if code := send("10.0.0.2:1234"); code != http.StatusNoContent {
		t.Fatalf("other client request = %d, want 204", code)
	}
}

func TestRateLimiterCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(1, 1)
	rl.Close()
	rl.Close()
}
