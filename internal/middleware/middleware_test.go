package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quizgen-backend/internal/models"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiter_BlocksAfterLimit(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()
	h := rl.Middleware(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/session/generate", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("expected first two requests to pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("expected third request to be limited, got %d", codes[2])
	}
}

func TestRateLimiter_ErrorEnvelope(t *testing.T) {
	rl := NewRateLimiter(0, time.Minute)
	defer rl.Stop()
	rl.Allow("10.0.0.2")

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rr := httptest.NewRecorder()
	rl.Middleware(okHandler()).ServeHTTP(rr, req)

	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Error.Code != "RATE_LIMITED" {
		t.Errorf("Expected RATE_LIMITED, got %q", resp.Error.Code)
	}
}

func TestRateLimiter_SeparateClientsAndWindowReset(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()

	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return current }

	if !rl.Allow("a") || !rl.Allow("b") {
		t.Fatal("expected first request of each client to pass")
	}
	if rl.Allow("a") {
		t.Fatal("expected second request in window to be limited")
	}

	current = current.Add(2 * time.Minute)
	if !rl.Allow("a") {
		t.Fatal("expected a new window to reset the counter")
	}
}

func TestCORS(t *testing.T) {
	h := CORS("http://localhost:8081")(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/session", nil)
	req.Header.Set("Origin", "http://localhost:8081")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected 204 for preflight, got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:8081" {
		t.Errorf("Expected allowed origin header, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	req.Header.Set("Origin", "http://evil.example")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Expected no CORS header for foreign origin, got %q", got)
	}
	if rr.Code != http.StatusOK {
		t.Errorf("Expected request to pass through, got %d", rr.Code)
	}
}
