package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRateLimiterAllowsWithinBurst(t *testing.T) {
	t.Parallel()

	rl, stop := newRateLimiter(1, 3, discardLogger())
	t.Cleanup(stop)

	handler := rl.middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: got %d, want 200", i, rec.Code)
		}
	}
}

func TestRateLimiterRejectsBeyondBurst(t *testing.T) {
	t.Parallel()

	rl, stop := newRateLimiter(0.001, 1, discardLogger())
	t.Cleanup(stop)

	handler := rl.middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:5000"

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, req)
	if first.Code != http.StatusOK {
		t.Fatalf("first request: got %d, want 200", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, req)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: got %d, want 429", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
}

func TestRateLimiterIsPerIP(t *testing.T) {
	t.Parallel()

	rl, stop := newRateLimiter(0.001, 1, discardLogger())
	t.Cleanup(stop)

	handler := rl.middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, addr := range []string{"10.0.0.3:1", "10.0.0.4:1"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: got %d, want 200", addr, rec.Code)
		}
	}
}

func TestRateLimitDefaultsAreGenerationAware(t *testing.T) {
	t.Parallel()

	// Recommend requests trigger embedding and chat-model calls, so the
	// fallback limit must stay conservative.
	cfg := &Config{Logger: discardLogger()}
	srv, err := New(&fakeExecutor{resp: okResponse()}, cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(srv.stopRL)

	if cfg.RateLimit != 2 {
		t.Errorf("default rate limit: got %v, want 2 req/s", cfg.RateLimit)
	}
	if cfg.RateBurst != 5 {
		t.Errorf("default burst: got %d, want 5", cfg.RateBurst)
	}
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		addr string
		want string
	}{
		{"192.168.1.1:8080", "192.168.1.1"},
		{"[::1]:8080", "[::1]"},
		{"noport", "noport"},
	}
	for _, tt := range tests {
		r, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "/", nil)
		r.RemoteAddr = tt.addr
		if got := clientIP(r); got != tt.want {
			t.Errorf("clientIP(%q): got %q, want %q", tt.addr, got, tt.want)
		}
	}
}
