package server

import (
	"net/http"
	"testing"
)

func TestAuthDisabledWhenNoKey(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeExecutor{resp: okResponse()}, &Config{})
	resp := postRecommend(t, srv, `{"query":"q"}`, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200 with auth disabled", resp.StatusCode)
	}
}

func TestAuthMissingHeader(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeExecutor{resp: okResponse()}, &Config{APIKey: "secret"})
	resp := postRecommend(t, srv, `{"query":"q"}`, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", resp.StatusCode)
	}
	if got := resp.Header.Get("WWW-Authenticate"); got == "" {
		t.Error("WWW-Authenticate challenge missing")
	}
}

func TestAuthInvalidToken(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeExecutor{resp: okResponse()}, &Config{APIKey: "secret"})
	resp := postRecommend(t, srv, `{"query":"q"}`, map[string]string{
		"Authorization": "Bearer wrong",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", resp.StatusCode)
	}
}

func TestAuthValidToken(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeExecutor{resp: okResponse()}, &Config{APIKey: "secret"})
	resp := postRecommend(t, srv, `{"query":"q"}`, map[string]string{
		"Authorization": "Bearer secret",
	})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
}

func TestAuthAPIKeyHeader(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeExecutor{resp: okResponse()}, &Config{APIKey: "secret"})

	resp := postRecommend(t, srv, `{"query":"q"}`, map[string]string{
		"X-API-Key": "secret",
	})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("valid X-API-Key: got %d, want 200", resp.StatusCode)
	}

	resp = postRecommend(t, srv, `{"query":"q"}`, map[string]string{
		"X-API-Key": "wrong",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("invalid X-API-Key: got %d, want 401", resp.StatusCode)
	}
}

func TestAuthBearerTakesPrecedenceOverAPIKeyHeader(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeExecutor{resp: okResponse()}, &Config{APIKey: "secret"})
	resp := postRecommend(t, srv, `{"query":"q"}`, map[string]string{
		"Authorization": "Bearer wrong",
		"X-API-Key":     "secret",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401 — a wrong Bearer token must not fall back to X-API-Key", resp.StatusCode)
	}
}

func TestAuthDoesNotGateHealth(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeExecutor{resp: okResponse()}, &Config{APIKey: "secret"})
	resp, err := srv.Client().Get(srv.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "absent", header: "", want: ""},
		{name: "well formed", header: "Bearer abc123", want: "abc123"},
		{name: "case insensitive scheme", header: "bearer abc123", want: "abc123"},
		{name: "wrong scheme", header: "Basic abc123", want: ""},
		{name: "no token", header: "Bearer", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, _ := http.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if got := bearerToken(r); got != tt.want {
				t.Errorf("bearerToken: got %q, want %q", got, tt.want)
			}
		})
	}
}
