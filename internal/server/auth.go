package server

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bookmind-ai/bookmind-go/internal/logging"
)

// authMiddleware returns an HTTP middleware that enforces API-key
// authentication. If apiKey is empty the middleware is a no-op — auth is
// disabled and a warning is logged at server startup (not per-request).
//
// Protected routes accept either header form:
//
//	Authorization: Bearer <apiKey>
//	X-API-Key: <apiKey>
//
// The X-API-Key form exists for reverse proxies and dashboard tooling that
// reserve the Authorization header for their own auth. When both headers are
// present the Bearer form wins. Comparison is constant-time. Requests missing
// or presenting an incorrect key receive 401 Unauthorized with a
// WWW-Authenticate: Bearer challenge. The invalid key value is never logged —
// only its presence/absence is recorded.
func authMiddleware(apiKey string, next http.Handler) http.Handler {
	if apiKey == "" {
		// Auth disabled — pass all requests through unchanged.
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logging.FromContext(r.Context())

		key := requestKey(r)
		if key == "" {
			log.Warn("auth: no credentials",
				slog.String("path", r.URL.Path),
			)
			w.Header().Set("WWW-Authenticate", `Bearer realm="bookmind"`)
			http.Error(w, "authorization required", http.StatusUnauthorized)
			return
		}

		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			log.Warn("auth: invalid key",
				slog.String("path", r.URL.Path),
				slog.Bool("key_present", true),
			)
			w.Header().Set("WWW-Authenticate", `Bearer realm="bookmind" error="invalid_token"`)
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requestKey extracts the API key from the request, preferring the
// Authorization Bearer form over X-API-Key. Returns "" when neither is set.
func requestKey(r *http.Request) string {
	if tok := bearerToken(r); tok != "" {
		return tok
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. Returns an empty string if the header is absent or malformed.
func bearerToken(r *http.Request) string {
	hdr := r.Header.Get("Authorization")
	if hdr == "" {
		return ""
	}
	parts := strings.SplitN(hdr, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
