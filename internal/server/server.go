// Package server implements the HTTP server that exposes the BookMind
// orchestrator via a REST API. The server is started by the `bookmind serve`
// CLI command.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bookmind-ai/bookmind-go/internal/logging"
	"github.com/bookmind-ai/bookmind-go/internal/orchestrator"
	"github.com/bookmind-ai/bookmind-go/internal/version"
)

// New constructs a Server from the provided executor and config.
func New(exec Executor, cfg *Config) (*Server, error) {
	if exec == nil {
		return nil, fmt.Errorf("server: executor must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// WriteTimeout must outlast the orchestrator's slowest task chain.
		cfg.WriteTimeout = 5 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = prometheus.NewRegistry()
	}

	s := &Server{
		exec:    exec,
		cfg:     cfg,
		log:     cfg.Logger,
		pingers: cfg.Pingers,
		metrics: newServerMetrics(cfg.Metrics),
	}
	if cfg.APIKey == "" {
		s.log.Warn("server: BOOKMIND_API_KEY not set, authentication disabled")
	}

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, s.log)
	s.stopRL = stopRL

	protected := func(name string, h http.HandlerFunc) http.Handler {
		return authMiddleware(cfg.APIKey, rl.middleware(s.instrument(name, h)))
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/recommend", protected("recommend", s.handleRecommend))
	mux.Handle("GET /api/health", s.instrument("health", s.handleHealth))
	mux.Handle("GET /api/ready", s.instrument("ready", s.handleReady))
	mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.Metrics, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      requestLogger(s.log, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Handler returns the server's root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	defer s.stopRL()

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server: listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// handleRecommend handles POST /api/recommend. It maps the JSON body onto an
// orchestrator request, executes it, and returns the aggregated response.
// Partial results are still 200 — the partial flag in the body tells the
// client which capabilities degraded.
func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.metrics.recommendRequestsTotal.WithLabelValues("bad_request").Inc()
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Query == "" && req.Title == "" && req.Message == "" {
		s.metrics.recommendRequestsTotal.WithLabelValues("bad_request").Inc()
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}

	start := time.Now()
	resp, err := s.exec.Execute(r.Context(), req.toRequest())
	elapsed := time.Since(start)

	switch {
	case errors.Is(err, orchestrator.ErrInvalidGraph), errors.Is(err, orchestrator.ErrGraphCycle):
		s.metrics.recommendRequestsTotal.WithLabelValues("bad_request").Inc()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		s.metrics.recommendRequestsTotal.WithLabelValues("error").Inc()
		log.Error("recommend: execution failed", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	outcome := "ok"
	if resp.Partial {
		outcome = "partial"
	}
	s.metrics.recommendRequestsTotal.WithLabelValues(outcome).Inc()
	s.metrics.recommendDurationSeconds.WithLabelValues(outcome).Observe(elapsed.Seconds())

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error("recommend: encode error", slog.Any("error", err))
	}
}

// handleHealth handles GET /api/health for liveness checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}
