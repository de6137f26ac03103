package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bookmind-ai/bookmind-go/internal/agents"
	"github.com/bookmind-ai/bookmind-go/internal/orchestrator"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response. It must
	// cover a full orchestrated request including LLM generation.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, slog.Default is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 2 if zero — each recommend
	// request costs embedding and chat-model calls.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 5 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// Metrics is the Prometheus registry served by GET /metrics and used for
	// the server's own metrics. If nil a fresh registry is created.
	Metrics *prometheus.Registry
}

// Executor runs one orchestrated request. *orchestrator.Orchestrator
// satisfies it; tests inject a fake.
type Executor interface {
	Execute(ctx context.Context, req orchestrator.Request) (*orchestrator.Response, error)
}

// Server is the HTTP front end for the orchestrator.
type Server struct {
	// exec runs the orchestrated request behind POST /api/recommend.
	exec Executor
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds the server's Prometheus instruments.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// recommendRequest is the JSON body for POST /api/recommend.
type recommendRequest struct {
	// Query is the user's free-text request.
	Query string `json:"query"`
	// Capabilities selects which agents run. Defaults to ["recommend"].
	Capabilities []string `json:"capabilities,omitempty"`
	// K bounds the number of results per capability.
	K int `json:"k,omitempty"`
	// Genre narrows trends discovery.
	Genre string `json:"genre,omitempty"`
	// Title, Author, Description, Pages describe the book for analysis.
	Title       string `json:"title,omitempty"`
	Author      string `json:"author,omitempty"`
	Description string `json:"description,omitempty"`
	Pages       int    `json:"pages,omitempty"`
	// Message and Subject feed the notification capability.
	Message string `json:"message,omitempty"`
	Subject string `json:"subject,omitempty"`
}

// toRequest converts the JSON body into an orchestrator request.
func (r recommendRequest) toRequest() orchestrator.Request {
	caps := make([]agents.Kind, 0, len(r.Capabilities))
	for _, c := range r.Capabilities {
		caps = append(caps, agents.Kind(c))
	}
	if len(caps) == 0 {
		caps = []agents.Kind{agents.KindRecommend}
	}
	return orchestrator.Request{
		Query:        r.Query,
		Capabilities: caps,
		K:            r.K,
		Genre:        r.Genre,
		Title:        r.Title,
		Author:       r.Author,
		Description:  r.Description,
		Pages:        r.Pages,
		Message:      r.Message,
		Subject:      r.Subject,
	}
}
