package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/bookmind-ai/bookmind-go/internal/logging"
	"github.com/bookmind-ai/bookmind-go/internal/server"
	"github.com/bookmind-ai/bookmind-go/internal/tracing"
)

// NewServeCmd constructs the `bookmind serve` command, which starts the HTTP
// server exposing the orchestrator as a REST API.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the BookMind HTTP server",
		Long: `Start the BookMind HTTP server on localhost.

The server exposes POST /api/recommend for orchestrated requests, liveness
and readiness probes, and Prometheus metrics on GET /metrics.

Examples:
  bookmind serve
  bookmind serve --port 9090
  MODEL_PROVIDER=openai bookmind serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

			// Langfuse tracing — opt-in, no-op if keys are absent.
			flush, _ := tracing.Setup(log)
			defer flush()

			stack, err := buildRetrievalStack(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer stack.close()

			// One registry feeds both the orchestrator's and the server's
			// metrics, so GET /metrics exposes the whole picture.
			metrics := prometheus.NewRegistry()

			orch, err := buildOrchestrator(ctx, stack, log, metrics)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			if host == "" {
				host = os.Getenv("SERVER_HOST")
			}
			if port == 0 {
				port = getEnvInt("SERVER_PORT", 0)
			}

			srv, err := server.New(orch, &server.Config{
				Host:    host,
				Port:    port,
				Logger:  log,
				Pingers: buildPingers(stack),
				APIKey:  os.Getenv("BOOKMIND_API_KEY"),
				Metrics: metrics,
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Host address to bind to (default: 127.0.0.1)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "TCP port to listen on (default: 8080)")

	return cmd
}
