package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bookmind-ai/bookmind-go/internal/agents"
	"github.com/bookmind-ai/bookmind-go/internal/catalog"
	"github.com/bookmind-ai/bookmind-go/internal/embedder"
	"github.com/bookmind-ai/bookmind-go/internal/orchestrator"
	"github.com/bookmind-ai/bookmind-go/internal/provider"
	"github.com/bookmind-ai/bookmind-go/internal/rag"
	"github.com/bookmind-ai/bookmind-go/internal/server"
	"github.com/bookmind-ai/bookmind-go/internal/vectorindex"
)

// retrievalStack bundles the embedder, index, catalog, and retriever that
// every retrieval-backed command needs, plus a close function releasing them.
type retrievalStack struct {
	embedder  rag.Embedder
	index     vectorindex.Index
	books     catalog.Store
	retriever rag.Retriever
	close     func()
}

// buildRetrievalStack constructs the embedder, vector index, and catalog from
// the environment and wires them into a retriever. The index dimension and
// model version follow the embedder so the two can never drift apart.
func buildRetrievalStack(ctx context.Context, log *slog.Logger) (*retrievalStack, error) {
	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to initialise embedder: %w", err)
	}
	backend := embedder.ResolveBackend()
	dims := getEnvInt("EMBEDDING_DIMENSIONS", embedder.DefaultDimensions(backend))
	log.Info("embedder initialised",
		slog.String("backend", backend),
		slog.String("model", emb.Model()),
		slog.Int("dimensions", dims),
	)

	index, err := vectorindex.NewFromEnv(ctx, dims, emb.Model())
	if err != nil {
		return nil, fmt.Errorf("failed to open vector index: %w", err)
	}

	dbPath := os.Getenv("CATALOG_DB")
	if dbPath == "" {
		dbPath, err = catalog.DefaultDBPath()
		if err != nil {
			_ = index.Close()
			return nil, err
		}
	}
	books, err := catalog.Open(dbPath)
	if err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("failed to open catalog at %s: %w", dbPath, err)
	}
	log.Info("catalog opened", slog.String("path", dbPath))

	retriever, err := rag.NewRetriever(emb, index, books, getEnvInt("RETRIEVAL_TOP_K", 5))
	if err != nil {
		_ = index.Close()
		_ = books.Close()
		return nil, fmt.Errorf("failed to build retriever: %w", err)
	}

	return &retrievalStack{
		embedder:  emb,
		index:     index,
		books:     books,
		retriever: retriever,
		close: func() {
			_ = index.Close()
			_ = books.Close()
		},
	}, nil
}

// buildOrchestrator wires every capability agent into a registry and returns
// the orchestrator executing against it, registered on reg.
func buildOrchestrator(ctx context.Context, stack *retrievalStack, log *slog.Logger, reg *prometheus.Registry) (*orchestrator.Orchestrator, error) {
	chatModel, err := provider.NewFromEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise model provider: %w", err)
	}
	log.Info("provider initialised", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

	registry, err := agents.NewRegistry(
		agents.NewRetrievalAgent(stack.retriever),
		agents.NewRecommendAgent(chatModel, 0),
		agents.NewAnalysisAgent(),
		agents.NewTrendsAgent(os.Getenv("TRENDS_FEED_URL")),
		agents.NewNotifyAgent(agents.NotifyConfig{
			Endpoint: os.Getenv("PUSHOVER_ENDPOINT"),
			Token:    os.Getenv("PUSHOVER_TOKEN"),
			User:     os.Getenv("PUSHOVER_USER"),
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build capability registry: %w", err)
	}

	retry := orchestrator.RetryPolicy{
		MaxAttempts: getEnvInt("ORCH_MAX_ATTEMPTS", 0),
		BaseDelay:   time.Duration(getEnvInt("ORCH_RETRY_BASE_MS", 0)) * time.Millisecond,
	}
	return orchestrator.New(registry, retry, log, reg), nil
}

// buildPingers assembles the readiness probes for the dependencies this
// deployment actually uses.
func buildPingers(stack *retrievalStack) []server.Pinger {
	pingers := []server.Pinger{
		server.NewEmbedderPinger(stack.embedder, embedder.ResolveBackend()),
		server.NewCatalogPinger(stack.books),
	}
	if qi, ok := stack.index.(*vectorindex.QdrantIndex); ok {
		pingers = append(pingers, server.NewQdrantPinger(qi.Client()))
	}
	return pingers
}

// getEnvInt reads an integer environment variable, falling back to def when
// unset or unparsable.
func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
