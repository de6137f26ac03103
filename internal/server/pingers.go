package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/bookmind-ai/bookmind-go/internal/catalog"
	"github.com/bookmind-ai/bookmind-go/internal/rag"
)

// EmbedderPinger probes an embedding backend by embedding a single short
// string. It satisfies the Pinger interface and is used by GET /api/ready.
type EmbedderPinger struct {
	// embedder is the embedding backend to probe.
	embedder rag.Embedder
	// name identifies the backend in readiness responses (e.g. "ollama").
	name string
}

// NewEmbedderPinger constructs an EmbedderPinger for the given backend name.
func NewEmbedderPinger(e rag.Embedder, name string) *EmbedderPinger {
	return &EmbedderPinger{embedder: e, name: name}
}

// Name returns the backend label used in readiness responses.
func (p *EmbedderPinger) Name() string { return p.name }

// Ping embeds one token and checks that a vector comes back.
func (p *EmbedderPinger) Ping(ctx context.Context) error {
	vecs, err := p.embedder.Embed(ctx, []string{"ping"})
	if err != nil {
		return fmt.Errorf("embed failed: %w", err)
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return fmt.Errorf("embed returned no vector")
	}
	return nil
}

// QdrantPinger probes a Qdrant instance using its native HealthCheck RPC.
type QdrantPinger struct {
	// client is the Qdrant gRPC client to probe.
	client *qdrant.Client
}

// NewQdrantPinger constructs a QdrantPinger for the given Qdrant client.
func NewQdrantPinger(client *qdrant.Client) *QdrantPinger {
	return &QdrantPinger{client: client}
}

// Name returns the dependency label used in readiness responses.
func (p *QdrantPinger) Name() string { return "qdrant" }

// Ping calls the Qdrant HealthCheck RPC.
func (p *QdrantPinger) Ping(ctx context.Context) error {
	if _, err := p.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// CatalogPinger probes the book catalog with a cheap point lookup.
type CatalogPinger struct {
	// store is the catalog to probe.
	store catalog.Store
}

// NewCatalogPinger constructs a CatalogPinger for the given store.
func NewCatalogPinger(store catalog.Store) *CatalogPinger {
	return &CatalogPinger{store: store}
}

// Name returns the dependency label used in readiness responses.
func (p *CatalogPinger) Name() string { return "catalog" }

// Ping issues a single-row lookup. A not-found result still proves the
// database answered the query.
func (p *CatalogPinger) Ping(ctx context.Context) error {
	_, err := p.store.Get(ctx, "__ready_probe__")
	if err != nil && !errors.Is(err, catalog.ErrNotFound) {
		return fmt.Errorf("lookup failed: %w", err)
	}
	return nil
}
