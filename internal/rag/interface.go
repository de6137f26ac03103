// Package rag defines the retrieval layer: converting a query into an
// embedding, searching the vector index, and resolving hits back into full
// catalog records. Concrete embedders and index backends satisfy these
// interfaces so the agent layer never depends on a specific backend.
package rag

import (
	"context"
	"errors"

	"github.com/bookmind-ai/bookmind-go/internal/catalog"
)

// ErrEmbeddingUnavailable wraps embedder failures so callers can distinguish
// "the embedding backend is down" (retryable) from other retrieval errors.
var ErrEmbeddingUnavailable = errors.New("rag: embedding backend unavailable")

// ScoredBook is a catalog record paired with its retrieval similarity score.
type ScoredBook struct {
	// Book is the full catalog record for the hit.
	Book catalog.BookRecord

	// Score is the cosine similarity of the hit to the query.
	Score float32
}

// Embedder converts text into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Model returns the identifier of the embedding model in use. The vector
	// index records it so stale snapshots are detected at load time.
	Model() string
}

// Retriever fetches the books most relevant to a free-text query.
// Implementations must be safe to call from multiple goroutines.
type Retriever interface {
	// Retrieve returns the top-k most relevant books for the query, ordered
	// by descending similarity.
	Retrieve(ctx context.Context, query string, topK int) ([]ScoredBook, error)
}
