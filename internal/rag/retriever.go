package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/bookmind-ai/bookmind-go/internal/catalog"
	"github.com/bookmind-ai/bookmind-go/internal/vectorindex"
)

// DefaultRetriever implements Retriever by combining an Embedder, a vector
// index, and the catalog. It embeds the query at retrieval time, searches the
// index, then resolves each hit id to its full catalog record.
type DefaultRetriever struct {
	// embedder converts query text to a dense vector.
	embedder Embedder

	// index performs the vector similarity search.
	index vectorindex.Index

	// books resolves hit ids to full records.
	books catalog.Store

	// defaultTopK is the number of results to return when the caller passes 0.
	defaultTopK int
}

// NewRetriever constructs a DefaultRetriever. defaultTopK sets the fallback
// result count when Retrieve is called with topK=0.
func NewRetriever(embedder Embedder, index vectorindex.Index, books catalog.Store, defaultTopK int) (*DefaultRetriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("rag: embedder must not be nil")
	}
	if index == nil {
		return nil, fmt.Errorf("rag: index must not be nil")
	}
	if books == nil {
		return nil, fmt.Errorf("rag: catalog store must not be nil")
	}
	if defaultTopK <= 0 {
		defaultTopK = 5
	}
	return &DefaultRetriever{
		embedder:    embedder,
		index:       index,
		books:       books,
		defaultTopK: defaultTopK,
	}, nil
}

// Retrieve embeds the query and returns the top-k most relevant books.
// An empty index yields an empty result, not an error: a fresh install with
// nothing ingested is a normal state for the assistant.
func (r *DefaultRetriever) Retrieve(ctx context.Context, query string, topK int) ([]ScoredBook, error) {
	if topK <= 0 {
		topK = r.defaultTopK
	}

	embeddings, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("%w: embedder returned empty result for query", ErrEmbeddingUnavailable)
	}

	hits, err := r.index.Query(ctx, embeddings[0], topK, nil)
	if errors.Is(err, vectorindex.ErrEmptyIndex) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("rag: vector search failed: %w", err)
	}

	results := make([]ScoredBook, 0, len(hits))
	for _, hit := range hits {
		book, err := r.books.Get(ctx, hit.ID)
		if errors.Is(err, catalog.ErrNotFound) {
			// Index and catalog drifted (e.g. catalog row deleted without
			// reindexing). Fall back to the metadata stored in the index so
			// the hit is still usable.
			book = catalog.BookRecord{
				ID:       hit.ID,
				Title:    hit.Metadata["title"],
				Author:   hit.Metadata["author"],
				Metadata: hit.Metadata,
			}
		} else if err != nil {
			return nil, fmt.Errorf("rag: resolve hit %s: %w", hit.ID, err)
		}
		results = append(results, ScoredBook{Book: book, Score: hit.Score})
	}

	return results, nil
}
