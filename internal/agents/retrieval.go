package agents

import (
	"context"
	"errors"

	"github.com/bookmind-ai/bookmind-go/internal/rag"
	"github.com/bookmind-ai/bookmind-go/internal/vectorindex"
)

// RetrievalAgent wraps the rag.Retriever behind the capability contract. It is
// side-effect-free and never mutates the index.
type RetrievalAgent struct {
	retriever rag.Retriever
}

// NewRetrievalAgent constructs a RetrievalAgent over the given retriever.
func NewRetrievalAgent(retriever rag.Retriever) *RetrievalAgent {
	return &RetrievalAgent{retriever: retriever}
}

// Kind returns KindRetrieval.
func (a *RetrievalAgent) Kind() Kind { return KindRetrieval }

// Handle retrieves the books most relevant to in.Query. The payload is a
// []rag.ScoredBook ordered by descending similarity.
func (a *RetrievalAgent) Handle(ctx context.Context, in Input, _ TaskContext) Result {
	books, err := a.retriever.Retrieve(ctx, in.Query, in.K)
	switch {
	case errors.Is(err, rag.ErrEmbeddingUnavailable):
		return Failf(FailureEmbeddingUnavailable, true, "embedding provider unavailable: %v", err)
	case errors.Is(err, vectorindex.ErrDimensionMismatch),
		errors.Is(err, vectorindex.ErrModelVersionMismatch):
		// Configuration error: retrying cannot help.
		return Failf(FailureIndexError, false, "index configuration error: %v", err)
	case err != nil:
		return Failf(FailureIndexError, false, "retrieval failed: %v", err)
	}
	return Success(books)
}
