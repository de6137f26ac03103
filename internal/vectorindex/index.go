// Package vectorindex stores book embeddings and answers k-nearest-neighbour
// queries by cosine similarity. The index owns vectors only; book metadata is
// owned by the catalog and referenced by id.
//
// Two backends implement the same contract: an exact brute-force in-memory
// index with an on-disk snapshot (the default), and a Qdrant-backed index for
// larger deployments. Backend selection happens in the factory.
package vectorindex

import (
	"context"
	"errors"
)

// Contract errors surfaced to callers of the index.
var (
	// ErrDimensionMismatch is returned when a vector's length differs from
	// the index's configured dimension. Nothing is partially inserted.
	ErrDimensionMismatch = errors.New("vectorindex: vector dimension mismatch")

	// ErrModelVersionMismatch is returned when an index snapshot or
	// collection was produced by a different embedding model version.
	// Mixing model versions is a configuration error, never tolerated.
	ErrModelVersionMismatch = errors.New("vectorindex: embedding model version mismatch")

	// ErrEmptyIndex is returned by Query when the index holds zero entries.
	ErrEmptyIndex = errors.New("vectorindex: index is empty")

	// ErrInvalidK is returned by Query when k is not positive.
	ErrInvalidK = errors.New("vectorindex: k must be positive")
)

// Hit is a single query result: the id of a stored vector, its cosine
// similarity to the query vector, and the metadata stored alongside it.
type Hit struct {
	// ID is the book id the stored vector belongs to.
	ID string

	// Score is the cosine similarity in [-1, 1].
	Score float32

	// Metadata is the scalar metadata stored with the vector.
	Metadata map[string]string
}

// Filter restricts a query to entries whose metadata contains every listed
// key with an equal value. A nil or empty Filter matches all entries.
type Filter map[string]string

// Matches reports whether meta satisfies every constraint in f.
func (f Filter) Matches(meta map[string]string) bool {
	for k, want := range f {
		if meta[k] != want {
			return false
		}
	}
	return true
}

// Index is the vector index contract. Implementations must be safe for
// concurrent use: queries may run in parallel with each other, and mutations
// are isolated from in-flight queries (each query observes a consistent
// snapshot of the index).
type Index interface {
	// Upsert inserts or replaces the vector for id. Fails with
	// ErrDimensionMismatch if the vector length differs from the index's
	// configured dimension; the index is unchanged on failure.
	Upsert(ctx context.Context, id string, vector []float32, metadata map[string]string) error

	// Delete removes the vector for id. Deleting an absent id is a no-op.
	Delete(ctx context.Context, id string) error

	// Query returns the top-k stored vectors closest to vector by cosine
	// similarity, ordered by descending score with ascending-id tie-break.
	// Returns ErrEmptyIndex when the index holds zero entries; otherwise
	// returns min(k, size) hits. filter may be nil.
	Query(ctx context.Context, vector []float32, k int, filter Filter) ([]Hit, error)

	// Size returns the current entry count in O(1).
	Size() int

	// ModelVersion returns the embedding model version this index is
	// configured for. All stored vectors share it.
	ModelVersion() string

	// Close releases any resources held by the index.
	Close() error
}
