package rag

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bookmind-ai/bookmind-go/internal/catalog"
	"github.com/bookmind-ai/bookmind-go/internal/vectorindex"
)

// fakeEmbedder returns a fixed vector per known text and fails on demand.
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, ok := f.vectors[t]
		if !ok {
			return nil, fmt.Errorf("no fixture vector for %q", t)
		}
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeEmbedder) Model() string { return "fake-embedder-v1" }

func setupRetriever(t *testing.T, emb Embedder) (*DefaultRetriever, vectorindex.Index, catalog.Store) {
	t.Helper()

	idx, err := vectorindex.NewMemoryIndex(vectorindex.MemoryConfig{
		Dimension:    3,
		ModelVersion: "fake-embedder-v1",
	})
	if err != nil {
		t.Fatal(err)
	}

	books, err := catalog.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = books.Close() })

	r, err := NewRetriever(emb, idx, books, 5)
	if err != nil {
		t.Fatal(err)
	}
	return r, idx, books
}

func TestRetrieveResolvesCatalogRecords(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	emb := &fakeEmbedder{vectors: map[string][]float32{
		"epic fantasy quest": {1, 0, 0},
	}}
	r, idx, books := setupRetriever(t, emb)

	fellowship := catalog.BookRecord{
		ID: "b1", Title: "The Fellowship of the Ring", Author: "J.R.R. Tolkien",
		Description: "An epic fantasy quest.",
	}
	dune := catalog.BookRecord{
		ID: "b2", Title: "Dune", Author: "Frank Herbert",
		Description: "Desert planet politics.",
	}
	for _, b := range []catalog.BookRecord{fellowship, dune} {
		if err := books.Put(ctx, b); err != nil {
			t.Fatal(err)
		}
	}
	if err := idx.Upsert(ctx, "b1", []float32{0.99, 0.01, 0}, nil); err != nil {
		t.Fatal(err)
	}
	if err := idx.Upsert(ctx, "b2", []float32{0, 1, 0}, nil); err != nil {
		t.Fatal(err)
	}

	got, err := r.Retrieve(ctx, "epic fantasy quest", 2)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].Book.ID != "b1" || got[0].Book.Title != fellowship.Title {
		t.Errorf("top result: got %+v, want fellowship", got[0].Book)
	}
	if got[0].Score <= got[1].Score {
		t.Errorf("results not ordered by score: %v then %v", got[0].Score, got[1].Score)
	}
}

func TestRetrieveEmptyIndexReturnsNoResults(t *testing.T) {
	t.Parallel()

	emb := &fakeEmbedder{vectors: map[string][]float32{"anything": {1, 0, 0}}}
	r, _, _ := setupRetriever(t, emb)

	got, err := r.Retrieve(context.Background(), "anything", 3)
	if err != nil {
		t.Fatalf("empty index should not error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no results, got %d", len(got))
	}
}

func TestRetrieveEmbedderFailure(t *testing.T) {
	t.Parallel()

	emb := &fakeEmbedder{err: errors.New("connection refused")}
	r, _, _ := setupRetriever(t, emb)

	_, err := r.Retrieve(context.Background(), "anything", 3)
	if !errors.Is(err, ErrEmbeddingUnavailable) {
		t.Errorf("expected ErrEmbeddingUnavailable, got %v", err)
	}
}

func TestRetrieveFallsBackToIndexMetadata(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	emb := &fakeEmbedder{vectors: map[string][]float32{"orphan": {1, 0, 0}}}
	r, idx, _ := setupRetriever(t, emb)

	// Vector present, catalog row missing.
	meta := map[string]string{"title": "Orphaned Book", "author": "Unknown"}
	if err := idx.Upsert(ctx, "orphan-1", []float32{1, 0, 0}, meta); err != nil {
		t.Fatal(err)
	}

	got, err := r.Retrieve(ctx, "orphan", 1)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 result, got %d", len(got))
	}
	if got[0].Book.ID != "orphan-1" || got[0].Book.Title != "Orphaned Book" {
		t.Errorf("fallback record wrong: %+v", got[0].Book)
	}
}

func TestRetrieveDefaultTopK(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	emb := &fakeEmbedder{vectors: map[string][]float32{"q": {1, 0, 0}}}
	r, idx, _ := setupRetriever(t, emb)

	for i := 0; i < 8; i++ {
		id := fmt.Sprintf("b%d", i)
		if err := idx.Upsert(ctx, id, []float32{1, float32(i) * 0.01, 0}, nil); err != nil {
			t.Fatal(err)
		}
	}

	got, err := r.Retrieve(ctx, "q", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 5 {
		t.Errorf("topK=0 should use default 5, got %d results", len(got))
	}
}
