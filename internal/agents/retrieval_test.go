package agents

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bookmind-ai/bookmind-go/internal/catalog"
	"github.com/bookmind-ai/bookmind-go/internal/rag"
	"github.com/bookmind-ai/bookmind-go/internal/vectorindex"
)

// fakeRetriever returns canned results or a canned error.
type fakeRetriever struct {
	books []rag.ScoredBook
	err   error
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, topK int) ([]rag.ScoredBook, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.books, nil
}

func TestRetrievalHandleSuccess(t *testing.T) {
	t.Parallel()

	want := []rag.ScoredBook{
		{Book: catalog.BookRecord{ID: "b1", Title: "Dune"}, Score: 0.91},
	}
	a := NewRetrievalAgent(&fakeRetriever{books: want})

	res := a.Handle(context.Background(), Input{Query: "desert scifi", K: 3}, TaskContext{})
	if !res.Succeeded() {
		t.Fatalf("Handle failed: %v", res.Failure)
	}
	got := res.Payload.([]rag.ScoredBook)
	if len(got) != 1 || got[0].Book.ID != "b1" {
		t.Errorf("payload: got %+v", got)
	}
}

func TestRetrievalEmbeddingUnavailableIsRetryable(t *testing.T) {
	t.Parallel()

	a := NewRetrievalAgent(&fakeRetriever{
		err: fmt.Errorf("%w: connection refused", rag.ErrEmbeddingUnavailable),
	})

	res := a.Handle(context.Background(), Input{Query: "q"}, TaskContext{})
	if res.Succeeded() {
		t.Fatal("expected failure")
	}
	if res.Failure.Kind != FailureEmbeddingUnavailable {
		t.Errorf("failure kind: got %q, want %q", res.Failure.Kind, FailureEmbeddingUnavailable)
	}
	if !res.Failure.Retryable {
		t.Error("embedding unavailability must be retryable")
	}
}

func TestRetrievalIndexConfigErrorNotRetryable(t *testing.T) {
	t.Parallel()

	a := NewRetrievalAgent(&fakeRetriever{
		err: fmt.Errorf("rag: vector search failed: %w", vectorindex.ErrDimensionMismatch),
	})

	res := a.Handle(context.Background(), Input{Query: "q"}, TaskContext{})
	if res.Succeeded() {
		t.Fatal("expected failure")
	}
	if res.Failure.Kind != FailureIndexError {
		t.Errorf("failure kind: got %q, want %q", res.Failure.Kind, FailureIndexError)
	}
	if res.Failure.Retryable {
		t.Error("index configuration errors must not be retryable")
	}
}

func TestRegistryResolvesByKind(t *testing.T) {
	t.Parallel()

	retr := NewRetrievalAgent(&fakeRetriever{})
	anal := NewAnalysisAgent()
	reg, err := NewRegistry(retr, anal)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	got, err := reg.Get(KindAnalysis)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Kind() != KindAnalysis {
		t.Errorf("resolved wrong kind: %q", got.Kind())
	}

	if _, err := reg.Get(KindNotify); err == nil {
		t.Error("expected error for unregistered kind")
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	t.Parallel()

	if _, err := NewRegistry(NewAnalysisAgent(), NewAnalysisAgent()); err == nil {
		t.Error("expected error for duplicate capability kind")
	}
}

func TestFailureError(t *testing.T) {
	t.Parallel()

	f := &Failure{Kind: FailureSourceUnavailable, Message: "feed down", Retryable: true}
	var err error = f
	if !errors.As(err, &f) {
		t.Error("Failure should satisfy error")
	}
	if f.Error() != "SourceUnavailable: feed down" {
		t.Errorf("Error(): got %q", f.Error())
	}
}
