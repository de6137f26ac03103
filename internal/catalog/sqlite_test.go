package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	book := BookRecord{
		ID:          "9780261103573",
		Title:       "The Fellowship of the Ring",
		Author:      "J.R.R. Tolkien",
		Description: "The first part of an epic fantasy quest.",
		Metadata:    map[string]string{"genre": "fantasy", "year": "1954"},
	}
	if err := s.Put(ctx, book); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := s.Get(ctx, book.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Title != book.Title || got.Author != book.Author {
		t.Errorf("got %+v, want %+v", got, book)
	}
	if got.Metadata["genre"] != "fantasy" {
		t.Errorf("metadata genre: got %q, want %q", got.Metadata["genre"], "fantasy")
	}
}

func TestPutReplacesByID(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, BookRecord{ID: "b1", Title: "Old", Author: "A", Description: "d"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, BookRecord{ID: "b1", Title: "New", Author: "A", Description: "d"}); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, "b1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "New" {
		t.Errorf("expected replaced title 'New', got %q", got.Title)
	}

	books, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(books) != 1 {
		t.Errorf("expected 1 book after replace, got %d", len(books))
	}
}

func TestGetNotFound(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteAbsentIsNoop(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	if err := s.Delete(context.Background(), "missing"); err != nil {
		t.Errorf("deleting absent id should not error, got %v", err)
	}
}

func TestListOrderedByID(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"c3", "a1", "b2"} {
		if err := s.Put(ctx, BookRecord{ID: id, Title: "T", Author: "A", Description: "d"}); err != nil {
			t.Fatal(err)
		}
	}

	books, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a1", "b2", "c3"}
	if len(books) != len(want) {
		t.Fatalf("expected %d books, got %d", len(want), len(books))
	}
	for i, id := range want {
		if books[i].ID != id {
			t.Errorf("position %d: got %q, want %q", i, books[i].ID, id)
		}
	}
}

func TestEmbeddingText(t *testing.T) {
	t.Parallel()
	b := BookRecord{Title: "Dune", Author: "Frank Herbert", Description: "Desert planet politics."}
	want := "Dune by Frank Herbert. Desert planet politics."
	if got := b.EmbeddingText(); got != want {
		t.Errorf("EmbeddingText: got %q, want %q", got, want)
	}
}

func TestDefaultDBPath(t *testing.T) {
	t.Parallel()

	path, err := DefaultDBPath()
	if err != nil {
		t.Fatalf("DefaultDBPath failed: %v", err)
	}
	want := filepath.Join(".bookmind", "books.db")
	if !strings.HasSuffix(path, want) {
		t.Errorf("path %q must end with %q", path, want)
	}
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("config directory was not created: %v", err)
	}
}
