// Package catalog provides the source of truth for book records.
// The vector index stores embeddings keyed by book id only; all book
// metadata lives here. Keeping the two in sync on catalog change is the
// responsibility of the ingestion pipeline, not the index.
package catalog

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when no book exists for the given id.
var ErrNotFound = errors.New("catalog: book not found")

// BookRecord is a single book in the catalog. Records are immutable once
// indexed; re-ingesting replaces the record (and its vector) by ID.
type BookRecord struct {
	// ID is the stable unique key for the book (ISBN when available).
	ID string `json:"id"`

	// Title is the book title.
	Title string `json:"title"`

	// Author is the primary author name.
	Author string `json:"author"`

	// Description is the free-text description used for embedding.
	Description string `json:"description"`

	// Metadata holds scalar attributes (genre, year, pages, ...).
	Metadata map[string]string `json:"metadata,omitempty"`
}

// EmbeddingText returns the canonical text embedded for this record.
// Title and author are combined with the description so that queries
// mentioning either match well.
func (b BookRecord) EmbeddingText() string {
	return fmt.Sprintf("%s by %s. %s", b.Title, b.Author, b.Description)
}

// Store persists and retrieves BookRecords. Implementations must be safe
// for concurrent use.
type Store interface {
	// Put inserts or replaces a book by its ID.
	Put(ctx context.Context, book BookRecord) error

	// Get returns the book with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (BookRecord, error)

	// Delete removes a book; deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error

	// List returns all books ordered by id.
	List(ctx context.Context) ([]BookRecord, error)

	// Close releases any resources held by the store.
	Close() error
}
