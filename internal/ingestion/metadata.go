package ingestion

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/bookmind-ai/bookmind-go/internal/agents"
	"github.com/bookmind-ai/bookmind-go/internal/catalog"
)

// normalize validates a raw record and fills in derivable fields. Explicit
// values in the record take precedence over inferred ones — inference is the
// best-effort fallback when the source file doesn't carry the metadata.
func normalize(rec catalog.BookRecord) (catalog.BookRecord, error) {
	rec.Title = strings.TrimSpace(rec.Title)
	rec.Author = strings.TrimSpace(rec.Author)
	rec.Description = strings.TrimSpace(rec.Description)

	if rec.Title == "" {
		return catalog.BookRecord{}, fmt.Errorf("title is required")
	}
	if rec.Author == "" {
		rec.Author = "Unknown"
	}
	if rec.ID == "" {
		rec.ID = recordID(rec.Title, rec.Author)
	}

	if rec.Metadata == nil {
		rec.Metadata = make(map[string]string, 2)
	}
	if rec.Metadata["genre"] == "" {
		rec.Metadata["genre"] = agents.CategorizeGenres(rec.Description)[0]
	}

	return rec, nil
}

// indexMetadata builds the payload stored alongside the vector: enough to
// filter queries by genre and to render a degraded result when the catalog
// record is unavailable.
func indexMetadata(book catalog.BookRecord) map[string]string {
	return map[string]string{
		"title":  book.Title,
		"author": book.Author,
		"genre":  book.Metadata["genre"],
	}
}

// recordID generates a deterministic id for a book missing an ISBN, based on
// its title and author.
func recordID(title, author string) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%s", strings.ToLower(title), strings.ToLower(author))))
	return fmt.Sprintf("%x", h[:16])
}
