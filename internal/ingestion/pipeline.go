// Package ingestion implements the book catalog ingestion pipeline.
// It loads book records from JSON files, embeds each record's canonical
// text, and upserts the results into the catalog and the vector index in
// lockstep. This pipeline is invoked by the `bookmind ingest` CLI command.
package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/bookmind-ai/bookmind-go/internal/catalog"
	"github.com/bookmind-ai/bookmind-go/internal/rag"
	"github.com/bookmind-ai/bookmind-go/internal/vectorindex"
)

// Config holds the configuration for the ingestion pipeline.
type Config struct {
	// BatchSize is the number of records embedded per provider call.
	// Defaults to 32 if zero.
	BatchSize int
}

// Pipeline orchestrates the load → normalize → embed → upsert flow. The
// catalog is written before the index so that a successfully indexed id is
// always resolvable to a full record.
type Pipeline struct {
	// embedder converts record texts into dense vector embeddings.
	embedder rag.Embedder

	// index stores the embeddings for semantic search.
	index vectorindex.Index

	// books is the catalog the index ids resolve against.
	books catalog.Store

	// cfg holds the resolved pipeline configuration.
	cfg *Config
}

// NewPipeline constructs a Pipeline from the provided dependencies and config.
func NewPipeline(embedder rag.Embedder, index vectorindex.Index, books catalog.Store, cfg *Config) (*Pipeline, error) {
	if embedder == nil {
		return nil, fmt.Errorf("ingestion: embedder must not be nil")
	}
	if index == nil {
		return nil, fmt.Errorf("ingestion: index must not be nil")
	}
	if books == nil {
		return nil, fmt.Errorf("ingestion: catalog must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}

	return &Pipeline{
		embedder: embedder,
		index:    index,
		books:    books,
		cfg:      cfg,
	}, nil
}

// IngestFile loads a JSON array of book records from path and ingests them.
// It returns the number of records ingested.
func (p *Pipeline) IngestFile(ctx context.Context, path string, progress func(msg string)) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("ingestion: reading %s: %w", path, err)
	}

	var records []catalog.BookRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return 0, fmt.Errorf("ingestion: parsing %s: %w", path, err)
	}

	return p.Ingest(ctx, records, progress)
}

// Ingest normalizes, embeds, and stores the given records. It processes
// records in batches and returns the first error encountered along with the
// count of records fully ingested before it. Progress is reported via the
// optional progress callback.
func (p *Pipeline) Ingest(ctx context.Context, records []catalog.BookRecord, progress func(msg string)) (int, error) {
	if progress == nil {
		progress = func(string) {}
	}

	normalized := make([]catalog.BookRecord, 0, len(records))
	for i, rec := range records {
		book, err := normalize(rec)
		if err != nil {
			return 0, fmt.Errorf("ingestion: record %d: %w", i, err)
		}
		normalized = append(normalized, book)
	}

	done := 0
	for start := 0; start < len(normalized); start += p.cfg.BatchSize {
		end := start + p.cfg.BatchSize
		if end > len(normalized) {
			end = len(normalized)
		}
		batch := normalized[start:end]

		texts := make([]string, len(batch))
		for i, book := range batch {
			texts[i] = book.EmbeddingText()
		}

		embeddings, err := p.embedder.Embed(ctx, texts)
		if err != nil {
			return done, fmt.Errorf("ingestion: embedding batch at %d: %w", start, err)
		}
		if len(embeddings) != len(batch) {
			return done, fmt.Errorf("ingestion: embedder returned %d vectors for %d texts", len(embeddings), len(batch))
		}

		for i, book := range batch {
			if err := p.books.Put(ctx, book); err != nil {
				return done, fmt.Errorf("ingestion: storing %q: %w", book.ID, err)
			}
			if err := p.index.Upsert(ctx, book.ID, embeddings[i], indexMetadata(book)); err != nil {
				return done, fmt.Errorf("ingestion: indexing %q: %w", book.ID, err)
			}
			done++
		}

		progress(fmt.Sprintf("ingested %d/%d books", done, len(normalized)))
	}

	return done, nil
}

// Remove deletes a book from both the index and the catalog. The index is
// cleared first so a failure never leaves a searchable hit behind a missing
// record. Removing an absent id is not an error.
func (p *Pipeline) Remove(ctx context.Context, id string) error {
	if err := p.index.Delete(ctx, id); err != nil {
		return fmt.Errorf("ingestion: removing %q from index: %w", id, err)
	}
	if err := p.books.Delete(ctx, id); err != nil {
		return fmt.Errorf("ingestion: removing %q from catalog: %w", id, err)
	}
	return nil
}
