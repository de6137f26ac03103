package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bookmind-ai/bookmind-go/internal/embedder"
	"github.com/bookmind-ai/bookmind-go/internal/ingestion"
	"github.com/bookmind-ai/bookmind-go/internal/logging"
)

// NewIngestCmd constructs the `bookmind ingest` command, which loads book
// records into the catalog and the vector index.
func NewIngestCmd() *cobra.Command {
	var files []string
	var remove []string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest book records into the catalog and vector index",
		Long: `Load book records from JSON files, embed each record, and store the
results in the catalog and the vector index. Records are JSON arrays of
{id, title, author, description, metadata} objects; missing ids and genres
are derived from the title, author, and description.

Required environment variables:
  MODEL_PROVIDER       Embedding backend: ollama, openai (default: ollama)
  EMBEDDING_*          Provider-specific overrides (see README)
  INDEX_BACKEND        Vector index: memory, qdrant (default: memory)
  QDRANT_*             Qdrant connection settings (INDEX_BACKEND=qdrant)
  CATALOG_DB           SQLite catalog path (default: ~/.bookmind/books.db)

Examples:
  bookmind ingest --file books.json
  bookmind ingest --file classics.json --file scifi.json
  bookmind ingest --remove 9780441013593`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()

			if len(files) == 0 && len(remove) == 0 {
				return fmt.Errorf("ingest: at least one --file or --remove is required")
			}

			if err := embedder.Validate(log); err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			stack, err := buildRetrievalStack(ctx, log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer stack.close()

			pipeline, err := ingestion.NewPipeline(stack.embedder, stack.index, stack.books, nil)
			if err != nil {
				return fmt.Errorf("ingest: failed to create pipeline: %w", err)
			}

			for _, id := range remove {
				if err := pipeline.Remove(ctx, id); err != nil {
					return fmt.Errorf("ingest: %w", err)
				}
				log.Info("book removed", slog.String("id", id))
			}

			total := 0
			for _, f := range files {
				n, err := pipeline.IngestFile(ctx, f, func(msg string) {
					log.Info(msg, slog.String("file", f))
				})
				if err != nil {
					return fmt.Errorf("ingest: %w", err)
				}
				total += n
			}

			if len(files) > 0 {
				log.Info("ingestion complete",
					slog.Int("books", total),
					slog.Int("index_size", stack.index.Size()),
				)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&files, "file", "f", nil, "JSON file of book records to ingest (repeatable)")
	cmd.Flags().StringArrayVar(&remove, "remove", nil, "Book id to remove from catalog and index (repeatable)")

	return cmd
}
