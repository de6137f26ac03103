package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bookmind-ai/bookmind-go/internal/logging"
)

// NewSearchCmd constructs the `bookmind search` command, which runs a plain
// semantic search over the indexed catalog without invoking the LLM.
func NewSearchCmd() *cobra.Command {
	var k int

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Semantic search over the indexed book catalog",
		Long: `Embed the query and return the closest books from the vector index,
ranked by cosine similarity. No LLM call is made — this is the raw retrieval
layer the recommendation agent builds on.

Examples:
  bookmind search "generation ships and slow journeys"
  bookmind search -k 10 "unreliable narrators"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()

			stack, err := buildRetrievalStack(ctx, log)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			defer stack.close()

			results, err := stack.retriever.Retrieve(ctx, args[0], k)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			if len(results) == 0 {
				fmt.Println("no results — is the catalog ingested? (bookmind ingest --file books.json)")
				return nil
			}

			for i, r := range results {
				fmt.Fprintf(os.Stdout, "%2d. %-40s %-24s %.3f\n", i+1, r.Book.Title, r.Book.Author, r.Score)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&k, "k", "k", 5, "Number of results to return")

	return cmd
}
