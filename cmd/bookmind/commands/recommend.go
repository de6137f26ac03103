package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/bookmind-ai/bookmind-go/internal/agents"
	"github.com/bookmind-ai/bookmind-go/internal/logging"
	"github.com/bookmind-ai/bookmind-go/internal/orchestrator"
	"github.com/bookmind-ai/bookmind-go/internal/tracing"
)

// NewRecommendCmd constructs the `bookmind recommend` command, which runs a
// full orchestrated request from the terminal and prints the aggregated
// response as JSON.
func NewRecommendCmd() *cobra.Command {
	var k int
	var capabilities []string
	var genre string

	cmd := &cobra.Command{
		Use:   "recommend [query]",
		Short: "Ask BookMind for book recommendations",
		Long: `Run an orchestrated recommendation request against your book catalog.

The retrieval agent finds the closest books in the vector index, and the
recommendation agent grounds the LLM's suggestions in them. Additional
capabilities can run in the same request with --capabilities.

Examples:
  bookmind recommend "something like Dune but more hopeful"
  bookmind recommend -k 3 "cozy fantasy with found family"
  bookmind recommend --capabilities recommend,trends --genre fantasy "what should I read next?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			// Langfuse tracing — opt-in, no-op if keys are absent.
			flush, _ := tracing.Setup(log)
			defer flush()

			stack, err := buildRetrievalStack(ctx, log)
			if err != nil {
				return fmt.Errorf("recommend: %w", err)
			}
			defer stack.close()

			orch, err := buildOrchestrator(ctx, stack, log, prometheus.NewRegistry())
			if err != nil {
				return fmt.Errorf("recommend: %w", err)
			}

			kinds := make([]agents.Kind, 0, len(capabilities))
			for _, c := range capabilities {
				kinds = append(kinds, agents.Kind(c))
			}

			resp, err := orch.Execute(ctx, orchestrator.Request{
				Query:        args[0],
				Capabilities: kinds,
				K:            k,
				Genre:        genre,
			})
			if err != nil {
				return fmt.Errorf("recommend: %w", err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(resp) //nolint:wrapcheck // CLI entry point — error goes directly to cobra
		},
	}

	cmd.Flags().IntVarP(&k, "k", "k", 5, "Number of recommendations to return")
	cmd.Flags().StringSliceVar(&capabilities, "capabilities", []string{"recommend"}, "Capabilities to run (retrieval, recommend, analysis, trends, notify)")
	cmd.Flags().StringVarP(&genre, "genre", "g", "", "Genre to narrow trends discovery")

	return cmd
}
