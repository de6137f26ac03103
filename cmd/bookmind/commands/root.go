// Package commands defines all Cobra CLI commands for the bookmind binary.
package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bookmind-ai/bookmind-go/internal/audit"
	"github.com/bookmind-ai/bookmind-go/internal/config"
	"github.com/bookmind-ai/bookmind-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bookmind",
		Short: "BookMind — a multi-agent AI book recommendation assistant",
		Long: `BookMind is an AI assistant for readers. It answers natural language
requests for book recommendations, grounded in semantic search over your own
book catalog, and can analyze books, surface community reading trends, and
push notifications.

Model provider is selected via the MODEL_PROVIDER environment variable
or a YAML config file (~/.bookmind/config.yaml).
See 'bookmind --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// A local .env is a convenience for development; absence is fine.
			_ = godotenv.Load()

			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.bookmind/config.yaml)")

	root.AddCommand(
		NewRecommendCmd(),
		NewSearchCmd(),
		NewIngestCmd(),
		NewServeCmd(),
		NewVersionCmd(),
	)

	return root
}
