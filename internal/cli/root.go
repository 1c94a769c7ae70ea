// Package cli provides the command-line interface for scout.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/scout-go/internal/agent"
	"github.com/raphaelgruber/scout-go/internal/config"
	"github.com/raphaelgruber/scout-go/internal/db"
	"github.com/raphaelgruber/scout-go/internal/episode"
	"github.com/raphaelgruber/scout-go/internal/evolution"
	"github.com/raphaelgruber/scout-go/internal/llm"
	"github.com/raphaelgruber/scout-go/internal/strategy"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config and db client
	cfg      config.Config
	dbClient *db.Client
	logger   *slog.Logger
	closeLog func() error
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "scout",
	Short: "Self-tuning research agent",
	Long: `Scout runs research episodes against your topics and evolves each
topic's search strategy from the outcomes: save rates, follow-up counts
and tool usage feed a per-topic feedback loop that proposes new strategy
versions over time.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip DB connection for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		// Load config
		cfg = config.Load()
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}
		logger, closeLog = config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		slog.SetDefault(logger)

		// Commands going through a server don't need a local database.
		if f := cmd.Flags().Lookup("server"); f != nil && f.Value.String() != "" {
			return nil
		}

		// Connect to database
		ctx := context.Background()
		dbCfg := db.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}

		var err error
		dbClient, err = db.NewClient(ctx, dbCfg, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}

		// Initialize schema
		if err := dbClient.InitSchema(ctx); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if dbClient != nil {
			if err := dbClient.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
		if closeLog != nil {
			_ = closeLog()
		}
	},
}

// buildStack wires the in-process research stack: agent, strategy store,
// analyzer and episode controller, all backed by the connected database.
func buildStack() (*episode.Controller, *evolution.Analyzer) {
	newModel := func(ctx context.Context, tier string) (agent.ContentGenerator, error) {
		return llm.NewModel(ctx, cfg, tier)
	}

	registry := agent.NewDefaultRegistry(newModel, dbClient, logger)
	runner := agent.NewRunner(newModel, registry, logger)
	store := strategy.NewStore(dbClient, cfg.CandidateRollout, logger)
	analyzer := evolution.NewAnalyzer(dbClient, store, dbClient, cfg.MinEpisodes, nil, logger)
	controller := episode.NewController(dbClient, dbClient, dbClient, store, runner, analyzer, nil, logger)
	return controller, analyzer
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(researchCmd)
	rootCmd.AddCommand(evolutionsCmd)
	rootCmd.AddCommand(topicCmd)
	rootCmd.AddCommand(versionCmd)
}

// exitWithError prints an error message and exits with code 1.
func exitWithError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
