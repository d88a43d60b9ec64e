// Package cli provides the command-line interface for deepscout.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/anhoffmann/deepscout/internal/config"
	"github.com/anhoffmann/deepscout/internal/decompose"
	"github.com/anhoffmann/deepscout/internal/index"
	"github.com/anhoffmann/deepscout/internal/index/memory"
	"github.com/anhoffmann/deepscout/internal/index/surreal"
	"github.com/anhoffmann/deepscout/internal/llm"
	"github.com/anhoffmann/deepscout/internal/metrics"
	"github.com/anhoffmann/deepscout/internal/research"
	"github.com/anhoffmann/deepscout/internal/websearch"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config and metrics
	cfg       config.Config
	collector *metrics.Collector
	logClose  func() error

	// Lazy-initialized components
	store        index.Store
	idx          *index.Index
	model        *llm.Model
	decomposer   *decompose.Decomposer
	orchestrator *research.Orchestrator
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "deepscout",
	Short: "Retrieval-augmented research assistant",
	Long: `Deepscout is a retrieval-augmented research assistant. It chunks and
indexes documents into a vector store, answers questions against that
knowledge base, and runs multi-step research workflows that combine
local knowledge with web search.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}

		logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		slog.SetDefault(logger)
		logClose = cleanup

		collector = metrics.NewCollector()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			if err := store.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close index store: %v\n", err)
			}
		}
		if logClose != nil {
			_ = logClose()
		}
	},
}

// getOrchestrator wires the LLM, index and search backends on first use.
// Commands that only print config or version never pay for a connection.
func getOrchestrator(ctx context.Context) (*research.Orchestrator, error) {
	if orchestrator != nil {
		return orchestrator, nil
	}

	embedder, err := llm.NewEmbedder(cfg, collector)
	if err != nil {
		return nil, fmt.Errorf("init embedder: %w", err)
	}
	model, err = llm.NewModel(cfg, collector)
	if err != nil {
		return nil, fmt.Errorf("init model: %w", err)
	}

	switch cfg.IndexBackend {
	case config.IndexSurreal:
		store, err = surreal.New(ctx, surreal.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			Table:     cfg.Collection,
			Dimension: cfg.EmbedDimension,
		}, slog.Default())
		if err != nil {
			return nil, fmt.Errorf("connect to surrealdb: %w", err)
		}
	default:
		store = memory.New(cfg.Collection)
	}

	idx = index.New(embedder, store, collector)

	var search research.Searcher
	if cfg.SerperAPIKey != "" {
		client, err := websearch.NewClient(cfg.SerperAPIKey, collector)
		if err != nil {
			return nil, fmt.Errorf("init web search: %w", err)
		}
		search = client
	}

	decomposer = decompose.New(model)
	orchestrator = research.New(model, decomposer, idx, search, research.Config{
		MaxSubtasks:     cfg.MaxSubtasks,
		RetrievalLimit:  cfg.RetrievalLimit,
		MaxContextChars: cfg.MaxContextChars,
		Workers:         cfg.WorkflowWorkers,
	})
	return orchestrator, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(quickCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(topicCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(researchCmd)
	rootCmd.AddCommand(statsCmd)
}
