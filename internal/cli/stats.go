package cli

import (
	"context"
	"fmt"

	"github.com/anhoffmann/deepscout/internal/metrics"
	"github.com/spf13/cobra"
)

var statsUsage bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show knowledge base and usage statistics",
	Long: `Show the size of the knowledge base and, with --usage, in-process
timing and token statistics for this invocation.

Examples:
  deepscout stats
  deepscout stats --usage`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsUsage, "usage", false, "show operation timing and token usage")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	o, err := getOrchestrator(ctx)
	if err != nil {
		return err
	}

	stats, err := o.Stats(ctx)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	fmt.Printf("Knowledge Base\n")
	fmt.Printf("══════════════\n")
	fmt.Printf("Collection: %s\n", stats.Name)
	fmt.Printf("Chunks:     %d\n", stats.Count)
	if stats.Location != "" {
		fmt.Printf("Backend:    %s\n", stats.Location)
	}

	if statsUsage {
		fmt.Println()
		printUsage(collector.Snapshot())
	}
	return nil
}

// printUsage displays runtime statistics for this process.
func printUsage(snap metrics.Snapshot) {
	fmt.Printf("Usage (this invocation)\n")
	fmt.Printf("═══════════════════════\n")
	fmt.Printf("Uptime: %.1f seconds\n", snap.UptimeSeconds)

	if snap.Embedding != nil {
		fmt.Printf("\nEmbeddings:\n")
		printOpStats(snap.Embedding)
	}

	if snap.LLMGenerate != nil {
		fmt.Printf("\nLLM Generate:\n")
		printOpStats(snap.LLMGenerate)
		printTokenStats(snap.LLMGenerate)
	}

	if snap.IndexAdd != nil {
		fmt.Printf("\nIndex Add:\n")
		printOpStats(snap.IndexAdd)
	}

	if snap.IndexQuery != nil {
		fmt.Printf("\nIndex Query:\n")
		printOpStats(snap.IndexQuery)
	}

	if snap.WebSearch != nil {
		fmt.Printf("\nWeb Search:\n")
		printOpStats(snap.WebSearch)
	}
}

// printOpStats displays timing statistics for an operation.
func printOpStats(op *metrics.OperationSnapshot) {
	fmt.Printf("  Calls: %d, Total: %dms\n", op.Count, op.TotalTimeMs)
	fmt.Printf("  Time: avg %.1fms, min %dms, max %dms\n",
		op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
}

// printTokenStats displays token statistics if available.
func printTokenStats(op *metrics.OperationSnapshot) {
	if op.TotalInputTokens == nil || op.TotalOutputTokens == nil {
		return
	}
	fmt.Printf("  Tokens In:  %d total", *op.TotalInputTokens)
	if op.AvgInputTokens != nil {
		fmt.Printf(", avg %.0f", *op.AvgInputTokens)
	}
	fmt.Println()

	fmt.Printf("  Tokens Out: %d total", *op.TotalOutputTokens)
	if op.AvgOutputTokens != nil {
		fmt.Printf(", avg %.0f", *op.AvgOutputTokens)
	}
	fmt.Println()
}
