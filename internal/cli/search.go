package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	searchLimit  int
	searchSource string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the knowledge base",
	Long: `Retrieve the most relevant chunks for a query and print them with
their relevance scores, without LLM synthesis.

Examples:
  deepscout search "vector index tuning"
  deepscout search "incident postmortem" --limit 10 --source runbooks`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 5, "max results")
	searchCmd.Flags().StringVar(&searchSource, "source", "", "restrict to a source")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	ctx := context.Background()

	if _, err := getOrchestrator(ctx); err != nil {
		return err
	}

	var filter map[string]string
	if searchSource != "" {
		filter = map[string]string{"source": searchSource}
	}

	results, err := idx.Query(ctx, query, searchLimit, filter)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	for i, r := range results {
		fmt.Printf("%d. %s (relevance %.2f)\n", i+1, r.Record.Chunk.SourceID, r.Relevance())
		fmt.Printf("   id: %s\n", r.Record.ID)
		fmt.Printf("   %s\n\n", snippet(r.Record.Chunk.Text, 200))
	}
	return nil
}

// snippet shortens chunk text for terminal display.
func snippet(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete chunks from the knowledge base",
	Long: `Delete one or more chunks by id. Ids are printed by 'deepscout search'.

Examples:
  deepscout delete 3f1c2a0e-...
  deepscout delete id1 id2 id3`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if _, err := getOrchestrator(ctx); err != nil {
		return err
	}

	if err := idx.Delete(ctx, args); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	fmt.Printf("Deleted %d chunks\n", len(args))
	return nil
}
