package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question against the knowledge base",
	Long: `Retrieve relevant chunks from the knowledge base and synthesize an
answer with the configured LLM. Falls back to direct generation when
nothing relevant is stored.

Examples:
  deepscout ask "How does the auth service handle token refresh?"
  deepscout ask "What did we decide about sharding?"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	o, err := getOrchestrator(ctx)
	if err != nil {
		return err
	}

	answer, err := o.Ask(ctx, args[0])
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}

	fmt.Println(answer)
	return nil
}

var quickCmd = &cobra.Command{
	Use:   "quick <question>",
	Short: "Answer a question from the knowledge base and the web",
	Long: `Combine knowledge base retrieval with a web search (when SERPER_API_KEY
is set) into a single quick answer. A failing web search degrades to
knowledge base only.

Examples:
  deepscout quick "current Go release"
  deepscout quick "what is our deployment cadence?"`,
	Args: cobra.ExactArgs(1),
	RunE: runQuick,
}

func runQuick(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	o, err := getOrchestrator(ctx)
	if err != nil {
		return err
	}

	answer, err := o.QuickAnswer(ctx, args[0])
	if err != nil {
		return fmt.Errorf("quick answer: %w", err)
	}

	fmt.Println(answer)
	return nil
}
