package cli

import (
	"context"
	"fmt"

	"github.com/anhoffmann/deepscout/internal/research"
	"github.com/spf13/cobra"
)

var topicDepth string

var topicCmd = &cobra.Command{
	Use:   "topic <topic>",
	Short: "Summarize what the knowledge base holds on a topic",
	Long: `Retrieve documents about a topic and produce a structured research
summary (overview, key points, conclusions).

Examples:
  deepscout topic "service mesh migration"
  deepscout topic "rate limiting" --depth comprehensive`,
	Args: cobra.ExactArgs(1),
	RunE: runTopic,
}

func init() {
	topicCmd.Flags().StringVar(&topicDepth, "depth", "standard", "retrieval depth: quick, standard, comprehensive")
}

func runTopic(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	o, err := getOrchestrator(ctx)
	if err != nil {
		return err
	}

	summary, n, err := o.ResearchTopic(ctx, args[0], research.Depth(topicDepth))
	if err != nil {
		return fmt.Errorf("research topic: %w", err)
	}

	fmt.Println(summary)
	if n > 0 {
		fmt.Printf("\n(based on %d documents)\n", n)
	}
	return nil
}

var compareCmd = &cobra.Command{
	Use:   "compare <topic1> <topic2>",
	Short: "Compare two topics from the knowledge base",
	Long: `Research both topics in the knowledge base and contrast the findings.

Examples:
  deepscout compare "postgres" "surrealdb"
  deepscout compare "monolith deploy" "service deploy"`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	o, err := getOrchestrator(ctx)
	if err != nil {
		return err
	}

	comparison, err := o.CompareTopics(ctx, args[0], args[1])
	if err != nil {
		return fmt.Errorf("compare topics: %w", err)
	}

	fmt.Println(comparison)
	return nil
}
