package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/anhoffmann/deepscout/internal/decompose"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan <task>",
	Short: "Decompose a task into a research plan",
	Long: `Break a complex task into ordered subtasks and estimate its complexity,
without executing anything.

Examples:
  deepscout plan "evaluate moving our event bus to NATS"
  deepscout plan "write a postmortem for the March outage"`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	task := args[0]
	ctx := context.Background()

	if _, err := getOrchestrator(ctx); err != nil {
		return err
	}

	complexity, err := decomposer.EstimateComplexity(ctx, task)
	if err != nil {
		return fmt.Errorf("estimate complexity: %w", err)
	}

	subtasks, err := decomposer.Decompose(ctx, task)
	if err != nil {
		return fmt.Errorf("decompose: %w", err)
	}

	fmt.Printf("Complexity: %s\n", complexity)
	fmt.Printf("Task type:  %s\n\n", decompose.IdentifyTaskType(task))

	if len(subtasks) == 0 {
		fmt.Println("No subtasks identified; the task may be simple enough to run directly.")
		return nil
	}

	for _, st := range decompose.Prioritize(subtasks) {
		fmt.Printf("%d. %s [%s]\n", st.ID+1, st.Title, st.ActionType)
		if st.Description != "" {
			fmt.Printf("   %s\n", st.Description)
		}
		if len(st.Dependencies) > 0 {
			deps := make([]string, len(st.Dependencies))
			for i, d := range st.Dependencies {
				deps[i] = fmt.Sprintf("%d", d+1)
			}
			fmt.Printf("   depends on: %s\n", strings.Join(deps, ", "))
		}
	}
	return nil
}
