package cli

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/anhoffmann/deepscout/internal/research"
	"github.com/spf13/cobra"
)

var (
	researchNoKB        bool
	researchNoWeb       bool
	researchMinSubtasks int
	researchOutputFile  string
	researchPlain       bool
)

var researchCmd = &cobra.Command{
	Use:   "research <query>",
	Short: "Run a deep multi-step research workflow",
	Long: `Decompose the query into subtasks, retrieve from the knowledge base and
the web in parallel, analyze each subtask, and synthesize everything
into a final report.

Shows an interactive progress display while the workflow runs; use
--plain for non-interactive output (logs and pipes).

Examples:
  deepscout research "state of WASM on the server"
  deepscout research "compare our queueing options" -o report.md
  deepscout research "k8s upgrade risks" --no-web --plain`,
	Args: cobra.ExactArgs(1),
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().BoolVar(&researchNoKB, "no-kb", false, "skip knowledge base retrieval")
	researchCmd.Flags().BoolVar(&researchNoWeb, "no-web", false, "skip web search")
	researchCmd.Flags().IntVar(&researchMinSubtasks, "min-subtasks", 0, "fail unless decomposition yields at least this many subtasks")
	researchCmd.Flags().StringVarP(&researchOutputFile, "output", "o", "", "write the report to a file")
	researchCmd.Flags().BoolVar(&researchPlain, "plain", false, "disable the interactive progress display")
}

func runResearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	ctx := context.Background()

	o, err := getOrchestrator(ctx)
	if err != nil {
		return err
	}

	opts := research.Options{
		UseKB:       !researchNoKB,
		UseWeb:      !researchNoWeb,
		MinSubtasks: researchMinSubtasks,
	}

	run := func() (*research.Report, error) {
		return o.DeepResearch(ctx, query, opts)
	}

	var report *research.Report
	if researchPlain {
		report, err = run()
	} else {
		report, err = runResearchProgress(o, query, run)
	}
	if err != nil {
		return fmt.Errorf("research: %w", err)
	}
	if report == nil {
		return nil
	}

	if researchPlain {
		printStepSummary(report, o.Progress())
	}

	if researchOutputFile != "" {
		if err := os.WriteFile(researchOutputFile, []byte(report.FinalReport), 0644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Printf("Report written to %s\n", researchOutputFile)
		return nil
	}

	fmt.Println(report.FinalReport)
	return nil
}

// printStepSummary lists per-step outcomes for plain output.
func printStepSummary(report *research.Report, snap research.ProgressSnapshot) {
	ids := make([]string, 0, len(snap.Steps))
	for id := range snap.Steps {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Fprintf(os.Stderr, "Run %s: %d sources, %d subtasks completed\n",
		report.Workflow.Status, report.SourcesUsed, report.SubtasksCompleted)
	for _, id := range ids {
		fmt.Fprintf(os.Stderr, "  %s %s\n", statusGlyph(snap.Steps[id]), id)
	}
	fmt.Fprintln(os.Stderr)
}
