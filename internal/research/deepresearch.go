package research

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anhoffmann/deepscout/internal/decompose"
	"github.com/anhoffmann/deepscout/internal/index"
	"github.com/anhoffmann/deepscout/internal/websearch"
	"github.com/anhoffmann/deepscout/internal/workflow"
)

// Step ids of a deep-research run.
const (
	stepRetrieveKB  = "retrieve_kb"
	stepRetrieveWeb = "retrieve_web"
	stepSynthesize  = "synthesize"
	stepReport      = "report"
)

func subtaskStepID(i int) string {
	return fmt.Sprintf("subtask_%d", i)
}

// Options selects the sources of a deep-research run.
type Options struct {
	UseKB  bool
	UseWeb bool

	// MinSubtasks, when positive, makes the run fail with
	// decompose.ErrNoSubtasks if decomposition yields fewer subtasks.
	// Zero accepts a degenerate decomposition and runs on sources alone.
	MinSubtasks int
}

// SourceContent is the committed output of one retrieval step.
type SourceContent struct {
	Name    string
	Content string
	Items   int
}

// Report is the structured outcome of a deep-research run.
type Report struct {
	Query             string
	Plan              decompose.Plan
	Subtasks          []decompose.Subtask
	SourcesUsed       int
	SubtasksCompleted int
	Synthesis         string
	FinalReport       string
	Workflow          workflow.Result
}

// DeepResearch runs the full pipeline: decomposition, parallel retrieval
// from the configured sources, one analysis step per subtask, a synthesis
// step over everything gathered, and a final report. Retrieval failures
// degrade by omitting the source; subtask failures are isolated by the
// workflow engine and surface in Report.Workflow.
func (o *Orchestrator) DeepResearch(ctx context.Context, query string, opts Options) (*Report, error) {
	slog.Info("starting deep research", "query", query, "use_kb", opts.UseKB, "use_web", opts.UseWeb)

	plan, err := o.decomposer.CreatePlan(ctx, query)
	if err != nil {
		return nil, err
	}
	subtasks := plan.Subtasks
	if opts.MinSubtasks > 0 && len(subtasks) < opts.MinSubtasks {
		return nil, fmt.Errorf("%w: got %d, need %d", decompose.ErrNoSubtasks, len(subtasks), opts.MinSubtasks)
	}

	bound := len(subtasks)
	if bound > o.cfg.MaxSubtasks {
		bound = o.cfg.MaxSubtasks
	}

	steps, retrievalIDs, subtaskIDs := o.buildSteps(query, plan, subtasks[:bound], opts)

	graph, err := workflow.NewEngine(o.cfg.Workers).Build(steps)
	if err != nil {
		return nil, fmt.Errorf("build research workflow: %w", err)
	}

	o.progress.reset(graph.Len())
	run := workflow.NewContext()
	result := graph.ExecuteObserved(ctx, run, o.progress.observe)

	report := &Report{
		Query:    query,
		Plan:     plan,
		Subtasks: subtasks,
		Workflow: result,
	}
	for _, id := range retrievalIDs {
		if src, ok := result.Results[id].(SourceContent); ok && src.Items > 0 {
			report.SourcesUsed++
		}
	}
	for _, id := range subtaskIDs {
		if _, ok := result.Results[id]; ok {
			report.SubtasksCompleted++
		}
	}
	if s, ok := result.Results[stepSynthesize].(string); ok {
		report.Synthesis = s
	}
	if s, ok := result.Results[stepReport].(string); ok {
		report.FinalReport = s
	}

	slog.Info("deep research finished",
		"status", result.Status,
		"sources", report.SourcesUsed,
		"subtasks_completed", report.SubtasksCompleted)
	return report, nil
}

// buildSteps assembles the run's workflow graph: retrieval steps first,
// mutually independent subtask steps that depend only on retrieval, and
// synthesis/report steps that depend on everything before them.
func (o *Orchestrator) buildSteps(query string, plan decompose.Plan, subtasks []decompose.Subtask, opts Options) (steps []workflow.Step, retrievalIDs, subtaskIDs []string) {
	addRetrieval := func(id string, action workflow.Action) {
		retrievalIDs = append(retrievalIDs, id)
		steps = append(steps, workflow.Step{ID: id, Title: id, Action: action})
	}

	// Optional sources never fail their step; a broken source is omitted.
	if opts.UseKB {
		addRetrieval(stepRetrieveKB, func(ctx context.Context, _ *workflow.Context) (any, error) {
			if o.idx == nil {
				return SourceContent{Name: "knowledge_base"}, nil
			}
			results, err := o.idx.Query(ctx, query, DepthComprehensive.limit(), nil)
			if err != nil {
				slog.Warn("knowledge base source degraded", "error", err)
				return SourceContent{Name: "knowledge_base"}, nil
			}
			content := o.assembler.Assemble(results)
			if content == index.EmptyContext {
				content = ""
			}
			return SourceContent{Name: "knowledge_base", Content: content, Items: len(results)}, nil
		})
	}

	if opts.UseWeb && o.search != nil {
		addRetrieval(stepRetrieveWeb, func(ctx context.Context, _ *workflow.Context) (any, error) {
			results, err := o.search.Search(ctx, query, 5)
			if err != nil {
				slog.Warn("web source degraded", "error", err)
				return SourceContent{Name: "web_search"}, nil
			}
			lines := make([]string, 0, 3)
			for _, r := range results {
				lines = append(lines, fmt.Sprintf("%s: %s", r.Title, r.Snippet))
				if len(lines) == 3 {
					break
				}
			}
			return SourceContent{Name: "web_search", Content: strings.Join(lines, "\n\n"), Items: len(results)}, nil
		})
	}

	for i, subtask := range subtasks {
		id := subtaskStepID(i)
		subtaskIDs = append(subtaskIDs, id)
		title := subtask.Title
		steps = append(steps, workflow.Step{
			ID:           id,
			Title:        title,
			Dependencies: append([]string(nil), retrievalIDs...),
			Action: func(ctx context.Context, run *workflow.Context) (any, error) {
				return o.model.AnalyzeWithContext(ctx, title, gatherContent(run, retrievalIDs))
			},
		})
	}

	priorIDs := append(append([]string(nil), retrievalIDs...), subtaskIDs...)
	steps = append(steps, workflow.Step{
		ID:           stepSynthesize,
		Title:        "synthesize findings",
		Dependencies: priorIDs,
		Action: func(ctx context.Context, run *workflow.Context) (any, error) {
			var sources []string
			for _, id := range retrievalIDs {
				if v, ok := run.Get(id); ok {
					if src, ok := v.(SourceContent); ok && src.Content != "" {
						sources = append(sources, src.Content)
					}
				}
			}
			for _, id := range subtaskIDs {
				if v, ok := run.GetString(id); ok && v != "" {
					sources = append(sources, v)
				}
			}
			if len(sources) == 0 {
				return "No sources gathered.", nil
			}
			if len(sources) > 5 {
				sources = sources[:5]
			}
			return o.model.SynthesizeSources(ctx, sources)
		},
	})

	steps = append(steps, workflow.Step{
		ID:           stepReport,
		Title:        "render report",
		Dependencies: append(append([]string(nil), priorIDs...), stepSynthesize),
		Action: func(_ context.Context, run *workflow.Context) (any, error) {
			synthesis, _ := run.GetString(stepSynthesize)
			return renderReport(query, plan, run, retrievalIDs, subtasks, subtaskIDs, synthesis), nil
		},
	})

	return steps, retrievalIDs, subtaskIDs
}

// gatherContent joins the committed retrieval outputs into one context blob.
func gatherContent(run *workflow.Context, retrievalIDs []string) string {
	var parts []string
	for _, id := range retrievalIDs {
		if v, ok := run.Get(id); ok {
			if src, ok := v.(SourceContent); ok && src.Content != "" {
				parts = append(parts, src.Content)
			}
		}
	}
	return strings.Join(parts, "\n\n")
}

// renderReport produces the final markdown artifact.
func renderReport(query string, plan decompose.Plan, run *workflow.Context, retrievalIDs []string, subtasks []decompose.Subtask, subtaskIDs []string, synthesis string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Research Report: %s\n\n", query)
	fmt.Fprintf(&sb, "## Executive Summary\n%s\n\n", synthesis)
	fmt.Fprintf(&sb, "## Research Approach\n%s\n\n", truncate(plan.Plan, 500))

	sb.WriteString("## Key Findings\n")
	for i, id := range subtaskIDs {
		finding, ok := run.GetString(id)
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "\n### Finding %d: %s\n%s\n", i+1, subtasks[i].Title, truncate(finding, 400))
	}

	sb.WriteString("\n## Sources\n")
	n := 0
	for _, id := range retrievalIDs {
		v, ok := run.Get(id)
		if !ok {
			continue
		}
		src, ok := v.(SourceContent)
		if !ok || src.Items == 0 {
			continue
		}
		n++
		fmt.Fprintf(&sb, "%d. %s (%d items)\n", n, strings.ReplaceAll(src.Name, "_", " "), src.Items)
	}

	sb.WriteString("\n## Conclusion\nBased on the comprehensive analysis above, ")
	sb.WriteString(tail(synthesis, 300))

	return sb.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// Ensure the web searcher interface lines up with the concrete client.
var _ Searcher = (*websearch.Client)(nil)
