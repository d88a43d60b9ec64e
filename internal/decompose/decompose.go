package decompose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anhoffmann/deepscout/internal/llm"
)

// ErrNoSubtasks indicates decomposition produced zero usable subtasks where
// the caller's policy required at least one.
var ErrNoSubtasks = errors.New("decomposition produced no subtasks")

// Complexity buckets a task by its subtask count.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"   // <= 3 subtasks
	ComplexityModerate Complexity = "moderate" // 4-5 subtasks
	ComplexityComplex  Complexity = "complex"  // > 5 subtasks
)

// Generator is the generative backend a Decomposer prompts.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts llm.GenerateOptions) (string, error)
}

// Decomposer breaks complex research tasks into structured subtasks.
type Decomposer struct {
	model Generator
}

// New creates a decomposer over the given backend.
func New(model Generator) *Decomposer {
	return &Decomposer{model: model}
}

const plannerSystemPrompt = `You are an expert task planner. Break down complex tasks into
logical, sequential subtasks. Each subtask should be specific and actionable.`

// Decompose breaks a task into subtasks. An empty task yields an empty slice
// without calling the backend, and backend output with no numbered lines
// also yields an empty slice; only backend failures are errors.
func (d *Decomposer) Decompose(ctx context.Context, task string) ([]Subtask, error) {
	if strings.TrimSpace(task) == "" {
		return []Subtask{}, nil
	}

	prompt := fmt.Sprintf(`Analyze the following complex task and break it down into 3-7 specific subtasks.

Task: %s

For each subtask, provide:
1. A clear title
2. A brief description
3. The type of action needed (research, analyze, synthesize, compare, summarize)
4. Dependencies (if any)

Format your response as a numbered list with these details for each subtask.

Subtasks:`, task)

	response, err := d.model.Generate(ctx, prompt, llm.GenerateOptions{
		System:      plannerSystemPrompt,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("decompose task: %w", err)
	}

	subtasks := ParseSubtasks(response)
	slog.Debug("task decomposed", "subtasks", len(subtasks))
	return subtasks, nil
}

// EstimateComplexity classifies a task purely by how many subtasks it
// decomposes into.
func (d *Decomposer) EstimateComplexity(ctx context.Context, task string) (Complexity, error) {
	subtasks, err := d.Decompose(ctx, task)
	if err != nil {
		return "", err
	}
	return classifyComplexity(len(subtasks)), nil
}

func classifyComplexity(n int) Complexity {
	switch {
	case n <= 3:
		return ComplexitySimple
	case n <= 5:
		return ComplexityModerate
	default:
		return ComplexityComplex
	}
}

// Prioritize orders subtasks so those without dependencies come first,
// preserving relative order within each group.
func Prioritize(subtasks []Subtask) []Subtask {
	ordered := make([]Subtask, 0, len(subtasks))
	for _, s := range subtasks {
		if len(s.Dependencies) == 0 {
			ordered = append(ordered, s)
		}
	}
	for _, s := range subtasks {
		if len(s.Dependencies) > 0 {
			ordered = append(ordered, s)
		}
	}
	return ordered
}

// IdentifyTaskType classifies a whole task by keyword, without calling the
// backend.
func IdentifyTaskType(task string) ActionType {
	return inferActionType(task)
}

// Plan is a rendered research plan with its structured subtasks.
type Plan struct {
	Query    string
	Plan     string
	Subtasks []Subtask
}

// CreatePlan renders a free-text research plan and decomposes the query.
func (d *Decomposer) CreatePlan(ctx context.Context, query string) (Plan, error) {
	prompt := fmt.Sprintf(`Create a detailed research plan for the following query:

Query: %s

Provide:
1. Main Research Objective (1-2 sentences)
2. Key Questions to Answer (3-5 questions)
3. Information Sources Needed (web search, documents, databases, etc.)
4. Research Steps (sequential steps to follow)
5. Expected Deliverables (what the final output should contain)

Research Plan:`, query)

	rendered, err := d.model.Generate(ctx, prompt, llm.GenerateOptions{Temperature: 0.3})
	if err != nil {
		return Plan{}, fmt.Errorf("create plan: %w", err)
	}

	subtasks, err := d.Decompose(ctx, query)
	if err != nil {
		return Plan{}, err
	}

	return Plan{Query: query, Plan: rendered, Subtasks: subtasks}, nil
}
