package workflow

import (
	"context"
	"fmt"
)

// Action is the work a step performs. It receives the cancellation context
// and the run's shared Context; its return value is committed under the
// step's id on success.
type Action func(ctx context.Context, run *Context) (any, error)

// Step is one named node of a workflow graph.
type Step struct {
	ID           string
	Title        string
	Dependencies []string
	Action       Action
}

// Graph is a validated, immutable dependency graph ready for execution.
type Graph struct {
	steps      map[string]Step
	order      []string            // insertion order, for deterministic iteration
	dependents map[string][]string // reverse edges
	workers    int
}

// Engine builds executable graphs.
type Engine struct {
	workers int
}

// NewEngine creates an engine dispatching ready steps to the given number of
// workers. Fewer than one worker falls back to serial execution.
func NewEngine(workers int) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{workers: workers}
}

// Build validates the steps into an executable graph. Duplicate ids,
// dependencies on ids never added, and dependency cycles all fail here,
// before any step runs.
func (e *Engine) Build(steps []Step) (*Graph, error) {
	g := &Graph{
		steps:      make(map[string]Step, len(steps)),
		order:      make([]string, 0, len(steps)),
		dependents: make(map[string][]string),
		workers:    e.workers,
	}

	for _, s := range steps {
		if s.ID == "" {
			return nil, fmt.Errorf("step %q: empty id", s.Title)
		}
		if _, ok := g.steps[s.ID]; ok {
			return nil, fmt.Errorf("step %q: %w", s.ID, ErrDuplicateStep)
		}
		g.steps[s.ID] = s
		g.order = append(g.order, s.ID)
	}

	for _, s := range steps {
		for _, dep := range s.Dependencies {
			if _, ok := g.steps[dep]; !ok {
				return nil, fmt.Errorf("step %q depends on %q: %w", s.ID, dep, ErrUnknownDependency)
			}
			g.dependents[dep] = append(g.dependents[dep], s.ID)
		}
	}

	if cycle := g.findCycle(); cycle != "" {
		return nil, fmt.Errorf("step %q is part of a cycle: %w", cycle, ErrCyclicDependency)
	}

	return g, nil
}

// findCycle runs a three-color DFS over dependency edges and returns an id
// on a cycle, or "" when the graph is acyclic.
func (g *Graph) findCycle() string {
	const (
		white = 0 // unvisited
		gray  = 1 // on the current path
		black = 2 // fully explored
	)
	color := make(map[string]int, len(g.steps))

	var visit func(id string) string
	visit = func(id string) string {
		color[id] = gray
		for _, dep := range g.steps[id].Dependencies {
			switch color[dep] {
			case gray:
				return dep
			case white:
				if hit := visit(dep); hit != "" {
					return hit
				}
			}
		}
		color[id] = black
		return ""
	}

	for _, id := range g.order {
		if color[id] == white {
			if hit := visit(id); hit != "" {
				return hit
			}
		}
	}
	return ""
}

// Len returns the number of steps in the graph.
func (g *Graph) Len() int {
	return len(g.steps)
}
