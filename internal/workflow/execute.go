package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// RunStatus summarizes a whole workflow run.
type RunStatus string

const (
	// StatusCompleted means every step succeeded.
	StatusCompleted RunStatus = "completed"
	// StatusPartial means at least one step succeeded and at least one
	// failed or was skipped.
	StatusPartial RunStatus = "partial"
	// StatusFailed means no step succeeded.
	StatusFailed RunStatus = "failed"
)

// StepStatus is the lifecycle state of one step.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepSucceeded StepStatus = "succeeded"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// Result is the structured outcome of one run. A failed run still produces
// a Result with per-step errors rather than a bare failure.
type Result struct {
	Status  RunStatus
	Results map[string]any
	Errors  map[string]error
	Skipped []string
}

type outcome struct {
	id    string
	value any
	err   error
}

// Execute runs the graph to completion over the given run context.
func (g *Graph) Execute(ctx context.Context, run *Context) Result {
	return g.ExecuteObserved(ctx, run, nil)
}

// ExecuteObserved runs the graph, reporting every step status transition to
// observe (may be nil). Steps are dispatched to a worker pool as soon as all
// their dependencies have succeeded; any interleaving is a valid topological
// order. When a step fails, its transitive dependents are skipped and
// unrelated steps keep running. Cancelling ctx stops dispatching; steps
// already running finish and their results are kept.
func (g *Graph) ExecuteObserved(ctx context.Context, run *Context, observe func(stepID string, status StepStatus)) Result {
	if run == nil {
		run = NewContext()
	}
	notify := func(id string, st StepStatus) {
		if observe != nil {
			observe(id, st)
		}
	}

	res := Result{
		Results: make(map[string]any),
		Errors:  make(map[string]error),
	}

	n := len(g.steps)
	if n == 0 {
		res.Status = StatusCompleted
		return res
	}

	indegree := make(map[string]int, n)
	state := make(map[string]StepStatus, n)
	for id, s := range g.steps {
		indegree[id] = len(s.Dependencies)
		state[id] = StepPending
	}

	jobs := make(chan string, n)
	outcomes := make(chan outcome, n)

	workers := g.workers
	if workers > n {
		workers = n
	}
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				step := g.steps[id]
				notify(id, StepRunning)
				value, err := step.Action(ctx, run)
				outcomes <- outcome{id: id, value: value, err: err}
			}
		}()
	}

	running := 0
	dispatch := func(id string) {
		running++
		jobs <- id
	}

	// skipDependents marks every still-pending transitive dependent of id
	// as skipped. Dependents of a failed step never reach indegree zero, so
	// a pending check is enough to avoid revisiting.
	remaining := n
	var skipDependents func(id string)
	skipDependents = func(id string) {
		for _, dep := range g.dependents[id] {
			if state[dep] != StepPending {
				continue
			}
			state[dep] = StepSkipped
			res.Skipped = append(res.Skipped, dep)
			remaining--
			notify(dep, StepSkipped)
			skipDependents(dep)
		}
	}

	cancelled := false
	handle := func(out outcome) {
		running--
		remaining--

		if out.err != nil {
			state[out.id] = StepFailed
			res.Errors[out.id] = fmt.Errorf("%w: %w", ErrStepExecution, out.err)
			notify(out.id, StepFailed)
			slog.Warn("workflow step failed", "step", out.id, "error", out.err)
			skipDependents(out.id)
			return
		}

		// Commit before scheduling dependents so they read a complete value.
		state[out.id] = StepSucceeded
		run.Set(out.id, out.value)
		res.Results[out.id] = out.value
		notify(out.id, StepSucceeded)

		if cancelled {
			return
		}
		for _, dep := range g.dependents[out.id] {
			indegree[dep]--
			if indegree[dep] == 0 && state[dep] == StepPending {
				dispatch(dep)
			}
		}
	}

	for _, id := range g.order {
		if indegree[id] == 0 {
			dispatch(id)
		}
	}

	done := ctx.Done()
	for remaining > 0 {
		if cancelled && running == 0 {
			// Nothing left in flight; everything still pending is abandoned.
			for _, id := range g.order {
				if state[id] == StepPending {
					state[id] = StepSkipped
					res.Skipped = append(res.Skipped, id)
					res.Errors[id] = ctx.Err()
					remaining--
					notify(id, StepSkipped)
				}
			}
			continue
		}

		select {
		case <-done:
			cancelled = true
			done = nil
		case out := <-outcomes:
			handle(out)
		}
	}

	close(jobs)
	wg.Wait()

	switch succeeded := len(res.Results); {
	case succeeded == n:
		res.Status = StatusCompleted
	case succeeded == 0:
		res.Status = StatusFailed
	default:
		res.Status = StatusPartial
	}

	slog.Debug("workflow finished",
		"status", res.Status,
		"succeeded", len(res.Results),
		"failed", len(res.Errors),
		"skipped", len(res.Skipped))
	return res
}
