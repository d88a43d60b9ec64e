package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// orderRecorder tracks the order in which steps ran.
type orderRecorder struct {
	mu    sync.Mutex
	order []string
}

func (r *orderRecorder) record(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, id)
}

func (r *orderRecorder) indexOf(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, v := range r.order {
		if v == id {
			return i
		}
	}
	return -1
}

func okStep(id string, rec *orderRecorder, deps ...string) Step {
	return Step{
		ID:           id,
		Title:        id,
		Dependencies: deps,
		Action: func(context.Context, *Context) (any, error) {
			rec.record(id)
			return "result-" + id, nil
		},
	}
}

func failStep(id string, deps ...string) Step {
	return Step{
		ID:           id,
		Dependencies: deps,
		Action: func(context.Context, *Context) (any, error) {
			return nil, fmt.Errorf("boom in %s", id)
		},
	}
}

func TestExecute_DiamondOrdering(t *testing.T) {
	rec := &orderRecorder{}
	graph, err := NewEngine(4).Build([]Step{
		okStep("A", rec),
		okStep("B", rec, "A"),
		okStep("C", rec, "A"),
		okStep("D", rec, "B", "C"),
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	res := graph.Execute(context.Background(), NewContext())
	if res.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", res.Status)
	}
	if len(res.Results) != 4 {
		t.Fatalf("got %d results, want 4", len(res.Results))
	}

	a, b, c, d := rec.indexOf("A"), rec.indexOf("B"), rec.indexOf("C"), rec.indexOf("D")
	if a > b || a > c {
		t.Errorf("A did not run before B and C: %v", rec.order)
	}
	if b > d || c > d {
		t.Errorf("B and C did not both run before D: %v", rec.order)
	}
}

func TestExecute_FailureSkipsTransitiveDependents(t *testing.T) {
	rec := &orderRecorder{}
	graph, err := NewEngine(4).Build([]Step{
		okStep("A", rec),
		failStep("B", "A"),
		okStep("C", rec, "A"),
		okStep("D", rec, "B", "C"),
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	res := graph.Execute(context.Background(), NewContext())

	if res.Status != StatusPartial {
		t.Errorf("status = %s, want partial", res.Status)
	}
	if !errors.Is(res.Errors["B"], ErrStepExecution) {
		t.Errorf("B error = %v, want ErrStepExecution", res.Errors["B"])
	}
	if _, ok := res.Results["C"]; !ok {
		t.Error("C should still succeed when B fails")
	}
	if _, ok := res.Results["D"]; ok {
		t.Error("D must not run when B failed")
	}

	found := false
	for _, id := range res.Skipped {
		if id == "D" {
			found = true
		}
	}
	if !found {
		t.Errorf("D not recorded as skipped: %v", res.Skipped)
	}
}

func TestExecute_AllFail(t *testing.T) {
	graph, err := NewEngine(2).Build([]Step{failStep("A"), failStep("B")})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	res := graph.Execute(context.Background(), NewContext())
	if res.Status != StatusFailed {
		t.Errorf("status = %s, want failed", res.Status)
	}
}

func TestExecute_EmptyGraph(t *testing.T) {
	graph, err := NewEngine(2).Build(nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	res := graph.Execute(context.Background(), NewContext())
	if res.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", res.Status)
	}
}

func TestExecute_ResultsCommittedToContext(t *testing.T) {
	graph, err := NewEngine(1).Build([]Step{
		{
			ID: "produce",
			Action: func(context.Context, *Context) (any, error) {
				return "payload", nil
			},
		},
		{
			ID:           "consume",
			Dependencies: []string{"produce"},
			Action: func(_ context.Context, run *Context) (any, error) {
				v, ok := run.GetString("produce")
				if !ok {
					return nil, errors.New("dependency output not visible")
				}
				return "saw " + v, nil
			},
		},
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	res := graph.Execute(context.Background(), NewContext())
	if res.Status != StatusCompleted {
		t.Fatalf("status = %s: %v", res.Status, res.Errors)
	}
	if res.Results["consume"] != "saw payload" {
		t.Errorf("consume result = %v", res.Results["consume"])
	}
}

func TestBuild_UnknownDependency(t *testing.T) {
	_, err := NewEngine(1).Build([]Step{
		{ID: "X", Dependencies: []string{"Y"}, Action: func(context.Context, *Context) (any, error) { return nil, nil }},
	})
	if !errors.Is(err, ErrUnknownDependency) {
		t.Errorf("Build() error = %v, want ErrUnknownDependency", err)
	}
}

func TestBuild_Cycle(t *testing.T) {
	noop := func(context.Context, *Context) (any, error) { return nil, nil }
	_, err := NewEngine(1).Build([]Step{
		{ID: "A", Dependencies: []string{"C"}, Action: noop},
		{ID: "B", Dependencies: []string{"A"}, Action: noop},
		{ID: "C", Dependencies: []string{"B"}, Action: noop},
	})
	if !errors.Is(err, ErrCyclicDependency) {
		t.Errorf("Build() error = %v, want ErrCyclicDependency", err)
	}
}

func TestBuild_SelfCycle(t *testing.T) {
	_, err := NewEngine(1).Build([]Step{
		{ID: "A", Dependencies: []string{"A"}, Action: func(context.Context, *Context) (any, error) { return nil, nil }},
	})
	if !errors.Is(err, ErrCyclicDependency) {
		t.Errorf("Build() error = %v, want ErrCyclicDependency", err)
	}
}

func TestBuild_DuplicateStep(t *testing.T) {
	noop := func(context.Context, *Context) (any, error) { return nil, nil }
	_, err := NewEngine(1).Build([]Step{
		{ID: "A", Action: noop},
		{ID: "A", Action: noop},
	})
	if !errors.Is(err, ErrDuplicateStep) {
		t.Errorf("Build() error = %v, want ErrDuplicateStep", err)
	}
}

func TestExecute_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	graph, err := NewEngine(1).Build([]Step{
		{
			ID: "slow",
			Action: func(ctx context.Context, _ *Context) (any, error) {
				close(started)
				<-ctx.Done()
				return "finished anyway", nil
			},
		},
		{
			ID:           "after",
			Dependencies: []string{"slow"},
			Action: func(context.Context, *Context) (any, error) {
				return "should not run", nil
			},
		},
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	go func() {
		<-started
		cancel()
	}()

	res := graph.Execute(ctx, NewContext())

	// The running step finished and kept its result; the dependent was
	// never dispatched.
	if res.Results["slow"] != "finished anyway" {
		t.Errorf("slow result = %v", res.Results["slow"])
	}
	if _, ok := res.Results["after"]; ok {
		t.Error("dependent ran after cancellation")
	}
	if res.Status != StatusPartial {
		t.Errorf("status = %s, want partial", res.Status)
	}
}

func TestExecute_ObserverSeesTransitions(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[string][]StepStatus)

	graph, err := NewEngine(2).Build([]Step{
		{ID: "ok", Action: func(context.Context, *Context) (any, error) { return 1, nil }},
		failStep("bad"),
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	graph.ExecuteObserved(context.Background(), NewContext(), func(id string, st StepStatus) {
		mu.Lock()
		defer mu.Unlock()
		seen[id] = append(seen[id], st)
	})

	mu.Lock()
	defer mu.Unlock()
	if got := seen["ok"]; len(got) != 2 || got[0] != StepRunning || got[1] != StepSucceeded {
		t.Errorf("ok transitions = %v", got)
	}
	if got := seen["bad"]; len(got) != 2 || got[1] != StepFailed {
		t.Errorf("bad transitions = %v", got)
	}
}

func TestExecute_ConcurrentIndependentSteps(t *testing.T) {
	// Two independent steps that each wait for the other prove they run in
	// parallel; a serial scheduler would time out at the barrier.
	var barrier sync.WaitGroup
	barrier.Add(2)
	met := make(chan struct{})
	go func() {
		barrier.Wait()
		close(met)
	}()

	meet := func(context.Context, *Context) (any, error) {
		barrier.Done()
		select {
		case <-met:
			return "met", nil
		case <-time.After(5 * time.Second):
			return nil, errors.New("peer never started")
		}
	}

	graph, err := NewEngine(2).Build([]Step{
		{ID: "left", Action: meet},
		{ID: "right", Action: meet},
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	res := graph.Execute(context.Background(), NewContext())
	if res.Status != StatusCompleted {
		t.Errorf("status = %s: %v", res.Status, res.Errors)
	}
}
