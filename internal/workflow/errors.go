// Package workflow executes a dependency graph of named steps over a shared
// mutable context, respecting topological order and isolating step failures.
package workflow

import "errors"

// Sentinel errors for graph construction and execution.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrUnknownDependency indicates a step depends on an id that was never
	// added to the graph. Raised at build time; no step runs.
	ErrUnknownDependency = errors.New("unknown dependency")

	// ErrCyclicDependency indicates the graph contains a dependency cycle.
	// Raised at build time; no step runs.
	ErrCyclicDependency = errors.New("cyclic dependency")

	// ErrDuplicateStep indicates two steps share an id.
	ErrDuplicateStep = errors.New("duplicate step id")

	// ErrStepExecution wraps any error raised inside a step's action.
	ErrStepExecution = errors.New("step execution failed")
)
