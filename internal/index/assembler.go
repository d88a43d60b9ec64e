package index

import (
	"fmt"
	"strings"
)

// EmptyContext is returned by Assemble when retrieval produced nothing.
// Callers branch on this exact value to take a no-context fallback path.
const EmptyContext = "No relevant context found."

// ContextAssembler renders retrieval results into ranked, cited context text
// bounded by a character budget.
type ContextAssembler struct {
	maxChars int
}

// NewAssembler creates an assembler with the given character budget.
// A non-positive budget disables truncation.
func NewAssembler(maxChars int) *ContextAssembler {
	return &ContextAssembler{maxChars: maxChars}
}

// Assemble renders each result as a labeled block, nearest first. When the
// concatenated output would exceed the budget, whole lowest-relevance entries
// are dropped from the tail; the nearest entry is always kept so a non-empty
// retrieval never collapses into the empty sentinel.
func (a *ContextAssembler) Assemble(results []Result) string {
	if len(results) == 0 {
		return EmptyContext
	}

	blocks := make([]string, 0, len(results))
	total := 0
	for i, r := range results {
		block := fmt.Sprintf("[Source %d: %s (Relevance: %.2f)]\n%s",
			i+1, r.Record.Metadata["source"], r.Relevance(), r.Record.Chunk.Text)

		cost := len(block)
		if len(blocks) > 0 {
			cost += 2 // separator
		}
		if a.maxChars > 0 && len(blocks) > 0 && total+cost > a.maxChars {
			break
		}
		blocks = append(blocks, block)
		total += cost
	}

	return strings.Join(blocks, "\n\n")
}
