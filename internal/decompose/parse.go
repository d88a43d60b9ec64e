// Package decompose turns free-form research tasks into structured subtasks
// by prompting a generative backend and defensively parsing its output.
package decompose

import (
	"strings"
)

// ActionType classifies what a subtask asks for.
type ActionType string

const (
	ActionResearch   ActionType = "research"
	ActionAnalyze    ActionType = "analyze"
	ActionSynthesize ActionType = "synthesize"
	ActionCompare    ActionType = "compare"
	ActionSummarize  ActionType = "summarize"
)

// Subtask is one structured unit of a decomposed research query.
type Subtask struct {
	ID           int
	Title        string
	Description  string
	ActionType   ActionType
	Dependencies []int
}

// ParseSubtasks extracts subtasks from untrusted generative output.
//
// The only structural signal is the numbered header: a line whose first
// character is a decimal digit with a period within the first 3 characters.
// Every other non-blank line continues the current subtask's description,
// and a blank line closes the current subtask. Lines before the first header
// are discarded. Output with no header at all yields an empty slice, never
// an error.
func ParseSubtasks(response string) []Subtask {
	var subtasks []Subtask
	var current *Subtask

	flush := func() {
		if current == nil {
			return
		}
		current.ID = len(subtasks)
		current.ActionType = inferActionType(current.Title + " " + current.Description)
		subtasks = append(subtasks, *current)
		current = nil
	}

	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		line = strings.TrimSpace(line)

		if line == "" {
			flush()
			continue
		}

		if isHeader(line) {
			flush()
			_, title, _ := strings.Cut(line, ".")
			current = &Subtask{
				Title:        strings.TrimSpace(title),
				ActionType:   ActionResearch,
				Dependencies: []int{},
			}
			continue
		}

		// Continuation of the current subtask; preamble lines have no owner.
		if current != nil {
			if current.Description != "" {
				current.Description += " "
			}
			current.Description += line
		}
	}
	flush()

	return subtasks
}

// isHeader reports whether a line starts a new numbered subtask.
func isHeader(line string) bool {
	if line == "" || line[0] < '0' || line[0] > '9' {
		return false
	}
	limit := 3
	if len(line) < limit {
		limit = len(line)
	}
	return strings.Contains(line[:limit], ".")
}

// inferActionType classifies a subtask by keyword, defaulting to research.
func inferActionType(text string) ActionType {
	lower := strings.ToLower(text)

	switch {
	case containsAny(lower, "compare", "contrast", "difference"):
		return ActionCompare
	case containsAny(lower, "analyze", "analyse", "examine", "evaluate"):
		return ActionAnalyze
	case containsAny(lower, "summarize", "overview", "brief"):
		return ActionSummarize
	case containsAny(lower, "combine", "synthesize", "integrate"):
		return ActionSynthesize
	default:
		return ActionResearch
	}
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
