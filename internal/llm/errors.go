package llm

import "errors"

// Sentinel errors for external model calls.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrGeneration indicates the text-generation backend failed.
	ErrGeneration = errors.New("generation failed")

	// ErrEmbedding indicates the embedding backend failed.
	ErrEmbedding = errors.New("embedding failed")
)
