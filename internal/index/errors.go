// Package index stores embedded chunks and answers nearest-neighbor queries.
package index

import "errors"

// Sentinel errors for index operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotFound indicates the requested record does not exist in the collection.
	ErrNotFound = errors.New("record not found")

	// ErrDimensionMismatch indicates an embedding whose dimension differs from
	// the collection's established dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
