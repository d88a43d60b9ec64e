// Package parser provides document loading and text chunking.
package parser

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidChunkParams indicates chunk size / overlap parameters that cannot
// produce a valid chunking (overlap >= size, or non-positive values).
var ErrInvalidChunkParams = errors.New("invalid chunk parameters")

// Chunk is a bounded, possibly overlapping piece of a source document.
type Chunk struct {
	Text        string
	SourceID    string
	Index       int
	TotalChunks int
}

// ChunkText splits text into overlapping segments of roughly chunkSize
// characters. Windows that do not reach end-of-text are cut back to the last
// sentence terminator or line break, provided that breakpoint lies at or
// beyond 50% of chunkSize; this avoids severing sentences while bounding a
// chunk at 2x chunkSize. Consecutive chunks overlap by `overlap` characters.
//
// Empty input yields an empty slice. Returns ErrInvalidChunkParams if
// overlap >= chunkSize or either parameter is non-positive.
func ChunkText(text string, chunkSize, overlap int) ([]string, error) {
	if chunkSize <= 0 || overlap <= 0 {
		return nil, fmt.Errorf("%w: chunk_size=%d overlap=%d", ErrInvalidChunkParams, chunkSize, overlap)
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", ErrInvalidChunkParams, overlap, chunkSize)
	}
	if text == "" {
		return []string{}, nil
	}

	var chunks []string
	start := 0

	for start < len(text) {
		end := start + chunkSize
		if end < len(text) {
			// Cut back to a sentence terminator or newline when one exists
			// past the midpoint of the window.
			if bp := lastBreakpoint(text[start:end]); bp > chunkSize/2 {
				end = start + bp + 1
			}
		} else {
			end = len(text)
		}

		if piece := strings.TrimSpace(text[start:end]); piece != "" {
			chunks = append(chunks, piece)
		}

		if end >= len(text) {
			break
		}

		// Overlap the next window with the tail of this one. The next start
		// must move strictly forward even when overlap eats the whole
		// advance, or a late breakpoint could loop forever.
		next := end - overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks, nil
}

// lastBreakpoint returns the index of the last sentence terminator or line
// break in window, or -1 if none exists.
func lastBreakpoint(window string) int {
	best := -1
	for _, sep := range []string{".", "!", "?", "\n"} {
		if i := strings.LastIndex(window, sep); i > best {
			best = i
		}
	}
	return best
}

// ChunkDocument chunks text and tags every piece with its source and position.
// Sequence metadata is attached in a second pass so TotalChunks reflects the
// final count.
func ChunkDocument(text, sourceID string, chunkSize, overlap int) ([]Chunk, error) {
	pieces, err := ChunkText(text, chunkSize, overlap)
	if err != nil {
		return nil, err
	}

	chunks := make([]Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = Chunk{
			Text:        piece,
			SourceID:    sourceID,
			Index:       i,
			TotalChunks: len(pieces),
		}
	}
	return chunks, nil
}
