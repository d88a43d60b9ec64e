// Package memory provides an in-process Store using brute-force cosine search.
// The collection lives only as long as the process.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/anhoffmann/deepscout/internal/index"
)

// Store keeps records in insertion order behind a read-write mutex, so
// concurrent queries never observe a record mid-write.
type Store struct {
	mu      sync.RWMutex
	name    string
	records []index.Record
}

var _ index.Store = (*Store)(nil)

// New creates an empty in-memory collection.
func New(name string) *Store {
	return &Store{name: name}
}

// Add appends a batch of records. The batch is validated before any record
// is inserted so a bad record inserts nothing.
func (s *Store) Add(_ context.Context, records []index.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dim := s.dimensionLocked()
	for _, r := range records {
		if _, ok := s.findLocked(r.ID); ok {
			return fmt.Errorf("record %s: already exists", r.ID)
		}
		if dim > 0 && len(r.Embedding) != dim {
			return fmt.Errorf("record %s: %w: got %d, want %d", r.ID, index.ErrDimensionMismatch, len(r.Embedding), dim)
		}
		if dim == 0 {
			dim = len(r.Embedding)
		}
	}

	s.records = append(s.records, records...)
	return nil
}

// Query scans every stored embedding and returns the k nearest by cosine
// distance. The stable sort preserves insertion order for equal distances.
func (s *Store) Query(_ context.Context, embedding []float32, k int, filter map[string]string) ([]index.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if k <= 0 || len(s.records) == 0 {
		return []index.Result{}, nil
	}

	results := make([]index.Result, 0, len(s.records))
	for _, r := range s.records {
		if !matches(r.Metadata, filter) {
			continue
		}
		results = append(results, index.Result{
			Record:   r,
			Distance: cosineDistance(embedding, r.Embedding),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Update removes the old record and appends the replacement, so the updated
// record ranks as newest for insertion-order tie-breaking.
func (s *Store) Update(_ context.Context, record index.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.findLocked(record.ID)
	if !ok {
		return fmt.Errorf("record %s: %w", record.ID, index.ErrNotFound)
	}
	if dim := s.dimensionLocked(); dim > 0 && len(record.Embedding) != dim {
		return fmt.Errorf("record %s: %w: got %d, want %d", record.ID, index.ErrDimensionMismatch, len(record.Embedding), dim)
	}

	s.records = append(s.records[:pos], s.records[pos+1:]...)
	s.records = append(s.records, record)
	return nil
}

// Delete removes records by id. A missing id fails the call, but ids removed
// before the failure stay removed.
func (s *Store) Delete(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		pos, ok := s.findLocked(id)
		if !ok {
			return fmt.Errorf("record %s: %w", id, index.ErrNotFound)
		}
		s.records = append(s.records[:pos], s.records[pos+1:]...)
	}
	return nil
}

// Stats reports the collection size.
func (s *Store) Stats(_ context.Context) (index.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return index.Stats{
		Count:    len(s.records),
		Name:     s.name,
		Location: "memory",
	}, nil
}

// Close is a no-op; the collection is discarded with the process.
func (s *Store) Close() error {
	return nil
}

func (s *Store) findLocked(id string) (int, bool) {
	for i, r := range s.records {
		if r.ID == id {
			return i, true
		}
	}
	return 0, false
}

func (s *Store) dimensionLocked() int {
	if len(s.records) == 0 {
		return 0
	}
	return len(s.records[0].Embedding)
}

func matches(metadata, filter map[string]string) bool {
	for k, v := range filter {
		if metadata[k] != v {
			return false
		}
	}
	return true
}

// cosineDistance is 1 minus cosine similarity, bounded in [0, 2].
// A zero-magnitude vector has no direction; its distance is defined as 1.
func cosineDistance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
