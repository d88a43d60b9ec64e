package index

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anhoffmann/deepscout/internal/metrics"
	"github.com/anhoffmann/deepscout/internal/parser"
	"github.com/google/uuid"
)

// Record is one stored chunk with its embedding and metadata.
// Metadata always contains a "source" key.
type Record struct {
	ID        string
	Chunk     parser.Chunk
	Embedding []float32
	Metadata  map[string]string
}

// Result pairs a record with its distance to the query embedding.
// Distance is cosine distance, bounded in [0, 2].
type Result struct {
	Record   Record
	Distance float64
}

// Relevance converts distance into the score exposed to callers.
// It is monotonic in similarity, not a probability.
func (r Result) Relevance() float64 {
	return 1 - r.Distance
}

// Stats describes a collection.
type Stats struct {
	Count    int
	Name     string
	Location string
}

// Store is the persistence backend for a collection. Query results are
// ascending by distance with ties broken by insertion order (earlier wins).
// Implementations must allow concurrent Query calls and keep writes safe
// with respect to concurrent reads.
type Store interface {
	Add(ctx context.Context, records []Record) error
	Query(ctx context.Context, embedding []float32, k int, filter map[string]string) ([]Result, error)
	Update(ctx context.Context, record Record) error
	Delete(ctx context.Context, ids []string) error
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// Embedder produces fixed-dimension vectors for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Index combines an embedder with a store into the retrieval service.
type Index struct {
	embedder  Embedder
	store     Store
	collector *metrics.Collector
}

// New creates an index over the given embedder and store.
func New(embedder Embedder, store Store, collector *metrics.Collector) *Index {
	return &Index{
		embedder:  embedder,
		store:     store,
		collector: collector,
	}
}

// Add embeds and stores a batch of chunks, returning the assigned ids.
// The batch is all-or-nothing: an embedding failure for any chunk inserts
// nothing. Optional metadatas are merged per chunk; the "source" key is
// always set from the chunk itself.
func (i *Index) Add(ctx context.Context, chunks []parser.Chunk, metadatas []map[string]string) ([]string, error) {
	if len(chunks) == 0 {
		return []string{}, nil
	}
	if metadatas != nil && len(metadatas) != len(chunks) {
		return nil, fmt.Errorf("metadata count %d does not match chunk count %d", len(metadatas), len(chunks))
	}

	texts := make([]string, len(chunks))
	for n, c := range chunks {
		texts[n] = c.Text
	}

	// Embed everything up front so a backend failure inserts nothing.
	embeddings, err := i.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	records := make([]Record, len(chunks))
	ids := make([]string, len(chunks))
	for n, c := range chunks {
		meta := map[string]string{
			"source":       c.SourceID,
			"chunk_index":  fmt.Sprintf("%d", c.Index),
			"total_chunks": fmt.Sprintf("%d", c.TotalChunks),
		}
		if metadatas != nil {
			for k, v := range metadatas[n] {
				meta[k] = v
			}
			meta["source"] = c.SourceID
		}

		ids[n] = uuid.NewString()
		records[n] = Record{
			ID:        ids[n],
			Chunk:     c,
			Embedding: embeddings[n],
			Metadata:  meta,
		}
	}

	if err := i.store.Add(ctx, records); err != nil {
		return nil, fmt.Errorf("add records: %w", err)
	}

	if i.collector != nil {
		i.collector.RecordTiming(metrics.OpIndexAdd, time.Since(start))
	}
	slog.Debug("chunks indexed", "count", len(records))
	return ids, nil
}

// Query embeds the text once and returns the k nearest records ascending by
// distance. An empty collection yields an empty result, not an error. A
// non-nil filter restricts candidates to records whose metadata contains
// every filter pair.
func (i *Index) Query(ctx context.Context, text string, k int, filter map[string]string) ([]Result, error) {
	embedding, err := i.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	results, err := i.store.Query(ctx, embedding, k, filter)
	if err != nil {
		return nil, fmt.Errorf("query store: %w", err)
	}

	if i.collector != nil {
		i.collector.RecordTiming(metrics.OpIndexQuery, time.Since(start))
	}
	slog.Debug("index queried", "k", k, "results", len(results))
	return results, nil
}

// Update replaces the record with the given id by re-embedding the new chunk.
// The old record is removed and the replacement inserted, so the updated
// record counts as the newest for tie-breaking purposes.
func (i *Index) Update(ctx context.Context, id string, chunk parser.Chunk, metadata map[string]string) error {
	embedding, err := i.embedder.Embed(ctx, chunk.Text)
	if err != nil {
		return err
	}

	meta := map[string]string{"source": chunk.SourceID}
	for k, v := range metadata {
		meta[k] = v
	}
	meta["source"] = chunk.SourceID

	return i.store.Update(ctx, Record{
		ID:        id,
		Chunk:     chunk,
		Embedding: embedding,
		Metadata:  meta,
	})
}

// Delete removes records by id.
func (i *Index) Delete(ctx context.Context, ids []string) error {
	return i.store.Delete(ctx, ids)
}

// Stats reports the collection's size and identity.
func (i *Index) Stats(ctx context.Context) (Stats, error) {
	return i.store.Stats(ctx)
}
