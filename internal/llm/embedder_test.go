package llm

import (
	"context"
	"errors"
	"testing"
)

// fakeEmbeddingModel returns fixed-dimension vectors.
type fakeEmbeddingModel struct {
	dimension int
	err       error
	short     bool
}

func (f *fakeEmbeddingModel) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	n := len(texts)
	if f.short && n > 0 {
		n--
	}
	vectors := make([][]float32, n)
	for i := range vectors {
		vectors[i] = make([]float32, f.dimension)
		vectors[i][0] = 1
	}
	return vectors, nil
}

func (f *fakeEmbeddingModel) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func TestEmbedder_Embed(t *testing.T) {
	e := NewEmbedderFromModel(&fakeEmbeddingModel{dimension: 4}, 4, "fake-embed")

	vec, err := e.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vec) != 4 {
		t.Errorf("Embed() dimension = %d, want 4", len(vec))
	}
}

func TestEmbedder_EmbedDimensionMismatch(t *testing.T) {
	e := NewEmbedderFromModel(&fakeEmbeddingModel{dimension: 8}, 4, "fake-embed")

	_, err := e.Embed(context.Background(), "hello")
	if !errors.Is(err, ErrEmbedding) {
		t.Errorf("Embed() error = %v, want ErrEmbedding", err)
	}
}

func TestEmbedder_EmbedBackendError(t *testing.T) {
	e := NewEmbedderFromModel(&fakeEmbeddingModel{err: errors.New("timeout")}, 4, "fake-embed")

	_, err := e.Embed(context.Background(), "hello")
	if !errors.Is(err, ErrEmbedding) {
		t.Errorf("Embed() error = %v, want ErrEmbedding", err)
	}
}

func TestEmbedder_EmbedBatch(t *testing.T) {
	e := NewEmbedderFromModel(&fakeEmbeddingModel{dimension: 4}, 4, "fake-embed")

	vectors, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("EmbedBatch() error = %v", err)
	}
	if len(vectors) != 3 {
		t.Errorf("EmbedBatch() count = %d, want 3", len(vectors))
	}
}

func TestEmbedder_EmbedBatchEmpty(t *testing.T) {
	e := NewEmbedderFromModel(&fakeEmbeddingModel{dimension: 4}, 4, "fake-embed")

	vectors, err := e.EmbedBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("EmbedBatch() error = %v", err)
	}
	if len(vectors) != 0 {
		t.Errorf("EmbedBatch(nil) count = %d, want 0", len(vectors))
	}
}

func TestEmbedder_EmbedBatchCountMismatch(t *testing.T) {
	e := NewEmbedderFromModel(&fakeEmbeddingModel{dimension: 4, short: true}, 4, "fake-embed")

	_, err := e.EmbedBatch(context.Background(), []string{"a", "b"})
	if !errors.Is(err, ErrEmbedding) {
		t.Errorf("EmbedBatch() error = %v, want ErrEmbedding", err)
	}
}
