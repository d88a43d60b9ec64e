// Package surreal provides integration tests against a SurrealDB container.
package surreal

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/anhoffmann/deepscout/internal/index"
	"github.com/anhoffmann/deepscout/internal/parser"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const testDimension = 8

var testStore *Store
var testContainer testcontainers.Container

// TestMain sets up and tears down the SurrealDB container for all tests.
func TestMain(m *testing.M) {
	// Disable ryuk (cleanup container) as it can cause issues in some environments
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	var err error
	testContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v3.0.0-beta.1",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--log", "info", "--user", "root", "--pass", "root"},
			WaitingFor:   wait.ForLog("Started web server").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start SurrealDB container: %v", err)
	}

	host, err := testContainer.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	// Workaround: testcontainers may return "null" as host in some environments
	if host == "" || host == "null" {
		host = "localhost"
	}
	mappedPort, err := testContainer.MappedPort(ctx, "8000")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	testStore, err = New(ctx, Config{
		URL:       fmt.Sprintf("ws://%s:%s/rpc", host, mappedPort.Port()),
		Namespace: "test",
		Database:  "test",
		Username:  "root",
		Password:  "root",
		Table:     "chunk_test",
		Dimension: testDimension,
	}, nil)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	code := m.Run()

	_ = testStore.Close()
	_ = testContainer.Terminate(ctx)

	os.Exit(code)
}

func testRecord(id string, direction float32) index.Record {
	embedding := make([]float32, testDimension)
	embedding[0] = 1
	embedding[1] = direction
	return index.Record{
		ID:        id,
		Chunk:     parser.Chunk{Text: "chunk " + id, SourceID: "test.txt", TotalChunks: 1},
		Embedding: embedding,
		Metadata:  map[string]string{"source": "test.txt"},
	}
}

func queryVector() []float32 {
	embedding := make([]float32, testDimension)
	embedding[0] = 1
	return embedding
}

func TestAddAndQuery(t *testing.T) {
	ctx := context.Background()

	records := []index.Record{
		testRecord("near", 0.1),
		testRecord("far", 5),
	}
	if err := testStore.Add(ctx, records); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	defer func() { _ = testStore.Delete(ctx, []string{"near", "far"}) }()

	results, err := testStore.Query(ctx, queryVector(), 2, nil)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Record.ID != "near" {
		t.Errorf("Expected 'near' first, got %q", results[0].Record.ID)
	}
	if results[0].Distance > results[1].Distance {
		t.Errorf("Distances not ascending: %f > %f", results[0].Distance, results[1].Distance)
	}
	if results[0].Record.Chunk.Text != "chunk near" {
		t.Errorf("Chunk text not round-tripped: %q", results[0].Record.Chunk.Text)
	}
	if results[0].Record.Metadata["source"] != "test.txt" {
		t.Errorf("Metadata source missing: %v", results[0].Record.Metadata)
	}
}

func TestQueryFilter(t *testing.T) {
	ctx := context.Background()

	a := testRecord("filter-a", 0.1)
	b := testRecord("filter-b", 0.2)
	b.Metadata = map[string]string{"source": "other.txt", "topic": "go"}
	if err := testStore.Add(ctx, []index.Record{a, b}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	defer func() { _ = testStore.Delete(ctx, []string{"filter-a", "filter-b"}) }()

	results, err := testStore.Query(ctx, queryVector(), 10, map[string]string{"topic": "go"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(results) != 1 || results[0].Record.ID != "filter-b" {
		t.Errorf("Filter returned wrong records: %v", results)
	}
}

func TestUpdateReplacesRecord(t *testing.T) {
	ctx := context.Background()

	if err := testStore.Add(ctx, []index.Record{testRecord("upd", 0.1)}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	defer func() { _ = testStore.Delete(ctx, []string{"upd"}) }()

	updated := testRecord("upd", 0.1)
	updated.Chunk.Text = "updated chunk"
	if err := testStore.Update(ctx, updated); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	results, err := testStore.Query(ctx, queryVector(), 10, nil)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	for _, r := range results {
		if r.Record.ID == "upd" && r.Record.Chunk.Text != "updated chunk" {
			t.Errorf("Update did not replace text: %q", r.Record.Chunk.Text)
		}
	}
}

func TestUpdateMissingRecord(t *testing.T) {
	err := testStore.Update(context.Background(), testRecord("missing", 0.1))
	if err == nil {
		t.Fatal("Expected error updating missing record")
	}
}

func TestDeleteAndStats(t *testing.T) {
	ctx := context.Background()

	before, err := testStore.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	if err := testStore.Add(ctx, []index.Record{testRecord("del", 0.1)}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	after, err := testStore.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if after.Count != before.Count+1 {
		t.Errorf("Count after add = %d, want %d", after.Count, before.Count+1)
	}
	if after.Name != "chunk_test" {
		t.Errorf("Stats name = %q", after.Name)
	}

	if err := testStore.Delete(ctx, []string{"del"}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	final, err := testStore.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if final.Count != before.Count {
		t.Errorf("Count after delete = %d, want %d", final.Count, before.Count)
	}
}

func TestAddRejectsWrongDimension(t *testing.T) {
	bad := testRecord("bad-dim", 0.1)
	bad.Embedding = []float32{1, 0}

	err := testStore.Add(context.Background(), []index.Record{bad})
	if err == nil {
		_ = testStore.Delete(context.Background(), []string{"bad-dim"})
		t.Fatal("Expected dimension error")
	}
}
