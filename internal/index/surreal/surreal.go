// Package surreal provides a durable Store backed by SurrealDB with an HNSW
// cosine index, connected over an auto-reconnecting WebSocket.
package surreal

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/anhoffmann/deepscout/internal/index"
	"github.com/anhoffmann/deepscout/internal/parser"
	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/contrib/rews"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	"github.com/surrealdb/surrealdb.go/pkg/logger"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
	"github.com/surrealdb/surrealdb.go/surrealcbor"
)

func init() {
	// Force HTTP/1.1 for WSS connections to prevent HTTP/2 ALPN negotiation.
	// WebSocket upgrade requires HTTP/1.1 semantics which fail under HTTP/2.
	gorillaws.DefaultDialer.TLSClientConfig = &tls.Config{
		NextProtos: []string{"http/1.1"},
	}
}

// Config holds SurrealDB connection configuration for one collection.
type Config struct {
	URL       string
	Namespace string
	Database  string
	Username  string
	Password  string
	Table     string
	Dimension int
}

// Store implements index.Store on a SurrealDB table. Insertion order is
// tracked in an explicit seq field so distance ties resolve deterministically.
type Store struct {
	conn   *rews.Connection[*gorillaws.Connection]
	db     *surrealdb.DB
	cfg    Config
	logger logger.Logger
	seq    atomic.Int64
}

var _ index.Store = (*Store)(nil)

// chunkContent is the stored shape of a record, without the record id.
type chunkContent struct {
	Text        string            `json:"text"`
	Source      string            `json:"source"`
	ChunkIndex  int               `json:"chunk_index"`
	TotalChunks int               `json:"total_chunks"`
	Embedding   []float32         `json:"embedding"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Seq         int64             `json:"seq"`
}

// chunkRow is a row read back from a query.
type chunkRow struct {
	ID surrealmodels.RecordID `json:"id"`
	chunkContent
	Distance float64 `json:"distance"`
}

// New connects to SurrealDB, initializes the collection schema and seeds the
// insertion-order counter.
func New(ctx context.Context, cfg Config, log *slog.Logger) (*Store, error) {
	var sdkLogger logger.Logger
	if log != nil {
		sdkLogger = logger.New(log.Handler())
	} else {
		sdkLogger = logger.New(slog.Default().Handler())
	}

	// surrealcbor handles SurrealDB custom CBOR tags
	codec := surrealcbor.New()

	// gorillaws requires the URL without /rpc suffix (it adds /rpc internally)
	baseURL := strings.TrimSuffix(cfg.URL, "/rpc")

	conn := rews.New(
		func(ctx context.Context) (*gorillaws.Connection, error) {
			ws := gorillaws.New(&connection.Config{
				BaseURL:     baseURL,
				Marshaler:   codec,
				Unmarshaler: codec,
				Logger:      sdkLogger,
			})
			return ws, nil
		},
		5*time.Second,
		codec,
		sdkLogger,
	)

	retryer := rews.NewExponentialBackoffRetryer()
	retryer.InitialDelay = 1 * time.Second
	retryer.MaxDelay = 30 * time.Second
	retryer.Multiplier = 2.0
	retryer.MaxRetries = 10
	conn.Retryer = retryer

	sdkLogger.Info("connecting to SurrealDB", "url", cfg.URL)
	if err := conn.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	db, err := surrealdb.FromConnection(ctx, conn)
	if err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("from connection: %w", err)
	}

	if _, err := db.SignIn(ctx, surrealdb.Auth{
		Username: cfg.Username,
		Password: cfg.Password,
	}); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("signin: %w", err)
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("use: %w", err)
	}

	s := &Store{conn: conn, db: db, cfg: cfg, logger: sdkLogger}
	if err := s.initSchema(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, err
	}
	if err := s.seedSeq(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, err
	}

	sdkLogger.Info("SurrealDB collection ready", "table", cfg.Table)
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := fmt.Sprintf(`
		DEFINE TABLE IF NOT EXISTS %[1]s SCHEMAFULL;
		DEFINE FIELD IF NOT EXISTS text ON %[1]s TYPE string;
		DEFINE FIELD IF NOT EXISTS source ON %[1]s TYPE string;
		DEFINE FIELD IF NOT EXISTS chunk_index ON %[1]s TYPE int;
		DEFINE FIELD IF NOT EXISTS total_chunks ON %[1]s TYPE int;
		DEFINE FIELD IF NOT EXISTS embedding ON %[1]s TYPE array<float>;
		DEFINE FIELD IF NOT EXISTS metadata ON %[1]s TYPE option<object> FLEXIBLE;
		DEFINE FIELD IF NOT EXISTS seq ON %[1]s TYPE int;
		DEFINE FIELD IF NOT EXISTS created ON %[1]s TYPE datetime DEFAULT time::now();
		DEFINE INDEX IF NOT EXISTS %[1]s_seq ON %[1]s FIELDS seq;
		DEFINE INDEX IF NOT EXISTS %[1]s_embedding ON %[1]s FIELDS embedding HNSW DIMENSION %[2]d DIST COSINE TYPE F32;
	`, s.cfg.Table, s.cfg.Dimension)

	if _, err := surrealdb.Query[any](ctx, s.db, schema, nil); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// seedSeq resumes the insertion counter from the highest persisted seq.
func (s *Store) seedSeq(ctx context.Context) error {
	sql := fmt.Sprintf(`SELECT VALUE seq FROM %s ORDER BY seq DESC LIMIT 1`, s.cfg.Table)
	results, err := surrealdb.Query[[]int64](ctx, s.db, sql, nil)
	if err != nil {
		return fmt.Errorf("seed seq: %w", err)
	}
	if results != nil && len(*results) > 0 && len((*results)[0].Result) > 0 {
		s.seq.Store((*results)[0].Result[0])
	}
	return nil
}

// Add inserts a batch inside one transaction, so a failure inserts nothing.
func (s *Store) Add(ctx context.Context, records []index.Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.validateDimensions(records); err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString("BEGIN TRANSACTION;\n")
	vars := make(map[string]any, len(records)*2)
	for i, r := range records {
		fmt.Fprintf(&sb, "CREATE type::record(%q, $id%d) CONTENT $r%d;\n", s.cfg.Table, i, i)
		vars[fmt.Sprintf("id%d", i)] = r.ID
		vars[fmt.Sprintf("r%d", i)] = s.toContent(r)
	}
	sb.WriteString("COMMIT TRANSACTION;")

	if _, err := surrealdb.Query[any](ctx, s.db, sb.String(), vars); err != nil {
		return fmt.Errorf("create records: %w", err)
	}
	return nil
}

// Query runs a KNN search over the HNSW index. Results come back ascending
// by distance with seq breaking ties.
func (s *Store) Query(ctx context.Context, embedding []float32, k int, filter map[string]string) ([]index.Result, error) {
	if k <= 0 {
		return []index.Result{}, nil
	}

	var filterClause strings.Builder
	vars := map[string]any{"emb": embedding}
	i := 0
	for key, val := range filter {
		fmt.Fprintf(&filterClause, " AND metadata[%q] = $f%d", key, i)
		vars[fmt.Sprintf("f%d", i)] = val
		i++
	}

	// HNSW KNN with ef=40 for better recall
	sql := fmt.Sprintf(`
		SELECT *, vector::distance::knn() AS distance FROM %s
		WHERE embedding <|%d,40|> $emb%s
		ORDER BY distance ASC, seq ASC
	`, s.cfg.Table, k, filterClause.String())

	results, err := surrealdb.Query[[]chunkRow](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("knn query: %w", err)
	}

	var rows []chunkRow
	if results != nil && len(*results) > 0 {
		rows = (*results)[0].Result
	}

	out := make([]index.Result, 0, len(rows))
	for _, row := range rows {
		rec, err := s.toRecord(row)
		if err != nil {
			return nil, err
		}
		out = append(out, index.Result{Record: rec, Distance: row.Distance})
	}
	return out, nil
}

// Update replaces a record, assigning a fresh seq so the replacement counts
// as the newest insertion.
func (s *Store) Update(ctx context.Context, record index.Record) error {
	if err := s.requireExists(ctx, record.ID); err != nil {
		return err
	}

	sql := fmt.Sprintf(`
		BEGIN TRANSACTION;
		DELETE type::record(%[1]q, $id);
		CREATE type::record(%[1]q, $id) CONTENT $r;
		COMMIT TRANSACTION;
	`, s.cfg.Table)

	vars := map[string]any{"id": record.ID, "r": s.toContent(record)}
	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	return nil
}

// Delete removes records by id, failing on the first missing id.
func (s *Store) Delete(ctx context.Context, ids []string) error {
	sql := fmt.Sprintf(`DELETE type::record(%q, $id)`, s.cfg.Table)
	for _, id := range ids {
		if err := s.requireExists(ctx, id); err != nil {
			return err
		}
		if _, err := surrealdb.Query[any](ctx, s.db, sql, map[string]any{"id": id}); err != nil {
			return fmt.Errorf("delete record %s: %w", id, err)
		}
	}
	return nil
}

// Stats reports the collection size and its storage location.
func (s *Store) Stats(ctx context.Context) (index.Stats, error) {
	sql := fmt.Sprintf(`SELECT count() AS count FROM %s GROUP ALL`, s.cfg.Table)

	type countRow struct {
		Count int `json:"count"`
	}
	results, err := surrealdb.Query[[]countRow](ctx, s.db, sql, nil)
	if err != nil {
		return index.Stats{}, fmt.Errorf("count records: %w", err)
	}

	count := 0
	if results != nil && len(*results) > 0 && len((*results)[0].Result) > 0 {
		count = (*results)[0].Result[0].Count
	}
	return index.Stats{
		Count:    count,
		Name:     s.cfg.Table,
		Location: s.cfg.URL,
	}, nil
}

// Close closes the SurrealDB connection.
func (s *Store) Close() error {
	s.logger.Info("closing SurrealDB connection")
	return s.conn.Close(context.Background())
}

func (s *Store) validateDimensions(records []index.Record) error {
	for _, r := range records {
		if len(r.Embedding) != s.cfg.Dimension {
			return fmt.Errorf("record %s: %w: got %d, want %d", r.ID, index.ErrDimensionMismatch, len(r.Embedding), s.cfg.Dimension)
		}
	}
	return nil
}

func (s *Store) requireExists(ctx context.Context, id string) error {
	sql := fmt.Sprintf(`SELECT VALUE id FROM type::record(%q, $id)`, s.cfg.Table)
	results, err := surrealdb.Query[[]surrealmodels.RecordID](ctx, s.db, sql, map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("lookup record %s: %w", id, err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return fmt.Errorf("record %s: %w", id, index.ErrNotFound)
	}
	return nil
}

func (s *Store) toContent(r index.Record) chunkContent {
	return chunkContent{
		Text:        r.Chunk.Text,
		Source:      r.Chunk.SourceID,
		ChunkIndex:  r.Chunk.Index,
		TotalChunks: r.Chunk.TotalChunks,
		Embedding:   r.Embedding,
		Metadata:    r.Metadata,
		Seq:         s.seq.Add(1),
	}
}

func (s *Store) toRecord(row chunkRow) (index.Record, error) {
	id, ok := row.ID.ID.(string)
	if !ok {
		return index.Record{}, fmt.Errorf("unexpected record id type: %T", row.ID.ID)
	}

	meta := row.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	meta["source"] = row.Source

	return index.Record{
		ID: id,
		Chunk: parser.Chunk{
			Text:        row.Text,
			SourceID:    row.Source,
			Index:       row.ChunkIndex,
			TotalChunks: row.TotalChunks,
		},
		Embedding: row.Embedding,
		Metadata:  meta,
	}, nil
}
