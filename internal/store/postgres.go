package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"

	"vector-rag/internal/config"
	"vector-rag/internal/embeddings"
)

const defaultSearchLimit = 5

// PostgresStore keeps embeddings in a TimescaleDB hypertable with a pgvector column.
type PostgresStore struct {
	db       *sql.DB
	name     string
	table    string // quoted identifier
	dims     int
	interval time.Duration
}

// NewPostgres connects to dsn and prepares the table described by vs.
func NewPostgres(ctx context.Context, dsn string, vs config.VectorStoreSettings) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	s := newPostgresStore(db, vs)
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func newPostgresStore(db *sql.DB, vs config.VectorStoreSettings) *PostgresStore {
	return &PostgresStore{
		db:       db,
		name:     vs.TableName,
		table:    pq.QuoteIdentifier(vs.TableName),
		dims:     vs.EmbeddingDimensions,
		interval: vs.TimePartitionInterval,
	}
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	// Serializes setup across services sharing the database.
	const lockID = 727274101

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, lockID); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, lockID)
	}()

	for _, stmt := range s.schema() {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to prepare %s: %w", s.name, err)
		}
	}

	_, err = conn.ExecContext(ctx,
		`SELECT create_hypertable($1::regclass, 'created_at', chunk_time_interval => $2::interval, if_not_exists => TRUE)`,
		s.table, intervalLiteral(s.interval))
	if err != nil {
		return fmt.Errorf("failed to create hypertable %s: %w", s.name, err)
	}
	return nil
}

func (s *PostgresStore) schema() []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE EXTENSION IF NOT EXISTS timescaledb`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id UUID NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
			contents TEXT NOT NULL,
			embedding VECTOR(%d) NOT NULL,
			PRIMARY KEY (id, created_at)
		)`, s.table, s.dims),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)`,
			pq.QuoteIdentifier(s.name+"_embedding_idx"), s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING gin (metadata jsonb_path_ops)`,
			pq.QuoteIdentifier(s.name+"_metadata_idx"), s.table),
	}
}

func (s *PostgresStore) Upsert(ctx context.Context, records []Record) error {
	for i := range records {
		if err := s.checkDimensions(records[i].Embedding); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt := fmt.Sprintf(`
		INSERT INTO %s(id, created_at, metadata, contents, embedding)
		VALUES($1,$2,$3::jsonb,$4,$5::vector)
		ON CONFLICT (id, created_at) DO UPDATE
		SET metadata=excluded.metadata, contents=excluded.contents, embedding=excluded.embedding`, s.table)

	for _, r := range records {
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = time.Now().UTC()
		}
		meta, err := json.Marshal(metadataOrEmpty(r.Metadata))
		if err != nil {
			return fmt.Errorf("failed to encode metadata for %s: %w", r.ID, err)
		}
		if _, err := tx.ExecContext(ctx, stmt, r.ID, r.CreatedAt, string(meta), r.Contents, vectorToString(r.Embedding)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) Search(ctx context.Context, query embeddings.Vector, opts SearchOptions) ([]SearchResult, error) {
	if err := s.checkDimensions(query); err != nil {
		return nil, err
	}
	q, args, err := buildSearchQuery(s.table, query, opts)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var (
			rec      Record
			meta     []byte
			vec      string
			distance float64
		)
		if err := rows.Scan(&rec.ID, &rec.CreatedAt, &meta, &rec.Contents, &vec, &distance); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(meta, &rec.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata for %s: %w", rec.ID, err)
		}
		if rec.Embedding, err = parseVector(vec); err != nil {
			return nil, fmt.Errorf("failed to decode embedding for %s: %w", rec.ID, err)
		}
		results = append(results, SearchResult{Record: rec, Distance: float32(distance)})
	}
	return results, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1::uuid[])`, s.table), pq.Array(strs))
	return err
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) checkDimensions(v embeddings.Vector) error {
	if len(v) != s.dims {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(v), s.dims)
	}
	return nil
}

// buildSearchQuery orders by cosine distance and applies the optional filters.
func buildSearchQuery(table string, query embeddings.Vector, opts SearchOptions) (string, []any, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	args := []any{vectorToString(query)}
	var where []string
	if len(opts.Filter) > 0 {
		filter, err := json.Marshal(opts.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("failed to encode filter: %w", err)
		}
		args = append(args, string(filter))
		where = append(where, fmt.Sprintf("metadata @> $%d::jsonb", len(args)))
	}
	if !opts.Since.IsZero() {
		args = append(args, opts.Since)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !opts.Until.IsZero() {
		args = append(args, opts.Until)
		where = append(where, fmt.Sprintf("created_at < $%d", len(args)))
	}
	args = append(args, limit)

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT id, created_at, metadata, contents, embedding::text, embedding <=> $1::vector AS distance FROM %s", table)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	fmt.Fprintf(&b, " ORDER BY distance LIMIT $%d", len(args))
	return b.String(), args, nil
}

// intervalLiteral renders d as a Postgres interval input string.
func intervalLiteral(d time.Duration) string {
	return strconv.FormatInt(d.Microseconds(), 10) + " microseconds"
}

func metadataOrEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// vectorToString converts a Vector ([]float32) to pgvector array format.
// Format: "[0.1,0.2,0.3,...]"
func vectorToString(v embeddings.Vector) string {
	if len(v) == 0 {
		return "[]"
	}
	parts := make([]string, len(v))
	for i, val := range v {
		parts[i] = strconv.FormatFloat(float64(val), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// parseVector is the inverse of vectorToString.
func parseVector(s string) (embeddings.Vector, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("malformed vector %q", s)
	}
	body := strings.TrimSpace(s[1 : len(s)-1])
	if body == "" {
		return embeddings.Vector{}, nil
	}
	parts := strings.Split(body, ",")
	v := make(embeddings.Vector, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, err
		}
		v[i] = float32(f)
	}
	return v, nil
}
