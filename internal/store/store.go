package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"vector-rag/internal/embeddings"
)

var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Record is one embedded piece of content.
type Record struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Metadata  map[string]any
	Contents  string
	Embedding embeddings.Vector
}

type SearchResult struct {
	Record   Record
	Distance float32
}

// SearchOptions narrows a similarity search. Zero values mean no filter.
type SearchOptions struct {
	Limit  int
	Filter map[string]any
	Since  time.Time
	Until  time.Time
}

// VectorStore defines the persistence contract for embeddings.
type VectorStore interface {
	Upsert(ctx context.Context, records []Record) error
	Search(ctx context.Context, query embeddings.Vector, opts SearchOptions) ([]SearchResult, error)
	Delete(ctx context.Context, ids []uuid.UUID) error
	Close() error
}
