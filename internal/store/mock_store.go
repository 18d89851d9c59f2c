package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"vector-rag/internal/embeddings"
)

// MockStore is a mock implementation of VectorStore using testify/mock.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Upsert(ctx context.Context, records []Record) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockStore) Search(ctx context.Context, query embeddings.Vector, opts SearchOptions) ([]SearchResult, error) {
	args := m.Called(ctx, query, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]SearchResult), args.Error(1)
}

func (m *MockStore) Delete(ctx context.Context, ids []uuid.UUID) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
