package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Cache provides query result caching
type Cache interface {
	// GetQueryResult retrieves a cached query result by key
	// Returns nil if not found
	GetQueryResult(ctx context.Context, key string) (*QueryResult, error)

	// SetQueryResult stores a query result with TTL
	SetQueryResult(ctx context.Context, key string, result *QueryResult, ttl time.Duration) error

	// InvalidateAll drops every cached query result
	InvalidateAll(ctx context.Context) error

	// Close closes the cache connection
	Close() error
}

// QueryResult represents a cached query response
type QueryResult struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// Source represents a stored record used to answer a query
type Source struct {
	ID       string  `json:"id"`
	Distance float32 `json:"distance"`
	Preview  string  `json:"preview"`
}

// GenerateCacheKey derives a stable key from everything that shapes an answer.
func GenerateCacheKey(question, model string, topK int) string {
	h := sha256.New()
	h.Write([]byte(strings.TrimSpace(strings.ToLower(question))))
	h.Write([]byte{0})
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(topK)))
	return hex.EncodeToString(h.Sum(nil))
}
