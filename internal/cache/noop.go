package cache

import (
	"context"
	"time"
)

// NoOpCache is a cache implementation that does nothing.
// Used when no REDIS_URL is configured or Redis is unreachable.
type NoOpCache struct{}

func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) GetQueryResult(ctx context.Context, key string) (*QueryResult, error) {
	return nil, nil
}

func (c *NoOpCache) SetQueryResult(ctx context.Context, key string, result *QueryResult, ttl time.Duration) error {
	return nil
}

func (c *NoOpCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func (c *NoOpCache) Close() error {
	return nil
}
