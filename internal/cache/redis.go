package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key prefix for cached results
const cacheKeyPrefix = "query:"

type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to the server at url, e.g. redis://:pass@host:6379/0.
func NewRedisCache(ctx context.Context, url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return &RedisCache{client: client}, nil
}

func (c *RedisCache) GetQueryResult(ctx context.Context, key string) (*QueryResult, error) {
	data, err := c.client.Get(ctx, cacheKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var result QueryResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *RedisCache) SetQueryResult(ctx context.Context, key string, result *QueryResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKeyPrefix+key, data, ttl).Err()
}

// InvalidateAll deletes every cached result. Answers may cite any record,
// so new content makes all of them stale.
func (c *RedisCache) InvalidateAll(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, cacheKeyPrefix+"*", 100).Iterator()

	pipe := c.client.Pipeline()
	count := 0
	for iter.Next(ctx) {
		pipe.Del(ctx, iter.Val())
		count++
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if count > 0 {
		_, err := pipe.Exec(ctx)
		return err
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
