package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"vector-rag/internal/cache"
	"vector-rag/internal/config"
	"vector-rag/internal/embeddings"
	"vector-rag/internal/llm"
	"vector-rag/internal/logger"
	"vector-rag/internal/queue"
	"vector-rag/internal/store"
)

// QueryDeps bundles what the query service needs.
type QueryDeps struct {
	Settings *config.Settings
	Log      *slog.Logger
	Store    store.VectorStore
	Embedder embeddings.Embedder
	LLM      llm.Client
	Cache    cache.Cache
}

// IndexerDeps bundles what the indexing worker needs.
type IndexerDeps struct {
	Settings *config.Settings
	Log      *slog.Logger
	Store    store.VectorStore
	Embedder embeddings.Embedder
	Queue    queue.Queue
	Cache    cache.Cache
}

var (
	queryRequires = []string{
		config.FieldOpenAIKey, config.FieldDefaultModel, config.FieldEmbeddingModel,
		config.FieldServiceURL, config.FieldTableName, config.FieldDimensions, config.FieldPartitionInterval,
	}
	indexerRequires = []string{
		config.FieldOpenAIKey, config.FieldEmbeddingModel,
		config.FieldServiceURL, config.FieldTableName, config.FieldDimensions, config.FieldPartitionInterval,
		config.FieldQueueURL, config.FieldQueueMaxAttempts,
	}
)

// BuildQuery wires the query service from already-loaded settings.
func BuildQuery(ctx context.Context, s *config.Settings) (QueryDeps, error) {
	if err := s.Require(queryRequires...); err != nil {
		return QueryDeps{}, err
	}
	log := logger.Named("query")

	st, err := buildStore(ctx, s, log)
	if err != nil {
		return QueryDeps{}, fmt.Errorf("failed to initialize store: %w", err)
	}
	embedder, err := buildEmbedder(s, log)
	if err != nil {
		_ = st.Close()
		return QueryDeps{}, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	client, err := llm.NewOpenAIClient(s.OpenAI)
	if err != nil {
		_ = st.Close()
		return QueryDeps{}, fmt.Errorf("failed to initialize LLM: %w", err)
	}
	log.Info("using OpenAI LLM client", "model", s.OpenAI.DefaultModel)

	return QueryDeps{
		Settings: s,
		Log:      log,
		Store:    st,
		Embedder: embedder,
		LLM:      client,
		Cache:    buildCache(ctx, s, log),
	}, nil
}

// BuildIndexer wires the indexing worker from already-loaded settings.
func BuildIndexer(ctx context.Context, s *config.Settings) (IndexerDeps, error) {
	if err := s.Require(indexerRequires...); err != nil {
		return IndexerDeps{}, err
	}
	log := logger.Named("indexer")

	st, err := buildStore(ctx, s, log)
	if err != nil {
		return IndexerDeps{}, fmt.Errorf("failed to initialize store: %w", err)
	}
	embedder, err := buildEmbedder(s, log)
	if err != nil {
		_ = st.Close()
		return IndexerDeps{}, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	nc, err := nats.Connect(s.Queue.URL, nats.Name("vector-rag-indexer"))
	if err != nil {
		_ = st.Close()
		return IndexerDeps{}, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	log.Info("using NATS queue")

	return IndexerDeps{
		Settings: s,
		Log:      log,
		Store:    st,
		Embedder: embedder,
		Queue:    queue.NewNATS(log, nc, s.Queue.MaxAttempts),
		Cache:    buildCache(ctx, s, log),
	}, nil
}

func (d QueryDeps) Close() {
	closeAll(d.Log, d.Store, d.Cache)
}

func (d IndexerDeps) Close() {
	closeAll(d.Log, d.Queue, d.Store, d.Cache)
}

type closer interface {
	Close() error
}

func closeAll(log *slog.Logger, cs ...closer) {
	for _, c := range cs {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			log.Warn("close failed", "err", err)
		}
	}
}

func buildStore(ctx context.Context, s *config.Settings, log *slog.Logger) (store.VectorStore, error) {
	st, err := store.NewPostgres(ctx, s.Database.ServiceURL, s.VectorStore)
	if err != nil {
		return nil, err
	}
	log.Info("using Timescale vector store",
		"table", s.VectorStore.TableName,
		"dimensions", s.VectorStore.EmbeddingDimensions,
		"partition_interval", s.VectorStore.TimePartitionInterval,
	)
	return st, nil
}

func buildEmbedder(s *config.Settings, log *slog.Logger) (embeddings.Embedder, error) {
	embedder, err := embeddings.NewOpenAIEmbedder(s.OpenAI, s.VectorStore.EmbeddingDimensions)
	if err != nil {
		return nil, err
	}
	log.Info("using OpenAI embedder", "model", s.OpenAI.EmbeddingModel)
	return embedder, nil
}

// buildCache falls back to a no-op cache when Redis is not configured or
// not reachable; caching is never required for correctness.
func buildCache(ctx context.Context, s *config.Settings, log *slog.Logger) cache.Cache {
	if s.Cache.URL == "" {
		log.Info("answer cache disabled")
		return cache.NewNoOpCache()
	}
	c, err := cache.NewRedisCache(ctx, s.Cache.URL)
	if err != nil {
		log.Warn("redis unavailable, caching disabled", "err", err)
		return cache.NewNoOpCache()
	}
	log.Info("using Redis answer cache", "ttl", s.Cache.TTL)
	return c
}
