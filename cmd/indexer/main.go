package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"vector-rag/internal/app"
	"vector-rag/internal/chunker"
	"vector-rag/internal/config"
	"vector-rag/internal/httputil"
	"vector-rag/internal/queue"
	"vector-rag/internal/store"
)

type indexTaskPayload struct {
	Contents  string         `json:"contents" validate:"required"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
}

func main() {
	settings, err := config.Get()
	if err != nil {
		slog.Default().Error("failed to load settings", "err", err)
		os.Exit(1)
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.BuildIndexer(sigCtx, settings)
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer deps.Close()
	deps.Log.Info("indexer starting", "settings", settings)

	g, ctx := errgroup.WithContext(sigCtx)

	g.Go(func() error {
		return deps.Queue.Worker(ctx, queue.TaskTypeIndex, func(ctx context.Context, task queue.Task) error {
			var payload indexTaskPayload
			if err := json.Unmarshal(task.Payload, &payload); err != nil {
				return err
			}
			return handleIndex(ctx, deps, payload)
		})
	})

	g.Go(func() error {
		return httputil.ServeHealth(ctx, deps.Log, settings.Server.Port)
	})

	if err := g.Wait(); err != nil {
		deps.Log.Error("indexer stopped", "err", err)
	}
}

// handleIndex chunks the payload, embeds every chunk and stores the records.
func handleIndex(ctx context.Context, deps app.IndexerDeps, payload indexTaskPayload) error {
	if err := httputil.Validator.Struct(&payload); err != nil {
		return err
	}

	chunks := chunker.Split(payload.Contents, chunker.FromSettings(deps.Settings.Chunking))
	vectors, err := deps.Embedder.EmbedBatch(ctx, chunker.Texts(chunks))
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("got %d embeddings for %d chunks", len(vectors), len(chunks))
	}

	records := make([]store.Record, len(chunks))
	for i, c := range chunks {
		meta := maps.Clone(payload.Metadata)
		if meta == nil {
			meta = map[string]any{}
		}
		meta["chunk_index"] = c.Index
		meta["chunk_count"] = len(chunks)
		records[i] = store.Record{
			CreatedAt: payload.CreatedAt,
			Metadata:  meta,
			Contents:  c.Text,
			Embedding: vectors[i],
		}
	}
	if err := deps.Store.Upsert(ctx, records); err != nil {
		return err
	}

	if err := deps.Cache.InvalidateAll(ctx); err != nil {
		deps.Log.Warn("failed to invalidate answer cache", "err", err)
	}
	deps.Log.Info("indexed content", "chunks", len(chunks))
	return nil
}
