package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"vector-rag/internal/app"
	"vector-rag/internal/cache"
	"vector-rag/internal/config"
	"vector-rag/internal/httputil"
	"vector-rag/internal/store"
)

const defaultTopK = 5

type queryRequest struct {
	Question string         `json:"question" validate:"required,min=3,max=500"`
	TopK     int            `json:"top_k" validate:"omitempty,min=1,max=20"`
	Filter   map[string]any `json:"filter"`
}

func main() {
	settings, err := config.Get()
	if err != nil {
		slog.Default().Error("failed to load settings", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.BuildQuery(ctx, settings)
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer deps.Close()
	deps.Log.Info("settings loaded", "settings", settings)

	r := httputil.NewRouter(deps.Log)
	r.Post("/api/query", queryHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))

	if err := httputil.Serve(ctx, deps.Log, settings.Server.Port, r); err != nil {
		deps.Log.Error("server error", "err", err)
	}
}

func queryHandler(deps app.QueryDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req queryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}
		if req.TopK == 0 {
			req.TopK = defaultTopK
		}

		ctx := r.Context()

		// Filtered queries are rare and not worth a key per filter.
		cacheable := len(req.Filter) == 0
		cacheKey := cache.GenerateCacheKey(req.Question, deps.Settings.OpenAI.DefaultModel, req.TopK)
		if cacheable {
			if cached, err := deps.Cache.GetQueryResult(ctx, cacheKey); err != nil {
				deps.Log.Warn("cache read failed", "err", err)
			} else if cached != nil {
				deps.Log.Info("cache hit", "question", req.Question)
				writeAnswer(w, cached, true)
				return
			}
		}

		vec, err := deps.Embedder.Embed(ctx, req.Question)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to embed question", err, http.StatusInternalServerError)
			return
		}
		results, err := deps.Store.Search(ctx, vec, store.SearchOptions{Limit: req.TopK, Filter: req.Filter})
		if err != nil {
			httputil.Fail(deps.Log, w, "search failed", err, http.StatusInternalServerError)
			return
		}

		answer, err := deps.LLM.Answer(ctx, req.Question, buildContext(results))
		if err != nil {
			httputil.Fail(deps.Log, w, "llm failed", err, http.StatusInternalServerError)
			return
		}

		result := &cache.QueryResult{Answer: answer, Sources: buildSources(results)}
		if cacheable {
			if err := deps.Cache.SetQueryResult(ctx, cacheKey, result, deps.Settings.Cache.TTL); err != nil {
				// Log cache write failure but don't fail the request
				deps.Log.Warn("failed to cache result", "err", err)
			}
		}
		writeAnswer(w, result, false)
	}
}

func writeAnswer(w http.ResponseWriter, result *cache.QueryResult, cached bool) {
	sources := result.Sources
	if sources == nil {
		sources = []cache.Source{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"answer":  result.Answer,
		"sources": sources,
		"cached":  cached,
	})
}

// buildContext concatenates record contents from search results for LLM context.
func buildContext(results []store.SearchResult) string {
	var builder strings.Builder
	for _, res := range results {
		builder.WriteString(res.Record.Contents)
		builder.WriteString("\n")
	}
	return builder.String()
}

// buildSources converts search results into sources with truncated previews.
func buildSources(results []store.SearchResult) []cache.Source {
	sources := make([]cache.Source, len(results))
	for i, res := range results {
		sources[i] = cache.Source{
			ID:       res.Record.ID.String(),
			Distance: res.Distance,
			Preview:  truncate(res.Record.Contents, 150),
		}
	}
	return sources
}

// truncate limits text to maxLen bytes, cutting at a word boundary.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if idx := strings.LastIndex(s[:maxLen], " "); idx > 0 {
		return s[:idx] + "..."
	}
	return s[:maxLen] + "..."
}
