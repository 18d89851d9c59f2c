package app

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vector-rag/internal/cache"
	"vector-rag/internal/config"
)

func loadSettings(t *testing.T, vars map[string]string) *config.Settings {
	t.Helper()
	s, err := config.Load(config.WithEnvFile(""), config.WithEnvironment(vars))
	require.NoError(t, err)
	return s
}

func TestBuildQueryRequiresSettings(t *testing.T) {
	s := loadSettings(t, map[string]string{})

	_, err := BuildQuery(context.Background(), s)

	require.ErrorIs(t, err, config.ErrMissingSettings)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	assert.Contains(t, err.Error(), "TIMESCALE_SERVICE_URL")
}

func TestBuildIndexerRequiresQueue(t *testing.T) {
	s := loadSettings(t, map[string]string{
		"OPENAI_API_KEY":        "sk-test",
		"TIMESCALE_SERVICE_URL": "postgres://x",
	})

	_, err := BuildIndexer(context.Background(), s)

	require.ErrorIs(t, err, config.ErrMissingSettings)
	assert.Contains(t, err.Error(), "NATS_URL")
}

func TestBuildCacheFallsBackToNoOp(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name string
		url  string
	}{
		{"not configured", ""},
		{"invalid url", "not-a-url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := loadSettings(t, map[string]string{"REDIS_URL": tt.url})
			c := buildCache(context.Background(), s, log)
			assert.IsType(t, &cache.NoOpCache{}, c)
		})
	}
}

func TestCloseAllSkipsNil(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	assert.NotPanics(t, func() {
		QueryDeps{Log: log}.Close()
	})
}
