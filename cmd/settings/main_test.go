package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vector-rag/internal/config"
)

func TestRunPrintsSettingsWithoutSecrets(t *testing.T) {
	loader := config.NewLoader(config.WithEnvFile(""), config.WithEnvironment(map[string]string{
		"OPENAI_API_KEY":        "sk-secret",
		"TIMESCALE_SERVICE_URL": "postgres://user:hunter1@db",
		"REDIS_URL":             "redis://:hunter2@cache:6379",
	}))

	var buf bytes.Buffer
	require.NoError(t, run(&buf, loader.Get))

	assert.NotContains(t, buf.String(), "sk-secret")
	assert.NotContains(t, buf.String(), "hunter1")
	assert.NotContains(t, buf.String(), "hunter2")

	var out map[string]map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "gpt-4o", out["openai"]["default_model"])
	assert.Empty(t, out["database"])
	assert.Equal(t, "embeddings", out["vector_store"]["table_name"])
	assert.EqualValues(t, 1536, out["vector_store"]["embedding_dimensions"])
}

func TestRunReturnsLoadErrors(t *testing.T) {
	loader := config.NewLoader(config.WithEnvFile(""), config.WithEnvironment(map[string]string{
		"OPENAI_MAX_RETRIES": "many",
	}))

	err := run(&bytes.Buffer{}, loader.Get)
	assert.ErrorIs(t, err, config.ErrInvalidSettings)
}
