package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vector-rag/internal/config"
	"vector-rag/internal/embeddings"
)

func testSettings() config.VectorStoreSettings {
	return config.VectorStoreSettings{
		TableName:             "embeddings",
		EmbeddingDimensions:   3,
		TimePartitionInterval: 7 * 24 * time.Hour,
	}
}

func TestVectorRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		vec  embeddings.Vector
		text string
	}{
		{"empty", embeddings.Vector{}, "[]"},
		{"single", embeddings.Vector{0.5}, "[0.5]"},
		{"several", embeddings.Vector{0.1, -0.25, 3}, "[0.1,-0.25,3]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.text, vectorToString(tt.vec))
			got, err := parseVector(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.vec, got)
		})
	}
}

func TestParseVectorMalformed(t *testing.T) {
	for _, in := range []string{"", "0.1,0.2", "[0.1,abc]"} {
		_, err := parseVector(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestIntervalLiteral(t *testing.T) {
	assert.Equal(t, "604800000000 microseconds", intervalLiteral(7*24*time.Hour))
	assert.Equal(t, "1500 microseconds", intervalLiteral(1500*time.Microsecond))
}

func TestBuildSearchQueryDefaults(t *testing.T) {
	q, args, err := buildSearchQuery(`"embeddings"`, embeddings.Vector{1, 0}, SearchOptions{})
	require.NoError(t, err)

	assert.Contains(t, q, `FROM "embeddings" ORDER BY distance LIMIT $2`)
	assert.NotContains(t, q, "WHERE")
	assert.Equal(t, []any{"[1,0]", defaultSearchLimit}, args)
}

func TestBuildSearchQueryFilters(t *testing.T) {
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	until := since.Add(24 * time.Hour)

	q, args, err := buildSearchQuery(`"docs"`, embeddings.Vector{1}, SearchOptions{
		Limit:  3,
		Filter: map[string]any{"source": "faq"},
		Since:  since,
		Until:  until,
	})
	require.NoError(t, err)

	assert.Contains(t, q, "WHERE metadata @> $2::jsonb AND created_at >= $3 AND created_at < $4")
	assert.True(t, strings.HasSuffix(q, "LIMIT $5"), q)
	assert.Equal(t, []any{"[1]", `{"source":"faq"}`, since, until, 3}, args)
}

func TestSchemaUsesSettings(t *testing.T) {
	vs := testSettings()
	vs.TableName = "Docs"
	vs.EmbeddingDimensions = 768
	s := newPostgresStore(nil, vs)

	schema := strings.Join(s.schema(), "\n")
	assert.Contains(t, schema, `CREATE TABLE IF NOT EXISTS "Docs"`)
	assert.Contains(t, schema, "VECTOR(768)")
	assert.Contains(t, schema, `"Docs_embedding_idx"`)
}

func TestUpsertRejectsWrongDimensions(t *testing.T) {
	s := newPostgresStore(nil, testSettings())

	err := s.Upsert(context.Background(), []Record{{Contents: "x", Embedding: embeddings.Vector{1, 2}}})
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestSearchRejectsWrongDimensions(t *testing.T) {
	s := newPostgresStore(nil, testSettings())

	_, err := s.Search(context.Background(), embeddings.Vector{1}, SearchOptions{})
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestDeleteNoIDs(t *testing.T) {
	s := newPostgresStore(nil, testSettings())
	assert.NoError(t, s.Delete(context.Background(), nil))
}
