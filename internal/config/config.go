package config

import (
	"log/slog"
	"time"
)

// LLMSettings holds provider-agnostic model call parameters. A nil
// MaxTokens leaves the limit to the provider.
type LLMSettings struct {
	Temperature float64 `env:"TEMPERATURE" envDefault:"0.0" json:"temperature"`
	MaxTokens   *int    `env:"MAX_TOKENS" json:"max_tokens,omitempty"`
	MaxRetries  int     `env:"MAX_RETRIES" envDefault:"3" json:"max_retries"`
}

// OpenAISettings extends LLMSettings with OpenAI credentials and models.
type OpenAISettings struct {
	LLMSettings

	APIKey         string `env:"API_KEY" json:"-" validate:"required"`
	DefaultModel   string `env:"DEFAULT_MODEL" envDefault:"gpt-4o" json:"default_model" validate:"required"`
	EmbeddingModel string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small" json:"embedding_model" validate:"required"`
}

type DatabaseSettings struct {
	ServiceURL string `env:"TIMESCALE_SERVICE_URL" json:"-" validate:"required"`
}

type VectorStoreSettings struct {
	TableName             string        `env:"TABLE_NAME" envDefault:"embeddings" json:"table_name" validate:"required"`
	EmbeddingDimensions   int           `env:"EMBEDDING_DIMENSIONS" envDefault:"1536" json:"embedding_dimensions" validate:"gt=0"`
	TimePartitionInterval time.Duration `env:"TIME_PARTITION_INTERVAL" envDefault:"168h" json:"time_partition_interval" validate:"gt=0"`
}

type ServerSettings struct {
	Port int `env:"PORT" envDefault:"8080" json:"port"`
}

// CacheSettings configures the answer cache. An empty URL disables caching.
type CacheSettings struct {
	URL string        `env:"REDIS_URL" json:"-" validate:"required"`
	TTL time.Duration `env:"CACHE_TTL" envDefault:"1h" json:"ttl"`
}

type QueueSettings struct {
	URL         string `env:"NATS_URL" json:"-" validate:"required"`
	MaxAttempts int    `env:"QUEUE_MAX_ATTEMPTS" envDefault:"5" json:"max_attempts" validate:"gt=0"`
}

type ChunkingSettings struct {
	MaxTokens int `env:"CHUNK_MAX_TOKENS" envDefault:"400" json:"max_tokens"`
	Overlap   int `env:"CHUNK_OVERLAP" envDefault:"80" json:"overlap"`
}

// Settings is the root of the configuration tree. Every group is
// defaulted on its own; nothing is checked across groups.
type Settings struct {
	OpenAI      OpenAISettings      `envPrefix:"OPENAI_" json:"openai"`
	Database    DatabaseSettings    `json:"database"`
	VectorStore VectorStoreSettings `envPrefix:"VECTOR_STORE_" json:"vector_store"`

	Server   ServerSettings   `json:"server"`
	Cache    CacheSettings    `json:"cache"`
	Queue    QueueSettings    `json:"queue"`
	Chunking ChunkingSettings `json:"chunking"`
}

// LogValue omits credentials and connection strings.
func (s *Settings) LogValue() slog.Value {
	maxTokens := "default"
	if s.OpenAI.MaxTokens != nil {
		maxTokens = slog.IntValue(*s.OpenAI.MaxTokens).String()
	}
	return slog.GroupValue(
		slog.Group("openai",
			"default_model", s.OpenAI.DefaultModel,
			"embedding_model", s.OpenAI.EmbeddingModel,
			"temperature", s.OpenAI.Temperature,
			"max_tokens", maxTokens,
			"max_retries", s.OpenAI.MaxRetries,
			"api_key_set", s.OpenAI.APIKey != "",
		),
		slog.Group("database",
			"service_url_set", s.Database.ServiceURL != "",
		),
		slog.Group("vector_store",
			"table_name", s.VectorStore.TableName,
			"embedding_dimensions", s.VectorStore.EmbeddingDimensions,
			"time_partition_interval", s.VectorStore.TimePartitionInterval,
		),
		slog.Int("port", s.Server.Port),
		slog.Bool("cache_enabled", s.Cache.URL != ""),
	)
}
