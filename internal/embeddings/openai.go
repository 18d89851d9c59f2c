package embeddings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"vector-rag/internal/config"
)

// OpenAIEmbedder calls OpenAI's embeddings API.
type OpenAIEmbedder struct {
	model      openai.EmbeddingModel
	dimensions int
	client     *openai.Client
}

const defaultEmbeddingTimeout = 30 * time.Second

// NewOpenAIEmbedder creates an embedder for s.EmbeddingModel producing
// vectors of the given size. Extra options are applied after the defaults.
func NewOpenAIEmbedder(s config.OpenAISettings, dimensions int, opts ...option.RequestOption) (*OpenAIEmbedder, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	model := openai.EmbeddingModel(s.EmbeddingModel)
	if model == "" {
		model = openai.EmbeddingModelTextEmbedding3Small
	}
	reqOpts := append([]option.RequestOption{
		option.WithAPIKey(s.APIKey),
		option.WithMaxRetries(s.MaxRetries),
	}, opts...)
	cli := openai.NewClient(reqOpts...)
	return &OpenAIEmbedder{
		model:      model,
		dimensions: dimensions,
		client:     &cli,
	}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) (Vector, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch returns one vector per input, in input order.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]Vector, error) {
	if e == nil || e.client == nil {
		return nil, fmt.Errorf("nil openai embedder")
	}
	if len(texts) == 0 {
		return nil, nil
	}
	reqCtx, cancel := context.WithTimeout(ctx, defaultEmbeddingTimeout)
	defer cancel()

	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Model: e.model,
	}
	if e.dimensions > 0 && supportsDimensions(e.model) {
		params.Dimensions = openai.Int(int64(e.dimensions))
	}
	resp, err := e.client.Embeddings.New(reqCtx, params)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai: got %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	out := make([]Vector, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(out) {
			return nil, fmt.Errorf("openai: embedding index %d out of range", d.Index)
		}
		// Convert []float64 to []float32
		vec := make(Vector, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		out[d.Index] = vec
	}
	return out, nil
}

// supportsDimensions reports whether the model accepts a requested output size.
func supportsDimensions(model openai.EmbeddingModel) bool {
	return strings.HasPrefix(string(model), "text-embedding-3")
}
