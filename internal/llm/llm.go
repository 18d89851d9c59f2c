package llm

import "context"

// Client is a minimal LLM interface to allow pluggable providers.
type Client interface {
	Answer(ctx context.Context, question, contextText string) (string, error)
}
