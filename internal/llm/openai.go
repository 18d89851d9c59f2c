package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"vector-rag/internal/config"
)

// OpenAIClient calls the OpenAI Chat Completions API.
type OpenAIClient struct {
	model    openai.ChatModel
	settings config.LLMSettings
	client   *openai.Client
}

const (
	defaultChatTimeout = 60 * time.Second
	answerPrompt       = "You answer questions concisely based only on the provided context. If the context does not contain the answer, say so."
)

// NewOpenAIClient builds a chat client from s. Extra options are applied
// after the defaults.
func NewOpenAIClient(s config.OpenAISettings, opts ...option.RequestOption) (*OpenAIClient, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	model := openai.ChatModel(s.DefaultModel)
	if model == "" {
		model = openai.ChatModelGPT4o
	}
	reqOpts := append([]option.RequestOption{
		option.WithAPIKey(s.APIKey),
		option.WithMaxRetries(s.MaxRetries),
	}, opts...)
	cli := openai.NewClient(reqOpts...)
	return &OpenAIClient{
		model:    model,
		settings: s.LLMSettings,
		client:   &cli,
	}, nil
}

func (c *OpenAIClient) Answer(ctx context.Context, question, contextText string) (string, error) {
	if c == nil || c.client == nil {
		return "", fmt.Errorf("nil openai client")
	}
	reqCtx, cancel := context.WithTimeout(ctx, defaultChatTimeout)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(reqCtx, c.params(buildMessages(
		answerPrompt,
		fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextText, question),
	)))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// params applies the configured sampling settings. MaxTokens is only sent
// when set so the provider default applies otherwise.
func (c *OpenAIClient) params(messages []openai.ChatCompletionMessageParamUnion) openai.ChatCompletionNewParams {
	p := openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    messages,
		Temperature: openai.Float(c.settings.Temperature),
	}
	if c.settings.MaxTokens != nil {
		p.MaxCompletionTokens = openai.Int(int64(*c.settings.MaxTokens))
	}
	return p
}

func buildMessages(system, user string) []openai.ChatCompletionMessageParamUnion {
	return []openai.ChatCompletionMessageParamUnion{
		{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: openai.String(system),
				},
			},
		},
		{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfString: openai.String(user),
				},
			},
		},
	}
}
