package llm

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vector-rag/internal/config"
)

type chatRequest struct {
	Model               string   `json:"model"`
	Temperature         *float64 `json:"temperature"`
	MaxCompletionTokens *int     `json:"max_completion_tokens"`
	Messages            []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

const chatResponse = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 0,
	"model": "gpt-4o",
	"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "Go is a language."}}]
}`

func newChatServer(t *testing.T, failures int32, got *chatRequest, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		if n <= failures {
			w.Header().Set("Retry-After-Ms", "1")
			http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusInternalServerError)
			return
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatResponse))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testSettings(maxRetries int) config.OpenAISettings {
	return config.OpenAISettings{
		LLMSettings:  config.LLMSettings{Temperature: 0.3, MaxRetries: maxRetries},
		APIKey:       "sk-test",
		DefaultModel: "gpt-4o",
	}
}

func TestNewOpenAIClientRequiresKey(t *testing.T) {
	_, err := NewOpenAIClient(config.OpenAISettings{})
	assert.Error(t, err)
}

func TestAnswerSendsSettings(t *testing.T) {
	var req chatRequest
	var calls atomic.Int32
	srv := newChatServer(t, 0, &req, &calls)

	s := testSettings(0)
	maxTokens := 256
	s.MaxTokens = &maxTokens
	c, err := NewOpenAIClient(s, option.WithBaseURL(srv.URL+"/v1/"))
	require.NoError(t, err)

	answer, err := c.Answer(t.Context(), "What is Go?", "Go is a programming language.")
	require.NoError(t, err)

	assert.Equal(t, "Go is a language.", answer)
	assert.Equal(t, "gpt-4o", req.Model)
	require.NotNil(t, req.Temperature)
	assert.Equal(t, 0.3, *req.Temperature)
	require.NotNil(t, req.MaxCompletionTokens)
	assert.Equal(t, 256, *req.MaxCompletionTokens)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Contains(t, req.Messages[1].Content, "Question: What is Go?")
}

func TestAnswerOmitsUnsetMaxTokens(t *testing.T) {
	var req chatRequest
	var calls atomic.Int32
	srv := newChatServer(t, 0, &req, &calls)

	c, err := NewOpenAIClient(testSettings(0), option.WithBaseURL(srv.URL+"/v1/"))
	require.NoError(t, err)

	_, err = c.Answer(t.Context(), "q", "ctx")
	require.NoError(t, err)
	assert.Nil(t, req.MaxCompletionTokens)
}

func TestAnswerRetriesPerSettings(t *testing.T) {
	tests := []struct {
		name       string
		maxRetries int
		wantErr    bool
		wantCalls  int32
	}{
		{"no retries", 0, true, 1},
		{"one retry", 1, false, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req chatRequest
			var calls atomic.Int32
			srv := newChatServer(t, 1, &req, &calls)

			c, err := NewOpenAIClient(testSettings(tt.maxRetries), option.WithBaseURL(srv.URL+"/v1/"))
			require.NoError(t, err)

			_, err = c.Answer(t.Context(), "q", "ctx")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}
