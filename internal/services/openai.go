// OpenAI chat completions implementation of [Generator]
package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/mixtape/internal/shared"
)

const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	userRole             = "user"
)

// ChatMessage is one message of a chat completion request or response.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []ChatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

// ChatChoice is a completion choice.
type ChatChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// ChatUsage reports token consumption.
type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse is the chat completions response body.
type ChatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
	Usage   ChatUsage    `json:"usage"`
}

// OpenAIGenerator implements [Generator] with a single user message per prompt.
type OpenAIGenerator struct {
	client    *Client
	apiKey    string
	model     string
	maxTokens int
}

// NewOpenAIGenerator creates a generator. client should have no session store: the API key is static.
func NewOpenAIGenerator(client *Client, cfg shared.OpenAIConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: missing openai api_key", shared.ErrMissingCredentials)
	}
	if cfg.Model == "" {
		cfg.Model = shared.DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = shared.DefaultMaxTokens
	}

	return &OpenAIGenerator{client: client, apiKey: cfg.APIKey, model: cfg.Model, maxTokens: cfg.MaxTokens}, nil
}

// Generate returns the trimmed content of the first choice.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+g.apiKey)

	req := APIRequest{
		Method:   http.MethodPost,
		Endpoint: "chat/completions",
		Header:   header,
		Body: chatRequest{
			Model:     g.model,
			Messages:  []ChatMessage{{Role: userRole, Content: prompt}},
			MaxTokens: g.maxTokens,
		},
	}

	var resp ChatResponse
	if err := g.client.Call(ctx, req, &resp); err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("generate: %w: no choices in response", shared.ErrServiceUnavailable)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
