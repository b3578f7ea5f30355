package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/biaslens/internal/domain/ai"
	"github.com/bryanwahyu/biaslens/internal/infra/ai/prompt"
)

const (
	maxTokens    = 1024
	defaultModel = "gpt-4o-mini"
)

// Client implements ai.Client on the chat completions API.
type Client struct {
	*openai.Client
	Model string
}

// NewClient builds an advisor. baseURL is optional and points the client at a compatible gateway.
func NewClient(apiKey, model, baseURL string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{Client: openai.NewClientWithConfig(cfg), Model: model}
}

func (c *Client) Advise(ctx context.Context, req ai.AdviceRequest) ([]string, error) {
	if req.Result == nil {
		return nil, ai.ErrEmptyAdvice
	}
	model := c.Model
	if model == "" {
		model = defaultModel
	}
	chat := openai.ChatCompletionRequest{
		Model: model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: prompt.GetUserPrompt(req)},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		chat.MaxCompletionTokens = maxTokens
	} else {
		chat.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, chat)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return nil, ai.ErrQuotaExceeded
		}
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ai.ErrEmptyAdvice
	}

	return prompt.ParseAdvice(resp.Choices[0].Message.Content)
}
