package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/yoockh/intervue/internal/models"
)

// DefaultGroqBaseURL points the OpenAI-compatible client at Groq.
const DefaultGroqBaseURL = "https://api.groq.com/openai/v1"

type OpenAICompatConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
}

// OpenAICompat talks to any chat-completions endpoint (Groq, OpenAI,
// OpenRouter) through the go-openai client.
type OpenAICompat struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

func NewOpenAICompat(cfg OpenAICompatConfig) (*OpenAICompat, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai-compatible API key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("openai-compatible model is required")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = DefaultGroqBaseURL
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	return &OpenAICompat{
		client:      openai.NewClientWithConfig(config),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

func (p *OpenAICompat) Name() string { return "openai:" + p.model }

func (p *OpenAICompat) Close() error { return nil }

func (p *OpenAICompat) Complete(ctx context.Context, messages []models.Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    toOpenAIMessages(messages),
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai-compatible: empty choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func toOpenAIMessages(messages []models.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case models.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case models.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}

// ErrClient marks a provider rejection that retrying cannot fix.
type ErrClient struct {
	Status int
	Err    error
}

func (e *ErrClient) Error() string { return fmt.Sprintf("llm client error %d: %v", e.Status, e.Err) }

func (e *ErrClient) Unwrap() error { return e.Err }

func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		s := apiErr.HTTPStatusCode
		if s >= 400 && s < 500 && s != http.StatusTooManyRequests && s != http.StatusRequestTimeout {
			return &ErrClient{Status: s, Err: err}
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		s := reqErr.HTTPStatusCode
		if s >= 400 && s < 500 && s != http.StatusTooManyRequests && s != http.StatusRequestTimeout {
			return &ErrClient{Status: s, Err: err}
		}
	}
	return err
}
