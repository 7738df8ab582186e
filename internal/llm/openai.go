package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider talks to any OpenAI-compatible chat-completion endpoint.
type OpenAIProvider struct {
	client *openai.Client
	params Params
}

// NewOpenAIProvider builds a provider for an OpenAI-compatible API. An empty
// baseURL uses the official endpoint.
func NewOpenAIProvider(apiKey string, baseURL string, params Params) *OpenAIProvider {
	cfg := openai.DefaultConfig(strings.TrimSpace(apiKey))
	if v := strings.TrimSpace(baseURL); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}
	if params.Timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: params.Timeout}
	}

	if strings.TrimSpace(params.Model) == "" {
		params.Model = "gpt-4o"
	}
	if params.MaxRetries < 0 {
		params.MaxRetries = 0
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		params: params,
	}
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

func (p *OpenAIProvider) Complete(ctx context.Context, question string, lang string) (*Response, error) {
	if p == nil || p.client == nil {
		return nil, errors.New("llm: openai: nil client")
	}
	if ctx == nil {
		return nil, errors.New("llm: openai: nil context")
	}

	msgs := make([]openai.ChatCompletionMessage, 0, 2)
	if system := strings.TrimSpace(p.params.systemPrompt(lang)); system != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: question,
	})

	req := openai.ChatCompletionRequest{
		Model:       strings.TrimSpace(p.params.Model),
		Messages:    msgs,
		MaxTokens:   p.params.MaxTokens,
		Temperature: float32(p.params.Temperature),
		TopP:        float32(p.params.TopP),
	}

	var lastErr error
	for attempt := 0; attempt <= p.params.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryBackoff(attempt)):
			}
		}

		resp, err := p.client.CreateChatCompletion(ctx, req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, err
			}
			continue
		}
		if len(resp.Choices) == 0 {
			return nil, errors.New("llm: openai: empty choices")
		}

		return &Response{
			Text: resp.Choices[0].Message.Content,
			Usage: Usage{
				PromptTokens:     resp.Usage.PromptTokens,
				CompletionTokens: resp.Usage.CompletionTokens,
				TotalTokens:      resp.Usage.TotalTokens,
			},
		}, nil
	}

	return nil, fmt.Errorf("llm: openai: %d attempts failed: %w", p.params.MaxRetries+1, lastErr)
}

func retryBackoff(attempt int) time.Duration {
	d := 100 * time.Millisecond << (attempt - 1)
	if d > 2*time.Second {
		return 2 * time.Second
	}
	return d
}
