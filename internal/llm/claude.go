package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultClaudeModel = "claude-sonnet-4-5-20250929"

// ClaudeProvider talks to the Anthropic Messages API.
type ClaudeProvider struct {
	client anthropic.Client
	params Params
}

// NewClaudeProvider builds a Claude provider. An empty baseURL uses the
// official endpoint.
func NewClaudeProvider(apiKey string, baseURL string, params Params) *ClaudeProvider {
	opts := []option.RequestOption{}
	if v := strings.TrimSpace(apiKey); v != "" {
		opts = append(opts, option.WithAPIKey(v))
	}
	if v := strings.TrimSpace(baseURL); v != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(v, "/")))
	}
	if params.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(params.MaxRetries))
	}
	if params.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(params.Timeout))
	}

	if strings.TrimSpace(params.Model) == "" {
		params.Model = defaultClaudeModel
	}

	return &ClaudeProvider{
		client: anthropic.NewClient(opts...),
		params: params,
	}
}

func (p *ClaudeProvider) Name() string {
	return "claude"
}

func (p *ClaudeProvider) Complete(ctx context.Context, question string, lang string) (*Response, error) {
	if p == nil {
		return nil, errors.New("llm: claude: nil provider")
	}
	if ctx == nil {
		return nil, errors.New("llm: claude: nil context")
	}

	req := anthropic.MessageNewParams{
		Model:     anthropic.Model(strings.TrimSpace(p.params.Model)),
		MaxTokens: int64(p.params.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(question)),
		},
		Temperature: anthropic.Float(p.params.Temperature),
		TopP:        anthropic.Float(p.params.TopP),
	}
	if system := strings.TrimSpace(p.params.systemPrompt(lang)); system != "" {
		req.System = []anthropic.TextBlockParam{{Text: system}}
	}

	msg, err := p.client.Messages.New(ctx, req)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, errors.New("llm: claude: nil message")
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	return &Response{
		Text: sb.String(),
		Usage: Usage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}, nil
}
