package llm

import (
	"context"
	"time"
)

// Provider sends one exam question to a chat-completion backend and returns
// the raw model text. The language hint selects the system prompt, when the
// provider is configured with one for that language.
type Provider interface {
	Name() string
	Complete(ctx context.Context, question string, lang string) (*Response, error)
}

// Usage mirrors the token accounting reported by the backend.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the text and usage of a single completion.
type Response struct {
	Text  string
	Usage Usage
}

// Params carries the generation and client parameters shared by all
// providers. MaxRetries counts additional attempts after the first; Timeout
// bounds one HTTP request, not the whole retry sequence.
type Params struct {
	Model         string
	Temperature   float64
	TopP          float64
	MaxTokens     int
	MaxRetries    int
	Timeout       time.Duration
	SystemPrompts map[string]string // language -> system prompt, may be nil
}

func (p *Params) systemPrompt(lang string) string {
	if p == nil || len(p.SystemPrompts) == 0 {
		return ""
	}
	if s, ok := p.SystemPrompts[lang]; ok {
		return s
	}
	return p.SystemPrompts["zh"]
}
