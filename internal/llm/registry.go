package llm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lumenlabsco/exam-eval/internal/config"
)

// Constructor builds a provider from API credentials and model parameters.
type Constructor func(apiKey string, baseURL string, params Params) Provider

// Registry maps provider type names to constructors.
type Registry struct {
	constructors map[string]Constructor
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

// DefaultRegistry returns a registry with the built-in providers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("openai", func(apiKey, baseURL string, params Params) Provider {
		return NewOpenAIProvider(apiKey, baseURL, params)
	})
	claude := func(apiKey, baseURL string, params Params) Provider {
		return NewClaudeProvider(apiKey, baseURL, params)
	}
	r.Register("claude", claude)
	r.Register("anthropic", claude)
	return r
}

// Register adds a provider constructor under a type name.
func (r *Registry) Register(name string, c Constructor) {
	if r == nil || c == nil {
		return
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return
	}
	if r.constructors == nil {
		r.constructors = make(map[string]Constructor)
	}
	r.constructors[name] = c
}

// Names lists the registered provider type names, sorted.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// New builds the provider for a type name.
func (r *Registry) New(name string, apiKey string, baseURL string, params Params) (Provider, error) {
	if r == nil {
		return nil, fmt.Errorf("llm: nil registry")
	}
	key := strings.ToLower(strings.TrimSpace(name))
	c, ok := r.constructors[key]
	if !ok {
		return nil, fmt.Errorf("llm: unknown provider %q (available: %s)", name, strings.Join(r.Names(), ", "))
	}
	return c(apiKey, baseURL, params), nil
}

// NewProviderFromConfig builds the provider selected by the config. The box
// evaluation method wires the configured per-language system prompts into
// the provider; the pattern method sends the bare question.
func NewProviderFromConfig(cfg *config.Config) (Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("llm: nil config")
	}

	params := Params{
		Model:       cfg.Model.Name,
		Temperature: cfg.Model.Temperature,
		TopP:        cfg.Model.TopP,
		MaxTokens:   cfg.Model.MaxTokens,
		MaxRetries:  cfg.LLMAPI.MaxRetries,
		Timeout:     cfg.LLMAPI.Timeout,
	}
	if cfg.Evaluation.EvaluationMethod == "box" {
		params.SystemPrompts = cfg.Evaluation.SystemPrompts
	}

	return DefaultRegistry().New(cfg.LLMAPI.Type, cfg.LLMAPI.APIKey, cfg.LLMAPI.BaseURL, params)
}
