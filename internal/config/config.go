package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	LLMAPI     LLMAPIConfig     `yaml:"llm_api"`
	Model      ModelConfig      `yaml:"model"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
	Storage    StorageConfig    `yaml:"storage"`
}

type LLMAPIConfig struct {
	Type         string        `yaml:"type,omitempty"` // "openai" or "claude"
	APIKey       string        `yaml:"api_key,omitempty"`
	BaseURL      string        `yaml:"base_url,omitempty"`
	APIRateLimit float64       `yaml:"api_rate_limit,omitempty"` // calls/sec, -1 = unlimited
	MaxRetries   int           `yaml:"max_retries,omitempty"`
	Timeout      time.Duration `yaml:"timeout,omitempty"`
}

type ModelConfig struct {
	Name        string  `yaml:"name"`
	Temperature float64 `yaml:"temperature"`
	TopP        float64 `yaml:"top_p,omitempty"`
	MaxTokens   int     `yaml:"max_tokens,omitempty"`
}

type EvaluationConfig struct {
	DatasetPaths      []string          `yaml:"dataset_paths"`
	EvaluationMethod  string            `yaml:"evaluation_method,omitempty"` // "pattern" or "box"
	RepeatRuns        int               `yaml:"repeat_runs,omitempty"`
	ShuffleOptions    bool              `yaml:"shuffle_options,omitempty"`
	Concurrency       int               `yaml:"concurrency,omitempty"` // 0 = GOMAXPROCS
	DatasetsPromptMap map[string]string `yaml:"datasets_prompt_map,omitempty"`
	SystemPrompts     map[string]string `yaml:"system_prompts,omitempty"`
}

type StorageConfig struct {
	Type       string `yaml:"type,omitempty"` // "sqlite" or "memory"
	Path       string `yaml:"path,omitempty"`
	ResultsDir string `yaml:"results_dir,omitempty"`
}

// Load reads and validates a config file, applying defaults and API-key
// environment overrides.
func Load(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = DefaultPath
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills unset fields with their documented defaults.
func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.LLMAPI.Type) == "" {
		c.LLMAPI.Type = "openai"
	}
	if c.LLMAPI.APIRateLimit == 0 {
		c.LLMAPI.APIRateLimit = -1
	}
	if c.LLMAPI.MaxRetries <= 0 {
		c.LLMAPI.MaxRetries = 3
	}
	if c.LLMAPI.Timeout <= 0 {
		c.LLMAPI.Timeout = 10 * time.Minute
	}

	if c.Model.TopP == 0 {
		c.Model.TopP = 0.9
	}
	if c.Model.MaxTokens <= 0 {
		c.Model.MaxTokens = 4096
	}

	if strings.TrimSpace(c.Evaluation.EvaluationMethod) == "" {
		c.Evaluation.EvaluationMethod = "pattern"
	}
	if c.Evaluation.RepeatRuns <= 0 {
		c.Evaluation.RepeatRuns = 1
	}
	if c.Evaluation.DatasetsPromptMap == nil {
		c.Evaluation.DatasetsPromptMap = make(map[string]string)
	}

	if strings.TrimSpace(c.Storage.Type) == "" {
		c.Storage.Type = "sqlite"
	}
	if strings.TrimSpace(c.Storage.Path) == "" {
		c.Storage.Path = "data/exam-eval.db"
	}
	if strings.TrimSpace(c.Storage.ResultsDir) == "" {
		c.Storage.ResultsDir = "results"
	}

	if c.LLMAPI.APIKey == "" {
		switch strings.ToLower(strings.TrimSpace(c.LLMAPI.Type)) {
		case "claude", "anthropic":
			if v := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); v != "" {
				c.LLMAPI.APIKey = v
			}
		default:
			if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
				c.LLMAPI.APIKey = v
			}
		}
	}
}

// Validate checks required fields. A validation failure is fatal to the run.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Model.Name) == "" {
		return fmt.Errorf("config: model.name is required")
	}
	if len(c.Evaluation.DatasetPaths) == 0 {
		return fmt.Errorf("config: evaluation.dataset_paths is required")
	}
	switch c.Evaluation.EvaluationMethod {
	case "pattern", "box":
	default:
		return fmt.Errorf("config: unknown evaluation_method %q", c.Evaluation.EvaluationMethod)
	}
	return nil
}

// PromptLang returns the language hint for a dataset path, defaulting to zh.
func (c *Config) PromptLang(datasetPath string) string {
	if c == nil {
		return "zh"
	}
	if lang, ok := c.Evaluation.DatasetsPromptMap[datasetPath]; ok {
		if v := strings.TrimSpace(lang); v != "" {
			return v
		}
	}
	return "zh"
}

// Sanitized returns a serializable view of the config with secrets removed,
// suitable for embedding in exported results.
func (c *Config) Sanitized() map[string]any {
	if c == nil {
		return nil
	}
	return map[string]any{
		"llm_api": map[string]any{
			"type":           c.LLMAPI.Type,
			"base_url":       c.LLMAPI.BaseURL,
			"api_rate_limit": c.LLMAPI.APIRateLimit,
			"max_retries":    c.LLMAPI.MaxRetries,
			"timeout":        c.LLMAPI.Timeout.String(),
		},
		"model": map[string]any{
			"name":        c.Model.Name,
			"temperature": c.Model.Temperature,
			"top_p":       c.Model.TopP,
			"max_tokens":  c.Model.MaxTokens,
		},
		"evaluation": map[string]any{
			"dataset_paths":       append([]string(nil), c.Evaluation.DatasetPaths...),
			"evaluation_method":   c.Evaluation.EvaluationMethod,
			"repeat_runs":         c.Evaluation.RepeatRuns,
			"shuffle_options":     c.Evaluation.ShuffleOptions,
			"concurrency":         c.Evaluation.Concurrency,
			"datasets_prompt_map": c.Evaluation.DatasetsPromptMap,
		},
		"storage": map[string]any{
			"type":        c.Storage.Type,
			"path":        c.Storage.Path,
			"results_dir": c.Storage.ResultsDir,
		},
	}
}
