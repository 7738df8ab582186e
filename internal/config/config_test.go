package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
model:
  name: gpt-4o-mini
evaluation:
  dataset_paths:
    - datasets/exam
`

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.LLMAPI.Type != "openai" {
		t.Fatalf("type = %q, want openai", cfg.LLMAPI.Type)
	}
	if cfg.LLMAPI.APIRateLimit != -1 {
		t.Fatalf("api_rate_limit = %v, want -1", cfg.LLMAPI.APIRateLimit)
	}
	if cfg.LLMAPI.MaxRetries != 3 {
		t.Fatalf("max_retries = %d, want 3", cfg.LLMAPI.MaxRetries)
	}
	if cfg.LLMAPI.Timeout != 10*time.Minute {
		t.Fatalf("timeout = %v, want 10m", cfg.LLMAPI.Timeout)
	}
	if cfg.Model.TopP != 0.9 {
		t.Fatalf("top_p = %v, want 0.9", cfg.Model.TopP)
	}
	if cfg.Model.MaxTokens != 4096 {
		t.Fatalf("max_tokens = %d, want 4096", cfg.Model.MaxTokens)
	}
	if cfg.Evaluation.EvaluationMethod != "pattern" {
		t.Fatalf("evaluation_method = %q, want pattern", cfg.Evaluation.EvaluationMethod)
	}
	if cfg.Evaluation.RepeatRuns != 1 {
		t.Fatalf("repeat_runs = %d, want 1", cfg.Evaluation.RepeatRuns)
	}
	if cfg.Storage.Type != "sqlite" || cfg.Storage.ResultsDir != "results" {
		t.Fatalf("unexpected storage defaults: %+v", cfg.Storage)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing model name", mutate: func(c *Config) { c.Model.Name = "" }, wantErr: true},
		{name: "no dataset paths", mutate: func(c *Config) { c.Evaluation.DatasetPaths = nil }, wantErr: true},
		{name: "unknown method", mutate: func(c *Config) { c.Evaluation.EvaluationMethod = "vibes" }, wantErr: true},
		{name: "box method", mutate: func(c *Config) { c.Evaluation.EvaluationMethod = "box" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.Model.Name = "m"
			cfg.Evaluation.DatasetPaths = []string{"d"}
			cfg.ApplyDefaults()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestAPIKeyEnvFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-openai")
	t.Setenv("ANTHROPIC_API_KEY", "env-anthropic")

	cfg := &Config{}
	cfg.ApplyDefaults()
	if cfg.LLMAPI.APIKey != "env-openai" {
		t.Fatalf("api key = %q, want env-openai", cfg.LLMAPI.APIKey)
	}

	cfg = &Config{}
	cfg.LLMAPI.Type = "claude"
	cfg.ApplyDefaults()
	if cfg.LLMAPI.APIKey != "env-anthropic" {
		t.Fatalf("api key = %q, want env-anthropic", cfg.LLMAPI.APIKey)
	}

	// An explicit key wins over the environment.
	cfg = &Config{}
	cfg.LLMAPI.APIKey = "explicit"
	cfg.ApplyDefaults()
	if cfg.LLMAPI.APIKey != "explicit" {
		t.Fatalf("api key = %q, want explicit", cfg.LLMAPI.APIKey)
	}
}

func TestPromptLang(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	cfg.Evaluation.DatasetsPromptMap = map[string]string{
		"datasets/en":    "en",
		"datasets/blank": "  ",
	}

	if got := cfg.PromptLang("datasets/en"); got != "en" {
		t.Fatalf("PromptLang = %q, want en", got)
	}
	if got := cfg.PromptLang("datasets/zh"); got != "zh" {
		t.Fatalf("PromptLang = %q, want zh default", got)
	}
	if got := cfg.PromptLang("datasets/blank"); got != "zh" {
		t.Fatalf("PromptLang = %q, want zh for blank mapping", got)
	}
}

func TestSanitizedStripsAPIKey(t *testing.T) {
	cfg := &Config{}
	cfg.Model.Name = "m"
	cfg.LLMAPI.APIKey = "super-secret"
	cfg.Evaluation.DatasetPaths = []string{"d"}
	cfg.ApplyDefaults()

	m := cfg.Sanitized()
	llmSection, ok := m["llm_api"].(map[string]any)
	if !ok {
		t.Fatalf("missing llm_api section: %v", m)
	}
	if _, present := llmSection["api_key"]; present {
		t.Fatal("api_key present in sanitized config")
	}
	for _, v := range llmSection {
		if s, ok := v.(string); ok && s == "super-secret" {
			t.Fatal("secret value leaked into sanitized config")
		}
	}
}
