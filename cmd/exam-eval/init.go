package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const configTemplate = `llm_api:
  type: openai            # openai | claude
  api_key: ""             # falls back to OPENAI_API_KEY / ANTHROPIC_API_KEY
  base_url: ""
  api_rate_limit: -1      # calls per second, -1 = unlimited
  max_retries: 3
  timeout: 10m

model:
  name: gpt-4o-mini
  temperature: 0.0
  top_p: 0.9
  max_tokens: 4096

evaluation:
  dataset_paths:
    - datasets/exam
  evaluation_method: pattern   # pattern | box
  repeat_runs: 1
  shuffle_options: false
  concurrency: 0               # 0 = number of CPUs
  datasets_prompt_map: {}      # dataset path -> prompt language (zh | en)

storage:
  type: sqlite                 # sqlite | memory
  path: data/exam-eval.db
  results_dir: results
`

func newInitCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := st.configPath
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("init: %q already exists", path)
			}

			dir := filepath.Dir(path)
			if dir != "." && dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("init: create dir %q: %w", dir, err)
				}
			}
			if err := os.WriteFile(path, []byte(configTemplate), 0o644); err != nil {
				return fmt.Errorf("init: write %q: %w", path, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
}
