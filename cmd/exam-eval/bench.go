package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/lumenlabsco/exam-eval/internal/benchmark"
	"github.com/lumenlabsco/exam-eval/internal/config"
	"github.com/lumenlabsco/exam-eval/internal/llm"
	"github.com/lumenlabsco/exam-eval/internal/logging"
	"github.com/lumenlabsco/exam-eval/internal/runner"
)

type benchOptions struct {
	prompt      string
	requests    int
	concurrency int
	output      string
}

func newBenchCmd(st *cliState) *cobra.Command {
	var opts benchOptions

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark the configured provider's serving performance",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(st.configPath)
			if err != nil {
				return err
			}
			st.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.prompt, "prompt", "", "prompt to send on every request")
	cmd.Flags().IntVar(&opts.requests, "requests", 10, "number of requests to send")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "concurrent requests (0 = GOMAXPROCS)")
	cmd.Flags().StringVar(&opts.output, "output", "", "write the metrics as JSON to this path")

	return cmd
}

func runBench(cmd *cobra.Command, st *cliState, opts *benchOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("bench: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("bench: nil options")
	}
	cfg := st.cfg

	stamp := runner.Stamp(time.Now().UTC())
	logger, closeLog, err := logging.New(defaultLogsDir, stamp)
	if err != nil {
		return fmt.Errorf("bench: init logging: %w", err)
	}
	defer closeLog()

	provider, err := llm.NewProviderFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("bench: %w", err)
	}

	r := benchmark.NewRunner(provider, logger, benchmark.Options{
		Prompt:      opts.prompt,
		Requests:    opts.requests,
		Concurrency: opts.concurrency,
		Rate:        cfg.LLMAPI.APIRateLimit,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	metrics, err := r.Run(ctx)
	if err != nil {
		return fmt.Errorf("bench: %w", err)
	}

	printBenchSummary(cmd, metrics)

	if opts.output != "" {
		if err := writeBenchResults(opts.output, stamp, cfg, metrics); err != nil {
			return fmt.Errorf("bench: %w", err)
		}
	}
	return nil
}

func printBenchSummary(cmd *cobra.Command, m *benchmark.Metrics) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "requests/sec: %.2f\n", m.Throughput.RequestsPerSecond)
	fmt.Fprintf(out, "tokens/sec:   %.2f\n", m.Throughput.TokensPerSecond)
	fmt.Fprintf(out, "latency (s):  mean %.3f, median %.3f, p95 %.3f, p99 %.3f\n",
		m.Latency.Mean, m.Latency.Median, m.Latency.P95, m.Latency.P99)
	fmt.Fprintf(out, "%d requests (%d ok, %d failed), %d tokens in %.1fs\n",
		m.Summary.TotalRequests, m.Summary.SuccessfulRequests,
		m.Summary.FailedRequests, m.Summary.TotalTokens, m.Summary.TotalDuration)
}

func writeBenchResults(path, stamp string, cfg *config.Config, m *benchmark.Metrics) error {
	doc := map[string]any{
		"timestamp": stamp,
		"config":    cfg.Sanitized(),
		"metrics":   m,
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
