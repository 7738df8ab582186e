package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lumenlabsco/exam-eval/internal/config"
	"github.com/lumenlabsco/exam-eval/internal/export"
	"github.com/lumenlabsco/exam-eval/internal/logging"
	"github.com/lumenlabsco/exam-eval/internal/runner"
	"github.com/lumenlabsco/exam-eval/internal/store"
)

const defaultLogsDir = "logs"

type runOptions struct {
	formats []string
}

func newRunCmd(st *cliState) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the configured evaluation",
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
			return runEvaluation(cmd, st, &opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.formats, "export", []string{"json"}, "export formats: json|csv|html|xlsx")

	return cmd
}

func runEvaluation(cmd *cobra.Command, st *cliState, opts *runOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("run: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("run: nil options")
	}
	cfg := st.cfg

	startedAt := time.Now().UTC()
	stamp := runner.Stamp(startedAt)

	logger, closeLog, err := logging.New(defaultLogsDir, stamp)
	if err != nil {
		return fmt.Errorf("run: init logging: %w", err)
	}
	defer closeLog()

	harness, err := runner.NewHarness(cfg, logger)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	harness.SetClock(func() time.Time { return startedAt })

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	progress := func(done, total int) {
		fmt.Fprintf(out, "\rprogress: %d/%d files", done, total)
		if done == total {
			fmt.Fprintln(out)
		}
	}

	final, err := harness.Run(ctx, progress)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	finishedAt := time.Now().UTC()

	printSummary(cmd, final)

	// Exports and history are best effort relative to the evaluation: a
	// failure is logged but the completed results are not discarded.
	if err := export.DefaultRegistry().ExportAll(final, cfg.Storage.ResultsDir, opts.formats, logger); err != nil {
		logger.Error("some exports failed", zap.Error(err))
	}

	if stor, err := store.Open(cfg); err != nil {
		logger.Error("open run history store", zap.Error(err))
	} else {
		defer stor.Close()
		if err := store.SaveFinal(ctx, stor, final, startedAt, finishedAt, cfg.Model.Name); err != nil {
			logger.Error("save run history", zap.Error(err))
		}
	}

	return nil
}

func printSummary(cmd *cobra.Command, final *runner.FinalResult) {
	out := cmd.OutOrStdout()

	paths := make([]string, 0, len(final.DatasetResults))
	for p := range final.DatasetResults {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		ds := final.DatasetResults[p]
		if ds == nil {
			continue
		}
		fmt.Fprintf(out, "%s: accuracy %.4f ± %.4f (%d files)\n",
			p, ds.AverageAccuracy, ds.AverageStd, len(ds.Results))
	}
	fmt.Fprintf(out, "completed in %.1fs\n", final.DurationSeconds)
}
