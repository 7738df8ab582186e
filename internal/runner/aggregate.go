package runner

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lumenlabsco/exam-eval/internal/dataset"
)

// FileRunner is the single-file evaluation the Aggregator repeats.
// *FileEvaluator satisfies it.
type FileRunner interface {
	EvaluateFile(ctx context.Context, filePath, runLabel, lang string) (*FileRunResult, error)
}

// ProgressFunc is called after each file of a dataset finishes.
type ProgressFunc func(done, total int)

// Aggregator repeats file evaluations and reduces them to mean and
// population standard deviation.
type Aggregator struct {
	runner FileRunner
	log    *zap.Logger

	// RepeatRuns is the number of evaluations per file; values below 1
	// are treated as 1.
	RepeatRuns int
}

// NewAggregator creates an Aggregator over the given runner.
func NewAggregator(runner FileRunner, logger *zap.Logger, repeatRuns int) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if repeatRuns < 1 {
		repeatRuns = 1
	}
	return &Aggregator{runner: runner, log: logger, RepeatRuns: repeatRuns}
}

// AggregateFile evaluates one file RepeatRuns times. Failed runs are logged
// and excluded from the statistics; if every run fails the file yields no
// aggregate and the last error is returned.
func (a *Aggregator) AggregateFile(ctx context.Context, filePath, runStamp, lang string) (*FileAggregateResult, error) {
	if a == nil || a.runner == nil {
		return nil, fmt.Errorf("runner: nil aggregator")
	}

	var (
		accuracies []float64
		paths      []string
		lastErr    error
	)
	for i := 0; i < a.RepeatRuns; i++ {
		label := fmt.Sprintf("%s_run%d", runStamp, i)
		res, err := a.runner.EvaluateFile(ctx, filePath, label, lang)
		if err != nil {
			lastErr = err
			a.log.Error("file run failed",
				zap.String("file", filePath), zap.Int("run", i), zap.Error(err))
			continue
		}
		accuracies = append(accuracies, res.Accuracy)
		paths = append(paths, res.ResultPath)
	}

	if len(accuracies) == 0 {
		return nil, fmt.Errorf("runner: all runs of %q failed: %w", filePath, lastErr)
	}

	return &FileAggregateResult{
		File:         filePath,
		AccuracyMean: mean(accuracies),
		AccuracyStd:  popStd(accuracies),
		IndividualRuns: IndividualRuns{
			Accuracies: accuracies,
			Results:    paths,
		},
	}, nil
}

// AggregateDataset walks the dataset directory and aggregates every
// supported file in it. Files whose runs all fail are skipped. Dataset
// accuracy is the unweighted mean of per-file means.
func (a *Aggregator) AggregateDataset(ctx context.Context, datasetPath, runStamp, lang string, progress ProgressFunc) (*DatasetAggregateResult, error) {
	if a == nil || a.runner == nil {
		return nil, fmt.Errorf("runner: nil aggregator")
	}

	files, err := dataset.FindFiles(datasetPath)
	if err != nil {
		return nil, err
	}

	agg := &DatasetAggregateResult{Results: []FileAggregateResult{}}

	var means, stds []float64
	for i, f := range files {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		fileAgg, err := a.AggregateFile(ctx, f, runStamp, lang)
		if err != nil {
			a.log.Error("skipping file", zap.String("file", f), zap.Error(err))
		} else {
			agg.Results = append(agg.Results, *fileAgg)
			means = append(means, fileAgg.AccuracyMean)
			stds = append(stds, fileAgg.AccuracyStd)
		}
		if progress != nil {
			progress(i+1, len(files))
		}
	}

	agg.AverageAccuracy = mean(means)
	agg.AverageStd = mean(stds)
	return agg, nil
}
