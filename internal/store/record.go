package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lumenlabsco/exam-eval/internal/runner"
)

// SaveFinal persists a completed run and its per-file aggregates. The run's
// AverageAccuracy is the unweighted mean of the dataset averages, matching
// how datasets themselves average their files.
func SaveFinal(ctx context.Context, s Store, final *runner.FinalResult, started, finished time.Time, model string) error {
	if s == nil {
		return errors.New("store: nil store")
	}
	if final == nil {
		return errors.New("store: nil final result")
	}

	totalFiles := 0
	sum := 0.0
	datasets := 0
	for _, ds := range final.DatasetResults {
		if ds == nil {
			continue
		}
		totalFiles += len(ds.Results)
		sum += ds.AverageAccuracy
		datasets++
	}
	avg := 0.0
	if datasets > 0 {
		avg = sum / float64(datasets)
	}

	run := &RunRecord{
		ID:              final.Timestamp,
		Model:           model,
		StartedAt:       started,
		FinishedAt:      finished,
		TotalFiles:      totalFiles,
		AverageAccuracy: avg,
		DurationSeconds: final.DurationSeconds,
		Config:          final.Config,
	}
	if err := s.SaveRun(ctx, run); err != nil {
		return err
	}

	seq := 0
	for dsPath, ds := range final.DatasetResults {
		if ds == nil {
			continue
		}
		for _, fr := range ds.Results {
			rec := &FileRecord{
				ID:           fmt.Sprintf("%s-%d", final.Timestamp, seq),
				RunID:        final.Timestamp,
				Dataset:      dsPath,
				File:         fr.File,
				AccuracyMean: fr.AccuracyMean,
				AccuracyStd:  fr.AccuracyStd,
				Accuracies:   fr.IndividualRuns.Accuracies,
				ResultPaths:  fr.IndividualRuns.Results,
				CreatedAt:    finished,
			}
			if err := s.SaveFileResult(ctx, rec); err != nil {
				return err
			}
			seq++
		}
	}
	return nil
}
