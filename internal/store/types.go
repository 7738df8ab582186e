// Package store persists evaluation run history.
package store

import (
	"context"
	"time"
)

// RunWriter defines persistence for run summaries and file aggregates.
type RunWriter interface {
	SaveRun(ctx context.Context, run *RunRecord) error
	SaveFileResult(ctx context.Context, result *FileRecord) error
}

// RunReader defines read access to run history.
type RunReader interface {
	GetRun(ctx context.Context, id string) (*RunRecord, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]*RunRecord, error)
	GetFileResults(ctx context.Context, runID string) ([]*FileRecord, error)
}

// Store defines persistence for evaluation runs.
type Store interface {
	RunWriter
	RunReader
	Close() error
}

// RunRecord stores a single evaluation run summary. ID is the run stamp.
type RunRecord struct {
	ID              string
	Model           string
	StartedAt       time.Time
	FinishedAt      time.Time
	TotalFiles      int
	AverageAccuracy float64
	DurationSeconds float64
	Config          map[string]any // Serialized config, secrets stripped
}

// FileRecord stores the aggregate of one dataset file within a run.
type FileRecord struct {
	ID           string
	RunID        string
	Dataset      string
	File         string
	AccuracyMean float64
	AccuracyStd  float64
	Accuracies   []float64 // per-run accuracies, JSON serialized
	ResultPaths  []string  // per-run detail record paths, JSON serialized
	CreatedAt    time.Time
}

// RunFilter filters run listings.
type RunFilter struct {
	Model string
	Since time.Time
	Until time.Time
	Limit int
}
