package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const defaultListLimit = 50

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB

	insertRunStmt  *sql.Stmt
	insertFileStmt *sql.Stmt
	getRunStmt     *sql.Stmt
	filesByRunStmt *sql.Stmt
}

// NewSQLiteStore opens or creates a SQLite store at the given path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("store: empty sqlite path")
	}
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("store: create sqlite dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping sqlite: %w", err)
	}

	if err := initSQLiteSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	st := &SQLiteStore{db: db}
	if err := st.prepareStatements(); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func initSQLiteSchema(db *sql.DB) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON`,
		`PRAGMA journal_mode = WAL`,
		`CREATE TABLE IF NOT EXISTS eval_runs (
			id TEXT PRIMARY KEY,
			model TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			total_files INTEGER NOT NULL,
			average_accuracy REAL NOT NULL,
			duration_seconds REAL NOT NULL,
			config_json TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS file_results (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			dataset TEXT NOT NULL,
			file TEXT NOT NULL,
			accuracy_mean REAL NOT NULL,
			accuracy_std REAL NOT NULL,
			accuracies_json TEXT NOT NULL,
			result_paths_json TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			FOREIGN KEY(run_id) REFERENCES eval_runs(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_file_results_run_id ON file_results(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_file_results_created_at ON file_results(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_eval_runs_started_at ON eval_runs(started_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("store: init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) prepareStatements() error {
	if s == nil || s.db == nil {
		return errors.New("store: nil sqlite store")
	}

	ctx := context.Background()
	type stmtSpec struct {
		dst    **sql.Stmt
		query  string
		errFmt string
	}

	specs := []stmtSpec{
		{
			dst: &s.insertRunStmt,
			query: `
				INSERT INTO eval_runs (
					id, model, started_at, finished_at, total_files, average_accuracy, duration_seconds, config_json
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`,
			errFmt: "store: prepare insert run: %w",
		},
		{
			dst: &s.insertFileStmt,
			query: `
				INSERT INTO file_results (
					id, run_id, dataset, file, accuracy_mean, accuracy_std, accuracies_json, result_paths_json, created_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
			errFmt: "store: prepare insert file result: %w",
		},
		{
			dst: &s.getRunStmt,
			query: `
				SELECT id, model, started_at, finished_at, total_files, average_accuracy, duration_seconds, config_json
				FROM eval_runs WHERE id = ?
			`,
			errFmt: "store: prepare get run: %w",
		},
		{
			dst: &s.filesByRunStmt,
			query: `
				SELECT id, run_id, dataset, file, accuracy_mean, accuracy_std, accuracies_json, result_paths_json, created_at
				FROM file_results
				WHERE run_id = ?
				ORDER BY created_at ASC, file ASC
			`,
			errFmt: "store: prepare get file results: %w",
		},
	}

	for _, spec := range specs {
		stmt, err := s.db.PrepareContext(ctx, spec.query)
		if err != nil {
			return fmt.Errorf(spec.errFmt, err)
		}
		*spec.dst = stmt
	}

	return nil
}

// Close releases database resources.
func (s *SQLiteStore) Close() error {
	if s == nil {
		return nil
	}
	stmts := []*sql.Stmt{
		s.insertRunStmt,
		s.insertFileStmt,
		s.getRunStmt,
		s.filesByRunStmt,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRun persists a run summary.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *RunRecord) error {
	if s == nil {
		return errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return errors.New("store: nil context")
	}
	if run == nil {
		return errors.New("store: nil run")
	}

	id := strings.TrimSpace(run.ID)
	if id == "" {
		return errors.New("store: empty run id")
	}
	if run.StartedAt.IsZero() || run.FinishedAt.IsZero() {
		return errors.New("store: missing run timestamps")
	}

	cfgJSON := []byte("null")
	if run.Config != nil {
		var err error
		cfgJSON, err = json.Marshal(run.Config)
		if err != nil {
			return fmt.Errorf("store: marshal run config: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin run tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt := tx.StmtContext(ctx, s.insertRunStmt)
	defer stmt.Close()

	_, err = stmt.ExecContext(
		ctx,
		id,
		run.Model,
		run.StartedAt.UTC().UnixMilli(),
		run.FinishedAt.UTC().UnixMilli(),
		run.TotalFiles,
		run.AverageAccuracy,
		run.DurationSeconds,
		string(cfgJSON),
	)
	if err != nil {
		return fmt.Errorf("store: insert run: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit run: %w", err)
	}
	return nil
}

// SaveFileResult persists one file aggregate.
func (s *SQLiteStore) SaveFileResult(ctx context.Context, result *FileRecord) error {
	if s == nil {
		return errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return errors.New("store: nil context")
	}
	if result == nil {
		return errors.New("store: nil file result")
	}

	id := strings.TrimSpace(result.ID)
	if id == "" {
		return errors.New("store: empty file result id")
	}
	if strings.TrimSpace(result.RunID) == "" {
		return errors.New("store: empty run id")
	}
	if strings.TrimSpace(result.File) == "" {
		return errors.New("store: empty file path")
	}

	createdAt := result.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	accJSON, err := json.Marshal(result.Accuracies)
	if err != nil {
		return fmt.Errorf("store: marshal accuracies: %w", err)
	}
	pathsJSON, err := json.Marshal(result.ResultPaths)
	if err != nil {
		return fmt.Errorf("store: marshal result paths: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin file tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt := tx.StmtContext(ctx, s.insertFileStmt)
	defer stmt.Close()

	_, err = stmt.ExecContext(
		ctx,
		id,
		result.RunID,
		result.Dataset,
		result.File,
		result.AccuracyMean,
		result.AccuracyStd,
		string(accJSON),
		string(pathsJSON),
		createdAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("store: insert file result: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit file result: %w", err)
	}
	return nil
}

// GetRun loads a run by id.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("store: empty run id")
	}

	row := s.getRunStmt.QueryRowContext(ctx, id)
	rec, err := scanRunRow(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("store: get run: %w", err)
	}
	return rec, nil
}

// ListRuns returns runs matching the filter, most recent first.
func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]*RunRecord, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}

	model := strings.TrimSpace(filter.Model)
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var sb strings.Builder
	sb.WriteString(`SELECT id, model, started_at, finished_at, total_files, average_accuracy, duration_seconds, config_json FROM eval_runs WHERE 1=1`)

	var args []any
	if model != "" {
		sb.WriteString(` AND model = ?`)
		args = append(args, model)
	}
	if !filter.Since.IsZero() {
		sb.WriteString(` AND started_at >= ?`)
		args = append(args, filter.Since.UTC().UnixMilli())
	}
	if !filter.Until.IsZero() {
		sb.WriteString(` AND started_at <= ?`)
		args = append(args, filter.Until.UTC().UnixMilli())
	}
	sb.WriteString(` ORDER BY started_at DESC LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var out []*RunRecord
	for rows.Next() {
		rec, err := scanRunRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	return out, nil
}

func scanRunRow(scan func(dest ...any) error) (*RunRecord, error) {
	var (
		id              string
		model           string
		startedAtMS     int64
		finishedAtMS    int64
		totalFiles      int
		averageAccuracy float64
		durationSeconds float64
		cfgJSON         sql.NullString
	)
	if err := scan(&id, &model, &startedAtMS, &finishedAtMS, &totalFiles, &averageAccuracy, &durationSeconds, &cfgJSON); err != nil {
		return nil, err
	}

	cfg, err := decodeConfig(cfgJSON)
	if err != nil {
		return nil, fmt.Errorf("decode run config: %w", err)
	}

	return &RunRecord{
		ID:              id,
		Model:           model,
		StartedAt:       time.UnixMilli(startedAtMS).UTC(),
		FinishedAt:      time.UnixMilli(finishedAtMS).UTC(),
		TotalFiles:      totalFiles,
		AverageAccuracy: averageAccuracy,
		DurationSeconds: durationSeconds,
		Config:          cfg,
	}, nil
}

// GetFileResults lists file aggregates for a run.
func (s *SQLiteStore) GetFileResults(ctx context.Context, runID string) ([]*FileRecord, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, errors.New("store: empty run id")
	}

	rows, err := s.filesByRunStmt.QueryContext(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("store: get file results: %w", err)
	}
	defer rows.Close()

	var out []*FileRecord
	for rows.Next() {
		var (
			id          string
			rID         string
			ds          string
			file        string
			accMean     float64
			accStd      float64
			accJSON     []byte
			pathsJSON   []byte
			createdAtMS int64
		)
		if err := rows.Scan(&id, &rID, &ds, &file, &accMean, &accStd, &accJSON, &pathsJSON, &createdAtMS); err != nil {
			return nil, fmt.Errorf("store: scan file result: %w", err)
		}

		var accuracies []float64
		if len(accJSON) > 0 {
			if err := json.Unmarshal(accJSON, &accuracies); err != nil {
				return nil, fmt.Errorf("store: decode accuracies: %w", err)
			}
		}
		var paths []string
		if len(pathsJSON) > 0 {
			if err := json.Unmarshal(pathsJSON, &paths); err != nil {
				return nil, fmt.Errorf("store: decode result paths: %w", err)
			}
		}

		out = append(out, &FileRecord{
			ID:           id,
			RunID:        rID,
			Dataset:      ds,
			File:         file,
			AccuracyMean: accMean,
			AccuracyStd:  accStd,
			Accuracies:   accuracies,
			ResultPaths:  paths,
			CreatedAt:    time.UnixMilli(createdAtMS).UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: scan file rows: %w", err)
	}
	return out, nil
}

func decodeConfig(cfgJSON sql.NullString) (map[string]any, error) {
	if !cfgJSON.Valid {
		return nil, nil
	}
	raw := strings.TrimSpace(cfgJSON.String)
	if raw == "" || raw == "null" {
		return nil, nil
	}
	var cfg map[string]any
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
