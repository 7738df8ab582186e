package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/lumenlabsco/exam-eval/internal/runner"
)

// CSVExporter writes one row per dataset file aggregate.
type CSVExporter struct{}

func NewCSVExporter() *CSVExporter { return &CSVExporter{} }

func (e *CSVExporter) Name() string { return "csv" }

func (e *CSVExporter) Export(final *runner.FinalResult, path string) error {
	if final == nil {
		return fmt.Errorf("export: csv: nil result")
	}
	if err := ensureDir(path); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: csv: create %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"dataset", "file", "accuracy_mean", "accuracy_std", "runs"}); err != nil {
		return fmt.Errorf("export: csv: write header: %w", err)
	}
	for _, row := range flattenRows(final) {
		rec := []string{
			row.Dataset,
			row.File,
			strconv.FormatFloat(row.AccuracyMean, 'f', -1, 64),
			strconv.FormatFloat(row.AccuracyStd, 'f', -1, 64),
			strconv.Itoa(row.Runs),
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("export: csv: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("export: csv: flush: %w", err)
	}
	return nil
}
