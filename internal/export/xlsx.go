package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/lumenlabsco/exam-eval/internal/runner"
)

// XLSXExporter writes a workbook with one summary sheet of file aggregates.
type XLSXExporter struct{}

func NewXLSXExporter() *XLSXExporter { return &XLSXExporter{} }

func (e *XLSXExporter) Name() string { return "xlsx" }

func (e *XLSXExporter) Export(final *runner.FinalResult, path string) error {
	if final == nil {
		return fmt.Errorf("export: xlsx: nil result")
	}
	if err := ensureDir(path); err != nil {
		return err
	}

	const sheet = "Results"
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("export: xlsx: new sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("export: xlsx: delete default sheet: %w", err)
	}

	header := []any{"dataset", "file", "accuracy_mean", "accuracy_std", "runs"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("export: xlsx: write header: %w", err)
	}

	for i, row := range flattenRows(final) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("export: xlsx: cell name: %w", err)
		}
		values := []any{row.Dataset, row.File, row.AccuracyMean, row.AccuracyStd, row.Runs}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("export: xlsx: write row: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("export: xlsx: save %q: %w", path, err)
	}
	return nil
}
