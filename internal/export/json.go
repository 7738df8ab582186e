package export

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/lumenlabsco/exam-eval/internal/runner"
)

// JSONExporter writes the complete final result, nested exactly as
// assembled. This is the canonical format; the others are projections.
type JSONExporter struct{}

func NewJSONExporter() *JSONExporter { return &JSONExporter{} }

func (e *JSONExporter) Name() string { return "json" }

func (e *JSONExporter) Export(final *runner.FinalResult, path string) error {
	if final == nil {
		return fmt.Errorf("export: json: nil result")
	}
	if err := ensureDir(path); err != nil {
		return err
	}

	b, err := json.MarshalIndent(final, "", "  ")
	if err != nil {
		return fmt.Errorf("export: json: marshal: %w", err)
	}
	b = append(b, '\n')

	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("export: json: write %q: %w", path, err)
	}
	return nil
}
