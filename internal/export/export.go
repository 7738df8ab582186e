// Package export renders a finished evaluation run into output files.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/lumenlabsco/exam-eval/internal/runner"
)

// Exporter renders one output format of a final result.
type Exporter interface {
	Name() string
	// Export writes the result to path, creating parent directories.
	Export(final *runner.FinalResult, path string) error
}

// Registry maps format names to exporters.
type Registry struct {
	exporters map[string]Exporter
}

// NewRegistry creates an empty exporter registry.
func NewRegistry() *Registry {
	return &Registry{exporters: make(map[string]Exporter)}
}

// DefaultRegistry returns a registry with the built-in formats.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewJSONExporter())
	r.Register(NewCSVExporter())
	r.Register(NewHTMLExporter())
	r.Register(NewXLSXExporter())
	return r
}

// Register adds an exporter under its name.
func (r *Registry) Register(e Exporter) {
	if r == nil || e == nil {
		return
	}
	name := strings.ToLower(strings.TrimSpace(e.Name()))
	if name == "" {
		return
	}
	if r.exporters == nil {
		r.exporters = make(map[string]Exporter)
	}
	r.exporters[name] = e
}

// Get looks up an exporter by format name.
func (r *Registry) Get(name string) (Exporter, bool) {
	if r == nil {
		return nil, false
	}
	e, ok := r.exporters[strings.ToLower(strings.TrimSpace(name))]
	return e, ok
}

// Names lists the registered format names, sorted.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.exporters))
	for name := range r.exporters {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ExportAll writes the result in every requested format to
// dir/eval_results_<stamp>.<format>. A failing format is logged and does not
// stop the remaining formats; the last error is returned.
func (r *Registry) ExportAll(final *runner.FinalResult, dir string, formats []string, logger *zap.Logger) error {
	if r == nil {
		return fmt.Errorf("export: nil registry")
	}
	if final == nil {
		return fmt.Errorf("export: nil result")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var lastErr error
	for _, format := range formats {
		e, ok := r.Get(format)
		if !ok {
			lastErr = fmt.Errorf("export: unknown format %q (available: %s)", format, strings.Join(r.Names(), ", "))
			logger.Error("skipping unknown export format", zap.String("format", format))
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("eval_results_%s.%s", final.Timestamp, e.Name()))
		if err := e.Export(final, path); err != nil {
			lastErr = err
			logger.Error("export failed", zap.String("format", e.Name()), zap.Error(err))
			continue
		}
		logger.Info("exported results", zap.String("format", e.Name()), zap.String("path", path))
	}
	return lastErr
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("export: create dir %q: %w", dir, err)
	}
	return nil
}

// fileRow flattens one file aggregate for tabular formats.
type fileRow struct {
	Dataset      string
	File         string
	AccuracyMean float64
	AccuracyStd  float64
	Runs         int
}

func flattenRows(final *runner.FinalResult) []fileRow {
	datasets := make([]string, 0, len(final.DatasetResults))
	for path := range final.DatasetResults {
		datasets = append(datasets, path)
	}
	sort.Strings(datasets)

	var rows []fileRow
	for _, dsPath := range datasets {
		ds := final.DatasetResults[dsPath]
		if ds == nil {
			continue
		}
		for _, fr := range ds.Results {
			rows = append(rows, fileRow{
				Dataset:      dsPath,
				File:         fr.File,
				AccuracyMean: fr.AccuracyMean,
				AccuracyStd:  fr.AccuracyStd,
				Runs:         len(fr.IndividualRuns.Accuracies),
			})
		}
	}
	return rows
}
