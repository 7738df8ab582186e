package export

import (
	"fmt"
	"html/template"
	"os"
	"sort"

	"github.com/lumenlabsco/exam-eval/internal/runner"
)

// HTMLExporter writes a self-contained report page.
type HTMLExporter struct {
	tmpl *template.Template
}

func NewHTMLExporter() *HTMLExporter {
	return &HTMLExporter{tmpl: template.Must(template.New("report").Parse(reportTemplate))}
}

func (e *HTMLExporter) Name() string { return "html" }

type htmlDataset struct {
	Path            string
	AverageAccuracy float64
	AverageStd      float64
	Files           []fileRow
}

type htmlReport struct {
	Timestamp       string
	DurationSeconds float64
	Datasets        []htmlDataset
}

func (e *HTMLExporter) Export(final *runner.FinalResult, path string) error {
	if final == nil {
		return fmt.Errorf("export: html: nil result")
	}
	if err := ensureDir(path); err != nil {
		return err
	}

	report := htmlReport{
		Timestamp:       final.Timestamp,
		DurationSeconds: final.DurationSeconds,
	}

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
		hd := htmlDataset{
			Path:            p,
			AverageAccuracy: ds.AverageAccuracy,
			AverageStd:      ds.AverageStd,
		}
		for _, fr := range ds.Results {
			hd.Files = append(hd.Files, fileRow{
				Dataset:      p,
				File:         fr.File,
				AccuracyMean: fr.AccuracyMean,
				AccuracyStd:  fr.AccuracyStd,
				Runs:         len(fr.IndividualRuns.Accuracies),
			})
		}
		report.Datasets = append(report.Datasets, hd)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: html: create %q: %w", path, err)
	}
	defer f.Close()

	if err := e.tmpl.Execute(f, report); err != nil {
		return fmt.Errorf("export: html: render: %w", err)
	}
	return nil
}

const reportTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Evaluation Report {{.Timestamp}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; margin-bottom: 2em; }
th, td { border: 1px solid #ccc; padding: 0.4em 0.8em; text-align: left; }
th { background: #f0f0f0; }
</style>
</head>
<body>
<h1>Evaluation Report</h1>
<p>Run {{.Timestamp}} &middot; {{printf "%.1f" .DurationSeconds}}s</p>
{{range .Datasets}}
<h2>{{.Path}}</h2>
<p>Average accuracy {{printf "%.4f" .AverageAccuracy}} &plusmn; {{printf "%.4f" .AverageStd}}</p>
<table>
<tr><th>File</th><th>Accuracy mean</th><th>Accuracy std</th><th>Runs</th></tr>
{{range .Files}}
<tr><td>{{.File}}</td><td>{{printf "%.4f" .AccuracyMean}}</td><td>{{printf "%.4f" .AccuracyStd}}</td><td>{{.Runs}}</td></tr>
{{end}}
</table>
{{end}}
</body>
</html>
`
