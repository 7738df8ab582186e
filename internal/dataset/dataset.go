// Package dataset loads multiple-choice question files and prepares
// questions for evaluation.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// OptionLabels is the canonical option order.
var OptionLabels = []string{"A", "B", "C", "D"}

// ErrUnsupportedFormat is returned for file extensions the loader does not
// understand.
var ErrUnsupportedFormat = errors.New("dataset: unsupported file format")

// Question is one multiple-choice record. Options holds the option texts
// keyed by label; only labels present in the source file appear. Answer is
// trimmed and upper-cased at load time.
type Question struct {
	Question string
	Options  map[string]string
	Answer   string
}

// OptionText returns the text for a label and whether it is present.
func (q *Question) OptionText(label string) (string, bool) {
	if q == nil || q.Options == nil {
		return "", false
	}
	v, ok := q.Options[label]
	return v, ok
}

// Prompt renders the flattened question text: the question followed by one
// "label: text" line per present option, in canonical order.
func (q *Question) Prompt() string {
	var sb strings.Builder
	sb.WriteString(q.Question)
	for _, label := range OptionLabels {
		text, ok := q.OptionText(label)
		if !ok {
			continue
		}
		sb.WriteByte('\n')
		sb.WriteString(label)
		sb.WriteString(": ")
		sb.WriteString(text)
	}
	return sb.String()
}

// Load reads all questions from a dataset file, dispatching on extension.
// Supported: .json (array of records), .jsonl, .csv, .tsv.
func Load(path string) ([]Question, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return loadJSON(path)
	case ".jsonl":
		return loadJSONL(path)
	case ".csv":
		return loadSeparated(path, ',')
	case ".tsv":
		return loadSeparated(path, '\t')
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// FindFiles walks a dataset root and returns all supported files, sorted.
// A root that is itself a file returns a single-element slice.
func FindFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("dataset: stat %q: %w", root, err)
	}
	if !info.IsDir() {
		if !supportedExt(root) {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, root)
		}
		return []string{root}, nil
	}

	var out []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !supportedExt(path) {
			return nil
		}
		out = append(out, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dataset: walk %q: %w", root, err)
	}
	sort.Strings(out)
	return out, nil
}

func supportedExt(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonl", ".csv", ".tsv":
		return true
	default:
		return false
	}
}

func loadJSON(path string) ([]Question, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: read %q: %w", path, err)
	}
	var rows []map[string]any
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, fmt.Errorf("dataset: parse %q: %w", path, err)
	}
	return questionsFromRows(rows), nil
}

func loadJSONL(path string) ([]Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %q: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)

	var rows []map[string]any
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var row map[string]any
		if err := json.Unmarshal(line, &row); err != nil {
			return nil, fmt.Errorf("dataset: parse %q: %w", path, err)
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("dataset: read %q: %w", path, err)
	}
	return questionsFromRows(rows), nil
}

func loadSeparated(path string, sep rune) ([]Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = sep
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("dataset: parse %q: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("dataset: %q: empty file", path)
	}

	header := records[0]
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	if _, ok := col["question"]; !ok {
		return nil, fmt.Errorf("dataset: %q: missing question column", path)
	}
	if _, ok := col["answer"]; !ok {
		return nil, fmt.Errorf("dataset: %q: missing answer column", path)
	}

	out := make([]Question, 0, len(records)-1)
	for _, rec := range records[1:] {
		q := Question{
			Question: field(rec, col, "question"),
			Answer:   strings.ToUpper(strings.TrimSpace(field(rec, col, "answer"))),
			Options:  make(map[string]string, len(OptionLabels)),
		}
		for _, label := range OptionLabels {
			if idx, ok := col[label]; ok && idx < len(rec) {
				q.Options[label] = rec[idx]
			}
		}
		out = append(out, q)
	}
	return out, nil
}

func field(rec []string, col map[string]int, name string) string {
	idx, ok := col[name]
	if !ok || idx >= len(rec) {
		return ""
	}
	return rec[idx]
}

func questionsFromRows(rows []map[string]any) []Question {
	out := make([]Question, 0, len(rows))
	for _, row := range rows {
		q := Question{
			Question: stringValue(row["question"]),
			Answer:   strings.ToUpper(strings.TrimSpace(stringValue(row["answer"]))),
			Options:  make(map[string]string, len(OptionLabels)),
		}
		for _, label := range OptionLabels {
			if v, ok := row[label]; ok {
				q.Options[label] = stringValue(v)
			}
		}
		out = append(out, q)
	}
	return out
}

func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprintf("%v", s)
	}
}
