package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/lumenlabsco/exam-eval/internal/llm"
)

type fakeProvider struct {
	fn func(question string) (string, error)
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Complete(ctx context.Context, question, lang string) (*llm.Response, error) {
	out, err := p.fn(question)
	if err != nil {
		return nil, err
	}
	return &llm.Response{Text: out}, nil
}

func writeDataset(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return path
}

func readDetailRecord(t *testing.T, path string) FileRunRecord {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open detail file: %v", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		t.Fatal("detail file is empty")
	}
	var rec FileRunRecord
	if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
		t.Fatalf("parse detail record: %v", err)
	}
	if sc.Scan() {
		t.Fatal("expected exactly one detail record")
	}
	return rec
}

func TestEvaluateFile(t *testing.T) {
	dir := t.TempDir()
	dataset := writeDataset(t, dir, "q.json", `[
		{"question": "q1", "A": "a1", "B": "b1", "C": "c1", "D": "d1", "answer": "A"},
		{"question": "q2", "A": "a2", "B": "b2", "C": "c2", "D": "d2", "answer": "C"}
	]`)

	provider := &fakeProvider{fn: func(question string) (string, error) {
		return "答案:A", nil
	}}

	e := NewFileEvaluator(provider, nil, nil, nil, Config{ResultsDir: filepath.Join(dir, "results")})
	res, err := e.EvaluateFile(context.Background(), dataset, "20250901_1200_run0", "zh")
	if err != nil {
		t.Fatalf("EvaluateFile: %v", err)
	}

	if res.Accuracy != 0.5 {
		t.Fatalf("accuracy = %v, want 0.5", res.Accuracy)
	}
	if res.File != dataset {
		t.Fatalf("file = %q, want %q", res.File, dataset)
	}

	rec := readDetailRecord(t, res.ResultPath)
	if rec.Timestamp != "20250901_1200_run0" {
		t.Fatalf("timestamp = %q", rec.Timestamp)
	}
	if rec.Accuracy != 0.5 {
		t.Fatalf("record accuracy = %v, want 0.5", rec.Accuracy)
	}
	if len(rec.Details) != 2 {
		t.Fatalf("got %d details, want 2", len(rec.Details))
	}
	for _, d := range rec.Details {
		if d.LLMOutput == nil || *d.LLMOutput != "答案:A" {
			t.Fatalf("llm_output = %v", d.LLMOutput)
		}
		if d.PredictedAnswer == nil || *d.PredictedAnswer != "A" {
			t.Fatalf("predicted_answer = %v", d.PredictedAnswer)
		}
		if d.IsCorrect != (d.CorrectAnswer == "A") {
			t.Fatalf("is_correct mismatch for %+v", d)
		}
	}
}

func TestEvaluateFileProviderError(t *testing.T) {
	dir := t.TempDir()
	dataset := writeDataset(t, dir, "q.json",
		`[{"question": "q1", "A": "a", "B": "b", "answer": "A"}]`)

	provider := &fakeProvider{fn: func(question string) (string, error) {
		return "", errors.New("boom")
	}}

	e := NewFileEvaluator(provider, nil, nil, nil, Config{ResultsDir: filepath.Join(dir, "results")})
	res, err := e.EvaluateFile(context.Background(), dataset, "stamp_run0", "zh")
	if err != nil {
		t.Fatalf("EvaluateFile: %v", err)
	}

	// A failed call still counts toward the total, as incorrect.
	if res.Accuracy != 0 {
		t.Fatalf("accuracy = %v, want 0", res.Accuracy)
	}

	rec := readDetailRecord(t, res.ResultPath)
	if len(rec.Details) != 1 {
		t.Fatalf("got %d details, want 1", len(rec.Details))
	}
	d := rec.Details[0]
	if d.LLMOutput != nil || d.PredictedAnswer != nil {
		t.Fatalf("expected null output fields, got %+v", d)
	}
	if d.IsCorrect {
		t.Fatal("failed call must score incorrect")
	}
}

func TestEvaluateFileSkipsMalformedRows(t *testing.T) {
	dir := t.TempDir()
	dataset := writeDataset(t, dir, "q.json", `[
		{"question": "good", "A": "a", "B": "b", "answer": "A"},
		{"question": "no answer", "A": "a", "B": "b"}
	]`)

	provider := &fakeProvider{fn: func(question string) (string, error) {
		return "答案:A", nil
	}}

	e := NewFileEvaluator(provider, nil, nil, nil, Config{ResultsDir: filepath.Join(dir, "results")})
	res, err := e.EvaluateFile(context.Background(), dataset, "stamp_run0", "zh")
	if err != nil {
		t.Fatalf("EvaluateFile: %v", err)
	}

	// The malformed row is skipped and does not dilute the accuracy.
	if res.Accuracy != 1.0 {
		t.Fatalf("accuracy = %v, want 1.0", res.Accuracy)
	}
	rec := readDetailRecord(t, res.ResultPath)
	if len(rec.Details) != 1 {
		t.Fatalf("got %d details, want 1", len(rec.Details))
	}
}

func TestEvaluateFileNoQuestions(t *testing.T) {
	dir := t.TempDir()
	dataset := writeDataset(t, dir, "empty.json", `[]`)

	provider := &fakeProvider{fn: func(question string) (string, error) {
		return "答案:A", nil
	}}

	e := NewFileEvaluator(provider, nil, nil, nil, Config{ResultsDir: filepath.Join(dir, "results")})
	res, err := e.EvaluateFile(context.Background(), dataset, "stamp_run0", "zh")
	if err != nil {
		t.Fatalf("EvaluateFile: %v", err)
	}
	if res.Accuracy != 0 {
		t.Fatalf("accuracy = %v, want 0", res.Accuracy)
	}
}

func TestEvaluateFileConcurrent(t *testing.T) {
	dir := t.TempDir()

	var rows string
	for i := 0; i < 40; i++ {
		if i > 0 {
			rows += ","
		}
		rows += fmt.Sprintf(`{"question": "q%d", "A": "a", "B": "b", "answer": "A"}`, i)
	}
	dataset := writeDataset(t, dir, "many.json", "["+rows+"]")

	provider := &fakeProvider{fn: func(question string) (string, error) {
		return "答案:B", nil
	}}

	e := NewFileEvaluator(provider, nil, nil, nil, Config{
		Concurrency: 8,
		ResultsDir:  filepath.Join(dir, "results"),
	})
	res, err := e.EvaluateFile(context.Background(), dataset, "stamp_run0", "zh")
	if err != nil {
		t.Fatalf("EvaluateFile: %v", err)
	}
	if res.Accuracy != 0 {
		t.Fatalf("accuracy = %v, want 0", res.Accuracy)
	}
	rec := readDetailRecord(t, res.ResultPath)
	if len(rec.Details) != 40 {
		t.Fatalf("got %d details, want 40", len(rec.Details))
	}
}

func TestEvaluateFileSubmitFailureStillCounted(t *testing.T) {
	orig := newPool
	newPool = func(size int, opts ...ants.Option) (*ants.Pool, error) {
		return ants.NewPool(1, ants.WithNonblocking(true))
	}
	defer func() { newPool = orig }()

	dir := t.TempDir()
	dataset := writeDataset(t, dir, "q.json", `[
		{"question": "q0", "A": "a", "B": "b", "answer": "A"},
		{"question": "q1", "A": "a", "B": "b", "answer": "A"},
		{"question": "q2", "A": "a", "B": "b", "answer": "A"},
		{"question": "q3", "A": "a", "B": "b", "answer": "A"}
	]`)

	// The first submission occupies the single worker until released, so
	// the remaining submissions overflow the nonblocking pool.
	release := make(chan struct{})
	time.AfterFunc(100*time.Millisecond, func() { close(release) })
	provider := &fakeProvider{fn: func(question string) (string, error) {
		<-release
		return "答案:A", nil
	}}

	e := NewFileEvaluator(provider, nil, nil, nil, Config{ResultsDir: filepath.Join(dir, "results")})
	res, err := e.EvaluateFile(context.Background(), dataset, "stamp_run0", "zh")
	if err != nil {
		t.Fatalf("EvaluateFile: %v", err)
	}

	// Rejected submissions stay in the totals as incorrect answers.
	if res.Accuracy != 0.25 {
		t.Fatalf("accuracy = %v, want 0.25", res.Accuracy)
	}
	rec := readDetailRecord(t, res.ResultPath)
	if len(rec.Details) != 4 {
		t.Fatalf("got %d details, want 4", len(rec.Details))
	}
	nullOutputs := 0
	for _, d := range rec.Details {
		if d.LLMOutput == nil {
			nullOutputs++
			if d.IsCorrect {
				t.Fatalf("rejected question scored correct: %+v", d)
			}
		}
	}
	if nullOutputs != 3 {
		t.Fatalf("got %d null outputs, want 3", nullOutputs)
	}
}

func TestEvaluateFileUnsupportedFormat(t *testing.T) {
	provider := &fakeProvider{fn: func(question string) (string, error) {
		return "答案:A", nil
	}}
	e := NewFileEvaluator(provider, nil, nil, nil, Config{ResultsDir: t.TempDir()})
	if _, err := e.EvaluateFile(context.Background(), "data.parquet", "stamp_run0", "zh"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
