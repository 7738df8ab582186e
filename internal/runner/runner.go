// Package runner evaluates multiple-choice dataset files against an LLM
// provider and aggregates accuracy across repeated runs.
package runner

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/lumenlabsco/exam-eval/internal/dataset"
	"github.com/lumenlabsco/exam-eval/internal/extract"
	"github.com/lumenlabsco/exam-eval/internal/llm"
	"github.com/lumenlabsco/exam-eval/internal/results"
)

var newPool = ants.NewPool

// Config controls a FileEvaluator.
type Config struct {
	Method         string // extraction strategy name
	ShuffleOptions bool
	Concurrency    int // worker bound per file; 0 = GOMAXPROCS
	ResultsDir     string
}

// FileEvaluator runs every question of one dataset file through the
// provider and scores the answers.
type FileEvaluator struct {
	provider llm.Provider
	registry *extract.Registry
	limiter  *RateLimiter
	shuffler *dataset.Shuffler
	log      *zap.Logger
	cfg      Config
}

// NewFileEvaluator creates a FileEvaluator with defaults filled in.
func NewFileEvaluator(provider llm.Provider, registry *extract.Registry, limiter *RateLimiter, logger *zap.Logger, cfg Config) *FileEvaluator {
	if registry == nil {
		registry = extract.DefaultRegistry()
	}
	if limiter == nil {
		limiter = NewRateLimiter(-1)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(cfg.Method) == "" {
		cfg.Method = "pattern"
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.GOMAXPROCS(0)
	}
	if strings.TrimSpace(cfg.ResultsDir) == "" {
		cfg.ResultsDir = "results"
	}

	return &FileEvaluator{
		provider: provider,
		registry: registry,
		limiter:  limiter,
		shuffler: dataset.NewShuffler(rand.New(rand.NewSource(time.Now().UnixNano()))),
		log:      logger,
		cfg:      cfg,
	}
}

// SetShuffler replaces the option shuffler; used to make shuffling
// deterministic.
func (e *FileEvaluator) SetShuffler(s *dataset.Shuffler) {
	if e == nil || s == nil {
		return
	}
	e.shuffler = s
}

type outcome struct {
	id       int
	prompt   string
	expected string
	output   *string
}

// EvaluateFile evaluates one dataset file and appends the detail record to
// the run's JSONL store. Submissions are gated by the rate limiter and run
// on a bounded worker pool; responses are collected as they complete. A
// failed API call scores the question incorrect; a malformed row is skipped
// and does not count toward the total.
func (e *FileEvaluator) EvaluateFile(ctx context.Context, filePath string, runLabel string, lang string) (*FileRunResult, error) {
	if e == nil || e.provider == nil {
		return nil, fmt.Errorf("runner: nil evaluator")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	questions, err := dataset.Load(filePath)
	if err != nil {
		return nil, err
	}

	detailPath := filepath.Join(e.cfg.ResultsDir, "details", fmt.Sprintf("eval_results_%s.jsonl", runLabel))
	w, err := results.NewWriter(detailPath)
	if err != nil {
		return nil, err
	}
	defer w.Close()

	pool, err := newPool(e.cfg.Concurrency)
	if err != nil {
		return nil, fmt.Errorf("runner: create worker pool: %w", err)
	}
	defer pool.Release()

	outcomes := make(chan outcome, len(questions))
	var wg sync.WaitGroup

	for idx, q := range questions {
		if ctx.Err() != nil {
			e.log.Warn("evaluation interrupted, waiting for in-flight requests",
				zap.String("file", filePath))
			break
		}

		if e.cfg.ShuffleOptions {
			q = e.shuffler.Shuffle(q)
		}

		expected := strings.ToUpper(strings.TrimSpace(q.Answer))
		if expected == "" {
			e.log.Error("skipping malformed question row",
				zap.String("file", filePath), zap.Int("row", idx))
			continue
		}

		promptText := q.Prompt()

		// Throttle the submission rate, not the completion rate.
		if err := e.limiter.Wait(ctx); err != nil {
			break
		}

		id := idx
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()

			o := outcome{id: id, prompt: promptText, expected: expected}
			res, callErr := e.provider.Complete(ctx, promptText, lang)
			if callErr != nil {
				e.log.Error("llm call failed",
					zap.String("file", filePath), zap.Int("question_id", id), zap.Error(callErr))
			} else if res != nil {
				text := res.Text
				o.output = &text
			}
			outcomes <- o
		})
		if submitErr != nil {
			e.log.Error("submit question",
				zap.String("file", filePath), zap.Int("question_id", id), zap.Error(submitErr))
			// Keep the question in the totals, scored incorrect like any
			// other failed call.
			outcomes <- outcome{id: id, prompt: promptText, expected: expected}
			wg.Done()
		}
	}

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	totalCorrect := 0
	totalQuestions := 0
	details := make([]QuestionResult, 0, len(questions))

	for o := range outcomes {
		qr := QuestionResult{
			QuestionID:    o.id,
			Question:      o.prompt,
			CorrectAnswer: o.expected,
		}
		if o.output != nil {
			qr.LLMOutput = o.output
			if predicted, ok := e.registry.Extract(*o.output, e.cfg.Method); ok {
				p := predicted
				qr.PredictedAnswer = &p
				qr.IsCorrect = strings.EqualFold(strings.TrimSpace(predicted), o.expected)
			}
		}
		if qr.IsCorrect {
			totalCorrect++
		}
		totalQuestions++
		details = append(details, qr)
	}

	accuracy := 0.0
	if totalQuestions > 0 {
		accuracy = float64(totalCorrect) / float64(totalQuestions)
	}

	record := FileRunRecord{
		Timestamp: runLabel,
		File:      filePath,
		Accuracy:  accuracy,
		Details:   details,
	}
	if err := w.Append(&record); err != nil {
		return nil, err
	}

	e.log.Info("file evaluated",
		zap.String("file", filePath),
		zap.Float64("accuracy", accuracy),
		zap.Int("questions", totalQuestions))

	return &FileRunResult{
		File:       filePath,
		Accuracy:   accuracy,
		ResultPath: detailPath,
	}, nil
}
