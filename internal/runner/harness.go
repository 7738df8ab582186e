package runner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lumenlabsco/exam-eval/internal/config"
	"github.com/lumenlabsco/exam-eval/internal/extract"
	"github.com/lumenlabsco/exam-eval/internal/llm"
)

// Harness wires the provider, evaluator and aggregator together and runs a
// complete evaluation over every configured dataset path.
type Harness struct {
	cfg *config.Config
	agg *Aggregator
	log *zap.Logger

	// now is swapped in tests to pin the run stamp.
	now func() time.Time
}

// NewHarness builds a Harness from a validated config. The provider is
// constructed from the config's llm_api section.
func NewHarness(cfg *config.Config, logger *zap.Logger) (*Harness, error) {
	if cfg == nil {
		return nil, fmt.Errorf("runner: nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	provider, err := llm.NewProviderFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	eval := NewFileEvaluator(provider, extract.DefaultRegistry(),
		NewRateLimiter(cfg.LLMAPI.APIRateLimit), logger, Config{
			Method:         cfg.Evaluation.EvaluationMethod,
			ShuffleOptions: cfg.Evaluation.ShuffleOptions,
			Concurrency:    cfg.Evaluation.Concurrency,
			ResultsDir:     cfg.Storage.ResultsDir,
		})

	return &Harness{
		cfg: cfg,
		agg: NewAggregator(eval, logger, cfg.Evaluation.RepeatRuns),
		log: logger,
		now: time.Now,
	}, nil
}

// NewHarnessWithRunner builds a Harness over a caller-supplied FileRunner;
// used by tests to substitute a fake evaluator.
func NewHarnessWithRunner(cfg *config.Config, runner FileRunner, logger *zap.Logger) *Harness {
	if logger == nil {
		logger = zap.NewNop()
	}
	repeat := 1
	if cfg != nil {
		repeat = cfg.Evaluation.RepeatRuns
	}
	return &Harness{
		cfg: cfg,
		agg: NewAggregator(runner, logger, repeat),
		log: logger,
		now: time.Now,
	}
}

// SetClock pins the harness time source so the run stamp can be aligned
// with externally created artifacts such as log files.
func (h *Harness) SetClock(now func() time.Time) {
	if h == nil || now == nil {
		return
	}
	h.now = now
}

// Stamp returns the run label for a start time, e.g. "20250901_1430".
func Stamp(t time.Time) string {
	return t.Format("20060102_1504")
}

// Run evaluates every configured dataset path and assembles the final
// result. A dataset whose walk fails is logged and skipped; the run only
// fails outright when the context is cancelled.
func (h *Harness) Run(ctx context.Context, progress ProgressFunc) (*FinalResult, error) {
	if h == nil || h.cfg == nil {
		return nil, fmt.Errorf("runner: nil harness")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	start := h.now()
	stamp := Stamp(start)

	final := &FinalResult{
		Timestamp:      stamp,
		Config:         h.cfg.Sanitized(),
		DatasetResults: make(map[string]*DatasetAggregateResult),
	}

	for _, path := range h.cfg.Evaluation.DatasetPaths {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lang := h.cfg.PromptLang(path)
		h.log.Info("evaluating dataset", zap.String("path", path), zap.String("lang", lang))

		agg, err := h.agg.AggregateDataset(ctx, path, stamp, lang, progress)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			h.log.Error("skipping dataset", zap.String("path", path), zap.Error(err))
			continue
		}
		final.DatasetResults[path] = agg
	}

	final.DurationSeconds = time.Since(start).Seconds()
	return final, nil
}
