// Package benchmark measures the serving performance of an LLM provider:
// latency distribution and request/token throughput over repeated identical
// requests.
package benchmark

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/lumenlabsco/exam-eval/internal/llm"
	"github.com/lumenlabsco/exam-eval/internal/runner"
)

// Options controls a benchmark run. Rate is calls per second; <= 0 disables
// rate limiting and the requests are sent as fast as the pool allows.
type Options struct {
	Prompt      string
	Requests    int
	Concurrency int
	Rate        float64
	Lang        string
}

// Metrics is the aggregated outcome of a benchmark run. Durations are in
// seconds; latency quantiles cover successful requests only.
type Metrics struct {
	Throughput ThroughputMetrics `json:"throughput"`
	Latency    LatencyMetrics    `json:"latency"`
	Summary    SummaryMetrics    `json:"summary"`
}

type ThroughputMetrics struct {
	RequestsPerSecond float64 `json:"requests_per_second"`
	TokensPerSecond   float64 `json:"tokens_per_second"`
}

type LatencyMetrics struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
	P99    float64 `json:"p99"`
}

type SummaryMetrics struct {
	TotalRequests      int     `json:"total_requests"`
	SuccessfulRequests int     `json:"successful_requests"`
	FailedRequests     int     `json:"failed_requests"`
	TotalTokens        int     `json:"total_tokens"`
	TotalDuration      float64 `json:"total_duration"`
}

type requestResult struct {
	latency time.Duration
	tokens  int
	err     error
}

// Runner drives repeated requests against one provider.
type Runner struct {
	provider llm.Provider
	limiter  *runner.RateLimiter
	log      *zap.Logger
	opts     Options
}

// NewRunner creates a benchmark runner with defaults filled in.
func NewRunner(provider llm.Provider, logger *zap.Logger, opts Options) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(opts.Prompt) == "" {
		opts.Prompt = "Hello! Please introduce yourself."
	}
	if opts.Requests <= 0 {
		opts.Requests = 10
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.GOMAXPROCS(0)
	}
	if strings.TrimSpace(opts.Lang) == "" {
		opts.Lang = "zh"
	}

	return &Runner{
		provider: provider,
		limiter:  runner.NewRateLimiter(opts.Rate),
		log:      logger,
		opts:     opts,
	}
}

// Run sends the configured number of requests and aggregates the metrics.
// Token counts come from the completion-token usage reported by the backend.
func (r *Runner) Run(ctx context.Context) (*Metrics, error) {
	if r == nil || r.provider == nil {
		return nil, fmt.Errorf("benchmark: nil runner")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	pool, err := ants.NewPool(r.opts.Concurrency)
	if err != nil {
		return nil, fmt.Errorf("benchmark: create worker pool: %w", err)
	}
	defer pool.Release()

	results := make(chan requestResult, r.opts.Requests)
	var wg sync.WaitGroup

	start := time.Now()
	for i := 0; i < r.opts.Requests; i++ {
		if ctx.Err() != nil {
			break
		}
		if err := r.limiter.Wait(ctx); err != nil {
			break
		}

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()

			reqStart := time.Now()
			res, callErr := r.provider.Complete(ctx, r.opts.Prompt, r.opts.Lang)
			rr := requestResult{latency: time.Since(reqStart), err: callErr}
			if callErr == nil && res != nil {
				rr.tokens = res.Usage.CompletionTokens
			}
			results <- rr
		})
		if submitErr != nil {
			wg.Done()
			results <- requestResult{err: submitErr}
		}
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var latencies []float64
	totalTokens := 0
	total, failed := 0, 0
	for rr := range results {
		total++
		if rr.err != nil {
			failed++
			r.log.Warn("benchmark request failed", zap.Error(rr.err))
			continue
		}
		latencies = append(latencies, rr.latency.Seconds())
		totalTokens += rr.tokens
	}
	totalDuration := time.Since(start).Seconds()

	if total == 0 {
		return nil, fmt.Errorf("benchmark: no requests completed")
	}

	m := &Metrics{
		Summary: SummaryMetrics{
			TotalRequests:      total,
			SuccessfulRequests: total - failed,
			FailedRequests:     failed,
			TotalTokens:        totalTokens,
			TotalDuration:      totalDuration,
		},
	}
	if len(latencies) == 0 {
		return m, nil
	}

	m.Throughput.RequestsPerSecond = float64(total-failed) / totalDuration
	m.Throughput.TokensPerSecond = float64(totalTokens) / totalDuration

	sort.Float64s(latencies)
	m.Latency.Mean = meanOf(latencies)
	m.Latency.Median = percentile(latencies, 50)
	m.Latency.P95 = percentile(latencies, 95)
	m.Latency.P99 = percentile(latencies, 99)

	return m, nil
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// percentile picks the nearest-rank value from an already sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p / 100 * float64(len(sorted)))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
