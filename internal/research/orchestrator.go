package research

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	scouterrors "github.com/inkfield/scout/internal/errors"
	"github.com/inkfield/scout/internal/llm"
	"github.com/inkfield/scout/internal/websearch"
)

const (
	// DefaultParallelism caps concurrent sub-question searches.
	DefaultParallelism = 4

	// DefaultSearchDeadline bounds the whole search fan-out. Expired
	// sub-searches contribute whatever completed; summarization still runs.
	DefaultSearchDeadline = 60 * time.Second
)

// Searcher is the aggregator-shaped dependency of the orchestrator.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]websearch.Hit, error)
}

// Telemetry receives pipeline observations. Implementations must be safe
// for concurrent use.
type Telemetry interface {
	ObserveResearch(question string, elapsed time.Duration, sources int)
	RecordDegradedDecomposition()
	RecordZeroSources()
	RecordFailure(code string)
}

// Orchestrator runs the research pipeline end to end.
type Orchestrator struct {
	decomposer *Decomposer
	summarizer *Summarizer
	searcher   Searcher

	mu             sync.RWMutex
	parallelism    int
	searchDeadline time.Duration

	llmRetry  scouterrors.RetryConfig
	telemetry Telemetry
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithParallelism caps concurrent sub-question searches.
func WithParallelism(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.parallelism = n
		}
	}
}

// WithSearchDeadline bounds the search fan-out phase.
func WithSearchDeadline(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.searchDeadline = d
		}
	}
}

// WithTelemetry attaches a metrics recorder.
func WithTelemetry(t Telemetry) Option {
	return func(o *Orchestrator) {
		o.telemetry = t
	}
}

// WithLLMRetry overrides the language-model retry policy. Tests use this
// to remove backoff delays.
func WithLLMRetry(cfg scouterrors.RetryConfig) Option {
	return func(o *Orchestrator) {
		o.llmRetry = cfg
	}
}

// NewOrchestrator creates an orchestrator over a language-model client and
// a search aggregator.
func NewOrchestrator(client llm.Client, searcher Searcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		decomposer:     NewDecomposer(client),
		summarizer:     NewSummarizer(client),
		searcher:       searcher,
		parallelism:    DefaultParallelism,
		searchDeadline: DefaultSearchDeadline,
		llmRetry:       scouterrors.SingleRetryConfig(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SetTunables updates the fan-out parallelism and search deadline on a
// running orchestrator. The serve command calls this on config reload;
// in-flight requests keep the values they started with.
func (o *Orchestrator) SetTunables(parallelism int, searchDeadline time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if parallelism > 0 {
		o.parallelism = parallelism
	}
	if searchDeadline > 0 {
		o.searchDeadline = searchDeadline
	}
}

// tunables returns the current parallelism and search deadline.
func (o *Orchestrator) tunables() (int, time.Duration) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.parallelism, o.searchDeadline
}

// Run executes the pipeline for one request.
//
// Only validation and summarization failures fail the request. A failed
// decomposition degrades to searching the original question; failed
// sub-searches contribute nothing; all providers failing yields a result
// with zero sources and a summary that says so.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	req.Normalize()
	if err := req.Validate(); err != nil {
		o.recordFailure(err)
		return nil, err
	}

	id := uuid.NewString()
	slog.Info("research_started",
		slog.String("research_id", id),
		slog.String("question", req.Question),
		slog.Int("max_results", req.MaxResults))

	subQuestions := o.decompose(ctx, req)

	hits := o.fanOutSearch(ctx, subQuestions, req.MaxResults)

	hits = websearch.Dedupe(hits)
	if len(hits) > req.MaxResults {
		hits = hits[:req.MaxResults]
	}
	sources := toSources(hits)

	if len(sources) == 0 {
		slog.Warn("research_zero_sources", slog.String("research_id", id))
		if o.telemetry != nil {
			o.telemetry.RecordZeroSources()
		}
	}

	summary, err := scouterrors.RetryWithResult(ctx, o.llmRetry, func() (string, error) {
		return o.summarizer.Summarize(ctx, req.Question, subQuestions, sources)
	})
	if err != nil {
		serr := scouterrors.SummarizationError("failed to synthesize summary", err)
		o.recordFailure(serr)
		return nil, serr
	}

	elapsed := time.Since(start)
	if o.telemetry != nil {
		o.telemetry.ObserveResearch(req.Question, elapsed, len(sources))
	}

	slog.Info("research_complete",
		slog.String("research_id", id),
		slog.Int("sub_questions", len(subQuestions)),
		slog.Int("sources", len(sources)),
		slog.Duration("elapsed", elapsed))

	return &Result{
		ID:           id,
		Question:     req.Question,
		SubQuestions: subQuestions,
		Summary:      summary,
		Sources:      sources,
		Elapsed:      elapsed,
	}, nil
}

// decompose runs the decomposer with one bounded retry, degrading to the
// original question when the model cannot be used.
func (o *Orchestrator) decompose(ctx context.Context, req Request) []string {
	target := TargetCount(req.MaxResults)

	subs, err := scouterrors.RetryWithResult(ctx, o.llmRetry, func() ([]string, error) {
		return o.decomposer.Decompose(ctx, req.Question, target)
	})
	if err != nil {
		slog.Warn("decomposition_degraded",
			slog.String("question", req.Question),
			slog.String("error", err.Error()))
		if o.telemetry != nil {
			o.telemetry.RecordDegradedDecomposition()
		}
		return []string{req.Question}
	}

	return subs
}

// fanOutSearch runs one aggregator call per sub-question concurrently.
// Results are stored by sub-question index, so the merge happens in
// submission order regardless of completion order.
func (o *Orchestrator) fanOutSearch(ctx context.Context, subQuestions []string, maxResults int) []websearch.Hit {
	share := subQuestionShare(maxResults, len(subQuestions))
	parallelism, deadline := o.tunables()

	searchCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	results := make([][]websearch.Hit, len(subQuestions))

	g, gctx := errgroup.WithContext(searchCtx)
	sem := make(chan struct{}, parallelism)

	for i, sq := range subQuestions {
		i, sq := i, sq

		g.Go(func() error {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-gctx.Done():
				// Deadline passed while queued; contribute nothing.
				return nil
			}

			hits, err := o.searcher.Search(gctx, sq, share)
			if err != nil {
				slog.Warn("subsearch_failed",
					slog.String("sub_question", sq),
					slog.String("error", err.Error()))
				return nil
			}

			results[i] = hits
			slog.Debug("subsearch_complete",
				slog.String("sub_question", sq),
				slog.Int("hits", len(hits)))
			return nil
		})
	}

	// Workers never return errors; Wait is a join.
	_ = g.Wait()

	var merged []websearch.Hit
	for _, hits := range results {
		merged = append(merged, hits...)
	}
	return merged
}

// toSources converts hits to indexed sources (1-based, contiguous).
func toSources(hits []websearch.Hit) []Source {
	sources := make([]Source, len(hits))
	for i, h := range hits {
		sources[i] = Source{
			Index:   i + 1,
			Title:   h.Title,
			URL:     h.URL,
			Snippet: h.Snippet,
		}
	}
	return sources
}

// recordFailure reports a failed request to telemetry.
func (o *Orchestrator) recordFailure(err error) {
	if o.telemetry == nil {
		return
	}
	code := scouterrors.GetCode(err)
	if code == "" {
		code = scouterrors.ErrCodeInternal
	}
	o.telemetry.RecordFailure(code)
}
