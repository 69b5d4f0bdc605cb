package research

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/inkfield/scout/internal/websearch"

	scouterrors "github.com/inkfield/scout/internal/errors"
)

// fastRetry removes backoff delays in orchestrator tests.
func fastRetry() scouterrors.RetryConfig {
	return scouterrors.RetryConfig{
		MaxRetries:   1,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   1,
	}
}

// scriptedLLM returns canned completions keyed by a substring of the
// system prompt, distinguishing decompose from summarize calls.
type scriptedLLM struct {
	mu sync.Mutex

	decomposeReply string
	decomposeErr   error
	decomposeFails int // fail this many calls before succeeding

	summarizeReply string
	summarizeErr   error
	summarizeFails int

	decomposeCalls int
	summarizeCalls int
	lastUserPrompt string
}

func (s *scriptedLLM) Complete(ctx context.Context, system, user string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUserPrompt = user

	if strings.Contains(system, "research planner") {
		s.decomposeCalls++
		if s.decomposeErr != nil && s.decomposeCalls <= s.decomposeFails {
			return "", s.decomposeErr
		}
		if s.decomposeErr != nil && s.decomposeFails == 0 {
			return "", s.decomposeErr
		}
		return s.decomposeReply, nil
	}

	s.summarizeCalls++
	if s.summarizeErr != nil && s.summarizeCalls <= s.summarizeFails {
		return "", s.summarizeErr
	}
	if s.summarizeErr != nil && s.summarizeFails == 0 {
		return "", s.summarizeErr
	}
	return s.summarizeReply, nil
}

func (s *scriptedLLM) ModelName() string                    { return "scripted" }
func (s *scriptedLLM) Available(ctx context.Context) bool   { return true }
func (s *scriptedLLM) Close() error                         { return nil }

// recordingSearcher returns canned hits per query and records calls.
type recordingSearcher struct {
	mu      sync.Mutex
	hits    map[string][]websearch.Hit
	err     error
	delay   time.Duration
	queries []string
	limits  []int
}

func newRecordingSearcher() *recordingSearcher {
	return &recordingSearcher{hits: make(map[string][]websearch.Hit)}
}

func (r *recordingSearcher) set(query string, n int) {
	hits := make([]websearch.Hit, n)
	for i := range hits {
		hits[i] = websearch.Hit{
			Title:    fmt.Sprintf("%s result %d", query, i+1),
			URL:      fmt.Sprintf("https://example.com/%s/%d", slugOf(query), i+1),
			Snippet:  fmt.Sprintf("Snippet about %s (%d)", query, i+1),
			Provider: "duckduckgo",
		}
	}
	r.hits[query] = hits
}

func slugOf(q string) string {
	return strings.ReplaceAll(strings.ToLower(q), " ", "-")
}

func (r *recordingSearcher) Search(ctx context.Context, query string, limit int) ([]websearch.Hit, error) {
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, query)
	r.limits = append(r.limits, limit)

	if r.err != nil {
		return nil, r.err
	}

	hits := r.hits[query]
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// fakeTelemetry counts recorder invocations.
type fakeTelemetry struct {
	mu         sync.Mutex
	observed   int
	degraded   int
	zeroSource int
	failures   []string
}

func (f *fakeTelemetry) ObserveResearch(question string, elapsed time.Duration, sources int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observed++
}

func (f *fakeTelemetry) RecordDegradedDecomposition() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.degraded++
}

func (f *fakeTelemetry) RecordZeroSources() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.zeroSource++
}

func (f *fakeTelemetry) RecordFailure(code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, code)
}
