// Package telemetry collects research pipeline metrics for the
// research_status tool. All data is kept in memory and stays local.
package telemetry

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LatencyBucket is a histogram bucket for end-to-end research latency.
// Research requests involve language-model calls and web searches, so the
// buckets are cut in seconds rather than milliseconds.
type LatencyBucket string

const (
	BucketUnder2s  LatencyBucket = "lt_2s"
	BucketUnder10s LatencyBucket = "lt_10s"
	BucketUnder30s LatencyBucket = "lt_30s"
	BucketUnder60s LatencyBucket = "lt_60s"
	BucketOver60s  LatencyBucket = "gte_60s"
)

// LatencyToBucket converts an elapsed duration to its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	switch {
	case d < 2*time.Second:
		return BucketUnder2s
	case d < 10*time.Second:
		return BucketUnder10s
	case d < 30*time.Second:
		return BucketUnder30s
	case d < 60*time.Second:
		return BucketUnder60s
	default:
		return BucketOver60s
	}
}

// CircularBuffer is a fixed-capacity FIFO buffer.
type CircularBuffer[T any] struct {
	mu       sync.RWMutex
	items    []T
	head     int
	size     int
	capacity int
}

// NewCircularBuffer creates a buffer with the given capacity.
func NewCircularBuffer[T any](capacity int) *CircularBuffer[T] {
	if capacity <= 0 {
		capacity = 100
	}
	return &CircularBuffer[T]{
		items:    make([]T, capacity),
		capacity: capacity,
	}
}

// Add appends an item, evicting the oldest when full.
func (b *CircularBuffer[T]) Add(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items[b.head] = item
	b.head = (b.head + 1) % b.capacity
	if b.size < b.capacity {
		b.size++
	}
}

// Items returns the buffered items oldest first.
func (b *CircularBuffer[T]) Items() []T {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.size == 0 {
		return []T{}
	}

	result := make([]T, b.size)
	if b.size < b.capacity {
		copy(result, b.items[:b.size])
	} else {
		copy(result, b.items[b.head:])
		copy(result[b.capacity-b.head:], b.items[:b.head])
	}
	return result
}

// Size returns the current number of buffered items.
func (b *CircularBuffer[T]) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// ExtractTerms splits a question into lowercased terms of length >= 3.
func ExtractTerms(question string) []string {
	question = strings.ToLower(strings.TrimSpace(question))
	if question == "" {
		return nil
	}

	var terms []string
	for _, w := range strings.Fields(question) {
		w = strings.Trim(w, ".,;:!?\"'()")
		if len(w) >= 3 {
			terms = append(terms, w)
		}
	}
	if len(terms) == 0 {
		return nil
	}
	return terms
}

// TermCount is a term with its observed frequency.
type TermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// Snapshot is an immutable view of collected metrics.
type Snapshot struct {
	TotalResearches     int64                   `json:"total_researches"`
	DegradedCount       int64                   `json:"degraded_decompositions"`
	ZeroSourceCount     int64                   `json:"zero_source_researches"`
	FailureCounts       map[string]int64        `json:"failure_counts"`
	ProviderFallbacks   map[string]int64        `json:"provider_fallbacks"`
	LatencyDistribution map[LatencyBucket]int64 `json:"latency_distribution"`
	AverageSources      float64                 `json:"average_sources"`
	TopTerms            []TermCount             `json:"top_terms"`
	ZeroSourceQuestions []string                `json:"zero_source_questions"`
	RepeatCount         int64                   `json:"repeat_count"`
	RepeatRate          float64                 `json:"repeat_rate"`
	Since               time.Time               `json:"since"`
}

// ZeroSourcePercentage returns the share of researches that found nothing.
func (s *Snapshot) ZeroSourcePercentage() float64 {
	if s.TotalResearches == 0 {
		return 0
	}
	return float64(s.ZeroSourceCount) / float64(s.TotalResearches) * 100
}

// Config sizes the collector's bounded structures.
type Config struct {
	TopTermsCapacity        int // default 100
	ZeroSourceCapacity      int // default 50
	RecentQuestionsCapacity int // default 500
}

// DefaultConfig returns the collector defaults.
func DefaultConfig() Config {
	return Config{
		TopTermsCapacity:        100,
		ZeroSourceCapacity:      50,
		RecentQuestionsCapacity: 500,
	}
}

// Metrics collects research pipeline telemetry. It satisfies the
// orchestrator's telemetry hooks and is safe for concurrent use.
type Metrics struct {
	mu sync.RWMutex

	total        int64
	degraded     int64
	zeroSources  int64
	failures     map[string]int64
	fallbacks    map[string]int64
	latencies    map[LatencyBucket]int64
	totalSources int64
	startTime    time.Time

	topTerms        *lru.Cache[string, int64]
	zeroSourceBuf   *CircularBuffer[string]
	recentQuestions *lru.Cache[string, struct{}]
	repeatCount     int64
}

// New creates a collector with default configuration.
func New() *Metrics {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a collector with custom capacities.
func NewWithConfig(cfg Config) *Metrics {
	if cfg.TopTermsCapacity <= 0 {
		cfg.TopTermsCapacity = 100
	}
	if cfg.ZeroSourceCapacity <= 0 {
		cfg.ZeroSourceCapacity = 50
	}
	if cfg.RecentQuestionsCapacity <= 0 {
		cfg.RecentQuestionsCapacity = 500
	}

	topTerms, _ := lru.New[string, int64](cfg.TopTermsCapacity)
	recentQuestions, _ := lru.New[string, struct{}](cfg.RecentQuestionsCapacity)

	return &Metrics{
		failures:        make(map[string]int64),
		fallbacks:       make(map[string]int64),
		latencies:       make(map[LatencyBucket]int64),
		startTime:       time.Now(),
		topTerms:        topTerms,
		zeroSourceBuf:   NewCircularBuffer[string](cfg.ZeroSourceCapacity),
		recentQuestions: recentQuestions,
	}
}

// ObserveResearch records a completed research request.
func (m *Metrics) ObserveResearch(question string, elapsed time.Duration, sources int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	m.totalSources += int64(sources)
	m.latencies[LatencyToBucket(elapsed)]++

	for _, term := range ExtractTerms(question) {
		count, _ := m.topTerms.Get(term)
		m.topTerms.Add(term, count+1)
	}

	if sources == 0 {
		m.zeroSourceBuf.Add(question)
	}

	hash := hashQuestion(question)
	if _, seen := m.recentQuestions.Get(hash); seen {
		m.repeatCount++
	}
	m.recentQuestions.Add(hash, struct{}{})
}

// RecordDegradedDecomposition counts a decomposition that fell back to
// searching the original question.
func (m *Metrics) RecordDegradedDecomposition() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.degraded++
}

// RecordZeroSources counts a research that found no sources at all.
func (m *Metrics) RecordZeroSources() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.zeroSources++
}

// RecordFailure counts a failed request by error code.
func (m *Metrics) RecordFailure(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[code]++
}

// RecordProviderFallback counts a search provider failure that made the
// aggregator fall through to the next provider in the chain.
func (m *Metrics) RecordProviderFallback(provider string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbacks[provider]++
}

// hashQuestion normalizes and hashes a question for repeat detection.
func hashQuestion(question string) string {
	normalized := strings.ToLower(strings.TrimSpace(question))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:16])
}

// Snapshot returns the current metrics for reporting.
func (m *Metrics) Snapshot() *Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	failures := make(map[string]int64, len(m.failures))
	for k, v := range m.failures {
		failures[k] = v
	}

	fallbacks := make(map[string]int64, len(m.fallbacks))
	for k, v := range m.fallbacks {
		fallbacks[k] = v
	}

	latencies := make(map[LatencyBucket]int64, len(m.latencies))
	for k, v := range m.latencies {
		latencies[k] = v
	}

	var topTerms []TermCount
	for _, key := range m.topTerms.Keys() {
		if count, ok := m.topTerms.Peek(key); ok {
			topTerms = append(topTerms, TermCount{Term: key, Count: count})
		}
	}
	sort.Slice(topTerms, func(i, j int) bool {
		if topTerms[i].Count != topTerms[j].Count {
			return topTerms[i].Count > topTerms[j].Count
		}
		return topTerms[i].Term < topTerms[j].Term
	})

	var avgSources, repeatRate float64
	if m.total > 0 {
		avgSources = float64(m.totalSources) / float64(m.total)
		repeatRate = float64(m.repeatCount) / float64(m.total)
	}

	return &Snapshot{
		TotalResearches:     m.total,
		DegradedCount:       m.degraded,
		ZeroSourceCount:     m.zeroSources,
		FailureCounts:       failures,
		ProviderFallbacks:   fallbacks,
		LatencyDistribution: latencies,
		AverageSources:      avgSources,
		TopTerms:            topTerms,
		ZeroSourceQuestions: m.zeroSourceBuf.Items(),
		RepeatCount:         m.repeatCount,
		RepeatRate:          repeatRate,
		Since:               m.startTime,
	}
}
