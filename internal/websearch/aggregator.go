package websearch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	scouterrors "github.com/inkfield/scout/internal/errors"
)

const (
	// DefaultCacheSize is the in-memory query cache capacity.
	DefaultCacheSize = 256

	// DefaultCacheTTL is how long cached query results stay fresh.
	DefaultCacheTTL = 15 * time.Minute

	// DefaultProviderTimeout bounds a single provider call.
	DefaultProviderTimeout = 10 * time.Second
)

// Aggregator chains providers with ordered fallback. Providers are tried
// in order until enough hits accumulate; a failing provider is logged and
// skipped, never surfaced to the caller. When every provider fails the
// aggregator returns an empty slice with a nil error, so the research
// pipeline degrades instead of aborting.
type Aggregator struct {
	providers  []Provider
	breakers   map[string]*scouterrors.CircuitBreaker
	cache      *expirable.LRU[string, []Hit]
	disk       *DiskCache
	timeout    time.Duration
	onFallback func(provider string)
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*aggregatorConfig)

type aggregatorConfig struct {
	cacheSize   int
	cacheTTL    time.Duration
	timeout     time.Duration
	disk        *DiskCache
	maxFailures int
	resetAfter  time.Duration
	onFallback  func(provider string)
}

// WithCache sets the in-memory cache capacity and TTL.
func WithCache(size int, ttl time.Duration) AggregatorOption {
	return func(c *aggregatorConfig) {
		c.cacheSize = size
		c.cacheTTL = ttl
	}
}

// WithProviderTimeout sets the per-provider call timeout.
func WithProviderTimeout(d time.Duration) AggregatorOption {
	return func(c *aggregatorConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithDiskCache attaches a persistent cross-process result cache.
func WithDiskCache(dc *DiskCache) AggregatorOption {
	return func(c *aggregatorConfig) {
		c.disk = dc
	}
}

// WithFallbackHook registers a callback invoked with the failing provider's
// name whenever the chain falls through to the next provider.
func WithFallbackHook(fn func(provider string)) AggregatorOption {
	return func(c *aggregatorConfig) {
		c.onFallback = fn
	}
}

// WithBreaker tunes the per-provider circuit breakers.
func WithBreaker(maxFailures int, resetAfter time.Duration) AggregatorOption {
	return func(c *aggregatorConfig) {
		if maxFailures > 0 {
			c.maxFailures = maxFailures
		}
		if resetAfter > 0 {
			c.resetAfter = resetAfter
		}
	}
}

// NewAggregator creates an aggregator over the given providers.
// Provider order is fallback order.
func NewAggregator(providers []Provider, opts ...AggregatorOption) *Aggregator {
	cfg := &aggregatorConfig{
		cacheSize:   DefaultCacheSize,
		cacheTTL:    DefaultCacheTTL,
		timeout:     DefaultProviderTimeout,
		maxFailures: 3,
		resetAfter:  60 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	breakers := make(map[string]*scouterrors.CircuitBreaker, len(providers))
	for _, p := range providers {
		breakers[p.Name()] = scouterrors.NewCircuitBreaker(p.Name(),
			scouterrors.WithMaxFailures(cfg.maxFailures),
			scouterrors.WithResetTimeout(cfg.resetAfter))
	}

	var cache *expirable.LRU[string, []Hit]
	if cfg.cacheSize > 0 {
		cache = expirable.NewLRU[string, []Hit](cfg.cacheSize, nil, cfg.cacheTTL)
	}

	return &Aggregator{
		providers:  providers,
		breakers:   breakers,
		cache:      cache,
		disk:       cfg.disk,
		timeout:    cfg.timeout,
		onFallback: cfg.onFallback,
	}
}

// Providers returns the provider names in fallback order.
func (a *Aggregator) Providers() []string {
	names := make([]string, len(a.providers))
	for i, p := range a.providers {
		names[i] = p.Name()
	}
	return names
}

// BreakerState returns the circuit state for a provider, for diagnostics.
func (a *Aggregator) BreakerState(provider string) (scouterrors.State, bool) {
	cb, ok := a.breakers[provider]
	if !ok {
		return scouterrors.StateClosed, false
	}
	return cb.State(), true
}

// Search runs the provider chain for a query and returns up to limit
// deduplicated hits. The only error it returns is context cancellation;
// provider failures degrade to fewer (possibly zero) hits.
func (a *Aggregator) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return nil, nil
	}

	key := cacheKey(query, limit)
	if a.cache != nil {
		if hits, ok := a.cache.Get(key); ok {
			slog.Debug("search cache hit", slog.String("query", query))
			return cloneHits(hits), nil
		}
	}
	if a.disk != nil {
		if hits, ok := a.disk.Get(query, limit); ok {
			slog.Debug("search disk cache hit", slog.String("query", query))
			if a.cache != nil {
				a.cache.Add(key, cloneHits(hits))
			}
			return hits, nil
		}
	}

	var accumulated []Hit
	for _, p := range a.providers {
		if err := ctx.Err(); err != nil {
			return Dedupe(accumulated), err
		}
		if len(accumulated) >= limit {
			break
		}

		cb := a.breakers[p.Name()]
		if !cb.Allow() {
			slog.Debug("provider circuit open, skipping",
				slog.String("provider", p.Name()))
			continue
		}

		remaining := limit - len(accumulated)
		hits, err := a.searchOne(ctx, p, query, remaining)
		if err != nil {
			cb.RecordFailure()
			if a.onFallback != nil {
				a.onFallback(p.Name())
			}
			slog.Warn("search provider failed, falling back",
				slog.String("provider", p.Name()),
				slog.String("query", query),
				slog.String("error", err.Error()))
			if ctx.Err() != nil {
				return Dedupe(accumulated), ctx.Err()
			}
			continue
		}

		cb.RecordSuccess()
		accumulated = append(accumulated, hits...)
		accumulated = Dedupe(accumulated)

		slog.Debug("provider returned hits",
			slog.String("provider", p.Name()),
			slog.Int("hits", len(hits)),
			slog.Int("accumulated", len(accumulated)))
	}

	if len(accumulated) > limit {
		accumulated = accumulated[:limit]
	}

	if len(accumulated) == 0 {
		slog.Warn("all search providers failed or returned nothing",
			slog.String("query", query))
		return []Hit{}, nil
	}

	if a.cache != nil {
		a.cache.Add(key, cloneHits(accumulated))
	}
	if a.disk != nil {
		if err := a.disk.Put(query, limit, accumulated); err != nil {
			slog.Debug("disk cache write failed", slog.String("error", err.Error()))
		}
	}

	return accumulated, nil
}

// searchOne calls a single provider under the per-provider timeout.
func (a *Aggregator) searchOne(ctx context.Context, p Provider, query string, limit int) ([]Hit, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return p.Search(callCtx, query, limit)
}

// cacheKey builds the cache key for a query and limit.
func cacheKey(query string, limit int) string {
	return fmt.Sprintf("%s|%d", strings.ToLower(query), limit)
}

// cloneHits copies a hit slice so cache entries stay immutable.
func cloneHits(hits []Hit) []Hit {
	out := make([]Hit, len(hits))
	copy(out, hits)
	return out
}
