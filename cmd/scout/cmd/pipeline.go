package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/inkfield/scout/internal/config"
	"github.com/inkfield/scout/internal/llm"
	"github.com/inkfield/scout/internal/research"
	"github.com/inkfield/scout/internal/telemetry"
	"github.com/inkfield/scout/internal/websearch"
)

// projectRoot resolves the project root for config loading and watching.
func projectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	root, err := config.FindProjectRoot(cwd)
	if err != nil {
		return cwd, nil
	}
	return root, nil
}

// loadConfig loads the layered configuration starting from the project root.
func loadConfig() (*config.Config, error) {
	root, err := projectRoot()
	if err != nil {
		return nil, err
	}
	return config.Load(root)
}

// buildProviders constructs the search provider chain in configured order.
// With offline set, only the static provider is used.
func buildProviders(cfg *config.Config, offline bool) []websearch.Provider {
	if offline {
		return []websearch.Provider{websearch.NewStatic()}
	}

	var providers []websearch.Provider
	for _, name := range cfg.Providers.Order {
		switch name {
		case "duckduckgo":
			if !cfg.Providers.DuckDuckGo.Enabled {
				continue
			}
			var opts []websearch.DuckDuckGoOption
			if cfg.Providers.DuckDuckGo.Endpoint != "" {
				opts = append(opts, websearch.WithDuckDuckGoEndpoint(cfg.Providers.DuckDuckGo.Endpoint))
			}
			providers = append(providers, websearch.NewDuckDuckGo(opts...))
		case "brave":
			if !cfg.Providers.Brave.Enabled || cfg.Providers.Brave.APIKey == "" {
				continue
			}
			var opts []websearch.BraveOption
			if cfg.Providers.Brave.Endpoint != "" {
				opts = append(opts, websearch.WithBraveEndpoint(cfg.Providers.Brave.Endpoint))
			}
			providers = append(providers, websearch.NewBrave(cfg.Providers.Brave.APIKey, opts...))
		case "static":
			if !cfg.Providers.Static.Enabled {
				continue
			}
			providers = append(providers, websearch.NewStatic())
		}
	}

	if len(providers) == 0 {
		slog.Warn("no search providers enabled, falling back to static results")
		providers = append(providers, websearch.NewStatic())
	}

	return providers
}

// buildAggregator constructs the ordered-fallback search aggregator.
func buildAggregator(cfg *config.Config, offline bool, metrics *telemetry.Metrics) *websearch.Aggregator {
	opts := []websearch.AggregatorOption{
		websearch.WithCache(cfg.Providers.CacheSize, cfg.CacheTTL()),
		websearch.WithProviderTimeout(cfg.ProviderTimeout()),
	}
	if metrics != nil {
		opts = append(opts, websearch.WithFallbackHook(metrics.RecordProviderFallback))
	}

	if cfg.Providers.DiskCache.Enabled {
		ttl := 24 * time.Hour
		if d, err := time.ParseDuration(cfg.Providers.DiskCache.TTL); err == nil {
			ttl = d
		}
		dc, err := websearch.NewDiskCache(cfg.Providers.DiskCache.Path, ttl)
		if err != nil {
			slog.Warn("disk cache unavailable",
				slog.String("path", cfg.Providers.DiskCache.Path),
				slog.String("error", err.Error()))
		} else {
			opts = append(opts, websearch.WithDiskCache(dc))
		}
	}

	return websearch.NewAggregator(buildProviders(cfg, offline), opts...)
}

// buildPipeline wires the language model, search aggregator, and telemetry
// into a research orchestrator.
func buildPipeline(cfg *config.Config, offline bool) (*research.Orchestrator, *telemetry.Metrics, llm.Client) {
	client := llm.NewOpenAIClient(llm.Config{
		Endpoint:    cfg.LLM.Endpoint,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Timeout:     cfg.LLMTimeout(),
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})

	metrics := telemetry.New()

	orchestrator := research.NewOrchestrator(client, buildAggregator(cfg, offline, metrics),
		research.WithParallelism(cfg.Research.Parallelism),
		research.WithSearchDeadline(cfg.ResearchTimeout()/2),
		research.WithTelemetry(metrics))

	return orchestrator, metrics, client
}
