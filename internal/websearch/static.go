package websearch

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Static is an offline provider that fabricates deterministic placeholder
// hits. It sits last in the fallback chain so research still produces a
// structured result when every network provider is down, and it keeps
// tests and air-gapped development working without a network.
type Static struct{}

// Verify interface implementation at compile time
var _ Provider = (*Static)(nil)

// staticTopic holds canned hits for a recognizable topic.
type staticTopic struct {
	keywords []string
	hits     []Hit
}

// staticTopics cover a few common research subjects so offline demos
// return something better than generic placeholders.
var staticTopics = []staticTopic{
	{
		keywords: []string{"climate"},
		hits: []Hit{
			{Title: "Climate Change Overview - EPA", URL: "https://epa.gov/climate-change", Snippet: "Climate change refers to long-term shifts in global temperatures and weather patterns."},
			{Title: "Global Warming Facts - NASA", URL: "https://nasa.gov/global-warming", Snippet: "Scientific evidence shows that human activities are the primary cause of recent climate change."},
			{Title: "Climate Change Impacts - IPCC", URL: "https://ipcc.ch/impacts", Snippet: "Climate change affects ecosystems, human health, and economic systems worldwide."},
		},
	},
	{
		keywords: []string{"artificial intelligence", "machine learning", " ai "},
		hits: []Hit{
			{Title: "What is Artificial Intelligence? - MIT", URL: "https://mit.edu/what-is-ai", Snippet: "AI is the simulation of human intelligence processes by machines and computer systems."},
			{Title: "Machine Learning Basics - Stanford", URL: "https://stanford.edu/ml-basics", Snippet: "Machine learning is a subset of AI that enables computers to learn from data."},
			{Title: "AI Applications - IEEE", URL: "https://ieee.org/ai-applications", Snippet: "AI applications span across healthcare, finance, transportation, and entertainment."},
		},
	},
}

// NewStatic creates the offline provider.
func NewStatic() *Static {
	return &Static{}
}

// Name returns the provider name.
func (s *Static) Name() string {
	return "static"
}

// Search returns deterministic placeholder hits for the query.
// It never fails and honors context cancellation for interface symmetry.
func (s *Static) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return nil, nil
	}

	hits := s.topicHits(query, limit)
	for len(hits) < limit {
		i := len(hits) + 1
		hits = append(hits, Hit{
			Title:   fmt.Sprintf("Research Result %d: %s", i, query),
			URL:     fmt.Sprintf("https://example.com/research/%s/%d", url.PathEscape(slugify(query)), i),
			Snippet: fmt.Sprintf("This is a research finding related to %s. The information provides insights and analysis on the topic.", query),
		})
	}

	for i := range hits {
		hits[i].Provider = s.Name()
	}
	return hits[:limit], nil
}

// topicHits returns canned hits when the query matches a known topic.
func (s *Static) topicHits(query string, limit int) []Hit {
	padded := " " + strings.ToLower(query) + " "
	for _, topic := range staticTopics {
		for _, kw := range topic.keywords {
			if strings.Contains(padded, kw) || strings.Contains(strings.ToLower(query), strings.TrimSpace(kw)) {
				n := min(limit, len(topic.hits))
				out := make([]Hit, n)
				copy(out, topic.hits[:n])
				return out
			}
		}
	}
	return nil
}

// slugify produces a URL-safe fragment from a query.
func slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "query"
	}
	if len(slug) > 48 {
		slug = slug[:48]
	}
	return slug
}
