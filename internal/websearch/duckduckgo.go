package websearch

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	scouterrors "github.com/inkfield/scout/internal/errors"
)

// DefaultDuckDuckGoEndpoint is the lite HTML interface, which is stable
// enough for scraping and cheap to parse.
const DefaultDuckDuckGoEndpoint = "https://lite.duckduckgo.com/lite/"

// ddgGate enforces a global rate limit of 1 query per second across all
// DuckDuckGo instances and goroutines.
var ddgGate struct {
	mu   sync.Mutex
	last time.Time
}

// DuckDuckGo scrapes DuckDuckGo's lite HTML interface.
// It needs no API key, which makes it the default first provider.
type DuckDuckGo struct {
	client   *http.Client
	endpoint string
}

// Verify interface implementation at compile time
var _ Provider = (*DuckDuckGo)(nil)

// DuckDuckGoOption configures a DuckDuckGo provider.
type DuckDuckGoOption func(*DuckDuckGo)

// WithDuckDuckGoEndpoint overrides the lite endpoint. Used in tests.
func WithDuckDuckGoEndpoint(endpoint string) DuckDuckGoOption {
	return func(d *DuckDuckGo) {
		if endpoint != "" {
			d.endpoint = endpoint
		}
	}
}

// WithDuckDuckGoClient overrides the HTTP client.
func WithDuckDuckGoClient(client *http.Client) DuckDuckGoOption {
	return func(d *DuckDuckGo) {
		if client != nil {
			d.client = client
		}
	}
}

// NewDuckDuckGo creates a DuckDuckGo provider with a modest timeout.
func NewDuckDuckGo(opts ...DuckDuckGoOption) *DuckDuckGo {
	d := &DuckDuckGo{
		client:   &http.Client{Timeout: 15 * time.Second},
		endpoint: DefaultDuckDuckGoEndpoint,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the provider name.
func (d *DuckDuckGo) Name() string {
	return "duckduckgo"
}

// Search scrapes the lite HTML page for results.
// 429 responses back off exponentially up to 30 seconds; other non-200
// statuses fail immediately so the aggregator can fall back.
func (d *DuckDuckGo) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, newProviderError(d.Name(),
			scouterrors.ValidationError("query is empty", nil))
	}
	if limit <= 0 {
		return nil, nil
	}

	// Enforce the global 1 QPS gate.
	ddgGate.mu.Lock()
	if wait := time.Until(ddgGate.last.Add(time.Second)); wait > 0 {
		ddgGate.mu.Unlock()
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		ddgGate.mu.Lock()
	}
	ddgGate.last = time.Now()
	ddgGate.mu.Unlock()

	formData := url.Values{}
	formData.Set("q", query)

	var resp *http.Response
	delay := 1 * time.Second
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint,
			strings.NewReader(formData.Encode()))
		if err != nil {
			return nil, newProviderError(d.Name(), err)
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err = d.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, newProviderError(d.Name(),
				scouterrors.NetworkError("duckduckgo request failed", err))
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			break
		}
		_ = resp.Body.Close()

		slog.Debug("duckduckgo rate limited, backing off",
			slog.Duration("delay", delay))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		if delay < 30*time.Second {
			delay *= 2
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		err := scouterrors.New(scouterrors.ErrCodeProviderBlocked,
			"duckduckgo returned non-OK status", nil).
			WithDetail("status", resp.Status)
		return nil, newProviderError(d.Name(), err)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newProviderError(d.Name(),
			scouterrors.NetworkError("failed to read duckduckgo response", err))
	}

	hits := parseLiteResults(string(body), limit)
	for i := range hits {
		hits[i].Provider = d.Name()
	}
	return hits, nil
}

var (
	// Result links: <a ... class='result-link' ... href='URL'>TITLE</a>,
	// with either attribute order.
	ddgLinkPattern  = regexp.MustCompile(`<a[^>]*class=['"]result-link['"][^>]*href=['"]([^'"]+)['"][^>]*>([^<]+)</a>`)
	ddgLinkPattern2 = regexp.MustCompile(`<a[^>]*href=['"]([^'"]+)['"][^>]*class=['"]result-link['"][^>]*>([^<]+)</a>`)

	// Snippets live in <td class="result-snippet">.
	ddgSnippetPattern = regexp.MustCompile(`<td[^>]*class=['"]result-snippet['"][^>]*>([^<]+(?:<[^>]+>[^<]*</[^>]+>)*[^<]*)</td>`)

	htmlTagPattern = regexp.MustCompile(`<[^>]+>`)
)

// parseLiteResults extracts hits from the lite HTML page.
func parseLiteResults(html string, limit int) []Hit {
	var hits []Hit

	matches := ddgLinkPattern.FindAllStringSubmatch(html, -1)
	if len(matches) == 0 {
		matches = ddgLinkPattern2.FindAllStringSubmatch(html, -1)
	}
	snippetMatches := ddgSnippetPattern.FindAllStringSubmatch(html, -1)

	for i, match := range matches {
		if len(match) < 3 {
			continue
		}

		urlStr := strings.TrimSpace(match[1])
		title := stripHTML(strings.TrimSpace(match[2]))

		snippet := ""
		if i < len(snippetMatches) && len(snippetMatches[i]) > 1 {
			snippet = stripHTML(snippetMatches[i][1])
		}

		if urlStr == "" || title == "" {
			continue
		}

		hits = append(hits, Hit{Title: title, URL: urlStr, Snippet: snippet})
		if len(hits) >= limit {
			return hits
		}
	}

	// The markup occasionally changes; fall back to any external link.
	if len(hits) == 0 {
		hits = fallbackParse(html, limit)
	}

	return hits
}

// fallbackParse extracts any external links that look like results.
func fallbackParse(html string, limit int) []Hit {
	var hits []Hit

	linkPattern := regexp.MustCompile(`<a[^>]+href=['"]([^'"]+)['"][^>]*>([^<]+)</a>`)
	matches := linkPattern.FindAllStringSubmatch(html, -1)

	seen := make(map[string]bool)
	for _, match := range matches {
		if len(match) < 3 {
			continue
		}

		urlStr := strings.TrimSpace(match[1])
		title := stripHTML(strings.TrimSpace(match[2]))

		// Skip DuckDuckGo internal links and navigation.
		if strings.Contains(urlStr, "duckduckgo.com") ||
			strings.HasPrefix(urlStr, "/") ||
			strings.HasPrefix(urlStr, "#") ||
			strings.HasPrefix(urlStr, "javascript:") {
			continue
		}
		if len(title) < 5 {
			continue
		}
		if seen[urlStr] {
			continue
		}
		seen[urlStr] = true

		hits = append(hits, Hit{Title: title, URL: urlStr})
		if len(hits) >= limit {
			break
		}
	}

	return hits
}

// stripHTML removes tags and decodes common entities.
func stripHTML(s string) string {
	s = htmlTagPattern.ReplaceAllString(s, "")

	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", "\"")
	s = strings.ReplaceAll(s, "&#39;", "'")
	s = strings.ReplaceAll(s, "&nbsp;", " ")

	return strings.TrimSpace(s)
}
