package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	scouterrors "github.com/inkfield/scout/internal/errors"
)

// DefaultBraveEndpoint is the Brave Search API web search endpoint.
const DefaultBraveEndpoint = "https://api.search.brave.com/res/v1/web/search"

// braveKeyGate holds a per-API-key mutex and the earliest time the next
// request may fire. All Brave instances sharing a key share a single gate
// so only one request per second is issued for that key, matching Brave's
// free-tier rate limit.
type braveKeyGate struct {
	mu      sync.Mutex
	readyAt time.Time
}

var (
	braveGatesMu sync.Mutex
	braveGates   = map[string]*braveKeyGate{}
)

// braveGateFor returns (or creates) the shared gate for the given API key.
func braveGateFor(apiKey string) *braveKeyGate {
	braveGatesMu.Lock()
	defer braveGatesMu.Unlock()
	g, ok := braveGates[apiKey]
	if !ok {
		g = &braveKeyGate{}
		braveGates[apiKey] = g
	}
	return g
}

// waitAndLock blocks until the caller may issue a request, then returns with
// the gate locked. The caller must call unlock(delay) after receiving the
// response to set the next allowed time and release the lock.
func (g *braveKeyGate) waitAndLock(ctx context.Context) error {
	g.mu.Lock()
	if wait := time.Until(g.readyAt); wait > 0 {
		g.mu.Unlock()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		g.mu.Lock()
	}
	return nil
}

// unlock sets the minimum delay before the next request and releases the
// gate so the next waiter may proceed.
func (g *braveKeyGate) unlock(delay time.Duration) {
	g.readyAt = time.Now().Add(delay)
	g.mu.Unlock()
}

// Brave queries the Brave Search API. An API key is required and is sent
// via the X-Subscription-Token header.
type Brave struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// Verify interface implementation at compile time
var _ Provider = (*Brave)(nil)

// BraveOption configures a Brave provider.
type BraveOption func(*Brave)

// WithBraveEndpoint overrides the API endpoint. Used in tests.
func WithBraveEndpoint(endpoint string) BraveOption {
	return func(b *Brave) {
		if endpoint != "" {
			b.endpoint = endpoint
		}
	}
}

// WithBraveClient overrides the HTTP client.
func WithBraveClient(client *http.Client) BraveOption {
	return func(b *Brave) {
		if client != nil {
			b.client = client
		}
	}
}

// NewBrave creates a Brave provider.
func NewBrave(apiKey string, opts ...BraveOption) *Brave {
	b := &Brave{
		apiKey:   apiKey,
		endpoint: DefaultBraveEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the provider name.
func (b *Brave) Name() string {
	return "brave"
}

// Search executes a Brave query. Concurrent calls sharing the same API key
// are serialized through a shared per-key gate to respect rate limits.
func (b *Brave) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	if strings.TrimSpace(b.apiKey) == "" {
		return nil, newProviderError(b.Name(),
			scouterrors.ConfigError("brave API key is missing", nil).
				WithSuggestion("set BRAVE_API_KEY or disable the brave provider"))
	}
	if limit <= 0 {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s?q=%s&count=%d", b.endpoint, url.QueryEscape(query), limit)
	gate := braveGateFor(b.apiKey)

	var resp *http.Response
	var err error
	for {
		if err := gate.waitAndLock(ctx); err != nil {
			return nil, err
		}

		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if reqErr != nil {
			gate.unlock(0)
			return nil, newProviderError(b.Name(), reqErr)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Subscription-Token", b.apiKey)

		resp, err = b.client.Do(req)
		if err != nil {
			gate.unlock(1 * time.Second)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, newProviderError(b.Name(),
				scouterrors.NetworkError("brave request failed", err))
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			// Use the rate-limit headers to pace the next caller.
			gate.unlock(braveNextDelay(resp.Header))
			break
		}

		// 429: read the retry delay, tell the gate, then loop.
		wait := braveRetryDelay(resp.Header)
		_ = resp.Body.Close()
		gate.unlock(wait)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		code := scouterrors.ErrCodeNetworkUnavailable
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			code = scouterrors.ErrCodeProviderBlocked
		}
		err := scouterrors.New(code, "brave returned non-OK status", nil).
			WithDetail("status", resp.Status)
		return nil, newProviderError(b.Name(), err)
	}

	var payload struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, newProviderError(b.Name(),
			scouterrors.NetworkError("failed to decode brave response", err))
	}

	hits := make([]Hit, 0, len(payload.Web.Results))
	for _, r := range payload.Web.Results {
		hits = append(hits, Hit{
			Title:    r.Title,
			URL:      r.URL,
			Snippet:  r.Description,
			Provider: b.Name(),
		})
		if len(hits) >= limit {
			break
		}
	}

	return hits, nil
}

// braveRetryDelay reads the X-RateLimit-Reset header to determine how long
// to wait before retrying. The header is a comma-separated list of reset
// times in seconds (e.g. "1, 1419704"); the smallest value wins.
// Falls back to 1 second if the header is missing or unparseable.
func braveRetryDelay(h http.Header) time.Duration {
	raw := h.Get("X-RateLimit-Reset")
	if raw == "" {
		return 1 * time.Second
	}
	minReset := -1
	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			continue
		}
		if minReset < 0 || n < minReset {
			minReset = n
		}
	}
	if minReset <= 0 {
		return 1 * time.Second
	}
	return time.Duration(minReset) * time.Second
}

// braveNextDelay reads X-RateLimit-Remaining to decide how long to hold the
// gate before allowing the next request. If the per-second bucket is
// exhausted we wait a second, otherwise the next caller may go immediately.
func braveNextDelay(h http.Header) time.Duration {
	raw := h.Get("X-RateLimit-Remaining")
	if raw == "" {
		return 1 * time.Second
	}
	// Comma-separated: "0, 14832" (per-second, per-month).
	parts := strings.SplitN(raw, ",", 2)
	perSecond, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || perSecond <= 0 {
		return 1 * time.Second
	}
	return 0
}
