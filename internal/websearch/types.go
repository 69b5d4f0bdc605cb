// Package websearch provides web search providers and an aggregator that
// chains them with ordered fallback, caching, and result deduplication.
package websearch

import (
	"context"
	"fmt"
)

// Hit is a single web search result.
type Hit struct {
	// Title is the result page title.
	Title string `json:"title"`

	// URL is the result link as returned by the provider.
	URL string `json:"url"`

	// Snippet is a short text excerpt, possibly empty.
	Snippet string `json:"snippet,omitempty"`

	// Provider names the backend that produced the hit.
	Provider string `json:"provider,omitempty"`
}

// Provider executes web searches against a single backend.
type Provider interface {
	// Name returns the provider's stable name (e.g. "duckduckgo").
	Name() string

	// Search returns up to limit hits for the query.
	// Implementations must honor context cancellation.
	Search(ctx context.Context, query string, limit int) ([]Hit, error)
}

// ProviderError wraps a failure from a single provider so the aggregator
// can log it and move on to the next provider in the chain.
type ProviderError struct {
	// Provider is the name of the failing provider.
	Provider string

	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// newProviderError wraps err with the provider name.
func newProviderError(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Err: err}
}
