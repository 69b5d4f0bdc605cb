// Package llm provides a client for OpenAI-compatible chat completion
// endpoints. Both question decomposition and summary synthesis go through
// this client; any endpoint speaking the /chat/completions protocol works
// (OpenAI, Ollama, vLLM, LM Studio).
package llm

import (
	"context"
	"time"
)

// Client generates chat completions.
type Client interface {
	// Complete sends a system and user prompt and returns the assistant text.
	Complete(ctx context.Context, system, user string) (string, error)

	// ModelName returns the model identifier requests are sent with.
	ModelName() string

	// Available reports whether the endpoint is reachable.
	Available(ctx context.Context) bool

	// Close releases idle connections.
	Close() error
}

// Config configures an OpenAI-compatible client.
type Config struct {
	// Endpoint is the API base URL, e.g. "https://api.openai.com/v1".
	Endpoint string

	// APIKey is sent as a Bearer token when non-empty.
	APIKey string

	// Model is the model identifier, e.g. "gpt-4o-mini".
	Model string

	// Timeout bounds each request.
	Timeout time.Duration

	// MaxTokens caps completion length. 0 omits the field.
	MaxTokens int

	// Temperature controls sampling randomness.
	Temperature float64
}
