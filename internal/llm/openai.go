package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	scouterrors "github.com/inkfield/scout/internal/errors"
)

const (
	// DefaultTimeout is the per-request timeout when none is configured.
	DefaultTimeout = 60 * time.Second

	// maxErrorBody caps how much of an error response body is kept for
	// error messages and logs.
	maxErrorBody = 2048
)

// OpenAIClient talks to an OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	client    *http.Client
	transport *http.Transport
	config    Config
}

// Verify interface implementation at compile time
var _ Client = (*OpenAIClient)(nil)

// chatRequest is the /chat/completions request body.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the /chat/completions response body.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// NewOpenAIClient creates a client for an OpenAI-compatible endpoint.
func NewOpenAIClient(cfg Config) *OpenAIClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")

	transport := &http.Transport{
		MaxIdleConns:        4,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     30 * time.Second,
	}

	// No client-level timeout: the per-request context carries the deadline
	// so callers can tighten it below the configured ceiling.
	return &OpenAIClient{
		client:    &http.Client{Transport: transport},
		transport: transport,
		config:    cfg,
	}
}

// Complete sends a system and user prompt and returns the assistant text.
func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	reqBody := chatRequest{
		Model:       c.config.Model,
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", scouterrors.InternalError("failed to marshal completion request", err)
	}

	url := c.config.Endpoint + "/chat/completions"
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", scouterrors.InternalError("failed to create completion request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if reqCtx.Err() != nil {
			return "", scouterrors.New(scouterrors.ErrCodeNetworkTimeout,
				"language model request timed out", err)
		}
		return "", scouterrors.New(scouterrors.ErrCodeModelUnavailable,
			"language model endpoint unreachable", err).
			WithDetail("endpoint", c.config.Endpoint)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", c.statusError(resp.StatusCode, raw)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", scouterrors.New(scouterrors.ErrCodeModelUnavailable,
			"failed to decode completion response", err)
	}
	if parsed.Error != nil {
		return "", scouterrors.New(scouterrors.ErrCodeModelUnavailable,
			fmt.Sprintf("language model error: %s", parsed.Error.Message), nil)
	}
	if len(parsed.Choices) == 0 {
		return "", scouterrors.New(scouterrors.ErrCodeModelUnavailable,
			"completion response contained no choices", nil)
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", scouterrors.New(scouterrors.ErrCodeModelUnavailable,
			"completion response was empty", nil)
	}

	return content, nil
}

// statusError maps an HTTP status to a coded error.
func (c *OpenAIClient) statusError(status int, body []byte) error {
	msg := fmt.Sprintf("language model returned status %d", status)
	if len(body) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, strings.TrimSpace(string(body)))
	}

	switch {
	case status == http.StatusTooManyRequests:
		return scouterrors.New(scouterrors.ErrCodeModelUnavailable, msg, nil).
			WithSuggestion("rate limited; retry after a short delay")
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return scouterrors.New(scouterrors.ErrCodeConfigInvalid, msg, nil).
			WithSuggestion("check SCOUT_LLM_API_KEY or OPENAI_API_KEY")
	case status >= 500:
		return scouterrors.New(scouterrors.ErrCodeModelUnavailable, msg, nil)
	default:
		return scouterrors.New(scouterrors.ErrCodeInternal, msg, nil)
	}
}

// ModelName returns the configured model identifier.
func (c *OpenAIClient) ModelName() string {
	return c.config.Model
}

// Available reports whether the endpoint answers the models listing.
func (c *OpenAIClient) Available(ctx context.Context) bool {
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, c.config.Endpoint+"/models", nil)
	if err != nil {
		return false
	}
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode == http.StatusOK
}

// Close releases idle connections.
func (c *OpenAIClient) Close() error {
	c.transport.CloseIdleConnections()
	return nil
}
