package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scouterrors "github.com/inkfield/scout/internal/errors"
)

func newTestClient(endpoint string) *OpenAIClient {
	return NewOpenAIClient(Config{
		Endpoint:    endpoint,
		APIKey:      "test-key",
		Model:       "gpt-4o-mini",
		Timeout:     5 * time.Second,
		MaxTokens:   256,
		Temperature: 0.3,
	})
}

func completionResponse(content string) string {
	resp := map[string]any{
		"choices": []map[string]any{
			{
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func TestComplete_Success(t *testing.T) {
	var gotPath, gotAuth string
	var gotReq chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionResponse("  1. What is quantum computing?  ")))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	defer func() { _ = client.Close() }()

	content, err := client.Complete(context.Background(), "you decompose questions", "quantum computing")
	require.NoError(t, err)

	assert.Equal(t, "1. What is quantum computing?", content, "content should be trimmed")
	assert.Equal(t, "/chat/completions", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "gpt-4o-mini", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
}

func TestComplete_TrailingSlashEndpoint(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(completionResponse("ok")))
	}))
	defer server.Close()

	client := newTestClient(server.URL + "/")
	defer func() { _ = client.Close() }()

	_, err := client.Complete(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Equal(t, "/chat/completions", gotPath)
}

func TestComplete_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantCode string
	}{
		{"rate limited", http.StatusTooManyRequests, scouterrors.ErrCodeModelUnavailable},
		{"unauthorized", http.StatusUnauthorized, scouterrors.ErrCodeConfigInvalid},
		{"server error", http.StatusInternalServerError, scouterrors.ErrCodeModelUnavailable},
		{"bad request", http.StatusBadRequest, scouterrors.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error": {"message": "nope"}}`))
			}))
			defer server.Close()

			client := newTestClient(server.URL)
			defer func() { _ = client.Close() }()

			_, err := client.Complete(context.Background(), "s", "u")
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, scouterrors.GetCode(err))
		})
	}
}

func TestComplete_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	defer func() { _ = client.Close() }()

	_, err := client.Complete(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Equal(t, scouterrors.ErrCodeModelUnavailable, scouterrors.GetCode(err))
}

func TestComplete_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(completionResponse("   ")))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	defer func() { _ = client.Close() }()

	_, err := client.Complete(context.Background(), "s", "u")
	require.Error(t, err)
}

func TestComplete_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		_, _ = w.Write([]byte(completionResponse("late")))
	}))
	defer server.Close()

	client := NewOpenAIClient(Config{
		Endpoint: server.URL,
		Model:    "gpt-4o-mini",
		Timeout:  50 * time.Millisecond,
	})
	defer func() { _ = client.Close() }()

	_, err := client.Complete(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Equal(t, scouterrors.ErrCodeNetworkTimeout, scouterrors.GetCode(err))
	assert.True(t, scouterrors.IsRetryable(err))
}

func TestComplete_EndpointUnreachable(t *testing.T) {
	client := NewOpenAIClient(Config{
		Endpoint: "http://127.0.0.1:1",
		Model:    "gpt-4o-mini",
		Timeout:  2 * time.Second,
	})
	defer func() { _ = client.Close() }()

	_, err := client.Complete(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Equal(t, scouterrors.ErrCodeModelUnavailable, scouterrors.GetCode(err))
}

func TestAvailable(t *testing.T) {
	t.Run("reachable endpoint", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/models", r.URL.Path)
			_, _ = w.Write([]byte(`{"data": []}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		defer func() { _ = client.Close() }()
		assert.True(t, client.Available(context.Background()))
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		client := NewOpenAIClient(Config{
			Endpoint: "http://127.0.0.1:1",
			Model:    "gpt-4o-mini",
		})
		defer func() { _ = client.Close() }()
		assert.False(t, client.Available(context.Background()))
	})
}

func TestModelName(t *testing.T) {
	client := newTestClient("http://localhost")
	assert.Equal(t, "gpt-4o-mini", client.ModelName())
}
