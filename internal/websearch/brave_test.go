package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scouterrors "github.com/inkfield/scout/internal/errors"
)

const braveJSONFixture = `{
  "web": {
    "results": [
      {"title": "Go (programming language)", "url": "https://go.dev/", "description": "Build simple, secure, scalable systems with Go."},
      {"title": "Go - Wikipedia", "url": "https://en.wikipedia.org/wiki/Go_(programming_language)", "description": "Go is a statically typed, compiled language."},
      {"title": "A Tour of Go", "url": "https://go.dev/tour/", "description": "An interactive introduction to Go."}
    ]
  }
}`

func TestBrave_Search(t *testing.T) {
	var gotToken, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Subscription-Token")
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("X-RateLimit-Remaining", "1, 1000")
		_, _ = w.Write([]byte(braveJSONFixture))
	}))
	defer server.Close()

	b := NewBrave("test-token", WithBraveEndpoint(server.URL))

	hits, err := b.Search(context.Background(), "golang", 10)
	require.NoError(t, err)

	assert.Equal(t, "test-token", gotToken)
	assert.Equal(t, "golang", gotQuery)
	require.Len(t, hits, 3)
	assert.Equal(t, "Go (programming language)", hits[0].Title)
	assert.Equal(t, "https://go.dev/", hits[0].URL)
	assert.Equal(t, "brave", hits[0].Provider)
}

func TestBrave_LimitRespected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "1, 1000")
		_, _ = w.Write([]byte(braveJSONFixture))
	}))
	defer server.Close()

	b := NewBrave("limit-token", WithBraveEndpoint(server.URL))

	hits, err := b.Search(context.Background(), "golang", 1)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestBrave_MissingAPIKey(t *testing.T) {
	b := NewBrave("")
	_, err := b.Search(context.Background(), "golang", 5)
	require.Error(t, err)

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "brave", pe.Provider)
	assert.Equal(t, scouterrors.CategoryConfig, scouterrors.GetCategory(pe.Err))
}

func TestBrave_RetriesOn429(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("X-RateLimit-Reset", "1, 419704")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("X-RateLimit-Remaining", "1, 1000")
		_, _ = w.Write([]byte(braveJSONFixture))
	}))
	defer server.Close()

	b := NewBrave("retry-token", WithBraveEndpoint(server.URL))

	hits, err := b.Search(context.Background(), "golang", 5)
	require.NoError(t, err)
	assert.Len(t, hits, 3)
	assert.Equal(t, int32(2), calls.Load())
}

func TestBrave_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	b := NewBrave("bad-token", WithBraveEndpoint(server.URL))

	_, err := b.Search(context.Background(), "golang", 5)
	require.Error(t, err)

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, scouterrors.ErrCodeProviderBlocked, scouterrors.GetCode(pe.Err))
}

func TestBraveRetryDelay(t *testing.T) {
	h := http.Header{}
	h.Set("X-RateLimit-Reset", "3, 1419704")
	assert.Equal(t, "3s", braveRetryDelay(h).String())

	h = http.Header{}
	assert.Equal(t, "1s", braveRetryDelay(h).String())

	h.Set("X-RateLimit-Reset", "garbage")
	assert.Equal(t, "1s", braveRetryDelay(h).String())
}

func TestBraveNextDelay(t *testing.T) {
	h := http.Header{}
	h.Set("X-RateLimit-Remaining", "0, 14832")
	assert.Equal(t, "1s", braveNextDelay(h).String())

	h.Set("X-RateLimit-Remaining", "5, 14832")
	assert.Equal(t, "0s", braveNextDelay(h).String())

	h = http.Header{}
	assert.Equal(t, "1s", braveNextDelay(h).String())
}
