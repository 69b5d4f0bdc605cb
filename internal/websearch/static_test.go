package websearch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic_Search(t *testing.T) {
	s := NewStatic()

	t.Run("known topic", func(t *testing.T) {
		hits, err := s.Search(context.Background(), "effects of climate change", 3)
		require.NoError(t, err)
		require.Len(t, hits, 3)
		assert.Contains(t, hits[0].Title, "Climate")
		assert.Equal(t, "static", hits[0].Provider)
	})

	t.Run("generic query pads to limit", func(t *testing.T) {
		hits, err := s.Search(context.Background(), "obscure subject nobody indexed", 4)
		require.NoError(t, err)
		require.Len(t, hits, 4)
		for _, h := range hits {
			assert.NotEmpty(t, h.Title)
			assert.NotEmpty(t, h.URL)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		a, err := s.Search(context.Background(), "some question", 3)
		require.NoError(t, err)
		b, err := s.Search(context.Background(), "some question", 3)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("unique URLs within a result set", func(t *testing.T) {
		hits, err := s.Search(context.Background(), "anything at all", 5)
		require.NoError(t, err)
		assert.Len(t, Dedupe(hits), 5)
	})

	t.Run("empty query", func(t *testing.T) {
		hits, err := s.Search(context.Background(), "  ", 5)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := s.Search(ctx, "query", 5)
		assert.Error(t, err)
	})
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "what-is-quantum-computing", slugify("What is Quantum Computing?"))
	assert.Equal(t, "query", slugify("!!!"))
}
