package websearch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		same bool
	}{
		{"identical", "https://example.com/page", "https://example.com/page", true},
		{"trailing slash", "https://example.com/page/", "https://example.com/page", true},
		{"case difference", "https://Example.com/Page", "https://example.com/page", true},
		{"scheme case", "HTTPS://example.com/page", "https://example.com/page", true},
		{"fragment stripped", "https://example.com/page#section", "https://example.com/page", true},
		{"different path", "https://example.com/a", "https://example.com/b", false},
		{"different query", "https://example.com/?q=1", "https://example.com/?q=2", false},
		{"different host", "https://example.com/", "https://example.org/", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.same {
				assert.Equal(t, NormalizeURL(tt.a), NormalizeURL(tt.b))
			} else {
				assert.NotEqual(t, NormalizeURL(tt.a), NormalizeURL(tt.b))
			}
		})
	}
}

func TestNormalizeURL_Whitespace(t *testing.T) {
	assert.Equal(t, NormalizeURL("https://example.com"), NormalizeURL("  https://example.com  "))
	assert.Equal(t, "", NormalizeURL("   "))
}

func TestDedupe(t *testing.T) {
	t.Run("first occurrence wins", func(t *testing.T) {
		hits := []Hit{
			{Title: "First", URL: "https://example.com/page", Provider: "duckduckgo"},
			{Title: "Second", URL: "https://EXAMPLE.com/page/", Provider: "brave"},
			{Title: "Other", URL: "https://example.com/other"},
		}

		out := Dedupe(hits)
		assert.Len(t, out, 2)
		assert.Equal(t, "First", out[0].Title)
		assert.Equal(t, "duckduckgo", out[0].Provider)
		assert.Equal(t, "Other", out[1].Title)
	})

	t.Run("preserves order", func(t *testing.T) {
		hits := []Hit{
			{URL: "https://a.com"},
			{URL: "https://b.com"},
			{URL: "https://c.com"},
			{URL: "https://b.com/"},
		}

		out := Dedupe(hits)
		assert.Equal(t, []string{"https://a.com", "https://b.com", "https://c.com"},
			[]string{out[0].URL, out[1].URL, out[2].URL})
	})

	t.Run("drops empty URLs", func(t *testing.T) {
		out := Dedupe([]Hit{{Title: "no url"}, {URL: "https://a.com"}})
		assert.Len(t, out, 1)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, Dedupe(nil))
	})
}
