package websearch

import (
	"net/url"
	"strings"
)

// NormalizeURL returns a canonical form of a URL used as the deduplication
// key. The comparison is case-insensitive and a single trailing slash is
// dropped, so "https://Example.com/Page/" and "https://example.com/page"
// collide. The original URL is never modified in output; normalization is
// for comparison only.
func NormalizeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	if u, err := url.Parse(trimmed); err == nil && u.Host != "" {
		u.Fragment = ""
		trimmed = u.String()
	}

	return strings.TrimSuffix(strings.ToLower(trimmed), "/")
}

// Dedupe removes hits whose normalized URL was already seen, keeping the
// first occurrence. Input order is preserved.
func Dedupe(hits []Hit) []Hit {
	seen := make(map[string]bool, len(hits))
	out := hits[:0:0]

	for _, h := range hits {
		key := NormalizeURL(h.URL)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, h)
	}

	return out
}
