package research

import (
	"regexp"
	"strconv"
	"strings"
)

// sourceMarkerPattern matches [Source k] citation markers.
var sourceMarkerPattern = regexp.MustCompile(`\[Source\s+(\d+)\]`)

// ExtractMarkers returns the source numbers cited in a summary, in order
// of appearance, duplicates included.
func ExtractMarkers(summary string) []int {
	matches := sourceMarkerPattern.FindAllStringSubmatch(summary, -1)
	if len(matches) == 0 {
		return nil
	}

	out := make([]int, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

// StripInvalidMarkers removes [Source k] markers with k outside
// [1, sourceCount]. Models occasionally hallucinate citations; dropping
// the marker keeps the text while preserving the citation invariant.
func StripInvalidMarkers(summary string, sourceCount int) string {
	cleaned := sourceMarkerPattern.ReplaceAllStringFunc(summary, func(marker string) string {
		m := sourceMarkerPattern.FindStringSubmatch(marker)
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > sourceCount {
			return ""
		}
		return marker
	})

	// Collapse doubled spaces left behind by removed markers.
	cleaned = strings.ReplaceAll(cleaned, "  ", " ")
	return cleaned
}

// ValidMarkers reports whether every cited source number is within
// [1, sourceCount].
func ValidMarkers(summary string, sourceCount int) bool {
	for _, n := range ExtractMarkers(summary) {
		if n < 1 || n > sourceCount {
			return false
		}
	}
	return true
}
