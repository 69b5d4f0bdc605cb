package research

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	scouterrors "github.com/inkfield/scout/internal/errors"
	"github.com/inkfield/scout/internal/llm"
)

// Decomposer breaks a research question into focused sub-questions with a
// single language-model call.
type Decomposer struct {
	client llm.Client
}

// NewDecomposer creates a decomposer over the given client.
func NewDecomposer(client llm.Client) *Decomposer {
	return &Decomposer{client: client}
}

// TargetCount picks how many sub-questions to ask for based on the source
// budget: small budgets don't benefit from many angles.
func TargetCount(maxResults int) int {
	switch {
	case maxResults <= 10:
		return 3
	case maxResults <= 25:
		return 4
	default:
		return 5
	}
}

// Decompose returns 2 or more sub-questions for the question, or
// [question] when the model's answer yields fewer than 2 usable items.
// A failed model call returns a decomposition error; the caller decides
// whether to retry or degrade.
func (d *Decomposer) Decompose(ctx context.Context, question string, targetCount int) ([]string, error) {
	prompt := buildDecomposePrompt(question, targetCount)

	content, err := d.client.Complete(ctx, decomposeSystemPrompt, prompt)
	if err != nil {
		return nil, scouterrors.DecompositionError("language model call failed", err)
	}

	subs := parseSubQuestions(content)
	if len(subs) < 2 {
		slog.Debug("decomposition yielded too few sub-questions, using original question",
			slog.Int("parsed", len(subs)))
		return []string{question}, nil
	}
	if len(subs) > targetCount {
		subs = subs[:targetCount]
	}

	return subs, nil
}

var (
	numberedItemPattern = regexp.MustCompile(`^\s*\d+[.)]\s*(.+)$`)
	bulletItemPattern   = regexp.MustCompile(`^\s*[-*•]\s*(.+)$`)
)

// parseSubQuestions extracts list items from a model answer. Numbered
// lines are preferred; bullets and bare lines are tolerated. Markdown
// fences, empty items, and case-insensitive duplicates are discarded.
func parseSubQuestions(content string) []string {
	var items []string
	seen := make(map[string]bool)

	add := func(s string) {
		s = strings.TrimSpace(strings.Trim(strings.TrimSpace(s), `"`))
		if s == "" {
			return
		}
		key := strings.ToLower(s)
		if seen[key] {
			return
		}
		seen[key] = true
		items = append(items, s)
	}

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "```") {
			continue
		}

		if m := numberedItemPattern.FindStringSubmatch(line); m != nil {
			add(m[1])
			continue
		}
		if m := bulletItemPattern.FindStringSubmatch(line); m != nil {
			add(m[1])
		}
	}

	// No list markers at all: take bare question lines, so an answer like
	// three plain questions still parses. Preamble prose is skipped by the
	// question-mark requirement.
	if len(items) == 0 {
		for _, line := range lines {
			line = strings.TrimSpace(line)
			if strings.HasSuffix(line, "?") {
				add(line)
			}
		}
	}

	return items
}
