package research

import (
	"context"
	"log/slog"

	scouterrors "github.com/inkfield/scout/internal/errors"
	"github.com/inkfield/scout/internal/llm"
)

// Summarizer synthesizes a citation-grounded summary from collected
// sources with a single language-model call.
type Summarizer struct {
	client llm.Client
}

// NewSummarizer creates a summarizer over the given client.
func NewSummarizer(client llm.Client) *Summarizer {
	return &Summarizer{client: client}
}

// Summarize returns a summary of the sources answering the question.
// With no sources it produces a best-effort summary that acknowledges the
// missing evidence. Markers citing nonexistent sources are stripped, so
// every [Source k] in the returned text satisfies 1 <= k <= len(sources).
func (s *Summarizer) Summarize(ctx context.Context, question string, subQuestions []string, sources []Source) (string, error) {
	var prompt string
	if len(sources) == 0 {
		prompt = buildNoSourcesPrompt(question, subQuestions)
	} else {
		prompt = buildSummarizePrompt(question, subQuestions, sources)
	}

	content, err := s.client.Complete(ctx, summarizeSystemPrompt, prompt)
	if err != nil {
		return "", scouterrors.SummarizationError("language model call failed", err)
	}

	if !ValidMarkers(content, len(sources)) {
		slog.Warn("summary cited nonexistent sources, stripping markers",
			slog.Int("sources", len(sources)))
		content = StripInvalidMarkers(content, len(sources))
	}

	return content, nil
}
