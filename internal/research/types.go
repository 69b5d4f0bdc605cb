// Package research implements the research pipeline: a free-text question
// is decomposed into sub-questions, searches fan out across web providers,
// and the merged sources feed a citation-grounded summary.
package research

import (
	"strconv"
	"strings"
	"time"

	scouterrors "github.com/inkfield/scout/internal/errors"
)

const (
	// DefaultMaxResults is used when a request does not set MaxResults.
	DefaultMaxResults = 10

	// MaxResultsCeiling is the largest permitted source cap.
	MaxResultsCeiling = 50

	// minSubQuestionShare is the per-sub-question search floor. Even with
	// many sub-questions each gets at least this many hits requested, so
	// no sub-question is starved.
	minSubQuestionShare = 2
)

// Request is a single research request.
type Request struct {
	// Question is the free-text research question.
	Question string `json:"question"`

	// MaxResults caps the number of distinct sources in the result.
	// Zero means DefaultMaxResults.
	MaxResults int `json:"max_results,omitempty"`
}

// Normalize fills defaults without validating.
func (r *Request) Normalize() {
	r.Question = strings.TrimSpace(r.Question)
	if r.MaxResults == 0 {
		r.MaxResults = DefaultMaxResults
	}
}

// Validate checks the request. It must pass before any external call.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Question) == "" {
		return scouterrors.New(scouterrors.ErrCodeQuestionEmpty,
			"question must not be empty", nil)
	}
	if r.MaxResults < 1 || r.MaxResults > MaxResultsCeiling {
		return scouterrors.New(scouterrors.ErrCodeMaxResultsRange,
			"max_results must be between 1 and 50", nil).
			WithDetail("max_results", strconv.Itoa(r.MaxResults))
	}
	return nil
}

// Source is one cited web source. Index is 1-based and contiguous; the
// summary's [Source k] markers reference it.
type Source struct {
	Index   int    `json:"index"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// Result is the outcome of a research request.
type Result struct {
	// ID uniquely identifies the research run.
	ID string `json:"research_id"`

	// Question is the original question as submitted.
	Question string `json:"question"`

	// SubQuestions are the decomposed sub-questions in decomposition
	// order. When decomposition degraded this is just the question.
	SubQuestions []string `json:"sub_questions"`

	// Summary is the citation-grounded synthesis. Every [Source k]
	// marker satisfies 1 <= k <= len(Sources).
	Summary string `json:"summary"`

	// Sources are the deduplicated sources in index order.
	Sources []Source `json:"sources"`

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration `json:"elapsed_ms"`
}

// subQuestionShare returns how many hits to request per sub-question:
// ceil(maxResults/n) with a floor of minSubQuestionShare.
func subQuestionShare(maxResults, n int) int {
	if n <= 0 {
		return maxResults
	}
	share := (maxResults + n - 1) / n
	if share < minSubQuestionShare {
		share = minSubQuestionShare
	}
	return share
}
