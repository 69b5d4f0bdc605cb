package mcp

// ResearchInput defines the input schema for the research tool.
type ResearchInput struct {
	Question   string `json:"question" jsonschema:"the research question to investigate"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"maximum number of sources to collect, 1-50, default 10"`
}

// ResearchOutput defines the output schema for the research tool.
type ResearchOutput struct {
	ResearchID   string         `json:"research_id" jsonschema:"unique identifier for this research run"`
	Question     string         `json:"question" jsonschema:"the question that was researched"`
	SubQuestions []string       `json:"sub_questions" jsonschema:"sub-questions the question was decomposed into"`
	Summary      string         `json:"summary" jsonschema:"citation-grounded summary of the findings"`
	Sources      []SourceOutput `json:"sources" jsonschema:"sources backing the summary, cited as [Source k]"`
	ElapsedMS    int64          `json:"elapsed_ms" jsonschema:"end-to-end duration in milliseconds"`
}

// SourceOutput defines a single cited source.
type SourceOutput struct {
	Index   int    `json:"index" jsonschema:"1-based source number matching [Source k] citations"`
	Title   string `json:"title" jsonschema:"page title"`
	URL     string `json:"url" jsonschema:"normalized source URL"`
	Snippet string `json:"snippet,omitempty" jsonschema:"short excerpt from the page"`
}

// ResearchStatusInput defines the (empty) input schema for research_status.
type ResearchStatusInput struct{}

// clampLimit clamps a requested limit to [min, max], substituting def when
// the value is unset.
func clampLimit(value, def, min, max int) int {
	if value == 0 {
		return def
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
