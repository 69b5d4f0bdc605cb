package research

import (
	"fmt"
	"strings"
)

// decomposeSystemPrompt frames the decomposition call.
const decomposeSystemPrompt = `You are a research planner. You break a research question into focused sub-questions that together cover the question comprehensively. You answer with a numbered list only, one sub-question per line, no preamble and no commentary.`

// buildDecomposePrompt asks for targetCount sub-questions as a numbered list.
func buildDecomposePrompt(question string, targetCount int) string {
	return fmt.Sprintf(`Break down this research question into %d specific sub-questions that would help provide a comprehensive answer.

Main question: %s

Return only a numbered list of sub-questions, one per line.`, targetCount, question)
}

// summarizeSystemPrompt frames the synthesis call.
const summarizeSystemPrompt = `You are a research analyst. You write well-structured, objective summaries grounded exclusively in the sources provided, and you cite sources using the [Source k] format. You never invent sources or cite numbers that were not provided.`

// buildSummarizePrompt embeds every source as a [Source k] block and asks
// for a cited synthesis organized around the sub-question themes.
func buildSummarizePrompt(question string, subQuestions []string, sources []Source) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, `Based on the search results below, provide a comprehensive summary that answers this research question: %s

Sub-questions explored:
`, question)
	for _, sq := range subQuestions {
		fmt.Fprintf(&sb, "- %s\n", sq)
	}

	sb.WriteString("\nSearch results:\n")
	for _, src := range sources {
		fmt.Fprintf(&sb, "\n[Source %d] %s\n%s\nURL: %s\n", src.Index, src.Title, src.Snippet, src.URL)
	}

	sb.WriteString(`
Please provide:
1. A well-structured summary that addresses the main question
2. Specific information from the sources, organized by the sub-question themes
3. Objective tone, citing sources using the [Source k] format
4. Key statistics, facts, and findings where available

Summary:`)

	return sb.String()
}

// buildNoSourcesPrompt is used when every provider came back empty. The
// model is told not to cite anything; the summary must acknowledge the
// missing evidence.
func buildNoSourcesPrompt(question string, subQuestions []string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, `No external search results could be retrieved for this research question: %s

Sub-questions explored:
`, question)
	for _, sq := range subQuestions {
		fmt.Fprintf(&sb, "- %s\n", sq)
	}

	sb.WriteString(`
Write a brief best-effort summary from general knowledge. State clearly that no external sources could be retrieved and that the answer is not grounded in cited evidence. Do not use [Source k] citations.

Summary:`)

	return sb.String()
}
