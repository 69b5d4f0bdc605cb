package mcp

import (
	"fmt"
	"strings"

	"github.com/inkfield/scout/internal/research"
	"github.com/inkfield/scout/internal/telemetry"
)

// FormatResearchResult renders a research result as markdown.
func FormatResearchResult(result *research.Result) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "## Research: %s\n\n", result.Question)

	if len(result.SubQuestions) > 0 {
		sb.WriteString("**Sub-questions explored:**\n")
		for _, sq := range result.SubQuestions {
			fmt.Fprintf(&sb, "- %s\n", sq)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("### Summary\n\n")
	sb.WriteString(result.Summary)
	sb.WriteString("\n\n")

	if len(result.Sources) == 0 {
		sb.WriteString("_No external sources could be retrieved._\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "### Sources (%d)\n\n", len(result.Sources))
	for _, src := range result.Sources {
		fmt.Fprintf(&sb, "%d. [%s](%s)\n", src.Index, src.Title, src.URL)
		if src.Snippet != "" {
			fmt.Fprintf(&sb, "   %s\n", src.Snippet)
		}
	}

	return sb.String()
}

// FormatStatus renders a telemetry snapshot as markdown.
func FormatStatus(snap *telemetry.Snapshot) string {
	var sb strings.Builder

	sb.WriteString("## Scout Status\n\n")
	fmt.Fprintf(&sb, "**Researches completed:** %d\n", snap.TotalResearches)
	fmt.Fprintf(&sb, "**Average sources per research:** %.1f\n", snap.AverageSources)
	fmt.Fprintf(&sb, "**Degraded decompositions:** %d\n", snap.DegradedCount)
	fmt.Fprintf(&sb, "**Zero-source researches:** %d (%.1f%%)\n",
		snap.ZeroSourceCount, snap.ZeroSourcePercentage())
	fmt.Fprintf(&sb, "**Repeated questions:** %d\n", snap.RepeatCount)

	if len(snap.LatencyDistribution) > 0 {
		sb.WriteString("\n**Latency distribution:**\n")
		for _, bucket := range []telemetry.LatencyBucket{
			telemetry.BucketUnder2s,
			telemetry.BucketUnder10s,
			telemetry.BucketUnder30s,
			telemetry.BucketUnder60s,
			telemetry.BucketOver60s,
		} {
			if count, ok := snap.LatencyDistribution[bucket]; ok {
				fmt.Fprintf(&sb, "- %s: %d\n", bucket, count)
			}
		}
	}

	if len(snap.FailureCounts) > 0 {
		sb.WriteString("\n**Failures by code:**\n")
		for code, count := range snap.FailureCounts {
			fmt.Fprintf(&sb, "- %s: %d\n", code, count)
		}
	}

	if len(snap.ProviderFallbacks) > 0 {
		sb.WriteString("\n**Provider fallbacks:**\n")
		for provider, count := range snap.ProviderFallbacks {
			fmt.Fprintf(&sb, "- %s: %d\n", provider, count)
		}
	}

	return sb.String()
}

// ToResearchOutput converts a pipeline result to the tool output schema.
func ToResearchOutput(result *research.Result) ResearchOutput {
	sources := make([]SourceOutput, len(result.Sources))
	for i, src := range result.Sources {
		sources[i] = SourceOutput{
			Index:   src.Index,
			Title:   src.Title,
			URL:     src.URL,
			Snippet: src.Snippet,
		}
	}

	return ResearchOutput{
		ResearchID:   result.ID,
		Question:     result.Question,
		SubQuestions: result.SubQuestions,
		Summary:      result.Summary,
		Sources:      sources,
		ElapsedMS:    result.Elapsed.Milliseconds(),
	}
}
