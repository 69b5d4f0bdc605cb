package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inkfield/scout/internal/research"
	"github.com/inkfield/scout/internal/ui"
)

func newResearchCmd() *cobra.Command {
	var (
		maxResults int
		format     string
		offline    bool
	)

	cmd := &cobra.Command{
		Use:   "research \"question\"",
		Short: "Research a question from the terminal",
		Long: `Research a question and print a citation-grounded summary.

The question is decomposed into sub-questions, each sub-question is
searched across the configured providers, and the collected sources are
synthesized into a summary citing [Source k] markers.`,
		Example: `  # Research with defaults
  scout research "What are the tradeoffs of RAG vs fine-tuning?"

  # Collect more sources and print JSON
  scout research "zig comptime" --max-results 20 --format json

  # No network searches (deterministic placeholder sources)
  scout research "test question" --offline`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResearch(cmd, strings.Join(args, " "), maxResults, format, offline)
		},
	}

	cmd.Flags().IntVarP(&maxResults, "max-results", "n", 0, "Maximum number of sources (1-50, default from config)")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip network search providers")

	return cmd
}

func runResearch(cmd *cobra.Command, question string, maxResults int, format string, offline bool) error {
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format: %s (supported: text, json)", format)
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if maxResults == 0 {
		maxResults = cfg.Research.MaxResults
	}

	orchestrator, _, client := buildPipeline(cfg, offline)
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.ResearchTimeout())
	defer cancel()

	result, err := orchestrator.Run(ctx, research.Request{
		Question:   question,
		MaxResults: maxResults,
	})
	if err != nil {
		renderer := ui.NewRenderer(cmd.ErrOrStderr())
		renderer.Error(err.Error())
		return err
	}

	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	ui.NewRenderer(cmd.OutOrStdout()).Result(result)
	return nil
}
