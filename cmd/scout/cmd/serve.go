package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/inkfield/scout/internal/config"
	"github.com/inkfield/scout/internal/logging"
	"github.com/inkfield/scout/internal/mcp"
	"github.com/inkfield/scout/internal/research"
)

func newServeCmd() *cobra.Command {
	var transport string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP server for AI clients.

The server exposes two tools over the Model Context Protocol:
  research         Run a research question through the pipeline
  research_status  Report pipeline health and telemetry

With the stdio transport, stdout carries JSON-RPC exclusively; all logs
go to ~/.scout/logs/server.log.`,
		Example: `  # Start on stdio (the default, used by MCP clients)
  scout serve

  # Inspect logs while serving
  tail -f ~/.scout/logs/server.log`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), transport)
		},
	}

	cmd.Flags().StringVarP(&transport, "transport", "t", "", "Transport: stdio (default from config)")

	return cmd
}

// runServe wires the pipeline and serves MCP. With the stdio transport
// nothing may be written to stdout before the server starts; logging is
// redirected to a file first.
func runServe(ctx context.Context, transport string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if transport == "" {
		transport = cfg.Server.Transport
	}

	if transport == "stdio" {
		cleanup, err := logging.SetupMCPModeWithLevel(cfg.Server.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to setup MCP logging: %w", err)
		}
		defer cleanup()
	}

	orchestrator, metrics, client := buildPipeline(cfg, false)
	defer func() { _ = client.Close() }()

	server, err := mcp.NewServer(orchestrator, cfg)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	server.SetMetrics(metrics)

	watchConfig(ctx, orchestrator)

	slog.Info("Scout ready",
		slog.String("model", client.ModelName()),
		slog.String("transport", transport))

	if err := server.Serve(ctx, transport, ""); err != nil {
		if logPath, findErr := logging.FindLogFile(""); findErr == nil {
			return fmt.Errorf("%w (logs: %s)", err, logPath)
		}
		return err
	}
	return nil
}

// watchConfig reloads research tunables when the project config changes.
// Watcher setup failures are logged and ignored; hot reload is best effort.
func watchConfig(ctx context.Context, orchestrator *research.Orchestrator) {
	root, err := projectRoot()
	if err != nil {
		return
	}

	watcher, err := config.NewWatcher(root, func(cfg *config.Config) {
		orchestrator.SetTunables(cfg.Research.Parallelism, cfg.ResearchTimeout()/2)
		slog.Info("research tunables updated",
			slog.Int("parallelism", cfg.Research.Parallelism),
			slog.Duration("search_deadline", cfg.ResearchTimeout()/2))
	})
	if err != nil {
		slog.Warn("config watcher unavailable", slog.String("error", err.Error()))
		return
	}

	go func() {
		if err := watcher.Start(ctx); err != nil && ctx.Err() == nil {
			slog.Warn("config watcher stopped", slog.String("error", err.Error()))
		}
	}()
}
