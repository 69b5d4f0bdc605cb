package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/inkfield/scout/internal/config"
	"github.com/inkfield/scout/internal/research"
	"github.com/inkfield/scout/internal/telemetry"
	"github.com/inkfield/scout/pkg/version"
)

// Researcher runs one research request end to end. The pipeline
// orchestrator satisfies this.
type Researcher interface {
	Run(ctx context.Context, req research.Request) (*research.Result, error)
}

// Server is the MCP server for Scout. It exposes the research pipeline to
// AI clients over the Model Context Protocol.
type Server struct {
	mcp        *mcp.Server
	researcher Researcher
	config     *config.Config
	logger     *slog.Logger

	// Pipeline telemetry (optional, set via SetMetrics)
	metrics *telemetry.Metrics

	mu sync.RWMutex
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// NewServer creates a new MCP server over a research pipeline.
func NewServer(researcher Researcher, cfg *config.Config) (*Server, error) {
	if researcher == nil {
		return nil, errors.New("researcher is required")
	}
	if cfg == nil {
		cfg = config.NewConfig()
	}

	s := &Server{
		researcher: researcher,
		config:     cfg,
		logger:     slog.Default(),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "Scout",
			Version: version.Version,
		},
		nil,
	)

	s.registerTools()

	return s, nil
}

// SetMetrics attaches the telemetry collector backing research_status.
func (s *Server) SetMetrics(m *telemetry.Metrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = m
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return "Scout", version.Version
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return []ToolInfo{
		{
			Name:        "research",
			Description: "Research a question on the web. Decomposes the question into focused sub-questions, searches multiple providers concurrently, and returns a citation-grounded summary with numbered sources.",
		},
		{
			Name:        "research_status",
			Description: "Report pipeline health: completed researches, latency distribution, degraded decompositions, zero-source runs, and failures by error code.",
		},
	}
}

// CallTool invokes a tool by name with the given arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "research":
		return s.handleResearchTool(ctx, args)
	case "research_status":
		return s.handleStatusTool(ctx)
	default:
		return nil, NewMethodNotFoundError(name)
	}
}

// handleResearchTool handles the research tool invocation.
// Returns markdown-formatted results.
func (s *Server) handleResearchTool(ctx context.Context, args map[string]any) (string, error) {
	start := time.Now()
	requestID := generateRequestID()

	question, ok := args["question"].(string)
	if !ok || strings.TrimSpace(question) == "" {
		return "", NewInvalidParamsError("question parameter is required and must be a non-empty string")
	}

	maxResults := clampLimit(0, s.defaultMaxResults(), 1, research.MaxResultsCeiling)
	if m, ok := args["max_results"].(float64); ok {
		maxResults = clampLimit(int(m), s.defaultMaxResults(), 1, research.MaxResultsCeiling)
	}

	s.logger.Info("research started",
		slog.String("request_id", requestID),
		slog.String("question", question),
		slog.Int("max_results", maxResults))

	result, err := s.researcher.Run(ctx, research.Request{
		Question:   question,
		MaxResults: maxResults,
	})
	duration := time.Since(start)

	if err != nil {
		s.logger.Error("research failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return "", MapError(err)
	}

	s.logger.Info("research completed",
		slog.String("request_id", requestID),
		slog.Duration("duration", duration),
		slog.Int("sources", len(result.Sources)))

	return FormatResearchResult(result), nil
}

// handleStatusTool handles the research_status tool invocation.
func (s *Server) handleStatusTool(_ context.Context) (*telemetry.Snapshot, error) {
	s.mu.RLock()
	metrics := s.metrics
	s.mu.RUnlock()

	if metrics == nil {
		// No collector attached; report an empty snapshot rather than erroring.
		return &telemetry.Snapshot{
			FailureCounts:       map[string]int64{},
			LatencyDistribution: map[telemetry.LatencyBucket]int64{},
		}, nil
	}

	return metrics.Snapshot(), nil
}

// defaultMaxResults reads the configured default source cap.
func (s *Server) defaultMaxResults() int {
	if s.config != nil && s.config.Research.MaxResults > 0 {
		return s.config.Research.MaxResults
	}
	return research.DefaultMaxResults
}

// registerTools registers all tools with the MCP server.
func (s *Server) registerTools() {
	s.logger.Debug("Registering MCP tools")

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "research",
		Description: "Research a question on the web. Decomposes the question into focused sub-questions, searches multiple providers concurrently, and returns a citation-grounded summary with numbered sources.",
	}, s.mcpResearchHandler)
	s.logger.Debug("Registered tool", slog.String("name", "research"))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "research_status",
		Description: "Report pipeline health: completed researches, latency distribution, degraded decompositions, zero-source runs, and failures by error code.",
	}, s.mcpStatusHandler)
	s.logger.Debug("Registered tool", slog.String("name", "research_status"))

	s.logger.Info("MCP tools registered", slog.Int("count", 2))
}

// mcpResearchHandler is the MCP SDK handler for the research tool.
func (s *Server) mcpResearchHandler(ctx context.Context, _ *mcp.CallToolRequest, input ResearchInput) (
	*mcp.CallToolResult,
	ResearchOutput,
	error,
) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, ResearchOutput{}, NewInvalidParamsError("question parameter is required")
	}

	maxResults := clampLimit(input.MaxResults, s.defaultMaxResults(), 1, research.MaxResultsCeiling)

	result, err := s.researcher.Run(ctx, research.Request{
		Question:   input.Question,
		MaxResults: maxResults,
	})
	if err != nil {
		return nil, ResearchOutput{}, MapError(err)
	}

	return nil, ToResearchOutput(result), nil
}

// mcpStatusHandler is the MCP SDK handler for the research_status tool.
func (s *Server) mcpStatusHandler(ctx context.Context, _ *mcp.CallToolRequest, _ ResearchStatusInput) (
	*mcp.CallToolResult,
	*telemetry.Snapshot,
	error,
) {
	snap, err := s.handleStatusTool(ctx)
	if err != nil {
		return nil, nil, MapError(err)
	}
	return nil, snap, nil
}

// Serve starts the server with the specified transport.
func (s *Server) Serve(ctx context.Context, transport, addr string) error {
	s.logger.Info("Starting MCP server",
		slog.String("transport", transport),
		slog.String("addr", addr))

	switch transport {
	case "stdio":
		s.logger.Debug("Using stdio transport for JSON-RPC")
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && err != context.Canceled {
			s.logger.Error("MCP server stopped with error",
				slog.String("error", err.Error()))
		} else {
			s.logger.Info("MCP server stopped gracefully")
		}
		return err
	case "sse":
		return fmt.Errorf("SSE transport not yet implemented")
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

// Close releases server resources.
func (s *Server) Close() error {
	// The MCP server stops when its context is canceled.
	return nil
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
