package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/inkfield/scout/configs"
	"github.com/inkfield/scout/internal/config"
	"github.com/inkfield/scout/internal/output"
)

// mcpServerConfig represents one server entry in .mcp.json.
type mcpServerConfig struct {
	Type    string            `json:"type,omitempty"`
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// mcpConfig represents the root .mcp.json structure.
type mcpConfig struct {
	MCPServers map[string]mcpServerConfig `json:"mcpServers"`
}

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize Scout for a project",
		Long: `Initialize Scout for the current project.

This command:
1. Generates a .scout.yaml configuration template
2. Registers Scout in .mcp.json so MCP clients discover it`,
		Example: `  # Initialize in the current directory
  scout init

  # Overwrite existing files
  scout init --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration files")

	return cmd
}

func runInit(cmd *cobra.Command, force bool) error {
	out := output.New(cmd.OutOrStdout())

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	root, err := config.FindProjectRoot(cwd)
	if err != nil {
		root = cwd
	}

	if err := writeProjectConfig(out, root, force); err != nil {
		return err
	}
	if err := registerMCPServer(out, root, force); err != nil {
		return err
	}

	out.Newline()
	out.Success("Scout initialized")
	out.Status("💡", "Run 'scout research \"your question\"' to try it out")

	return nil
}

// writeProjectConfig creates .scout.yaml from the embedded template.
func writeProjectConfig(out *output.Writer, root string, force bool) error {
	path := filepath.Join(root, ".scout.yaml")

	if _, err := os.Stat(path); err == nil && !force {
		out.Statusf("📁", "Keeping existing %s", path)
		return nil
	}

	if err := os.WriteFile(path, []byte(configs.ProjectConfigTemplate), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	out.Successf("Created %s", path)
	return nil
}

// registerMCPServer adds a scout entry to .mcp.json, preserving any other
// servers already registered there.
func registerMCPServer(out *output.Writer, root string, force bool) error {
	path := filepath.Join(root, ".mcp.json")

	cfg := mcpConfig{MCPServers: map[string]mcpServerConfig{}}
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("failed to parse existing %s: %w", path, err)
		}
		if cfg.MCPServers == nil {
			cfg.MCPServers = map[string]mcpServerConfig{}
		}
		if _, exists := cfg.MCPServers["scout"]; exists && !force {
			out.Statusf("📁", "Scout already registered in %s", path)
			return nil
		}
	}

	cfg.MCPServers["scout"] = mcpServerConfig{
		Type:    "stdio",
		Command: "scout",
		Args:    []string{"serve"},
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	out.Successf("Registered Scout in %s", path)
	return nil
}
