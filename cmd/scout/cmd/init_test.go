package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitCmd_CreatesProjectFiles(t *testing.T) {
	isolateConfig(t)
	dir := t.TempDir()
	t.Chdir(dir)

	out, err := execute(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Scout initialized")

	data, err := os.ReadFile(filepath.Join(dir, ".scout.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "research:")

	mcpData, err := os.ReadFile(filepath.Join(dir, ".mcp.json"))
	require.NoError(t, err)

	var cfg mcpConfig
	require.NoError(t, json.Unmarshal(mcpData, &cfg))
	require.Contains(t, cfg.MCPServers, "scout")
	assert.Equal(t, "scout", cfg.MCPServers["scout"].Command)
	assert.Equal(t, []string{"serve"}, cfg.MCPServers["scout"].Args)
	assert.Equal(t, "stdio", cfg.MCPServers["scout"].Type)
}

func TestInitCmd_PreservesOtherMCPServers(t *testing.T) {
	isolateConfig(t)
	dir := t.TempDir()
	t.Chdir(dir)

	existing := `{
  "mcpServers": {
    "filesystem": {
      "command": "mcp-filesystem",
      "args": ["--root", "/data"]
    }
  }
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".mcp.json"), []byte(existing), 0644))

	_, err := execute(t, "init")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, ".mcp.json"))
	require.NoError(t, err)

	var cfg mcpConfig
	require.NoError(t, json.Unmarshal(data, &cfg))
	assert.Contains(t, cfg.MCPServers, "filesystem")
	assert.Contains(t, cfg.MCPServers, "scout")
	assert.Equal(t, "mcp-filesystem", cfg.MCPServers["filesystem"].Command)
}

func TestInitCmd_ExistingProjectConfigWithoutForce(t *testing.T) {
	isolateConfig(t)
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".scout.yaml"), []byte("research:\n  max_results: 5\n"), 0644))

	out, err := execute(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Keeping existing")

	data, err := os.ReadFile(filepath.Join(dir, ".scout.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "max_results: 5")
}

func TestInitCmd_ForceOverwrites(t *testing.T) {
	isolateConfig(t)
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".scout.yaml"), []byte("research:\n  max_results: 5\n"), 0644))

	out, err := execute(t, "init", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Created")

	data, err := os.ReadFile(filepath.Join(dir, ".scout.yaml"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "max_results: 5")
}
