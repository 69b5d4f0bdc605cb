package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateConfig points the user config at a fresh temp directory so tests
// never touch the real ~/.config/scout.
func isolateConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	return filepath.Join(dir, "scout", "config.yaml")
}

func TestConfigPathCmd(t *testing.T) {
	configPath := isolateConfig(t)

	out, err := execute(t, "config", "path")
	require.NoError(t, err)
	assert.Contains(t, out, configPath)
}

func TestConfigInitCmd_CreatesFile(t *testing.T) {
	configPath := isolateConfig(t)

	out, err := execute(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Created user configuration")

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "llm:")
	assert.Contains(t, string(data), "providers:")
}

func TestConfigInitCmd_ExistingWithoutForce(t *testing.T) {
	configPath := isolateConfig(t)

	require.NoError(t, os.MkdirAll(filepath.Dir(configPath), 0755))
	require.NoError(t, os.WriteFile(configPath, []byte("llm:\n  model: custom\n"), 0644))

	out, err := execute(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")

	// Existing config untouched
	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "model: custom")
}

func TestConfigInitCmd_ForceKeepsBackup(t *testing.T) {
	configPath := isolateConfig(t)

	require.NoError(t, os.MkdirAll(filepath.Dir(configPath), 0755))
	require.NoError(t, os.WriteFile(configPath, []byte("llm:\n  model: custom\n"), 0644))

	out, err := execute(t, "config", "init", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Backup:")
	assert.Contains(t, out, "Created user configuration")

	// Config replaced with the template
	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "model: custom")

	// Backup preserved next to the config
	entries, err := os.ReadDir(filepath.Dir(configPath))
	require.NoError(t, err)
	backups := 0
	for _, e := range entries {
		if e.Name() != "config.yaml" {
			backups++
		}
	}
	assert.Equal(t, 1, backups)
}

func TestConfigShowCmd_RedactsAPIKeys(t *testing.T) {
	configPath := isolateConfig(t)
	t.Chdir(t.TempDir())

	require.NoError(t, os.MkdirAll(filepath.Dir(configPath), 0755))
	require.NoError(t, os.WriteFile(configPath, []byte("llm:\n  api_key: sk-secret-value\n"), 0644))

	out, err := execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "llm:")
	assert.Contains(t, out, "[redacted]")
	assert.NotContains(t, out, "sk-secret-value")
}

func TestConfigShowCmd_JSON(t *testing.T) {
	isolateConfig(t)
	t.Chdir(t.TempDir())

	out, err := execute(t, "config", "show", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"llm"`)
	assert.Contains(t, out, `"providers"`)
	assert.NotContains(t, out, "api_key")
}
