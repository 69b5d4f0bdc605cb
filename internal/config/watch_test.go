package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsOnChange(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")

	dir := t.TempDir()
	configPath := filepath.Join(dir, ".scout.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("research:\n  max_results: 10\n"), 0o644))

	reloaded := make(chan *Config, 1)
	w, err := NewWatcher(dir, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(configPath, []byte("research:\n  max_results: 33\n"), 0o644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, 33, cfg.Research.MaxResults)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_InvalidConfigKeepsPrevious(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")

	dir := t.TempDir()
	configPath := filepath.Join(dir, ".scout.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("research:\n  max_results: 10\n"), 0o644))

	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(dir, func(cfg *Config) { reloaded <- cfg })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()

	time.Sleep(100 * time.Millisecond)

	// max_results out of range fails validation; the callback must not fire.
	require.NoError(t, os.WriteFile(configPath, []byte("research:\n  max_results: 99\n"), 0o644))

	select {
	case <-reloaded:
		t.Fatal("callback fired for invalid config")
	case <-time.After(600 * time.Millisecond):
	}
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")

	dir := t.TempDir()

	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(dir, func(cfg *Config) { reloaded <- cfg })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()

	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644))

	select {
	case <-reloaded:
		t.Fatal("callback fired for unrelated file")
	case <-time.After(600 * time.Millisecond):
	}
}
