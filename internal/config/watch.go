package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads configuration when the project config file changes.
// Editors often replace files with rename-and-create, so the watcher
// watches the containing directory rather than the file itself.
type Watcher struct {
	dir      string
	onChange func(*Config)
	debounce time.Duration

	fsw *fsnotify.Watcher
}

// NewWatcher creates a config watcher for the project directory.
// onChange is called with the freshly loaded config after each change.
// Invalid configs are logged and skipped, keeping the previous config active.
func NewWatcher(dir string, onChange func(*Config)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}

	return &Watcher{
		dir:      dir,
		onChange: onChange,
		debounce: 200 * time.Millisecond,
		fsw:      fsw,
	}, nil
}

// Start begins watching. It blocks until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch config directory %s: %w", w.dir, err)
	}
	defer func() { _ = w.fsw.Close() }()

	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.isConfigFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Debounce bursts of events from a single save.
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerCh = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-timerCh:
			timer = nil
			timerCh = nil
			w.reload()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("config watcher error", slog.String("error", err.Error()))
		}
	}
}

// isConfigFile reports whether the path is a project config file.
func (w *Watcher) isConfigFile(path string) bool {
	base := filepath.Base(path)
	return base == ".scout.yaml" || base == ".scout.yml"
}

// reload loads the config and notifies the callback on success.
func (w *Watcher) reload() {
	cfg, err := Load(w.dir)
	if err != nil {
		slog.Warn("config reload failed, keeping previous config",
			slog.String("error", err.Error()))
		return
	}

	slog.Info("config reloaded", slog.String("dir", w.dir))
	w.onChange(cfg)
}

// WatchUserConfig is a convenience wrapper that watches the user config
// directory instead of a project directory. Used by long-running servers
// launched outside a project.
func WatchUserConfig(ctx context.Context, onChange func(*Config)) error {
	dir := GetUserConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("watch config directory %s: %w", dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != "config.yaml" {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			cfg, err := Load(".")
			if err != nil {
				slog.Warn("config reload failed, keeping previous config",
					slog.String("error", err.Error()))
				continue
			}
			onChange(cfg)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("config watcher error", slog.String("error", err.Error()))
		}
	}
}
