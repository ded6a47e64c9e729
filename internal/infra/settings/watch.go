package settings

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/fsnotify/fsnotify"
)

// EnvSettingsPath overrides the default settings file location.
const EnvSettingsPath = "APOD_SETTINGS_PATH"

// DefaultPath returns $APOD_SETTINGS_PATH, or $XDG_CONFIG_HOME/apod/apod.cfg.
func DefaultPath() string {
	if p := os.Getenv(EnvSettingsPath); p != "" {
		return p
	}
	return filepath.Join(xdg.ConfigHome, "apod", "apod.cfg")
}

// Watch reloads the file whenever another process writes it and notifies observers
// when the value changed. An invalid edit is logged and the last good value is kept.
// It blocks until ctx is done.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create settings watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// The directory is watched because Save replaces the file by rename.
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	target := filepath.Clean(s.path)

	s.logger.Info("watching settings file", slog.String("path", target))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			s.reload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("settings watcher error", slog.Any("error", err))
		}
	}
}

func (s *Store) reload() {
	loaded, err := s.read()
	if err != nil {
		s.logger.Warn("ignoring invalid settings file",
			slog.String("path", s.path),
			slog.Any("error", err))
		return
	}
	if loaded == s.Current() {
		return
	}
	s.set(loaded)
	s.logger.Info("settings reloaded",
		slog.Int("days", loaded.EntryCount),
		slog.Int("size", loaded.ThumbnailSize))
	s.notify(loaded)
}
