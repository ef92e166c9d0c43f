package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-drawbench/common"
	"github.com/fsnotify/fsnotify"
)

// Watch reloads the file at path whenever it is written or replaced and calls onChange with the
// live settings when they differ from the previous load. Reload failures are logged and the last
// good settings stay in effect. Watch blocks until ctx is done.
//
// The parent directory is watched rather than the file, so editors that save by rename are seen.
//
// Parameters:
//   - ctx: stops the watcher
//   - path: the configuration file
//   - initial: the live settings currently applied
//   - onChange: receives each changed set of live settings
//
// Returns:
//   - error: an error if the watcher could not be started; nil once ctx is done
func Watch(ctx context.Context, path string, initial Live, onChange func(Live)) error {
	logger := common.Logger().WithPrefix("config")

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	last := initial
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(e.Name) != abs || e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(abs)
			if err != nil {
				logger.Warn("config reload failed", "err", err)
				continue
			}
			if live := cfg.Live(); live != last {
				logger.Info("config reloaded", "mode", live.Mode, "model_in_view", live.ModelInView)
				last = live
				onChange(live)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("config watcher", "err", err)
		}
	}
}
