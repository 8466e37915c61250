package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-avatar/internal/assets"
)

// DefaultDebounce is how long a part file must stay quiet before a change
// triggers a new export.
const DefaultDebounce = 300 * time.Millisecond

// ErrNothingToWatch is returned by Watch when every part is remote.
var ErrNothingToWatch = errors.New("no local parts to watch")

// Watch exports once and then again whenever a local part file changes,
// until ctx ends. onReport receives every outcome, including failures.
// Directories are watched rather than files so editors that save by rename
// are still seen.
func (s *State) Watch(ctx context.Context, debounce time.Duration, onReport func(*Report, error)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	sources := make(map[string]string)
	dirs := make(map[string]struct{})
	for _, part := range s.config.Parts {
		if assets.IsRemote(part) {
			s.log.Info("not watching remote part", zap.String("source", part))
			continue
		}
		abs, err := filepath.Abs(part)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", part, err)
		}
		sources[abs] = part
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	if len(sources) == 0 {
		return ErrNothingToWatch
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		s.log.Debug("watching directory", zap.String("dir", dir))
	}

	onReport(s.Run(ctx))

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(debounce / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if _, ok := sources[filepath.Clean(event.Name)]; !ok {
				continue
			}
			s.log.Debug("part changed", zap.String("path", event.Name), zap.Stringer("op", event.Op))
			pending[filepath.Clean(event.Name)] = time.Now()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("watcher error", zap.Error(err))

		case now := <-ticker.C:
			changed := false
			for path, at := range pending {
				if now.Sub(at) < debounce {
					continue
				}
				delete(pending, path)
				s.assets.Invalidate(sources[path])
				changed = true
			}
			if changed {
				onReport(s.Run(ctx))
			}
		}
	}
}
