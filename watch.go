package bosscss

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WatchDebounce is how long Watch waits for more events before rebuilding.
const WatchDebounce = 100 * time.Millisecond

// BuildHandler receives the outcome of every build Watch runs. result is nil
// when the build could not run at all.
type BuildHandler func(result *BuildResult, err error)

// Watch runs a full build, then rebuilds changed content files until ctx is
// done. Events are batched for WatchDebounce.
func Watch(ctx context.Context, cfg Config, log *zap.Logger, handler BuildHandler) error {
	if log == nil {
		log = zap.NewNop()
	}
	b, err := NewBuilder(cfg, log)
	if err != nil {
		return err
	}
	log = log.Named("watch")

	result, err := b.Build(ctx)
	if handler != nil {
		handler(result, err)
	}
	if result == nil && err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := b.watchDirs(watcher, b.root); err != nil {
		return err
	}
	if b.tokens != "" {
		if err := watcher.Add(filepath.Dir(b.tokens)); err != nil {
			log.Warn("failed to watch tokens file", zap.String("path", b.tokens), zap.Error(err))
		}
	}
	log.Info("watching", zap.String("root", b.root))

	pending := make(map[string]bool)
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := b.watchDirs(watcher, event.Name); err != nil {
						log.Warn("failed to watch directory", zap.String("path", event.Name), zap.Error(err))
					}
					continue
				}
			}
			if !b.triggersRebuild(event) {
				continue
			}
			log.Debug("change", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			pending[event.Name] = true
			if timer == nil {
				timer = time.NewTimer(WatchDebounce)
				timerC = timer.C
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", zap.Error(err))

		case <-timerC:
			timer, timerC = nil, nil
			changed := make([]string, 0, len(pending))
			for path := range pending {
				changed = append(changed, path)
			}
			sort.Strings(changed)
			pending = make(map[string]bool)

			result, err := b.Rebuild(ctx, changed)
			if handler != nil {
				handler(result, err)
			}
		}
	}
}

// triggersRebuild reports whether event should schedule a rebuild. Boundary
// markers count only when created or removed since the build itself writes
// them.
func (b *Builder) triggersRebuild(event fsnotify.Event) bool {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return false
	}
	if event.Name == b.tokens {
		return true
	}
	if b.isMarker(event.Name) {
		return event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
	}
	return b.isContent(event.Name) && !b.scanner.shouldSkip(event.Name)
}

// watchDirs adds root and its subdirectories, skipping ignored ones and the
// build outputs.
func (b *Builder) watchDirs(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Ignore errors, continue walking
		}
		if !d.IsDir() {
			return nil
		}
		if path != b.root && (d.Name() == ".git" || b.scanner.shouldSkip(path)) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
