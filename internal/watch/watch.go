// Package watch regenerates code when spec files change.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/simonhull/firebird-suite/roost/internal/discover"
	"github.com/simonhull/firebird-suite/roost/internal/log"
)

// Options configures a Watcher.
type Options struct {
	Pattern  string        // spec file glob, e.g. "*.roost.yml"
	Exclude  []string      // directories to leave unwatched
	Debounce time.Duration // quiet period before a batch is handled
	// Also lists extra file names that trigger a batch, such as roost.yml.
	Also []string
}

// Handler receives the sorted, de-duplicated paths changed in one batch.
// Errors are logged and watching continues.
type Handler func(ctx context.Context, changed []string) error

// Watcher batches file events under a root directory.
type Watcher struct {
	root string
	opts Options
}

// New creates a watcher for root.
func New(root string, opts Options) *Watcher {
	if opts.Pattern == "" {
		opts.Pattern = "*.roost.yml"
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 250 * time.Millisecond
	}
	return &Watcher{root: root, opts: opts}
}

// Run watches until ctx is done. The handler runs on the watching goroutine,
// so batches never overlap. Run returns nil when ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, handle Handler) error {
	logger := log.WithComponentFromContext(ctx, "watch")

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	dirs, err := discover.Tree(w.root, w.opts.Exclude)
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	logger.Debug().Int("dirs", len(dirs)).Str("root", w.root).Msg("watching")

	pending := make(map[string]bool)
	timer := time.NewTimer(w.opts.Debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Debug().Msg("watcher stopped")
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) && w.addDir(fw, event.Name) {
				continue
			}
			if !w.matches(event.Name) || event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			logger.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("spec changed")
			pending[event.Name] = true
			timer.Reset(w.opts.Debounce)

		case <-timer.C:
			changed := make([]string, 0, len(pending))
			for path := range pending {
				changed = append(changed, path)
			}
			sort.Strings(changed)
			clear(pending)

			if err := handle(ctx, changed); err != nil {
				logger.Error().Err(err).Strs("changed", changed).Msg("regeneration failed")
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Error().Err(err).Msg("watcher error")
		}
	}
}

// addDir starts watching a newly created directory. It reports whether
// path was a directory.
func (w *Watcher) addDir(fw *fsnotify.Watcher, path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	if discover.Skipped(w.root, path, w.opts.Exclude) {
		return true
	}
	dirs, err := discover.Tree(path, nil)
	if err != nil {
		return true
	}
	for _, dir := range dirs {
		if dir != path && discover.Skipped(w.root, dir, w.opts.Exclude) {
			continue
		}
		_ = fw.Add(dir)
	}
	return true
}

func (w *Watcher) matches(path string) bool {
	name := filepath.Base(path)
	if ok, _ := filepath.Match(w.opts.Pattern, name); ok {
		return true
	}
	for _, also := range w.opts.Also {
		if name == also {
			return true
		}
	}
	return false
}
