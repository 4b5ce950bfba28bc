package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bull/artifact-catalog/internal/source"
)

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 500 * time.Millisecond

// Watcher regenerates the whole index whenever a group directory changes.
type Watcher struct {
	pipeline *Pipeline
	debounce time.Duration
	logger   *slog.Logger
}

// NewWatcher creates a watcher around p. A non-positive debounce uses DefaultDebounce.
func NewWatcher(p *Pipeline, debounce time.Duration, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{pipeline: p, debounce: debounce, logger: logger}
}

// Run generates once, then again after every burst of relevant file events,
// until ctx is cancelled. onResult receives the outcome of every run.
func (w *Watcher) Run(ctx context.Context, onResult func(*IndexResult, error)) error {
	if onResult == nil {
		onResult = func(*IndexResult, error) {}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	exts := make(map[string][]string)
	// Group directories that did not exist yet, watched through their parent.
	pending := make(map[string][]string)
	for _, g := range w.pipeline.groups {
		dir := filepath.Clean(g.Dir)
		if err := fsw.Add(dir); err != nil {
			parent := filepath.Dir(dir)
			if perr := fsw.Add(parent); perr != nil {
				w.logger.Warn("Cannot watch source directory", "source", g.Source, "dir", dir, "error", err)
				continue
			}
			pending[dir] = append(pending[dir], g.Extensions...)
			w.logger.Info("Waiting for source directory", "source", g.Source, "dir", dir)
			continue
		}
		exts[dir] = append(exts[dir], g.Extensions...)
		w.logger.Info("Watching", "source", g.Source, "dir", dir)
	}

	onResult(w.pipeline.IndexAll(ctx))

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if groupExts, ok := pending[ev.Name]; ok && ev.Has(fsnotify.Create) {
				if err := fsw.Add(ev.Name); err != nil {
					w.logger.Warn("Cannot watch source directory", "dir", ev.Name, "error", err)
					continue
				}
				delete(pending, ev.Name)
				exts[ev.Name] = groupExts
				w.logger.Info("Watching", "dir", ev.Name)
			} else if !relevant(ev, exts) {
				continue
			}
			w.logger.Debug("Change detected", "file", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", "error", err)

		case <-fire:
			fire = nil
			w.logger.Info("Regenerating index")
			onResult(w.pipeline.IndexAll(ctx))
		}
	}
}

func relevant(ev fsnotify.Event, exts map[string][]string) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(ev.Name)
	if strings.HasPrefix(name, ".") {
		return false
	}
	return source.MatchExtension(name, exts[filepath.Dir(ev.Name)])
}
