package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce collapses the burst of events a single editor save emits.
const defaultDebounce = 300 * time.Millisecond

// sourceWatcher reports changes to the source files under a root.
type sourceWatcher struct {
	root     string
	file     string // set when root is a single file
	debounce time.Duration
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
}

// newSourceWatcher watches root, a source file or a directory tree.
// Directories created later are added as they appear.
func newSourceWatcher(root string, debounce time.Duration, logger *slog.Logger) (*sourceWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("resolving watch path: %w", err)
	}

	sw := &sourceWatcher{
		root:     absRoot,
		debounce: debounce,
		logger:   logger,
		watcher:  watcher,
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		_ = watcher.Close()
		return nil, err
	}

	if !info.IsDir() {
		// Watching the directory survives editors that replace the file.
		sw.file = absRoot
		err = watcher.Add(filepath.Dir(absRoot))
	} else {
		err = sw.addTree(absRoot)
	}
	if err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", root, err)
	}

	return sw, nil
}

// addTree adds dir and every directory below it.
func (sw *sourceWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return sw.watcher.Add(path)
		}
		return nil
	})
}

// Run calls onChange once per settled burst of source changes until ctx
// is done. onChange runs on the Run goroutine, so conversions never overlap.
func (sw *sourceWatcher) Run(ctx context.Context, onChange func()) error {
	defer func() { _ = sw.watcher.Close() }()

	fire := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	sw.logger.Info("watching for changes", "path", sw.root)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-sw.watcher.Events:
			if !ok {
				return nil
			}
			if !sw.relevant(event) {
				continue
			}
			sw.logger.Debug("source changed", "file", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.AfterFunc(sw.debounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(sw.debounce)
			}

		case <-fire:
			onChange()

		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return nil
			}
			sw.logger.Error("watcher error", "error", err)
		}
	}
}

// relevant reports whether event should trigger a conversion. New
// directories inside a watched tree are added on the way.
func (sw *sourceWatcher) relevant(event fsnotify.Event) bool {
	if event.Op&fsnotify.Create != 0 && sw.file == "" {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := sw.addTree(event.Name); err != nil {
				sw.logger.Warn("cannot watch new directory", "dir", event.Name, "error", err)
			}
			return false
		}
	}

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	if sw.file != "" {
		return filepath.Clean(event.Name) == sw.file
	}
	return isSourceFile(event.Name)
}
