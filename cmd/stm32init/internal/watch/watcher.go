// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package watch re-triggers project initialization when the project
// description files change.
//
// Only the project root is watched, not subdirectories, and only
// CMakeLists.txt and *.ioc events are considered. Generated files
// (.vscode/, .clangd, build/) therefore never re-trigger a run.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/AleutianAI/stm32init/cmd/stm32init/internal/project"
)

// DefaultDebounce is how long the watcher waits for further changes
// before calling the handler. Editors and CubeMX often write several
// times in a row when saving.
const DefaultDebounce = 500 * time.Millisecond

// Change is one debounced change to a project description file.
type Change struct {
	// Path is the absolute path to the changed file.
	Path string

	// Op is the last operation seen for Path within the debounce window.
	Op fsnotify.Op
}

// Handler is called with the changes collected during one debounce window.
// Calls are serialized: the next batch is not delivered until the
// previous call returns.
type Handler func(ctx context.Context, changes []Change)

// Options configures a Watcher.
type Options struct {
	// Debounce is the quiet period before changes are delivered.
	// Default: 500ms
	Debounce time.Duration
}

// Watcher watches a project root for description file changes.
//
// # Thread Safety
//
// Run must be called at most once. Close is safe to call concurrently
// with Run and more than once.
type Watcher struct {
	root     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// New creates a Watcher and starts watching root.
//
// # Description
//
// The root is registered before New returns, so any change made after
// New succeeds is observed by a later Run.
//
// # Outputs
//
//   - *Watcher: Ready to Run. Call Close when done.
//   - error: Non-nil if the OS watcher cannot be created or root cannot be watched.
func New(root string, logger *slog.Logger, opts Options) (*Watcher, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := fw.Add(root); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", root, err)
	}

	return &Watcher{
		root:     root,
		watcher:  fw,
		debounce: opts.Debounce,
		logger:   logger,
	}, nil
}

// Run delivers debounced changes to handler until ctx is cancelled or the
// watcher is closed.
//
// # Outputs
//
//   - error: Always nil on cancellation or Close. Pending changes are
//     dropped on shutdown.
func (w *Watcher) Run(ctx context.Context, handler Handler) error {
	pending := make(map[string]fsnotify.Op)
	var timer *time.Timer
	var timerC <-chan time.Time

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !IsRelevant(event.Name) {
				continue
			}
			w.logger.Debug("project file changed", "path", event.Name, "op", event.Op.String())
			pending[event.Name] = event.Op

			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			changes := collect(pending)
			pending = make(map[string]fsnotify.Op)
			w.logger.Info("project files changed", "count", len(changes))
			handler(ctx, changes)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "root", w.root, "error", err)
		}
	}
}

// Close stops watching and releases OS resources.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		w.closeErr = w.watcher.Close()
	})
	return w.closeErr
}

// IsRelevant reports whether a change to path can alter the generated
// configuration: the build description or a hardware description.
func IsRelevant(path string) bool {
	base := filepath.Base(path)
	return base == project.BuildFileName || strings.HasSuffix(base, project.HardwareFileExt)
}

// collect returns pending changes sorted by path.
func collect(pending map[string]fsnotify.Op) []Change {
	changes := make([]Change, 0, len(pending))
	for path, op := range pending {
		changes = append(changes, Change{Path: path, Op: op})
	}
	sort.Slice(changes, func(i, j int) bool {
		return changes[i].Path < changes[j].Path
	})
	return changes
}
