// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDebounce = 150 * time.Millisecond

func TestIsRelevant(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/p/CMakeLists.txt", true},
		{"/p/blinky.ioc", true},
		{"CMakeLists.txt", true},
		{"/p/main.c", false},
		{"/p/.clangd", false},
		{"/p/cmakelists.txt", false},
		{"/p/CMakeLists.txt~", false},
		{"/p/blinky.ioc.swp", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRelevant(tt.path))
		})
	}
}

// startWatcher runs a Watcher on dir and returns the channel of delivered batches.
func startWatcher(t *testing.T, dir string) (<-chan []Change, context.CancelFunc) {
	t.Helper()
	w, err := New(dir, nil, Options{Debounce: testDebounce})
	require.NoError(t, err)

	batches := make(chan []Change, 10)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx, func(_ context.Context, changes []Change) {
			batches <- changes
		})
	}()

	t.Cleanup(func() {
		cancel()
		<-done
		w.Close()
	})
	return batches, cancel
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWatcher_DebouncesRelevantChanges(t *testing.T) {
	dir := t.TempDir()
	batches, _ := startWatcher(t, dir)

	cmake := filepath.Join(dir, "CMakeLists.txt")
	ioc := filepath.Join(dir, "board.ioc")
	writeFile(t, filepath.Join(dir, "main.c"), "int main(void) { return 0; }\n")
	writeFile(t, cmake, "set(CMAKE_PROJECT_NAME A)\n")
	writeFile(t, cmake, "set(CMAKE_PROJECT_NAME B)\n")
	writeFile(t, ioc, "Mcu.Family=STM32F4\n")

	select {
	case changes := <-batches:
		require.Len(t, changes, 2)
		// Byte order: upper-case 'C' sorts before 'b'.
		assert.Equal(t, cmake, changes[0].Path)
		assert.Equal(t, ioc, changes[1].Path)
	case <-time.After(5 * time.Second):
		t.Fatal("no changes delivered")
	}

	select {
	case extra := <-batches:
		t.Fatalf("unexpected second batch: %v", extra)
	case <-time.After(3 * testDebounce):
	}
}

func TestWatcher_IgnoresGeneratedFiles(t *testing.T) {
	dir := t.TempDir()
	batches, _ := startWatcher(t, dir)

	writeFile(t, filepath.Join(dir, ".clangd"), "CompileFlags: {}\n")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".vscode"), 0o755))
	writeFile(t, filepath.Join(dir, ".vscode", "tasks.json"), "{}\n")

	select {
	case changes := <-batches:
		t.Fatalf("unexpected batch: %v", changes)
	case <-time.After(3 * testDebounce):
	}
}

func TestWatcher_StopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, nil, Options{})
	require.NoError(t, err)
	defer w.Close()
	assert.Equal(t, DefaultDebounce, w.debounce)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context, []Change) {})
	}()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWatcher_StopsOnClose(t *testing.T) {
	w, err := New(t.TempDir(), nil, Options{Debounce: testDebounce})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- w.Run(context.Background(), func(context.Context, []Change) {})
	}()
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Close")
	}
}

func TestNew_MissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), nil, Options{})
	require.Error(t, err)
}

func TestCollect_SortsByPath(t *testing.T) {
	pending := map[string]fsnotify.Op{
		"/p/board.ioc":      fsnotify.Write,
		"/p/CMakeLists.txt": fsnotify.Create,
		"/p/a.ioc":          fsnotify.Remove,
	}

	changes := collect(pending)

	require.Len(t, changes, 3)
	assert.Equal(t, []Change{
		{Path: "/p/CMakeLists.txt", Op: fsnotify.Create},
		{Path: "/p/a.ioc", Op: fsnotify.Remove},
		{Path: "/p/board.ioc", Op: fsnotify.Write},
	}, changes)
}
