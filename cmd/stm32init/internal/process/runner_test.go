// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package process

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for the two streaming goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestRunner() (*ExecRunner, *syncBuffer) {
	logs := &syncBuffer{}
	return NewExecRunner(slog.New(slog.NewTextHandler(logs, nil))), logs
}

func TestCommand_String(t *testing.T) {
	assert.Equal(t, "cmake --preset Debug", Command{Name: "cmake", Args: []string{"--preset", "Debug"}}.String())
	assert.Equal(t, "cmake", Command{Name: "cmake"}.String())
}

func TestExecRunner_Run_StreamsOutput(t *testing.T) {
	runner, logs := newTestRunner()
	var stdout, stderr bytes.Buffer
	runner.Stdout = &stdout
	runner.Stderr = &stderr

	err := runner.Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo configuring; echo warning-line 1>&2; echo done"},
	})
	require.NoError(t, err)

	assert.Equal(t, "configuring\ndone\n", stdout.String())
	assert.Equal(t, "warning-line\n", stderr.String())

	out := logs.String()
	assert.Contains(t, out, "msg=configuring")
	assert.Contains(t, out, "stream=stdout")
	assert.Contains(t, out, "level=WARN msg=warning-line")
	assert.Contains(t, out, "command finished")
}

func TestExecRunner_Run_NonZeroExit(t *testing.T) {
	runner, logs := newTestRunner()
	cmd := Command{Name: "sh", Args: []string{"-c", "echo boom 1>&2; exit 3"}}

	err := runner.Run(context.Background(), cmd)
	require.Error(t, err)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.Code)
	assert.Equal(t, cmd.Name, exitErr.Command.Name)
	assert.Contains(t, err.Error(), "exit status 3")
	assert.Contains(t, logs.String(), "boom")
}

func TestExecRunner_Run_WorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	runner, _ := newTestRunner()
	var stdout bytes.Buffer
	runner.Stdout = &stdout

	require.NoError(t, runner.Run(context.Background(), Command{Name: "pwd", Dir: dir}))

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(strings.TrimSpace(stdout.String()))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestExecRunner_Run_MissingBinary(t *testing.T) {
	runner, _ := newTestRunner()

	err := runner.Run(context.Background(), Command{Name: "nonexistent-command-12345"})
	require.Error(t, err)

	var exitErr *ExitError
	assert.False(t, errors.As(err, &exitErr))
	assert.Contains(t, err.Error(), "starting nonexistent-command-12345")
}

func TestExecRunner_Run_NilLogger(t *testing.T) {
	runner := NewExecRunner(nil)
	require.NoError(t, runner.Run(context.Background(), Command{Name: "true"}))
}

func TestMockRunner_RecordsCalls(t *testing.T) {
	mock := &MockRunner{
		RunFunc: func(ctx context.Context, cmd Command) error {
			if cmd.Args[len(cmd.Args)-1] == "Release" {
				return &ExitError{Command: cmd, Code: 1}
			}
			return nil
		},
	}

	ctx := context.Background()
	require.NoError(t, mock.Run(ctx, Command{Name: "cmake", Args: []string{"--preset", "Debug"}}))
	require.Error(t, mock.Run(ctx, Command{Name: "cmake", Args: []string{"--preset", "Release"}}))

	calls := mock.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "cmake --preset Debug", calls[0].String())
	assert.Equal(t, "cmake --preset Release", calls[1].String())

	mock.Reset()
	assert.Empty(t, mock.Calls())
}
