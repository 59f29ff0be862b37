// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

/*
Package process abstracts external command execution.

All command invocations made during project initialization go through the
Runner interface so that the orchestration logic can be tested with
MockRunner instead of spawning real processes.

# Output Handling

ExecRunner streams stdout and stderr line by line to a structured logger
while the process runs. It does not buffer the whole output. Run returns
only after the process has exited and both streams are drained.
*/
package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"golang.org/x/sync/errgroup"
)

// maxLineSize bounds a single output line. Longer lines are dropped and
// the rest of the stream is discarded.
const maxLineSize = 1024 * 1024

// Command describes a single process invocation.
type Command struct {
	Name string   // Executable name or path
	Args []string // Arguments, not shell-interpreted
	Dir  string   // Working directory; empty means the current directory
}

// String returns the command line, e.g. "cmake --preset Debug".
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Runner executes external commands.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type Runner interface {
	// Run executes the command and blocks until it exits.
	//
	// # Outputs
	//
	//   - error: *ExitError when the process exits non-zero, another
	//     error when it cannot be started or its output cannot be read.
	Run(ctx context.Context, cmd Command) error
}

// ExitError reports a process that ran but exited with a non-zero status.
type ExitError struct {
	Command Command
	Code    int
	Err     error
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("command failed: %s (exit status %d)", e.Command, e.Code)
}

// Unwrap returns the underlying error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExecRunner implements Runner using os/exec.
//
// # Description
//
// Commands are executed directly, without a shell. Each output line is
// logged at Info (stdout) or Warn (stderr) with the command attached. When
// Stdout or Stderr are set, lines are also copied there.
type ExecRunner struct {
	logger *slog.Logger

	// Stdout and Stderr optionally receive a copy of each output line.
	Stdout io.Writer
	Stderr io.Writer
}

// Compile-time interface verification.
var _ Runner = (*ExecRunner)(nil)

// NewExecRunner creates an ExecRunner logging to logger. Nil discards output.
func NewExecRunner(logger *slog.Logger) *ExecRunner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ExecRunner{logger: logger}
}

// Run starts the command, streams its output and waits for it to exit.
func (r *ExecRunner) Run(ctx context.Context, c Command) error {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("creating stdout pipe for %s: %w", c, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("creating stderr pipe for %s: %w", c, err)
	}

	logger := r.logger.With("command", c.String())
	logger.Info("running command", "dir", c.Dir)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", c, err)
	}

	// Both pipes must be drained before Wait.
	var g errgroup.Group
	g.Go(func() error {
		return streamLines(stdout, r.Stdout, func(line string) {
			logger.Info(line, "stream", "stdout")
		})
	})
	g.Go(func() error {
		return streamLines(stderr, r.Stderr, func(line string) {
			logger.Warn(line, "stream", "stderr")
		})
	})
	streamErr := g.Wait()

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			logger.Error("command failed", "exit_code", exitErr.ExitCode())
			return &ExitError{Command: c, Code: exitErr.ExitCode(), Err: err}
		}
		return fmt.Errorf("waiting for %s: %w", c, err)
	}
	if streamErr != nil {
		return fmt.Errorf("reading output of %s: %w", c, streamErr)
	}

	logger.Info("command finished")
	return nil
}

// streamLines calls emit for each line read from rd, copying lines to tee
// when it is non-nil. On a scan error the remainder of rd is discarded so
// the process never blocks on a full pipe.
func streamLines(rd io.Reader, tee io.Writer, emit func(string)) error {
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Text()
		emit(line)
		if tee != nil {
			if _, err := io.WriteString(tee, line+"\n"); err != nil {
				tee = nil
			}
		}
	}
	if err := scanner.Err(); err != nil {
		_, _ = io.Copy(io.Discard, rd)
		return err
	}
	return nil
}
