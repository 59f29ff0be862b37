// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package initializer

import (
	"errors"
	"fmt"
	"strings"
)

// Exit codes for the init command.
const (
	ExitSuccess = 0 // Operation completed successfully
	ExitFailure = 1 // Initialization failed
	ExitBadArgs = 2 // Invalid arguments
)

// Sentinel errors for initialization.
var (
	// Configuration errors
	ErrEmptyProjectRoot = errors.New("project root must not be empty")
	ErrEmptyCMakeBinary = errors.New("cmake binary must not be empty")
	ErrPathNotExist     = errors.New("path does not exist")
	ErrPathNotDirectory = errors.New("path is not a directory")

	// Lock errors
	ErrLockAcquireFailed = errors.New("failed to acquire lock")
	ErrLockHeld          = errors.New("another init operation is in progress")
)

// ConfigureError reports a failed `cmake --preset` invocation.
//
// ExitCode is -1 when the process could not be started at all.
type ConfigureError struct {
	Preset   string
	Command  string
	Args     []string
	ExitCode int
	Err      error
}

// CommandLine returns the command as it was run, e.g. "cmake --preset Release".
func (e *ConfigureError) CommandLine() string {
	if len(e.Args) == 0 {
		return e.Command
	}
	return e.Command + " " + strings.Join(e.Args, " ")
}

// Error implements the error interface.
func (e *ConfigureError) Error() string {
	if e.ExitCode < 0 {
		return fmt.Sprintf("configuring preset %s: %s: %v", e.Preset, e.CommandLine(), e.Err)
	}
	return fmt.Sprintf("configuring preset %s: %s exited with status %d", e.Preset, e.CommandLine(), e.ExitCode)
}

// Unwrap returns the underlying error.
func (e *ConfigureError) Unwrap() error {
	return e.Err
}

// StorageError wraps filesystem errors with the operation and path.
type StorageError struct {
	Op   string // Operation that failed
	Path string // Path being operated on
	Err  error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// ExitCodeFor maps an Init error to a process exit code.
//
// Configuration and path errors are the caller's fault (ExitBadArgs);
// everything else is ExitFailure.
func ExitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrEmptyProjectRoot),
		errors.Is(err, ErrEmptyCMakeBinary),
		errors.Is(err, ErrPathNotExist),
		errors.Is(err, ErrPathNotDirectory):
		return ExitBadArgs
	default:
		return ExitFailure
	}
}
