// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command stm32init prepares STM32 CMake projects for VS Code.
//
// It reads the project name from CMakeLists.txt and the MCU family from the
// STM32CubeMX .ioc file, writes .vscode/tasks.json, .vscode/launch.json and
// .clangd, and configures the Debug and Release CMake presets.
//
// # Usage
//
//	stm32init init [path]      # initialize a project (default: current directory)
//	stm32init watch [path]     # re-initialize when CMakeLists.txt or *.ioc change
//	stm32init targets          # list supported MCU families
//	stm32init version
//
// # Exit Codes
//
//	0 - Success
//	1 - Initialization failed
//	2 - Invalid arguments or configuration
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AleutianAI/stm32init/cmd/stm32init/internal/initializer"
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the CLI with args and returns the process exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	root := newRootCmd(a)
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return initializer.ExitSuccess
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		if !exitErr.reported {
			fmt.Fprintf(stderr, "Error: %v\n", exitErr.err)
		}
		return exitErr.code
	}

	// Unknown commands and other cobra parse errors.
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return initializer.ExitBadArgs
}

// exitError carries the exit code for a failed command.
type exitError struct {
	code     int
	err      error
	reported bool // already printed to the user
}

// Error implements the error interface.
func (e *exitError) Error() string {
	return e.err.Error()
}

// Unwrap returns the underlying error.
func (e *exitError) Unwrap() error {
	return e.err
}

// badArgs marks err as a usage error (exit code 2).
func badArgs(err error) error {
	return &exitError{code: initializer.ExitBadArgs, err: err}
}
