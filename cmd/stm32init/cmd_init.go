// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/stm32init/cmd/stm32init/internal/initializer"
)

const (
	successMessage = "STM32 project initialized successfully!"
	failurePrefix  = "STM32 initializer failed"
)

// initFlags holds the flags shared by init and watch.
type initFlags struct {
	dryRun        bool
	skipConfigure bool
	jsonOutput    bool
	quiet         bool
	cmake         string
}

func addInitFlags(cmd *cobra.Command, flags *initFlags) {
	f := cmd.Flags()
	f.BoolVar(&flags.dryRun, "dry-run", false,
		"Print the generated documents without writing them or running cmake")
	f.BoolVar(&flags.skipConfigure, "skip-configure", false,
		"Write documents but do not run cmake --preset")
	f.BoolVar(&flags.jsonOutput, "json", false,
		"Print the result as JSON on stdout")
	f.BoolVarP(&flags.quiet, "quiet", "q", false,
		"Suppress progress output and console logs")
	f.StringVar(&flags.cmake, "cmake", "",
		"CMake executable (default from config: cmake)")
}

func newInitCmd(a *app) *cobra.Command {
	flags := &initFlags{}
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Generate VS Code configuration and configure CMake presets",
		Long: `Initialize an STM32 CMake project for VS Code.

Creates build/Debug and build/Release, writes .vscode/tasks.json,
.vscode/launch.json and .clangd, then runs cmake --preset Debug and
cmake --preset Release in the project root.

Existing documents are overwritten. Running init twice produces the same
files.

Examples:
  stm32init init
  stm32init init ~/firmware/blinky --skip-configure
  stm32init init . --dry-run
  stm32init init . --json`,
		Args: maxOneArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit(cmd, args, flags)
		},
	}
	addInitFlags(cmd, flags)
	return cmd
}

func (a *app) runInit(cmd *cobra.Command, args []string, flags *initFlags) error {
	root, err := projectRootArg(args)
	if err != nil {
		return err
	}
	if err := a.setup(cmd, root, flags.quiet); err != nil {
		return err
	}
	defer a.teardown()

	initr := a.newInitializer()
	result, err := initr.Init(context.Background(), a.initConfig(root, flags), a.progress(flags))
	return a.report(result, err, flags)
}

// initConfig merges the loaded config file with command flags.
func (a *app) initConfig(root string, flags *initFlags) initializer.Config {
	cfg := initializer.Config{
		ProjectRoot:     root,
		CMakeBinary:     a.cfg.CMake.Binary,
		InterfaceConfig: a.cfg.Debug.InterfaceConfig,
		EntryPoint:      a.cfg.Debug.EntryPoint,
		DryRun:          flags.dryRun,
		SkipConfigure:   flags.skipConfigure,
	}
	if flags.cmake != "" {
		cfg.CMakeBinary = flags.cmake
	}
	return cfg
}

// progress returns a callback that prints phases to stderr, or nil when
// output is quiet or machine-readable.
func (a *app) progress(flags *initFlags) initializer.ProgressCallback {
	if flags.quiet || flags.jsonOutput {
		return nil
	}
	p := newPrinter(a.stderr)
	return func(pr initializer.Progress) {
		switch pr.Phase {
		case initializer.PhaseFolders:
			p.Step("Creating build folders...")
		case initializer.PhaseScanning:
			p.Step("Scanning project files...")
		case initializer.PhaseResolving:
			p.Step("Resolving debug target...")
		case initializer.PhaseWriting:
			if pr.Detail != "" {
				p.Step(fmt.Sprintf("Writing %s", pr.Detail))
			}
		case initializer.PhaseConfigure:
			p.Step(fmt.Sprintf("Configuring preset %s", pr.Detail))
		}
	}
}

// report prints the outcome and converts failures into exit codes.
func (a *app) report(result *initializer.Result, err error, flags *initFlags) error {
	out := newPrinter(a.stdout)

	if err != nil {
		code := initializer.ExitCodeFor(err)
		if flags.jsonOutput {
			if jsonErr := out.JSON(errorOutput{
				APIVersion: initializer.APIVersion,
				Success:    false,
				Error:      err.Error(),
				ExitCode:   code,
			}); jsonErr != nil {
				return &exitError{code: initializer.ExitFailure, err: jsonErr}
			}
		} else {
			newPrinter(a.stderr).Failure(fmt.Sprintf("%s: %v", failurePrefix, err))
		}
		return &exitError{code: code, err: err, reported: true}
	}

	if flags.jsonOutput {
		if jsonErr := out.JSON(result); jsonErr != nil {
			return &exitError{code: initializer.ExitFailure, err: jsonErr}
		}
		return nil
	}

	if flags.dryRun {
		out.Documents(result)
		for _, warning := range result.Warnings {
			out.Warning(warning)
		}
		return nil
	}

	if flags.quiet {
		for _, warning := range result.Warnings {
			out.Warning(warning)
		}
	} else {
		out.Summary(result)
	}
	out.Success(successMessage)
	return nil
}
