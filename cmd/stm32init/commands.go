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
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/stm32init/cmd/stm32init/config"
	"github.com/AleutianAI/stm32init/cmd/stm32init/internal/diagnostics"
	"github.com/AleutianAI/stm32init/cmd/stm32init/internal/initializer"
	"github.com/AleutianAI/stm32init/cmd/stm32init/internal/process"
	"github.com/AleutianAI/stm32init/pkg/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// =============================================================================
// APPLICATION STATE
// =============================================================================

// globalFlags holds the persistent flags shared by every command.
type globalFlags struct {
	configPath string // Explicit config file; must exist when set
	logLevel   string // debug, info, warn, error
	logJSON    bool   // JSON logs on stderr
	logDir     string // Additional JSON log file directory
	trace      bool   // Export OpenTelemetry spans
}

// app holds what a command needs once flags and config are resolved.
type app struct {
	stdout io.Writer
	stderr io.Writer
	flags  globalFlags

	cfg       config.Stm32InitConfig
	logger    *logging.Logger
	tracer    diagnostics.Tracer
	traceFile *os.File
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "stm32init",
		Short: "Prepare STM32 CMake projects for VS Code",
		Long: `stm32init bootstraps the build and debug configuration of an STM32 project.

It detects the firmware name from CMakeLists.txt and the MCU family from the
STM32CubeMX .ioc file, then writes:
  .vscode/tasks.json    build-debug and build-release tasks
  .vscode/launch.json   cortex-debug launch configurations using OpenOCD
  .clangd               points clangd at build/Debug

and runs "cmake --preset Debug" and "cmake --preset Release".`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", "",
		"Config file (default: <project>/"+config.FileName+" if present)")
	pf.StringVar(&a.flags.logLevel, "log-level", "",
		"Log level: debug, info, warn, error (default from config: info)")
	pf.BoolVar(&a.flags.logJSON, "log-json", false,
		"Write logs to stderr as JSON")
	pf.StringVar(&a.flags.logDir, "log-dir", "",
		"Also write JSON logs to this directory")
	pf.BoolVar(&a.flags.trace, "trace", false,
		"Export OpenTelemetry spans for each initialization step")

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return badArgs(err)
	})

	root.AddCommand(
		newInitCmd(a),
		newWatchCmd(a),
		newTargetsCmd(a),
		newVersionCmd(a),
	)
	return root
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "stm32init %s (api %s)\n", version, initializer.APIVersion)
		},
	}
}

// maxOneArg accepts an optional project path.
func maxOneArg(cmd *cobra.Command, args []string) error {
	if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
		return badArgs(err)
	}
	return nil
}

// =============================================================================
// SETUP AND TEARDOWN
// =============================================================================

// projectRootArg resolves the optional path argument to an absolute
// directory.
func projectRootArg(args []string) (string, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", badArgs(fmt.Errorf("invalid path %s: %w", root, err))
	}
	info, err := os.Stat(abs)
	if os.IsNotExist(err) {
		return "", badArgs(fmt.Errorf("%w: %s", initializer.ErrPathNotExist, abs))
	}
	if err != nil {
		return "", badArgs(fmt.Errorf("cannot access %s: %w", abs, err))
	}
	if !info.IsDir() {
		return "", badArgs(fmt.Errorf("%w: %s", initializer.ErrPathNotDirectory, abs))
	}
	return abs, nil
}

// setup loads configuration, applies flag overrides and creates the logger
// and tracer. quiet silences console logs; a --log-dir file still receives
// them. Call teardown when the command finishes.
func (a *app) setup(cmd *cobra.Command, projectRoot string, quiet bool) error {
	cfg, err := a.loadConfig(projectRoot)
	if err != nil {
		return badArgs(err)
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level = a.flags.logLevel
	}
	if flags.Changed("log-json") {
		cfg.Logging.JSON = a.flags.logJSON
	}
	if flags.Changed("log-dir") {
		cfg.Logging.Dir = a.flags.logDir
	}
	if flags.Changed("trace") {
		cfg.Tracing.Enabled = a.flags.trace
	}
	if err := config.Validate(cfg); err != nil {
		return badArgs(err)
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return badArgs(err)
	}
	logger, err := logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Logging.Dir,
		Service: "stm32init",
		JSON:    cfg.Logging.JSON,
		Quiet:   quiet,
		Output:  a.stderr,
	})
	a.logger = logger
	if err != nil {
		logger.Slog().Warn("file logging disabled", "dir", cfg.Logging.Dir, "error", err)
	} else if path := logger.LogPath(); path != "" {
		logger.Slog().Debug("writing log file", "path", path)
	}

	a.tracer = diagnostics.NoOpTracer{}
	if cfg.Tracing.Enabled {
		if err := a.setupTracer(cfg.Tracing); err != nil {
			a.teardown()
			return badArgs(err)
		}
	}

	a.cfg = cfg
	return nil
}

func (a *app) loadConfig(projectRoot string) (config.Stm32InitConfig, error) {
	if a.flags.configPath != "" {
		return config.LoadFile(a.flags.configPath)
	}
	return config.Load(filepath.Join(projectRoot, config.FileName))
}

func (a *app) setupTracer(cfg config.TracingConfig) error {
	out := a.stderr
	if cfg.Output != "" {
		file, err := os.Create(cfg.Output)
		if err != nil {
			return fmt.Errorf("creating trace output: %w", err)
		}
		a.traceFile = file
		out = file
	}
	tracer, err := diagnostics.NewOTelTracer(diagnostics.OTelTracerConfig{
		Output:      out,
		PrettyPrint: cfg.Output == "",
	})
	if err != nil {
		return err
	}
	a.tracer = tracer
	return nil
}

func (a *app) teardown() {
	if a.tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.tracer.Shutdown(ctx); err != nil && a.logger != nil {
			a.logger.Slog().Warn("flushing trace spans", "error", err)
		}
		cancel()
	}
	if a.traceFile != nil {
		a.traceFile.Close()
		a.traceFile = nil
	}
	if a.logger != nil {
		a.logger.Close()
	}
}

// newInitializer wires the initializer to the real filesystem and cmake.
func (a *app) newInitializer() *initializer.Initializer {
	logger := a.logger.Slog()
	return initializer.NewInitializer(
		osfs.New("/"),
		process.NewExecRunner(logger),
		logger,
		initializer.WithLocker(initializer.NewFlockLocker(logger)),
		initializer.WithTracer(a.tracer),
	)
}
