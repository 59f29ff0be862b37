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
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/google/uuid"

	"github.com/AleutianAI/stm32init/cmd/stm32init/internal/diagnostics"
	"github.com/AleutianAI/stm32init/cmd/stm32init/internal/process"
	"github.com/AleutianAI/stm32init/cmd/stm32init/internal/project"
	"github.com/AleutianAI/stm32init/cmd/stm32init/internal/vscode"
)

// ProjectInitializer defines the interface for initializing a project.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type ProjectInitializer interface {
	// Init prepares the project at cfg.ProjectRoot.
	Init(ctx context.Context, cfg Config, progress ProgressCallback) (*Result, error)
}

// Initializer generates editor configuration for an STM32 project and
// configures its CMake presets.
//
// # Description
//
// Initializer owns no state between runs. Every collaborator is injected:
// the filesystem for reads and writes, the process runner for cmake, and
// optionally a locker, tracer and storage override.
//
// # Thread Safety
//
// Initializer is safe for concurrent use.
type Initializer struct {
	fs       billy.Filesystem
	storage  StorageWriter
	scanner  *project.Scanner
	runner   process.Runner
	locker   Locker
	tracer   diagnostics.Tracer
	logger   *slog.Logger
	newRunID func() string
}

// Compile-time interface verification.
var _ ProjectInitializer = (*Initializer)(nil)

// Option configures an Initializer.
type Option func(*Initializer)

// WithStorage replaces the default billy-backed StorageWriter.
func WithStorage(storage StorageWriter) Option {
	return func(i *Initializer) {
		i.storage = storage
	}
}

// WithLocker sets the project locker. Default: NoOpLocker.
func WithLocker(locker Locker) Option {
	return func(i *Initializer) {
		i.locker = locker
	}
}

// WithTracer sets the span tracer. Default: diagnostics.NoOpTracer.
func WithTracer(tracer diagnostics.Tracer) Option {
	return func(i *Initializer) {
		i.tracer = tracer
	}
}

// WithRunIDFunc overrides run id generation. Default: random UUIDv4.
func WithRunIDFunc(fn func() string) Option {
	return func(i *Initializer) {
		i.newRunID = fn
	}
}

// NewInitializer creates a new Initializer.
//
// # Inputs
//
//   - fsys: Filesystem holding the project. Must not be nil.
//   - runner: Executes cmake. Must not be nil.
//   - logger: Structured logger. Nil discards output.
//   - opts: Optional overrides.
//
// # Outputs
//
//   - *Initializer: The initializer instance.
func NewInitializer(fsys billy.Filesystem, runner process.Runner, logger *slog.Logger, opts ...Option) *Initializer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	i := &Initializer{
		fs:       fsys,
		runner:   runner,
		logger:   logger,
		locker:   NoOpLocker{},
		tracer:   diagnostics.NoOpTracer{},
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.storage == nil {
		i.storage = NewStorage(fsys)
	}
	return i
}

// Init initializes the project.
//
// # Description
//
// Performs, in order, aborting on the first failure:
//  1. Validates cfg and the project root; acquires the project lock
//  2. Creates build/Debug and build/Release
//  3. Scans CMakeLists.txt and the .ioc file
//  4. Derives the artifact name and OpenOCD target
//  5. Writes .vscode/tasks.json, .vscode/launch.json and .clangd
//  6. Runs `cmake --preset Debug`, then `cmake --preset Release`
//
// With cfg.DryRun, steps 2, 5 (writes) and 6 are skipped and the rendered
// documents are returned in Result.Documents. With cfg.SkipConfigure,
// step 6 is skipped.
//
// # Inputs
//
//   - ctx: Context passed to the process runner. Must not be nil.
//   - cfg: Configuration. Must be valid (cfg.Validate() == nil).
//   - progress: Callback for progress updates. May be nil.
//
// # Outputs
//
//   - *Result: Initialization results. Never nil on success.
//   - error: *ConfigureError when cmake fails, *StorageError when a write
//     fails, a sentinel from errors.go for invalid input.
//
// # Limitations
//
//   - Files written before a failure are left in place.
//   - Without a FlockLocker, concurrent runs on one project race.
func (i *Initializer) Init(ctx context.Context, cfg Config, progress ProgressCallback) (*Result, error) {
	if ctx == nil {
		return nil, fmt.Errorf("ctx must not be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if progress == nil {
		progress = func(Progress) {}
	}

	start := time.Now()
	result := NewResult()
	result.RunID = i.newRunID()
	result.ProjectRoot = cfg.ProjectRoot
	result.DryRun = cfg.DryRun

	logger := i.logger.With("run_id", result.RunID)

	ctx, finish := i.tracer.StartSpan(ctx, "initializer.init", map[string]string{
		"run_id":       result.RunID,
		"project_root": cfg.ProjectRoot,
	})
	result.TraceID = i.tracer.TraceID(ctx)

	err := i.run(ctx, cfg, result, logger, progress)
	finish(err)
	if err != nil {
		logger.Error("initialization failed", "project_root", cfg.ProjectRoot, "error", err)
		return nil, err
	}

	result.DurationMs = time.Since(start).Milliseconds()
	progress(Progress{Phase: PhaseComplete, Percent: 100})
	logger.Info("project initialized",
		"project_root", cfg.ProjectRoot,
		"artifact", result.ArtifactName,
		"target", result.DebugTarget,
		"duration_ms", result.DurationMs,
	)
	return result, nil
}

func (i *Initializer) run(ctx context.Context, cfg Config, result *Result, logger *slog.Logger, progress ProgressCallback) error {
	if err := i.checkRoot(cfg.ProjectRoot); err != nil {
		return err
	}

	// Dry runs must not create build/, where the lock file lives.
	if !cfg.DryRun {
		unlock, err := i.locker.Lock(cfg.ProjectRoot)
		if err != nil {
			return fmt.Errorf("acquiring lock: %w", err)
		}
		defer unlock()
	}

	if !cfg.DryRun {
		progress(Progress{Phase: PhaseFolders, Percent: 5})
		if err := i.step(ctx, "initializer.folders", nil, func() error {
			return i.ensureFolders(cfg.ProjectRoot)
		}); err != nil {
			return err
		}
	}

	progress(Progress{Phase: PhaseScanning, Percent: 15})
	var desc project.Descriptor
	if err := i.step(ctx, "initializer.scan", nil, func() error {
		var err error
		desc, err = project.NewScanner(i.fs, logger).Scan(cfg.ProjectRoot)
		return err
	}); err != nil {
		return fmt.Errorf("scanning project: %w", err)
	}
	result.ProjectName = desc.DeclaredName
	result.MCUFamily = desc.MCUFamily
	result.Warnings = append(result.Warnings, desc.Warnings...)

	progress(Progress{Phase: PhaseResolving, Percent: 25})
	artifact := project.ArtifactFor(desc.DeclaredName)
	target, known := project.LookupTarget(desc.MCUFamily)
	if desc.HasFamily() && !known {
		msg := fmt.Sprintf("MCU family %s has no known OpenOCD target, using default %s", desc.MCUFamily, target)
		logger.Warn(msg, "family", desc.MCUFamily)
		result.Warnings = append(result.Warnings, msg)
	}
	result.ArtifactName = artifact.String()
	result.DebugTarget = target.String()
	logger.Info("project detected",
		"project_name", desc.DeclaredName,
		"mcu_family", desc.MCUFamily,
		"artifact", artifact,
		"target", target,
	)

	progress(Progress{Phase: PhaseWriting, Percent: 35})
	docs, err := i.render(cfg, artifact, target)
	if err != nil {
		return err
	}
	if cfg.DryRun {
		result.Documents = make(map[string]string, len(docs))
		for _, doc := range docs {
			result.Documents[doc.path] = string(doc.data)
		}
		return nil
	}
	if err := i.step(ctx, "initializer.write", nil, func() error {
		return i.writeDocuments(cfg.ProjectRoot, docs, result, logger, progress)
	}); err != nil {
		return err
	}

	if cfg.SkipConfigure {
		logger.Info("skipping cmake configure")
		return nil
	}
	return i.configure(ctx, cfg, result, logger, progress)
}

// step runs fn inside a span named name.
func (i *Initializer) step(ctx context.Context, name string, attrs map[string]string, fn func() error) error {
	_, finish := i.tracer.StartSpan(ctx, name, attrs)
	err := fn()
	finish(err)
	return err
}

func (i *Initializer) checkRoot(root string) error {
	info, err := i.fs.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrPathNotExist, root)
	}
	if err != nil {
		return &StorageError{Op: "stat", Path: root, Err: err}
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrPathNotDirectory, root)
	}
	return nil
}

func (i *Initializer) ensureFolders(root string) error {
	for _, c := range vscode.BuildConfigurations() {
		if err := i.storage.EnsureDir(filepath.Join(root, filepath.FromSlash(c.Folder()))); err != nil {
			return err
		}
	}
	return nil
}

// document is a rendered file waiting to be written.
type document struct {
	path string // relative, slash-separated
	data []byte
}

// render builds, validates and serializes the three documents in write order.
func (i *Initializer) render(cfg Config, artifact project.ArtifactName, target project.DebugTarget) ([]document, error) {
	builder := vscode.NewBuilder(vscode.Options{
		CMakeCommand:    cfg.CMakeBinary,
		InterfaceConfig: cfg.InterfaceConfig,
		EntryPoint:      cfg.EntryPoint,
	})

	tasks := builder.BuildTasks()
	launch := builder.BuildLaunch(artifact, target)
	if err := vscode.Validate(tasks, launch); err != nil {
		return nil, fmt.Errorf("generated documents are inconsistent: %w", err)
	}

	tasksData, err := vscode.RenderTasks(tasks)
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", TasksPath, err)
	}
	launchData, err := vscode.RenderLaunch(launch)
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", LaunchPath, err)
	}
	clangdData, err := vscode.RenderClangd(builder.BuildClangd())
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", ClangdPath, err)
	}

	return []document{
		{path: TasksPath, data: tasksData},
		{path: LaunchPath, data: launchData},
		{path: ClangdPath, data: clangdData},
	}, nil
}

func (i *Initializer) writeDocuments(root string, docs []document, result *Result, logger *slog.Logger, progress ProgressCallback) error {
	for n, doc := range docs {
		progress(Progress{Phase: PhaseWriting, Detail: doc.path, Percent: 35 + n*5})
		full := filepath.Join(root, filepath.FromSlash(doc.path))
		if err := i.storage.WriteFile(full, doc.data); err != nil {
			return err
		}
		result.FilesWritten = append(result.FilesWritten, doc.path)
		logger.Debug("wrote document", "path", full, "bytes", len(doc.data))
	}
	return nil
}

// configure runs `<cmake> --preset <Config>` for every build configuration.
func (i *Initializer) configure(ctx context.Context, cfg Config, result *Result, logger *slog.Logger, progress ProgressCallback) error {
	configs := vscode.BuildConfigurations()
	for n, c := range configs {
		progress(Progress{Phase: PhaseConfigure, Detail: c.Name, Percent: 50 + n*50/len(configs)})

		cmd := process.Command{
			Name: cfg.CMakeBinary,
			Args: []string{"--preset", c.Name},
			Dir:  cfg.ProjectRoot,
		}
		logger.Info("configuring preset", "preset", c.Name)

		err := i.step(ctx, "initializer.configure", map[string]string{"preset": c.Name}, func() error {
			return i.runner.Run(ctx, cmd)
		})
		if err != nil {
			cfgErr := &ConfigureError{
				Preset:   c.Name,
				Command:  cmd.Name,
				Args:     cmd.Args,
				ExitCode: -1,
				Err:      err,
			}
			var exitErr *process.ExitError
			if errors.As(err, &exitErr) {
				cfgErr.ExitCode = exitErr.Code
			}
			return cfgErr
		}
		result.Configured = append(result.Configured, c.Name)
	}
	return nil
}
