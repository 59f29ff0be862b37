// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package vscode

import (
	"errors"
	"fmt"

	"github.com/AleutianAI/stm32init/cmd/stm32init/internal/project"
)

// Validation errors returned by Validate.
var (
	ErrDuplicateTaskLabel = errors.New("duplicate task label")
	ErrUnknownPreLaunch   = errors.New("preLaunchTask does not match any task label")
)

// Options customises the generated documents.
//
// Zero values fall back to the defaults: cmake, interface/stlink-v2.cfg, main.
type Options struct {
	CMakeCommand    string
	InterfaceConfig string
	EntryPoint      string
}

// Builder assembles the tasks, launch and clangd documents.
//
// # Description
//
// Builder is pure: it never touches the filesystem and the same inputs
// always produce equal documents. The task labels produced by BuildTasks
// are the labels referenced by BuildLaunch.
//
// # Thread Safety
//
// Builder is immutable and safe for concurrent use.
type Builder struct {
	opts Options
}

// NewBuilder creates a Builder, filling unset options with defaults.
func NewBuilder(opts Options) *Builder {
	if opts.CMakeCommand == "" {
		opts.CMakeCommand = DefaultCMakeCommand
	}
	if opts.InterfaceConfig == "" {
		opts.InterfaceConfig = DefaultInterfaceConfig
	}
	if opts.EntryPoint == "" {
		opts.EntryPoint = DefaultEntryPoint
	}
	return &Builder{opts: opts}
}

// BuildTasks returns one build task per build configuration.
//
// # Outputs
//
//   - TasksDocument: build-debug and build-release, each running
//     "cmake --build --preset <Config>".
func (b *Builder) BuildTasks() TasksDocument {
	configs := BuildConfigurations()
	doc := TasksDocument{
		Version: TasksSchemaVersion,
		Tasks:   make([]Task, 0, len(configs)),
	}
	for _, c := range configs {
		doc.Tasks = append(doc.Tasks, Task{
			Label:   c.TaskLabel,
			Type:    TaskTypeShell,
			Command: b.opts.CMakeCommand,
			Args:    []string{"--build", "--preset", c.Name},
		})
	}
	return doc
}

// BuildLaunch returns one cortex-debug launch record per build configuration.
//
// # Description
//
// Both records debug the same artifact under the same target; only the
// build folder and the pre-launch task differ.
//
// # Inputs
//
//   - artifact: Firmware file name, e.g. "Blinky.elf".
//   - target: OpenOCD target config, e.g. "target/stm32f4x.cfg".
//
// # Outputs
//
//   - LaunchDocument: "STM32 Debug" and "STM32 Release" configurations.
func (b *Builder) BuildLaunch(artifact project.ArtifactName, target project.DebugTarget) LaunchDocument {
	configs := BuildConfigurations()
	doc := LaunchDocument{
		Version:        LaunchSchemaVersion,
		Configurations: make([]LaunchConfig, 0, len(configs)),
	}
	for _, c := range configs {
		doc.Configurations = append(doc.Configurations, LaunchConfig{
			Name:            c.LaunchName,
			Type:            DebuggerType,
			Request:         LaunchRequest,
			ServerType:      ServerTypeOpenOCD,
			Executable:      ExecutablePath(c, artifact),
			Cwd:             WorkspaceFolder,
			PreLaunchTask:   c.TaskLabel,
			RunToEntryPoint: b.opts.EntryPoint,
			ConfigFiles:     []string{b.opts.InterfaceConfig, target.String()},
		})
	}
	return doc
}

// BuildClangd returns the clangd configuration pointing at the Debug build folder.
func (b *Builder) BuildClangd() ClangdConfig {
	return ClangdConfig{
		CompileFlags: ClangdCompileFlags{CompilationDatabase: Debug.Folder()},
		Diagnostics:  ClangdDiagnostics{Suppress: []string{SuppressUnusedIncludes}},
	}
}

// ExecutablePath returns the workspace-relative path of the artifact built by c.
//
// Paths always use forward slashes so that generated files are identical
// across host platforms. The parts are concatenated, not cleaned: an
// artifact name containing "../" must still resolve under the folder of
// its own configuration.
func ExecutablePath(c BuildConfiguration, artifact project.ArtifactName) string {
	return WorkspaceFolder + "/" + c.Folder() + "/" + artifact.String()
}

// Validate checks the cross-references between a tasks and a launch document.
//
// # Outputs
//
//   - error: ErrDuplicateTaskLabel if two tasks share a label,
//     ErrUnknownPreLaunch if a launch record references a missing label.
func Validate(tasks TasksDocument, launch LaunchDocument) error {
	labels := make(map[string]struct{}, len(tasks.Tasks))
	for _, t := range tasks.Tasks {
		if _, dup := labels[t.Label]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateTaskLabel, t.Label)
		}
		labels[t.Label] = struct{}{}
	}
	for _, c := range launch.Configurations {
		if _, ok := labels[c.PreLaunchTask]; !ok {
			return fmt.Errorf("%w: %q in %q", ErrUnknownPreLaunch, c.PreLaunchTask, c.Name)
		}
	}
	return nil
}
