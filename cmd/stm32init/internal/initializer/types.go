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
	"path"

	"github.com/AleutianAI/stm32init/cmd/stm32init/internal/vscode"
)

// APIVersion is the JSON output API version.
const APIVersion = "1.0"

// Files and directories written into the project root.
const (
	VSCodeDir      = ".vscode"
	TasksFileName  = "tasks.json"
	LaunchFileName = "launch.json"
	ClangdFileName = ".clangd"
	LockFileName   = ".stm32init.lock"
)

// Document paths relative to the project root, slash-separated.
var (
	TasksPath  = path.Join(VSCodeDir, TasksFileName)
	LaunchPath = path.Join(VSCodeDir, LaunchFileName)
	ClangdPath = ClangdFileName
)

// Config holds initialization configuration.
//
// # Fields
//
//   - ProjectRoot: Absolute path to the project root. Must not be empty.
//   - CMakeBinary: Executable used for `--preset` runs and in tasks.json.
//   - InterfaceConfig: OpenOCD probe interface config for launch.json.
//   - EntryPoint: Symbol the debugger runs to after reset.
//   - DryRun: If true, render documents without touching disk or running cmake.
//   - SkipConfigure: If true, write documents but do not run cmake.
type Config struct {
	ProjectRoot     string
	CMakeBinary     string
	InterfaceConfig string
	EntryPoint      string
	DryRun          bool
	SkipConfigure   bool
}

// DefaultConfig returns a Config with the standard cmake, probe and entry point.
func DefaultConfig(projectRoot string) Config {
	return Config{
		ProjectRoot:     projectRoot,
		CMakeBinary:     vscode.DefaultCMakeCommand,
		InterfaceConfig: vscode.DefaultInterfaceConfig,
		EntryPoint:      vscode.DefaultEntryPoint,
	}
}

// Validate checks that the Config has valid field values.
func (c Config) Validate() error {
	if c.ProjectRoot == "" {
		return ErrEmptyProjectRoot
	}
	if c.CMakeBinary == "" {
		return ErrEmptyCMakeBinary
	}
	return nil
}

// Result holds the initialization result.
//
// # Fields
//
//   - RunID: Unique id of this run, also attached to every log line.
//   - TraceID: OpenTelemetry trace id when tracing is enabled.
//   - ProjectName: Name declared in CMakeLists.txt, empty if none.
//   - ArtifactName: Executable file name used in launch.json.
//   - MCUFamily: Family read from the .ioc file, empty if none.
//   - DebugTarget: OpenOCD target config used in launch.json.
//   - FilesWritten: Documents written, relative to ProjectRoot.
//   - Configured: Presets for which cmake succeeded, in order.
//   - Warnings: Non-fatal issues encountered.
//   - Documents: Rendered documents keyed by relative path (dry run only).
type Result struct {
	APIVersion   string            `json:"api_version"`
	RunID        string            `json:"run_id"`
	TraceID      string            `json:"trace_id,omitempty"`
	ProjectRoot  string            `json:"project_root"`
	ProjectName  string            `json:"project_name,omitempty"`
	ArtifactName string            `json:"artifact_name"`
	MCUFamily    string            `json:"mcu_family,omitempty"`
	DebugTarget  string            `json:"debug_target"`
	FilesWritten []string          `json:"files_written"`
	Configured   []string          `json:"configured"`
	Warnings     []string          `json:"warnings,omitempty"`
	DurationMs   int64             `json:"duration_ms"`
	DryRun       bool              `json:"dry_run"`
	Documents    map[string]string `json:"documents,omitempty"`
}

// NewResult creates a new Result with the API version set.
func NewResult() *Result {
	return &Result{
		APIVersion:   APIVersion,
		FilesWritten: make([]string, 0),
		Configured:   make([]string, 0),
		Warnings:     make([]string, 0),
	}
}

// Phases reported through ProgressCallback, in order.
const (
	PhaseFolders   = "folders"
	PhaseScanning  = "scanning"
	PhaseResolving = "resolving"
	PhaseWriting   = "writing"
	PhaseConfigure = "configuring"
	PhaseComplete  = "complete"
)

// Progress represents initialization progress.
type Progress struct {
	Phase   string
	Detail  string // File or preset being processed, if any
	Percent int
}

// ProgressCallback is called during initialization with progress updates.
type ProgressCallback func(Progress)
