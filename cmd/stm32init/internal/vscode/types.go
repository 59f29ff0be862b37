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

// Schema versions expected by VS Code and cortex-debug. Passed through unchanged.
const (
	TasksSchemaVersion  = "2.0.0"
	LaunchSchemaVersion = "0.2.0"
)

// Fixed values of generated documents.
const (
	WorkspaceFolder        = "${workspaceFolder}"
	BuildDir               = "build"
	DefaultCMakeCommand    = "cmake"
	DefaultInterfaceConfig = "interface/stlink-v2.cfg"
	DefaultEntryPoint      = "main"
	TaskTypeShell          = "shell"
	DebuggerType           = "cortex-debug"
	LaunchRequest          = "launch"
	ServerTypeOpenOCD      = "openocd"
	SuppressUnusedIncludes = "unused-includes"
)

// BuildConfiguration describes one build variant and every name derived from it.
//
// # Fields
//
//   - Name: CMake preset and output folder name ("Debug", "Release").
//   - TaskLabel: Label of the build task; referenced by the launch record.
//   - LaunchName: Display name of the launch record.
type BuildConfiguration struct {
	Name       string
	TaskLabel  string
	LaunchName string
}

// Folder returns the output folder relative to the project root, e.g. "build/Debug".
func (c BuildConfiguration) Folder() string {
	return BuildDir + "/" + c.Name
}

// Build configurations, in generation order.
var (
	Debug = BuildConfiguration{
		Name:       "Debug",
		TaskLabel:  "build-debug",
		LaunchName: "STM32 Debug",
	}
	Release = BuildConfiguration{
		Name:       "Release",
		TaskLabel:  "build-release",
		LaunchName: "STM32 Release",
	}
)

// BuildConfigurations returns Debug and Release, in that order.
func BuildConfigurations() []BuildConfiguration {
	return []BuildConfiguration{Debug, Release}
}

// TasksDocument is the content of .vscode/tasks.json.
type TasksDocument struct {
	Version string `json:"version"`
	Tasks   []Task `json:"tasks"`
}

// Task is a single VS Code task.
type Task struct {
	Label   string   `json:"label"`
	Type    string   `json:"type"`
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

// Labels returns the task labels in document order.
func (d TasksDocument) Labels() []string {
	labels := make([]string, 0, len(d.Tasks))
	for _, t := range d.Tasks {
		labels = append(labels, t.Label)
	}
	return labels
}

// LaunchDocument is the content of .vscode/launch.json.
type LaunchDocument struct {
	Version        string         `json:"version"`
	Configurations []LaunchConfig `json:"configurations"`
}

// LaunchConfig is a single cortex-debug launch configuration.
type LaunchConfig struct {
	Name            string   `json:"name"`
	Type            string   `json:"type"`
	Request         string   `json:"request"`
	ServerType      string   `json:"servertype"`
	Executable      string   `json:"executable"`
	Cwd             string   `json:"cwd"`
	PreLaunchTask   string   `json:"preLaunchTask"`
	RunToEntryPoint string   `json:"runToEntryPoint"`
	ConfigFiles     []string `json:"configFiles"`
}

// ClangdConfig is the content of the project's .clangd file.
type ClangdConfig struct {
	CompileFlags ClangdCompileFlags `yaml:"CompileFlags"`
	Diagnostics  ClangdDiagnostics  `yaml:"Diagnostics"`
}

// ClangdCompileFlags is the CompileFlags section of .clangd.
type ClangdCompileFlags struct {
	CompilationDatabase string `yaml:"CompilationDatabase"`
}

// ClangdDiagnostics is the Diagnostics section of .clangd.
type ClangdDiagnostics struct {
	Suppress []string `yaml:"Suppress"`
}
