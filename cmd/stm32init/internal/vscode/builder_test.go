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
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/stm32init/cmd/stm32init/internal/project"
)

func TestBuilder_BuildTasks(t *testing.T) {
	doc := NewBuilder(Options{}).BuildTasks()

	assert.Equal(t, "2.0.0", doc.Version)
	require.Len(t, doc.Tasks, 2)
	assert.Equal(t, []string{"build-debug", "build-release"}, doc.Labels())

	assert.Equal(t, Task{
		Label:   "build-debug",
		Type:    "shell",
		Command: "cmake",
		Args:    []string{"--build", "--preset", "Debug"},
	}, doc.Tasks[0])
	assert.Equal(t, Task{
		Label:   "build-release",
		Type:    "shell",
		Command: "cmake",
		Args:    []string{"--build", "--preset", "Release"},
	}, doc.Tasks[1])
}

func TestBuilder_BuildLaunch(t *testing.T) {
	doc := NewBuilder(Options{}).BuildLaunch("Blinky.elf", "target/stm32f4x.cfg")

	assert.Equal(t, "0.2.0", doc.Version)
	require.Len(t, doc.Configurations, 2)

	debug := doc.Configurations[0]
	assert.Equal(t, LaunchConfig{
		Name:            "STM32 Debug",
		Type:            "cortex-debug",
		Request:         "launch",
		ServerType:      "openocd",
		Executable:      "${workspaceFolder}/build/Debug/Blinky.elf",
		Cwd:             "${workspaceFolder}",
		PreLaunchTask:   "build-debug",
		RunToEntryPoint: "main",
		ConfigFiles:     []string{"interface/stlink-v2.cfg", "target/stm32f4x.cfg"},
	}, debug)

	release := doc.Configurations[1]
	assert.Equal(t, "STM32 Release", release.Name)
	assert.Equal(t, "${workspaceFolder}/build/Release/Blinky.elf", release.Executable)
	assert.Equal(t, "build-release", release.PreLaunchTask)
	assert.Equal(t, debug.ConfigFiles, release.ConfigFiles)
}

func TestBuilder_Options(t *testing.T) {
	b := NewBuilder(Options{
		CMakeCommand:    "/opt/cmake/bin/cmake",
		InterfaceConfig: "interface/stlink.cfg",
		EntryPoint:      "Reset_Handler",
	})

	tasks := b.BuildTasks()
	assert.Equal(t, "/opt/cmake/bin/cmake", tasks.Tasks[0].Command)

	launch := b.BuildLaunch(project.DefaultArtifactName, project.DefaultTarget)
	for _, c := range launch.Configurations {
		assert.Equal(t, "Reset_Handler", c.RunToEntryPoint)
		assert.Equal(t, []string{"interface/stlink.cfg", "target/stm32f1x.cfg"}, c.ConfigFiles)
	}
}

func TestBuilder_ReferentialIntegrity(t *testing.T) {
	b := NewBuilder(Options{})
	tasks := b.BuildTasks()

	for _, family := range []string{"", "STM32H7", "STM32ZZ"} {
		for _, name := range []string{"", "Blinky"} {
			launch := b.BuildLaunch(project.ArtifactFor(name), project.ResolveTarget(family))
			require.NoError(t, Validate(tasks, launch))

			labels := tasks.Labels()
			for _, c := range launch.Configurations {
				assert.Contains(t, labels, c.PreLaunchTask)
				assert.True(t, strings.HasSuffix(c.Executable, project.ArtifactFor(name).String()))
			}
		}
	}
}

func TestValidate_Errors(t *testing.T) {
	b := NewBuilder(Options{})
	tasks := b.BuildTasks()
	launch := b.BuildLaunch("Blinky.elf", project.DefaultTarget)

	dup := tasks
	dup.Tasks = append([]Task{}, tasks.Tasks...)
	dup.Tasks[1].Label = dup.Tasks[0].Label
	assert.ErrorIs(t, Validate(dup, launch), ErrDuplicateTaskLabel)

	broken := launch
	broken.Configurations = append([]LaunchConfig{}, launch.Configurations...)
	broken.Configurations[0].PreLaunchTask = "build-all"
	assert.ErrorIs(t, Validate(tasks, broken), ErrUnknownPreLaunch)
}

func TestBuilder_BuildClangd(t *testing.T) {
	cfg := NewBuilder(Options{}).BuildClangd()
	assert.Equal(t, "build/Debug", cfg.CompileFlags.CompilationDatabase)
	assert.Equal(t, []string{"unused-includes"}, cfg.Diagnostics.Suppress)
}

func TestRenderTasks_JSONShape(t *testing.T) {
	data, err := RenderTasks(NewBuilder(Options{}).BuildTasks())
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(string(data), "}\n"))
	assert.Contains(t, string(data), "\n  \"tasks\": [\n")

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "2.0.0", raw["version"])
	assert.Len(t, raw["tasks"], 2)
}

func TestRenderLaunch_NoEscaping(t *testing.T) {
	data, err := RenderLaunch(NewBuilder(Options{}).BuildLaunch("Blinky.elf", "target/stm32f4x.cfg"))
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, `"executable": "${workspaceFolder}/build/Debug/Blinky.elf"`)
	assert.Contains(t, text, `"servertype": "openocd"`)
	assert.Contains(t, text, `"preLaunchTask": "build-release"`)

	var decoded LaunchDocument
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, NewBuilder(Options{}).BuildLaunch("Blinky.elf", "target/stm32f4x.cfg"), decoded)
}

func TestExecutablePath_KeepsArtifactVerbatim(t *testing.T) {
	assert.Equal(t, "${workspaceFolder}/build/Debug/Blinky.elf", ExecutablePath(Debug, "Blinky.elf"))

	launch := NewBuilder(Options{}).BuildLaunch("../x/Blinky.elf", "target/stm32f4x.cfg")
	require.Len(t, launch.Configurations, 2)
	assert.Equal(t, "${workspaceFolder}/build/Debug/../x/Blinky.elf", launch.Configurations[0].Executable)
	assert.Equal(t, "${workspaceFolder}/build/Release/../x/Blinky.elf", launch.Configurations[1].Executable)
	assert.NotEqual(t, launch.Configurations[0].Executable, launch.Configurations[1].Executable)
}

func TestRenderClangd(t *testing.T) {
	data, err := RenderClangd(NewBuilder(Options{}).BuildClangd())
	require.NoError(t, err)

	text := string(data)
	assert.True(t, strings.HasPrefix(text, "CompileFlags:\n  CompilationDatabase: build/Debug\n"))
	assert.Contains(t, text, "Diagnostics:\n  Suppress:\n")
	assert.Contains(t, text, "- unused-includes")

	var decoded map[string]map[string]any
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, "build/Debug", decoded["CompileFlags"]["CompilationDatabase"])
	assert.Equal(t, []any{"unused-includes"}, decoded["Diagnostics"]["Suppress"])
}

func TestRender_Deterministic(t *testing.T) {
	b := NewBuilder(Options{})
	first, err := RenderLaunch(b.BuildLaunch("Blinky.elf", "target/stm32f4x.cfg"))
	require.NoError(t, err)
	second, err := RenderLaunch(NewBuilder(Options{}).BuildLaunch("Blinky.elf", "target/stm32f4x.cfg"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
