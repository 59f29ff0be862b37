// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package initializer implements the `stm32init init` operation.
//
// Init prepares an STM32 CMake project for VS Code:
//   - build/Debug, build/Release: output folders
//   - .vscode/tasks.json: build-debug and build-release tasks
//   - .vscode/launch.json: cortex-debug launch records using OpenOCD
//   - .clangd: points clangd at the Debug compilation database
//
// and then runs `cmake --preset Debug` and `cmake --preset Release` in the
// project root.
//
// # Pipeline
//
//	┌─────────┐   ┌─────────┐   ┌──────────┐   ┌─────────┐   ┌───────────┐
//	│ folders │──▶│  scan   │──▶│ resolve  │──▶│  write  │──▶│ configure │
//	└─────────┘   └─────────┘   └──────────┘   └─────────┘   └───────────┘
//
// Steps run strictly in order. The first failure aborts the run; anything
// already written stays on disk.
//
// # Thread Safety
//
// The Initializer is safe for concurrent use on different projects. Two
// runs on the same project are serialized only when a FlockLocker is
// configured; otherwise the last writer wins.
package initializer
