// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package vscode builds the editor configuration documents for an STM32
// CMake project:
//
//   - .vscode/tasks.json: one "cmake --build --preset" task per build configuration
//   - .vscode/launch.json: one cortex-debug/OpenOCD launch per build configuration
//   - .clangd: compilation database location and suppressed diagnostics
//
// The launch records name their build task in preLaunchTask, so the two
// JSON documents must be generated together. Validate checks that contract.
package vscode
