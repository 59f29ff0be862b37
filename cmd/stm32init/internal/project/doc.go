// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package project detects what an STM32 project is called and which
// microcontroller family it targets.
//
// Two files are consulted, both read-only:
//   - CMakeLists.txt: searched for set(CMAKE_PROJECT_NAME <name>)
//   - *.ioc: STM32CubeMX key=value metadata, key Mcu.Family
//
// Missing files or fields are not errors. They produce an empty field in
// the Descriptor and a warning; callers apply the documented defaults via
// ArtifactFor and ResolveTarget.
//
// # Thread Safety
//
// Scanner holds no mutable state and is safe for concurrent use as long as
// the underlying filesystem is.
package project
