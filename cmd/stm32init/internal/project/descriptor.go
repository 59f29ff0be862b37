// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package project

import "strings"

const (
	// BuildFileName is the build-description file looked up in the project root.
	BuildFileName = "CMakeLists.txt"

	// HardwareFileExt is the extension of STM32CubeMX hardware-description files.
	HardwareFileExt = ".ioc"

	// ArtifactExt is appended to the declared project name.
	ArtifactExt = ".elf"

	// DefaultArtifactName is used when no project name can be detected.
	DefaultArtifactName ArtifactName = "firmware" + ArtifactExt
)

// ArtifactName is the file name of the compiled firmware image.
//
// Values produced by ArtifactFor are never empty and always end in ArtifactExt.
type ArtifactName string

// String implements fmt.Stringer.
func (a ArtifactName) String() string {
	return string(a)
}

// Descriptor holds the facts extracted from a project's description files.
//
// # Fields
//
//   - DeclaredName: Project name from CMakeLists.txt. Empty when absent.
//   - MCUFamily: Upper-cased Mcu.Family value from the .ioc file. Empty when absent.
//   - BuildFile: Path of the CMakeLists.txt that was read. Empty when absent.
//   - HardwareFile: Path of the .ioc file that was read. Empty when absent.
//   - Warnings: Human-readable notes about missing files or fields.
type Descriptor struct {
	DeclaredName string
	MCUFamily    string
	BuildFile    string
	HardwareFile string
	Warnings     []string
}

// HasName reports whether a project name was found.
func (d Descriptor) HasName() bool {
	return d.DeclaredName != ""
}

// HasFamily reports whether an MCU family was found.
func (d Descriptor) HasFamily() bool {
	return d.MCUFamily != ""
}

// ArtifactFor derives the artifact file name from a declared project name.
//
// # Description
//
// Returns "<declared>.elf", or DefaultArtifactName when declared is empty
// or only whitespace.
//
// # Examples
//
//	ArtifactFor("Blinky") // "Blinky.elf"
//	ArtifactFor("")       // "firmware.elf"
func ArtifactFor(declared string) ArtifactName {
	declared = strings.TrimSpace(declared)
	if declared == "" {
		return DefaultArtifactName
	}
	return ArtifactName(declared + ArtifactExt)
}
