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

import "sort"

// DebugTarget is an OpenOCD target configuration path, e.g. "target/stm32f4x.cfg".
//
// Values returned by this package are always drawn from the family table
// or equal DefaultTarget.
type DebugTarget string

// String implements fmt.Stringer.
func (t DebugTarget) String() string {
	return string(t)
}

// DefaultTarget is used when the family is absent or not in the table.
const DefaultTarget DebugTarget = "target/stm32f1x.cfg"

// familyTargets maps Mcu.Family values to OpenOCD target configs.
// Read-only after init.
var familyTargets = map[string]DebugTarget{
	"STM32F0": "target/stm32f0x.cfg",
	"STM32F1": "target/stm32f1x.cfg",
	"STM32F2": "target/stm32f2x.cfg",
	"STM32F3": "target/stm32f3x.cfg",
	"STM32F4": "target/stm32f4x.cfg",
	"STM32F7": "target/stm32f7x.cfg",
	"STM32G0": "target/stm32g0x.cfg",
	"STM32G4": "target/stm32g4x.cfg",
	"STM32H7": "target/stm32h7x.cfg",
	"STM32L0": "target/stm32l0.cfg",
	"STM32L1": "target/stm32l1.cfg",
	"STM32L4": "target/stm32l4x.cfg",
	"STM32L5": "target/stm32l5x.cfg",
	"STM32WB": "target/stm32wbx.cfg",
	"STM32WL": "target/stm32wlx.cfg",
}

// LookupTarget returns the target config for an MCU family.
//
// # Description
//
// Performs an exact, case-sensitive lookup. Callers pass families already
// upper-cased by the Scanner.
//
// # Outputs
//
//   - DebugTarget: The mapped target, or DefaultTarget when not found.
//   - bool: True if family was in the table.
func LookupTarget(family string) (DebugTarget, bool) {
	target, ok := familyTargets[family]
	if !ok {
		return DefaultTarget, false
	}
	return target, true
}

// ResolveTarget returns the target config for family, falling back to
// DefaultTarget for an empty or unrecognised family.
func ResolveTarget(family string) DebugTarget {
	target, _ := LookupTarget(family)
	return target
}

// FamilyTarget pairs a family with its target config.
type FamilyTarget struct {
	Family string      `json:"family"`
	Target DebugTarget `json:"target"`
}

// SupportedFamilies returns the family table sorted by family name.
func SupportedFamilies() []FamilyTarget {
	out := make([]FamilyTarget, 0, len(familyTargets))
	for family, target := range familyTargets {
		out = append(out, FamilyTarget{Family: family, Target: target})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Family < out[j].Family
	})
	return out
}
