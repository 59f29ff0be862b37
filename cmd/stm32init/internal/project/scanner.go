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

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// familyKey is the .ioc key holding the MCU family, e.g. "STM32F4".
const familyKey = "Mcu.Family"

// projectNamePattern matches set(CMAKE_PROJECT_NAME <token>), case-insensitive.
var projectNamePattern = regexp.MustCompile(`(?i)set\s*\(\s*CMAKE_PROJECT_NAME\s+([^\s()]+)\s*\)`)

// Scanner reads a project's description files.
//
// # Description
//
// Scanner extracts the declared project name and the MCU family from the
// files in a project root. It only reads; it never creates or modifies files.
//
// # Thread Safety
//
// Scanner is safe for concurrent use if fsys is.
type Scanner struct {
	fsys   billy.Filesystem
	logger *slog.Logger
}

// NewScanner creates a Scanner over the given filesystem.
//
// # Inputs
//
//   - fsys: Filesystem used for all reads. Must not be nil.
//   - logger: Receives warnings for missing files and fields. Nil discards them.
func NewScanner(fsys billy.Filesystem, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scanner{fsys: fsys, logger: logger}
}

// Scan extracts a Descriptor from the project at root.
//
// # Description
//
// Reads root/CMakeLists.txt for the project name and the first *.ioc file
// in root (directory listing order) for the MCU family. Each missing file
// or field leaves the corresponding Descriptor field empty and adds a warning.
//
// # Inputs
//
//   - root: Project root directory on fsys.
//
// # Outputs
//
//   - Descriptor: Extracted facts. Always returned, possibly with empty fields.
//   - error: Non-nil only for unexpected read failures (permissions, I/O),
//     or when root itself cannot be listed.
//
// # Limitations
//
//   - With several .ioc files, the first in listing order is used. Listing
//     order is lexical for both the OS and in-memory filesystems.
func (s *Scanner) Scan(root string) (Descriptor, error) {
	var desc Descriptor

	if err := s.scanBuildFile(root, &desc); err != nil {
		return desc, err
	}
	if err := s.scanHardwareFile(root, &desc); err != nil {
		return desc, err
	}
	return desc, nil
}

func (s *Scanner) scanBuildFile(root string, desc *Descriptor) error {
	path := filepath.Join(root, BuildFileName)
	content, err := util.ReadFile(s.fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		s.warn(desc, fmt.Sprintf("%s not found, using default artifact name %q", BuildFileName, DefaultArtifactName),
			"path", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	desc.BuildFile = path

	name, ok := ExtractProjectName(string(content))
	if !ok {
		s.warn(desc, fmt.Sprintf("CMAKE_PROJECT_NAME not set in %s, using default artifact name %q", BuildFileName, DefaultArtifactName),
			"path", path)
		return nil
	}
	desc.DeclaredName = name
	return nil
}

func (s *Scanner) scanHardwareFile(root string, desc *Descriptor) error {
	path, err := s.findHardwareFile(root, desc)
	if err != nil {
		return err
	}
	if path == "" {
		s.warn(desc, fmt.Sprintf("no %s file found, using default target %s", HardwareFileExt, DefaultTarget),
			"root", root)
		return nil
	}

	content, err := util.ReadFile(s.fsys, path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	desc.HardwareFile = path

	family, ok := ParseMCUFamily(string(content))
	if !ok {
		s.warn(desc, fmt.Sprintf("%s not found in %s, using default target %s", familyKey, filepath.Base(path), DefaultTarget),
			"path", path)
		return nil
	}
	desc.MCUFamily = family
	return nil
}

// findHardwareFile returns the first regular *.ioc file in root, or "".
func (s *Scanner) findHardwareFile(root string, desc *Descriptor) (string, error) {
	entries, err := s.fsys.ReadDir(root)
	if err != nil {
		return "", fmt.Errorf("listing %s: %w", root, err)
	}

	var matches []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), HardwareFileExt) {
			continue
		}
		matches = append(matches, entry.Name())
	}

	switch len(matches) {
	case 0:
		return "", nil
	case 1:
	default:
		s.warn(desc, fmt.Sprintf("found %d %s files, using %s", len(matches), HardwareFileExt, matches[0]),
			"candidates", matches)
	}
	return filepath.Join(root, matches[0]), nil
}

func (s *Scanner) warn(desc *Descriptor, msg string, args ...any) {
	desc.Warnings = append(desc.Warnings, msg)
	s.logger.Warn(msg, args...)
}

// ExtractProjectName finds the first set(CMAKE_PROJECT_NAME <name>) directive.
//
// # Description
//
// The directive name is matched case-insensitively and whitespace around
// the parentheses is tolerated. The name is the run of characters up to
// the first whitespace or parenthesis.
//
// # Outputs
//
//   - string: The project name, or "" when no directive matches.
//   - bool: True if a directive was found.
func ExtractProjectName(text string) (string, bool) {
	m := projectNamePattern.FindStringSubmatch(text)
	if m == nil || m[1] == "" {
		return "", false
	}
	return m[1], true
}

// ParseMCUFamily extracts the Mcu.Family value from .ioc content.
//
// # Description
//
// Content is treated as newline-separated key=value lines (LF or CRLF).
// The last line whose trimmed key is Mcu.Family wins. The value is trimmed
// and upper-cased.
//
// # Outputs
//
//   - string: The family, e.g. "STM32F4", or "" when absent or empty.
//   - bool: True if a non-empty family was found.
func ParseMCUFamily(text string) (string, bool) {
	var family string
	for _, line := range strings.Split(text, "\n") {
		key, value, found := strings.Cut(strings.TrimSpace(line), "=")
		if !found || strings.TrimSpace(key) != familyKey {
			continue
		}
		family = strings.ToUpper(strings.TrimSpace(value))
	}
	return family, family != ""
}
