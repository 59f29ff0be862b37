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
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// File modes for created directories and documents.
const (
	dirMode  = 0o755
	fileMode = 0o644
)

// StorageWriter defines the interface for writing project files.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use on distinct paths.
type StorageWriter interface {
	// EnsureDir creates path and any missing parents. Existing
	// directories are left untouched.
	EnsureDir(path string) error

	// WriteFile creates or truncates path and writes data, creating the
	// parent directory if needed.
	WriteFile(path string, data []byte) error
}

// Storage implements StorageWriter on a billy filesystem.
//
// # Description
//
// Every failure is returned as a *StorageError carrying the operation
// and path, so callers can report which document could not be written.
type Storage struct {
	fs billy.Filesystem
}

// Compile-time interface verification.
var _ StorageWriter = (*Storage)(nil)

// NewStorage creates a Storage writing to fs.
func NewStorage(fs billy.Filesystem) *Storage {
	return &Storage{fs: fs}
}

// EnsureDir creates path and its parents.
func (s *Storage) EnsureDir(path string) error {
	if err := s.fs.MkdirAll(path, dirMode); err != nil {
		return &StorageError{Op: "mkdir", Path: path, Err: err}
	}
	return nil
}

// WriteFile overwrites path with data.
func (s *Storage) WriteFile(path string, data []byte) error {
	if err := s.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := util.WriteFile(s.fs, path, data, fileMode); err != nil {
		return &StorageError{Op: "write", Path: path, Err: err}
	}
	return nil
}
