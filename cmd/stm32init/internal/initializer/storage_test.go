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
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage_EnsureDir_Idempotent(t *testing.T) {
	fsys := memfs.New()
	storage := NewStorage(fsys)

	require.NoError(t, storage.EnsureDir("/p/build/Debug"))
	require.NoError(t, storage.EnsureDir("/p/build/Debug"))

	info, err := fsys.Stat("/p/build/Debug")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestStorage_WriteFile_CreatesParentAndTruncates(t *testing.T) {
	fsys := memfs.New()
	storage := NewStorage(fsys)
	path := "/p/.vscode/tasks.json"

	require.NoError(t, storage.WriteFile(path, []byte("a much longer first version\n")))
	require.NoError(t, storage.WriteFile(path, []byte("short\n")))

	data, err := util.ReadFile(fsys, path)
	require.NoError(t, err)
	assert.Equal(t, "short\n", string(data))
}

func TestStorage_WriteFile_Error(t *testing.T) {
	root := t.TempDir()
	// A regular file where the .vscode directory should be.
	require.NoError(t, os.WriteFile(filepath.Join(root, ".vscode"), nil, 0o644))

	storage := NewStorage(osfs.New("/"))
	err := storage.WriteFile(filepath.Join(root, ".vscode", "tasks.json"), []byte("{}"))
	require.Error(t, err)

	var storageErr *StorageError
	require.True(t, errors.As(err, &storageErr))
	assert.Equal(t, "mkdir", storageErr.Op)
	assert.Equal(t, filepath.Join(root, ".vscode"), storageErr.Path)
	assert.NotNil(t, errors.Unwrap(err))
}
