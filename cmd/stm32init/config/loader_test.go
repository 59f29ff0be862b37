// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig_IsValid(t *testing.T) {
	assert.NoError(t, Validate(DefaultConfig()))
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFile_MissingFileIsError(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), FileName))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
cmake:
  binary: /opt/cmake/bin/cmake
debug:
  entry_point: Reset_Handler
logging:
  level: debug
  json: true
tracing:
  enabled: true
watch:
  debounce: 2s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/opt/cmake/bin/cmake", cfg.CMake.Binary)
	assert.Equal(t, "Reset_Handler", cfg.Debug.EntryPoint)
	assert.Equal(t, "interface/stlink-v2.cfg", cfg.Debug.InterfaceConfig)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.JSON)
	assert.Empty(t, cfg.Logging.Dir)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
}

func TestParse_EmptyDocument(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantMsg string
		invalid bool
	}{
		{
			name:    "empty cmake binary",
			yaml:    "cmake:\n  binary: \"\"\n",
			wantMsg: "cmake.binary: failed required",
			invalid: true,
		},
		{
			name:    "interface config without .cfg",
			yaml:    "debug:\n  interface_config: interface/stlink-v2\n",
			wantMsg: "debug.interface_config: failed endswith=.cfg",
			invalid: true,
		},
		{
			name:    "unknown log level",
			yaml:    "logging:\n  level: verbose\n",
			wantMsg: "logging.level: failed oneof",
			invalid: true,
		},
		{
			name:    "debounce too long",
			yaml:    "watch:\n  debounce: 5m\n",
			wantMsg: "watch.debounce: failed lte=1m",
			invalid: true,
		},
		{
			name:    "unknown key",
			yaml:    "debug:\n  entrypoint: main\n",
			wantMsg: "entrypoint",
		},
		{
			name:    "malformed yaml",
			yaml:    "cmake: [binary\n",
			wantMsg: "parsing yaml",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Equal(t, tt.invalid, errors.Is(err, ErrInvalidConfig))
		})
	}
}

func TestValidate_LogLevelIgnoresCase(t *testing.T) {
	for _, level := range []string{"WARN", "Debug", " error ", "Warning"} {
		t.Run(level, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Logging.Level = level
			assert.NoError(t, Validate(cfg))
		})
	}

	cfg, err := Parse([]byte("logging:\n  level: INFO\n"))
	require.NoError(t, err)
	assert.Equal(t, "INFO", cfg.Logging.Level)
}

func TestLoadFile_ErrorNamesPath(t *testing.T) {
	path := writeConfig(t, "cmake:\n  binary: \"\"\n")
	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
