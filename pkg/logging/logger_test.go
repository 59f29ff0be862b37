// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Level Tests
// =============================================================================

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.level.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{" warn ", LevelWarn},
		{"warning", LevelWarn},
		{"Error", LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLevel("verbose")
	assert.ErrorIs(t, err, ErrUnknownLevel)
}

// =============================================================================
// Logger Tests
// =============================================================================

func TestNew_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: LevelWarn, Service: "stm32init", Output: &buf})
	require.NoError(t, err)
	defer logger.Close()

	logger.Slog().Info("hidden")
	logger.Slog().Warn("no .ioc file found", "root", "/p")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, `msg="no .ioc file found"`)
	assert.Contains(t, out, "service=stm32init")
	assert.Contains(t, out, "root=/p")
	assert.Empty(t, logger.LogPath())
}

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: LevelDebug, JSON: true, Output: &buf})
	require.NoError(t, err)

	logger.Slog().With("run_id", "r1").Debug("wrote document", "bytes", 42)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "DEBUG", record["level"])
	assert.Equal(t, "wrote document", record["msg"])
	assert.Equal(t, "r1", record["run_id"])
	assert.EqualValues(t, 42, record["bytes"])
}

func TestNew_Quiet(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Quiet: true, Output: &buf})
	require.NoError(t, err)

	logger.Slog().Error("dropped")
	assert.Empty(t, buf.String())
}

func TestNew_FileLogging(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var console bytes.Buffer
	logger, err := New(Config{Level: LevelInfo, LogDir: dir, Service: "stm32init", Output: &console})
	require.NoError(t, err)

	logger.Slog().Info("project initialized", "artifact", "Blinky.elf")
	path := logger.LogPath()
	require.NoError(t, logger.Close())
	require.NoError(t, logger.Close())

	assert.True(t, strings.HasPrefix(filepath.Base(path), "stm32init_"))
	assert.Contains(t, console.String(), "project initialized")

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	scanner := bufio.NewScanner(file)
	require.True(t, scanner.Scan())
	var record map[string]any
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &record))
	assert.Equal(t, "project initialized", record["msg"])
	assert.Equal(t, "Blinky.elf", record["artifact"])
	assert.Equal(t, "stm32init", record["service"])
}

func TestNew_FileLoggingFailureKeepsConsole(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	var console bytes.Buffer
	logger, err := New(Config{LogDir: filepath.Join(blocker, "logs"), Output: &console})
	require.Error(t, err)
	require.NotNil(t, logger)

	logger.Slog().Info("still logging")
	assert.Contains(t, console.String(), "still logging")
	assert.NoError(t, logger.Close())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".stm32init/logs"), expandPath("~/.stm32init/logs"))
	assert.Equal(t, "/var/log", expandPath("/var/log"))
	assert.Equal(t, "~user/logs", expandPath("~user/logs"))
}
