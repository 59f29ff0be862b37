// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package vscode

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// RenderTasks encodes a tasks document as indented JSON.
func RenderTasks(doc TasksDocument) ([]byte, error) {
	return renderJSON(doc)
}

// RenderLaunch encodes a launch document as indented JSON.
func RenderLaunch(doc LaunchDocument) ([]byte, error) {
	return renderJSON(doc)
}

// RenderClangd encodes a clangd configuration as YAML.
func RenderClangd(cfg ClangdConfig) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encoding clangd config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding clangd config: %w", err)
	}
	return buf.Bytes(), nil
}

// renderJSON uses two-space indentation and a trailing newline. HTML
// escaping is off so "${workspaceFolder}" style values are written as-is.
func renderJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding %T: %w", v, err)
	}
	return buf.Bytes(), nil
}
