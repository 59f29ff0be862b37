// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/AleutianAI/stm32init/cmd/stm32init/internal/initializer"
)

// =============================================================================
// STYLES
// =============================================================================

// Icon constants for status display.
const (
	iconSuccess = "✓"
	iconWarning = "⚠"
	iconError   = "✗"
	iconStep    = "→"
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleWarning = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleMuted   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleBox     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
)

// =============================================================================
// PRINTER
// =============================================================================

// printer writes user-facing output. Styling is applied only when the
// destination is a terminal, so pipes and tests see plain text.
type printer struct {
	w      io.Writer
	styled bool
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w, styled: isTerminal(w)}
}

// isTerminal reports whether w is a terminal file descriptor.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *printer) render(style lipgloss.Style, text string) string {
	if !p.styled {
		return text
	}
	return style.Render(text)
}

func (p *printer) Success(msg string) {
	fmt.Fprintln(p.w, p.render(styleSuccess, iconSuccess+" "+msg))
}

func (p *printer) Warning(msg string) {
	fmt.Fprintln(p.w, p.render(styleWarning, iconWarning+" "+msg))
}

func (p *printer) Failure(msg string) {
	fmt.Fprintln(p.w, p.render(styleError, iconError+" "+msg))
}

func (p *printer) Step(msg string) {
	fmt.Fprintln(p.w, p.render(styleMuted, iconStep+" "+msg))
}

func (p *printer) Title(msg string) {
	fmt.Fprintln(p.w, p.render(styleTitle, msg))
}

// JSON writes v as indented JSON.
func (p *printer) JSON(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Summary prints the outcome of an initialization run.
func (p *printer) Summary(result *initializer.Result) {
	var b strings.Builder
	row := func(label, value string) {
		fmt.Fprintf(&b, "%-14s %s\n", label+":", value)
	}

	row("Project", orNone(result.ProjectName))
	row("Artifact", result.ArtifactName)
	row("MCU family", orNone(result.MCUFamily))
	row("Debug target", result.DebugTarget)
	if len(result.FilesWritten) > 0 {
		row("Files written", strings.Join(result.FilesWritten, ", "))
	}
	if len(result.Configured) > 0 {
		row("Configured", strings.Join(result.Configured, ", "))
	}
	row("Duration", fmt.Sprintf("%dms", result.DurationMs))
	if result.TraceID != "" {
		row("Trace", result.TraceID)
	}

	body := strings.TrimRight(b.String(), "\n")
	if p.styled {
		body = styleBox.Render(body)
	}
	fmt.Fprintln(p.w, body)

	for _, warning := range result.Warnings {
		p.Warning(warning)
	}
}

// Documents prints the documents rendered by a dry run.
func (p *printer) Documents(result *initializer.Result) {
	for _, path := range []string{initializer.TasksPath, initializer.LaunchPath, initializer.ClangdPath} {
		content, ok := result.Documents[path]
		if !ok {
			continue
		}
		p.Title("--- " + path + " ---")
		fmt.Fprint(p.w, content)
		if !strings.HasSuffix(content, "\n") {
			fmt.Fprintln(p.w)
		}
	}
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

// errorOutput is the JSON shape of a failed command.
type errorOutput struct {
	APIVersion string `json:"api_version"`
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	ExitCode   int    `json:"exit_code"`
}
