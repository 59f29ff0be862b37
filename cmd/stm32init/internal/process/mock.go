// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package process

import (
	"context"
	"sync"
)

// MockRunner is a test double for Runner.
//
// Configure the mock by setting RunFunc before use. A nil RunFunc makes
// every call succeed.
//
// # Examples
//
//	mock := &MockRunner{
//	    RunFunc: func(ctx context.Context, cmd Command) error {
//	        if cmd.Args[1] == "Release" {
//	            return &ExitError{Command: cmd, Code: 1}
//	        }
//	        return nil
//	    },
//	}
type MockRunner struct {
	// RunFunc is called when Run is invoked
	RunFunc func(ctx context.Context, cmd Command) error

	// calls records all invocations for verification
	calls []Command

	// mu protects calls for concurrent access
	mu sync.Mutex
}

// Compile-time interface verification.
var _ Runner = (*MockRunner)(nil)

// Run records the call and delegates to RunFunc.
func (m *MockRunner) Run(ctx context.Context, cmd Command) error {
	m.mu.Lock()
	m.calls = append(m.calls, cmd)
	fn := m.RunFunc
	m.mu.Unlock()

	if fn == nil {
		return nil
	}
	return fn(ctx, cmd)
}

// Calls returns a copy of the recorded invocations.
func (m *MockRunner) Calls() []Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Command, len(m.calls))
	copy(out, m.calls)
	return out
}

// Reset clears recorded calls.
func (m *MockRunner) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}
