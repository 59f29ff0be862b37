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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/AleutianAI/stm32init/cmd/stm32init/internal/vscode"
)

// Locker serializes Init runs on the same project.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type Locker interface {
	// Lock acquires the project lock and returns the function that
	// releases it. Returns ErrLockHeld when another process holds it.
	Lock(projectRoot string) (unlock func(), err error)
}

// NoOpLocker never blocks. It is the default for library callers.
type NoOpLocker struct{}

// Compile-time interface verification.
var _ Locker = NoOpLocker{}

// Lock always succeeds.
func (NoOpLocker) Lock(string) (func(), error) {
	return func() {}, nil
}

// FlockLocker implements Locker with an advisory flock(2) lock file at
// <root>/build/.stm32init.lock.
//
// The kernel drops a flock when its holder exits, so a lock that cannot be
// taken always belongs to a live process and is never removed. A lock file
// left behind by a crashed process does not block Acquire; it is only
// reported.
type FlockLocker struct {
	logger *slog.Logger
}

// Compile-time interface verification.
var _ Locker = (*FlockLocker)(nil)

// NewFlockLocker creates a FlockLocker. A nil logger discards output.
func NewFlockLocker(logger *slog.Logger) *FlockLocker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FlockLocker{logger: logger}
}

// Lock acquires the lock file for projectRoot.
//
// # Outputs
//
//   - func(): Releases the lock. Safe to call once.
//   - error: ErrLockHeld (with the holder PID when known) if another live
//     process holds the lock.
func (f *FlockLocker) Lock(projectRoot string) (func(), error) {
	lock, err := NewFileLock(projectRoot)
	if err != nil {
		return nil, err
	}

	if lock.IsStale() {
		f.logger.Info("reclaiming lock left by exited process", "path", lock.Path(), "holder_pid", lock.HolderPID())
	}

	if err := lock.Acquire(); err != nil {
		if errors.Is(err, ErrLockHeld) {
			if pid := lock.HolderPID(); pid > 0 {
				return nil, fmt.Errorf("%w (pid %d)", ErrLockHeld, pid)
			}
		}
		return nil, err
	}

	return func() {
		if err := lock.Release(); err != nil {
			f.logger.Warn("releasing lock", "path", lock.Path(), "error", err)
		}
	}, nil
}

// FileLock is an advisory lock file held for the duration of one Init.
//
// # Thread Safety
//
// FileLock is NOT safe for concurrent use. Each goroutine should have its own instance.
//
// # Platform Support
//
// Uses flock(2) and therefore requires a Unix host. The lock lives on the
// real filesystem even when Init writes through an in-memory one.
type FileLock struct {
	path string
	file *os.File
}

// NewFileLock creates a FileLock for projectRoot without acquiring it.
//
// # Outputs
//
//   - *FileLock: The lock instance (not yet acquired).
//   - error: ErrEmptyProjectRoot if projectRoot is empty.
func NewFileLock(projectRoot string) (*FileLock, error) {
	if projectRoot == "" {
		return nil, ErrEmptyProjectRoot
	}
	return &FileLock{path: filepath.Join(projectRoot, vscode.BuildDir, LockFileName)}, nil
}

// Path returns the lock file path.
func (l *FileLock) Path() string {
	return l.path
}

// Acquire attempts to acquire an exclusive lock without blocking.
//
// # Description
//
// Creates the build directory and lock file if needed, then takes an
// exclusive flock. The holder's PID is written into the file so a second
// process can report who holds it.
//
// # Outputs
//
//   - error: ErrLockHeld if the lock is held, or ErrLockAcquireFailed wrapping the cause.
func (l *FileLock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), dirMode); err != nil {
		return fmt.Errorf("%w: creating lock directory: %v", ErrLockAcquireFailed, err)
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, fileMode)
	if err != nil {
		return fmt.Errorf("%w: opening lock file: %v", ErrLockAcquireFailed, err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		file.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return ErrLockHeld
		}
		return fmt.Errorf("%w: flock: %v", ErrLockAcquireFailed, err)
	}

	// PID is informational only; a failed write does not invalidate the lock.
	_ = file.Truncate(0)
	_, _ = file.Seek(0, 0)
	_, _ = fmt.Fprintf(file, "pid=%d\ntime=%s\n", os.Getpid(), time.Now().Format(time.RFC3339))

	l.file = file
	return nil
}

// Release releases the lock and removes the lock file.
//
// Safe to call multiple times or on an unacquired lock.
func (l *FileLock) Release() error {
	if l.file == nil {
		return nil
	}

	_ = syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	err := l.file.Close()
	l.file = nil
	_ = os.Remove(l.path)

	return err
}

// IsHeld reports whether another process currently holds the lock.
func (l *FileLock) IsHeld() (bool, error) {
	info, err := os.Stat(l.path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return false, fmt.Errorf("lock path %s is a directory", l.path)
	}

	file, err := os.OpenFile(l.path, os.O_RDWR, fileMode)
	if err != nil {
		return false, err
	}
	defer file.Close()

	err = syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if errors.Is(err, syscall.EWOULDBLOCK) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	_ = syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
	return false, nil
}

// HolderPID returns the PID recorded in the lock file, or 0 if unknown.
func (l *FileLock) HolderPID() int {
	content, err := os.ReadFile(l.path)
	if err != nil {
		return 0
	}
	var pid int
	if _, err := fmt.Sscanf(string(content), "pid=%d", &pid); err != nil {
		return 0
	}
	return pid
}

// IsStale reports whether a lock file exists that no live process holds
// and whose recorded holder has exited. A file whose flock is held is
// never stale, whatever its age.
func (l *FileLock) IsStale() bool {
	held, err := l.IsHeld()
	if err != nil || held {
		return false
	}
	if _, err := os.Stat(l.path); err != nil {
		return false
	}

	pid := l.HolderPID()
	if pid <= 0 {
		return true
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return true
	}
	// Signal 0 checks existence without delivering anything.
	return process.Signal(syscall.Signal(0)) != nil
}
