package fsutil

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// ErrLockHeld indicates another imgpipe run holds the lock for the same tree.
var ErrLockHeld = errors.New("another run is already writing to this tree")

// RunLock is an exclusive flock(2) lock that keeps two runs from writing
// the same output tree at once. The lock is released when the process exits.
type RunLock struct {
	path string
	file *os.File
}

// NewRunLock creates a lock at the given lock file path.
func NewRunLock(path string) *RunLock {
	return &RunLock{path: path}
}

// NewTreeLock creates a lock keyed by the absolute path of root. The lock file
// lives in the system temp directory so nothing is written into the tree itself.
func NewTreeLock(root string) (*RunLock, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve lock root: %w", err)
	}
	sum := sha256.Sum256([]byte(abs))
	name := "imgpipe-" + hex.EncodeToString(sum[:8]) + ".lock"
	return NewRunLock(filepath.Join(os.TempDir(), name)), nil
}

// TryLock attempts to acquire the lock without blocking.
// Returns ErrLockHeld if another holder has it.
func (l *RunLock) TryLock() error {
	if err := l.open(); err != nil {
		return err
	}

	err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if err != nil {
		_ = l.file.Close()
		l.file = nil
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return ErrLockHeld
		}
		return fmt.Errorf("flock failed: %w", err)
	}

	return nil
}

// Unlock releases the lock. Calling it on an unlocked RunLock is a no-op.
func (l *RunLock) Unlock() error {
	if l.file == nil {
		return nil
	}

	err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil

	if err != nil {
		return fmt.Errorf("flock unlock failed: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("close failed: %w", closeErr)
	}
	return nil
}

// IsLocked returns true if this instance currently holds the lock.
func (l *RunLock) IsLocked() bool {
	return l.file != nil
}

// Path returns the lock file path.
func (l *RunLock) Path() string {
	return l.path
}

func (l *RunLock) open() error {
	if l.file != nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("failed to open lock file: %w", err)
	}
	l.file = file
	return nil
}
