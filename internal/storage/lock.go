package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// WriteLock is a cross-process lock guarding one index file, so a watcher
// and a manual generate never interleave their writes. The lock file is a
// dotfile next to the index and is left in place after unlocking.
type WriteLock struct {
	path  string
	flock *flock.Flock
}

// NewWriteLock returns the lock for the index at indexPath.
func NewWriteLock(indexPath string) *WriteLock {
	lockPath := filepath.Join(filepath.Dir(indexPath), "."+filepath.Base(indexPath)+".lock")
	return &WriteLock{
		path:  lockPath,
		flock: flock.New(lockPath),
	}
}

// Lock blocks until the lock is held.
func (l *WriteLock) Lock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}
	if err := l.flock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	return nil
}

// TryLock acquires the lock without blocking. It reports false when another
// process (or another WriteLock on the same path) holds it.
func (l *WriteLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}
	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	return acquired, nil
}

// Unlock releases the lock. Unlocking an unheld lock is a no-op.
func (l *WriteLock) Unlock() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Path returns the lock file location.
func (l *WriteLock) Path() string {
	return l.path
}
