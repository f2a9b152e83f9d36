// Package filelock serializes writers of grader output files (reports and the
// history database) across processes, and writes files atomically so readers
// never observe a partial report.
package filelock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// DefaultRetryDelay is how often LockContext polls a held lock.
const DefaultRetryDelay = 50 * time.Millisecond

// ErrLockTimeout is returned when a lock is not acquired before the deadline.
var ErrLockTimeout = errors.New("timed out waiting for lock")

// FileLock wraps a flock file lock for coordinating access to files.
type FileLock struct {
	flock *flock.Flock
	path  string
}

// NewFileLock creates a new file lock for the given path.
// The lock file will be created at the specified path.
func NewFileLock(path string) *FileLock {
	return &FileLock{
		flock: flock.New(path),
		path:  path,
	}
}

// Path returns the lock file path.
func (fl *FileLock) Path() string {
	return fl.path
}

// Lock acquires an exclusive lock on the file, blocking until the lock is available.
func (fl *FileLock) Lock() error {
	if err := fl.flock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", fl.path, err)
	}
	return nil
}

// TryLock attempts to acquire an exclusive lock on the file without blocking.
// Returns true if the lock was acquired, false if the lock is held elsewhere.
func (fl *FileLock) TryLock() (bool, error) {
	acquired, err := fl.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to try lock on %s: %w", fl.path, err)
	}
	return acquired, nil
}

// LockContext polls for the lock every retryDelay until it is acquired or ctx
// is done. A ctx deadline is reported as ErrLockTimeout.
func (fl *FileLock) LockContext(ctx context.Context, retryDelay time.Duration) error {
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}

	acquired, err := fl.flock.TryLockContext(ctx, retryDelay)
	if acquired {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("lock %s: %w", fl.path, ErrLockTimeout)
	}
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", fl.path, err)
	}
	return fmt.Errorf("lock %s: %w", fl.path, ErrLockTimeout)
}

// Unlock releases the lock.
func (fl *FileLock) Unlock() error {
	if err := fl.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", fl.path, err)
	}
	return nil
}

// WithLock runs fn while holding the lock at lockPath. The lock's parent
// directory is created if needed. A free lock is taken immediately; otherwise
// WithLock polls until ctx is done.
func WithLock(ctx context.Context, lockPath string, fn func() error) error {
	lock := NewFileLock(lockPath)
	if err := os.MkdirAll(filepath.Dir(lock.Path()), 0755); err != nil {
		return fmt.Errorf("failed to create directory for lock %s: %w", lock.Path(), err)
	}

	acquired, err := lock.TryLock()
	if err != nil {
		return err
	}
	if !acquired {
		if err := lock.LockContext(ctx, DefaultRetryDelay); err != nil {
			return err
		}
	}
	defer lock.Unlock()

	return fn()
}

// AtomicWrite writes data to path through a temp file in the same directory
// followed by a rename, so the target is either the old or the new content.
// Parent directories are created as needed.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	committed := false
	defer func() {
		if !committed {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}

	committed = true
	return nil
}

// LockAndWrite atomically writes path while holding "<path>.lock". The lock
// file is removed afterwards.
func LockAndWrite(path string, data []byte) error {
	lockPath := path + ".lock"
	lock := NewFileLock(lockPath)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := lock.Lock(); err != nil {
		return err
	}
	defer func() {
		lock.Unlock()
		os.Remove(lockPath)
	}()

	return AtomicWrite(path, data)
}
