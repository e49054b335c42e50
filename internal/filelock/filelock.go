// Package filelock serializes writers of result directories across
// processes and writes report files atomically.
package filelock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// RetryDelay is how often a blocked Lock retries.
const RetryDelay = 50 * time.Millisecond

// Lock is an exclusive advisory lock held on a lock file.
type Lock struct {
	flock *flock.Flock
	path  string
}

// New returns a lock on path. The file is created on first use.
func New(path string) *Lock {
	return &Lock{flock: flock.New(path), path: path}
}

// ForDir returns the lock guarding the files of dir.
func ForDir(dir string) *Lock {
	return New(filepath.Join(dir, ".lock"))
}

// Lock blocks until the lock is acquired or ctx is done.
func (l *Lock) Lock(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}
	ok, err := l.flock.TryLockContext(ctx, RetryDelay)
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", l.path, err)
	}
	if !ok {
		return fmt.Errorf("failed to acquire lock on %s", l.path)
	}
	return nil
}

// TryLock acquires the lock without blocking. It returns false when
// another process holds it.
func (l *Lock) TryLock() (bool, error) {
	ok, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to try lock on %s: %w", l.path, err)
	}
	return ok, nil
}

// Unlock releases the lock.
func (l *Lock) Unlock() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}

// Path returns the lock file.
func (l *Lock) Path() string {
	return l.path
}

// WriteFile replaces path with data. Readers see either the old or the
// new content, never a partial file.
func WriteFile(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err = os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}
	return nil
}

// WriteFiles writes every file into dir while holding the directory's
// lock. files maps base names to content.
func WriteFiles(ctx context.Context, dir string, files map[string][]byte) error {
	lock := ForDir(dir)
	if err := lock.Lock(ctx); err != nil {
		return err
	}
	defer lock.Unlock()

	for name, data := range files {
		if err := WriteFile(filepath.Join(dir, name), data); err != nil {
			return err
		}
	}
	return nil
}
