// Package file provides file utilities; currently a flock-based process
// lock used to keep two ingesters off the same feed.
package file

import (
	"fmt"
	"io/fs"
	"os"
	"syscall"
)

// _fileMode is the mode for created lock files (owner read/write).
var _fileMode fs.FileMode = 0o600

// FileLock is an exclusive advisory lock on a file.
type FileLock struct {
	Path string   // Path of the lock file.
	File *os.File // Handle holding the lock.
}

// NewFileLock creates a FileLock for the given path. The lock is not
// taken until Lock.
func NewFileLock(p string) *FileLock {
	return &FileLock{Path: p}
}

// IsLocked reports whether another process currently holds the lock.
// Any lock taken for the probe is released before returning.
func IsLocked(p string) bool {
	fl := NewFileLock(p)
	if err := fl.Lock(); err != nil {
		return true
	}
	_ = fl.Unlock()
	return false
}

// Lock acquires the exclusive lock, creating the file if needed.
// Non-blocking; an error means another process holds it.
func (l *FileLock) Lock() error {
	f, err := os.OpenFile(l.Path, os.O_RDWR|os.O_CREATE, _fileMode)
	if err != nil {
		return err
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		return fmt.Errorf("file '%s' is locked by another process", l.Path)
	}
	l.File = f
	return nil
}

// Unlock releases the lock and closes the handle.
func (l *FileLock) Unlock() error {
	if l.File == nil {
		return nil
	}
	defer func() {
		_ = l.File.Close()
		l.File = nil
	}()
	return syscall.Flock(int(l.File.Fd()), syscall.LOCK_UN|syscall.LOCK_NB)
}
