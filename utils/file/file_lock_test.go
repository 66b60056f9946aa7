package file

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockUnlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shredscan.lock")

	l := NewFileLock(path)
	require.NoError(t, l.Lock())
	require.NoError(t, l.Unlock())

	// Unlock with no lock held is a no-op.
	assert.NoError(t, l.Unlock())
}

func TestSecondLockFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shredscan.lock")

	l1 := NewFileLock(path)
	require.NoError(t, l1.Lock())

	// flock is per open file description, so a second handle conflicts
	// even within one process.
	l2 := NewFileLock(path)
	assert.Error(t, l2.Lock())
	assert.True(t, IsLocked(path))

	require.NoError(t, l1.Unlock())
	assert.NoError(t, l2.Lock())
	assert.NoError(t, l2.Unlock())
	assert.False(t, IsLocked(path))
}

func TestLockBadPath(t *testing.T) {
	l := NewFileLock(filepath.Join(t.TempDir(), "missing-dir", "x.lock"))
	assert.Error(t, l.Lock())
}
