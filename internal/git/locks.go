package git

import (
	"path/filepath"
	"sync"
)

// LockTable serializes mutating git operations per repository path. Two
// operations against the same path run one at a time; operations against
// different paths proceed concurrently.
type LockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLockTable() *LockTable {
	return &LockTable{locks: make(map[string]*sync.Mutex)}
}

// lockFor returns the mutex for a path, creating it on first use. Paths
// are normalized so trailing slashes and relative forms share a lock.
func (t *LockTable) lockFor(path string) *sync.Mutex {
	key := normalizeLockPath(path)

	t.mu.Lock()
	defer t.mu.Unlock()

	if lock, exists := t.locks[key]; exists {
		return lock
	}

	lock := &sync.Mutex{}
	t.locks[key] = lock
	return lock
}

// Lock acquires the per-path lock, blocking until any in-flight operation
// on the same path completes
func (t *LockTable) Lock(path string) {
	t.lockFor(path).Lock()
}

// Unlock releases the per-path lock
func (t *LockTable) Unlock(path string) {
	t.lockFor(path).Unlock()
}

// WithLock runs fn while holding the per-path lock
func (t *LockTable) WithLock(path string, fn func() error) error {
	lock := t.lockFor(path)
	lock.Lock()
	defer lock.Unlock()
	return fn()
}

func normalizeLockPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return filepath.Clean(abs)
	}
	return filepath.Clean(path)
}
