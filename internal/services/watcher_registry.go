package services

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/hong-ai/hong/internal/models"
)

// WatcherRegistry hands out one WorktreeWatcher per worktree path. It is
// constructed explicitly and passed to whoever needs it; nothing in this
// package holds a global instance.
type WatcherRegistry struct {
	mu       sync.Mutex
	watchers map[string]*WorktreeWatcher
}

// NewWatcherRegistry creates an empty registry
func NewWatcherRegistry() *WatcherRegistry {
	return &WatcherRegistry{
		watchers: make(map[string]*WorktreeWatcher),
	}
}

func registryKey(worktreePath string) string {
	if abs, err := filepath.Abs(worktreePath); err == nil {
		return abs
	}
	return filepath.Clean(worktreePath)
}

// GetOrCreate returns the watcher for a path, creating one if none exists.
// A previously disposed watcher is replaced rather than handed back.
func (r *WatcherRegistry) GetOrCreate(worktreePath string) *WorktreeWatcher {
	key := registryKey(worktreePath)

	r.mu.Lock()
	defer r.mu.Unlock()

	if w, ok := r.watchers[key]; ok && w.State() != "disposed" {
		return w
	}
	w := NewWorktreeWatcher(worktreePath)
	r.watchers[key] = w
	return w
}

// Has reports whether a live watcher exists for the path
func (r *WatcherRegistry) Has(worktreePath string) bool {
	key := registryKey(worktreePath)

	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.watchers[key]
	return ok && w.State() != "disposed"
}

// Subscribe attaches a callback to the path's watcher, waiting for it to
// become ready first so no event after that point is missed. The returned
// closure detaches the callback.
func (r *WatcherRegistry) Subscribe(ctx context.Context, worktreePath string, cb func(models.ChangeBatch)) (func(), error) {
	w := r.GetOrCreate(worktreePath)
	if err := w.WaitForReady(ctx); err != nil {
		return nil, err
	}
	return w.Subscribe(cb), nil
}

// Dispose stops and forgets the watcher for a path. Unknown paths are a
// no-op.
func (r *WatcherRegistry) Dispose(worktreePath string) {
	key := registryKey(worktreePath)

	r.mu.Lock()
	w, ok := r.watchers[key]
	delete(r.watchers, key)
	r.mu.Unlock()

	if ok {
		w.Dispose()
	}
}

// DisposeAll stops every watcher concurrently. Called at shutdown.
func (r *WatcherRegistry) DisposeAll() {
	r.mu.Lock()
	watchers := make([]*WorktreeWatcher, 0, len(r.watchers))
	for _, w := range r.watchers {
		watchers = append(watchers, w)
	}
	r.watchers = make(map[string]*WorktreeWatcher)
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, w := range watchers {
		wg.Add(1)
		go func(w *WorktreeWatcher) {
			defer wg.Done()
			w.Dispose()
		}(w)
	}
	wg.Wait()
}

// WatcherCount returns the number of tracked watchers
func (r *WatcherRegistry) WatcherCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.watchers)
}

// Paths lists the worktree paths with tracked watchers
func (r *WatcherRegistry) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	paths := make([]string, 0, len(r.watchers))
	for _, w := range r.watchers {
		paths = append(paths, w.Path())
	}
	return paths
}
