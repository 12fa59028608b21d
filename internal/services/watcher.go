package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hong-ai/hong/internal/git"
	"github.com/hong-ai/hong/internal/logger"
	"github.com/hong-ai/hong/internal/models"
	"github.com/hong-ai/hong/internal/recovery"
)

type watcherState int32

const (
	stateUninitialized watcherState = iota
	stateInitializing
	stateWatching
	stateDisposed
)

func (s watcherState) String() string {
	switch s {
	case stateInitializing:
		return "initializing"
	case stateWatching:
		return "watching"
	case stateDisposed:
		return "disposed"
	default:
		return "uninitialized"
	}
}

// WorktreeWatcher watches a single worktree's git metadata for changes.
// Instead of watching the whole working directory it resolves the git dir
// (following a `.git` pointer file for linked worktrees) and watches just
// `index` and `HEAD`, two descriptors per workspace no matter how large
// the tree is. Every commit, stage, checkout and branch switch touches at
// least one of them.
type WorktreeWatcher struct {
	worktreePath string

	mu           sync.Mutex
	state        watcherState
	watcher      *fsnotify.Watcher
	watchTargets []string
	pending      map[string]models.ChangeType
	debounce     *time.Timer
	listeners    map[int]func(models.ChangeBatch)
	nextListener int
	initErr      error

	ready chan struct{} // closed when initialization finishes, success or not
	done  chan struct{} // closed on dispose
}

// NewWorktreeWatcher starts watching a worktree. Initialization is
// asynchronous; use WaitForReady before relying on events.
func NewWorktreeWatcher(worktreePath string) *WorktreeWatcher {
	w := &WorktreeWatcher{
		worktreePath: worktreePath,
		state:        stateInitializing,
		pending:      make(map[string]models.ChangeType),
		listeners:    make(map[int]func(models.ChangeBatch)),
		ready:        make(chan struct{}),
		done:         make(chan struct{}),
	}
	recovery.SafeGo("watcher-init "+worktreePath, w.initialize)
	return w
}

// Path returns the worktree path this watcher covers
func (w *WorktreeWatcher) Path() string {
	return w.worktreePath
}

// State returns the current lifecycle state as a string
func (w *WorktreeWatcher) State() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.String()
}

// WaitForReady blocks until the watcher is watching, initialization
// failed, the watcher was disposed, or the context ends.
func (w *WorktreeWatcher) WaitForReady(ctx context.Context) error {
	select {
	case <-w.ready:
	case <-ctx.Done():
		return ctx.Err()
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.initErr != nil {
		return w.initErr
	}
	if w.state == stateDisposed {
		return fmt.Errorf("watcher for %s is disposed", w.worktreePath)
	}
	return nil
}

// Subscribe registers a callback for change batches and returns an
// unsubscribe closure. Safe to call in any state; a disposed watcher
// simply never delivers.
func (w *WorktreeWatcher) Subscribe(cb func(models.ChangeBatch)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.nextListener
	w.nextListener++
	w.listeners[id] = cb

	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.listeners, id)
	}
}

// Dispose stops the watcher and releases its descriptors. Idempotent, and
// safe to call while initialization is still in flight.
func (w *WorktreeWatcher) Dispose() {
	w.mu.Lock()
	if w.state == stateDisposed {
		w.mu.Unlock()
		return
	}
	w.state = stateDisposed
	if w.debounce != nil {
		w.debounce.Stop()
		w.debounce = nil
	}
	close(w.done)
	w.mu.Unlock()

	// Let an in-flight initialization finish before tearing down the
	// watcher it may be constructing
	<-w.ready

	w.mu.Lock()
	watcher := w.watcher
	w.watcher = nil
	w.pending = make(map[string]models.ChangeType)
	w.listeners = make(map[int]func(models.ChangeBatch))
	w.mu.Unlock()

	if watcher != nil {
		watcher.Close()
	}
	logger.Debugf("Disposed watcher for %s", w.worktreePath)
}

func (w *WorktreeWatcher) initialize() {
	defer close(w.ready)

	gitDir, err := git.ResolveGitDir(w.worktreePath)
	if err != nil {
		w.failInit(fmt.Errorf("resolve git dir for %s: %w", w.worktreePath, err))
		return
	}
	targets := []string{
		filepath.Join(gitDir, "index"),
		filepath.Join(gitDir, "HEAD"),
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.failInit(fmt.Errorf("create fs watcher: %w", err))
		return
	}

	added := 0
	for _, target := range targets {
		if err := fsw.Add(target); err != nil {
			// A fresh repository has no index until something is staged.
			// The flush path re-adds targets that appear later.
			logger.Debugf("Cannot watch %s yet: %v", target, err)
			continue
		}
		added++
	}
	if added == 0 {
		fsw.Close()
		w.failInit(fmt.Errorf("no watchable git files under %s", gitDir))
		return
	}

	w.mu.Lock()
	if w.state == stateDisposed {
		w.mu.Unlock()
		fsw.Close()
		return
	}
	w.watcher = fsw
	w.watchTargets = targets
	w.state = stateWatching
	w.mu.Unlock()

	logger.Debugf("🔍 Watching git metadata for %s", w.worktreePath)
	recovery.SafeGo("watcher-loop "+w.worktreePath, w.run)
}

func (w *WorktreeWatcher) failInit(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == stateDisposed {
		return
	}
	w.initErr = err
	w.state = stateDisposed
	logger.Warnf("Watcher init failed for %s: %v", w.worktreePath, err)
}

func (w *WorktreeWatcher) run() {
	w.mu.Lock()
	watcher := w.watcher
	w.mu.Unlock()
	if watcher == nil {
		return
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			w.recordEvent(event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warnf("Watcher error for %s: %v", w.worktreePath, err)
		case <-w.done:
			return
		}
	}
}

// recordEvent folds a raw event into the pending map and arms the
// debounce timer. Rapid bursts (git touches index several times per
// command) collapse into a single batch per quiet window.
func (w *WorktreeWatcher) recordEvent(event fsnotify.Event) {
	changeType, relevant := classifyOp(event.Op)
	if !relevant {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != stateWatching {
		return
	}

	w.pending[event.Name] = changeType

	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(watchDebounceInterval(), w.flush)
}

func classifyOp(op fsnotify.Op) (models.ChangeType, bool) {
	switch {
	case op&fsnotify.Create != 0:
		return models.ChangeAdd, true
	case op&fsnotify.Write != 0:
		return models.ChangeModify, true
	case op&(fsnotify.Remove|fsnotify.Rename) != 0:
		return models.ChangeUnlink, true
	default:
		// Chmod and friends say nothing about content
		return "", false
	}
}

// flush emits one batch for everything collected during the quiet window
func (w *WorktreeWatcher) flush() {
	w.mu.Lock()
	if w.state != stateWatching || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}

	changes := make([]models.Change, 0, len(w.pending))
	for path, changeType := range w.pending {
		changes = append(changes, models.Change{Path: path, Type: changeType})
	}
	w.pending = make(map[string]models.ChangeType)
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })

	listeners := make([]func(models.ChangeBatch), 0, len(w.listeners))
	for _, listener := range w.listeners {
		listeners = append(listeners, listener)
	}
	watcher := w.watcher
	targets := w.watchTargets
	w.mu.Unlock()

	// Git and editors replace index and HEAD atomically, which drops the
	// watch on the old inode. Re-add whatever exists again.
	for _, target := range targets {
		if _, err := os.Stat(target); err == nil {
			if err := watcher.Add(target); err != nil {
				logger.Debugf("Re-adding watch on %s failed: %v", target, err)
			}
		}
	}

	batch := models.ChangeBatch{
		WorktreePath: w.worktreePath,
		Changes:      changes,
		Timestamp:    time.Now().UnixMilli(),
	}

	for _, listener := range listeners {
		cb := listener
		recovery.SafeCall("watcher-listener "+w.worktreePath, func() {
			cb(batch)
		})
	}
}

// watchDebounceInterval returns the quiet window, configurable via
// HONG_WATCH_DEBOUNCE_MS
func watchDebounceInterval() time.Duration {
	if envMs := os.Getenv("HONG_WATCH_DEBOUNCE_MS"); envMs != "" {
		if ms, err := strconv.Atoi(envMs); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return 100 * time.Millisecond
}
