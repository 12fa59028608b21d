package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hong-ai/hong/internal/models"
)

func TestRegistryGetOrCreateIsMemoized(t *testing.T) {
	registry := NewWatcherRegistry()
	t.Cleanup(registry.DisposeAll)

	repo := newWatchedRepo(t)
	first := registry.GetOrCreate(repo)
	second := registry.GetOrCreate(repo)
	require.Same(t, first, second)
	assert.Equal(t, 1, registry.WatcherCount())

	// Path spelling does not mint a second watcher
	third := registry.GetOrCreate(repo + string(filepath.Separator))
	require.Same(t, first, third)
	assert.Equal(t, 1, registry.WatcherCount())

	other := newWatchedRepo(t)
	fourth := registry.GetOrCreate(other)
	assert.NotSame(t, first, fourth)
	assert.Equal(t, 2, registry.WatcherCount())
}

func TestRegistryHas(t *testing.T) {
	registry := NewWatcherRegistry()
	t.Cleanup(registry.DisposeAll)

	repo := newWatchedRepo(t)
	assert.False(t, registry.Has(repo))

	registry.GetOrCreate(repo)
	assert.True(t, registry.Has(repo))

	registry.Dispose(repo)
	assert.False(t, registry.Has(repo))
}

func TestRegistrySubscribeDeliversAfterReady(t *testing.T) {
	t.Setenv("HONG_WATCH_DEBOUNCE_MS", "25")

	registry := NewWatcherRegistry()
	t.Cleanup(registry.DisposeAll)
	repo := newWatchedRepo(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	batches := make(chan models.ChangeBatch, 16)
	unsubscribe, err := registry.Subscribe(ctx, repo, func(b models.ChangeBatch) { batches <- b })
	require.NoError(t, err)

	// Subscribe resolved, so a change right now is guaranteed to be seen
	touchIndex(t, repo, "DIRC-1")
	batch := waitForBatch(t, batches)
	assert.Equal(t, repo, batch.WorktreePath)

	unsubscribe()
	touchIndex(t, repo, "DIRC-2")
	assertQuiet(t, batches, 150*time.Millisecond)
}

func TestRegistrySubscribeFailsOutsideRepository(t *testing.T) {
	registry := NewWatcherRegistry()
	t.Cleanup(registry.DisposeAll)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := registry.Subscribe(ctx, t.TempDir(), func(models.ChangeBatch) {})
	assert.Error(t, err)
}

func TestRegistryDisposeReplacesWatcher(t *testing.T) {
	registry := NewWatcherRegistry()
	t.Cleanup(registry.DisposeAll)
	repo := newWatchedRepo(t)

	first := registry.GetOrCreate(repo)
	registry.Dispose(repo)
	assert.Equal(t, "disposed", first.State())
	assert.Equal(t, 0, registry.WatcherCount())

	// A fresh watcher is created rather than the disposed one returned
	second := registry.GetOrCreate(repo)
	assert.NotSame(t, first, second)
}

func TestRegistryDisposeUnknownPathIsNoop(t *testing.T) {
	registry := NewWatcherRegistry()
	registry.Dispose(filepath.Join(t.TempDir(), "never-created"))
	assert.Equal(t, 0, registry.WatcherCount())
}

func TestRegistryDisposeAll(t *testing.T) {
	registry := NewWatcherRegistry()

	first := registry.GetOrCreate(newWatchedRepo(t))
	second := registry.GetOrCreate(newWatchedRepo(t))
	require.Equal(t, 2, registry.WatcherCount())

	registry.DisposeAll()
	assert.Equal(t, 0, registry.WatcherCount())
	assert.Equal(t, "disposed", first.State())
	assert.Equal(t, "disposed", second.State())
}

func TestRegistryPaths(t *testing.T) {
	registry := NewWatcherRegistry()
	t.Cleanup(registry.DisposeAll)

	repoA := newWatchedRepo(t)
	repoB := newWatchedRepo(t)
	registry.GetOrCreate(repoA)
	registry.GetOrCreate(repoB)

	assert.ElementsMatch(t, []string{repoA, repoB}, registry.Paths())
}

func TestRegistryDisposedEntryIsReplacedInPlace(t *testing.T) {
	registry := NewWatcherRegistry()
	t.Cleanup(registry.DisposeAll)
	repo := newWatchedRepo(t)

	first := registry.GetOrCreate(repo)
	// Disposing the watcher directly, without telling the registry
	first.Dispose()

	second := registry.GetOrCreate(repo)
	assert.NotSame(t, first, second)
	assert.Equal(t, 1, registry.WatcherCount())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, second.WaitForReady(ctx))
}

func TestRegistryPathsUnaffectedByMissingIndex(t *testing.T) {
	// A repository before its first commit has HEAD but no index yet
	dir := t.TempDir()
	gitDir := filepath.Join(dir, ".git")
	require.NoError(t, os.MkdirAll(gitDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte("ref: refs/heads/main\n"), 0644))

	registry := NewWatcherRegistry()
	t.Cleanup(registry.DisposeAll)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	w := registry.GetOrCreate(dir)
	require.NoError(t, w.WaitForReady(ctx), "HEAD alone is enough to watch")
	assert.Equal(t, "watching", w.State())
}
