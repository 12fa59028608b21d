package cache

import (
	"time"

	"github.com/hong-ai/hong/internal/logger"
	"github.com/hong-ai/hong/internal/models"
)

// DiffCache provides type-safe caching of parsed diffs and status summaries
// keyed by worktree path. Parsed diffs are additionally keyed by the content
// hash of the raw diff text, so a lookup can only ever return the files that
// were stored for that exact text.
type DiffCache struct {
	cache Cache
}

// diffEntry is a cached parsed diff together with the hash it was parsed from
type diffEntry struct {
	ContentHash string
	Files       []models.ParsedDiffFile
	CachedAt    time.Time
}

// statusEntry is a cached worktree status summary
type statusEntry struct {
	Status   models.WorktreeStatus
	CachedAt time.Time
}

// NewDiffCache creates a new diff cache on top of the given base cache
func NewDiffCache(cache Cache) *DiffCache {
	return &DiffCache{
		cache: cache,
	}
}

// NewDiffCacheWithDefaults creates a new diff cache with a default LRU cache
func NewDiffCacheWithDefaults() *DiffCache {
	return NewDiffCache(NewLRUCacheWithDefaults())
}

// GetParsedDiff retrieves the parsed files stored for this exact
// (worktreePath, contentHash) pair
func (c *DiffCache) GetParsedDiff(worktreePath, contentHash string) ([]models.ParsedDiffFile, bool) {
	key := diffKey(worktreePath, contentHash)

	value, exists := c.cache.Get(key)
	if !exists {
		return nil, false
	}

	entry, ok := value.(*diffEntry)
	if !ok {
		logger.Warnf("Invalid diff cache entry type for key %s, removing corrupted entry", key)
		c.cache.Delete(key)
		return nil, false
	}

	// The hash is part of the key, but verify the stored one too so a
	// collision in key construction can never serve stale files
	if entry.ContentHash != contentHash {
		c.cache.Delete(key)
		return nil, false
	}

	return entry.Files, true
}

// SetParsedDiff stores the parsed files for a (worktreePath, contentHash) pair
func (c *DiffCache) SetParsedDiff(worktreePath, contentHash string, files []models.ParsedDiffFile) {
	c.cache.Set(diffKey(worktreePath, contentHash), &diffEntry{
		ContentHash: contentHash,
		Files:       files,
		CachedAt:    time.Now(),
	})
}

// GetStatus retrieves the cached status summary for a worktree
func (c *DiffCache) GetStatus(worktreePath string) (*models.WorktreeStatus, bool) {
	key := statusKey(worktreePath)

	value, exists := c.cache.Get(key)
	if !exists {
		return nil, false
	}

	entry, ok := value.(*statusEntry)
	if !ok {
		logger.Warnf("Invalid status cache entry type for key %s, removing corrupted entry", key)
		c.cache.Delete(key)
		return nil, false
	}

	status := entry.Status
	return &status, true
}

// SetStatus stores the status summary for a worktree
func (c *DiffCache) SetStatus(worktreePath string, status models.WorktreeStatus) {
	c.cache.Set(statusKey(worktreePath), &statusEntry{
		Status:   status,
		CachedAt: time.Now(),
	})
}

// InvalidateStatus removes the cached status for a worktree
func (c *DiffCache) InvalidateStatus(worktreePath string) {
	c.cache.Delete(statusKey(worktreePath))
}

// InvalidateParsedDiff removes every cached parsed diff for a worktree,
// whatever hash it was stored under
func (c *DiffCache) InvalidateParsedDiff(worktreePath string) {
	if removed := c.cache.Clear("diff:" + worktreePath + ":"); removed > 0 {
		logger.Debugf("Invalidated %d cached diff(s) for %s", removed, worktreePath)
	}
}

// InvalidateWorktree removes everything cached for a worktree path
func (c *DiffCache) InvalidateWorktree(worktreePath string) {
	c.InvalidateStatus(worktreePath)
	c.InvalidateParsedDiff(worktreePath)
}

// Size returns the current cache size
func (c *DiffCache) Size() int {
	return c.cache.Size()
}

// Stats returns cache statistics
func (c *DiffCache) Stats() Stats {
	return c.cache.Stats()
}

// Close shuts down the underlying cache
func (c *DiffCache) Close() error {
	return c.cache.Close()
}

// diffKey builds the cache key for a parsed diff. The trailing separator
// after the path keeps sibling paths like /a/b and /a/bc from sharing a
// clear prefix.
func diffKey(worktreePath, contentHash string) string {
	return "diff:" + worktreePath + ":" + contentHash
}

// statusKey builds the cache key for a status summary
func statusKey(worktreePath string) string {
	return "status:" + worktreePath
}
