package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hong-ai/hong/internal/models"
)

func sampleFiles(key string) []models.ParsedDiffFile {
	return []models.ParsedDiffFile{
		{
			Key:       key,
			OldPath:   key,
			NewPath:   key,
			Additions: 3,
			Deletions: 1,
			DiffText:  "diff --git a/" + key + " b/" + key + "\n",
		},
	}
}

func TestDiffCacheParsedDiff(t *testing.T) {
	c := NewDiffCacheWithDefaults()
	defer c.Close()

	t.Run("miss before set", func(t *testing.T) {
		_, ok := c.GetParsedDiff("/work/a", "hash1")
		assert.False(t, ok)
	})

	t.Run("hit only for the identical pair", func(t *testing.T) {
		files := sampleFiles("main.go")
		c.SetParsedDiff("/work/a", "hash1", files)

		got, ok := c.GetParsedDiff("/work/a", "hash1")
		assert.True(t, ok)
		assert.Equal(t, files, got)

		_, ok = c.GetParsedDiff("/work/a", "hash2")
		assert.False(t, ok, "different hash must miss")

		_, ok = c.GetParsedDiff("/work/b", "hash1")
		assert.False(t, ok, "different path must miss")
	})

	t.Run("multiple hashes coexist per path", func(t *testing.T) {
		c.SetParsedDiff("/work/a", "hash2", sampleFiles("other.go"))

		got1, ok1 := c.GetParsedDiff("/work/a", "hash1")
		got2, ok2 := c.GetParsedDiff("/work/a", "hash2")
		assert.True(t, ok1)
		assert.True(t, ok2)
		assert.NotEqual(t, got1, got2)
	})
}

func TestDiffCacheInvalidateParsedDiff(t *testing.T) {
	c := NewDiffCacheWithDefaults()
	defer c.Close()

	c.SetParsedDiff("/work/a", "hash1", sampleFiles("a.go"))
	c.SetParsedDiff("/work/a", "hash2", sampleFiles("b.go"))
	c.SetParsedDiff("/work/ab", "hash1", sampleFiles("c.go"))

	c.InvalidateParsedDiff("/work/a")

	_, ok := c.GetParsedDiff("/work/a", "hash1")
	assert.False(t, ok)
	_, ok = c.GetParsedDiff("/work/a", "hash2")
	assert.False(t, ok)

	_, ok = c.GetParsedDiff("/work/ab", "hash1")
	assert.True(t, ok, "sibling worktree path must be untouched")
}

func TestDiffCacheStatus(t *testing.T) {
	c := NewDiffCacheWithDefaults()
	defer c.Close()

	status := models.WorktreeStatus{
		Branch:       "hong/fix-1234",
		BaseBranch:   "main",
		IsDirty:      true,
		ChangedFiles: 2,
	}
	c.SetStatus("/work/a", status)

	got, ok := c.GetStatus("/work/a")
	assert.True(t, ok)
	assert.Equal(t, status, *got)

	// Returned value is a copy, mutating it must not poison the cache
	got.Branch = "mutated"
	again, _ := c.GetStatus("/work/a")
	assert.Equal(t, "hong/fix-1234", again.Branch)

	c.InvalidateStatus("/work/a")
	_, ok = c.GetStatus("/work/a")
	assert.False(t, ok)
}

func TestDiffCacheInvalidateWorktree(t *testing.T) {
	c := NewDiffCacheWithDefaults()
	defer c.Close()

	c.SetParsedDiff("/work/a", "hash1", sampleFiles("a.go"))
	c.SetStatus("/work/a", models.WorktreeStatus{Branch: "main"})

	c.InvalidateWorktree("/work/a")

	_, ok := c.GetParsedDiff("/work/a", "hash1")
	assert.False(t, ok)
	_, ok = c.GetStatus("/work/a")
	assert.False(t, ok)
}

func TestDiffCacheCorruptedEntry(t *testing.T) {
	base := NewLRUCacheWithDefaults()
	c := NewDiffCache(base)
	defer c.Close()

	// Poison the underlying cache with the wrong type
	base.Set(diffKey("/work/a", "hash1"), "not a diff entry")
	base.Set(statusKey("/work/a"), 42)

	_, ok := c.GetParsedDiff("/work/a", "hash1")
	assert.False(t, ok)
	_, ok = c.GetStatus("/work/a")
	assert.False(t, ok)

	// Corrupted entries are dropped on read
	assert.Equal(t, 0, c.Size())
}

func TestDiffCacheConcurrentReaders(t *testing.T) {
	c := NewDiffCacheWithDefaults()
	defer c.Close()

	c.SetParsedDiff("/work/a", "hash1", sampleFiles("a.go"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				files, ok := c.GetParsedDiff("/work/a", "hash1")
				if ok {
					assert.Len(t, files, 1)
				}
				c.SetParsedDiff("/work/a", "hash1", sampleFiles("a.go"))
				if j%10 == 0 {
					c.InvalidateParsedDiff("/work/a")
				}
			}
		}()
	}
	wg.Wait()
}
