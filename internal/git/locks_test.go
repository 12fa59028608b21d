package git

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockTableSerializesSamePath(t *testing.T) {
	table := NewLockTable()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = table.WithLock("/work/repo", func() error {
				// Unsynchronized read-modify-write, safe only if the
				// lock actually excludes
				current := counter
				time.Sleep(time.Microsecond)
				counter = current + 1
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestLockTableBlocksUntilRelease(t *testing.T) {
	table := NewLockTable()

	table.Lock("/work/repo")

	entered := make(chan struct{})
	go func() {
		table.Lock("/work/repo")
		close(entered)
		table.Unlock("/work/repo")
	}()

	select {
	case <-entered:
		t.Fatal("second locker entered while first still held the lock")
	case <-time.After(50 * time.Millisecond):
	}

	table.Unlock("/work/repo")

	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("second locker never entered after release")
	}
}

func TestLockTableDifferentPathsDoNotBlock(t *testing.T) {
	table := NewLockTable()

	table.Lock("/work/repo-a")
	defer table.Unlock("/work/repo-a")

	done := make(chan struct{})
	go func() {
		_ = table.WithLock("/work/repo-b", func() error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("operation on a different path was blocked")
	}
}

func TestLockTableNormalizesPaths(t *testing.T) {
	table := NewLockTable()

	require.Same(t, table.lockFor("/work/repo"), table.lockFor("/work/repo/"))
	require.Same(t, table.lockFor("/work/repo"), table.lockFor("/work/./repo"))
	assert.NotSame(t, table.lockFor("/work/repo"), table.lockFor("/work/other"))
}

func TestLockTableWithLockPropagatesError(t *testing.T) {
	table := NewLockTable()

	err := table.WithLock("/work/repo", func() error {
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	// Lock is released after the error
	done := make(chan struct{})
	go func() {
		table.Lock("/work/repo")
		table.Unlock("/work/repo")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock leaked after WithLock error")
	}
}
