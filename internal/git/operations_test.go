package git

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hong-ai/hong/internal/git/executor"
)

const repoPath = "/repos/project"

func newTestOperations(t *testing.T) (Operations, *executor.InMemoryExecutor, *executor.TestRepository) {
	t.Helper()
	repo, err := executor.NewTestRepositoryWithHistory(repoPath)
	require.NoError(t, err)

	exec := executor.NewInMemoryExecutor()
	exec.AddRepository(repoPath, repo)
	return NewOperationsWithExecutor(exec), exec, repo
}

func TestOperationsBranches(t *testing.T) {
	ops, _, _ := newTestOperations(t)

	t.Run("BranchExists", func(t *testing.T) {
		assert.True(t, ops.BranchExists(repoPath, "main", false))
		assert.True(t, ops.BranchExists(repoPath, "feature/test", false))
		assert.False(t, ops.BranchExists(repoPath, "nope", false))

		// Fully qualified refs pass through untouched
		assert.True(t, ops.BranchExists(repoPath, "refs/heads/main", false))
	})

	t.Run("CurrentBranch", func(t *testing.T) {
		branch, err := ops.CurrentBranch(repoPath)
		require.NoError(t, err)
		assert.Equal(t, "main", branch)
	})

	t.Run("RenameBranch moves HEAD", func(t *testing.T) {
		require.NoError(t, ops.RenameBranch(repoPath, "main", "trunk"))

		branch, err := ops.CurrentBranch(repoPath)
		require.NoError(t, err)
		assert.Equal(t, "trunk", branch)

		assert.False(t, ops.BranchExists(repoPath, "main", false))
		assert.True(t, ops.BranchExists(repoPath, "trunk", false))

		require.NoError(t, ops.RenameBranch(repoPath, "trunk", "main"))
	})
}

func TestOperationsListWorktrees(t *testing.T) {
	ops, exec, _ := newTestOperations(t)

	t.Run("empty output", func(t *testing.T) {
		worktrees, err := ops.ListWorktrees(repoPath)
		require.NoError(t, err)
		assert.Empty(t, worktrees)
	})

	t.Run("porcelain parse", func(t *testing.T) {
		exec.SetWorktreeListOutput(repoPath,
			"worktree /repos/project\n"+
				"HEAD 1111111111111111111111111111111111111111\n"+
				"branch refs/heads/main\n"+
				"\n"+
				"worktree /repos/worktrees/fix-a1b2\n"+
				"HEAD 2222222222222222222222222222222222222222\n"+
				"branch refs/heads/hong/fix-a1b2\n"+
				"\n"+
				"worktree /repos/bare\n"+
				"bare\n")

		worktrees, err := ops.ListWorktrees(repoPath)
		require.NoError(t, err)
		require.Len(t, worktrees, 3)

		assert.Equal(t, "/repos/project", worktrees[0].Path)
		assert.Equal(t, "refs/heads/main", worktrees[0].Branch)
		assert.Equal(t, strings.Repeat("1", 40), worktrees[0].Commit)
		assert.False(t, worktrees[0].Bare)

		assert.Equal(t, "/repos/worktrees/fix-a1b2", worktrees[1].Path)
		assert.Equal(t, "refs/heads/hong/fix-a1b2", worktrees[1].Branch)

		assert.True(t, worktrees[2].Bare)
		assert.Empty(t, worktrees[2].Branch)
	})
}

func TestOperationsStashList(t *testing.T) {
	ops, exec, _ := newTestOperations(t)

	t.Run("empty", func(t *testing.T) {
		entries, err := ops.StashList(repoPath)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("parses indexes and messages", func(t *testing.T) {
		exec.SetStashMessages(repoPath, []string{
			"On main: hong-checkpoint:4ac90d2e",
			"WIP on main: 1234abc something",
		})

		entries, err := ops.StashList(repoPath)
		require.NoError(t, err)
		require.Len(t, entries, 2)

		assert.Equal(t, 0, entries[0].Index)
		assert.Equal(t, "On main: hong-checkpoint:4ac90d2e", entries[0].Message)
		assert.Equal(t, 1, entries[1].Index)
		assert.Equal(t, "WIP on main: 1234abc something", entries[1].Message)
	})

	t.Run("push prepends newest first", func(t *testing.T) {
		require.NoError(t, ops.StashPush(repoPath, "checkpoint-tag", true))

		entries, err := ops.StashList(repoPath)
		require.NoError(t, err)
		require.NotEmpty(t, entries)
		assert.Contains(t, entries[0].Message, "checkpoint-tag")
	})

	t.Run("drop removes by index", func(t *testing.T) {
		before, err := ops.StashList(repoPath)
		require.NoError(t, err)

		require.NoError(t, ops.StashDrop(repoPath, 0))

		after, err := ops.StashList(repoPath)
		require.NoError(t, err)
		assert.Len(t, after, len(before)-1)
	})
}

func TestOperationsStatus(t *testing.T) {
	ops, _, repo := newTestOperations(t)

	t.Run("clean tree", func(t *testing.T) {
		assert.False(t, ops.IsDirty(repoPath))

		fields, err := ops.StatusSummary(repoPath)
		require.NoError(t, err)
		assert.False(t, fields.IsDirty)
		assert.Equal(t, "main", fields.Branch)
		assert.Zero(t, fields.ChangedFiles)
		assert.Zero(t, fields.UntrackedFiles)
	})

	t.Run("untracked file", func(t *testing.T) {
		require.NoError(t, repo.CreateFile("scratch.txt", "notes"))

		assert.True(t, ops.IsDirty(repoPath))

		fields, err := ops.StatusSummary(repoPath)
		require.NoError(t, err)
		assert.True(t, fields.IsDirty)
		assert.Equal(t, 1, fields.UntrackedFiles)
		assert.Zero(t, fields.ChangedFiles)
		assert.False(t, fields.HasConflicts)
	})
}

func TestOperationsRevAndConfig(t *testing.T) {
	ops, _, _ := newTestOperations(t)

	t.Run("RevParse HEAD", func(t *testing.T) {
		hash, err := ops.RevParse(repoPath, "")
		require.NoError(t, err)
		assert.Len(t, hash, 40)
	})

	t.Run("MergeBase", func(t *testing.T) {
		base, err := ops.MergeBase(repoPath, "main", "HEAD")
		require.NoError(t, err)
		assert.Len(t, base, 40)
	})

	t.Run("ConfigGet remote url", func(t *testing.T) {
		url, err := ops.ConfigGet(repoPath, "remote.origin.url")
		require.NoError(t, err)
		assert.Equal(t, "https://github.com/test/repo.git", url)
	})
}

func TestOperationsDiff(t *testing.T) {
	ops, exec, _ := newTestOperations(t)

	exec.SetDiffOutput(repoPath, modifiedFileDiff)

	text, err := ops.DiffAgainst(repoPath, "main")
	require.NoError(t, err)
	assert.Equal(t, modifiedFileDiff, text)

	files, err := ops.UntrackedFiles(repoPath)
	require.NoError(t, err)
	assert.Empty(t, files)
}
