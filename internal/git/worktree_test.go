package git

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hong-ai/hong/internal/cache"
	"github.com/hong-ai/hong/internal/config"
	"github.com/hong-ai/hong/internal/git/executor"
	"github.com/hong-ai/hong/internal/models"
)

func newTestManager(t *testing.T) (*WorktreeManager, *executor.InMemoryExecutor) {
	t.Helper()
	exec := executor.NewInMemoryExecutor()
	manager := NewWorktreeManagerWith(
		NewOperationsWithExecutor(exec),
		NewLockTable(),
		cache.NewDiffCacheWithDefaults(),
	)
	return manager, exec
}

// newTestProject lays out a real directory that looks like a repository
// root and registers an in-memory repo for its git commands
func newTestProject(t *testing.T, exec *executor.InMemoryExecutor) (string, *executor.TestRepository) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, config.SettingsFileName),
		[]byte("worktree_dir: worktrees\n"), 0644))

	repo, err := executor.NewTestRepositoryWithHistory(dir)
	require.NoError(t, err)
	exec.AddRepository(dir, repo)
	return dir, repo
}

func TestCreateWorktreeForChat(t *testing.T) {
	t.Run("generated branch", func(t *testing.T) {
		manager, exec := newTestManager(t)
		project, _ := newTestProject(t, exec)

		result := manager.CreateWorktreeForChat(models.CreateWorktreeRequest{
			ProjectPath: project,
			Name:        "Fix Login Bug",
			ChatID:      "0a1b2c3d4e5f6789",
		})

		require.True(t, result.Success, result.Error)
		assert.Equal(t, "hong/fix-login-bug-0a1b2c3d", result.Branch)
		assert.Equal(t, "main", result.BaseBranch)
		assert.Equal(t, filepath.Join(project, "worktrees", "hong-fix-login-bug-0a1b2c3d"), result.WorktreePath)
	})

	t.Run("explicit base branch wins", func(t *testing.T) {
		manager, exec := newTestManager(t)
		project, _ := newTestProject(t, exec)

		result := manager.CreateWorktreeForChat(models.CreateWorktreeRequest{
			ProjectPath: project,
			Name:        "experiment",
			ChatID:      "deadbeef00",
			BaseBranch:  "feature/test",
		})

		require.True(t, result.Success, result.Error)
		assert.Equal(t, "feature/test", result.BaseBranch)
	})

	t.Run("custom branch name", func(t *testing.T) {
		manager, exec := newTestManager(t)
		project, _ := newTestProject(t, exec)

		result := manager.CreateWorktreeForChat(models.CreateWorktreeRequest{
			ProjectPath:      project,
			Name:             "ignored",
			ChatID:           "deadbeef00",
			BranchType:       "custom",
			CustomBranchName: "feature/custom-work",
		})

		require.True(t, result.Success, result.Error)
		assert.Equal(t, "feature/custom-work", result.Branch)
		assert.Contains(t, result.WorktreePath, "feature-custom-work")
	})

	t.Run("invalid custom branch name", func(t *testing.T) {
		manager, exec := newTestManager(t)
		project, _ := newTestProject(t, exec)

		result := manager.CreateWorktreeForChat(models.CreateWorktreeRequest{
			ProjectPath:      project,
			ChatID:           "deadbeef00",
			BranchType:       "custom",
			CustomBranchName: "bad..name",
		})

		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "invalid branch name")
	})

	t.Run("existing branch reported not thrown", func(t *testing.T) {
		manager, exec := newTestManager(t)
		project, repo := newTestProject(t, exec)
		require.NoError(t, repo.CreateBranch("hong/taken-0a1b2c3d"))

		result := manager.CreateWorktreeForChat(models.CreateWorktreeRequest{
			ProjectPath: project,
			Name:        "taken",
			ChatID:      "0a1b2c3d4e5f",
		})

		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "already exists")
	})

	t.Run("existing target directory", func(t *testing.T) {
		manager, exec := newTestManager(t)
		project, _ := newTestProject(t, exec)
		taken := filepath.Join(project, "worktrees", "hong-busy-0a1b2c3d")
		require.NoError(t, os.MkdirAll(taken, 0755))

		result := manager.CreateWorktreeForChat(models.CreateWorktreeRequest{
			ProjectPath: project,
			Name:        "busy",
			ChatID:      "0a1b2c3d4e5f",
		})

		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "already exists")
	})

	t.Run("outside a repository", func(t *testing.T) {
		manager, _ := newTestManager(t)

		result := manager.CreateWorktreeForChat(models.CreateWorktreeRequest{
			ProjectPath: t.TempDir(),
			Name:        "nowhere",
			ChatID:      "deadbeef00",
		})

		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "not inside a git repository")
	})
}

func TestRemoveWorktree(t *testing.T) {
	t.Run("removes and invalidates caches", func(t *testing.T) {
		manager, exec := newTestManager(t)
		project, _ := newTestProject(t, exec)
		worktreePath := filepath.Join(project, "worktrees", "hong-done-aaaa")
		require.NoError(t, os.MkdirAll(worktreePath, 0755))

		manager.Cache().SetStatus(worktreePath, models.WorktreeStatus{Branch: "hong/done-aaaa"})

		result := manager.RemoveWorktree(project, worktreePath)
		require.True(t, result.Success, result.Error)

		_, cached := manager.Cache().GetStatus(worktreePath)
		assert.False(t, cached, "status cache should be invalidated on remove")
	})

	t.Run("idempotent on already removed path", func(t *testing.T) {
		manager, _ := newTestManager(t)

		result := manager.RemoveWorktree(
			filepath.Join(t.TempDir(), "gone-project"),
			filepath.Join(t.TempDir(), "gone-worktree"))
		assert.True(t, result.Success, result.Error)
	})
}

func TestRenameBranchOperation(t *testing.T) {
	const wtPath = "/repos/wt"

	setup := func(t *testing.T) (*WorktreeManager, *executor.TestRepository) {
		manager, exec := newTestManager(t)
		repo, err := executor.NewTestRepositoryWithHistory(wtPath)
		require.NoError(t, err)
		exec.AddRepository(wtPath, repo)
		return manager, repo
	}

	t.Run("renames current branch", func(t *testing.T) {
		manager, _ := setup(t)
		manager.Cache().SetStatus(wtPath, models.WorktreeStatus{Branch: "main"})

		result := manager.RenameBranch(wtPath, "", "trunk")
		require.True(t, result.Success, result.Error)

		branch, err := manager.Operations().CurrentBranch(wtPath)
		require.NoError(t, err)
		assert.Equal(t, "trunk", branch)

		_, cached := manager.Cache().GetStatus(wtPath)
		assert.False(t, cached, "status cache should be invalidated after rename")
	})

	t.Run("rejects invalid ref syntax", func(t *testing.T) {
		manager, _ := setup(t)

		for _, bad := range []string{"bad..name", "bad name", "-bad", "bad.lock"} {
			result := manager.RenameBranch(wtPath, "", bad)
			assert.False(t, result.Success, "name %q should be rejected", bad)
			assert.Contains(t, result.Error, "invalid branch name")
		}
	})

	t.Run("rename to same name is a no-op", func(t *testing.T) {
		manager, _ := setup(t)

		result := manager.RenameBranch(wtPath, "", "main")
		assert.True(t, result.Success, result.Error)
	})

	t.Run("rejects existing target", func(t *testing.T) {
		manager, _ := setup(t)

		result := manager.RenameBranch(wtPath, "", "feature/test")
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "already exists")
	})
}

func TestGetWorktreeDiff(t *testing.T) {
	const wtPath = "/repos/project"

	setup := func(t *testing.T) (*WorktreeManager, *executor.InMemoryExecutor) {
		manager, exec := newTestManager(t)
		repo, err := executor.NewTestRepositoryWithHistory(wtPath)
		require.NoError(t, err)
		exec.AddRepository(wtPath, repo)
		return manager, exec
	}

	t.Run("parses and caches by content hash", func(t *testing.T) {
		manager, exec := setup(t)
		exec.SetDiffOutput(wtPath, modifiedFileDiff)

		first, err := manager.GetWorktreeDiff(wtPath, "", false)
		require.NoError(t, err)
		require.Len(t, first.Files, 1)
		assert.Equal(t, "x.txt", first.Files[0].Key)
		assert.Equal(t, 1, first.Stats.Additions)
		assert.Equal(t, 1, first.Stats.Deletions)
		assert.NotEmpty(t, first.ContentHash)

		second, err := manager.GetWorktreeDiff(wtPath, "", false)
		require.NoError(t, err)
		assert.Equal(t, first.ContentHash, second.ContentHash)
		assert.Equal(t, first.Files, second.Files)
		assert.Positive(t, manager.Cache().Stats().Hits, "second identical diff should come from cache")
	})

	t.Run("changed diff text yields a new hash", func(t *testing.T) {
		manager, exec := setup(t)

		exec.SetDiffOutput(wtPath, modifiedFileDiff)
		first, err := manager.GetWorktreeDiff(wtPath, "", false)
		require.NoError(t, err)

		exec.SetDiffOutput(wtPath, newFileDiff)
		second, err := manager.GetWorktreeDiff(wtPath, "", false)
		require.NoError(t, err)

		assert.NotEqual(t, first.ContentHash, second.ContentHash)
		require.Len(t, second.Files, 1)
		assert.Equal(t, "docs/notes.md", second.Files[0].Key)
	})

	t.Run("empty diff", func(t *testing.T) {
		manager, _ := setup(t)

		diff, err := manager.GetWorktreeDiff(wtPath, "", false)
		require.NoError(t, err)
		assert.Empty(t, diff.Files)
		assert.Zero(t, diff.Stats.FileCount)
	})

	t.Run("only uncommitted changes", func(t *testing.T) {
		manager, exec := setup(t)
		exec.SetDiffOutput(wtPath, modifiedFileDiff)

		diff, err := manager.GetWorktreeDiff(wtPath, "", true)
		require.NoError(t, err)
		require.Len(t, diff.Files, 1)
	})
}

func TestGetStatusCaching(t *testing.T) {
	const wtPath = "/repos/project"

	manager, exec := newTestManager(t)
	repo, err := executor.NewTestRepositoryWithHistory(wtPath)
	require.NoError(t, err)
	exec.AddRepository(wtPath, repo)

	first, err := manager.GetStatus(wtPath, "main")
	require.NoError(t, err)
	assert.Equal(t, "main", first.Branch)
	assert.Equal(t, "main", first.BaseBranch)
	assert.False(t, first.IsDirty)
	assert.Len(t, first.CommitHash, 40)

	// Dirty the tree, the cached summary still answers until invalidated
	require.NoError(t, repo.CreateFile("scratch.txt", "notes"))

	cached, err := manager.GetStatus(wtPath, "main")
	require.NoError(t, err)
	assert.False(t, cached.IsDirty, "cached summary answers until invalidated")

	manager.Cache().InvalidateStatus(wtPath)

	fresh, err := manager.GetStatus(wtPath, "main")
	require.NoError(t, err)
	assert.True(t, fresh.IsDirty)
	assert.Equal(t, 1, fresh.UntrackedFiles)
}

func TestListBranches(t *testing.T) {
	manager, exec := newTestManager(t)
	repo, err := executor.NewTestRepositoryWithHistory("/repos/project")
	require.NoError(t, err)
	exec.AddRepository("/repos/project", repo)

	branches, err := manager.ListBranches("/repos/project")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"main", "feature/test"}, branches)
}
