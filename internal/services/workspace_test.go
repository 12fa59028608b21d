package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hong-ai/hong/internal/cache"
	"github.com/hong-ai/hong/internal/config"
	"github.com/hong-ai/hong/internal/git"
	"github.com/hong-ai/hong/internal/git/executor"
	"github.com/hong-ai/hong/internal/models"
)

type workspaceFixture struct {
	service   *WorkspaceService
	exec      *executor.InMemoryExecutor
	emitter   *recordingEmitter
	terminals *TerminalManager
}

func newWorkspaceFixture(t *testing.T) *workspaceFixture {
	t.Helper()
	exec := executor.NewInMemoryExecutor()
	manager := git.NewWorktreeManagerWith(
		git.NewOperationsWithExecutor(exec),
		git.NewLockTable(),
		cache.NewDiffCacheWithDefaults(),
	)
	emitter := &recordingEmitter{}
	terminals := NewTerminalManagerWithRoot(t.TempDir())
	t.Cleanup(terminals.Stop)
	watchers := NewWatcherRegistry()
	t.Cleanup(watchers.DisposeAll)
	chats := NewChatStateManager(t.TempDir(), emitter)

	return &workspaceFixture{
		service:   NewWorkspaceService(chats, manager, terminals, watchers, emitter),
		exec:      exec,
		emitter:   emitter,
		terminals: terminals,
	}
}

// newChatWorktree lays out a directory that passes for a worktree and
// binds a chat record to it
func (f *workspaceFixture) newChatWorktree(t *testing.T, chatID string) (string, *models.Chat) {
	t.Helper()
	dir := newWatchedRepo(t)
	chat := &models.Chat{
		ID:           chatID,
		Name:         "test chat",
		ProjectPath:  "/work/project",
		WorktreePath: dir,
		Branch:       "hong/test-" + chatID,
		BaseBranch:   "main",
	}
	require.NoError(t, f.service.Chats().AddChat(chat))
	return dir, chat
}

func TestWorkspaceCreateWorktreeUpdatesChat(t *testing.T) {
	f := newWorkspaceFixture(t)

	project := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(project, ".git"), 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(project, config.SettingsFileName),
		[]byte("worktree_dir: worktrees\n"), 0644))
	repo, err := executor.NewTestRepositoryWithHistory(project)
	require.NoError(t, err)
	f.exec.AddRepository(project, repo)

	require.NoError(t, f.service.Chats().AddChat(&models.Chat{ID: "chat-1", Name: "Fix bug"}))

	result := f.service.CreateWorktree(models.CreateWorktreeRequest{
		ProjectPath: project,
		Name:        "fix bug",
		ChatID:      "chat-1-uuid",
	})
	require.True(t, result.Success, result.Error)

	// The chat id in the request did not match a record, so only the
	// event fired
	assert.Len(t, f.emitter.created, 1)

	result = f.service.CreateWorktree(models.CreateWorktreeRequest{
		ProjectPath: project,
		Name:        "fix bug again",
		ChatID:      "chat-1",
	})
	require.True(t, result.Success, result.Error)

	chat, ok := f.service.Chats().GetChat("chat-1")
	require.True(t, ok)
	assert.Equal(t, result.WorktreePath, chat.WorktreePath)
	assert.Equal(t, result.Branch, chat.Branch)
	assert.Equal(t, "main", chat.BaseBranch)
}

func TestWorkspaceRemoveWorktreeClearsChat(t *testing.T) {
	f := newWorkspaceFixture(t)
	dir, chat := f.newChatWorktree(t, "chat-1")

	// A terminal and a watcher are attached to the doomed worktree
	session, err := f.terminals.CreateSession(chat.ID, dir)
	require.NoError(t, err)
	f.service.Watchers().GetOrCreate(dir)

	project := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(project, ".git"), 0755))
	repo, err := executor.NewTestRepositoryWithHistory(project)
	require.NoError(t, err)
	f.exec.AddRepository(project, repo)

	result := f.service.RemoveWorktree(project, dir)
	require.True(t, result.Success, result.Error)

	assert.False(t, session.Running())
	assert.False(t, f.service.Watchers().Has(dir))

	updated, ok := f.service.Chats().GetChat("chat-1")
	require.True(t, ok)
	assert.Empty(t, updated.WorktreePath)
	assert.Empty(t, updated.Branch)
	assert.Equal(t, []string{"chat-1"}, f.emitter.deleted)
}

func TestMoveWorkspaceDirectory(t *testing.T) {
	t.Run("moves and updates every collaborator", func(t *testing.T) {
		f := newWorkspaceFixture(t)
		dir, chat := f.newChatWorktree(t, "chat-1")
		target := filepath.Join(t.TempDir(), "relocated")

		session, err := f.terminals.CreateSession(chat.ID, dir)
		require.NoError(t, err)
		f.service.Watchers().GetOrCreate(dir)

		// Session state that should follow the move
		stateDir := f.terminals.SessionStateDir(dir)
		require.DirExists(t, stateDir)

		result := f.service.MoveWorkspaceDirectory("chat-1", target)
		require.True(t, result.Success, result.Error)

		assert.NoDirExists(t, dir)
		assert.DirExists(t, target)
		assert.False(t, session.Running(), "terminals are stopped before the move")
		assert.False(t, f.service.Watchers().Has(dir))

		updated, _ := f.service.Chats().GetChat("chat-1")
		assert.Equal(t, target, updated.WorktreePath)

		assert.DirExists(t, f.terminals.SessionStateDir(target))
		assert.NoDirExists(t, stateDir)

		require.Len(t, f.emitter.moved, 1)
		assert.Equal(t, [2]string{dir, target}, f.emitter.moved[0])
	})

	t.Run("unknown chat", func(t *testing.T) {
		f := newWorkspaceFixture(t)
		result := f.service.MoveWorkspaceDirectory("nope", filepath.Join(t.TempDir(), "x"))
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "not found")
	})

	t.Run("chat without worktree", func(t *testing.T) {
		f := newWorkspaceFixture(t)
		require.NoError(t, f.service.Chats().AddChat(&models.Chat{ID: "bare", Name: "no tree"}))

		result := f.service.MoveWorkspaceDirectory("bare", filepath.Join(t.TempDir(), "x"))
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "has no worktree")
	})

	t.Run("existing target leaves collaborators untouched", func(t *testing.T) {
		f := newWorkspaceFixture(t)
		dir, _ := f.newChatWorktree(t, "chat-1")
		target := t.TempDir() // already exists

		watcher := f.service.Watchers().GetOrCreate(dir)

		result := f.service.MoveWorkspaceDirectory("chat-1", target)
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "already exists")

		// Rejected before anything was stopped, same watcher still running
		assert.DirExists(t, dir)
		require.Same(t, watcher, f.service.Watchers().GetOrCreate(dir))

		updated, _ := f.service.Chats().GetChat("chat-1")
		assert.Equal(t, dir, updated.WorktreePath)
	})

	t.Run("failed move restores the watcher", func(t *testing.T) {
		f := newWorkspaceFixture(t)
		dir, _ := f.newChatWorktree(t, "chat-1")

		// A file where the target's parent directory must go makes the
		// rename fail after the up-front checks pass
		blocker := filepath.Join(t.TempDir(), "blocker")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
		target := filepath.Join(blocker, "relocated")

		watcher := f.service.Watchers().GetOrCreate(dir)

		result := f.service.MoveWorkspaceDirectory("chat-1", target)
		assert.False(t, result.Success)
		assert.NotEmpty(t, result.Error)

		// Original untouched, record unchanged, a fresh watcher back in
		// place of the one stopped for the move
		assert.DirExists(t, dir)
		assert.True(t, f.service.Watchers().Has(dir))
		assert.NotSame(t, watcher, f.service.Watchers().GetOrCreate(dir))

		updated, _ := f.service.Chats().GetChat("chat-1")
		assert.Equal(t, dir, updated.WorktreePath)
	})
}

func TestWorkspaceRenameBranchSyncsChat(t *testing.T) {
	f := newWorkspaceFixture(t)
	dir, _ := f.newChatWorktree(t, "chat-1")

	repo, err := executor.NewTestRepositoryWithHistory(dir)
	require.NoError(t, err)
	f.exec.AddRepository(dir, repo)

	result := f.service.RenameBranch(dir, "hong/nice-name")
	require.True(t, result.Success, result.Error)

	chat, _ := f.service.Chats().GetChat("chat-1")
	assert.Equal(t, "hong/nice-name", chat.Branch)
}

func TestWatchWorkspaceForwardsBatches(t *testing.T) {
	t.Setenv("HONG_WATCH_DEBOUNCE_MS", "25")

	f := newWorkspaceFixture(t)
	dir, _ := f.newChatWorktree(t, "chat-1")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	unsubscribe, err := f.service.WatchWorkspace(ctx, dir)
	require.NoError(t, err)
	defer unsubscribe()

	touchIndex(t, dir, "DIRC-changed")

	assert.Eventually(t, func() bool {
		f.emitter.mu.Lock()
		defer f.emitter.mu.Unlock()
		return len(f.emitter.batches) > 0
	}, 2*time.Second, 10*time.Millisecond, "change batch should reach the emitter")
}
