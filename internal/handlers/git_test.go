package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hong-ai/hong/internal/cache"
	"github.com/hong-ai/hong/internal/config"
	"github.com/hong-ai/hong/internal/git"
	"github.com/hong-ai/hong/internal/git/executor"
	"github.com/hong-ai/hong/internal/models"
	"github.com/hong-ai/hong/internal/services"
)

// handlerFixture wires real services over the in-memory git executor and
// mounts every handler on a fiber app, the same shape serve builds
type handlerFixture struct {
	app       *fiber.App
	exec      *executor.InMemoryExecutor
	workspace *services.WorkspaceService
	terminals *services.TerminalManager
	events    *EventsHandler
	git       *GitHandler
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	exec := executor.NewInMemoryExecutor()
	manager := git.NewWorktreeManagerWith(
		git.NewOperationsWithExecutor(exec),
		git.NewLockTable(),
		cache.NewDiffCacheWithDefaults(),
	)
	events := NewEventsHandler()
	t.Cleanup(events.Stop)
	terminals := services.NewTerminalManagerWithRoot(t.TempDir())
	t.Cleanup(terminals.Stop)
	watchers := services.NewWatcherRegistry()
	t.Cleanup(watchers.DisposeAll)
	chats := services.NewChatStateManager(t.TempDir(), events)
	workspace := services.NewWorkspaceService(chats, manager, terminals, watchers, events)

	gitHandler := NewGitHandler(workspace)
	t.Cleanup(gitHandler.StopWatches)

	app := fiber.New()
	app.Use(compress.New())
	v1 := app.Group("/v1")
	gitHandler.RegisterRoutes(v1)
	NewChatsHandler(chats).RegisterRoutes(v1)
	NewTerminalHandler(terminals).RegisterRoutes(v1)

	return &handlerFixture{
		app:       app,
		exec:      exec,
		workspace: workspace,
		terminals: terminals,
		events:    events,
		git:       gitHandler,
	}
}

// request runs one request through the fiber app, marshalling body as JSON
// when present
func (f *handlerFixture) request(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// requestWithHeader is request with one extra header set
func (f *handlerFixture) requestWithHeader(t *testing.T, method, path, key, value string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set(key, value)
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// newWorktreeDir lays out a directory with the git metadata files watchers
// and status lookups expect
func newWorktreeDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	gitDir := filepath.Join(dir, ".git")
	require.NoError(t, os.MkdirAll(gitDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte("ref: refs/heads/main\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "index"), []byte("DIRC"), 0644))
	return dir
}

// newRegisteredWorktree pairs an on-disk worktree directory with an
// in-memory repository registered at the same path
func (f *handlerFixture) newRegisteredWorktree(t *testing.T) string {
	t.Helper()
	dir := newWorktreeDir(t)
	repo, err := executor.NewTestRepositoryWithHistory(dir)
	require.NoError(t, err)
	f.exec.AddRepository(dir, repo)
	return dir
}

// newProjectDir lays out a project repository with settings so worktree
// creation can resolve its target directory
func (f *handlerFixture) newProjectDir(t *testing.T) string {
	t.Helper()
	project := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(project, ".git"), 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(project, config.SettingsFileName),
		[]byte("worktree_dir: worktrees\n"), 0644))
	repo, err := executor.NewTestRepositoryWithHistory(project)
	require.NoError(t, err)
	f.exec.AddRepository(project, repo)
	return project
}

const sampleDiff = `diff --git a/server.go b/server.go
index 83c2f1a..9d41b02 100644
--- a/server.go
+++ b/server.go
@@ -10,6 +10,7 @@ func main() {
 	r := newRouter()
+	r.Use(logging)
 	r.Run()
 }
diff --git a/router.go b/router.go
new file mode 100644
index 0000000..5f2a114
--- /dev/null
+++ b/router.go
@@ -0,0 +1,3 @@
+package main
+
+func newRouter() *Router { return &Router{} }
`

func TestGetWorktreeDiffRoute(t *testing.T) {
	f := newHandlerFixture(t)
	dir := f.newRegisteredWorktree(t)
	f.exec.SetDiffOutput(dir, sampleDiff)

	var diff models.WorktreeDiff
	resp := f.request(t, "GET", "/v1/git/diff?worktree="+url.QueryEscape(dir), nil)
	require.Equal(t, 200, resp.StatusCode)
	decodeBody(t, resp, &diff)

	require.Len(t, diff.Files, 2)
	assert.Equal(t, "server.go", diff.Files[0].Key)
	assert.Equal(t, "router.go", diff.Files[1].Key)
	assert.Equal(t, 4, diff.Stats.Additions)
	assert.Equal(t, 0, diff.Stats.Deletions)
	require.NotEmpty(t, diff.ContentHash)

	// Same content again comes out of the cache with the same hash
	var again models.WorktreeDiff
	resp = f.request(t, "GET", "/v1/git/diff?worktree="+url.QueryEscape(dir), nil)
	require.Equal(t, 200, resp.StatusCode)
	decodeBody(t, resp, &again)
	assert.Equal(t, diff.ContentHash, again.ContentHash)

	t.Run("missing worktree parameter", func(t *testing.T) {
		resp := f.request(t, "GET", "/v1/git/diff", nil)
		assert.Equal(t, 400, resp.StatusCode)
	})

	t.Run("unknown repository", func(t *testing.T) {
		resp := f.request(t, "GET", "/v1/git/diff?worktree=%2Fnot%2Fa%2Frepo", nil)
		assert.Equal(t, 500, resp.StatusCode)
	})
}

func TestDiffResponsesCompressWithBrotli(t *testing.T) {
	f := newHandlerFixture(t)
	dir := f.newRegisteredWorktree(t)
	f.exec.SetDiffOutput(dir, sampleDiff)

	resp := f.requestWithHeader(t, "GET", "/v1/git/diff?worktree="+url.QueryEscape(dir), "Accept-Encoding", "br")
	defer resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)
	require.Equal(t, "br", resp.Header.Get("Content-Encoding"))

	decompressed, err := io.ReadAll(brotli.NewReader(resp.Body))
	require.NoError(t, err)

	var diff models.WorktreeDiff
	require.NoError(t, json.Unmarshal(decompressed, &diff))
	assert.Len(t, diff.Files, 2)
	assert.Equal(t, 4, diff.Stats.Additions)
}

func TestGetWorktreeStatusRoute(t *testing.T) {
	f := newHandlerFixture(t)
	dir := f.newRegisteredWorktree(t)

	var status models.WorktreeStatus
	resp := f.request(t, "GET", "/v1/git/status?worktree="+url.QueryEscape(dir), nil)
	require.Equal(t, 200, resp.StatusCode)
	decodeBody(t, resp, &status)

	assert.Equal(t, "main", status.Branch)
	assert.False(t, status.IsDirty)
	assert.NotEmpty(t, status.CommitHash)
}

func TestListBranchesRoute(t *testing.T) {
	f := newHandlerFixture(t)
	dir := f.newRegisteredWorktree(t)

	var body struct {
		Branches []string `json:"branches"`
	}
	resp := f.request(t, "GET", "/v1/git/branches?project="+url.QueryEscape(dir), nil)
	require.Equal(t, 200, resp.StatusCode)
	decodeBody(t, resp, &body)

	assert.Contains(t, body.Branches, "main")
	assert.Contains(t, body.Branches, "feature/test")
}

func TestWorktreeLifecycleRoutes(t *testing.T) {
	f := newHandlerFixture(t)
	project := f.newProjectDir(t)

	var created git.CreateWorktreeResult
	resp := f.request(t, "POST", "/v1/git/worktrees", models.CreateWorktreeRequest{
		ProjectPath: project,
		Name:        "fix bug",
		ChatID:      "chat-1",
	})
	require.Equal(t, 200, resp.StatusCode)
	decodeBody(t, resp, &created)
	require.True(t, created.Success, created.Error)
	assert.True(t, strings.HasPrefix(created.Branch, "hong/"))
	assert.DirExists(t, created.WorktreePath)

	t.Run("same request again collides", func(t *testing.T) {
		var dup git.CreateWorktreeResult
		resp := f.request(t, "POST", "/v1/git/worktrees", models.CreateWorktreeRequest{
			ProjectPath: project,
			Name:        "fix bug",
			ChatID:      "chat-1",
		})
		require.Equal(t, 409, resp.StatusCode)
		decodeBody(t, resp, &dup)
		assert.False(t, dup.Success)
		assert.Contains(t, dup.Error, "already exists")
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		body := map[string]string{
			"project_path":  project,
			"worktree_path": created.WorktreePath,
		}

		var result git.OpResult
		resp := f.request(t, "DELETE", "/v1/git/worktrees", body)
		require.Equal(t, 200, resp.StatusCode)
		decodeBody(t, resp, &result)
		require.True(t, result.Success, result.Error)
		assert.NoDirExists(t, created.WorktreePath)

		resp = f.request(t, "DELETE", "/v1/git/worktrees", body)
		assert.Equal(t, 200, resp.StatusCode)
	})
}

func TestRenameBranchRoute(t *testing.T) {
	f := newHandlerFixture(t)
	dir := f.newRegisteredWorktree(t)

	var result git.OpResult
	resp := f.request(t, "POST", "/v1/git/branch/rename", models.RenameBranchRequest{
		WorktreePath: dir,
		NewBranch:    "hong/renamed",
	})
	require.Equal(t, 200, resp.StatusCode)
	decodeBody(t, resp, &result)
	assert.True(t, result.Success, result.Error)

	t.Run("invalid name is rejected", func(t *testing.T) {
		var result git.OpResult
		resp := f.request(t, "POST", "/v1/git/branch/rename", models.RenameBranchRequest{
			WorktreePath: dir,
			NewBranch:    "bad..name",
		})
		require.Equal(t, 409, resp.StatusCode)
		decodeBody(t, resp, &result)
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "invalid branch name")
	})
}

func TestCheckpointAndRollbackRoutes(t *testing.T) {
	t.Run("checkpoint then rollback round trip", func(t *testing.T) {
		f := newHandlerFixture(t)
		dir := f.newRegisteredWorktree(t)

		var checkpoint git.CheckpointResult
		resp := f.request(t, "POST", "/v1/git/checkpoint", map[string]string{"worktree_path": dir})
		require.Equal(t, 200, resp.StatusCode)
		decodeBody(t, resp, &checkpoint)
		require.True(t, checkpoint.Success, checkpoint.Error)
		require.True(t, checkpoint.Stashed)
		assert.True(t, strings.HasPrefix(checkpoint.Tag, git.CheckpointPrefix))

		var rollback git.RollbackResult
		resp = f.request(t, "POST", "/v1/git/rollback", models.RollbackRequest{
			WorktreePath:  dir,
			CheckpointTag: checkpoint.Tag,
		})
		require.Equal(t, 200, resp.StatusCode)
		decodeBody(t, resp, &rollback)
		assert.True(t, rollback.Success, rollback.Error)
		assert.True(t, rollback.CheckpointFound)
	})

	t.Run("missing checkpoint fails closed", func(t *testing.T) {
		f := newHandlerFixture(t)
		dir := f.newRegisteredWorktree(t)

		var rollback git.RollbackResult
		resp := f.request(t, "POST", "/v1/git/rollback", models.RollbackRequest{
			WorktreePath:  dir,
			CheckpointTag: git.CheckpointPrefix + "never-created",
		})
		require.Equal(t, 409, resp.StatusCode)
		decodeBody(t, resp, &rollback)
		assert.False(t, rollback.Success)
		assert.False(t, rollback.CheckpointFound)
	})

	t.Run("merge conflict error carries the marker", func(t *testing.T) {
		f := newHandlerFixture(t)
		dir := f.newRegisteredWorktree(t)

		var checkpoint git.CheckpointResult
		resp := f.request(t, "POST", "/v1/git/checkpoint", map[string]string{"worktree_path": dir})
		require.Equal(t, 200, resp.StatusCode)
		decodeBody(t, resp, &checkpoint)
		require.True(t, checkpoint.Stashed)

		f.exec.FailStashApplyWith("CONFLICT (content): Merge conflict in server.go")

		var rollback git.RollbackResult
		resp = f.request(t, "POST", "/v1/git/rollback", models.RollbackRequest{
			WorktreePath:  dir,
			CheckpointTag: checkpoint.Tag,
		})
		require.Equal(t, 409, resp.StatusCode)
		decodeBody(t, resp, &rollback)
		assert.False(t, rollback.Success)
		assert.True(t, rollback.CheckpointFound)
		assert.True(t, strings.HasPrefix(rollback.Error, "MERGE_CONFLICT: "), rollback.Error)
	})
}

func TestMoveWorkspaceRoute(t *testing.T) {
	t.Run("moves a chat worktree", func(t *testing.T) {
		f := newHandlerFixture(t)
		dir := newWorktreeDir(t)
		target := filepath.Join(t.TempDir(), "relocated")

		require.NoError(t, f.workspace.Chats().AddChat(&models.Chat{
			ID:           "chat-1",
			Name:         "test chat",
			WorktreePath: dir,
			Branch:       "hong/test-chat-1",
		}))

		var result git.OpResult
		resp := f.request(t, "POST", "/v1/workspaces/move", models.MoveWorkspaceRequest{
			ChatID:     "chat-1",
			TargetPath: target,
		})
		require.Equal(t, 200, resp.StatusCode)
		decodeBody(t, resp, &result)
		require.True(t, result.Success, result.Error)
		assert.DirExists(t, target)
		assert.NoDirExists(t, dir)
	})

	t.Run("unknown chat", func(t *testing.T) {
		f := newHandlerFixture(t)

		var result git.OpResult
		resp := f.request(t, "POST", "/v1/workspaces/move", models.MoveWorkspaceRequest{
			ChatID:     "nope",
			TargetPath: filepath.Join(t.TempDir(), "x"),
		})
		require.Equal(t, 409, resp.StatusCode)
		decodeBody(t, resp, &result)
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "not found")
	})
}

func TestWatchRoutes(t *testing.T) {
	f := newHandlerFixture(t)
	dir := newWorktreeDir(t)

	var watch struct {
		Watching     bool   `json:"watching"`
		WorktreePath string `json:"worktree_path"`
	}
	resp := f.request(t, "POST", "/v1/workspaces/watch", map[string]string{"worktree_path": dir})
	require.Equal(t, 200, resp.StatusCode)
	decodeBody(t, resp, &watch)
	assert.True(t, watch.Watching)
	assert.Equal(t, dir, watch.WorktreePath)

	var watchers struct {
		Count int      `json:"count"`
		Paths []string `json:"paths"`
	}
	resp = f.request(t, "GET", "/v1/watchers", nil)
	require.Equal(t, 200, resp.StatusCode)
	decodeBody(t, resp, &watchers)
	assert.Equal(t, 1, watchers.Count)
	assert.Contains(t, watchers.Paths, dir)

	// Watching the same path again does not add a second subscription
	resp = f.request(t, "POST", "/v1/workspaces/watch", map[string]string{"worktree_path": dir})
	require.Equal(t, 200, resp.StatusCode)
	resp.Body.Close()

	resp = f.request(t, "GET", "/v1/watchers", nil)
	decodeBody(t, resp, &watchers)
	assert.Equal(t, 1, watchers.Count)

	resp = f.request(t, "DELETE", "/v1/workspaces/watch", map[string]string{"worktree_path": dir})
	require.Equal(t, 200, resp.StatusCode)
	decodeBody(t, resp, &watch)
	assert.False(t, watch.Watching)

	t.Run("path without git metadata fails", func(t *testing.T) {
		resp := f.request(t, "POST", "/v1/workspaces/watch",
			map[string]string{"worktree_path": filepath.Join(t.TempDir(), "missing")})
		assert.Equal(t, 500, resp.StatusCode)
	})
}

func TestGitRoutesValidateInput(t *testing.T) {
	f := newHandlerFixture(t)

	cases := []struct {
		name   string
		method string
		path   string
		body   interface{}
	}{
		{"diff without worktree", "GET", "/v1/git/diff", nil},
		{"status without worktree", "GET", "/v1/git/status", nil},
		{"branches without project", "GET", "/v1/git/branches", nil},
		{"create without project path", "POST", "/v1/git/worktrees", map[string]string{"name": "x"}},
		{"remove without worktree path", "DELETE", "/v1/git/worktrees", map[string]string{}},
		{"rename without new branch", "POST", "/v1/git/branch/rename", map[string]string{"worktree_path": "/x"}},
		{"checkpoint without worktree path", "POST", "/v1/git/checkpoint", map[string]string{}},
		{"rollback without worktree path", "POST", "/v1/git/rollback", map[string]string{}},
		{"move without target", "POST", "/v1/workspaces/move", map[string]string{"chat_id": "x"}},
		{"watch without worktree path", "POST", "/v1/workspaces/watch", map[string]string{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := f.request(t, tc.method, tc.path, tc.body)
			assert.Equal(t, 400, resp.StatusCode)
		})
	}
}
