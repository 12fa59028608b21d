package handlers

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/hong-ai/hong/internal/logger"
	"github.com/hong-ai/hong/internal/models"
	"github.com/hong-ai/hong/internal/services"
)

// GitHandler exposes the worktree lifecycle, diff and watch operations over
// HTTP. Expected failures come back as JSON result bodies with success:false
// so the UI can pattern-match errors instead of parsing status text.
type GitHandler struct {
	workspace *services.WorkspaceService

	watchMu  sync.Mutex
	watching map[string]func()
}

// NewGitHandler creates a new git handler
func NewGitHandler(workspace *services.WorkspaceService) *GitHandler {
	return &GitHandler{
		workspace: workspace,
		watching:  make(map[string]func()),
	}
}

// RegisterRoutes registers all git and workspace routes
func (h *GitHandler) RegisterRoutes(v1 fiber.Router) {
	v1.Get("/git/diff", h.GetWorktreeDiff)
	v1.Get("/git/status", h.GetWorktreeStatus)
	v1.Get("/git/branches", h.ListBranches)
	v1.Post("/git/worktrees", h.CreateWorktree)
	v1.Delete("/git/worktrees", h.RemoveWorktree)
	v1.Post("/git/branch/rename", h.RenameBranch)
	v1.Post("/git/checkpoint", h.CreateCheckpoint)
	v1.Post("/git/rollback", h.ApplyRollback)
	v1.Post("/workspaces/move", h.MoveWorkspace)
	v1.Post("/workspaces/watch", h.WatchWorkspace)
	v1.Delete("/workspaces/watch", h.UnwatchWorkspace)
	v1.Get("/watchers", h.ListWatchers)
}

// GetWorktreeDiff returns the parsed diff of a worktree against its base
// @Summary Get worktree diff
// @Description Returns the parsed diff of a worktree against its base branch, served from the content-hash cache when unchanged
// @Tags git
// @Produce json
// @Param worktree query string true "Worktree path"
// @Param base query string false "Base branch (defaults to the repository default)"
// @Param only_uncommitted query bool false "Diff against HEAD instead of the base branch"
// @Success 200 {object} models.WorktreeDiff
// @Router /v1/git/diff [get]
func (h *GitHandler) GetWorktreeDiff(c *fiber.Ctx) error {
	worktree := c.Query("worktree")
	if worktree == "" {
		return c.Status(400).JSON(fiber.Map{"error": "worktree query parameter is required"})
	}
	base := c.Query("base", "")
	onlyUncommitted := c.QueryBool("only_uncommitted", false)

	diff, err := h.workspace.Manager().GetWorktreeDiff(worktree, base, onlyUncommitted)
	if err != nil {
		logger.Errorf("Failed to diff %s: %v", worktree, err)
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(diff)
}

// GetWorktreeStatus returns the cached status summary of a worktree
// @Summary Get worktree status
// @Description Returns branch, dirtiness and change counts for a worktree
// @Tags git
// @Produce json
// @Param worktree query string true "Worktree path"
// @Param base query string false "Base branch recorded on the status"
// @Success 200 {object} models.WorktreeStatus
// @Router /v1/git/status [get]
func (h *GitHandler) GetWorktreeStatus(c *fiber.Ctx) error {
	worktree := c.Query("worktree")
	if worktree == "" {
		return c.Status(400).JSON(fiber.Map{"error": "worktree query parameter is required"})
	}

	status, err := h.workspace.Manager().GetStatus(worktree, c.Query("base", ""))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(status)
}

// ListBranches returns the local branches of a project repository
// @Summary List branches
// @Description Returns the local branches of a repository for base branch selection
// @Tags git
// @Produce json
// @Param project query string true "Project path"
// @Success 200 {object} map[string]interface{}
// @Router /v1/git/branches [get]
func (h *GitHandler) ListBranches(c *fiber.Ctx) error {
	project := c.Query("project")
	if project == "" {
		return c.Status(400).JSON(fiber.Map{"error": "project query parameter is required"})
	}

	branches, err := h.workspace.Manager().ListBranches(project)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"branches": branches})
}

// CreateWorktree creates an isolated worktree for a chat
// @Summary Create a chat worktree
// @Description Creates a worktree and branch for a chat session
// @Tags git
// @Accept json
// @Produce json
// @Param request body models.CreateWorktreeRequest true "Worktree creation request"
// @Success 200 {object} git.CreateWorktreeResult
// @Failure 409 {object} git.CreateWorktreeResult "Creation failed"
// @Router /v1/git/worktrees [post]
func (h *GitHandler) CreateWorktree(c *fiber.Ctx) error {
	var req models.CreateWorktreeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.ProjectPath == "" {
		return c.Status(400).JSON(fiber.Map{"error": "project_path is required"})
	}

	result := h.workspace.CreateWorktree(req)
	if !result.Success {
		return c.Status(409).JSON(result)
	}
	return c.JSON(result)
}

type removeWorktreeRequest struct {
	ProjectPath  string `json:"project_path"`
	WorktreePath string `json:"worktree_path"`
}

// RemoveWorktree deletes a chat worktree and everything attached to it
// @Summary Remove a worktree
// @Description Removes a worktree, its watcher, terminals and cache entries. Removing an already removed path succeeds.
// @Tags git
// @Accept json
// @Produce json
// @Param request body removeWorktreeRequest true "Worktree removal request"
// @Success 200 {object} git.OpResult
// @Failure 409 {object} git.OpResult "Removal failed"
// @Router /v1/git/worktrees [delete]
func (h *GitHandler) RemoveWorktree(c *fiber.Ctx) error {
	var req removeWorktreeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.WorktreePath == "" {
		return c.Status(400).JSON(fiber.Map{"error": "worktree_path is required"})
	}

	result := h.workspace.RemoveWorktree(req.ProjectPath, req.WorktreePath)
	if !result.Success {
		return c.Status(409).JSON(result)
	}
	return c.JSON(result)
}

// RenameBranch renames the branch checked out in a worktree
// @Summary Rename a worktree branch
// @Description Validates the new name and renames the branch under the worktree lock
// @Tags git
// @Accept json
// @Produce json
// @Param request body models.RenameBranchRequest true "Branch rename request"
// @Success 200 {object} git.OpResult
// @Failure 409 {object} git.OpResult "Rename rejected"
// @Router /v1/git/branch/rename [post]
func (h *GitHandler) RenameBranch(c *fiber.Ctx) error {
	var req models.RenameBranchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.WorktreePath == "" || req.NewBranch == "" {
		return c.Status(400).JSON(fiber.Map{"error": "worktree_path and new_branch are required"})
	}

	result := h.workspace.RenameBranch(req.WorktreePath, req.NewBranch)
	if !result.Success {
		return c.Status(409).JSON(result)
	}
	return c.JSON(result)
}

type checkpointRequest struct {
	WorktreePath string `json:"worktree_path"`
}

// CreateCheckpoint snapshots a worktree before a destructive operation
// @Summary Create a rollback checkpoint
// @Description Stashes the current working tree state under a tagged entry and re-applies it, leaving the tree unchanged
// @Tags git
// @Accept json
// @Produce json
// @Param request body checkpointRequest true "Checkpoint request"
// @Success 200 {object} git.CheckpointResult
// @Failure 409 {object} git.CheckpointResult "Checkpoint failed"
// @Router /v1/git/checkpoint [post]
func (h *GitHandler) CreateCheckpoint(c *fiber.Ctx) error {
	var req checkpointRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.WorktreePath == "" {
		return c.Status(400).JSON(fiber.Map{"error": "worktree_path is required"})
	}

	result := h.workspace.CreateCheckpoint(req.WorktreePath)
	if !result.Success {
		return c.Status(409).JSON(result)
	}
	return c.JSON(result)
}

// ApplyRollback restores a worktree from a checkpoint stash
// @Summary Apply a rollback checkpoint
// @Description Restores the stash entry carrying the checkpoint tag. Merge conflicts come back with a MERGE_CONFLICT error prefix.
// @Tags git
// @Accept json
// @Produce json
// @Param request body models.RollbackRequest true "Rollback request"
// @Success 200 {object} git.RollbackResult
// @Failure 409 {object} git.RollbackResult "Rollback failed"
// @Router /v1/git/rollback [post]
func (h *GitHandler) ApplyRollback(c *fiber.Ctx) error {
	var req models.RollbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.WorktreePath == "" {
		return c.Status(400).JSON(fiber.Map{"error": "worktree_path is required"})
	}

	result := h.workspace.ApplyRollback(req.WorktreePath, req.CheckpointTag)
	if !result.Success {
		return c.Status(409).JSON(result)
	}
	return c.JSON(result)
}

// MoveWorkspace relocates a chat's worktree directory
// @Summary Move a workspace directory
// @Description Moves a chat's worktree on disk, carrying its watcher, terminals and session state along
// @Tags workspaces
// @Accept json
// @Produce json
// @Param request body models.MoveWorkspaceRequest true "Move request"
// @Success 200 {object} git.OpResult
// @Failure 409 {object} git.OpResult "Move failed"
// @Router /v1/workspaces/move [post]
func (h *GitHandler) MoveWorkspace(c *fiber.Ctx) error {
	var req models.MoveWorkspaceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.ChatID == "" || req.TargetPath == "" {
		return c.Status(400).JSON(fiber.Map{"error": "chat_id and target_path are required"})
	}

	result := h.workspace.MoveWorkspaceDirectory(req.ChatID, req.TargetPath)
	if !result.Success {
		return c.Status(409).JSON(result)
	}
	return c.JSON(result)
}

type watchRequest struct {
	WorktreePath string `json:"worktree_path"`
}

// WatchWorkspace starts forwarding a worktree's change batches to SSE
// @Summary Watch a workspace
// @Description Subscribes the events stream to git metadata changes in a worktree. Idempotent per path.
// @Tags workspaces
// @Accept json
// @Produce json
// @Param request body watchRequest true "Watch request"
// @Success 200 {object} map[string]interface{}
// @Router /v1/workspaces/watch [post]
func (h *GitHandler) WatchWorkspace(c *fiber.Ctx) error {
	var req watchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.WorktreePath == "" {
		return c.Status(400).JSON(fiber.Map{"error": "worktree_path is required"})
	}
	path := filepath.Clean(req.WorktreePath)

	h.watchMu.Lock()
	_, already := h.watching[path]
	h.watchMu.Unlock()
	if already {
		return c.JSON(fiber.Map{"watching": true, "worktree_path": path})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	unsubscribe, err := h.workspace.WatchWorkspace(ctx, path)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	h.watchMu.Lock()
	if _, raced := h.watching[path]; raced {
		h.watchMu.Unlock()
		unsubscribe()
		return c.JSON(fiber.Map{"watching": true, "worktree_path": path})
	}
	h.watching[path] = unsubscribe
	h.watchMu.Unlock()

	logger.Infof("🔍 Watching workspace %s", path)
	return c.JSON(fiber.Map{"watching": true, "worktree_path": path})
}

// UnwatchWorkspace stops forwarding a worktree's change batches
// @Summary Unwatch a workspace
// @Description Stops the SSE forwarding for a worktree. Unwatching an unwatched path succeeds.
// @Tags workspaces
// @Accept json
// @Produce json
// @Param request body watchRequest true "Unwatch request"
// @Success 200 {object} map[string]interface{}
// @Router /v1/workspaces/watch [delete]
func (h *GitHandler) UnwatchWorkspace(c *fiber.Ctx) error {
	var req watchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	path := filepath.Clean(req.WorktreePath)

	h.watchMu.Lock()
	unsubscribe, ok := h.watching[path]
	delete(h.watching, path)
	h.watchMu.Unlock()

	if ok {
		unsubscribe()
	}
	return c.JSON(fiber.Map{"watching": false, "worktree_path": path})
}

// ListWatchers reports the live watchers
// @Summary List watchers
// @Description Returns the paths with a live git metadata watcher
// @Tags workspaces
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /v1/watchers [get]
func (h *GitHandler) ListWatchers(c *fiber.Ctx) error {
	registry := h.workspace.Watchers()
	return c.JSON(fiber.Map{
		"count": registry.WatcherCount(),
		"paths": registry.Paths(),
	})
}

// StopWatches tears down every SSE forwarding subscription
func (h *GitHandler) StopWatches() {
	h.watchMu.Lock()
	subs := make([]func(), 0, len(h.watching))
	for _, unsubscribe := range h.watching {
		subs = append(subs, unsubscribe)
	}
	h.watching = make(map[string]func())
	h.watchMu.Unlock()

	for _, unsubscribe := range subs {
		unsubscribe()
	}
}
