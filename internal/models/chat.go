package models

import (
	"time"
)

// Chat represents a single agent conversation and the worktree backing it
type Chat struct {
	ID           string     `json:"id"`            // UUID
	Name         string     `json:"name"`          // User-facing chat title
	ProjectPath  string     `json:"project_path"`  // Repository the chat was started from
	WorktreePath string     `json:"worktree_path"` // Absolute path to the chat's worktree
	Branch       string     `json:"branch"`        // Branch checked out in the worktree
	BaseBranch   string     `json:"base_branch"`   // Branch the worktree was created from
	PRURL        string     `json:"pr_url,omitempty"`
	PRNumber     int        `json:"pr_number,omitempty"`
	ArchivedAt   *time.Time `json:"archived_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	LastAccessed time.Time  `json:"last_accessed"`
}

// IsArchived reports whether the chat has been archived
func (c *Chat) IsArchived() bool {
	return c.ArchivedAt != nil
}

// CreateWorktreeRequest represents a request to create a worktree for a chat
type CreateWorktreeRequest struct {
	ProjectPath      string `json:"project_path"`
	Name             string `json:"name"`    // Sanitized chat name, used in the branch
	ChatID           string `json:"chat_id"` // UUID of the owning chat
	BaseBranch       string `json:"base_branch,omitempty"`
	BranchType       string `json:"branch_type,omitempty"` // "generated" or "custom"
	CustomBranchName string `json:"custom_branch_name,omitempty"`
}

// RenameBranchRequest represents a request to rename a worktree's branch
type RenameBranchRequest struct {
	WorktreePath string `json:"worktree_path"`
	NewBranch    string `json:"new_branch"`
}

// MoveWorkspaceRequest represents a request to relocate a chat's worktree
type MoveWorkspaceRequest struct {
	ChatID     string `json:"chat_id"`
	TargetPath string `json:"target_path"`
}

// RollbackRequest represents a request to restore a checkpoint stash
type RollbackRequest struct {
	WorktreePath  string `json:"worktree_path"`
	CheckpointTag string `json:"checkpoint_tag"`
}
