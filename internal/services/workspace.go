package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hong-ai/hong/internal/git"
	"github.com/hong-ai/hong/internal/logger"
	"github.com/hong-ai/hong/internal/models"
)

// WorkspaceService coordinates the pieces that share a worktree: the chat
// record, open terminals, the change watcher and the git layer. Lifecycle
// operations that touch more than one of them live here so their ordering
// is in one place.
type WorkspaceService struct {
	chats     *ChatStateManager
	manager   *git.WorktreeManager
	terminals *TerminalManager
	watchers  *WatcherRegistry
	emitter   EventsEmitter
}

// NewWorkspaceService wires the workspace coordinator
func NewWorkspaceService(
	chats *ChatStateManager,
	manager *git.WorktreeManager,
	terminals *TerminalManager,
	watchers *WatcherRegistry,
	emitter EventsEmitter,
) *WorkspaceService {
	return &WorkspaceService{
		chats:     chats,
		manager:   manager,
		terminals: terminals,
		watchers:  watchers,
		emitter:   emitter,
	}
}

// Manager exposes the underlying worktree manager
func (s *WorkspaceService) Manager() *git.WorktreeManager {
	return s.manager
}

// Watchers exposes the watcher registry
func (s *WorkspaceService) Watchers() *WatcherRegistry {
	return s.watchers
}

// Terminals exposes the terminal manager
func (s *WorkspaceService) Terminals() *TerminalManager {
	return s.terminals
}

// Chats exposes the chat state manager
func (s *WorkspaceService) Chats() *ChatStateManager {
	return s.chats
}

// CreateWorktree creates a worktree for a chat and records it on the chat
func (s *WorkspaceService) CreateWorktree(req models.CreateWorktreeRequest) git.CreateWorktreeResult {
	result := s.manager.CreateWorktreeForChat(req)
	if !result.Success {
		return result
	}

	if _, ok := s.chats.GetChat(req.ChatID); ok {
		if err := s.chats.UpdateChat(req.ChatID, map[string]interface{}{
			"worktree_path": result.WorktreePath,
			"branch":        result.Branch,
			"base_branch":   result.BaseBranch,
		}); err != nil {
			logger.Warnf("Worktree created but chat %s not updated: %v", req.ChatID, err)
		}
	}

	if s.emitter != nil {
		s.emitter.EmitWorktreeCreated(req.ChatID, result.WorktreePath, result.Branch)
	}
	return result
}

// RemoveWorktree tears down a worktree and everything attached to it
func (s *WorkspaceService) RemoveWorktree(projectPath, worktreePath string) git.OpResult {
	var chatID string
	if chat, ok := s.chats.FindChatByWorktree(worktreePath); ok {
		chatID = chat.ID
	}

	// Collaborators first, so nothing holds descriptors into the
	// directory while git deletes it
	s.watchers.Dispose(worktreePath)
	if chatID != "" {
		s.terminals.KillByWorkspaceID(chatID)
	}

	result := s.manager.RemoveWorktree(projectPath, worktreePath)
	if !result.Success {
		return result
	}

	if chatID != "" {
		if err := s.chats.UpdateChat(chatID, map[string]interface{}{
			"worktree_path": "",
			"branch":        "",
		}); err != nil {
			logger.Warnf("Worktree removed but chat %s not updated: %v", chatID, err)
		}
	}

	if s.emitter != nil {
		s.emitter.EmitWorktreeDeleted(chatID, worktreePath)
	}
	return result
}

// MoveWorkspaceDirectory relocates a chat's worktree on disk and brings
// every collaborator along. Stopping terminals and the watcher is best
// effort; the move itself either fully succeeds or leaves the original
// directory untouched.
func (s *WorkspaceService) MoveWorkspaceDirectory(chatID, targetPath string) git.OpResult {
	chat, ok := s.chats.GetChat(chatID)
	if !ok {
		return git.OpResult{Success: false, Error: fmt.Sprintf("chat %s not found", chatID)}
	}
	if chat.WorktreePath == "" {
		return git.OpResult{Success: false, Error: fmt.Sprintf("chat %s has no worktree", chatID)}
	}
	oldPath := chat.WorktreePath

	targetPath = filepath.Clean(targetPath)
	if targetPath == "" || targetPath == "." || targetPath == string(filepath.Separator) {
		return git.OpResult{Success: false, Error: "invalid target path"}
	}
	if _, err := os.Stat(targetPath); err == nil {
		return git.OpResult{Success: false, Error: fmt.Sprintf("target directory already exists: %s", targetPath)}
	}

	// Get collaborators out of the directory before renaming it
	hadWatcher := s.watchers.Has(oldPath)
	s.watchers.Dispose(oldPath)
	if killed := s.terminals.KillByWorkspaceID(chatID); killed > 0 {
		logger.Infof("Stopped %d terminal(s) before moving %s", killed, oldPath)
	}

	result := s.manager.MoveWorktreeDirectory(oldPath, targetPath)
	if !result.Success {
		// The original is untouched, put the watcher back
		if hadWatcher {
			s.watchers.GetOrCreate(oldPath)
		}
		return result
	}

	if err := s.chats.UpdateChat(chatID, map[string]interface{}{
		"worktree_path": targetPath,
	}); err != nil {
		logger.Warnf("Worktree moved but chat %s not updated: %v", chatID, err)
	}
	s.terminals.MigrateSessionDirs(oldPath, targetPath)

	if s.emitter != nil {
		s.emitter.EmitWorkspaceMoved(chatID, oldPath, targetPath)
	}
	return result
}

// RenameBranch renames a worktree's branch and keeps the owning chat
// record in sync
func (s *WorkspaceService) RenameBranch(worktreePath, newName string) git.OpResult {
	result := s.manager.RenameBranch(worktreePath, "", newName)
	if !result.Success {
		return result
	}

	if chat, ok := s.chats.FindChatByWorktree(worktreePath); ok {
		if err := s.chats.UpdateChat(chat.ID, map[string]interface{}{
			"branch": newName,
		}); err != nil {
			logger.Warnf("Branch renamed but chat %s not updated: %v", chat.ID, err)
		}
	}
	return result
}

// CreateCheckpoint snapshots a worktree before a destructive operation
func (s *WorkspaceService) CreateCheckpoint(worktreePath string) git.CheckpointResult {
	return s.manager.CreateRollbackCheckpoint(worktreePath)
}

// ApplyRollback restores a worktree from a checkpoint stash
func (s *WorkspaceService) ApplyRollback(worktreePath, checkpointTag string) git.RollbackResult {
	return s.manager.ApplyRollbackStash(worktreePath, checkpointTag)
}

// WatchWorkspace subscribes the events stream to a worktree's change
// batches. The returned closure stops the forwarding.
func (s *WorkspaceService) WatchWorkspace(ctx context.Context, worktreePath string) (func(), error) {
	if s.emitter == nil {
		return nil, fmt.Errorf("no events emitter attached")
	}
	return s.watchers.Subscribe(ctx, worktreePath, func(batch models.ChangeBatch) {
		s.emitter.EmitChangeBatch(batch)
	})
}
