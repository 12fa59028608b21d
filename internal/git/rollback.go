package git

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hong-ai/hong/internal/logger"
)

// CheckpointPrefix tags stash messages that act as rollback restore points
const CheckpointPrefix = "hong-checkpoint:"

// CheckpointResult is the outcome of creating a rollback checkpoint
type CheckpointResult struct {
	Success bool   `json:"success"`
	Tag     string `json:"tag,omitempty"`
	Stashed bool   `json:"stashed"`
	Error   string `json:"error,omitempty"`
}

// CreateRollbackCheckpoint snapshots the current working-tree state as a
// tagged stash entry and immediately re-applies it, so the tree is
// unchanged but a restore point exists. A clean tree produces no stash and
// an empty tag.
func (m *WorktreeManager) CreateRollbackCheckpoint(worktreePath string) CheckpointResult {
	tag := CheckpointPrefix + uuid.New().String()

	result := CheckpointResult{Success: true}
	_ = m.locks.WithLock(worktreePath, func() error {
		if err := m.ops.StashPush(worktreePath, tag, true); err != nil {
			result = CheckpointResult{Success: false, Error: err.Error()}
			return nil
		}

		entries, err := m.ops.StashList(worktreePath)
		if err != nil {
			result = CheckpointResult{Success: false, Error: err.Error()}
			return nil
		}
		if len(entries) == 0 || !strings.Contains(entries[0].Message, tag) {
			// Nothing to save, the tree was clean
			return nil
		}

		// Put the working tree back the way it was, the stash entry stays
		// behind as the restore point
		if err := m.ops.StashApply(worktreePath, 0); err != nil {
			result = CheckpointResult{Success: false, Error: err.Error()}
			return nil
		}

		result.Tag = tag
		result.Stashed = true
		return nil
	})

	if result.Stashed {
		logger.Debugf("📌 Checkpoint %s created in %s", result.Tag, worktreePath)
	}
	return result
}

// ApplyRollbackStash restores working-tree state from the checkpoint stash
// carrying the given tag. A tag missing from the stash list fails closed
// with CheckpointFound false, so callers must abort their own rollback step
// rather than truncating history against an unrestored tree.
func (m *WorktreeManager) ApplyRollbackStash(worktreePath, checkpointTag string) RollbackResult {
	if checkpointTag == "" {
		return RollbackResult{Success: false, CheckpointFound: false, Error: "empty checkpoint tag"}
	}

	var result RollbackResult
	_ = m.locks.WithLock(worktreePath, func() error {
		entries, err := m.ops.StashList(worktreePath)
		if err != nil {
			result = RollbackResult{Success: false, CheckpointFound: false, Error: err.Error()}
			return nil
		}

		index := -1
		for _, entry := range entries {
			if strings.Contains(entry.Message, checkpointTag) {
				index = entry.Index
				break
			}
		}
		if index < 0 {
			result = RollbackResult{
				Success:         false,
				CheckpointFound: false,
				Error:           fmt.Sprintf("checkpoint not found: %s", checkpointTag),
			}
			return nil
		}

		if err := m.ops.StashApply(worktreePath, index); err != nil {
			message := err.Error()
			if IsMergeConflict(message) {
				message = "MERGE_CONFLICT: " + message
			}
			result = RollbackResult{Success: false, CheckpointFound: true, Error: message}
			return nil
		}

		result = RollbackResult{Success: true, CheckpointFound: true}
		return nil
	})

	if result.Success {
		// Whatever was cached for this tree no longer describes it
		m.cache.InvalidateWorktree(worktreePath)
		logger.Infof("⏪ Rolled back %s to checkpoint %s", worktreePath, checkpointTag)
	}
	return result
}

// DropCheckpoint removes a checkpoint stash entry once the caller no longer
// needs the restore point. Missing tags are a benign no-op.
func (m *WorktreeManager) DropCheckpoint(worktreePath, checkpointTag string) OpResult {
	result := OpResult{Success: true}
	_ = m.locks.WithLock(worktreePath, func() error {
		entries, err := m.ops.StashList(worktreePath)
		if err != nil {
			result = failure(err)
			return nil
		}
		for _, entry := range entries {
			if strings.Contains(entry.Message, checkpointTag) {
				if err := m.ops.StashDrop(worktreePath, entry.Index); err != nil {
					result = failure(err)
				}
				return nil
			}
		}
		return nil
	})
	return result
}
