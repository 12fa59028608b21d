package git

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hong-ai/hong/internal/cache"
	"github.com/hong-ai/hong/internal/config"
	"github.com/hong-ai/hong/internal/logger"
	"github.com/hong-ai/hong/internal/models"
)

// WorktreeManager composes the command gateway, the per-path lock table and
// the diff cache into the lifecycle operations chats run against. Every
// mutating operation takes the path lock; read paths go through the cache.
type WorktreeManager struct {
	ops   Operations
	locks *LockTable
	cache *cache.DiffCache
}

// NewWorktreeManager creates a manager with production wiring
func NewWorktreeManager() *WorktreeManager {
	return NewWorktreeManagerWith(NewOperations(), NewLockTable(), cache.NewDiffCacheWithDefaults())
}

// NewWorktreeManagerWith creates a manager over explicit collaborators
func NewWorktreeManagerWith(ops Operations, locks *LockTable, diffCache *cache.DiffCache) *WorktreeManager {
	return &WorktreeManager{
		ops:   ops,
		locks: locks,
		cache: diffCache,
	}
}

// Operations exposes the underlying command gateway
func (m *WorktreeManager) Operations() Operations {
	return m.ops
}

// Locks exposes the per-path lock table shared with collaborating services
func (m *WorktreeManager) Locks() *LockTable {
	return m.locks
}

// Cache exposes the diff cache for explicit invalidation at mutation points
func (m *WorktreeManager) Cache() *cache.DiffCache {
	return m.cache
}

// WithLock runs fn while holding the exclusive lock for a worktree path
func (m *WorktreeManager) WithLock(path string, fn func() error) error {
	return m.locks.WithLock(path, fn)
}

// CreateWorktreeForChat creates an isolated worktree and branch for a chat
// session so concurrent chats never share working-directory state. Expected
// failures (branch exists, target directory exists) come back as results,
// letting the caller fall back to the project directory itself.
func (m *WorktreeManager) CreateWorktreeForChat(req models.CreateWorktreeRequest) CreateWorktreeResult {
	root, ok := FindGitRoot(req.ProjectPath)
	if !ok {
		return CreateWorktreeResult{Success: false, Error: fmt.Sprintf("%s is not inside a git repository", req.ProjectPath)}
	}

	settings := config.LoadProjectSettings(root)

	baseBranch := req.BaseBranch
	if baseBranch == "" {
		baseBranch = settings.BaseBranch
	}
	if baseBranch == "" {
		baseBranch = GetDefaultBranch(m.ops, root)
	}

	var branch string
	if req.BranchType == "custom" && req.CustomBranchName != "" {
		if !IsValidBranchName(req.CustomBranchName) {
			return CreateWorktreeResult{Success: false, Error: fmt.Sprintf("invalid branch name: %s", req.CustomBranchName)}
		}
		branch = req.CustomBranchName
	} else {
		branch = GenerateWorktreeBranch(settings.ResolveBranchPrefix(), req.Name, req.ChatID)
	}

	projectName := SanitizeProjectName(filepath.Base(root))
	worktreeBase := settings.ResolveWorktreeDir(root, projectName)
	worktreePath := filepath.Join(worktreeBase, SanitizeBranchNameForFolder(branch))

	result := CreateWorktreeResult{
		Success:      true,
		WorktreePath: worktreePath,
		Branch:       branch,
		BaseBranch:   baseBranch,
	}

	_ = m.locks.WithLock(root, func() error {
		if m.ops.BranchExists(root, branch, false) {
			result = CreateWorktreeResult{Success: false, Error: fmt.Sprintf("branch %s already exists", branch)}
			return nil
		}
		if _, err := os.Stat(worktreePath); err == nil {
			result = CreateWorktreeResult{Success: false, Error: fmt.Sprintf("target directory already exists: %s", worktreePath)}
			return nil
		}
		if err := os.MkdirAll(worktreeBase, 0755); err != nil {
			result = CreateWorktreeResult{Success: false, Error: fmt.Sprintf("failed to create worktree base: %v", err)}
			return nil
		}
		if err := m.ops.AddWorktree(root, worktreePath, branch, baseBranch); err != nil {
			result = CreateWorktreeResult{Success: false, Error: err.Error()}
			return nil
		}
		return nil
	})

	if result.Success {
		logger.Infof("🌿 Created worktree %s on branch %s (base %s)", worktreePath, branch, baseBranch)
	}
	return result
}

// RemoveWorktree detaches and deletes a chat worktree. Calling it for an
// already-removed path succeeds, so retries and archive flows never crash.
func (m *WorktreeManager) RemoveWorktree(projectPath, worktreePath string) OpResult {
	root, ok := FindGitRoot(projectPath)
	if !ok {
		// The project itself is gone. If the worktree directory is gone
		// too there is nothing left to do.
		if _, err := os.Stat(worktreePath); os.IsNotExist(err) {
			return OpResult{Success: true}
		}
		return OpResult{Success: false, Error: fmt.Sprintf("%s is not inside a git repository", projectPath)}
	}

	result := OpResult{Success: true}
	_ = m.locks.WithLock(root, func() error {
		err := m.ops.RemoveWorktree(root, worktreePath, true)
		if err != nil {
			if _, statErr := os.Stat(worktreePath); os.IsNotExist(statErr) {
				// Already removed, just clean up metadata
				if pruneErr := m.ops.PruneWorktrees(root); pruneErr != nil {
					logger.Warnf("Failed to prune worktrees in %s: %v", root, pruneErr)
				}
				return nil
			}
			// git refused but the directory is still there, fall back to
			// removing it directly and pruning the metadata
			if rmErr := os.RemoveAll(worktreePath); rmErr != nil {
				result = failure(err)
				return nil
			}
			if pruneErr := m.ops.PruneWorktrees(root); pruneErr != nil {
				logger.Warnf("Failed to prune worktrees in %s: %v", root, pruneErr)
			}
			return nil
		}
		if pruneErr := m.ops.PruneWorktrees(root); pruneErr != nil {
			logger.Warnf("Failed to prune worktrees in %s: %v", root, pruneErr)
		}
		return nil
	})

	if result.Success {
		m.cache.InvalidateWorktree(worktreePath)
		m.ops.InvalidateRepoCache(worktreePath)
		logger.Infof("🗑️  Removed worktree %s", worktreePath)
	}
	return result
}

// RenameBranch validates the new name and renames under the path lock.
// Renaming to the current name is a no-op success.
func (m *WorktreeManager) RenameBranch(worktreePath, oldName, newName string) OpResult {
	if !IsValidBranchName(newName) {
		return OpResult{Success: false, Error: fmt.Sprintf("invalid branch name: %s", newName)}
	}

	result := OpResult{Success: true}
	_ = m.locks.WithLock(worktreePath, func() error {
		old := oldName
		if old == "" {
			current, err := m.ops.CurrentBranch(worktreePath)
			if err != nil {
				result = failure(err)
				return nil
			}
			old = current
		}
		if old == newName {
			return nil
		}
		if m.ops.BranchExists(worktreePath, newName, false) {
			result = OpResult{Success: false, Error: fmt.Sprintf("branch %s already exists", newName)}
			return nil
		}
		if err := m.ops.RenameBranch(worktreePath, old, newName); err != nil {
			result = failure(err)
			return nil
		}
		logger.Infof("🌿 Renamed branch %s -> %s in %s", old, newName, worktreePath)
		return nil
	})

	if result.Success {
		// The branch is part of the cached status
		m.cache.InvalidateStatus(worktreePath)
	}
	return result
}

// GetWorktreeDiff computes the diff of a worktree against its base branch
// (or HEAD when onlyUncommitted is set), untracked files included as
// synthetic new-file sections. Parsed results are cached by content hash,
// so an unchanged worktree never pays for a re-parse.
func (m *WorktreeManager) GetWorktreeDiff(worktreePath, baseBranch string, onlyUncommitted bool) (*models.WorktreeDiff, error) {
	diffText, err := m.collectDiffText(worktreePath, baseBranch, onlyUncommitted)
	if err != nil {
		return nil, err
	}

	contentHash := HashContent(diffText)
	if files, ok := m.cache.GetParsedDiff(worktreePath, contentHash); ok {
		return &models.WorktreeDiff{
			Files:       files,
			Stats:       ComputeDiffStats(files),
			ContentHash: contentHash,
		}, nil
	}

	files := ParseDiff(diffText)
	m.cache.SetParsedDiff(worktreePath, contentHash, files)

	return &models.WorktreeDiff{
		Files:       files,
		Stats:       ComputeDiffStats(files),
		ContentHash: contentHash,
	}, nil
}

// collectDiffText gathers the raw unified diff for a worktree: tracked
// changes against the chosen base ref plus one section per untracked file
func (m *WorktreeManager) collectDiffText(worktreePath, baseBranch string, onlyUncommitted bool) (string, error) {
	var builder strings.Builder

	baseRef := "HEAD"
	if !onlyUncommitted {
		if baseBranch == "" {
			baseBranch = GetDefaultBranch(m.ops, worktreePath)
		}
		baseRef = baseBranch
		// Diff from the merge base so commits on the base branch after
		// the fork point do not show up as reverse changes
		if mergeBase, err := m.ops.MergeBase(worktreePath, baseBranch, "HEAD"); err == nil && mergeBase != "" {
			baseRef = mergeBase
		}
	}

	tracked, err := m.ops.DiffAgainst(worktreePath, baseRef)
	if err != nil {
		return "", fmt.Errorf("diff against %s failed: %w", baseRef, err)
	}
	builder.WriteString(tracked)

	untracked, err := m.ops.UntrackedFiles(worktreePath)
	if err != nil {
		logger.Warnf("Failed to list untracked files in %s: %v", worktreePath, err)
		return builder.String(), nil
	}
	for _, file := range untracked {
		section, err := m.ops.UntrackedFileDiff(worktreePath, file)
		if err != nil {
			logger.Warnf("Failed to diff untracked file %s: %v", file, err)
			continue
		}
		builder.WriteString(section)
	}

	return builder.String(), nil
}

// GetStatus returns the status summary for a worktree, served from cache
// when present. Invalidation is explicit at mutation points, not automatic.
func (m *WorktreeManager) GetStatus(worktreePath, baseBranch string) (*models.WorktreeStatus, error) {
	if cached, ok := m.cache.GetStatus(worktreePath); ok {
		return cached, nil
	}

	fields, err := m.ops.StatusSummary(worktreePath)
	if err != nil {
		return nil, err
	}

	// Unborn branches have no HEAD yet, an empty hash is fine
	commitHash, _ := m.ops.RevParse(worktreePath, "HEAD")

	status := models.WorktreeStatus{
		Branch:         fields.Branch,
		BaseBranch:     baseBranch,
		IsDirty:        fields.IsDirty,
		HasConflicts:   fields.HasConflicts,
		ChangedFiles:   fields.ChangedFiles,
		UntrackedFiles: fields.UntrackedFiles,
		CommitHash:     commitHash,
	}
	m.cache.SetStatus(worktreePath, status)
	return &status, nil
}

// ListBranches returns the local branches of a repository for base-branch
// selection in the UI
func (m *WorktreeManager) ListBranches(projectPath string) ([]string, error) {
	output, err := m.ops.ExecuteGit(projectPath, "branch", "--list")
	if err != nil {
		return nil, err
	}

	var branches []string
	for _, line := range strings.Split(string(output), "\n") {
		name := CleanBranchName(line)
		if name == "" || strings.Contains(name, "HEAD detached") {
			continue
		}
		branches = append(branches, name)
	}
	return branches, nil
}
