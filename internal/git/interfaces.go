package git

// Operations is the command gateway every worktree lifecycle operation runs
// git through. Implementations exist for shell git, go-git fast paths and
// in-memory repositories, so the lifecycle layer is testable without a git
// binary.
type Operations interface {
	// Core command execution
	ExecuteGit(workingDir string, args ...string) ([]byte, error)
	ExecuteGitWithStdErr(workingDir string, args ...string) (stdout []byte, stderr []byte, err error)

	// Branch operations
	BranchExists(repoPath, branch string, isRemote bool) bool
	CurrentBranch(worktreePath string) (string, error)
	CreateBranch(repoPath, branch, fromRef string) error
	DeleteBranch(repoPath, branch string, force bool) error
	RenameBranch(repoPath, oldBranch, newBranch string) error

	// Worktree operations
	AddWorktree(repoPath, worktreePath, branch, fromRef string) error
	RemoveWorktree(repoPath, worktreePath string, force bool) error
	ListWorktrees(repoPath string) ([]WorktreeInfo, error)
	PruneWorktrees(repoPath string) error

	// Status operations
	IsDirty(worktreePath string) bool
	HasConflicts(worktreePath string) bool
	StatusSummary(worktreePath string) (*StatusFields, error)

	// Diff operations
	MergeBase(worktreePath, refA, refB string) (string, error)
	DiffAgainst(worktreePath, baseRef string) (string, error)
	UntrackedFiles(worktreePath string) ([]string, error)
	UntrackedFileDiff(worktreePath, file string) (string, error)

	// Stash operations
	StashList(worktreePath string) ([]StashEntry, error)
	StashPush(worktreePath, message string, includeUntracked bool) error
	StashApply(worktreePath string, index int) error
	StashDrop(worktreePath string, index int) error

	// Rev operations
	RevParse(worktreePath, ref string) (string, error)

	// Config operations
	ConfigGet(repoPath, key string) (string, error)

	// InvalidateRepoCache drops any cached repository handle for a path.
	// Required after a worktree is moved or removed so stale descriptors
	// are not reused.
	InvalidateRepoCache(path string)
}

// WorktreeInfo represents one entry of `git worktree list --porcelain`
type WorktreeInfo struct {
	Path   string
	Branch string
	Commit string
	Bare   bool
}

// StashEntry represents one entry of `git stash list`
type StashEntry struct {
	Index   int
	Message string
}

// StatusFields is the raw status information StatusSummary extracts from
// porcelain output before the caching layer decorates it
type StatusFields struct {
	Branch         string
	IsDirty        bool
	HasConflicts   bool
	ChangedFiles   int
	UntrackedFiles int
}

// OpResult is the outcome of a lifecycle operation whose failures are
// expected and reported rather than raised
type OpResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// CreateWorktreeResult is the outcome of creating a chat worktree
type CreateWorktreeResult struct {
	Success      bool   `json:"success"`
	WorktreePath string `json:"worktree_path,omitempty"`
	Branch       string `json:"branch,omitempty"`
	BaseBranch   string `json:"base_branch,omitempty"`
	Error        string `json:"error,omitempty"`
}

// RollbackResult is the outcome of applying a checkpoint stash
type RollbackResult struct {
	Success         bool   `json:"success"`
	Error           string `json:"error,omitempty"`
	CheckpointFound bool   `json:"checkpoint_found"`
}

// failure builds a failed OpResult from an error
func failure(err error) OpResult {
	return OpResult{Success: false, Error: err.Error()}
}
