package git

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/hong-ai/hong/internal/git/executor"
)

// stashLinePattern matches `stash@{N}: <message>` lines from git stash list
var stashLinePattern = regexp.MustCompile(`^stash@\{(\d+)\}:\s*(.*)$`)

// OperationsImpl implements the Operations interface over a CommandExecutor
type OperationsImpl struct {
	executor      executor.CommandExecutor
	statusChecker *StatusChecker
}

// NewOperations creates the production Operations implementation, using
// go-git fast paths with shell fallback
func NewOperations() Operations {
	return NewOperationsWithExecutor(executor.NewGitExecutor())
}

// NewOperationsWithExecutor creates Operations over a specific executor
func NewOperationsWithExecutor(exec executor.CommandExecutor) Operations {
	return &OperationsImpl{
		executor:      exec,
		statusChecker: NewStatusChecker(exec),
	}
}

// Core command execution

func (o *OperationsImpl) ExecuteGit(workingDir string, args ...string) ([]byte, error) {
	return o.executor.ExecuteGitWithWorkingDir(workingDir, args...)
}

func (o *OperationsImpl) ExecuteGitWithStdErr(workingDir string, args ...string) ([]byte, []byte, error) {
	return o.executor.ExecuteGitWithStdErr(workingDir, args...)
}

// Branch operations

func (o *OperationsImpl) BranchExists(repoPath, branch string, isRemote bool) bool {
	ref := branch
	switch {
	case isRemote:
		ref = "refs/remotes/origin/" + branch
	case !strings.HasPrefix(branch, "refs/"):
		ref = "refs/heads/" + branch
	}
	_, err := o.ExecuteGit(repoPath, "show-ref", "--verify", "--quiet", ref)
	return err == nil
}

func (o *OperationsImpl) CurrentBranch(worktreePath string) (string, error) {
	output, err := o.ExecuteGit(worktreePath, "branch", "--show-current")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

func (o *OperationsImpl) CreateBranch(repoPath, branch, fromRef string) error {
	args := []string{"branch", branch}
	if fromRef != "" {
		args = append(args, fromRef)
	}
	_, err := o.ExecuteGit(repoPath, args...)
	return err
}

func (o *OperationsImpl) DeleteBranch(repoPath, branch string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	_, err := o.ExecuteGit(repoPath, "branch", flag, branch)
	return err
}

func (o *OperationsImpl) RenameBranch(repoPath, oldBranch, newBranch string) error {
	_, err := o.ExecuteGit(repoPath, "branch", "-m", oldBranch, newBranch)
	return err
}

// Worktree operations

func (o *OperationsImpl) AddWorktree(repoPath, worktreePath, branch, fromRef string) error {
	args := []string{"worktree", "add", "-b", branch, worktreePath}
	if fromRef != "" {
		args = append(args, fromRef)
	}
	_, err := o.ExecuteGit(repoPath, args...)
	return err
}

func (o *OperationsImpl) RemoveWorktree(repoPath, worktreePath string, force bool) error {
	args := []string{"worktree", "remove"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, worktreePath)
	_, err := o.ExecuteGit(repoPath, args...)
	return err
}

func (o *OperationsImpl) ListWorktrees(repoPath string) ([]WorktreeInfo, error) {
	output, err := o.ExecuteGit(repoPath, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}

	var worktrees []WorktreeInfo
	var current WorktreeInfo

	for _, line := range strings.Split(string(output), "\n") {
		switch {
		case strings.HasPrefix(line, "worktree "):
			if current.Path != "" {
				worktrees = append(worktrees, current)
			}
			current = WorktreeInfo{Path: strings.TrimPrefix(line, "worktree ")}
		case strings.HasPrefix(line, "HEAD "):
			current.Commit = strings.TrimPrefix(line, "HEAD ")
		case strings.HasPrefix(line, "branch "):
			current.Branch = strings.TrimPrefix(line, "branch ")
		case line == "bare":
			current.Bare = true
		}
	}
	if current.Path != "" {
		worktrees = append(worktrees, current)
	}

	return worktrees, nil
}

func (o *OperationsImpl) PruneWorktrees(repoPath string) error {
	_, err := o.ExecuteGit(repoPath, "worktree", "prune")
	return err
}

// Status operations

func (o *OperationsImpl) IsDirty(worktreePath string) bool {
	return o.statusChecker.IsDirty(worktreePath)
}

func (o *OperationsImpl) HasConflicts(worktreePath string) bool {
	return o.statusChecker.HasConflicts(worktreePath)
}

func (o *OperationsImpl) StatusSummary(worktreePath string) (*StatusFields, error) {
	return o.statusChecker.Summary(worktreePath)
}

// Diff operations

func (o *OperationsImpl) MergeBase(worktreePath, refA, refB string) (string, error) {
	output, err := o.ExecuteGit(worktreePath, "merge-base", refA, refB)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

func (o *OperationsImpl) DiffAgainst(worktreePath, baseRef string) (string, error) {
	args := []string{"diff"}
	if baseRef != "" {
		args = append(args, baseRef)
	}
	output, err := o.ExecuteGit(worktreePath, args...)
	if err != nil {
		return "", err
	}
	return string(output), nil
}

func (o *OperationsImpl) UntrackedFiles(worktreePath string) ([]string, error) {
	output, err := o.ExecuteGit(worktreePath, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, err
	}

	var files []string
	for _, line := range strings.Split(strings.TrimSpace(string(output)), "\n") {
		if line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

// UntrackedFileDiff renders an untracked file as a new-file diff section.
// git diff --no-index exits 1 whenever the contents differ, which for
// /dev/null against a non-empty file is always, so exit 1 with output is
// success here.
func (o *OperationsImpl) UntrackedFileDiff(worktreePath, file string) (string, error) {
	stdout, _, err := o.ExecuteGitWithStdErr(worktreePath, "diff", "--no-index", "--", "/dev/null", file)
	if err != nil && len(stdout) == 0 {
		return "", err
	}
	return string(stdout), nil
}

// Stash operations

func (o *OperationsImpl) StashList(worktreePath string) ([]StashEntry, error) {
	output, err := o.ExecuteGit(worktreePath, "stash", "list")
	if err != nil {
		return nil, err
	}

	var entries []StashEntry
	for _, line := range strings.Split(strings.TrimSpace(string(output)), "\n") {
		matches := stashLinePattern.FindStringSubmatch(line)
		if matches == nil {
			continue
		}
		index, err := strconv.Atoi(matches[1])
		if err != nil {
			continue
		}
		entries = append(entries, StashEntry{Index: index, Message: matches[2]})
	}
	return entries, nil
}

func (o *OperationsImpl) StashPush(worktreePath, message string, includeUntracked bool) error {
	args := []string{"stash", "push"}
	if includeUntracked {
		args = append(args, "--include-untracked")
	}
	if message != "" {
		args = append(args, "-m", message)
	}
	_, err := o.ExecuteGit(worktreePath, args...)
	return err
}

// StashApply applies a stash entry in place. On failure the combined output
// is embedded in the error so callers can classify merge conflicts.
func (o *OperationsImpl) StashApply(worktreePath string, index int) error {
	ref := fmt.Sprintf("stash@{%d}", index)
	stdout, stderr, err := o.ExecuteGitWithStdErr(worktreePath, "stash", "apply", ref)
	if err != nil {
		return fmt.Errorf("stash apply %s failed: %s%s: %w", ref, stdout, stderr, err)
	}
	return nil
}

func (o *OperationsImpl) StashDrop(worktreePath string, index int) error {
	_, err := o.ExecuteGit(worktreePath, "stash", "drop", fmt.Sprintf("stash@{%d}", index))
	return err
}

// Rev operations

func (o *OperationsImpl) RevParse(worktreePath, ref string) (string, error) {
	if ref == "" {
		ref = "HEAD"
	}
	output, err := o.ExecuteGit(worktreePath, "rev-parse", ref)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// Config operations

func (o *OperationsImpl) ConfigGet(repoPath, key string) (string, error) {
	output, err := o.ExecuteGit(repoPath, "config", "--get", key)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// InvalidateRepoCache drops the cached go-git handle for a path when the
// underlying executor keeps one
func (o *OperationsImpl) InvalidateRepoCache(path string) {
	if inv, ok := o.executor.(interface{ InvalidateRepository(string) }); ok {
		inv.InvalidateRepository(path)
	}
}
