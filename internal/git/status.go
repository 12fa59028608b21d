package git

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/hong-ai/hong/internal/git/executor"
)

// conflictCodes are the two-letter porcelain status codes git reports for
// unmerged paths
var conflictCodes = map[string]bool{
	"UU": true, // both modified
	"AA": true, // both added
	"DD": true, // both deleted
	"AU": true, // added by us
	"UA": true, // added by them
	"DU": true, // deleted by us
	"UD": true, // deleted by them
}

// inProgressMarkers are git-dir files whose presence means a merge, rebase
// or cherry-pick is mid-flight
var inProgressMarkers = []string{
	"rebase-apply",
	"rebase-merge",
	"MERGE_HEAD",
	"CHERRY_PICK_HEAD",
}

// StatusChecker inspects worktree state via git status porcelain output
type StatusChecker struct {
	executor executor.CommandExecutor
}

// NewStatusChecker creates a new status checker
func NewStatusChecker(exec executor.CommandExecutor) *StatusChecker {
	return &StatusChecker{executor: exec}
}

// IsDirty reports whether the worktree has any uncommitted changes,
// untracked files included
func (s *StatusChecker) IsDirty(worktreePath string) bool {
	output, err := s.executor.ExecuteGitWithWorkingDir(worktreePath, "status", "--porcelain")
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(output)) != ""
}

// HasConflicts reports whether a merge, rebase or cherry-pick is in
// progress, or any path is in an unmerged state
func (s *StatusChecker) HasConflicts(worktreePath string) bool {
	// Linked worktrees carry a .git file, so markers live in the resolved
	// git dir rather than under worktreePath/.git directly
	if gitDir, err := ResolveGitDir(worktreePath); err == nil {
		for _, marker := range inProgressMarkers {
			if _, err := os.Stat(filepath.Join(gitDir, marker)); err == nil {
				return true
			}
		}
	}

	output, err := s.executor.ExecuteGitWithWorkingDir(worktreePath, "status", "--porcelain")
	if err != nil {
		return false
	}

	for _, line := range strings.Split(string(output), "\n") {
		if len(line) >= 2 && conflictCodes[line[:2]] {
			return true
		}
	}
	return false
}

// ConflictedFiles returns the paths currently in an unmerged state
func (s *StatusChecker) ConflictedFiles(worktreePath string) ([]string, error) {
	output, err := s.executor.ExecuteGitWithWorkingDir(worktreePath, "diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return nil, err
	}

	var files []string
	for _, line := range strings.Split(strings.TrimSpace(string(output)), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

// Summary collects branch, dirtiness and per-file counts in one pass over
// the porcelain output
func (s *StatusChecker) Summary(worktreePath string) (*StatusFields, error) {
	output, err := s.executor.ExecuteGitWithWorkingDir(worktreePath, "status", "--porcelain")
	if err != nil {
		return nil, err
	}

	fields := &StatusFields{}
	for _, line := range strings.Split(strings.TrimSpace(string(output)), "\n") {
		if len(line) < 3 {
			continue
		}
		code := line[:2]
		switch {
		case conflictCodes[code]:
			fields.HasConflicts = true
			fields.ChangedFiles++
		case code == "??":
			fields.UntrackedFiles++
		default:
			fields.ChangedFiles++
		}
	}
	fields.IsDirty = fields.ChangedFiles > 0 || fields.UntrackedFiles > 0

	branchOutput, err := s.executor.ExecuteGitWithWorkingDir(worktreePath, "branch", "--show-current")
	if err == nil {
		fields.Branch = strings.TrimSpace(string(branchOutput))
	}

	return fields, nil
}
