package git

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// branchCharPattern rejects characters git check-ref-format forbids
	branchCharPattern = regexp.MustCompile(`[\x00-\x20~^:?*\[\\\x7f]`)

	// branchSanitizePattern collapses anything outside the safe set when
	// deriving a branch component from a chat name
	branchSanitizePattern = regexp.MustCompile(`[^a-z0-9._-]+`)
)

// ResolveGitDir returns the absolute git directory for a worktree. For a
// primary checkout that is <path>/.git itself; linked worktrees carry a
// .git file whose "gitdir: " line points at the real directory, usually
// <repo>/.git/worktrees/<name>.
func ResolveGitDir(worktreePath string) (string, error) {
	absPath, err := filepath.Abs(worktreePath)
	if err != nil {
		return "", err
	}

	gitPath := filepath.Join(absPath, ".git")
	info, err := os.Stat(gitPath)
	if err != nil {
		return "", fmt.Errorf("no .git at %s: %w", absPath, err)
	}
	if info.IsDir() {
		return gitPath, nil
	}

	content, err := os.ReadFile(gitPath)
	if err != nil {
		return "", err
	}

	line := strings.TrimSpace(string(content))
	if !strings.HasPrefix(line, "gitdir: ") {
		return "", fmt.Errorf("%s is not a git worktree pointer", gitPath)
	}

	target := strings.TrimSpace(strings.TrimPrefix(line, "gitdir: "))
	if !filepath.IsAbs(target) {
		target = filepath.Join(absPath, target)
	}
	return filepath.Clean(target), nil
}

// FindGitRoot walks up from startDir looking for a .git directory or
// worktree pointer file
func FindGitRoot(startDir string) (string, bool) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false
	}

	for {
		gitPath := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitPath); err == nil {
			if info.IsDir() {
				return dir, true
			}
			if content, err := os.ReadFile(gitPath); err == nil &&
				strings.HasPrefix(string(content), "gitdir: ") {
				return dir, true
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", false
}

// GetDefaultBranch determines the default branch of a repository, trying
// methods in order of reliability:
//  1. refs/remotes/origin/HEAD
//  2. remote show origin
//  3. main or master, whichever exists locally
//  4. the current branch
func GetDefaultBranch(ops Operations, repoPath string) string {
	output, err := ops.ExecuteGit(repoPath, "symbolic-ref", "refs/remotes/origin/HEAD")
	if err == nil {
		branch := strings.TrimPrefix(strings.TrimSpace(string(output)), "refs/remotes/origin/")
		if branch != "" && branch != "HEAD" {
			return branch
		}
	}

	output, err = ops.ExecuteGit(repoPath, "remote", "show", "origin")
	if err == nil {
		for _, line := range strings.Split(string(output), "\n") {
			if strings.Contains(line, "HEAD branch:") {
				parts := strings.SplitN(line, ":", 2)
				if len(parts) == 2 {
					if branch := strings.TrimSpace(parts[1]); branch != "" {
						return branch
					}
				}
			}
		}
	}

	if ops.BranchExists(repoPath, "main", false) {
		return "main"
	}
	if ops.BranchExists(repoPath, "master", false) {
		return "master"
	}

	if branch, err := ops.CurrentBranch(repoPath); err == nil && branch != "" {
		return branch
	}

	return "main"
}

// IsValidBranchName applies the git check-ref-format rules that matter for
// single-level branch names created through the API
func IsValidBranchName(name string) bool {
	if name == "" || name == "@" {
		return false
	}
	if strings.HasPrefix(name, "-") {
		return false
	}
	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
		return false
	}
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return false
	}
	if strings.HasSuffix(name, ".lock") {
		return false
	}
	if strings.Contains(name, "..") || strings.Contains(name, "//") ||
		strings.Contains(name, "@{") {
		return false
	}
	for _, segment := range strings.Split(name, "/") {
		if segment == "" || strings.HasPrefix(segment, ".") || strings.HasSuffix(segment, ".lock") {
			return false
		}
	}
	return !branchCharPattern.MatchString(name)
}

// GenerateWorktreeBranch derives the managed branch name for a chat,
// hong/<name>-<short chat id>. The name component is lowercased and
// squeezed to branch-safe characters.
func GenerateWorktreeBranch(prefix, name, chatID string) string {
	component := strings.ToLower(strings.TrimSpace(name))
	component = branchSanitizePattern.ReplaceAllString(component, "-")
	component = strings.Trim(component, "-.")
	if component == "" {
		component = "chat"
	}

	short := chatID
	if len(short) > 8 {
		short = short[:8]
	}

	if prefix == "" {
		prefix = "hong/"
	}
	return prefix + component + "-" + short
}

// SanitizeWorkspacePath flattens a workspace path into a directory-safe
// session key by replacing separators and dots with dashes, matching how
// agent session directories are named on disk
func SanitizeWorkspacePath(path string) string {
	sanitized := strings.ReplaceAll(path, "/", "-")
	sanitized = strings.ReplaceAll(sanitized, ".", "-")
	return sanitized
}

// SanitizeBranchNameForFolder turns a branch name into a filesystem-safe
// directory component
func SanitizeBranchNameForFolder(branch string) string {
	folder := strings.ReplaceAll(branch, "/", "-")
	folder = branchSanitizePattern.ReplaceAllString(strings.ToLower(folder), "-")
	folder = strings.Trim(folder, "-.")
	if folder == "" {
		return "worktree"
	}
	return folder
}

// SanitizeProjectName normalizes a project directory name for use in
// worktree base paths
func SanitizeProjectName(name string) string {
	sanitized := branchSanitizePattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	sanitized = strings.Trim(sanitized, "-.")
	if sanitized == "" {
		return "project"
	}
	return sanitized
}

// CleanBranchName strips the current (*) and worktree (+) markers git
// branch prepends to listing output
func CleanBranchName(branchName string) string {
	branchName = strings.TrimSpace(branchName)
	branchName = strings.TrimPrefix(branchName, "*")
	branchName = strings.TrimPrefix(branchName, "+")
	return strings.TrimSpace(branchName)
}

// IsMergeConflict determines whether git output indicates a merge conflict
func IsMergeConflict(output string) bool {
	conflictIndicators := []string{
		"CONFLICT",
		"Automatic merge failed",
		"fix conflicts and then commit the result",
		"Merge conflict in",
		"error: could not apply",
		"hint: after resolving the conflicts",
	}

	lowerOutput := strings.ToLower(output)
	for _, indicator := range conflictIndicators {
		if strings.Contains(lowerOutput, strings.ToLower(indicator)) {
			return true
		}
	}
	return false
}
