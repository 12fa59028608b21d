package executor

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sync"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// GitExecutor implements CommandExecutor using go-git for cheap read-only
// queries, falling back to shell git for everything else. Worktree change
// polling runs these reads constantly, so skipping the process spawn matters.
type GitExecutor struct {
	fallbackExecutor CommandExecutor
	repositoryCache  map[string]*gogit.Repository
	cacheMu          sync.RWMutex
}

// NewGitExecutor creates the main production executor
func NewGitExecutor() CommandExecutor {
	return &GitExecutor{
		fallbackExecutor: NewShellExecutor(),
		repositoryCache:  make(map[string]*gogit.Repository),
	}
}

// Execute runs a git command, using go-git where possible
func (e *GitExecutor) Execute(dir string, args ...string) ([]byte, error) {
	return e.ExecuteGitWithWorkingDir(dir, args...)
}

// ExecuteWithEnv runs a git command with custom environment variables.
// go-git has no env support, so this always shells out.
func (e *GitExecutor) ExecuteWithEnv(dir string, env []string, args ...string) ([]byte, error) {
	return e.fallbackExecutor.ExecuteWithEnv(dir, env, args...)
}

// ExecuteGitWithWorkingDir dispatches read-only subcommands to go-git and
// everything else to shell git
func (e *GitExecutor) ExecuteGitWithWorkingDir(workingDir string, args ...string) ([]byte, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no git command provided")
	}

	switch args[0] {
	case "status":
		return e.handleStatus(workingDir, args[1:])
	case "branch":
		return e.handleBranch(workingDir, args[1:])
	case "rev-parse":
		return e.handleRevParse(workingDir, args[1:])
	case "config":
		return e.handleConfig(workingDir, args[1:])
	case "show-ref":
		return e.handleShowRef(workingDir, args[1:])
	default:
		// Mutating commands, diffs, worktree and stash management all go
		// through the real binary
		return e.fallbackExecutor.ExecuteGitWithWorkingDir(workingDir, args...)
	}
}

// ExecuteCommand runs any command (not just git), always via the fallback
func (e *GitExecutor) ExecuteCommand(command string, args ...string) ([]byte, error) {
	return e.fallbackExecutor.ExecuteCommand(command, args...)
}

// ExecuteGitWithStdErr always shells out; callers want the real stderr
func (e *GitExecutor) ExecuteGitWithStdErr(workingDir string, args ...string) ([]byte, []byte, error) {
	return e.fallbackExecutor.ExecuteGitWithStdErr(workingDir, args...)
}

// InvalidateRepository drops the cached repository handle for a path. Must be
// called after a worktree is moved or removed, the cached handle keeps file
// descriptors into the old location.
func (e *GitExecutor) InvalidateRepository(path string) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return
	}
	e.cacheMu.Lock()
	delete(e.repositoryCache, absPath)
	e.cacheMu.Unlock()
}

// getRepository gets or opens a repository, caching the handle
func (e *GitExecutor) getRepository(repoPath string) (*gogit.Repository, error) {
	if repoPath == "" {
		repoPath = "."
	}

	absPath, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	e.cacheMu.RLock()
	repo, exists := e.repositoryCache[absPath]
	e.cacheMu.RUnlock()
	if exists {
		return repo, nil
	}

	// EnableDotGitCommonDir makes linked worktrees (a .git *file* pointing
	// at the real git dir) open correctly
	repo, err = gogit.PlainOpenWithOptions(absPath, &gogit.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", absPath, err)
	}

	e.cacheMu.Lock()
	e.repositoryCache[absPath] = repo
	e.cacheMu.Unlock()
	return repo, nil
}

func (e *GitExecutor) fallback(workingDir, command string, args []string) ([]byte, error) {
	return e.fallbackExecutor.ExecuteGitWithWorkingDir(workingDir, append([]string{command}, args...)...)
}

// handleStatus implements git status --porcelain
func (e *GitExecutor) handleStatus(workingDir string, args []string) ([]byte, error) {
	porcelain := false
	for _, arg := range args {
		if arg == "--porcelain" {
			porcelain = true
			break
		}
	}
	if !porcelain {
		return e.fallback(workingDir, "status", args)
	}

	repo, err := e.getRepository(workingDir)
	if err != nil {
		return e.fallback(workingDir, "status", args)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return e.fallback(workingDir, "status", args)
	}

	// A cached handle for the main repo can answer for a linked worktree's
	// path; only trust it when the roots agree
	absWorkingDir, err := filepath.Abs(workingDir)
	if err != nil {
		return e.fallback(workingDir, "status", args)
	}
	absRoot, err := filepath.Abs(worktree.Filesystem.Root())
	if err != nil || absRoot != absWorkingDir {
		return e.fallback(workingDir, "status", args)
	}

	status, err := worktree.Status()
	if err != nil {
		return e.fallback(workingDir, "status", args)
	}

	var output bytes.Buffer
	for filename, fileStatus := range status {
		output.WriteString(fmt.Sprintf("%s%s %s\n",
			statusCode(fileStatus.Staging), statusCode(fileStatus.Worktree), filename))
	}
	return output.Bytes(), nil
}

// handleBranch implements branch listing and --show-current
func (e *GitExecutor) handleBranch(workingDir string, args []string) ([]byte, error) {
	repo, err := e.getRepository(workingDir)
	if err != nil {
		return e.fallback(workingDir, "branch", args)
	}

	if len(args) == 0 {
		return e.listBranches(repo)
	}

	switch args[0] {
	case "--show-current":
		return e.currentBranch(repo)
	default:
		// Creation, deletion and renames go to shell git
		return e.fallback(workingDir, "branch", args)
	}
}

// handleRevParse implements the HEAD and --verify forms
func (e *GitExecutor) handleRevParse(workingDir string, args []string) ([]byte, error) {
	repo, err := e.getRepository(workingDir)
	if err != nil {
		return e.fallback(workingDir, "rev-parse", args)
	}

	if len(args) >= 1 && args[0] == "HEAD" {
		head, err := repo.Head()
		if err != nil {
			return nil, fmt.Errorf("failed to get HEAD: %w", err)
		}
		return []byte(head.Hash().String() + "\n"), nil
	}

	if len(args) >= 2 {
		switch args[0] {
		case "--verify":
			refName := args[1]
			ref, err := repo.Reference(plumbing.ReferenceName(refName), true)
			if err != nil {
				return nil, fmt.Errorf("reference %s not found: %w", refName, err)
			}
			return []byte(ref.Hash().String() + "\n"), nil
		case "--abbrev-ref":
			if args[1] == "HEAD" {
				return e.currentBranch(repo)
			}
		}
	}

	return e.fallback(workingDir, "rev-parse", args)
}

// handleConfig implements the --get queries the daemon issues
func (e *GitExecutor) handleConfig(workingDir string, args []string) ([]byte, error) {
	if len(args) >= 2 && args[0] == "--get" {
		switch args[1] {
		case "remote.origin.url":
			repo, err := e.getRepository(workingDir)
			if err != nil {
				return e.fallback(workingDir, "config", args)
			}
			remote, err := repo.Remote("origin")
			if err != nil {
				return nil, fmt.Errorf("remote origin not found: %w", err)
			}
			if len(remote.Config().URLs) == 0 {
				return nil, fmt.Errorf("no URLs configured for origin remote")
			}
			return []byte(remote.Config().URLs[0] + "\n"), nil
		case "core.bare":
			repo, err := e.getRepository(workingDir)
			if err != nil {
				return e.fallback(workingDir, "config", args)
			}
			if _, err := repo.Worktree(); err != nil {
				return []byte("true\n"), nil
			}
			return []byte("false\n"), nil
		}
	}

	return e.fallback(workingDir, "config", args)
}

// handleShowRef implements show-ref --verify [--quiet]
func (e *GitExecutor) handleShowRef(workingDir string, args []string) ([]byte, error) {
	verify := false
	quiet := false
	refName := ""
	for _, arg := range args {
		switch arg {
		case "--verify":
			verify = true
		case "--quiet":
			quiet = true
		default:
			if refName == "" {
				refName = arg
			}
		}
	}

	if !verify || refName == "" {
		return e.fallback(workingDir, "show-ref", args)
	}

	repo, err := e.getRepository(workingDir)
	if err != nil {
		return e.fallback(workingDir, "show-ref", args)
	}

	ref, err := repo.Reference(plumbing.ReferenceName(refName), true)
	if err != nil {
		return nil, fmt.Errorf("reference not found: %s", refName)
	}
	if quiet {
		return []byte(""), nil
	}
	return []byte(fmt.Sprintf("%s %s\n", ref.Hash().String(), refName)), nil
}

func (e *GitExecutor) listBranches(repo *gogit.Repository) ([]byte, error) {
	refs, err := repo.References()
	if err != nil {
		return nil, fmt.Errorf("failed to get references: %w", err)
	}

	currentBranch := ""
	if head, err := repo.Head(); err == nil && head.Name().IsBranch() {
		currentBranch = head.Name().Short()
	}

	var output bytes.Buffer
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if !ref.Name().IsBranch() {
			return nil
		}
		branch := ref.Name().Short()
		prefix := "  "
		if branch == currentBranch {
			prefix = "* "
		}
		output.WriteString(prefix + branch + "\n")
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate references: %w", err)
	}

	return output.Bytes(), nil
}

func (e *GitExecutor) currentBranch(repo *gogit.Repository) ([]byte, error) {
	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		// Detached HEAD prints nothing, matching the git binary
		return []byte("\n"), nil
	}
	return []byte(head.Name().Short() + "\n"), nil
}

func statusCode(status gogit.StatusCode) string {
	switch status {
	case gogit.Unmodified:
		return " "
	case gogit.Modified:
		return "M"
	case gogit.Added:
		return "A"
	case gogit.Deleted:
		return "D"
	case gogit.Renamed:
		return "R"
	case gogit.Copied:
		return "C"
	case gogit.UpdatedButUnmerged:
		return "U"
	case gogit.Untracked:
		return "?"
	default:
		return "?"
	}
}
