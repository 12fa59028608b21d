package executor

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
)

// InMemoryExecutor implements CommandExecutor against in-memory go-git
// repositories. Commands git cannot express in-memory (stash, diff output)
// are served from canned state the test configures.
type InMemoryExecutor struct {
	repositories map[string]*TestRepository

	// stashes holds stash messages per repository path, newest first,
	// mirroring git stash list order
	stashes map[string][]string
	// diffOutputs is canned `git diff` text per repository path
	diffOutputs map[string]string
	// worktreeListOutputs is canned `git worktree list --porcelain` text
	// per repository path
	worktreeListOutputs map[string]string
	// stashApplyStderr, when set, makes every stash apply fail with this
	// stderr so conflict classification paths can be exercised
	stashApplyStderr string
}

// NewInMemoryExecutor creates a new in-memory git executor for testing
func NewInMemoryExecutor() *InMemoryExecutor {
	return &InMemoryExecutor{
		repositories:        make(map[string]*TestRepository),
		stashes:             make(map[string][]string),
		diffOutputs:         make(map[string]string),
		worktreeListOutputs: make(map[string]string),
	}
}

// AddRepository registers a test repository at the given path
func (e *InMemoryExecutor) AddRepository(path string, repo *TestRepository) {
	e.repositories[path] = repo
}

// CreateRepository creates and registers a new test repository
func (e *InMemoryExecutor) CreateRepository(path string) (*TestRepository, error) {
	repo, err := NewTestRepository(path)
	if err != nil {
		return nil, err
	}
	e.AddRepository(path, repo)
	return repo, nil
}

// SetStashMessages replaces the stash list for a repository path
func (e *InMemoryExecutor) SetStashMessages(path string, messages []string) {
	e.stashes[path] = messages
}

// SetDiffOutput sets the canned diff text returned for a repository path
func (e *InMemoryExecutor) SetDiffOutput(path, diffText string) {
	e.diffOutputs[path] = diffText
}

// SetWorktreeListOutput sets the canned worktree list porcelain output for
// a repository path
func (e *InMemoryExecutor) SetWorktreeListOutput(path, output string) {
	e.worktreeListOutputs[path] = output
}

// FailStashApplyWith makes stash apply fail with the given stderr text
func (e *InMemoryExecutor) FailStashApplyWith(stderr string) {
	e.stashApplyStderr = stderr
}

// Execute implements CommandExecutor.Execute for general commands
func (e *InMemoryExecutor) Execute(dir string, args ...string) ([]byte, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no command provided")
	}

	switch args[0] {
	case "echo":
		return []byte(strings.Join(args[1:], " ") + "\n"), nil
	default:
		return nil, fmt.Errorf("command not supported in memory executor: %s", args[0])
	}
}

// ExecuteWithEnv ignores env vars and delegates to Execute
func (e *InMemoryExecutor) ExecuteWithEnv(dir string, env []string, args ...string) ([]byte, error) {
	return e.Execute(dir, args...)
}

// ExecuteWithEnvAndTimeout ignores the timeout in tests
func (e *InMemoryExecutor) ExecuteWithEnvAndTimeout(dir string, env []string, timeout time.Duration, args ...string) ([]byte, error) {
	return e.ExecuteWithEnv(dir, env, args...)
}

// ExecuteCommand implements CommandExecutor.ExecuteCommand
func (e *InMemoryExecutor) ExecuteCommand(command string, args ...string) ([]byte, error) {
	return e.Execute("", append([]string{command}, args...)...)
}

// ExecuteGitWithWorkingDir implements CommandExecutor.ExecuteGitWithWorkingDir
func (e *InMemoryExecutor) ExecuteGitWithWorkingDir(workingDir string, args ...string) ([]byte, error) {
	repo := e.findRepository(workingDir)
	if repo == nil {
		return nil, fmt.Errorf("no repository found for path: %s", workingDir)
	}
	return e.handleGitCommand(repo, workingDir, args...)
}

// ExecuteGitWithStdErr implements CommandExecutor.ExecuteGitWithStdErr
func (e *InMemoryExecutor) ExecuteGitWithStdErr(workingDir string, args ...string) ([]byte, []byte, error) {
	if len(args) >= 2 && args[0] == "stash" && args[1] == "apply" {
		if e.stashApplyStderr != "" {
			return []byte(""), []byte(e.stashApplyStderr),
				fmt.Errorf("git stash apply failed: exit status 1")
		}
		return []byte(""), []byte(""), nil
	}

	output, err := e.ExecuteGitWithWorkingDir(workingDir, args...)
	return output, []byte(""), err
}

// findRepository finds the registered repository covering the working directory
func (e *InMemoryExecutor) findRepository(workingDir string) *TestRepository {
	if repo, exists := e.repositories[workingDir]; exists {
		return repo
	}
	for path, repo := range e.repositories {
		if strings.HasPrefix(workingDir, path) {
			return repo
		}
	}
	return nil
}

func (e *InMemoryExecutor) handleGitCommand(repo *TestRepository, workingDir string, args ...string) ([]byte, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no git command provided")
	}

	switch args[0] {
	case "status":
		return e.handleStatus(repo)
	case "branch":
		return e.handleBranch(repo, args[1:])
	case "rev-parse":
		return e.handleRevParse(repo, args[1:])
	case "show-ref":
		return e.handleShowRef(repo, args[1:])
	case "symbolic-ref":
		// No origin/HEAD in memory repos, callers fall through to their
		// next default-branch strategy
		return nil, fmt.Errorf("ref refs/remotes/origin/HEAD is not a symbolic ref")
	case "remote":
		return e.handleRemote(repo, args[1:])
	case "config":
		return e.handleConfig(repo, args[1:])
	case "diff":
		return []byte(e.diffOutputs[repo.path]), nil
	case "merge-base":
		return e.handleMergeBase(repo, args[1:])
	case "stash":
		return e.handleStash(repo, args[1:])
	case "worktree":
		if len(args) > 1 && args[1] == "list" {
			return []byte(e.worktreeListOutputs[repo.path]), nil
		}
		return []byte(""), nil
	case "checkout", "add", "commit", "ls-files", "fetch", "push":
		return []byte(""), nil
	default:
		return nil, fmt.Errorf("git command not implemented in memory executor: %s", args[0])
	}
}

func (e *InMemoryExecutor) handleStatus(repo *TestRepository) ([]byte, error) {
	worktree, err := repo.GetRepository().Worktree()
	if err != nil {
		return nil, err
	}
	status, err := worktree.Status()
	if err != nil {
		return nil, err
	}

	var output bytes.Buffer
	for filename, fileStatus := range status {
		output.WriteString(fmt.Sprintf("%s%s %s\n",
			statusCode(fileStatus.Staging), statusCode(fileStatus.Worktree), filename))
	}
	return output.Bytes(), nil
}

func (e *InMemoryExecutor) handleBranch(repo *TestRepository, args []string) ([]byte, error) {
	gitRepo := repo.GetRepository()

	if len(args) == 0 {
		return []byte(""), nil
	}

	switch args[0] {
	case "--show-current":
		head, err := gitRepo.Head()
		if err != nil {
			return nil, err
		}
		return []byte(head.Name().Short() + "\n"), nil
	case "--list":
		if len(args) > 1 {
			_, err := gitRepo.Reference(plumbing.NewBranchReferenceName(args[1]), true)
			if err != nil {
				return []byte(""), nil
			}
			return []byte("  " + args[1] + "\n"), nil
		}
		return e.listBranches(repo)
	case "-m":
		if len(args) == 3 {
			if err := repo.RenameBranch(args[1], args[2]); err != nil {
				return nil, err
			}
			return []byte(""), nil
		}
	}

	return []byte(""), nil
}

// listBranches renders local branches the way `git branch --list` does,
// current branch marked with an asterisk
func (e *InMemoryExecutor) listBranches(repo *TestRepository) ([]byte, error) {
	gitRepo := repo.GetRepository()

	currentBranch := ""
	if head, err := gitRepo.Head(); err == nil {
		currentBranch = head.Name().Short()
	}

	branches, err := gitRepo.Branches()
	if err != nil {
		return nil, err
	}

	var output bytes.Buffer
	err = branches.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		if name == currentBranch {
			output.WriteString("* " + name + "\n")
		} else {
			output.WriteString("  " + name + "\n")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return output.Bytes(), nil
}

func (e *InMemoryExecutor) handleRevParse(repo *TestRepository, args []string) ([]byte, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("rev-parse requires an argument")
	}

	gitRepo := repo.GetRepository()

	switch args[0] {
	case "HEAD":
		head, err := gitRepo.Head()
		if err != nil {
			return nil, err
		}
		return []byte(head.Hash().String() + "\n"), nil
	case "--verify":
		if len(args) > 1 {
			ref, err := gitRepo.Reference(plumbing.ReferenceName(args[1]), true)
			if err != nil {
				return nil, err
			}
			return []byte(ref.Hash().String() + "\n"), nil
		}
	case "--show-toplevel":
		return []byte(repo.path + "\n"), nil
	}

	return []byte(""), nil
}

func (e *InMemoryExecutor) handleShowRef(repo *TestRepository, args []string) ([]byte, error) {
	gitRepo := repo.GetRepository()

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
			if strings.HasPrefix(arg, "refs/") {
				refName = arg
			}
		}
	}

	if verify && refName != "" {
		ref, err := gitRepo.Reference(plumbing.ReferenceName(refName), true)
		if err != nil {
			return nil, fmt.Errorf("reference not found: %s", refName)
		}
		if quiet {
			return []byte(""), nil
		}
		return []byte(fmt.Sprintf("%s %s\n", ref.Hash().String(), refName)), nil
	}

	return []byte(""), nil
}

func (e *InMemoryExecutor) handleRemote(repo *TestRepository, args []string) ([]byte, error) {
	if len(args) >= 2 && args[0] == "get-url" {
		remote, err := repo.GetRepository().Remote(args[1])
		if err != nil {
			return nil, fmt.Errorf("remote %s not found: %w", args[1], err)
		}
		return []byte(remote.Config().URLs[0] + "\n"), nil
	}
	return []byte(""), nil
}

func (e *InMemoryExecutor) handleConfig(repo *TestRepository, args []string) ([]byte, error) {
	if len(args) >= 2 && args[0] == "--get" && args[1] == "remote.origin.url" {
		remote, err := repo.GetRepository().Remote("origin")
		if err != nil {
			return nil, fmt.Errorf("remote origin not found: %w", err)
		}
		return []byte(remote.Config().URLs[0] + "\n"), nil
	}
	return []byte(""), nil
}

func (e *InMemoryExecutor) handleMergeBase(repo *TestRepository, args []string) ([]byte, error) {
	head, err := repo.GetRepository().Head()
	if err != nil {
		return nil, err
	}
	return []byte(head.Hash().String() + "\n"), nil
}

func (e *InMemoryExecutor) handleStash(repo *TestRepository, args []string) ([]byte, error) {
	if len(args) == 0 {
		return []byte(""), nil
	}

	switch args[0] {
	case "list":
		var output bytes.Buffer
		for i, message := range e.stashes[repo.path] {
			output.WriteString(fmt.Sprintf("stash@{%d}: %s\n", i, message))
		}
		return output.Bytes(), nil
	case "push":
		message := ""
		for i, arg := range args {
			if arg == "-m" && i+1 < len(args) {
				message = args[i+1]
			}
		}
		e.stashes[repo.path] = append([]string{"On main: " + message}, e.stashes[repo.path]...)
		return []byte(""), nil
	case "drop":
		if entries := e.stashes[repo.path]; len(entries) > 0 {
			index := 0
			if len(args) > 1 {
				fmt.Sscanf(args[1], "stash@{%d}", &index)
			}
			if index < len(entries) {
				e.stashes[repo.path] = append(entries[:index], entries[index+1:]...)
			}
		}
		return []byte(""), nil
	case "apply":
		return []byte(""), nil
	}

	return []byte(""), nil
}
