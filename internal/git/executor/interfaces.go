package executor

// CommandExecutor abstracts git command execution so worktree operations can
// run against shell git, go-git, or an in-memory repository in tests
type CommandExecutor interface {
	Execute(dir string, args ...string) ([]byte, error)
	ExecuteWithEnv(dir string, env []string, args ...string) ([]byte, error)
	ExecuteGitWithWorkingDir(workingDir string, args ...string) ([]byte, error)
	ExecuteCommand(command string, args ...string) ([]byte, error)
	// ExecuteGitWithStdErr captures stdout and stderr separately. Both are
	// returned even when the command exits nonzero so callers can classify
	// the failure from its output.
	ExecuteGitWithStdErr(workingDir string, args ...string) (stdout []byte, stderr []byte, err error)
}
