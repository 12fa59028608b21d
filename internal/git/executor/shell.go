package executor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/hong-ai/hong/internal/config"
	"github.com/hong-ai/hong/internal/logger"
)

// quietSubcommands are read-only commands run constantly by status polling
// and diff refreshes; logging each one would drown everything else.
var quietSubcommands = map[string]bool{
	"status":       true,
	"diff":         true,
	"rev-parse":    true,
	"symbolic-ref": true,
	"rev-list":     true,
	"merge-base":   true,
	"ls-files":     true,
	"show-ref":     true,
}

// ShellExecutor implements CommandExecutor using the git binary
type ShellExecutor struct {
	defaultEnv []string
}

// NewShellExecutor creates a new shell-based git command executor
func NewShellExecutor() CommandExecutor {
	return &ShellExecutor{
		defaultEnv: []string{
			"HOME=" + config.Runtime.HomeDir,
		},
	}
}

// Execute runs a git command in the specified directory
func (e *ShellExecutor) Execute(dir string, args ...string) ([]byte, error) {
	return e.ExecuteWithEnv(dir, e.defaultEnv, args...)
}

// ExecuteWithEnv runs a git command with custom environment variables
func (e *ShellExecutor) ExecuteWithEnv(dir string, env []string, args ...string) ([]byte, error) {
	return e.ExecuteWithEnvAndTimeout(dir, env, 0, args...)
}

// ExecuteWithEnvAndTimeout runs a git command with custom environment
// variables and an optional timeout
func (e *ShellExecutor) ExecuteWithEnvAndTimeout(dir string, env []string, timeout time.Duration, args ...string) ([]byte, error) {
	var ctx context.Context
	var cancel context.CancelFunc

	if timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), timeout)
		defer cancel()
	} else {
		ctx = context.Background()
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	cmd.Env = append(cmd.Environ(), env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("git %s timed out after %v", strings.Join(args, " "), timeout)
		}
		return nil, fmt.Errorf("git %s failed: %v\nstderr: %s", strings.Join(args, " "), err, stderr.String())
	}

	return stdout.Bytes(), nil
}

// ExecuteGitWithWorkingDir runs a git command with -C for the working directory
func (e *ShellExecutor) ExecuteGitWithWorkingDir(workingDir string, args ...string) ([]byte, error) {
	if workingDir != "" {
		args = append([]string{"-C", workingDir}, args...)
	}
	logGitCommand(args)
	return e.Execute("", args...)
}

// ExecuteCommand runs any command (not just git) with the standard environment
func (e *ShellExecutor) ExecuteCommand(command string, args ...string) ([]byte, error) {
	cmd := exec.Command(command, args...)
	cmd.Env = append(cmd.Environ(), e.defaultEnv...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %v\nstderr: %s", command, strings.Join(args, " "), err, stderr.String())
	}

	return stdout.Bytes(), nil
}

// ExecuteGitWithStdErr runs a git command and returns stdout and stderr
// separately. On a nonzero exit both buffers are still returned so the
// caller can tell a merge conflict apart from a broken invocation.
func (e *ShellExecutor) ExecuteGitWithStdErr(workingDir string, args ...string) ([]byte, []byte, error) {
	if workingDir != "" {
		args = append([]string{"-C", workingDir}, args...)
	}

	cmd := exec.Command("git", args...)
	cmd.Env = append(cmd.Environ(), e.defaultEnv...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return stdout.Bytes(), stderr.Bytes(), fmt.Errorf("git %s failed: %w", strings.Join(args, " "), err)
		}
		// Spawn-level failure, nothing was captured
		return nil, nil, fmt.Errorf("git %s failed: %w", strings.Join(args, " "), err)
	}

	return stdout.Bytes(), stderr.Bytes(), nil
}

// logGitCommand logs mutating git commands at debug level
func logGitCommand(args []string) {
	sub := ""
	for i, arg := range args {
		if arg == "-C" {
			continue
		}
		if i > 0 && args[i-1] == "-C" {
			continue
		}
		sub = arg
		break
	}
	if sub != "" && !quietSubcommands[sub] {
		logger.Debugf("🐚 git %v", args)
	}
}
