package git

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/hong-ai/hong/internal/logger"
)

// MoveWorktreeDirectory relocates a worktree directory on disk. A
// same-filesystem rename is attempted first; cross-device or busy errors
// fall back to copy-verify-delete. The invariant either way: on failure
// the original directory is left untouched, never half-deleted.
func (m *WorktreeManager) MoveWorktreeDirectory(oldPath, newPath string) OpResult {
	if filepath.Clean(oldPath) == filepath.Clean(newPath) {
		return OpResult{Success: true}
	}

	result := OpResult{Success: true}
	_ = m.locks.WithLock(oldPath, func() error {
		if _, err := os.Stat(oldPath); os.IsNotExist(err) {
			result = OpResult{Success: false, Error: fmt.Sprintf("source directory does not exist: %s", oldPath)}
			return nil
		}
		if _, err := os.Stat(newPath); err == nil {
			result = OpResult{Success: false, Error: fmt.Sprintf("target directory already exists: %s", newPath)}
			return nil
		}
		if err := os.MkdirAll(filepath.Dir(newPath), 0755); err != nil {
			result = failure(err)
			return nil
		}

		// Drop any cached repository handle holding descriptors into the
		// directory about to move
		m.ops.InvalidateRepoCache(oldPath)

		if err := os.Rename(oldPath, newPath); err != nil {
			if !isCrossDeviceOrBusy(err) {
				result = failure(err)
				return nil
			}
			logger.Infof("Rename of %s failed (%v), falling back to copy", oldPath, err)
			result = m.moveByCopy(oldPath, newPath)
			if !result.Success {
				return nil
			}
		}

		// The repository's gitdir back-pointer still names the old path
		if _, err := m.ops.ExecuteGit(newPath, "worktree", "repair"); err != nil {
			logger.Warnf("Failed to repair worktree pointers for %s: %v", newPath, err)
		}
		return nil
	})

	if result.Success {
		m.cache.InvalidateWorktree(oldPath)
		logger.Infof("📦 Moved worktree %s -> %s", oldPath, newPath)
	}
	return result
}

// moveByCopy copies the directory tree, verifies the copy still looks like
// a worktree, and only then deletes the source. A failed or incomplete
// copy is removed and the source is reported untouched.
func (m *WorktreeManager) moveByCopy(oldPath, newPath string) OpResult {
	if err := copyDirRecursive(oldPath, newPath); err != nil {
		if rmErr := os.RemoveAll(newPath); rmErr != nil {
			logger.Warnf("Failed to remove partial copy at %s: %v", newPath, rmErr)
		}
		return OpResult{Success: false, Error: fmt.Sprintf("copy failed, original left in place: %v", err)}
	}

	if !hasGitEntry(newPath) {
		if rmErr := os.RemoveAll(newPath); rmErr != nil {
			logger.Warnf("Failed to remove incomplete copy at %s: %v", newPath, rmErr)
		}
		return OpResult{Success: false, Error: "copied directory is missing its .git entry, original left in place"}
	}

	// The copy is authoritative now. Losing the old directory is a
	// warning, not a failure.
	if err := os.RemoveAll(oldPath); err != nil {
		logger.Warnf("Copied %s to %s but could not remove the old directory: %v", oldPath, newPath, err)
	}
	return OpResult{Success: true}
}

// hasGitEntry reports whether a directory contains a .git directory or a
// worktree pointer file
func hasGitEntry(path string) bool {
	gitPath := filepath.Join(path, ".git")
	info, err := os.Stat(gitPath)
	if err != nil {
		return false
	}
	if info.IsDir() {
		return true
	}
	content, err := os.ReadFile(gitPath)
	return err == nil && strings.HasPrefix(string(content), "gitdir: ")
}

// isCrossDeviceOrBusy matches the two rename failures that mean "copy
// instead" rather than "give up"
func isCrossDeviceOrBusy(err error) bool {
	return errors.Is(err, syscall.EXDEV) || errors.Is(err, syscall.EBUSY)
}

// copyDirRecursive copies a directory tree preserving file modes and
// symlinks
func copyDirRecursive(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dst, 0755); err != nil {
		return err
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		switch {
		case entry.IsDir():
			if err := copyDirRecursive(srcPath, dstPath); err != nil {
				return err
			}
		case entry.Type()&os.ModeSymlink != 0:
			target, err := os.Readlink(srcPath)
			if err != nil {
				return err
			}
			if err := os.Symlink(target, dstPath); err != nil {
				return err
			}
		default:
			if err := copyRegularFile(srcPath, dstPath); err != nil {
				return err
			}
		}
	}

	return nil
}

// copyRegularFile copies one file, carrying the source mode over
func copyRegularFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	info, err := sourceFile.Stat()
	if err != nil {
		return err
	}

	destFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	defer destFile.Close()

	_, err = io.Copy(destFile, sourceFile)
	return err
}
