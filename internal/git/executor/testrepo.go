package executor

import (
	"fmt"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
)

// TestRepository is an in-memory git repository for exercising operations
// without touching disk or spawning processes
type TestRepository struct {
	repo *gogit.Repository
	fs   billy.Filesystem
	path string
}

// NewTestRepository creates a new in-memory repository rooted at a virtual path
func NewTestRepository(path string) (*TestRepository, error) {
	storage := memory.NewStorage()
	fs := memfs.New()

	repo, err := gogit.Init(storage, fs)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize test repository: %w", err)
	}

	return &TestRepository{
		repo: repo,
		fs:   fs,
		path: path,
	}, nil
}

// GetRepository returns the underlying go-git repository
func (tr *TestRepository) GetRepository() *gogit.Repository {
	return tr.repo
}

// Path returns the virtual path the repository is registered under
func (tr *TestRepository) Path() string {
	return tr.path
}

// CreateFile writes a file into the in-memory worktree
func (tr *TestRepository) CreateFile(filename, content string) error {
	file, err := tr.fs.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", filename, err)
	}
	defer file.Close()

	if _, err := file.Write([]byte(content)); err != nil {
		return fmt.Errorf("failed to write file %s: %w", filename, err)
	}
	return nil
}

// CommitFile creates a file and commits it
func (tr *TestRepository) CommitFile(filename, content, message string) error {
	if err := tr.CreateFile(filename, content); err != nil {
		return err
	}

	worktree, err := tr.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	if _, err := worktree.Add(filename); err != nil {
		return fmt.Errorf("failed to add file %s: %w", filename, err)
	}

	_, err = worktree.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "Test User",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// CreateBranch creates a new branch at the current HEAD
func (tr *TestRepository) CreateBranch(branchName string) error {
	head, err := tr.repo.Head()
	if err != nil {
		return fmt.Errorf("failed to get HEAD: %w", err)
	}

	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(branchName), head.Hash())
	if err := tr.repo.Storer.SetReference(ref); err != nil {
		return fmt.Errorf("failed to create branch %s: %w", branchName, err)
	}
	return nil
}

// CheckoutBranch checks out a branch
func (tr *TestRepository) CheckoutBranch(branchName string) error {
	worktree, err := tr.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	err = worktree.Checkout(&gogit.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branchName),
	})
	if err != nil {
		return fmt.Errorf("failed to checkout branch %s: %w", branchName, err)
	}
	return nil
}

// RenameBranch renames a branch, moving HEAD along if it pointed at the old name
func (tr *TestRepository) RenameBranch(oldName, newName string) error {
	oldRefName := plumbing.NewBranchReferenceName(oldName)
	newRefName := plumbing.NewBranchReferenceName(newName)

	oldRef, err := tr.repo.Reference(oldRefName, true)
	if err != nil {
		return fmt.Errorf("failed to get reference for branch %s: %w", oldName, err)
	}

	newRef := plumbing.NewHashReference(newRefName, oldRef.Hash())
	if err := tr.repo.Storer.SetReference(newRef); err != nil {
		return fmt.Errorf("failed to create branch %s: %w", newName, err)
	}

	head, err := tr.repo.Head()
	if err == nil && head.Name() == oldRefName {
		headRef := plumbing.NewSymbolicReference(plumbing.HEAD, newRefName)
		if err := tr.repo.Storer.SetReference(headRef); err != nil {
			return fmt.Errorf("failed to update HEAD to new branch %s: %w", newName, err)
		}
	}

	if err := tr.repo.Storer.RemoveReference(oldRefName); err != nil {
		return fmt.Errorf("failed to remove old branch %s: %w", oldName, err)
	}
	return nil
}

// AddRemote adds a remote to the repository
func (tr *TestRepository) AddRemote(name, url string) error {
	_, err := tr.repo.CreateRemote(&config.RemoteConfig{
		Name: name,
		URLs: []string{url},
	})
	if err != nil {
		return fmt.Errorf("failed to add remote %s: %w", name, err)
	}
	return nil
}

// NewTestRepositoryWithHistory creates a repository with a main branch, a
// feature branch and an origin remote, the shape most operations expect
func NewTestRepositoryWithHistory(path string) (*TestRepository, error) {
	repo, err := NewTestRepository(path)
	if err != nil {
		return nil, err
	}

	if err := repo.CommitFile("README.md", "# Test Repository\n", "Initial commit"); err != nil {
		return nil, err
	}
	// go-git initializes on master
	if err := repo.RenameBranch("master", "main"); err != nil {
		return nil, err
	}
	if err := repo.CreateBranch("feature/test"); err != nil {
		return nil, err
	}
	if err := repo.AddRemote("origin", "https://github.com/test/repo.git"); err != nil {
		return nil, err
	}

	return repo, nil
}
