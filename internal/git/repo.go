package git

import (
	"fmt"
	"os"
	"sync"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Repository wraps a go-git repository for read-side object access.
type Repository struct {
	*gogit.Repository
	path string
}

// goGitMu synchronizes go-git operations to prevent concurrent packfile access
var goGitMu sync.Mutex

// OpenRepository opens the git repository containing path.
func OpenRepository(path string) (*Repository, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	return &Repository{
		Repository: repo,
		path:       worktree.Filesystem.Root(),
	}, nil
}

// openRepo opens the repository for the default runner's working directory.
// The repository is reopened per call rather than cached so that tests that
// switch directories between scenes always see the right repo.
func openRepo() (*Repository, error) {
	dir := defaultRunner.workingDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = wd
	}
	return OpenRepository(dir)
}

// GetRepoRoot returns the root directory of the repository.
func GetRepoRoot() (string, error) {
	repo, err := openRepo()
	if err != nil {
		return "", err
	}
	return repo.path, nil
}

// EnsureRepo verifies that the working directory is inside a git repository.
func EnsureRepo() error {
	_, err := openRepo()
	return err
}

// resolveRefHash resolves a ref (branch name, SHA, or ref path) to a hash
func resolveRefHash(repo *Repository, ref string) (plumbing.Hash, error) {
	goGitMu.Lock()
	defer goGitMu.Unlock()

	// 1. Try as a full reference name
	if r, err := repo.Reference(plumbing.ReferenceName(ref), true); err == nil {
		return r.Hash(), nil
	}

	// 2. Try as a local branch
	if r, err := repo.Reference(plumbing.ReferenceName("refs/heads/"+ref), true); err == nil {
		return r.Hash(), nil
	}

	// 3. Try as a remote branch
	if r, err := repo.Reference(plumbing.ReferenceName("refs/remotes/"+ref), true); err == nil {
		return r.Hash(), nil
	}

	// 4. Try as a raw hash
	if hash, err := repo.ResolveRevision(plumbing.Revision(ref)); err == nil {
		return *hash, nil
	}

	return plumbing.ZeroHash, fmt.Errorf("failed to resolve ref %q", ref)
}
