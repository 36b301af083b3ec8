package git

import (
	"context"
	"fmt"

	taskerrors "taskstack.dev/taskstack/internal/errors"
)

// GetCurrentBranch returns the checked-out branch name, or ErrNotOnBranch for
// a detached HEAD.
func GetCurrentBranch() (string, error) {
	out, err := RunGitCommand("symbolic-ref", "--short", "-q", "HEAD")
	if err != nil || out == "" {
		return "", taskerrors.ErrNotOnBranch
	}
	return out, nil
}

// GetAllBranchNames returns all local branch names.
func GetAllBranchNames() ([]string, error) {
	return RunGitCommandLines("for-each-ref", "--format=%(refname:short)", "refs/heads")
}

// BranchExists reports whether a local branch exists.
func BranchExists(name string) bool {
	_, err := RunGitCommand("show-ref", "--verify", "--quiet", "refs/heads/"+name)
	return err == nil
}

// CreateBranch creates a branch at the given commit without checking it out.
func CreateBranch(ctx context.Context, name, atCommit string) error {
	_, err := RunGitCommandWithContext(ctx, "branch", name, atCommit)
	if err != nil {
		return fmt.Errorf("failed to create branch %s at %s: %w", name, atCommit, err)
	}
	return nil
}

// DeleteBranch deletes a branch. With force, unmerged branches are deleted too.
func DeleteBranch(ctx context.Context, name string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	_, err := RunGitCommandWithContext(ctx, "branch", flag, name)
	if err != nil {
		return fmt.Errorf("failed to delete branch %s: %w", name, err)
	}
	return nil
}

// CheckoutBranch checks out an existing branch.
func CheckoutBranch(ctx context.Context, name string) error {
	_, err := RunGitCommandWithContext(ctx, "checkout", name)
	if err != nil {
		return fmt.Errorf("failed to checkout branch %s: %w", name, err)
	}
	return nil
}

// CheckoutDetached checks out a revision in detached HEAD state.
func CheckoutDetached(ctx context.Context, rev string) error {
	_, err := RunGitCommandWithContext(ctx, "checkout", "--detach", rev)
	if err != nil {
		return fmt.Errorf("failed to checkout %s in detached state: %w", rev, err)
	}
	return nil
}

// UpdateBranchRef moves a branch ref to a new commit without touching the
// working tree.
func UpdateBranchRef(branchName, commitSHA string) error {
	_, err := RunGitCommand("update-ref", "refs/heads/"+branchName, commitSHA)
	if err != nil {
		return fmt.Errorf("failed to update branch ref: %w", err)
	}
	return nil
}

// HardReset resets the current branch and working tree to a revision.
func HardReset(ctx context.Context, rev string) error {
	_, err := RunGitCommandWithContext(ctx, "reset", "--hard", rev)
	if err != nil {
		return fmt.Errorf("failed to hard reset to %s: %w", rev, err)
	}
	return nil
}

// StashPush stashes tracked and untracked modifications. The returned flag
// reports whether anything was stashed.
func StashPush(ctx context.Context, message string) (bool, error) {
	args := []string{"stash", "push", "-u"}
	if message != "" {
		args = append(args, "-m", message)
	}
	out, err := RunGitCommandWithContext(ctx, args...)
	if err != nil {
		return false, fmt.Errorf("stash push failed: %w", err)
	}
	return out != "No local changes to save", nil
}

// StashPop restores the most recent stash entry.
func StashPop(ctx context.Context) error {
	_, err := RunGitCommandWithContext(ctx, "stash", "pop")
	if err != nil {
		return fmt.Errorf("stash pop failed: %w", err)
	}
	return nil
}

// CheckoutPaths restores the given paths in the working tree and index from a
// revision.
func CheckoutPaths(ctx context.Context, rev string, paths []string) error {
	args := append([]string{"checkout", rev, "--"}, paths...)
	_, err := RunGitCommandWithContext(ctx, args...)
	if err != nil {
		return fmt.Errorf("failed to checkout paths from %s: %w", rev, err)
	}
	return nil
}

// CommitStaged records the staged changes with the given message.
func CommitStaged(ctx context.Context, message string) (string, error) {
	_, err := RunGitCommandWithContext(ctx, "commit", "--no-verify", "-m", message)
	if err != nil {
		return "", fmt.Errorf("commit failed: %w", err)
	}
	return RunGitCommandWithContext(ctx, "rev-parse", "HEAD")
}
