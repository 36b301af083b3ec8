package git

import (
	"context"
	"fmt"
	"os"

	taskerrors "taskstack.dev/taskstack/internal/errors"
)

// Rebase moves branch onto newBase, transplanting only the commits above
// oldBase (git rebase --onto newBase oldBase). The rebase runs on a detached
// HEAD so the caller's checkout never participates; it is saved before and
// restored after.
//
// On conflict the rebase is aborted, the branch keeps its prior tip, and a
// ConflictError is returned.
func Rebase(ctx context.Context, branch, oldBase, newBase string) (err error) {
	branchRev, err := GetRevision(branch)
	if err != nil {
		return taskerrors.NewBranchNotFoundError(branch)
	}

	if path, elsewhere, err := CheckedOutElsewhere(ctx, branch); err != nil {
		return err
	} else if elsewhere {
		return fmt.Errorf("%s is checked out in worktree %s", branch, path)
	}

	saved, err := SaveWorktree(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if restoreErr := RestoreWorktree(ctx, saved); restoreErr != nil && err == nil {
			err = restoreErr
		}
	}()

	// Rebase the SHA, not the ref, to avoid "already used by worktree" errors;
	// the branch ref only moves after the rebase has fully succeeded.
	if _, rebaseErr := RunGitCommandWithContext(ctx, "rebase", "--onto", newBase, oldBase, branchRev); rebaseErr != nil {
		if IsRebaseInProgress(ctx) {
			_, _ = RunGitCommandWithContext(ctx, "rebase", "--abort")
			return taskerrors.NewConflictError(branch, "", "rebase could not auto-apply")
		}
		_, _ = RunGitCommandWithContext(ctx, "rebase", "--abort")
		return fmt.Errorf("rebase of %s failed: %w", branch, rebaseErr)
	}

	newRev, err := RunGitCommandWithContext(ctx, "rev-parse", "HEAD")
	if err != nil {
		return fmt.Errorf("failed to read rebased tip: %w", err)
	}
	if err := UpdateBranchRef(branch, newRev); err != nil {
		return err
	}
	return nil
}

// IsRebaseInProgress checks if a rebase is currently in progress
func IsRebaseInProgress(ctx context.Context) bool {
	gitDir, err := RunGitCommandWithContext(ctx, "rev-parse", "--git-dir")
	if err != nil {
		return false
	}
	if _, err := os.Stat(gitDir + "/rebase-merge"); err == nil {
		return true
	}
	if _, err := os.Stat(gitDir + "/rebase-apply"); err == nil {
		return true
	}
	return false
}
