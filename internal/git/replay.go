package git

import (
	"context"
	"fmt"

	taskerrors "taskstack.dev/taskstack/internal/errors"
)

// Replay applies an existing commit's change on top of ontoBranch, producing a
// new commit that records its origin ("cherry picked from"). The caller's
// checkout and any uncommitted modifications are saved first and restored
// afterwards.
//
// On conflict the in-flight pick is aborted, ontoBranch is left at its prior
// tip, and a ConflictError is returned. A change that collapses to nothing on
// top of ontoBranch returns ErrEmptyReplay and leaves the branch untouched.
func Replay(ctx context.Context, commitSHA, ontoBranch string) (newSHA string, err error) {
	priorTip, err := GetRevision(ontoBranch)
	if err != nil {
		return "", taskerrors.NewBranchNotFoundError(ontoBranch)
	}

	if path, elsewhere, err := CheckedOutElsewhere(ctx, ontoBranch); err != nil {
		return "", err
	} else if elsewhere {
		return "", fmt.Errorf("%s is checked out in worktree %s", ontoBranch, path)
	}

	saved, err := SaveWorktree(ctx)
	if err != nil {
		return "", err
	}
	defer func() {
		if restoreErr := RestoreWorktree(ctx, saved); restoreErr != nil && err == nil {
			err = restoreErr
		}
	}()

	if err := CheckoutBranch(ctx, ontoBranch); err != nil {
		return "", err
	}

	if _, pickErr := RunGitCommandWithContext(ctx, "cherry-pick", "-x", commitSHA); pickErr != nil {
		if !isCherryPickInProgress(ctx) {
			return "", fmt.Errorf("cherry-pick of %s failed: %w", commitSHA, pickErr)
		}

		unmerged, _ := RunGitCommandWithContext(ctx, "ls-files", "--unmerged")
		if unmerged == "" {
			// The change is fully contained in the branch already.
			_, _ = RunGitCommandWithContext(ctx, "cherry-pick", "--skip")
			return "", taskerrors.ErrEmptyReplay
		}

		_, _ = RunGitCommandWithContext(ctx, "cherry-pick", "--abort")
		_ = UpdateBranchRef(ontoBranch, priorTip)
		return "", taskerrors.NewConflictError(ontoBranch, commitSHA, "cherry-pick could not auto-apply")
	}

	newSHA, err = RunGitCommandWithContext(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to read replayed commit: %w", err)
	}
	return newSHA, nil
}

// isCherryPickInProgress reports whether a cherry-pick is stopped midway.
func isCherryPickInProgress(ctx context.Context) bool {
	_, err := RunGitCommandWithContext(ctx, "rev-parse", "-q", "--verify", "CHERRY_PICK_HEAD")
	return err == nil
}
