package git

import (
	"context"
	"fmt"
	"strings"

	taskerrors "taskstack.dev/taskstack/internal/errors"
)

// MergeKeepOurs merges other into branch preferring branch's side of any
// conflicting hunk (-X ours). The caller's checkout is saved and restored.
// Returns the new merge commit SHA.
func MergeKeepOurs(ctx context.Context, branch, other, message string) (newSHA string, err error) {
	priorTip, err := GetRevision(branch)
	if err != nil {
		return "", taskerrors.NewBranchNotFoundError(branch)
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

	if err := CheckoutBranch(ctx, branch); err != nil {
		return "", err
	}

	args := []string{"merge", "--no-ff", "--no-edit", "-X", "ours"}
	if message != "" {
		args = append(args, "-m", message)
	}
	args = append(args, other)
	if _, mergeErr := RunGitCommandWithContext(ctx, args...); mergeErr != nil {
		_, _ = RunGitCommandWithContext(ctx, "merge", "--abort")
		_ = UpdateBranchRef(branch, priorTip)
		return "", fmt.Errorf("merge of %s into %s failed: %w", other, branch, mergeErr)
	}

	return RunGitCommandWithContext(ctx, "rev-parse", "HEAD")
}

// PublishedAt reports whether a commit is reachable from any remote-tracking
// ref, returning the first such ref.
func PublishedAt(ctx context.Context, sha string) (string, bool, error) {
	lines, err := RunGitCommandLinesWithContext(ctx,
		"for-each-ref", "--format=%(refname)", "refs/remotes", "--contains", sha)
	if err != nil {
		// --contains on an unborn remote namespace errors on some git
		// versions; treat as unpublished.
		if strings.Contains(err.Error(), "no such commit") {
			return "", false, nil
		}
		return "", false, err
	}
	for _, ref := range lines {
		if ref != "" {
			return ref, true, nil
		}
	}
	return "", false, nil
}
