package git

import (
	"context"
	"errors"
	"strings"

	taskerrors "taskstack.dev/taskstack/internal/errors"
)

// WorktreeState captures the caller's checkout so mutating operations can put
// everything back the way they found it, including uncommitted modifications.
type WorktreeState struct {
	Branch   string // empty when HEAD was detached
	Revision string
	Stashed  bool
}

// SaveWorktree records the current checkout and stashes any local
// modifications.
func SaveWorktree(ctx context.Context) (*WorktreeState, error) {
	state := &WorktreeState{}

	branch, err := GetCurrentBranch()
	switch {
	case err == nil:
		state.Branch = branch
	case errors.Is(err, taskerrors.ErrNotOnBranch):
		rev, err := RunGitCommandWithContext(ctx, "rev-parse", "HEAD")
		if err != nil {
			return nil, err
		}
		state.Revision = rev
	default:
		return nil, err
	}

	stashed, err := StashPush(ctx, "taskstack: saved worktree")
	if err != nil {
		return nil, err
	}
	state.Stashed = stashed
	return state, nil
}

// RestoreWorktree returns to the saved checkout and pops the stash if one was
// taken.
func RestoreWorktree(ctx context.Context, state *WorktreeState) error {
	if state.Branch != "" {
		if err := CheckoutBranch(ctx, state.Branch); err != nil {
			return err
		}
	} else if state.Revision != "" {
		if err := CheckoutDetached(ctx, state.Revision); err != nil {
			return err
		}
	}

	if state.Stashed {
		return StashPop(ctx)
	}
	return nil
}

// CheckedOutElsewhere reports the worktree path holding branch when that
// worktree is not the current one. Moving such a branch from here would
// desync the other worktree's checkout.
func CheckedOutElsewhere(ctx context.Context, branch string) (string, bool, error) {
	path, err := WorktreePathOf(ctx, branch)
	if err != nil || path == "" {
		return "", false, err
	}
	if current, err := GetCurrentBranch(); err == nil && current == branch {
		return "", false, nil
	}
	return path, true, nil
}

// WorktreePathOf returns the worktree checkout path of a branch, or "" if the
// branch is not checked out anywhere.
func WorktreePathOf(ctx context.Context, branch string) (string, error) {
	out, err := RunGitCommandRaw("worktree", "list", "--porcelain")
	if err != nil {
		return "", err
	}

	var path string
	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.HasPrefix(line, "worktree "):
			path = strings.TrimPrefix(line, "worktree ")
		case line == "branch refs/heads/"+branch:
			return path, nil
		}
	}
	return "", nil
}
