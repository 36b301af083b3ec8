package actions

import (
	"context"
	"fmt"

	taskerrors "taskstack.dev/taskstack/internal/errors"
	"taskstack.dev/taskstack/internal/git"
	"taskstack.dev/taskstack/internal/runtime"
)

// ResolveResult reports what Resolve did to a task branch's merge tip.
type ResolveResult struct {
	Task             string
	Clean            bool   // the merge carried no task-owned changes and was left alone
	ResolutionCommit string // set when the merge was collapsed
	MergeCommit      string // the recreated merge, set when collapsed
}

// Resolve collapses a task branch's merge-commit tip into a task-only
// resolution commit followed by a clean re-merge. The resolution commit is an
// ordinary commit carrying the task's Task-Id trailer, so the sync engine can
// compare and replay it like manual work.
//
// Preconditions: the tip must be a merge commit and must not be reachable
// from any remote-tracking ref.
func Resolve(ctx context.Context, rt *runtime.Context, task string) (result *ResolveResult, err error) {
	taskID, source, err := taskIDOf(rt, task)
	if err != nil {
		return nil, err
	}

	tip, err := rt.Git.GetCommit(ctx, task)
	if err != nil {
		return nil, err
	}
	if !tip.IsMerge() {
		return nil, fmt.Errorf("tip of %s (%.8s): %w", task, tip.SHA, taskerrors.ErrNotAMergeCommit)
	}
	if ref, published, err := rt.Git.PublishedAt(ctx, tip.SHA); err != nil {
		return nil, err
	} else if published {
		return nil, &taskerrors.AlreadyPublishedError{BranchName: task, CommitSHA: tip.SHA, RemoteRef: ref}
	}

	parent, err := stackParentOf(rt, task, source)
	if err != nil {
		return nil, err
	}
	parentTip, ok := rt.Git.ResolveRef(parent)
	if !ok {
		return nil, taskerrors.NewBranchNotFoundError(parent)
	}

	firstParent, secondParent := tip.Parents[0], tip.Parents[1]

	// The task owns every path touched between its stack parent and the
	// merge's first parent; only owned paths the merge actually changed need
	// a resolution commit.
	owned, err := rt.Git.ChangedPaths(ctx, parentTip, firstParent)
	if err != nil {
		return nil, err
	}
	changed, err := rt.Git.PathsDiffer(ctx, firstParent, tip.SHA, owned)
	if err != nil {
		return nil, err
	}
	if len(changed) == 0 {
		return &ResolveResult{Task: task, Clean: true}, nil
	}

	saved, err := rt.Git.SaveWorktree(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if restoreErr := rt.Git.RestoreWorktree(ctx, saved); restoreErr != nil && err == nil {
			err = restoreErr
		}
	}()

	// Any failure below puts the branch back on the original merge tip.
	restore := func() {
		if restoreErr := rt.Git.UpdateBranchRef(task, tip.SHA); restoreErr != nil {
			rt.Splog.Warn("failed to restore %s to %.8s: %v", task, tip.SHA, restoreErr)
		}
	}

	if err := rt.Git.CheckoutBranch(ctx, task); err != nil {
		return nil, err
	}
	if err := rt.Git.HardReset(ctx, firstParent); err != nil {
		restore()
		return nil, err
	}
	if err := rt.Git.CheckoutPaths(ctx, tip.SHA, changed); err != nil {
		restore()
		return nil, err
	}

	message := git.SetTrailer(fmt.Sprintf("Resolve merge of %.8s into task %s", secondParent, taskID),
		git.TrailerTaskID, taskID)
	resolutionSHA, err := rt.Git.CommitStaged(ctx, message)
	if err != nil {
		restore()
		return nil, err
	}

	// The re-merge cannot conflict: the resolution commit already holds the
	// intended content, and the "keep ours" policy discards anything else.
	mergeSHA, err := rt.Git.MergeKeepOurs(ctx, task, secondParent, tip.Message)
	if err != nil {
		restore()
		return nil, err
	}

	return &ResolveResult{
		Task:             task,
		ResolutionCommit: resolutionSHA,
		MergeCommit:      mergeSHA,
	}, nil
}
