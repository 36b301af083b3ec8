package actions

import (
	"context"
	"errors"

	taskerrors "taskstack.dev/taskstack/internal/errors"
	"taskstack.dev/taskstack/internal/git"
	"taskstack.dev/taskstack/internal/runtime"
)

// syncPlan is the two one-directional pending sets for one task branch,
// computed by patch-identity comparison against the source tip.
type syncPlan struct {
	taskID           string
	base             string
	parent           string       // stack parent branch
	forward          []git.Commit // source commits missing from the task branch
	backward         []git.Commit // task commits missing from source
	unresolvedMerges int
}

// buildSyncPlan computes the pending commits in both directions for one task
// branch without mutating anything.
func buildSyncPlan(ctx context.Context, rt *runtime.Context, source, task string) (*syncPlan, error) {
	taskID, linkedSource, err := taskIDOf(rt, task)
	if err != nil {
		return nil, err
	}
	if linkedSource != source {
		return nil, taskerrors.ErrNotATaskBranch
	}

	base, _, err := rt.Topology.SourceMeta(source)
	if err != nil {
		return nil, err
	}
	parent, err := stackParentOf(rt, task, source)
	if err != nil {
		return nil, err
	}

	plan := &syncPlan{taskID: taskID, base: base, parent: parent}

	// Source→Task: source commits carrying this task's id whose change is not
	// already somewhere in the task branch.
	taskIDs, err := rt.Git.PatchIDsBetween(ctx, base, task)
	if err != nil {
		return nil, err
	}
	sourceCommits, err := rt.Git.CommitsBetween(ctx, base, source)
	if err != nil {
		return nil, err
	}
	for _, c := range sourceCommits {
		if id, _ := c.Trailer(git.TrailerTaskID); id != taskID {
			continue
		}
		pid, err := rt.Git.PatchID(ctx, c.SHA)
		if err != nil {
			return nil, err
		}
		if pid == "" {
			continue
		}
		if _, have := taskIDs[pid]; !have {
			plan.forward = append(plan.forward, c)
		}
	}

	// Task→Source: the task's own commits (bounded above by the stack parent,
	// so inherited ancestor commits are excluded) whose change is not in
	// source. Merge commits are never replayed; they stay counted as
	// unresolved until collapsed by resolve.
	sourceIDs, err := rt.Git.PatchIDsBetween(ctx, base, source)
	if err != nil {
		return nil, err
	}
	parentTip, ok := rt.Git.ResolveRef(parent)
	if !ok {
		return nil, taskerrors.NewBranchNotFoundError(parent)
	}
	taskCommits, err := rt.Git.CommitsBetween(ctx, parentTip, task)
	if err != nil {
		return nil, err
	}
	for _, c := range taskCommits {
		if c.IsMerge() {
			plan.unresolvedMerges++
			continue
		}
		pid, err := rt.Git.PatchID(ctx, c.SHA)
		if err != nil {
			return nil, err
		}
		if pid == "" {
			continue
		}
		if _, have := sourceIDs[pid]; !have {
			plan.backward = append(plan.backward, c)
		}
	}

	return plan, nil
}

// SyncOneResult reports one task branch's sync outcome.
type SyncOneResult struct {
	Task            string
	ForwardApplied  int
	BackwardApplied int
}

// SyncOne synchronizes one task branch with its source, Source→Task first and
// then Task→Source. Each direction is all-or-nothing: a conflict restores the
// direction's target branch to its pre-direction tip and fails the task, but a
// direction already applied stays applied.
func SyncOne(ctx context.Context, rt *runtime.Context, source, task string) (*SyncOneResult, error) {
	plan, err := buildSyncPlan(ctx, rt, source, task)
	if err != nil {
		return nil, err
	}
	result := &SyncOneResult{Task: task}

	if plan.unresolvedMerges > 0 {
		rt.Splog.Warn("%s has %d unresolved merge commit(s); run resolve before syncing them back", task, plan.unresolvedMerges)
	}

	applied, err := replayAll(ctx, rt, plan.forward, task)
	result.ForwardApplied = applied
	if err != nil {
		return result, err
	}

	// Backfill missing Task-Id trailers on the task branch before replaying
	// into source, so the propagated copies carry the right id. Rewriting
	// changes commit identities, so the pending set is re-resolved through
	// the returned mapping.
	var missing []string
	for _, c := range plan.backward {
		if _, ok := c.Trailer(git.TrailerTaskID); !ok {
			missing = append(missing, c.SHA)
		}
	}
	if len(missing) > 0 {
		parentTip, _ := rt.Git.ResolveRef(plan.parent)
		mapping, err := rt.Git.BackfillTrailers(ctx, task, parentTip, missing, git.TrailerTaskID, plan.taskID)
		if err != nil {
			return result, err
		}
		for i, c := range plan.backward {
			if newSHA, ok := mapping[c.SHA]; ok {
				plan.backward[i].SHA = newSHA
			}
		}
	}

	applied, err = replayAll(ctx, rt, plan.backward, source)
	result.BackwardApplied = applied
	if err != nil {
		return result, err
	}
	return result, nil
}

// replayAll replays commits onto target in order. On conflict the target is
// restored to its tip from before the first replay, making the whole batch
// all-or-nothing; empty replays are skipped with a warning and do not fail
// the batch. The caller's checkout is saved once for the whole batch: when
// target is the current checkout, unwinding it needs a hard reset rather than
// a bare ref move, or the already-applied picks would linger in the index and
// working tree.
func replayAll(ctx context.Context, rt *runtime.Context, commits []git.Commit, target string) (applied int, err error) {
	if len(commits) == 0 {
		return 0, nil
	}
	priorTip, ok := rt.Git.ResolveRef(target)
	if !ok {
		return 0, taskerrors.NewBranchNotFoundError(target)
	}

	saved, err := rt.Git.SaveWorktree(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		if restoreErr := rt.Git.RestoreWorktree(ctx, saved); restoreErr != nil && err == nil {
			err = restoreErr
		}
	}()

	for _, c := range commits {
		_, replayErr := rt.Git.Replay(ctx, c.SHA, target)
		if errors.Is(replayErr, taskerrors.ErrEmptyReplay) {
			rt.Splog.Warn("change %.8s is already contained in %s; skipping", c.SHA, target)
			continue
		}
		if replayErr != nil {
			if restoreErr := unwindBranch(ctx, rt, target, priorTip); restoreErr != nil {
				rt.Splog.Warn("failed to restore %s to %.8s: %v", target, priorTip, restoreErr)
			}
			return 0, replayErr
		}
		applied++
	}
	return applied, nil
}

// unwindBranch moves target back to sha. When target is the current checkout
// the index and working tree are reset along with the ref.
func unwindBranch(ctx context.Context, rt *runtime.Context, target, sha string) error {
	if current, err := rt.Git.CurrentBranch(); err == nil && current == target {
		return rt.Git.HardReset(ctx, sha)
	}
	return rt.Git.UpdateBranchRef(target, sha)
}

// SyncAll synchronizes every task branch of a source, in stack order from the
// root. A failing branch is reported and left in its pre-attempt state, and
// the walk continues with the remaining branches.
func SyncAll(ctx context.Context, rt *runtime.Context, source string) ([]SyncOneResult, []error, error) {
	ordered, err := OrderedTaskBranches(rt, source)
	if err != nil {
		return nil, nil, err
	}

	var results []SyncOneResult
	var failures []error
	for _, task := range ordered {
		result, err := SyncOne(ctx, rt, source, task)
		if result != nil {
			results = append(results, *result)
		}
		if err != nil {
			failures = append(failures, err)
			rt.Splog.Warn("sync of %s failed: %v", task, err)
		}
	}
	return results, failures, nil
}

// Status reports pending sync counts for one task branch without mutating.
type Status struct {
	Task             string
	PendingForward   int
	PendingBackward  int
	UnresolvedMerges int
}

// StatusOne computes the sync status of one task branch.
func StatusOne(ctx context.Context, rt *runtime.Context, source, task string) (*Status, error) {
	plan, err := buildSyncPlan(ctx, rt, source, task)
	if err != nil {
		return nil, err
	}
	return &Status{
		Task:             task,
		PendingForward:   len(plan.forward),
		PendingBackward:  len(plan.backward),
		UnresolvedMerges: plan.unresolvedMerges,
	}, nil
}
