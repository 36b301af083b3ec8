package actions

import (
	"context"
	"errors"

	taskerrors "taskstack.dev/taskstack/internal/errors"
	"taskstack.dev/taskstack/internal/runtime"
)

// RestackResult reports a restack walk.
type RestackResult struct {
	Merged    []string // branches already contained in the updated base, skipped
	Rebased   []string // branches rebased (or planned, in dry-run mode)
	StoppedAt string   // branch whose rebase conflicted, "" if the walk finished
}

// Restack rebases a source branch's stack onto an updated base. Branches
// whose tips are already ancestors of the updated base are skipped as merged;
// the rest are rebased in stack order onto a rolling onto pointer (the
// updated base first, then each rebased branch's new tip), each using its
// pre-run stack parent tip as the old-base boundary.
//
// The first conflict stops the walk: that branch is restored and reported,
// and branches already rebased keep their new tips. With dryRun no branch is
// mutated; the result reports what a real run would do.
func Restack(ctx context.Context, rt *runtime.Context, source, updatedBase string, dryRun bool) (*RestackResult, error) {
	if _, ok := rt.Git.ResolveRef(updatedBase); !ok {
		return nil, taskerrors.NewBranchNotFoundError(updatedBase)
	}

	ordered, err := OrderedTaskBranches(rt, source)
	if err != nil {
		return nil, err
	}

	// Pre-run tips of every branch and of every branch's stack parent are
	// captured before any rebase: a parent's identity changes as soon as it
	// is rebased, but the old-base boundary must be the tip the child was
	// actually built on.
	preTips := make(map[string]string, len(ordered))
	preParentTips := make(map[string]string, len(ordered))
	for _, branch := range ordered {
		tip, ok := rt.Git.ResolveRef(branch)
		if !ok {
			return nil, taskerrors.NewBranchNotFoundError(branch)
		}
		preTips[branch] = tip

		parent, err := stackParentOf(rt, branch, source)
		if err != nil {
			return nil, err
		}
		parentTip, ok := rt.Git.ResolveRef(parent)
		if !ok {
			return nil, taskerrors.NewBranchNotFoundError(parent)
		}
		preParentTips[branch] = parentTip
	}

	result := &RestackResult{}
	onto := updatedBase

	for _, branch := range ordered {
		merged, err := rt.Git.IsAncestor(preTips[branch], updatedBase)
		if err != nil {
			return result, err
		}
		if merged {
			result.Merged = append(result.Merged, branch)
			continue
		}

		if dryRun {
			result.Rebased = append(result.Rebased, branch)
			continue
		}

		if err := rt.Git.Rebase(ctx, branch, preParentTips[branch], onto); err != nil {
			if errors.Is(err, taskerrors.ErrConflict) {
				result.StoppedAt = branch
				return result, err
			}
			return result, err
		}
		result.Rebased = append(result.Rebased, branch)
		onto = branch
	}

	return result, nil
}
