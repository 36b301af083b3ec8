// Package actions implements the stack operations exposed by the command
// layer: materializing a stack from a source branch, bidirectional sync,
// merge resolution, restacking and teardown.
package actions

import (
	"context"
	"errors"
	"fmt"

	taskerrors "taskstack.dev/taskstack/internal/errors"
	"taskstack.dev/taskstack/internal/partition"
	"taskstack.dev/taskstack/internal/runtime"
)

// SplitOptions controls MaterializeStack. Base and Prefix are only treated as
// explicit when non-empty; on a re-split an explicit value that contradicts
// the recorded one is fatal.
type SplitOptions struct {
	Source string
	Base   string
	Prefix string
}

// SplitResult reports what a materialize run did.
type SplitResult struct {
	Base    string
	Prefix  string
	Ordered []string          // task ids in stack order
	Created []string          // branches created this run
	Branch  map[string]string // task id -> branch name
}

// PartitionAndOrder returns the task ids of base..sourceTip in stack order
// without mutating anything.
func PartitionAndOrder(ctx context.Context, rt *runtime.Context, base, sourceTip string) ([]string, error) {
	commits, err := rt.Git.CommitsBetween(ctx, base, sourceTip)
	if err != nil {
		return nil, err
	}
	tasks, err := partition.Partition(commits)
	if err != nil {
		return nil, err
	}
	return partition.TaskIDs(tasks), nil
}

// MaterializeStack turns the source branch's commits above the base into a
// stack of task branches, one per Task-Id, each stacked on its predecessor.
// Re-running on an already-materialized stack is idempotent: existing task
// branches are left alone and only newly-appeared tasks get branches, spliced
// into the chain at their ordered position.
func MaterializeStack(ctx context.Context, rt *runtime.Context, opts SplitOptions) (*SplitResult, error) {
	if _, ok := rt.Git.ResolveRef(opts.Source); !ok {
		return nil, taskerrors.NewBranchNotFoundError(opts.Source)
	}

	base, prefix, err := resolveBaseAndPrefix(rt, opts)
	if err != nil {
		return nil, err
	}
	if _, ok := rt.Git.ResolveRef(base); !ok {
		return nil, taskerrors.NewBranchNotFoundError(base)
	}

	commits, err := rt.Git.CommitsBetween(ctx, base, opts.Source)
	if err != nil {
		return nil, err
	}
	tasks, err := partition.Partition(commits)
	if err != nil {
		return nil, err
	}

	result := &SplitResult{
		Base:    base,
		Prefix:  prefix,
		Ordered: partition.TaskIDs(tasks),
		Branch:  make(map[string]string, len(tasks)),
	}

	// Which desired branches already exist decides between initial split and
	// re-split behavior for each task.
	existing := make(map[string]bool, len(tasks))
	anyExisting := false
	for _, task := range tasks {
		branch := prefix + task.ID
		result.Branch[task.ID] = branch
		if rt.Git.BranchExists(branch) {
			existing[task.ID] = true
			anyExisting = true
		}
	}

	parent := base
	for i, task := range tasks {
		branch := result.Branch[task.ID]
		if existing[task.ID] {
			parent = branch
			continue
		}

		if anyExisting && task.Order == nil {
			rt.Splog.Warn("new task %s has no Task-Order trailer; its branch will be appended at the end of the stack", task.ID)
		}

		if err := createTaskBranch(ctx, rt, branch, parent, task); err != nil {
			return result, err
		}

		// Splice between the surrounding pre-existing branches; on an initial
		// split there is no following branch to reattach.
		beforeChild := ""
		for _, later := range tasks[i+1:] {
			if existing[later.ID] {
				beforeChild = result.Branch[later.ID]
				break
			}
		}
		if err := rt.Topology.Splice(branch, parent, beforeChild); err != nil {
			return result, err
		}
		if err := rt.Topology.SetSource(branch, opts.Source); err != nil {
			return result, err
		}

		result.Created = append(result.Created, branch)
		parent = branch
	}

	if err := rt.Topology.SetSourceMeta(opts.Source, base, prefix); err != nil {
		return result, err
	}
	return result, nil
}

// createTaskBranch creates branch at the parent's tip and replays the task's
// commits onto it. A replay conflict tears the half-built branch down again
// so a failed run leaves no partial branch behind.
func createTaskBranch(ctx context.Context, rt *runtime.Context, branch, parent string, task partition.Task) error {
	parentTip, ok := rt.Git.ResolveRef(parent)
	if !ok {
		return taskerrors.NewBranchNotFoundError(parent)
	}
	if err := rt.Git.CreateBranch(ctx, branch, parentTip); err != nil {
		return err
	}

	for _, c := range task.Commits {
		_, err := rt.Git.Replay(ctx, c.SHA, branch)
		if errors.Is(err, taskerrors.ErrEmptyReplay) {
			rt.Splog.Warn("commit %.8s is already contained in %s; skipping", c.SHA, branch)
			continue
		}
		if err != nil {
			if deleteErr := rt.Git.DeleteBranch(ctx, branch, true); deleteErr != nil {
				rt.Splog.Warn("failed to clean up partial branch %s: %v", branch, deleteErr)
			}
			return fmt.Errorf("materializing %s: %w", branch, err)
		}
	}
	return nil
}

// resolveBaseAndPrefix merges explicit options, metadata recovered from a
// previous split, and config defaults, in that order of authority. Explicit
// values that contradict recovered ones are rejected.
func resolveBaseAndPrefix(rt *runtime.Context, opts SplitOptions) (string, string, error) {
	recoveredBase, recoveredPrefix, err := rt.Topology.SourceMeta(opts.Source)
	if err != nil {
		return "", "", err
	}

	if opts.Base != "" && recoveredBase != "" && opts.Base != recoveredBase {
		return "", "", &taskerrors.BaseOrPrefixMismatchError{Field: "base", Recorded: recoveredBase, Supplied: opts.Base}
	}
	if opts.Prefix != "" && recoveredPrefix != "" && opts.Prefix != recoveredPrefix {
		return "", "", &taskerrors.BaseOrPrefixMismatchError{Field: "prefix", Recorded: recoveredPrefix, Supplied: opts.Prefix}
	}

	base := firstNonEmpty(recoveredBase, opts.Base, rt.Config.Base)
	prefix := firstNonEmpty(recoveredPrefix, opts.Prefix, rt.Config.Prefix)
	return base, prefix, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
