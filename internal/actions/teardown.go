package actions

import (
	"context"

	"taskstack.dev/taskstack/internal/runtime"
)

// Teardown deletes every task branch of a source branch along with all stack
// and source links, leaving the source branch itself untouched. Confirmation
// is the command layer's job; this always proceeds.
func Teardown(ctx context.Context, rt *runtime.Context, source string) ([]string, error) {
	ordered, err := OrderedTaskBranches(rt, source)
	if err != nil {
		return nil, err
	}

	var deleted []string
	for i := len(ordered) - 1; i >= 0; i-- {
		branch := ordered[i]
		if err := rt.Git.DeleteBranch(ctx, branch, true); err != nil {
			return deleted, err
		}
		if err := rt.Topology.Remove(branch); err != nil {
			return deleted, err
		}
		deleted = append(deleted, branch)
	}

	if err := rt.Topology.Remove(source); err != nil {
		return deleted, err
	}
	return deleted, nil
}
