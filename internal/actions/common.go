package actions

import (
	"strings"

	taskerrors "taskstack.dev/taskstack/internal/errors"
	"taskstack.dev/taskstack/internal/runtime"
)

// OrderedTaskBranches returns the task branches of a source branch in stack
// order, root first.
func OrderedTaskBranches(rt *runtime.Context, source string) ([]string, error) {
	tasks, err := rt.Topology.TaskBranchesOf(source)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, nil
	}
	return rt.Topology.OrderedDescendants(tasks)
}

// taskIDOf derives a task branch's id from its name and its source branch's
// recorded prefix. A branch without a source link is not a task branch.
func taskIDOf(rt *runtime.Context, branch string) (id, source string, err error) {
	source, err = rt.Topology.SourceOf(branch)
	if err != nil {
		return "", "", err
	}
	if source == "" {
		return "", "", taskerrors.ErrNotATaskBranch
	}

	_, prefix, err := rt.Topology.SourceMeta(source)
	if err != nil {
		return "", "", err
	}
	return strings.TrimPrefix(branch, prefix), source, nil
}

// SourceFor resolves the source branch a command should operate on from the
// branch it was invoked on: a task branch maps to its recorded source, a
// branch with task branches of its own (or recorded stack settings) is the
// source itself.
func SourceFor(rt *runtime.Context, branch string) (string, error) {
	source, err := rt.Topology.SourceOf(branch)
	if err != nil {
		return "", err
	}
	if source != "" {
		return source, nil
	}

	tasks, err := rt.Topology.TaskBranchesOf(branch)
	if err != nil {
		return "", err
	}
	if len(tasks) > 0 {
		return branch, nil
	}
	base, _, err := rt.Topology.SourceMeta(branch)
	if err != nil {
		return "", err
	}
	if base != "" {
		return branch, nil
	}
	return "", taskerrors.ErrNotATaskBranch
}

// stackParentOf returns the stack parent of a task branch, falling back to
// the source branch's recorded base for a branch with no parent link.
func stackParentOf(rt *runtime.Context, branch, source string) (string, error) {
	parent, err := rt.Topology.ParentOf(branch)
	if err != nil {
		return "", err
	}
	if parent != "" {
		return parent, nil
	}
	base, _, err := rt.Topology.SourceMeta(source)
	return base, err
}
