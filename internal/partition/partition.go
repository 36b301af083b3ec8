// Package partition groups a linear commit range by Task-Id and computes the
// deterministic stack order used when materializing a stack.
package partition

import (
	"fmt"
	"sort"
	"strconv"

	taskerrors "taskstack.dev/taskstack/internal/errors"
	"taskstack.dev/taskstack/internal/git"
)

// Task is one partition of the commit range: all commits carrying the same
// Task-Id, in original commit order.
type Task struct {
	ID      string
	Order   *int // from the Task-Order trailer, nil when unordered
	Commits []git.Commit
}

// Partition groups commits (oldest first) by first appearance of their
// Task-Id trailer, then orders the groups:
//
//   - tasks carrying a Task-Order value come first, ascending by that value
//   - tasks without Task-Order follow, keeping first-appearance order
//
// With no Task-Order anywhere this degrades to pure commit order; with every
// task ordered it is pure explicit order. A commit without Task-Id is fatal,
// as is a Task-Order value shared by two tasks.
func Partition(commits []git.Commit) ([]Task, error) {
	byID := make(map[string]*Task)
	var appearance []string

	for _, c := range commits {
		id, ok := c.Trailer(git.TrailerTaskID)
		if !ok || id == "" {
			return nil, &taskerrors.MissingTaskIDError{CommitSHA: c.SHA, Subject: c.Subject}
		}

		task, seen := byID[id]
		if !seen {
			task = &Task{ID: id}
			byID[id] = task
			appearance = append(appearance, id)
		}
		task.Commits = append(task.Commits, c)

		if raw, ok := c.Trailer(git.TrailerTaskOrder); ok {
			order, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("commit %s: Task-Order %q is not numeric", c.SHA, raw)
			}
			if task.Order == nil {
				task.Order = &order
			}
		}
	}

	var ordered, unordered []Task
	orderOwner := make(map[int]string)
	for _, id := range appearance {
		task := *byID[id]
		if task.Order == nil {
			unordered = append(unordered, task)
			continue
		}
		if owner, taken := orderOwner[*task.Order]; taken {
			return nil, &taskerrors.DuplicateOrderError{Order: *task.Order, TaskA: owner, TaskB: task.ID}
		}
		orderOwner[*task.Order] = task.ID
		ordered = append(ordered, task)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return *ordered[i].Order < *ordered[j].Order
	})

	return append(ordered, unordered...), nil
}

// TaskIDs returns just the ids of tasks, in the given order.
func TaskIDs(tasks []Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}
