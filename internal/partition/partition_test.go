package partition

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	taskerrors "taskstack.dev/taskstack/internal/errors"
	"taskstack.dev/taskstack/internal/git"
)

func commit(sha, subject string, trailers ...string) git.Commit {
	message := subject
	if len(trailers) > 0 {
		message += "\n"
		for _, t := range trailers {
			message += "\n" + t
		}
	}
	return git.Commit{
		SHA:     sha,
		Parents: []string{"parent-of-" + sha},
		Subject: subject,
		Message: message,
	}
}

func TestPartitionGroupsByFirstAppearance(t *testing.T) {
	commits := []git.Commit{
		commit("a1", "auth: add login", "Task-Id: AUTH"),
		commit("d1", "db: add schema", "Task-Id: DB"),
		commit("a2", "auth: add logout", "Task-Id: AUTH"),
		commit("u1", "ui: add page", "Task-Id: UI"),
	}

	tasks, err := Partition(commits)
	require.NoError(t, err)
	require.Equal(t, []string{"AUTH", "DB", "UI"}, TaskIDs(tasks))

	require.Len(t, tasks[0].Commits, 2)
	require.Equal(t, "a1", tasks[0].Commits[0].SHA)
	require.Equal(t, "a2", tasks[0].Commits[1].SHA)
}

func TestPartitionHonorsExplicitOrder(t *testing.T) {
	commits := []git.Commit{
		commit("c1", "third", "Task-Id: C", "Task-Order: 3"),
		commit("a1", "first", "Task-Id: A", "Task-Order: 1"),
		commit("b1", "second", "Task-Id: B", "Task-Order: 2"),
	}

	tasks, err := Partition(commits)
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B", "C"}, TaskIDs(tasks))
}

func TestPartitionOrderedTasksPrecedeUnordered(t *testing.T) {
	commits := []git.Commit{
		commit("x1", "unordered early", "Task-Id: X"),
		commit("b1", "ordered late", "Task-Id: B", "Task-Order: 2"),
		commit("y1", "unordered late", "Task-Id: Y"),
		commit("a1", "ordered early", "Task-Id: A", "Task-Order: 1"),
	}

	tasks, err := Partition(commits)
	require.NoError(t, err)
	// Ordered tasks first by Task-Order, then unordered by first appearance.
	require.Equal(t, []string{"A", "B", "X", "Y"}, TaskIDs(tasks))
}

func TestPartitionFirstOrderValueWins(t *testing.T) {
	commits := []git.Commit{
		commit("a1", "one", "Task-Id: A", "Task-Order: 5"),
		commit("a2", "two", "Task-Id: A", "Task-Order: 1"),
		commit("b1", "three", "Task-Id: B", "Task-Order: 2"),
	}

	tasks, err := Partition(commits)
	require.NoError(t, err)
	require.Equal(t, []string{"B", "A"}, TaskIDs(tasks))
}

func TestPartitionMissingTaskIDFails(t *testing.T) {
	commits := []git.Commit{
		commit("a1", "fine", "Task-Id: A"),
		commit("n1", "no trailer here"),
	}

	_, err := Partition(commits)
	require.Error(t, err)
	require.ErrorIs(t, err, taskerrors.ErrMissingTaskID)

	var missing *taskerrors.MissingTaskIDError
	require.True(t, errors.As(err, &missing))
	require.Equal(t, "n1", missing.CommitSHA)
}

func TestPartitionDuplicateOrderFails(t *testing.T) {
	commits := []git.Commit{
		commit("a1", "one", "Task-Id: A", "Task-Order: 1"),
		commit("b1", "two", "Task-Id: B", "Task-Order: 1"),
	}

	_, err := Partition(commits)
	require.ErrorIs(t, err, taskerrors.ErrDuplicateOrder)
}

func TestPartitionNonNumericOrderFails(t *testing.T) {
	commits := []git.Commit{
		commit("a1", "one", "Task-Id: A", "Task-Order: first"),
	}

	_, err := Partition(commits)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not numeric")
}

func TestPartitionEmptyRange(t *testing.T) {
	tasks, err := Partition(nil)
	require.NoError(t, err)
	require.Empty(t, tasks)
}
