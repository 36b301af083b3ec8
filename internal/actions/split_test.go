package actions_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"taskstack.dev/taskstack/internal/actions"
	taskerrors "taskstack.dev/taskstack/internal/errors"
	"taskstack.dev/taskstack/internal/runtime"
	"taskstack.dev/taskstack/testhelpers"
)

// newTestContext builds a runtime context for the scene's repository.
func newTestContext(t *testing.T) *runtime.Context {
	t.Helper()
	rt, err := runtime.NewContext()
	require.NoError(t, err)
	rt.Splog.SetQuiet(true)
	t.Cleanup(func() { rt.Splog.Close() })
	return rt
}

// featureSceneSetup creates a source branch with commits for two tasks,
// interleaved: AUTH, DB, AUTH.
func featureSceneSetup(s *testhelpers.Scene) error {
	if err := testhelpers.BasicSceneSetup(s); err != nil {
		return err
	}
	if err := s.Repo.CreateAndCheckoutBranch("feature"); err != nil {
		return err
	}
	if err := s.Repo.CommitWithTask("auth.txt", "login", "auth: login form", "AUTH"); err != nil {
		return err
	}
	if err := s.Repo.CommitWithTask("db.txt", "schema", "db: schema", "DB"); err != nil {
		return err
	}
	return s.Repo.CommitWithTask("auth2.txt", "logout", "auth: logout", "AUTH")
}

func TestMaterializeStack(t *testing.T) {
	t.Run("creates one branch per task stacked in order", func(t *testing.T) {
		scene := testhelpers.NewScene(t, featureSceneSetup)
		rt := newTestContext(t)

		result, err := actions.MaterializeStack(context.Background(), rt, actions.SplitOptions{Source: "feature"})
		require.NoError(t, err)

		require.Equal(t, []string{"AUTH", "DB"}, result.Ordered)
		require.Equal(t, []string{"task/AUTH", "task/DB"}, result.Created)
		testhelpers.ExpectBranches(t, scene.Repo, []string{"main", "feature", "task/AUTH", "task/DB"})

		// The AUTH branch carries both AUTH commits, nothing else.
		testhelpers.ExpectCommitSubjects(t, scene.Repo, "main", "task/AUTH",
			[]string{"auth: login form", "auth: logout"})
		testhelpers.ExpectCommitSubjects(t, scene.Repo, "task/AUTH", "task/DB",
			[]string{"db: schema"})

		// Stack and source links are recorded.
		parent, err := rt.Topology.ParentOf("task/DB")
		require.NoError(t, err)
		require.Equal(t, "task/AUTH", parent)

		source, err := rt.Topology.SourceOf("task/AUTH")
		require.NoError(t, err)
		require.Equal(t, "feature", source)

		base, prefix, err := rt.Topology.SourceMeta("feature")
		require.NoError(t, err)
		require.Equal(t, "main", base)
		require.Equal(t, "task/", prefix)
	})

	t.Run("re-running is idempotent", func(t *testing.T) {
		scene := testhelpers.NewScene(t, featureSceneSetup)
		rt := newTestContext(t)

		_, err := actions.MaterializeStack(context.Background(), rt, actions.SplitOptions{Source: "feature"})
		require.NoError(t, err)
		tipBefore := testhelpers.Must(scene.Repo.RevParse("task/AUTH"))

		result, err := actions.MaterializeStack(context.Background(), rt, actions.SplitOptions{Source: "feature"})
		require.NoError(t, err)
		require.Empty(t, result.Created)
		require.Equal(t, tipBefore, testhelpers.Must(scene.Repo.RevParse("task/AUTH")))
	})

	t.Run("re-split appends a newly appeared task at the tip", func(t *testing.T) {
		scene := testhelpers.NewScene(t, featureSceneSetup)
		rt := newTestContext(t)

		_, err := actions.MaterializeStack(context.Background(), rt, actions.SplitOptions{Source: "feature"})
		require.NoError(t, err)

		require.NoError(t, scene.Repo.CheckoutBranch("feature"))
		require.NoError(t, scene.Repo.CommitWithTask("ui.txt", "page", "ui: page", "UI"))

		result, err := actions.MaterializeStack(context.Background(), rt, actions.SplitOptions{Source: "feature"})
		require.NoError(t, err)
		require.Equal(t, []string{"task/UI"}, result.Created)

		parent, err := rt.Topology.ParentOf("task/UI")
		require.NoError(t, err)
		require.Equal(t, "task/DB", parent)
	})

	t.Run("honors explicit Task-Order over commit order", func(t *testing.T) {
		testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
			if err := testhelpers.BasicSceneSetup(s); err != nil {
				return err
			}
			if err := s.Repo.CreateAndCheckoutBranch("feature"); err != nil {
				return err
			}
			if err := s.Repo.CommitWithTaskOrder("b.txt", "b", "second task", "B", 2); err != nil {
				return err
			}
			return s.Repo.CommitWithTaskOrder("a.txt", "a", "first task", "A", 1)
		})
		rt := newTestContext(t)

		result, err := actions.MaterializeStack(context.Background(), rt, actions.SplitOptions{Source: "feature"})
		require.NoError(t, err)
		require.Equal(t, []string{"A", "B"}, result.Ordered)

		parent, err := rt.Topology.ParentOf("task/B")
		require.NoError(t, err)
		require.Equal(t, "task/A", parent)
	})

	t.Run("commit without Task-Id fails", func(t *testing.T) {
		testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
			if err := testhelpers.BasicSceneSetup(s); err != nil {
				return err
			}
			if err := s.Repo.CreateAndCheckoutBranch("feature"); err != nil {
				return err
			}
			return s.Repo.CreateChangeAndCommit("x.txt", "x", "no trailer")
		})
		rt := newTestContext(t)

		_, err := actions.MaterializeStack(context.Background(), rt, actions.SplitOptions{Source: "feature"})
		require.ErrorIs(t, err, taskerrors.ErrMissingTaskID)
	})

	t.Run("explicit base contradicting a previous split fails", func(t *testing.T) {
		scene := testhelpers.NewScene(t, featureSceneSetup)
		rt := newTestContext(t)

		_, err := actions.MaterializeStack(context.Background(), rt, actions.SplitOptions{Source: "feature"})
		require.NoError(t, err)

		require.NoError(t, scene.Repo.CreateBranch("other-base"))
		_, err = actions.MaterializeStack(context.Background(), rt, actions.SplitOptions{Source: "feature", Base: "other-base"})
		require.ErrorIs(t, err, taskerrors.ErrBaseOrPrefixMismatch)
	})

	t.Run("unknown source branch fails", func(t *testing.T) {
		testhelpers.NewScene(t, testhelpers.BasicSceneSetup)
		rt := newTestContext(t)

		_, err := actions.MaterializeStack(context.Background(), rt, actions.SplitOptions{Source: "nope"})
		require.ErrorIs(t, err, taskerrors.ErrBranchNotFound)
	})
}

func TestPartitionAndOrder(t *testing.T) {
	testhelpers.NewScene(t, featureSceneSetup)
	rt := newTestContext(t)

	ordered, err := actions.PartitionAndOrder(context.Background(), rt, "main", "feature")
	require.NoError(t, err)
	require.Equal(t, []string{"AUTH", "DB"}, ordered)
}
