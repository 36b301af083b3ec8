package actions_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"taskstack.dev/taskstack/internal/actions"
	"taskstack.dev/taskstack/internal/git"
	"taskstack.dev/taskstack/testhelpers"
)

func TestRestack(t *testing.T) {
	t.Run("rebases the whole stack onto the moved base", func(t *testing.T) {
		scene := testhelpers.NewScene(t, featureSceneSetup)
		rt := newTestContext(t)
		ctx := context.Background()

		_, err := actions.MaterializeStack(ctx, rt, actions.SplitOptions{Source: "feature"})
		require.NoError(t, err)

		require.NoError(t, scene.Repo.CheckoutBranch("main"))
		require.NoError(t, scene.Repo.CreateChangeAndCommit("base2.txt", "more", "base work"))

		result, err := actions.Restack(ctx, rt, "feature", "main", false)
		require.NoError(t, err)
		require.Empty(t, result.Merged)
		require.Equal(t, []string{"task/AUTH", "task/DB"}, result.Rebased)
		require.Empty(t, result.StoppedAt)

		// Both branches now sit on the new base, preserving the chain.
		ancestor, err := git.IsAncestor("main", "task/AUTH")
		require.NoError(t, err)
		require.True(t, ancestor)
		ancestor, err = git.IsAncestor("task/AUTH", "task/DB")
		require.NoError(t, err)
		require.True(t, ancestor)

		testhelpers.ExpectCommitSubjects(t, scene.Repo, "main", "task/AUTH",
			[]string{"auth: login form", "auth: logout"})
		testhelpers.ExpectCommitSubjects(t, scene.Repo, "task/AUTH", "task/DB",
			[]string{"db: schema"})
	})

	t.Run("skips branches the base already contains", func(t *testing.T) {
		scene := testhelpers.NewScene(t, featureSceneSetup)
		rt := newTestContext(t)
		ctx := context.Background()

		_, err := actions.MaterializeStack(ctx, rt, actions.SplitOptions{Source: "feature"})
		require.NoError(t, err)

		// The root task branch lands on the base, e.g. its review merged.
		require.NoError(t, scene.Repo.CheckoutBranch("main"))
		require.NoError(t, scene.Repo.RunGitCommand("merge", "--no-ff", "--no-edit", "task/AUTH"))

		result, err := actions.Restack(ctx, rt, "feature", "main", false)
		require.NoError(t, err)
		require.Equal(t, []string{"task/AUTH"}, result.Merged)
		require.Equal(t, []string{"task/DB"}, result.Rebased)

		// task/DB moved directly onto the new base, dropping the AUTH commits
		// it now inherits from there.
		ancestor, err := git.IsAncestor("main", "task/DB")
		require.NoError(t, err)
		require.True(t, ancestor)
		testhelpers.ExpectCommitSubjects(t, scene.Repo, "main", "task/DB",
			[]string{"db: schema"})
	})

	t.Run("dry run reports the plan without moving anything", func(t *testing.T) {
		scene := testhelpers.NewScene(t, featureSceneSetup)
		rt := newTestContext(t)
		ctx := context.Background()

		_, err := actions.MaterializeStack(ctx, rt, actions.SplitOptions{Source: "feature"})
		require.NoError(t, err)

		require.NoError(t, scene.Repo.CheckoutBranch("main"))
		require.NoError(t, scene.Repo.CreateChangeAndCommit("base2.txt", "more", "base work"))
		authTip := testhelpers.Must(scene.Repo.RevParse("task/AUTH"))
		dbTip := testhelpers.Must(scene.Repo.RevParse("task/DB"))

		result, err := actions.Restack(ctx, rt, "feature", "main", true)
		require.NoError(t, err)
		require.Equal(t, []string{"task/AUTH", "task/DB"}, result.Rebased)

		require.Equal(t, authTip, testhelpers.Must(scene.Repo.RevParse("task/AUTH")))
		require.Equal(t, dbTip, testhelpers.Must(scene.Repo.RevParse("task/DB")))
	})

	t.Run("conflict stops the walk at the conflicting branch", func(t *testing.T) {
		scene := testhelpers.NewScene(t, conflictSceneSetup)
		rt := newTestContext(t)
		ctx := context.Background()

		_, err := actions.MaterializeStack(ctx, rt, actions.SplitOptions{Source: "feature"})
		require.NoError(t, err)

		// Base rewrites the task's file, so the rebase must conflict.
		require.NoError(t, scene.Repo.CheckoutBranch("main"))
		require.NoError(t, scene.Repo.CreateChangeAndCommit("shared.txt", "base-v2", "base: rework shared"))
		authTip := testhelpers.Must(scene.Repo.RevParse("task/AUTH"))

		result, err := actions.Restack(ctx, rt, "feature", "main", false)
		require.Error(t, err)
		require.Equal(t, "task/AUTH", result.StoppedAt)

		// The conflicting branch is back where it was, no rebase left behind.
		require.Equal(t, authTip, testhelpers.Must(scene.Repo.RevParse("task/AUTH")))
		require.False(t, git.IsRebaseInProgress(ctx))
	})
}
