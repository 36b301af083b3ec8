package actions_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"taskstack.dev/taskstack/internal/actions"
	taskerrors "taskstack.dev/taskstack/internal/errors"
	"taskstack.dev/taskstack/testhelpers"
)

// conflictSceneSetup builds a single-task stack whose owned file the base
// branch also touches, so merging the base into the task conflicts.
func conflictSceneSetup(s *testhelpers.Scene) error {
	if err := s.Repo.CreateChangeAndCommit("shared.txt", "base", "initial commit"); err != nil {
		return err
	}
	if err := s.Repo.CreateAndCheckoutBranch("feature"); err != nil {
		return err
	}
	return s.Repo.CommitWithTask("shared.txt", "task-version", "auth: rework shared", "AUTH")
}

func TestResolve(t *testing.T) {
	t.Run("collapses a conflicted merge into a resolution commit", func(t *testing.T) {
		scene := testhelpers.NewScene(t, conflictSceneSetup)
		rt := newTestContext(t)
		ctx := context.Background()

		_, err := actions.MaterializeStack(ctx, rt, actions.SplitOptions{Source: "feature"})
		require.NoError(t, err)

		// Base rewrites the same file, then the developer merges it into the
		// task branch and resolves by hand.
		require.NoError(t, scene.Repo.CheckoutBranch("main"))
		require.NoError(t, scene.Repo.CreateChangeAndCommit("shared.txt", "base-v2", "base: rework shared"))
		require.NoError(t, scene.Repo.CheckoutBranch("task/AUTH"))
		_ = scene.Repo.RunGitCommand("merge", "--no-edit", "main") // conflicts
		require.NoError(t, scene.Repo.CreateChange("shared.txt", "merged-version"))
		require.NoError(t, scene.Repo.RunGitCommand("commit", "--no-edit"))

		mergeTip := testhelpers.Must(scene.Repo.RevParse("task/AUTH"))

		result, err := actions.Resolve(ctx, rt, "task/AUTH")
		require.NoError(t, err)
		require.False(t, result.Clean)
		require.NotEmpty(t, result.ResolutionCommit)
		require.NotEqual(t, mergeTip, result.MergeCommit)

		// New tip is a clean re-merge on top of the resolution commit.
		tip := testhelpers.Must(scene.Repo.RevParse("task/AUTH"))
		require.Equal(t, result.MergeCommit, tip)
		require.Equal(t, result.ResolutionCommit, testhelpers.Must(scene.Repo.RevParse(tip+"^1")))

		// The resolution commit carries the trailer and the merged content.
		message := testhelpers.Must(scene.Repo.MessageOf(result.ResolutionCommit))
		require.Contains(t, message, "Task-Id: AUTH")
		content := testhelpers.Must(scene.Repo.RunGitCommandAndGetOutput("show", "task/AUTH:shared.txt"))
		require.Equal(t, "merged-version", strings.TrimSpace(content))

		// The collapsed change can now flow back to the source branch.
		syncResult, err := actions.SyncOne(ctx, rt, "feature", "task/AUTH")
		require.NoError(t, err)
		require.Equal(t, 1, syncResult.BackwardApplied)
		sourceContent := testhelpers.Must(scene.Repo.RunGitCommandAndGetOutput("show", "feature:shared.txt"))
		require.Equal(t, "merged-version", strings.TrimSpace(sourceContent))
	})

	t.Run("merge touching no owned path is left alone", func(t *testing.T) {
		scene := testhelpers.NewScene(t, featureSceneSetup)
		rt := newTestContext(t)
		ctx := context.Background()

		_, err := actions.MaterializeStack(ctx, rt, actions.SplitOptions{Source: "feature"})
		require.NoError(t, err)

		require.NoError(t, scene.Repo.CheckoutBranch("main"))
		require.NoError(t, scene.Repo.CreateChangeAndCommit("base2.txt", "more", "base work"))
		require.NoError(t, scene.Repo.CheckoutBranch("task/AUTH"))
		require.NoError(t, scene.Repo.RunGitCommand("merge", "--no-ff", "--no-edit", "main"))
		tip := testhelpers.Must(scene.Repo.RevParse("task/AUTH"))

		result, err := actions.Resolve(ctx, rt, "task/AUTH")
		require.NoError(t, err)
		require.True(t, result.Clean)
		require.Equal(t, tip, testhelpers.Must(scene.Repo.RevParse("task/AUTH")))
	})

	t.Run("merge reachable from a remote is refused", func(t *testing.T) {
		scene := testhelpers.NewScene(t, featureSceneSetup)
		rt := newTestContext(t)
		ctx := context.Background()

		_, err := actions.MaterializeStack(ctx, rt, actions.SplitOptions{Source: "feature"})
		require.NoError(t, err)

		require.NoError(t, scene.Repo.CheckoutBranch("main"))
		require.NoError(t, scene.Repo.CreateChangeAndCommit("base2.txt", "more", "base work"))
		require.NoError(t, scene.Repo.CheckoutBranch("task/AUTH"))
		require.NoError(t, scene.Repo.RunGitCommand("merge", "--no-ff", "--no-edit", "main"))
		tip := testhelpers.Must(scene.Repo.RevParse("task/AUTH"))

		// The merge has been pushed; collapsing it would rewrite shared
		// history.
		require.NoError(t, scene.Repo.RunGitCommand("update-ref", "refs/remotes/origin/task/AUTH", tip))

		_, err = actions.Resolve(ctx, rt, "task/AUTH")
		require.ErrorIs(t, err, taskerrors.ErrAlreadyPublished)
		require.Equal(t, tip, testhelpers.Must(scene.Repo.RevParse("task/AUTH")))
	})

	t.Run("non-merge tip is rejected", func(t *testing.T) {
		testhelpers.NewScene(t, featureSceneSetup)
		rt := newTestContext(t)
		ctx := context.Background()

		_, err := actions.MaterializeStack(ctx, rt, actions.SplitOptions{Source: "feature"})
		require.NoError(t, err)

		_, err = actions.Resolve(ctx, rt, "task/AUTH")
		require.ErrorIs(t, err, taskerrors.ErrNotAMergeCommit)
	})

	t.Run("branch without a source link is rejected", func(t *testing.T) {
		scene := testhelpers.NewScene(t, featureSceneSetup)
		rt := newTestContext(t)

		require.NoError(t, scene.Repo.CreateBranch("unrelated"))
		_, err := actions.Resolve(context.Background(), rt, "unrelated")
		require.ErrorIs(t, err, taskerrors.ErrNotATaskBranch)
	})
}
