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

func TestSyncForward(t *testing.T) {
	scene := testhelpers.NewScene(t, featureSceneSetup)
	rt := newTestContext(t)
	ctx := context.Background()

	_, err := actions.MaterializeStack(ctx, rt, actions.SplitOptions{Source: "feature"})
	require.NoError(t, err)

	// New AUTH work lands on the source branch.
	require.NoError(t, scene.Repo.CheckoutBranch("feature"))
	require.NoError(t, scene.Repo.CommitWithTask("auth3.txt", "2fa", "auth: add 2fa", "AUTH"))

	result, err := actions.SyncOne(ctx, rt, "feature", "task/AUTH")
	require.NoError(t, err)
	require.Equal(t, 1, result.ForwardApplied)
	require.Equal(t, 0, result.BackwardApplied)

	testhelpers.ExpectCommitSubjects(t, scene.Repo, "main", "task/AUTH",
		[]string{"auth: login form", "auth: logout", "auth: add 2fa"})

	// Patch identity makes the second run a no-op.
	result, err = actions.SyncOne(ctx, rt, "feature", "task/AUTH")
	require.NoError(t, err)
	require.Equal(t, 0, result.ForwardApplied)
}

func TestSyncForwardIgnoresOtherTasks(t *testing.T) {
	scene := testhelpers.NewScene(t, featureSceneSetup)
	rt := newTestContext(t)
	ctx := context.Background()

	_, err := actions.MaterializeStack(ctx, rt, actions.SplitOptions{Source: "feature"})
	require.NoError(t, err)

	require.NoError(t, scene.Repo.CheckoutBranch("feature"))
	require.NoError(t, scene.Repo.CommitWithTask("db2.txt", "index", "db: add index", "DB"))

	result, err := actions.SyncOne(ctx, rt, "feature", "task/AUTH")
	require.NoError(t, err)
	require.Equal(t, 0, result.ForwardApplied)

	result, err = actions.SyncOne(ctx, rt, "feature", "task/DB")
	require.NoError(t, err)
	require.Equal(t, 1, result.ForwardApplied)
}

func TestSyncBackward(t *testing.T) {
	scene := testhelpers.NewScene(t, featureSceneSetup)
	rt := newTestContext(t)
	ctx := context.Background()

	_, err := actions.MaterializeStack(ctx, rt, actions.SplitOptions{Source: "feature"})
	require.NoError(t, err)

	// Review feedback lands directly on the task branch, without a trailer.
	require.NoError(t, scene.Repo.CheckoutBranch("task/AUTH"))
	require.NoError(t, scene.Repo.CreateChangeAndCommit("auth.txt", "login-fixed", "fix review feedback"))

	result, err := actions.SyncOne(ctx, rt, "feature", "task/AUTH")
	require.NoError(t, err)
	require.Equal(t, 0, result.ForwardApplied)
	require.Equal(t, 1, result.BackwardApplied)

	// The propagated copy carries the backfilled Task-Id trailer, and so does
	// the rewritten commit on the task branch itself.
	sourceMessage := testhelpers.Must(scene.Repo.MessageOf("feature"))
	require.Contains(t, sourceMessage, "Task-Id: AUTH")
	taskMessage := testhelpers.Must(scene.Repo.MessageOf("task/AUTH"))
	require.Contains(t, taskMessage, "Task-Id: AUTH")

	content := testhelpers.Must(scene.Repo.RunGitCommandAndGetOutput("show", "feature:auth.txt"))
	require.Equal(t, "login-fixed", strings.TrimSpace(content))

	// Round trip: nothing pending in either direction afterwards.
	status, err := actions.StatusOne(ctx, rt, "feature", "task/AUTH")
	require.NoError(t, err)
	require.Zero(t, status.PendingForward)
	require.Zero(t, status.PendingBackward)
}

func TestSyncAllWalksStackOrder(t *testing.T) {
	scene := testhelpers.NewScene(t, featureSceneSetup)
	rt := newTestContext(t)
	ctx := context.Background()

	_, err := actions.MaterializeStack(ctx, rt, actions.SplitOptions{Source: "feature"})
	require.NoError(t, err)

	require.NoError(t, scene.Repo.CheckoutBranch("feature"))
	require.NoError(t, scene.Repo.CommitWithTask("auth3.txt", "2fa", "auth: add 2fa", "AUTH"))
	require.NoError(t, scene.Repo.CommitWithTask("db2.txt", "index", "db: add index", "DB"))

	results, failures, err := actions.SyncAll(ctx, rt, "feature")
	require.NoError(t, err)
	require.Empty(t, failures)
	require.Len(t, results, 2)
	require.Equal(t, "task/AUTH", results[0].Task)
	require.Equal(t, 1, results[0].ForwardApplied)
	require.Equal(t, "task/DB", results[1].Task)
	require.Equal(t, 1, results[1].ForwardApplied)
}

func TestStatusCountsUnresolvedMerges(t *testing.T) {
	scene := testhelpers.NewScene(t, featureSceneSetup)
	rt := newTestContext(t)
	ctx := context.Background()

	_, err := actions.MaterializeStack(ctx, rt, actions.SplitOptions{Source: "feature"})
	require.NoError(t, err)

	// Base moves on, and the task branch merges it in.
	require.NoError(t, scene.Repo.CheckoutBranch("main"))
	require.NoError(t, scene.Repo.CreateChangeAndCommit("base2.txt", "more", "base work"))
	require.NoError(t, scene.Repo.CheckoutBranch("task/AUTH"))
	require.NoError(t, scene.Repo.RunGitCommand("merge", "--no-ff", "--no-edit", "main"))

	status, err := actions.StatusOne(ctx, rt, "feature", "task/AUTH")
	require.NoError(t, err)
	require.Equal(t, 1, status.UnresolvedMerges)
	require.Zero(t, status.PendingBackward)
}

func TestSyncConflictRestoresWorktree(t *testing.T) {
	scene := testhelpers.NewScene(t, featureSceneSetup)
	rt := newTestContext(t)
	ctx := context.Background()

	_, err := actions.MaterializeStack(ctx, rt, actions.SplitOptions{Source: "feature"})
	require.NoError(t, err)

	// Two own commits on the task branch; the second rewrites a file the
	// source also rewrites, so its replay conflicts after the first pick
	// has already landed on the source.
	require.NoError(t, scene.Repo.CheckoutBranch("task/AUTH"))
	require.NoError(t, scene.Repo.CommitWithTask("helper.txt", "helper", "auth: add helper", "AUTH"))
	require.NoError(t, scene.Repo.CommitWithTask("auth.txt", "task-version", "auth: rework login", "AUTH"))

	require.NoError(t, scene.Repo.CheckoutBranch("feature"))
	require.NoError(t, scene.Repo.CreateChangeAndCommit("auth.txt", "source-version", "tweak login"))
	before := testhelpers.Must(scene.Repo.RevParse("feature"))

	_, err = actions.SyncOne(ctx, rt, "feature", "task/AUTH")
	require.ErrorIs(t, err, taskerrors.ErrConflict)

	// The source is byte-identical to its pre-call state: tip restored and
	// nothing from the first pick left in the index or working tree.
	require.Equal(t, before, testhelpers.Must(scene.Repo.RevParse("feature")))
	require.Equal(t, "feature", testhelpers.Must(scene.Repo.CurrentBranch()))
	status := testhelpers.Must(scene.Repo.RunGitCommandAndGetOutput("status", "--porcelain"))
	require.Empty(t, status)
}

func TestSyncSkipsContainedChange(t *testing.T) {
	scene := testhelpers.NewScene(t, featureSceneSetup)
	rt := newTestContext(t)
	ctx := context.Background()

	_, err := actions.MaterializeStack(ctx, rt, actions.SplitOptions{Source: "feature"})
	require.NoError(t, err)

	// The same rework lands on both sides: alone on the task branch, folded
	// into a bigger commit on the source. Patch identities differ, so the
	// task commit stays pending, but replaying it changes nothing.
	require.NoError(t, scene.Repo.CheckoutBranch("feature"))
	require.NoError(t, scene.Repo.CreateChange("auth.txt", "login-v2"))
	require.NoError(t, scene.Repo.CreateChange("notes.txt", "notes"))
	require.NoError(t, scene.Repo.RunGitCommand("commit", "-m", "rework login and add notes"))
	require.NoError(t, scene.Repo.CheckoutBranch("task/AUTH"))
	require.NoError(t, scene.Repo.CommitWithTask("auth.txt", "login-v2", "auth: rework login", "AUTH"))

	sourceTip := testhelpers.Must(scene.Repo.RevParse("feature"))

	result, err := actions.SyncOne(ctx, rt, "feature", "task/AUTH")
	require.NoError(t, err)
	require.Equal(t, 0, result.ForwardApplied)
	require.Equal(t, 0, result.BackwardApplied)
	require.Equal(t, sourceTip, testhelpers.Must(scene.Repo.RevParse("feature")))
}

func TestSyncRejectsNonTaskBranch(t *testing.T) {
	scene := testhelpers.NewScene(t, featureSceneSetup)
	rt := newTestContext(t)
	ctx := context.Background()

	_, err := actions.MaterializeStack(ctx, rt, actions.SplitOptions{Source: "feature"})
	require.NoError(t, err)

	require.NoError(t, scene.Repo.CreateBranch("unrelated"))
	_, err = actions.SyncOne(ctx, rt, "feature", "unrelated")
	require.Error(t, err)
}
