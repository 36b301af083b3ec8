package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskstack.dev/taskstack/internal/actions"
	"taskstack.dev/taskstack/internal/runtime"
)

// newSyncCmd creates the sync command
func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync [task-branch]",
		Short: "Synchronize task branches with their source branch in both directions",
		Long: `Synchronize task branches with their source branch, Source→Task first and
then Task→Source, comparing commits by patch identity so replayed commits are
never duplicated. With no argument every task branch of the current stack is
synced in order; a conflict on one branch is reported and the walk continues.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newContext(cmd)
			if err != nil {
				return err
			}
			defer rt.Splog.Close()
			if err := requireInitialized(rt); err != nil {
				return err
			}

			current, err := rt.Git.CurrentBranch()
			if err != nil {
				return fmt.Errorf("not on a branch: %w", err)
			}

			if len(args) > 0 {
				task := args[0]
				source, err := rt.Topology.SourceOf(task)
				if err != nil {
					return err
				}
				if source == "" {
					return fmt.Errorf("%s is not a task branch", task)
				}
				result, err := actions.SyncOne(cmd.Context(), rt, source, task)
				if result != nil {
					reportSync(rt, *result)
				}
				return err
			}

			source, err := actions.SourceFor(rt, current)
			if err != nil {
				return fmt.Errorf("%s is not part of a stack: %w", current, err)
			}
			results, failures, err := actions.SyncAll(cmd.Context(), rt, source)
			if err != nil {
				return err
			}
			for _, result := range results {
				reportSync(rt, result)
			}
			if len(failures) > 0 {
				for _, failure := range failures {
					rt.Splog.Warn("%v", failure)
				}
				return fmt.Errorf("%d task branch(es) failed to sync", len(failures))
			}
			return nil
		},
	}

	return cmd
}

func reportSync(rt *runtime.Context, result actions.SyncOneResult) {
	if result.ForwardApplied == 0 && result.BackwardApplied == 0 {
		rt.Splog.Info("%s is up to date", result.Task)
		return
	}
	rt.Splog.Info("%s: %d commit(s) applied forward, %d applied back", result.Task, result.ForwardApplied, result.BackwardApplied)
}
