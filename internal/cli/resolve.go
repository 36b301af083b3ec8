package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskstack.dev/taskstack/internal/actions"
)

// newResolveCmd creates the resolve command
func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve [task-branch]",
		Short: "Collapse a task branch's merge-commit tip into a syncable resolution commit",
		Long: `Collapse a task branch's merge-commit tip into a task-only resolution commit
followed by a clean re-merge. The resolution commit carries the task's
Task-Id trailer, so 'sync' can carry it back to the source branch like any
other commit.`,
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

			task := ""
			if len(args) > 0 {
				task = args[0]
			} else {
				task, err = rt.Git.CurrentBranch()
				if err != nil {
					return fmt.Errorf("not on a branch, pass the task branch explicitly: %w", err)
				}
			}

			result, err := actions.Resolve(cmd.Context(), rt, task)
			if err != nil {
				return err
			}
			if result.Clean {
				rt.Splog.Info("Merge on %s carries no task changes, nothing to resolve", task)
				return nil
			}
			rt.Splog.Info("Collapsed merge on %s into resolution commit %.8s", task, result.ResolutionCommit)
			return nil
		},
	}

	return cmd
}
