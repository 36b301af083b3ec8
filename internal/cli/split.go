package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskstack.dev/taskstack/internal/actions"
)

// newSplitCmd creates the split command
func newSplitCmd() *cobra.Command {
	var (
		base   string
		prefix string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "split [source]",
		Short: "Materialize a source branch's commits into a stack of task branches",
		Long: `Materialize a source branch's commits into a stack of task branches, one per
Task-Id trailer, each stacked on its predecessor. Re-running is safe: existing
task branches are left alone and only newly-appeared tasks get branches.`,
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

			source := ""
			if len(args) > 0 {
				source = args[0]
			} else {
				source, err = rt.Git.CurrentBranch()
				if err != nil {
					return fmt.Errorf("not on a branch, pass the source branch explicitly: %w", err)
				}
			}

			if dryRun {
				resolvedBase := base
				if resolvedBase == "" {
					resolvedBase = rt.Config.Base
				}
				ordered, err := actions.PartitionAndOrder(cmd.Context(), rt, resolvedBase, source)
				if err != nil {
					return err
				}
				rt.Splog.Info("%s would split into %d task branch(es):", source, len(ordered))
				for _, id := range ordered {
					rt.Splog.Info("  %s", id)
				}
				return nil
			}

			result, err := actions.MaterializeStack(cmd.Context(), rt, actions.SplitOptions{
				Source: source,
				Base:   base,
				Prefix: prefix,
			})
			if err != nil {
				return err
			}

			if len(result.Created) == 0 {
				rt.Splog.Info("Stack is up to date, no new task branches")
				return nil
			}
			rt.Splog.Info("Created %d task branch(es) from %s:", len(result.Created), source)
			for _, branch := range result.Created {
				rt.Splog.Info("  %s", branch)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&base, "base", "", "Base branch the stack grows from")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Task-branch name prefix")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the task partition without creating branches")

	return cmd
}
