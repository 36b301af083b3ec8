package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskstack.dev/taskstack/internal/actions"
)

// newRestackCmd creates the restack command
func newRestackCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "restack",
		Short: "Rebase the stack onto its updated base branch",
		Long: `Rebase each task branch in the stack onto the updated base branch, in stack
order. Branches whose tips the base already contains are skipped as merged.
The first rebase conflict stops the walk; branches already rebased keep their
new position.`,
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
			source, err := actions.SourceFor(rt, current)
			if err != nil {
				return fmt.Errorf("%s is not part of a stack: %w", current, err)
			}
			base, _, err := rt.Topology.SourceMeta(source)
			if err != nil {
				return err
			}

			result, err := actions.Restack(cmd.Context(), rt, source, base, dryRun)
			if result != nil {
				for _, branch := range result.Merged {
					rt.Splog.Info("%s is already in %s, skipped", branch, base)
				}
				verb := "Rebased"
				if dryRun {
					verb = "Would rebase"
				}
				for _, branch := range result.Rebased {
					rt.Splog.Info("%s %s", verb, branch)
				}
				if result.StoppedAt != "" {
					rt.Splog.Warn("Rebase of %s conflicted, branch restored. Resolve on the source branch and sync, then restack again", result.StoppedAt)
				}
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be rebased without touching any branch")

	return cmd
}
