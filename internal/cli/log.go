package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskstack.dev/taskstack/internal/actions"
	"taskstack.dev/taskstack/internal/output"
)

// newLogCmd creates the log command
func newLogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Visualize the current stack",
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
				current = ""
			}
			probe := current
			if probe == "" {
				probe = rt.Config.Base
			}
			source, err := actions.SourceFor(rt, probe)
			if err != nil {
				return fmt.Errorf("no stack found from %s: %w", probe, err)
			}

			ordered, err := actions.OrderedTaskBranches(rt, source)
			if err != nil {
				return err
			}
			base, _, err := rt.Topology.SourceMeta(source)
			if err != nil {
				return err
			}

			// Tip-most first.
			rows := make([]output.StackRow, 0, len(ordered))
			for i := len(ordered) - 1; i >= 0; i-- {
				branch := ordered[i]
				status, err := actions.StatusOne(cmd.Context(), rt, source, branch)
				if err != nil {
					return err
				}
				detail := ""
				if status.PendingForward > 0 || status.PendingBackward > 0 || status.UnresolvedMerges > 0 {
					detail = describeStatus(status)
				}
				rows = append(rows, output.StackRow{
					Branch:  branch,
					Current: branch == current,
					Detail:  detail,
				})
			}

			fmt.Print(output.RenderStack(rows, base))
			return nil
		},
	}

	return cmd
}
