package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"taskstack.dev/taskstack/internal/actions"
)

// newStatusCmd creates the status command
func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [task-branch]",
		Short: "Show pending sync work for each task branch without changing anything",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newContext(cmd)
			if err != nil {
				return err
			}
			defer rt.Splog.Close()
			if err := requireInitialized(rt); err != nil {
				return err
			}

			var tasks []string
			var source string
			if len(args) > 0 {
				task := args[0]
				source, err = rt.Topology.SourceOf(task)
				if err != nil {
					return err
				}
				if source == "" {
					return fmt.Errorf("%s is not a task branch", task)
				}
				tasks = []string{task}
			} else {
				current, err := rt.Git.CurrentBranch()
				if err != nil {
					return fmt.Errorf("not on a branch: %w", err)
				}
				source, err = actions.SourceFor(rt, current)
				if err != nil {
					return fmt.Errorf("%s is not part of a stack: %w", current, err)
				}
				tasks, err = actions.OrderedTaskBranches(rt, source)
				if err != nil {
					return err
				}
			}

			clean := true
			for _, task := range tasks {
				status, err := actions.StatusOne(cmd.Context(), rt, source, task)
				if err != nil {
					return err
				}
				if status.PendingForward == 0 && status.PendingBackward == 0 && status.UnresolvedMerges == 0 {
					continue
				}
				clean = false
				rt.Splog.Info("%s: %s", task, describeStatus(status))
			}
			if clean {
				rt.Splog.Info("All task branches are in sync with %s", source)
			}
			return nil
		},
	}

	return cmd
}

func describeStatus(status *actions.Status) string {
	parts := []string{}
	if status.PendingForward > 0 {
		parts = append(parts, fmt.Sprintf("%d pending from source", status.PendingForward))
	}
	if status.PendingBackward > 0 {
		parts = append(parts, fmt.Sprintf("%d pending to source", status.PendingBackward))
	}
	if status.UnresolvedMerges > 0 {
		parts = append(parts, fmt.Sprintf("%d unresolved merge(s)", status.UnresolvedMerges))
	}
	return strings.Join(parts, ", ")
}
