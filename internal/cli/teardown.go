package cli

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"taskstack.dev/taskstack/internal/actions"
)

// newTeardownCmd creates the teardown command
func newTeardownCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "teardown [source]",
		Short: "Delete a stack's task branches and all recorded stack state",
		Long: `Delete every task branch of a source branch along with the stack links and
source links recorded for them. The source branch itself is left untouched.`,
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
				current, err := rt.Git.CurrentBranch()
				if err != nil {
					return fmt.Errorf("not on a branch, pass the source branch explicitly: %w", err)
				}
				source, err = actions.SourceFor(rt, current)
				if err != nil {
					return fmt.Errorf("%s is not part of a stack: %w", current, err)
				}
			}

			tasks, err := actions.OrderedTaskBranches(rt, source)
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				rt.Splog.Info("No task branches recorded for %s", source)
				return nil
			}

			if !force {
				confirmed := false
				prompt := &survey.Confirm{
					Message: fmt.Sprintf("Delete %d task branch(es) of %s?", len(tasks), source),
					Default: false,
				}
				if err := survey.AskOne(prompt, &confirmed); err != nil {
					return fmt.Errorf("canceled")
				}
				if !confirmed {
					return fmt.Errorf("canceled")
				}
			}

			deleted, err := actions.Teardown(cmd.Context(), rt, source)
			for _, branch := range deleted {
				rt.Splog.Info("Deleted %s", branch)
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip the confirmation prompt")

	return cmd
}
