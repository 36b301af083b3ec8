package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskstack.dev/taskstack/internal/config"
	"taskstack.dev/taskstack/internal/runtime"
)

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "taskstack",
		Short: "Taskstack decomposes a long-lived branch into reviewable per-task branches",
		Long: `Taskstack decomposes a long-lived source branch into an ordered stack of
per-task branches, one per Task-Id commit trailer, and keeps the two sides
synchronized in both directions as work continues on either.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress informational output")

	// Add subcommands
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newSplitCmd())
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newResolveCmd())
	rootCmd.AddCommand(newRestackCmd())
	rootCmd.AddCommand(newLogCmd())
	rootCmd.AddCommand(newTeardownCmd())

	return rootCmd
}

// newContext builds the runtime context for a command invocation, honoring
// the persistent --quiet flag.
func newContext(cmd *cobra.Command) (*runtime.Context, error) {
	rt, err := runtime.NewContext()
	if err != nil {
		return nil, err
	}
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		rt.Splog.SetQuiet(true)
	}
	return rt, nil
}

// requireInitialized fails commands that need a prior 'taskstack init'.
func requireInitialized(rt *runtime.Context) error {
	if !config.IsInitialized(rt.RepoRoot) {
		return fmt.Errorf("taskstack not initialized. Run 'taskstack init' first")
	}
	return nil
}
