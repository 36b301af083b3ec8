package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskstack.dev/taskstack/internal/config"
	"taskstack.dev/taskstack/internal/git"
)

// newInitCmd creates the init command
func newInitCmd() *cobra.Command {
	var (
		base   string
		prefix string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize taskstack in the current repository",
		Long: `Initialize taskstack in the current repository, recording the default base
branch and task-branch prefix in .git/taskstack.yml.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := git.EnsureRepo(); err != nil {
				return fmt.Errorf("not a git repository: %w", err)
			}
			repoRoot, err := git.GetRepoRoot()
			if err != nil {
				return fmt.Errorf("failed to get repo root: %w", err)
			}

			if config.IsInitialized(repoRoot) && !force {
				return fmt.Errorf("taskstack already initialized, use --force to overwrite")
			}

			cfg := &config.RepoConfig{Base: base, Prefix: prefix}
			if cfg.Base == "" {
				cfg.Base = config.DefaultBase
			}
			if cfg.Prefix == "" {
				cfg.Prefix = config.DefaultPrefix
			}
			if !git.BranchExists(cfg.Base) {
				return fmt.Errorf("base branch %s does not exist", cfg.Base)
			}

			if err := config.Save(repoRoot, cfg); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			fmt.Printf("Initialized taskstack (base %s, prefix %s)\n", cfg.Base, cfg.Prefix)
			return nil
		},
	}

	cmd.Flags().StringVar(&base, "base", "", "Default base branch for new stacks")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Default task-branch name prefix")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration")

	return cmd
}
