// Package runtime provides the context value threaded through commands: the
// git runner, stack topology store, logger, repo root and config. Commands
// resolve ambient state (like the current branch) once and pass it down;
// nothing below this layer reads global state.
package runtime

import (
	"fmt"

	"taskstack.dev/taskstack/internal/config"
	"taskstack.dev/taskstack/internal/git"
	"taskstack.dev/taskstack/internal/output"
	"taskstack.dev/taskstack/internal/stack"
)

// Context provides access to the git runner, topology and output for commands.
type Context struct {
	Git      git.Runner
	Topology *stack.Topology
	Splog    *output.Splog
	RepoRoot string
	Config   *config.RepoConfig
}

// NewContext builds a Context for the repository at the current working
// directory. It fails outside a git repository.
func NewContext() (*Context, error) {
	if err := git.EnsureRepo(); err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}

	repoRoot, err := git.GetRepoRoot()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(repoRoot)
	if err != nil {
		return nil, err
	}

	splog, err := output.NewSplogWithLogFile(output.GetLogFilePath())
	if err != nil {
		splog = output.NewSplog()
	}

	return &Context{
		Git:      git.NewRealRunner(),
		Topology: stack.New(git.NewRefStore()),
		Splog:    splog,
		RepoRoot: repoRoot,
		Config:   cfg,
	}, nil
}
