package git

import (
	"context"
)

// Runner is the version-control surface the stack engines run against. It
// exists so engine logic can be exercised with a scripted fake in tests; the
// real implementation delegates to the package-level git functions.
type Runner interface {
	// Refs and branches
	CurrentBranch() (string, error)
	ResolveRef(name string) (string, bool)
	BranchExists(name string) bool
	CreateBranch(ctx context.Context, name, atCommit string) error
	DeleteBranch(ctx context.Context, name string, force bool) error
	UpdateBranchRef(name, sha string) error
	CheckoutBranch(ctx context.Context, name string) error

	// Commit graph
	CommitsBetween(ctx context.Context, base, tip string) ([]Commit, error)
	GetCommit(ctx context.Context, rev string) (Commit, error)
	IsAncestor(ancestor, descendant string) (bool, error)
	ChangedPaths(ctx context.Context, base, tip string) ([]string, error)
	PathsDiffer(ctx context.Context, revA, revB string, paths []string) ([]string, error)

	// Patch identity
	PatchID(ctx context.Context, sha string) (string, error)
	PatchIDsBetween(ctx context.Context, base, tip string) (map[string]string, error)

	// History mutation
	Replay(ctx context.Context, commitSHA, ontoBranch string) (string, error)
	Rebase(ctx context.Context, branch, oldBase, newBase string) error
	MergeKeepOurs(ctx context.Context, branch, other, message string) (string, error)
	BackfillTrailers(ctx context.Context, branch, base string, rewrite []string, key, value string) (map[string]string, error)
	HardReset(ctx context.Context, rev string) error
	CheckoutPaths(ctx context.Context, rev string, paths []string) error
	CommitStaged(ctx context.Context, message string) (string, error)

	// Working tree safety
	SaveWorktree(ctx context.Context) (*WorktreeState, error)
	RestoreWorktree(ctx context.Context, state *WorktreeState) error

	// Publication state
	PublishedAt(ctx context.Context, sha string) (string, bool, error)
}

// NewRealRunner returns the standard Runner backed by the package-level git
// functions.
func NewRealRunner() Runner {
	return &realRunner{}
}

type realRunner struct{}

func (r *realRunner) CurrentBranch() (string, error) {
	return GetCurrentBranch()
}

func (r *realRunner) ResolveRef(name string) (string, bool) {
	return ResolveRef(name)
}

func (r *realRunner) BranchExists(name string) bool {
	return BranchExists(name)
}

func (r *realRunner) CreateBranch(ctx context.Context, name, atCommit string) error {
	return CreateBranch(ctx, name, atCommit)
}

func (r *realRunner) DeleteBranch(ctx context.Context, name string, force bool) error {
	return DeleteBranch(ctx, name, force)
}

func (r *realRunner) UpdateBranchRef(name, sha string) error {
	return UpdateBranchRef(name, sha)
}

func (r *realRunner) CheckoutBranch(ctx context.Context, name string) error {
	return CheckoutBranch(ctx, name)
}

func (r *realRunner) CommitsBetween(ctx context.Context, base, tip string) ([]Commit, error) {
	return CommitsBetween(ctx, base, tip)
}

func (r *realRunner) GetCommit(ctx context.Context, rev string) (Commit, error) {
	return GetCommit(ctx, rev)
}

func (r *realRunner) IsAncestor(ancestor, descendant string) (bool, error) {
	return IsAncestor(ancestor, descendant)
}

func (r *realRunner) ChangedPaths(ctx context.Context, base, tip string) ([]string, error) {
	return ChangedPaths(ctx, base, tip)
}

func (r *realRunner) PathsDiffer(ctx context.Context, revA, revB string, paths []string) ([]string, error) {
	return PathsDiffer(ctx, revA, revB, paths)
}

func (r *realRunner) PatchID(ctx context.Context, sha string) (string, error) {
	return PatchID(ctx, sha)
}

func (r *realRunner) PatchIDsBetween(ctx context.Context, base, tip string) (map[string]string, error) {
	return PatchIDsBetween(ctx, base, tip)
}

func (r *realRunner) Replay(ctx context.Context, commitSHA, ontoBranch string) (string, error) {
	return Replay(ctx, commitSHA, ontoBranch)
}

func (r *realRunner) Rebase(ctx context.Context, branch, oldBase, newBase string) error {
	return Rebase(ctx, branch, oldBase, newBase)
}

func (r *realRunner) MergeKeepOurs(ctx context.Context, branch, other, message string) (string, error) {
	return MergeKeepOurs(ctx, branch, other, message)
}

func (r *realRunner) BackfillTrailers(ctx context.Context, branch, base string, rewrite []string, key, value string) (map[string]string, error) {
	return BackfillTrailers(ctx, branch, base, rewrite, key, value)
}

func (r *realRunner) HardReset(ctx context.Context, rev string) error {
	return HardReset(ctx, rev)
}

func (r *realRunner) CheckoutPaths(ctx context.Context, rev string, paths []string) error {
	return CheckoutPaths(ctx, rev, paths)
}

func (r *realRunner) CommitStaged(ctx context.Context, message string) (string, error) {
	return CommitStaged(ctx, message)
}

func (r *realRunner) SaveWorktree(ctx context.Context) (*WorktreeState, error) {
	return SaveWorktree(ctx)
}

func (r *realRunner) RestoreWorktree(ctx context.Context, state *WorktreeState) error {
	return RestoreWorktree(ctx, state)
}

func (r *realRunner) PublishedAt(ctx context.Context, sha string) (string, bool, error) {
	return PublishedAt(ctx, sha)
}
