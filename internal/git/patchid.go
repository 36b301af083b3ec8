package git

import (
	"context"
	"fmt"
	"strings"
)

// PatchID returns the stable patch identity of a commit's net change, or ""
// for a commit whose diff is empty. Two commits with the same patch identity
// carry the same change regardless of ancestry.
//
// Merge commits are fingerprinted by their first-parent diff, so a merge whose
// resolution introduced nothing has an empty identity.
func PatchID(ctx context.Context, sha string) (string, error) {
	commit, err := GetCommit(ctx, sha)
	if err != nil {
		return "", err
	}
	return patchIDOf(ctx, commit)
}

func patchIDOf(ctx context.Context, commit Commit) (string, error) {
	var patch string
	var err error
	if len(commit.Parents) == 0 {
		patch, err = RunGitCommandRaw("diff-tree", "--patch", "--no-color", "--root", commit.SHA)
	} else {
		patch, err = RunGitCommandRaw("diff", "--no-color", commit.Parents[0], commit.SHA)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read patch of %s: %w", commit.SHA, err)
	}
	if strings.TrimSpace(patch) == "" {
		return "", nil
	}

	out, err := RunGitCommandWithInput(patch, "patch-id", "--stable")
	if err != nil {
		return "", fmt.Errorf("failed to compute patch id of %s: %w", commit.SHA, err)
	}
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], nil
}

// PatchIDsBetween computes the patch identity of every commit in base..tip,
// returning a map from patch identity to the SHA that carries it. Empty
// commits produce no entry.
func PatchIDsBetween(ctx context.Context, base, tip string) (map[string]string, error) {
	commits, err := CommitsBetween(ctx, base, tip)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]string, len(commits))
	for _, c := range commits {
		id, err := patchIDOf(ctx, c)
		if err != nil {
			return nil, err
		}
		if id == "" {
			continue
		}
		// First writer wins so replays resolve to the oldest carrier.
		if _, ok := ids[id]; !ok {
			ids[id] = c.SHA
		}
	}
	return ids, nil
}
