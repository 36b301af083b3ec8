package git

import (
	"context"
	"fmt"
	"strings"
)

// Trailer keys recognized by the stack core. Values are opaque strings; the
// core never reformats or re-prefixes them.
const (
	TrailerTaskID    = "Task-Id"
	TrailerTaskOrder = "Task-Order"
)

// Commit is an immutable commit as seen by the stack engines.
type Commit struct {
	SHA     string
	Parents []string
	Subject string
	Message string
}

// IsMerge reports whether the commit has more than one parent.
func (c Commit) IsMerge() bool {
	return len(c.Parents) > 1
}

// Trailer returns the value of a message trailer, and whether it was present.
func (c Commit) Trailer(key string) (string, bool) {
	return ReadTrailer(c.Message, key)
}

// record separators for parsing `git log` output in a single invocation
const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
)

// CommitsBetween returns the commits in base..tip, oldest first, following
// first-parent history. base may be empty to include all of tip's history.
func CommitsBetween(ctx context.Context, base, tip string) ([]Commit, error) {
	spec := tip
	if base != "" {
		spec = base + ".." + tip
	}
	out, err := RunGitCommandWithContext(ctx,
		"log", "--first-parent", "--reverse",
		"--format=%H"+fieldSep+"%P"+fieldSep+"%s"+fieldSep+"%B"+recordSep,
		spec)
	if err != nil {
		return nil, fmt.Errorf("failed to list commits %s: %w", spec, err)
	}

	var commits []Commit
	for _, record := range strings.Split(out, recordSep) {
		record = strings.TrimLeft(record, "\n")
		if strings.TrimSpace(record) == "" {
			continue
		}
		parts := strings.SplitN(record, fieldSep, 4)
		if len(parts) != 4 {
			return nil, fmt.Errorf("unexpected git log record: %q", record)
		}
		var parents []string
		if p := strings.TrimSpace(parts[1]); p != "" {
			parents = strings.Fields(p)
		}
		commits = append(commits, Commit{
			SHA:     parts[0],
			Parents: parents,
			Subject: parts[2],
			Message: strings.TrimRight(parts[3], "\n"),
		})
	}
	return commits, nil
}

// GetCommit returns a single commit by revision.
func GetCommit(ctx context.Context, rev string) (Commit, error) {
	out, err := RunGitCommandWithContext(ctx,
		"log", "-1",
		"--format=%H"+fieldSep+"%P"+fieldSep+"%s"+fieldSep+"%B",
		rev)
	if err != nil {
		return Commit{}, fmt.Errorf("failed to read commit %s: %w", rev, err)
	}
	parts := strings.SplitN(out, fieldSep, 4)
	if len(parts) != 4 {
		return Commit{}, fmt.Errorf("unexpected git log output for %s: %q", rev, out)
	}
	var parents []string
	if p := strings.TrimSpace(parts[1]); p != "" {
		parents = strings.Fields(p)
	}
	return Commit{
		SHA:     parts[0],
		Parents: parents,
		Subject: parts[2],
		Message: strings.TrimRight(parts[3], "\n"),
	}, nil
}

// GetRevision returns the SHA a branch name or ref resolves to.
func GetRevision(name string) (string, error) {
	repo, err := openRepo()
	if err != nil {
		return "", err
	}
	hash, err := resolveRefHash(repo, name)
	if err != nil {
		return "", err
	}
	return hash.String(), nil
}

// ResolveRef resolves a ref name to a SHA, reporting whether it exists.
func ResolveRef(name string) (string, bool) {
	sha, err := GetRevision(name)
	if err != nil {
		return "", false
	}
	return sha, true
}

// IsAncestor checks if ancestor is an ancestor of (or equal to) descendant.
func IsAncestor(ancestor, descendant string) (bool, error) {
	repo, err := openRepo()
	if err != nil {
		return false, err
	}

	ancestorHash, err := resolveRefHash(repo, ancestor)
	if err != nil {
		return false, fmt.Errorf("failed to resolve ancestor ref: %w", err)
	}
	descendantHash, err := resolveRefHash(repo, descendant)
	if err != nil {
		return false, fmt.Errorf("failed to resolve descendant ref: %w", err)
	}
	if ancestorHash == descendantHash {
		return true, nil
	}

	goGitMu.Lock()
	defer goGitMu.Unlock()

	ancestorCommit, err := repo.CommitObject(ancestorHash)
	if err != nil {
		return false, fmt.Errorf("failed to get ancestor commit: %w", err)
	}
	descendantCommit, err := repo.CommitObject(descendantHash)
	if err != nil {
		return false, fmt.Errorf("failed to get descendant commit: %w", err)
	}

	return ancestorCommit.IsAncestor(descendantCommit)
}

// ChangedPaths returns the unique file paths touched by any commit in
// base..tip, in first-touched order.
func ChangedPaths(ctx context.Context, base, tip string) ([]string, error) {
	lines, err := RunGitCommandLinesWithContext(ctx,
		"log", "--first-parent", "--reverse", "--name-only", "--format=", base+".."+tip)
	if err != nil {
		return nil, fmt.Errorf("failed to list changed paths in %s..%s: %w", base, tip, err)
	}

	seen := make(map[string]bool)
	var paths []string
	for _, line := range lines {
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true
		paths = append(paths, line)
	}
	return paths, nil
}

// PathsDiffer returns the subset of paths whose content differs between revA and revB.
func PathsDiffer(ctx context.Context, revA, revB string, paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	args := append([]string{"diff", "--name-only", revA, revB, "--"}, paths...)
	lines, err := RunGitCommandLinesWithContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to diff paths between %s and %s: %w", revA, revB, err)
	}
	return lines, nil
}
