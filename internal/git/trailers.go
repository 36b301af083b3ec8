package git

import (
	"context"
	"fmt"
	"strings"

	taskerrors "taskstack.dev/taskstack/internal/errors"
)

// ReadTrailer extracts the value of a trailer key from a commit message.
// Trailers are "Key: value" lines in the final paragraph of the message,
// matching git's own interpret-trailers placement rules closely enough for
// the keys taskstack writes.
func ReadTrailer(message, key string) (string, bool) {
	for _, line := range trailerLines(message) {
		k, v, ok := splitTrailerLine(line)
		if ok && strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

// SetTrailer returns message with key set to value in its trailer block,
// leaving any existing trailers untouched. If the key is already present the
// message is returned unchanged.
func SetTrailer(message, key, value string) string {
	if _, ok := ReadTrailer(message, key); ok {
		return message
	}

	trimmed := strings.TrimRight(message, "\n")
	if len(trailerLines(message)) > 0 {
		// Existing trailer block: append to it.
		return trimmed + "\n" + key + ": " + value
	}
	return trimmed + "\n\n" + key + ": " + value
}

// trailerLines returns the lines of the message's trailer block, or nil if the
// last paragraph is not a trailer block. Like git, the "(cherry picked from
// commit ...)" line that cherry-pick -x appends is allowed inside the block.
func trailerLines(message string) []string {
	paragraphs := strings.Split(strings.TrimRight(message, "\n"), "\n\n")
	if len(paragraphs) < 2 {
		// A lone paragraph is the subject/body, never a trailer block.
		return nil
	}

	last := strings.Split(paragraphs[len(paragraphs)-1], "\n")
	found := false
	for _, line := range last {
		if _, _, ok := splitTrailerLine(line); ok {
			found = true
			continue
		}
		if strings.HasPrefix(line, "(cherry picked from commit ") {
			continue
		}
		return nil
	}
	if !found {
		return nil
	}
	return last
}

func splitTrailerLine(line string) (key, value string, ok bool) {
	idx := strings.Index(line, ": ")
	if idx <= 0 {
		return "", "", false
	}
	key = line[:idx]
	if strings.ContainsAny(key, " \t") {
		return "", "", false
	}
	return key, strings.TrimSpace(line[idx+2:]), true
}

// BackfillTrailers rewrites each commit in rewrite (SHAs on branch) to carry
// key=value if absent, replaying descendants on the same branch so the chain
// stays intact. Commits not listed and commits already carrying the trailer
// keep their identity unless an ancestor was rewritten under them.
//
// The branch ref is only moved after the whole chain has been rebuilt, so a
// failure partway through leaves the branch exactly as it was; the returned
// error names the commit where rewriting stopped. Only messages change, never
// trees, so rebuilding cannot conflict.
//
// Returns a mapping from old SHA to new SHA for every commit whose identity
// changed.
func BackfillTrailers(ctx context.Context, branch, base string, rewrite []string, key, value string) (map[string]string, error) {
	tip, err := GetRevision(branch)
	if err != nil {
		return nil, taskerrors.NewBranchNotFoundError(branch)
	}

	rewriteSet := make(map[string]bool, len(rewrite))
	for _, sha := range rewrite {
		rewriteSet[sha] = true
	}

	// Oldest commit that needs a rewrite bounds the chain we rebuild.
	chain, err := CommitsBetween(ctx, base, branch)
	if err != nil {
		return nil, err
	}
	start := -1
	for i, c := range chain {
		if rewriteSet[c.SHA] {
			if _, has := c.Trailer(key); !has {
				start = i
				break
			}
		}
	}
	if start == -1 {
		return map[string]string{}, nil
	}

	mapping := make(map[string]string)
	newParent := ""
	if len(chain[start].Parents) > 0 {
		newParent = chain[start].Parents[0]
	}

	for _, c := range chain[start:] {
		message := c.Message
		if rewriteSet[c.SHA] {
			message = SetTrailer(message, key, value)
		}
		newSHA, err := rewriteCommit(ctx, c, message, newParent)
		if err != nil {
			// Nothing has moved the branch ref yet; report where we stopped.
			return nil, fmt.Errorf("trailer backfill on %s aborted at commit %s: %w", branch, c.SHA, err)
		}
		if newSHA != c.SHA {
			mapping[c.SHA] = newSHA
		}
		newParent = newSHA
	}

	if newParent != tip {
		if _, err := RunGitCommandWithContext(ctx, "update-ref", "refs/heads/"+branch, newParent, tip); err != nil {
			return nil, fmt.Errorf("failed to move %s to rewritten tip: %w", branch, err)
		}
	}
	return mapping, nil
}

// rewriteCommit creates a copy of c with the given message and first parent,
// preserving tree, extra parents, author and committer identity.
func rewriteCommit(ctx context.Context, c Commit, message, newFirstParent string) (string, error) {
	if message == c.Message && (len(c.Parents) == 0 || c.Parents[0] == newFirstParent) {
		return c.SHA, nil
	}

	tree, err := RunGitCommandWithContext(ctx, "rev-parse", c.SHA+"^{tree}")
	if err != nil {
		return "", fmt.Errorf("failed to read tree of %s: %w", c.SHA, err)
	}

	ident, err := RunGitCommandWithContext(ctx,
		"log", "-1", "--format=%an"+fieldSep+"%ae"+fieldSep+"%aI"+fieldSep+"%cn"+fieldSep+"%ce"+fieldSep+"%cI", c.SHA)
	if err != nil {
		return "", fmt.Errorf("failed to read identity of %s: %w", c.SHA, err)
	}
	fields := strings.Split(ident, fieldSep)
	if len(fields) != 6 {
		return "", fmt.Errorf("unexpected identity output for %s: %q", c.SHA, ident)
	}
	env := []string{
		"GIT_AUTHOR_NAME=" + fields[0],
		"GIT_AUTHOR_EMAIL=" + fields[1],
		"GIT_AUTHOR_DATE=" + fields[2],
		"GIT_COMMITTER_NAME=" + fields[3],
		"GIT_COMMITTER_EMAIL=" + fields[4],
		"GIT_COMMITTER_DATE=" + fields[5],
	}

	args := []string{"commit-tree", tree}
	if newFirstParent != "" {
		args = append(args, "-p", newFirstParent)
	}
	for _, p := range c.Parents[min(len(c.Parents), 1):] {
		args = append(args, "-p", p)
	}

	newSHA, err := RunGitCommandWithInputAndEnv(ctx, message+"\n", env, args...)
	if err != nil {
		return "", fmt.Errorf("failed to rewrite commit %s: %w", c.SHA, err)
	}
	return newSHA, nil
}
