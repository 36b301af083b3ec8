// Package testhelpers provides testing utilities for the taskstack CLI: a
// scene system, Git repository helpers and custom assertions.
package testhelpers

import (
	"os/exec"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Must panics if err is not nil, otherwise returns the value. Used in test
// setup code where errors are not expected and should halt execution.
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// ExpectBranches asserts that the repository has exactly the expected
// branches, order-insensitively.
func ExpectBranches(t *testing.T, repo *GitRepo, expected []string) {
	t.Helper()

	cmd := exec.Command("git", "-C", repo.Dir,
		"for-each-ref", "refs/heads/", "--format=%(refname:short)")
	output, err := cmd.Output()
	require.NoError(t, err, "Failed to list branches")

	branches := strings.Split(strings.TrimSpace(string(output)), "\n")
	filtered := []string{}
	for _, b := range branches {
		b = strings.TrimSpace(b)
		if b != "" {
			filtered = append(filtered, b)
		}
	}

	sort.Strings(filtered)
	sorted := append([]string(nil), expected...)
	sort.Strings(sorted)

	require.Equal(t, sorted, filtered, "Branches do not match")
}

// ExpectCommitSubjects asserts the first-parent subjects of base..rev, oldest
// first.
func ExpectCommitSubjects(t *testing.T, repo *GitRepo, base, rev string, expected []string) {
	t.Helper()

	out, err := repo.RunGitCommandAndGetOutput(
		"log", "--first-parent", "--reverse", "--format=%s", base+".."+rev)
	require.NoError(t, err, "Failed to list commits")

	subjects := []string{}
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			subjects = append(subjects, line)
		}
	}
	require.Equal(t, expected, subjects, "Commit subjects do not match")
}
