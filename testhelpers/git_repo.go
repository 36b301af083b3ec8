package testhelpers

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// GitRepo represents a Git repository created for a test.
type GitRepo struct {
	Dir string
}

// NewGitRepo initializes a new Git repository in the specified directory.
func NewGitRepo(dir string) (*GitRepo, error) {
	repo := &GitRepo{Dir: dir}

	// Use git -c flags to avoid reading global config and pin the default branch
	cmd := exec.Command("git", "-c", "init.defaultBranch=main", "-c", "core.autocrlf=false", "init", dir, "-b", "main")
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("failed to init repo: %w", err)
	}

	// Configure Git user (required for commits)
	if err := repo.runGitCommand("config", "user.name", "Test User"); err != nil {
		return nil, err
	}
	if err := repo.runGitCommand("config", "user.email", "test@example.com"); err != nil {
		return nil, err
	}

	return repo, nil
}

// runGitCommand executes a git command in the repository directory.
// Uses GIT_CONFIG_GLOBAL=/dev/null so the test never reads the host's config.
func (r *GitRepo) runGitCommand(args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	if os.Getenv("DEBUG") == "" {
		cmd.Stdout = nil
		cmd.Stderr = nil
	}
	return cmd.Run()
}

// RunGitCommand executes a git command and returns an error if it fails.
func (r *GitRepo) RunGitCommand(args ...string) error {
	return r.runGitCommand(args...)
}

// RunGitCommandAndGetOutput executes a git command and returns its trimmed output.
func (r *GitRepo) RunGitCommandAndGetOutput(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git command failed: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// CreateChange writes (or overwrites) a file in the repository and stages it.
func (r *GitRepo) CreateChange(fileName, content string) error {
	filePath := filepath.Join(r.Dir, fileName)
	if err := os.MkdirAll(filepath.Dir(filePath), 0750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(filePath, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return r.runGitCommand("add", filePath)
}

// CreateChangeAndCommit writes a file and commits it with the given message.
func (r *GitRepo) CreateChangeAndCommit(fileName, content, message string) error {
	if err := r.CreateChange(fileName, content); err != nil {
		return err
	}
	return r.runGitCommand("commit", "-m", message)
}

// CommitWithTask writes a file and commits it with a Task-Id trailer.
func (r *GitRepo) CommitWithTask(fileName, content, subject, taskID string) error {
	message := fmt.Sprintf("%s\n\nTask-Id: %s", subject, taskID)
	return r.CreateChangeAndCommit(fileName, content, message)
}

// CommitWithTaskOrder writes a file and commits it with Task-Id and
// Task-Order trailers.
func (r *GitRepo) CommitWithTaskOrder(fileName, content, subject, taskID string, order int) error {
	message := fmt.Sprintf("%s\n\nTask-Id: %s\nTask-Order: %d", subject, taskID, order)
	return r.CreateChangeAndCommit(fileName, content, message)
}

// CreateBranch creates a new branch without checking it out.
func (r *GitRepo) CreateBranch(name string) error {
	return r.runGitCommand("branch", name)
}

// CreateAndCheckoutBranch creates and checks out a new branch.
func (r *GitRepo) CreateAndCheckoutBranch(name string) error {
	return r.runGitCommand("checkout", "-b", name)
}

// CheckoutBranch checks out a branch.
func (r *GitRepo) CheckoutBranch(name string) error {
	return r.runGitCommand("checkout", name)
}

// DeleteBranch deletes a branch.
func (r *GitRepo) DeleteBranch(name string) error {
	return r.runGitCommand("branch", "-D", name)
}

// CurrentBranch returns the checked-out branch name.
func (r *GitRepo) CurrentBranch() (string, error) {
	return r.RunGitCommandAndGetOutput("branch", "--show-current")
}

// RevParse resolves a revision to a full SHA.
func (r *GitRepo) RevParse(rev string) (string, error) {
	return r.RunGitCommandAndGetOutput("rev-parse", rev)
}

// MessageOf returns the full commit message of a revision.
func (r *GitRepo) MessageOf(rev string) (string, error) {
	return r.RunGitCommandAndGetOutput("log", "-1", "--format=%B", rev)
}

// FileContent reads a file from the working tree.
func (r *GitRepo) FileContent(fileName string) (string, error) {
	data, err := os.ReadFile(filepath.Join(r.Dir, fileName))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
