// Package errors provides sentinel errors and custom error types for taskstack.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	// ErrNotOnBranch indicates that HEAD is not on a branch
	ErrNotOnBranch = errors.New("not on a branch")

	// ErrBranchNotFound indicates that a branch does not exist
	ErrBranchNotFound = errors.New("branch not found")

	// ErrMissingTaskID indicates that a commit entering partitioning lacks a Task-Id trailer
	ErrMissingTaskID = errors.New("missing task id")

	// ErrDuplicateOrder indicates that two tasks carry the same Task-Order value
	ErrDuplicateOrder = errors.New("duplicate task order")

	// ErrBaseOrPrefixMismatch indicates that a re-split contradicts recorded metadata
	ErrBaseOrPrefixMismatch = errors.New("base or prefix mismatch")

	// ErrConflict indicates that a replay or rebase could not be applied automatically
	ErrConflict = errors.New("conflict")

	// ErrEmptyReplay indicates that a replayed change collapsed to nothing
	ErrEmptyReplay = errors.New("empty replay")

	// ErrNotAMergeCommit indicates that resolution was attempted on a non-merge tip
	ErrNotAMergeCommit = errors.New("not a merge commit")

	// ErrNotATaskBranch indicates that an operation requires a tracked task branch
	ErrNotATaskBranch = errors.New("not a task branch")

	// ErrAlreadyPublished indicates a refusal to rewrite history that is already shared
	ErrAlreadyPublished = errors.New("already published")
)

// BranchNotFoundError represents an error when a branch is not found
type BranchNotFoundError struct {
	BranchName string
}

func (e *BranchNotFoundError) Error() string {
	return fmt.Sprintf("branch %s does not exist", e.BranchName)
}

// Is returns true if the target error is ErrBranchNotFound
func (e *BranchNotFoundError) Is(target error) bool {
	return target == ErrBranchNotFound
}

// NewBranchNotFoundError creates a new BranchNotFoundError
func NewBranchNotFoundError(branchName string) *BranchNotFoundError {
	return &BranchNotFoundError{BranchName: branchName}
}

// MissingTaskIDError reports a commit in the partitioned range without a Task-Id trailer
type MissingTaskIDError struct {
	CommitSHA string
	Subject   string
}

func (e *MissingTaskIDError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("commit %s (%q) has no Task-Id trailer", shortSHA(e.CommitSHA), e.Subject)
	}
	return fmt.Sprintf("commit %s has no Task-Id trailer", shortSHA(e.CommitSHA))
}

// Is returns true if the target error is ErrMissingTaskID
func (e *MissingTaskIDError) Is(target error) bool {
	return target == ErrMissingTaskID
}

// DuplicateOrderError reports two tasks sharing the same Task-Order value
type DuplicateOrderError struct {
	Order int
	TaskA string
	TaskB string
}

func (e *DuplicateOrderError) Error() string {
	return fmt.Sprintf("tasks %s and %s both carry Task-Order %d", e.TaskA, e.TaskB, e.Order)
}

// Is returns true if the target error is ErrDuplicateOrder
func (e *DuplicateOrderError) Is(target error) bool {
	return target == ErrDuplicateOrder
}

// BaseOrPrefixMismatchError reports a re-split whose explicit base or prefix
// contradicts the values recorded at the original split
type BaseOrPrefixMismatchError struct {
	Field    string // "base" or "prefix"
	Recorded string
	Supplied string
}

func (e *BaseOrPrefixMismatchError) Error() string {
	return fmt.Sprintf("%s %q contradicts recorded %s %q", e.Field, e.Supplied, e.Field, e.Recorded)
}

// Is returns true if the target error is ErrBaseOrPrefixMismatch
func (e *BaseOrPrefixMismatchError) Is(target error) bool {
	return target == ErrBaseOrPrefixMismatch
}

// ConflictError reports a replay or rebase that could not be applied
// automatically. The target branch has been restored to its pre-attempt state
// by the time this error is returned.
type ConflictError struct {
	BranchName string
	CommitSHA  string
	Message    string
}

func (e *ConflictError) Error() string {
	msg := fmt.Sprintf("conflict on branch %s", e.BranchName)
	if e.CommitSHA != "" {
		msg += fmt.Sprintf(" applying %s", shortSHA(e.CommitSHA))
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is returns true if the target error is ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// NewConflictError creates a new ConflictError
func NewConflictError(branchName, commitSHA, message string) *ConflictError {
	return &ConflictError{BranchName: branchName, CommitSHA: commitSHA, Message: message}
}

// AlreadyPublishedError reports an attempt to rewrite a commit that is
// reachable from a remote-tracking ref
type AlreadyPublishedError struct {
	BranchName string
	CommitSHA  string
	RemoteRef  string
}

func (e *AlreadyPublishedError) Error() string {
	return fmt.Sprintf("commit %s on %s is already published at %s; refusing to rewrite shared history",
		shortSHA(e.CommitSHA), e.BranchName, e.RemoteRef)
}

// Is returns true if the target error is ErrAlreadyPublished
func (e *AlreadyPublishedError) Is(target error) bool {
	return target == ErrAlreadyPublished
}

// GitCommandError represents an error from a git command execution
type GitCommandError struct {
	Command string
	Args    []string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *GitCommandError) Error() string {
	msg := fmt.Sprintf("git command failed: %s", e.Command)
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(" %v", e.Args)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", e.Stderr)
	}
	if e.Stdout != "" {
		msg += fmt.Sprintf("\nstdout: %s", e.Stdout)
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *GitCommandError) Unwrap() error {
	return e.Err
}

// NewGitCommandError creates a new GitCommandError
func NewGitCommandError(command string, args []string, stdout, stderr string, err error) *GitCommandError {
	return &GitCommandError{
		Command: command,
		Args:    args,
		Stdout:  stdout,
		Stderr:  stderr,
		Err:     err,
	}
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
