// Package stack holds the in-memory stack topology: the parent→children link
// graph between branches, with traversal, ordering and splice operations.
package stack

import (
	"fmt"
	"slices"
)

// Store is the branch-scoped metadata store the topology persists through.
// Stack links are the multi-valued "children" key; the source link is the
// single-valued "source" key.
type Store interface {
	Children(branch string) ([]string, error)
	SetChildren(branch string, children []string) error
	Source(branch string) (string, error)
	SetSource(branch, source string) error
	SourceMeta(branch string) (base, prefix string, err error)
	SetSourceMeta(branch, base, prefix string) error
	Branches() ([]string, error)
	Remove(branch string) error
}

// Topology is a view over the stack links in a Store. Parent lookups are
// memoized per Topology instance; a Topology is built once per command
// invocation and never kept across runs.
type Topology struct {
	store     Store
	parentIdx map[string]string // child -> parent, lazily built
}

// New creates a Topology over the given store.
func New(store Store) *Topology {
	return &Topology{store: store}
}

// Children returns the ordered stack-link children of a branch.
func (t *Topology) Children(branch string) ([]string, error) {
	return t.store.Children(branch)
}

// AddChild appends child to parent's ordered child list. Adding an existing
// child is a no-op.
func (t *Topology) AddChild(parent, child string) error {
	children, err := t.store.Children(parent)
	if err != nil {
		return err
	}
	if slices.Contains(children, child) {
		return nil
	}
	if err := t.store.SetChildren(parent, append(children, child)); err != nil {
		return err
	}
	t.invalidate()
	return nil
}

// RemoveChild removes child from parent's child list. Removing an absent
// child is a no-op.
func (t *Topology) RemoveChild(parent, child string) error {
	children, err := t.store.Children(parent)
	if err != nil {
		return err
	}
	idx := slices.Index(children, child)
	if idx == -1 {
		return nil
	}
	if err := t.store.SetChildren(parent, slices.Delete(children, idx, idx+1)); err != nil {
		return err
	}
	t.invalidate()
	return nil
}

// ParentOf returns the stack parent of a branch, or "" if it has none.
// Reverse lookup scans every branch's child list; stacks are small, and the
// result is memoized for the lifetime of the Topology.
func (t *Topology) ParentOf(branch string) (string, error) {
	if t.parentIdx == nil {
		if err := t.buildParentIndex(); err != nil {
			return "", err
		}
	}
	return t.parentIdx[branch], nil
}

func (t *Topology) buildParentIndex() error {
	branches, err := t.store.Branches()
	if err != nil {
		return err
	}
	idx := make(map[string]string)
	for _, parent := range branches {
		children, err := t.store.Children(parent)
		if err != nil {
			return err
		}
		for _, child := range children {
			idx[child] = parent
		}
	}
	t.parentIdx = idx
	return nil
}

func (t *Topology) invalidate() {
	t.parentIdx = nil
}

// OrderedDescendants orders the branches in set by stack position, root
// first. The root is the one branch whose stack parent is not itself in the
// set; from there single-child links are followed as long as they stay in
// the set.
func (t *Topology) OrderedDescendants(set []string) ([]string, error) {
	if len(set) == 0 {
		return nil, nil
	}

	inSet := make(map[string]bool, len(set))
	for _, b := range set {
		inSet[b] = true
	}

	root := ""
	for _, b := range set {
		parent, err := t.ParentOf(b)
		if err != nil {
			return nil, err
		}
		if !inSet[parent] {
			if root != "" {
				return nil, fmt.Errorf("stack links are not a single chain: both %s and %s are roots", root, b)
			}
			root = b
		}
	}
	if root == "" {
		return nil, fmt.Errorf("stack links contain a cycle")
	}

	ordered := []string{root}
	current := root
	for {
		children, err := t.store.Children(current)
		if err != nil {
			return nil, err
		}
		next := ""
		for _, c := range children {
			if inSet[c] {
				next = c
				break
			}
		}
		if next == "" {
			break
		}
		ordered = append(ordered, next)
		current = next
	}

	if len(ordered) != len(set) {
		return nil, fmt.Errorf("stack links do not form a chain over all %d branches", len(set))
	}
	return ordered, nil
}

// Splice inserts newBranch as a child of afterParent. If beforeChild is
// non-empty it is detached from its current parent and reattached under
// newBranch, which is how a re-split inserts a task mid-stack. Any stale
// parent link left over from a previous split of newBranch is cleared first.
func (t *Topology) Splice(newBranch, afterParent, beforeChild string) error {
	if staleParent, err := t.ParentOf(newBranch); err != nil {
		return err
	} else if staleParent != "" && staleParent != afterParent {
		if err := t.RemoveChild(staleParent, newBranch); err != nil {
			return err
		}
	}

	if beforeChild != "" {
		childParent, err := t.ParentOf(beforeChild)
		if err != nil {
			return err
		}
		if childParent != "" {
			if err := t.RemoveChild(childParent, beforeChild); err != nil {
				return err
			}
		}
	}

	if err := t.AddChild(afterParent, newBranch); err != nil {
		return err
	}
	if beforeChild != "" {
		if err := t.AddChild(newBranch, beforeChild); err != nil {
			return err
		}
	}
	return nil
}

// SourceOf returns the source link of a task branch, or "".
func (t *Topology) SourceOf(branch string) (string, error) {
	return t.store.Source(branch)
}

// SetSource records the source link of a task branch.
func (t *Topology) SetSource(branch, source string) error {
	return t.store.SetSource(branch, source)
}

// SourceMeta returns the base and name prefix recorded on a source branch at
// split time.
func (t *Topology) SourceMeta(branch string) (base, prefix string, err error) {
	return t.store.SourceMeta(branch)
}

// SetSourceMeta records the base and name prefix on a source branch.
func (t *Topology) SetSourceMeta(branch, base, prefix string) error {
	return t.store.SetSourceMeta(branch, base, prefix)
}

// TaskBranchesOf returns every branch whose source link points at source, in
// no particular order.
func (t *Topology) TaskBranchesOf(source string) ([]string, error) {
	branches, err := t.store.Branches()
	if err != nil {
		return nil, err
	}
	var tasks []string
	for _, b := range branches {
		s, err := t.store.Source(b)
		if err != nil {
			return nil, err
		}
		if s == source {
			tasks = append(tasks, b)
		}
	}
	return tasks, nil
}

// Remove deletes every link involving branch: its own record and its entry in
// any parent's child list.
func (t *Topology) Remove(branch string) error {
	parent, err := t.ParentOf(branch)
	if err != nil {
		return err
	}
	if parent != "" {
		if err := t.RemoveChild(parent, branch); err != nil {
			return err
		}
	}
	if err := t.store.Remove(branch); err != nil {
		return err
	}
	t.invalidate()
	return nil
}
