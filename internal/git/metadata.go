package git

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// metadataRefPrefix is the ref namespace holding per-branch stack metadata.
const metadataRefPrefix = "refs/task-stack/"

// Meta is the branch-scoped metadata record backing stack and source links.
// Children is the ordered stack-link list (insertion order significant);
// Source is the task branch's single-valued link back to its source branch;
// Base and Prefix are recorded on the source branch at split time so a
// re-split can recover them.
type Meta struct {
	Children []string `json:"children,omitempty"`
	Source   string   `json:"source,omitempty"`
	Base     string   `json:"base,omitempty"`
	Prefix   string   `json:"prefix,omitempty"`
}

// IsEmpty reports whether the record carries no links at all.
func (m *Meta) IsEmpty() bool {
	return len(m.Children) == 0 && m.Source == "" && m.Base == "" && m.Prefix == ""
}

// ReadMetadataRef reads metadata for a branch. A missing ref yields an empty
// record, not an error.
func ReadMetadataRef(branchName string) (*Meta, error) {
	repo, err := openRepo()
	if err != nil {
		return nil, err
	}

	goGitMu.Lock()
	defer goGitMu.Unlock()

	refName := plumbing.ReferenceName(metadataRefPrefix + branchName)
	ref, err := repo.Reference(refName, false)
	if err != nil {
		return &Meta{}, nil
	}

	obj, err := repo.Object(plumbing.AnyObject, ref.Hash())
	if err != nil {
		return &Meta{}, nil
	}
	blob, ok := obj.(*object.Blob)
	if !ok {
		return &Meta{}, nil
	}

	reader, err := blob.Reader()
	if err != nil {
		return &Meta{}, nil
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return &Meta{}, nil
	}

	var meta Meta
	if err := json.Unmarshal(content, &meta); err != nil {
		return &Meta{}, nil
	}
	return &meta, nil
}

// WriteMetadataRef writes metadata for a branch. An empty record deletes the
// ref instead.
func WriteMetadataRef(branchName string, meta *Meta) error {
	if meta.IsEmpty() {
		return DeleteMetadataRef(branchName)
	}

	jsonData, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	sha, err := RunGitCommandWithInput(string(jsonData), "hash-object", "-w", "--stdin")
	if err != nil {
		return fmt.Errorf("failed to create metadata blob: %w", err)
	}

	if _, err := RunGitCommand("update-ref", metadataRefPrefix+branchName, sha); err != nil {
		return fmt.Errorf("failed to write metadata ref: %w", err)
	}
	return nil
}

// DeleteMetadataRef deletes the metadata ref for a branch.
func DeleteMetadataRef(branchName string) error {
	repo, err := openRepo()
	if err != nil {
		return err
	}
	goGitMu.Lock()
	defer goGitMu.Unlock()
	return repo.Storer.RemoveReference(plumbing.ReferenceName(metadataRefPrefix + branchName))
}

// ListMetadataRefs returns the metadata records of every branch that has one.
func ListMetadataRefs() (map[string]*Meta, error) {
	repo, err := openRepo()
	if err != nil {
		return nil, err
	}

	goGitMu.Lock()
	refs, err := repo.References()
	goGitMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to get references: %w", err)
	}

	var names []string
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().String()
		if strings.HasPrefix(name, metadataRefPrefix) {
			names = append(names, strings.TrimPrefix(name, metadataRefPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := make(map[string]*Meta, len(names))
	for _, name := range names {
		meta, err := ReadMetadataRef(name)
		if err != nil {
			return nil, err
		}
		result[name] = meta
	}
	return result, nil
}

// RefStore is the branch-scoped metadata store adapter used by the stack
// topology. It satisfies stack.Store.
type RefStore struct{}

// NewRefStore returns the ref-backed metadata store.
func NewRefStore() *RefStore {
	return &RefStore{}
}

// Children returns the ordered stack-link children of a branch.
func (s *RefStore) Children(branch string) ([]string, error) {
	meta, err := ReadMetadataRef(branch)
	if err != nil {
		return nil, err
	}
	return meta.Children, nil
}

// SetChildren replaces a branch's ordered child list.
func (s *RefStore) SetChildren(branch string, children []string) error {
	meta, err := ReadMetadataRef(branch)
	if err != nil {
		return err
	}
	meta.Children = children
	return WriteMetadataRef(branch, meta)
}

// Source returns the source link of a task branch, or "".
func (s *RefStore) Source(branch string) (string, error) {
	meta, err := ReadMetadataRef(branch)
	if err != nil {
		return "", err
	}
	return meta.Source, nil
}

// SetSource sets the single-valued source link of a task branch.
func (s *RefStore) SetSource(branch, source string) error {
	meta, err := ReadMetadataRef(branch)
	if err != nil {
		return err
	}
	meta.Source = source
	return WriteMetadataRef(branch, meta)
}

// SourceMeta returns the base and prefix recorded on a source branch.
func (s *RefStore) SourceMeta(branch string) (string, string, error) {
	meta, err := ReadMetadataRef(branch)
	if err != nil {
		return "", "", err
	}
	return meta.Base, meta.Prefix, nil
}

// SetSourceMeta records the base and prefix on a source branch.
func (s *RefStore) SetSourceMeta(branch, base, prefix string) error {
	meta, err := ReadMetadataRef(branch)
	if err != nil {
		return err
	}
	meta.Base = base
	meta.Prefix = prefix
	return WriteMetadataRef(branch, meta)
}

// Branches returns every branch with a metadata record.
func (s *RefStore) Branches() ([]string, error) {
	all, err := ListMetadataRefs()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	return names, nil
}

// Remove deletes all metadata for a branch.
func (s *RefStore) Remove(branch string) error {
	return DeleteMetadataRef(branch)
}
