package stack

import "slices"

// MemStore is an in-memory Store for tests and dry runs.
type MemStore struct {
	children map[string][]string
	sources  map[string]string
	meta     map[string]memMeta
}

type memMeta struct {
	base   string
	prefix string
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		children: make(map[string][]string),
		sources:  make(map[string]string),
		meta:     make(map[string]memMeta),
	}
}

// Children implements Store.
func (s *MemStore) Children(branch string) ([]string, error) {
	return slices.Clone(s.children[branch]), nil
}

// SetChildren implements Store.
func (s *MemStore) SetChildren(branch string, children []string) error {
	if len(children) == 0 {
		delete(s.children, branch)
		return nil
	}
	s.children[branch] = slices.Clone(children)
	return nil
}

// Source implements Store.
func (s *MemStore) Source(branch string) (string, error) {
	return s.sources[branch], nil
}

// SetSource implements Store.
func (s *MemStore) SetSource(branch, source string) error {
	if source == "" {
		delete(s.sources, branch)
		return nil
	}
	s.sources[branch] = source
	return nil
}

// SourceMeta implements Store.
func (s *MemStore) SourceMeta(branch string) (string, string, error) {
	m := s.meta[branch]
	return m.base, m.prefix, nil
}

// SetSourceMeta implements Store.
func (s *MemStore) SetSourceMeta(branch, base, prefix string) error {
	s.meta[branch] = memMeta{base: base, prefix: prefix}
	return nil
}

// Branches implements Store.
func (s *MemStore) Branches() ([]string, error) {
	seen := make(map[string]bool)
	var names []string
	for b := range s.children {
		if !seen[b] {
			seen[b] = true
			names = append(names, b)
		}
	}
	for b := range s.sources {
		if !seen[b] {
			seen[b] = true
			names = append(names, b)
		}
	}
	for b := range s.meta {
		if !seen[b] {
			seen[b] = true
			names = append(names, b)
		}
	}
	slices.Sort(names)
	return names, nil
}

// Remove implements Store.
func (s *MemStore) Remove(branch string) error {
	delete(s.children, branch)
	delete(s.sources, branch)
	delete(s.meta, branch)
	return nil
}
