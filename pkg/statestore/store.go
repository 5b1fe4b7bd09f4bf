// Package statestore implements the nested, path-addressed state map shared by
// every widget of a manager.
//
// The backing map is owned by the caller; the store mutates it in place and
// only swaps it out wholesale through Replace.
package statestore

import (
	"github.com/goliatone/go-megawidgets/pkg/errs"
)

// Store wraps a caller-owned nested map.
type Store struct {
	root map[string]any
}

// New wraps root. A nil root is replaced by an empty map.
func New(root map[string]any) *Store {
	if root == nil {
		root = map[string]any{}
	}
	return &Store{root: root}
}

// Root returns the live backing map.
func (s *Store) Root() map[string]any {
	return s.root
}

// Replace swaps the backing map.
func (s *Store) Replace(root map[string]any) {
	if root == nil {
		root = map[string]any{}
	}
	s.root = root
}

// Get resolves path. Missing keys report ok=false; traversing through a value
// that is not a nested map is a StateError.
func (s *Store) Get(path Path) (value any, ok bool, err error) {
	if len(path) == 0 {
		return nil, false, errs.State("", nil, "empty state path")
	}
	current := s.root
	for i, key := range path.Parent() {
		next, exists := current[key]
		if !exists {
			return nil, false, nil
		}
		nested, isMap := asNested(next)
		if !isMap {
			return nil, false, errs.State(path.String(), next, "segment %q at position %d does not hold a nested structure", key, i)
		}
		current = nested
	}
	value, ok = current[path.Leaf()]
	return value, ok, nil
}

// Set writes value at path, creating intermediate maps on demand. Writing
// through a prefix that holds a non-map value is a StateError.
func (s *Store) Set(path Path, value any) error {
	if len(path) == 0 {
		return errs.State("", value, "empty state path")
	}
	current := s.root
	for i, key := range path.Parent() {
		next, exists := current[key]
		if !exists || next == nil {
			created := map[string]any{}
			current[key] = created
			current = created
			continue
		}
		nested, isMap := asNested(next)
		if !isMap {
			return errs.State(path.String(), value, "segment %q at position %d holds a non-structured value", key, i)
		}
		current = nested
	}
	current[path.Leaf()] = value
	return nil
}

// Delete removes the value at path. Missing paths are ignored.
func (s *Store) Delete(path Path) error {
	if len(path) == 0 {
		return errs.State("", nil, "empty state path")
	}
	current := s.root
	for i, key := range path.Parent() {
		next, exists := current[key]
		if !exists {
			return nil
		}
		nested, isMap := asNested(next)
		if !isMap {
			return errs.State(path.String(), next, "segment %q at position %d does not hold a nested structure", key, i)
		}
		current = nested
	}
	delete(current, path.Leaf())
	return nil
}

// Snapshot returns a deep copy of the backing map.
func (s *Store) Snapshot() map[string]any {
	return Clone(s.root)
}

func asNested(value any) (map[string]any, bool) {
	nested, ok := value.(map[string]any)
	return nested, ok
}
