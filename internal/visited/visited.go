// Package visited tracks already-seen 128-bit ids during graph traversal
// and HNSW search, with cheap bulk reset between layers.
package visited

import "github.com/Mu-L/helix-db-sub003/model"

// Set is a seen-set over ids. Not safe for concurrent use.
type Set struct {
	m map[model.ID]struct{}
}

// New creates a set sized for the expected number of ids.
func New(capacity int) *Set {
	return &Set{m: make(map[model.ID]struct{}, capacity)}
}

// Visit marks an id as seen. Returns true if it was not seen before.
func (s *Set) Visit(id model.ID) bool {
	if _, ok := s.m[id]; ok {
		return false
	}
	s.m[id] = struct{}{}
	return true
}

// Visited reports whether the id has been seen.
func (s *Set) Visited(id model.ID) bool {
	_, ok := s.m[id]
	return ok
}

// Len returns the number of seen ids.
func (s *Set) Len() int { return len(s.m) }

// Reset clears the set for reuse.
func (s *Set) Reset() {
	clear(s.m)
}
