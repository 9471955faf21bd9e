// Package selection provides the toggle-based index set used at the
// primary and secondary selection steps of a generation session.
package selection

import "sort"

// Set is a set of chosen result indices with toggle semantics. It is not
// safe for concurrent use; the session controller serializes access.
type Set struct {
	members map[int]struct{}
}

// New creates a Set containing the given indices.
func New(indices ...int) *Set {
	s := &Set{members: make(map[int]struct{}, len(indices))}
	for _, i := range indices {
		s.members[i] = struct{}{}
	}
	return s
}

// Toggle adds index if absent and removes it if present. Toggling twice
// restores the set to its prior value.
func (s *Set) Toggle(index int) {
	if _, ok := s.members[index]; ok {
		delete(s.members, index)
		return
	}
	s.members[index] = struct{}{}
}

// Contains reports whether index is currently selected. Unknown indices
// simply report false.
func (s *Set) Contains(index int) bool {
	_, ok := s.members[index]
	return ok
}

// Clear empties the set.
func (s *Set) Clear() {
	s.members = make(map[int]struct{})
}

// Len returns the number of selected indices.
func (s *Set) Len() int {
	return len(s.members)
}

// Values returns the selected indices in ascending order. The returned
// slice is a copy.
func (s *Set) Values() []int {
	out := make([]int, 0, len(s.members))
	for i := range s.members {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Clone returns an independent copy of the set.
func (s *Set) Clone() *Set {
	return New(s.Values()...)
}
