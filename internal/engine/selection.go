package engine

import "github.com/keilerkonzept/popchart/internal/region"

// Selection is an ordered set of entities, unique by key, in insertion order.
type Selection struct {
	items []region.Entity
}

func NewSelection() *Selection {
	return &Selection{}
}

// Toggle removes e if its key is selected and appends it otherwise. It reports
// whether e is selected afterwards.
func (s *Selection) Toggle(e region.Entity) (added bool) {
	if i := s.index(e.Key); i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
		return false
	}
	s.items = append(s.items, e)
	return true
}

func (s *Selection) Contains(key int) bool { return s.index(key) >= 0 }

func (s *Selection) Len() int { return len(s.items) }

// Snapshot returns a copy of the selected entities in insertion order.
func (s *Selection) Snapshot() []region.Entity {
	out := make([]region.Entity, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Selection) index(key int) int {
	for i, e := range s.items {
		if e.Key == key {
			return i
		}
	}
	return -1
}
