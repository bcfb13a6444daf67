package ledger

import (
	"sync"

	"github.com/pixil98/go-waystones/internal/storage"
)

// Set is a set of identifiers that is safe for concurrent use. Iteration always
// happens over a snapshot, so callers may mutate the set while walking it.
// The zero value is an empty set ready to use.
type Set struct {
	mu    sync.RWMutex
	items map[storage.Identifier]struct{}
}

func NewSet(ids ...storage.Identifier) *Set {
	s := &Set{}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id and reports whether it was not already present.
func (s *Set) Add(id storage.Identifier) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.items == nil {
		s.items = map[storage.Identifier]struct{}{}
	}
	if _, ok := s.items[id]; ok {
		return false
	}
	s.items[id] = struct{}{}
	return true
}

// Remove deletes id and reports whether it was present.
func (s *Set) Remove(id storage.Identifier) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return false
	}
	delete(s.items, id)
	return true
}

func (s *Set) Contains(id storage.Identifier) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.items[id]
	return ok
}

func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.items)
}

// Snapshot returns the current members in no particular order.
func (s *Set) Snapshot() []storage.Identifier {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]storage.Identifier, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	return ids
}

// Sorted returns the current members ordered by identifier.
func (s *Set) Sorted() []storage.Identifier {
	return storage.SortIdentifiers(s.Snapshot())
}

func (s *Set) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = map[storage.Identifier]struct{}{}
}

// Replace atomically swaps the contents of the set for ids.
func (s *Set) Replace(ids []storage.Identifier) {
	items := make(map[storage.Identifier]struct{}, len(ids))
	for _, id := range ids {
		items[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
}
