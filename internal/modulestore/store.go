// Package modulestore loads course trees from disk into an in-memory
// descriptor store and serializes them back out. Import drives the XML
// parsing system: every element is resolved to its content type through the
// plugin registry, stored by location, and the metadata inheritance pass is
// run top-down from the course root.
package modulestore

import (
	"fmt"
	"sort"
	"sync"

	"github.com/coursegrid/coursegrid/internal/course"
)

// Store indexes descriptors by location. It is the backing for the
// descriptor system's LoadItem.
type Store struct {
	mu    sync.RWMutex
	items map[course.Location]course.Descriptor
	roots []course.Location
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{items: make(map[course.Location]course.Descriptor)}
}

// Put stores a descriptor under its location, replacing any previous one.
func (s *Store) Put(d course.Descriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loc := d.Location()
	if loc.Category == "course" {
		known := false
		for _, root := range s.roots {
			if root == loc {
				known = true
				break
			}
		}
		if !known {
			s.roots = append(s.roots, loc)
		}
	}
	s.items[loc] = d
}

// Get retrieves the descriptor stored under a location.
func (s *Store) Get(loc course.Location) (course.Descriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.items[loc]
	if !ok {
		return nil, fmt.Errorf("no item stored at %s", loc)
	}
	return d, nil
}

// LoadItem is the store's course.LoadItemFunc.
func (s *Store) LoadItem(loc course.Location) (course.Descriptor, error) {
	return s.Get(loc)
}

// Courses returns the locations of all course roots in the store.
func (s *Store) Courses() []course.Location {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]course.Location, len(s.roots))
	copy(out, s.roots)
	return out
}

// Locations returns every stored location, sorted by URL.
func (s *Store) Locations() []course.Location {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]course.Location, 0, len(s.items))
	for loc := range s.items {
		out = append(out, loc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL() < out[j].URL() })
	return out
}

// Count returns the number of stored descriptors.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.items)
}

// Clear drops all stored descriptors.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[course.Location]course.Descriptor)
	s.roots = nil
}

// Replace swaps in the contents of staged. A re-import runs against a fresh
// store and is published here in one step, so readers never observe a
// half-imported course and a failed import leaves the previous one serving.
func (s *Store) Replace(staged *Store) {
	staged.mu.RLock()
	items := staged.items
	roots := staged.roots
	staged.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = items
	s.roots = roots
}
