// Package selection tracks multi-select state over messages or notes and turns
// it into batch operations.
package selection

import "sync"

// Set is a selection mode flag plus the selected ids. It is safe for
// concurrent use.
type Set struct {
	mu     sync.Mutex
	active bool
	ids    map[string]struct{}
}

// NewSet returns an inactive, empty set.
func NewSet() *Set { return &Set{ids: make(map[string]struct{})} }

// Enter switches selection mode on. It never changes the selected ids.
func (s *Set) Enter() {
	s.mu.Lock()
	s.active = true
	s.mu.Unlock()
}

// Exit switches selection mode off and clears the selection.
func (s *Set) Exit() {
	s.mu.Lock()
	s.active = false
	s.ids = make(map[string]struct{})
	s.mu.Unlock()
}

// Active reports whether selection mode is on.
func (s *Set) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Toggle flips membership of id, entering selection mode if needed.
func (s *Set) Toggle(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = true
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return
	}
	s.ids[id] = struct{}{}
}

// SelectAll adds every visible id.
func (s *Set) SelectAll(visible []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = true
	for _, id := range visible {
		s.ids[id] = struct{}{}
	}
}

// ToggleAll clears the selection if every visible id is already selected,
// otherwise selects them all.
func (s *Set) ToggleAll(visible []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = true
	all := len(visible) > 0
	for _, id := range visible {
		if _, ok := s.ids[id]; !ok {
			all = false
			break
		}
	}
	if all {
		s.ids = make(map[string]struct{})
		return
	}
	for _, id := range visible {
		s.ids[id] = struct{}{}
	}
}

// Clear drops every selected id but stays in selection mode.
func (s *Set) Clear() {
	s.mu.Lock()
	s.ids = make(map[string]struct{})
	s.mu.Unlock()
}

// Has reports whether id is selected.
func (s *Set) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected ids.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// Selected returns the selected ids in the order they appear in order. Ids
// that are selected but absent from order are left out.
func (s *Set) Selected(order []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, id := range order {
		if _, ok := s.ids[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
