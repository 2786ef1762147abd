// Package sellerset holds the set of filtered seller usernames.
package sellerset

import "sync"

// Set is the in-memory filtered username set. Usernames are compared
// case-sensitively, exactly as the marketplace renders them. The popup
// always replaces the whole list, so there is no merge operation.
type Set struct {
	usernames map[string]struct{}
	mu        sync.RWMutex
}

// New creates an empty set.
func New() *Set {
	return &Set{usernames: make(map[string]struct{})}
}

// Contains checks if a seller is filtered.
func (s *Set) Contains(username string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.usernames[username]
	return exists
}

// Replace swaps the whole set for the given usernames. Duplicates collapse.
func (s *Set) Replace(usernames []string) {
	next := make(map[string]struct{}, len(usernames))
	for _, u := range usernames {
		next[u] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.usernames = next
}

// Size returns the number of filtered sellers.
func (s *Set) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.usernames)
}

// Usernames returns the filtered sellers in no particular order.
func (s *Set) Usernames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]string, 0, len(s.usernames))
	for u := range s.usernames {
		result = append(result, u)
	}
	return result
}
