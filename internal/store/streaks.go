package store

import (
	"strconv"
	"sync"

	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/model"
)

// StreakStore persists per-member cyberware streak entries.
type StreakStore struct {
	mu      sync.Mutex
	path    string
	entries map[string]model.StreakEntry
}

// OpenStreakStore loads the streak map from disk.
func OpenStreakStore(path string) (*StreakStore, error) {
	s := &StreakStore{path: path, entries: map[string]model.StreakEntry{}}
	if err := LoadJSON(path, &s.entries); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns a member's streak entry, if one exists.
func (s *StreakStore) Get(memberID int64) (model.StreakEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[strconv.FormatInt(memberID, 10)]
	return e, ok
}

// Set stores a member's streak entry and flushes to disk.
func (s *StreakStore) Set(memberID int64, e model.StreakEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[strconv.FormatInt(memberID, 10)] = e
	return SaveJSON(s.path, s.entries)
}

// Remove drops a member's streak entry, used when the member loses all
// maintenance tier roles.
func (s *StreakStore) Remove(memberID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strconv.FormatInt(memberID, 10)
	if _, ok := s.entries[key]; !ok {
		return nil
	}
	delete(s.entries, key)
	return SaveJSON(s.path, s.entries)
}
