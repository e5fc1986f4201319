package store

import (
	"strconv"
	"sync"
	"time"
)

// PaymentSummary is the outcome of a member's most recent committed
// billing run, kept so members can ask what they were last charged for.
type PaymentSummary struct {
	Timestamp time.Time `json:"timestamp"`
	Lines     []string  `json:"lines"`
	Charged   int       `json:"charged"`
}

// SummaryStore persists the last payment summary per member.
type SummaryStore struct {
	mu      sync.Mutex
	path    string
	entries map[string]PaymentSummary
}

// OpenSummaryStore loads the summary document, tolerating a missing file.
func OpenSummaryStore(path string) (*SummaryStore, error) {
	s := &SummaryStore{path: path, entries: map[string]PaymentSummary{}}
	if err := LoadJSON(path, &s.entries); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the member's last summary.
func (s *SummaryStore) Get(memberID int64) (PaymentSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[strconv.FormatInt(memberID, 10)]
	return e, ok
}

// Set replaces the member's summary and saves.
func (s *SummaryStore) Set(memberID int64, summary PaymentSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[strconv.FormatInt(memberID, 10)] = summary
	return SaveJSON(s.path, s.entries)
}
