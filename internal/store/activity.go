package store

import (
	"strconv"
	"sync"
	"time"
)

// ActivityLog records timestamped events per member: shop openings and
// attendance. A user can fire the same command twice in quick
// succession, so every read-modify-write of the document happens under
// the log's own mutex.
type ActivityLog struct {
	mu      sync.Mutex
	path    string
	entries map[string][]time.Time
}

// OpenActivityLog loads an activity log from disk.
func OpenActivityLog(path string) (*ActivityLog, error) {
	l := &ActivityLog{path: path, entries: map[string][]time.Time{}}
	if err := LoadJSON(path, &l.entries); err != nil {
		return nil, err
	}
	return l, nil
}

// Record appends an event for the member if allow approves it, all under
// the log's lock. allow sees the member's existing timestamps and
// returns an error to veto the append; that error is returned verbatim.
func (l *ActivityLog) Record(memberID int64, at time.Time, allow func(existing []time.Time) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := strconv.FormatInt(memberID, 10)
	existing := l.entries[key]
	if allow != nil {
		if err := allow(existing); err != nil {
			return err
		}
	}
	l.entries[key] = append(existing, at.UTC())
	return SaveJSON(l.path, l.entries)
}

// CountInMonth returns how many events the member logged in the same
// calendar month as t.
func (l *ActivityLog) CountInMonth(memberID int64, t time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, ts := range l.entries[strconv.FormatInt(memberID, 10)] {
		if ts.Year() == t.Year() && ts.Month() == t.Month() {
			n++
		}
	}
	return n
}

// OpenCount returns the month's shop-open count capped at the payout
// ceiling used by the passive income scale.
func (l *ActivityLog) OpenCount(memberID int64, t time.Time) int {
	n := l.CountInMonth(memberID, t)
	if n > 4 {
		n = 4
	}
	return n
}

// Rotate archives the current document to archivePath and resets the log
// to empty, used when a committed community cycle closes the month.
func (l *ActivityLog) Rotate(archivePath string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := SaveJSON(archivePath, l.entries); err != nil {
		return err
	}
	l.entries = map[string][]time.Time{}
	return SaveJSON(l.path, l.entries)
}

// Snapshot returns a copy of the whole document keyed by member ID.
func (l *ActivityLog) Snapshot() map[int64][]time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[int64][]time.Time, len(l.entries))
	for k, v := range l.entries {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		ts := make([]time.Time, len(v))
		copy(ts, v)
		out[id] = ts
	}
	return out
}
