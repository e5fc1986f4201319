package store

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/model"
)

// SnapshotLog is the append-only, per-member, labeled balance history.
// It serves as both the restore source and the idempotency oracle for
// billing actions; entries are never deleted.
type SnapshotLog struct {
	mu      sync.Mutex
	path    string
	entries map[string][]model.LedgerSnapshot
}

// OpenSnapshotLog loads the snapshot history from disk.
func OpenSnapshotLog(path string) (*SnapshotLog, error) {
	l := &SnapshotLog{path: path, entries: map[string][]model.LedgerSnapshot{}}
	if err := LoadJSON(path, &l.entries); err != nil {
		return nil, err
	}
	return l, nil
}

// Append records a labeled snapshot of a member's balance. The change of
// a "<x>_after" entry is computed against the most recent "<x>_before"
// entry; any other entry's change is relative to the previous snapshot.
func (l *SnapshotLog) Append(memberID int64, label string, bal model.Balance) (model.LedgerSnapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := strconv.FormatInt(memberID, 10)
	history := l.entries[key]

	snap := model.LedgerSnapshot{
		Timestamp: time.Now().UTC(),
		Label:     label,
		Cash:      bal.Cash,
		Bank:      bal.Bank,
	}
	if base, ok := pairedBase(history, label); ok {
		snap.Change = snap.Total() - base.Total()
	} else if len(history) > 0 {
		snap.Change = snap.Total() - history[len(history)-1].Total()
	}

	l.entries[key] = append(history, snap)
	return snap, SaveJSON(l.path, l.entries)
}

// pairedBase finds the most recent "<x>_before" entry for a "<x>_after"
// label.
func pairedBase(history []model.LedgerSnapshot, label string) (model.LedgerSnapshot, bool) {
	prefix, found := strings.CutSuffix(label, "_after")
	if !found {
		return model.LedgerSnapshot{}, false
	}
	want := prefix + "_before"
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Label == want {
			return history[i], true
		}
	}
	return model.LedgerSnapshot{}, false
}

// Latest returns the most recent snapshot carrying the given label.
func (l *SnapshotLog) Latest(memberID int64, label string) (model.LedgerSnapshot, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.entries[strconv.FormatInt(memberID, 10)]
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Label == label {
			return history[i], true
		}
	}
	return model.LedgerSnapshot{}, false
}

// HasLabelSince reports whether a snapshot with the label was recorded
// at or after the given time. Billing uses it to refuse duplicate
// charges inside the cooldown window.
func (l *SnapshotLog) HasLabelSince(memberID int64, label string, since time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.entries[strconv.FormatInt(memberID, 10)]
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Label == label && !history[i].Timestamp.Before(since) {
			return true
		}
	}
	return false
}

// History returns a copy of a member's full snapshot history.
func (l *SnapshotLog) History(memberID int64) []model.LedgerSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.entries[strconv.FormatInt(memberID, 10)]
	out := make([]model.LedgerSnapshot, len(history))
	copy(out, history)
	return out
}
