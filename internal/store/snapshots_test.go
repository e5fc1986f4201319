package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/model"
)

func tempLog(t *testing.T) *SnapshotLog {
	t.Helper()
	l, err := OpenSnapshotLog(filepath.Join(t.TempDir(), "snapshots.json"))
	if err != nil {
		t.Fatalf("open snapshot log: %v", err)
	}
	return l
}

func TestSnapshotLog_ChangePairsBeforeAfter(t *testing.T) {
	l := tempLog(t)

	if _, err := l.Append(1, "housing_before", model.Balance{Cash: 300, Bank: 200}); err != nil {
		t.Fatalf("append: %v", err)
	}
	// An unrelated snapshot in between must not break the pairing.
	if _, err := l.Append(1, "note", model.Balance{Cash: 300, Bank: 200}); err != nil {
		t.Fatalf("append: %v", err)
	}
	snap, err := l.Append(1, "housing_after", model.Balance{Cash: 0, Bank: 0})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if snap.Change != -500 {
		t.Errorf("expected change -500 against housing_before, got %d", snap.Change)
	}
}

func TestSnapshotLog_ChangeFallsBackToPrevious(t *testing.T) {
	l := tempLog(t)

	if _, err := l.Append(1, "a", model.Balance{Cash: 100}); err != nil {
		t.Fatalf("append: %v", err)
	}
	snap, err := l.Append(1, "b", model.Balance{Cash: 250})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if snap.Change != 150 {
		t.Errorf("expected change 150 against previous entry, got %d", snap.Change)
	}
}

func TestSnapshotLog_FirstEntryHasZeroChange(t *testing.T) {
	l := tempLog(t)
	snap, err := l.Append(5, "collect_rent_before", model.Balance{Cash: 900, Bank: 100})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if snap.Change != 0 {
		t.Errorf("expected zero change, got %d", snap.Change)
	}
}

func TestSnapshotLog_LatestAndHasLabelSince(t *testing.T) {
	l := tempLog(t)
	l.Append(2, "trauma_after", model.Balance{Cash: 10})
	l.Append(2, "trauma_after", model.Balance{Cash: 20})

	snap, ok := l.Latest(2, "trauma_after")
	if !ok || snap.Cash != 20 {
		t.Errorf("expected latest trauma_after with cash 20, got %+v ok=%v", snap, ok)
	}
	if !l.HasLabelSince(2, "trauma_after", time.Now().Add(-time.Hour)) {
		t.Error("expected label within the last hour")
	}
	if l.HasLabelSince(2, "trauma_after", time.Now().Add(time.Hour)) {
		t.Error("future window should not match")
	}
	if l.HasLabelSince(3, "trauma_after", time.Now().Add(-time.Hour)) {
		t.Error("unknown member should not match")
	}
}

func TestSnapshotLog_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.json")
	l, err := OpenSnapshotLog(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	l.Append(7, "backup", model.Balance{Cash: 42, Bank: 8})

	reopened, err := OpenSnapshotLog(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	history := reopened.History(7)
	if len(history) != 1 || history[0].Cash != 42 || history[0].Bank != 8 {
		t.Errorf("unexpected history after reopen: %v", history)
	}
}
