package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/model"
)

func TestToggles_DefaultsAndSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "systems.json")
	tg, err := OpenToggles(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for _, name := range Systems {
		if !tg.Enabled(name) {
			t.Errorf("system %s should default to enabled", name)
		}
	}

	ok, err := tg.Set("housing_rent", false)
	if err != nil || !ok {
		t.Fatalf("set: ok=%v err=%v", ok, err)
	}
	if tg.Enabled("housing_rent") {
		t.Error("housing_rent should be disabled")
	}

	ok, _ = tg.Set("not_a_system", true)
	if ok {
		t.Error("unknown system should not be settable")
	}

	// Disabled state survives a reopen.
	reopened, err := OpenToggles(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Enabled("housing_rent") {
		t.Error("disabled state lost across reopen")
	}
}

func TestStreakStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "streaks.json")
	s, err := OpenStreakStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if _, ok := s.Get(1); ok {
		t.Error("fresh store should have no entries")
	}
	last := time.Now().UTC().Truncate(time.Second)
	if err := s.Set(1, model.StreakEntry{Weeks: 3, LastProcessed: &last}); err != nil {
		t.Fatalf("set: %v", err)
	}

	reopened, err := OpenStreakStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	e, ok := reopened.Get(1)
	if !ok || e.Weeks != 3 || e.LastProcessed == nil || !e.LastProcessed.Equal(last) {
		t.Errorf("unexpected entry after reopen: %+v ok=%v", e, ok)
	}

	if err := reopened.Remove(1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok := reopened.Get(1); ok {
		t.Error("entry should be gone after Remove")
	}
}

func TestCycleStore_MarkRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cycle.json")
	c, err := OpenCycleStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !c.LastRun().IsZero() {
		t.Error("fresh store should have zero last-run")
	}
	ts := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	if err := c.MarkRun(ts); err != nil {
		t.Fatalf("mark: %v", err)
	}
	reopened, err := OpenCycleStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !reopened.LastRun().Equal(ts) {
		t.Errorf("expected %v, got %v", ts, reopened.LastRun())
	}
}
