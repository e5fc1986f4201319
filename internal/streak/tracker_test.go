package streak

import (
	"testing"
	"time"

	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/model"
)

var now = time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

func TestAdvance_DropWithoutMaintenanceRole(t *testing.T) {
	m := model.Member{ID: 1, Roles: []string{"Housing Tier 1"}}
	res := Advance(m, model.StreakEntry{Weeks: 3}, 1, now)
	if !res.Dropped {
		t.Error("expected entry to be dropped when no maintenance role remains")
	}
}

func TestAdvance_FreshCheckupResetsWithoutCharge(t *testing.T) {
	m := model.Member{ID: 2, Roles: []string{model.RoleCyberMedium}}
	res := Advance(m, model.StreakEntry{Weeks: 3}, 1, now)
	if !res.GrantCheckup {
		t.Error("expected checkup role grant")
	}
	if res.Entry.Weeks != 0 {
		t.Errorf("expected streak reset to 0, got %d", res.Entry.Weeks)
	}
}

func TestAdvance_KeptCheckupAdvancesByOne(t *testing.T) {
	last := now.AddDate(0, 0, -7)
	m := model.Member{ID: 3, Roles: []string{model.RoleCyberHigh, model.RoleCyberCheckup}}
	res := Advance(m, model.StreakEntry{Weeks: 2, LastProcessed: &last}, 1, now)
	if res.Dropped || res.GrantCheckup {
		t.Fatalf("expected a plain advance, got %+v", res)
	}
	if res.Entry.Weeks != 3 {
		t.Errorf("expected weeks 3, got %d", res.Entry.Weeks)
	}
	if res.Entry.LastProcessed == nil || !res.Entry.LastProcessed.Equal(now) {
		t.Errorf("expected last-processed updated to now, got %v", res.Entry.LastProcessed)
	}
}

func TestAdvance_MissedCyclesCatchUp(t *testing.T) {
	// Missed 3 full cycles: 21 days since last processing.
	last := now.AddDate(0, 0, -21)
	m := model.Member{ID: 4, Roles: []string{model.RoleCyberMedium, model.RoleCyberCheckup}}
	res := Advance(m, model.StreakEntry{Weeks: 1, LastProcessed: &last}, 1, now)
	if res.Entry.Weeks != 4 {
		t.Errorf("expected weeks 1 + max(1, 3) = 4, got %d", res.Entry.Weeks)
	}
}

func TestAdvance_NoLastProcessedUsesCycleIncrement(t *testing.T) {
	m := model.Member{ID: 5, Roles: []string{model.RoleCyberExtreme, model.RoleCyberCheckup}}
	res := Advance(m, model.StreakEntry{Weeks: 1}, 1, now)
	if res.Entry.Weeks != 2 {
		t.Errorf("expected weeks 2, got %d", res.Entry.Weeks)
	}
}
