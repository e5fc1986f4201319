// Package streak advances per-member cyberware checkup streaks.
package streak

import (
	"time"

	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/model"
)

// Result is the outcome of advancing one member's streak for one weekly
// cycle. Exactly one of Dropped, GrantCheckup, or a weeks advance
// applies; the caller persists Entry (and grants the checkup role) only
// on a committed run.
type Result struct {
	Entry        model.StreakEntry
	Dropped      bool // member no longer holds any maintenance tier
	GrantCheckup bool // checkup completed: reset streak, re-grant the role, no charge
}

// Advance computes the next streak state for a member. A member who kept
// the checkup role advances by max(cycleIncrement, full weeks since the
// last processed cycle), so members missed during downtime catch up
// proportionally instead of resetting.
func Advance(m model.Member, e model.StreakEntry, cycleIncrement int, now time.Time) Result {
	if m.CyberLevel() == model.CyberNone {
		return Result{Dropped: true}
	}

	ts := now.UTC()
	if !m.CheckupPending() {
		return Result{
			Entry:        model.StreakEntry{Weeks: 0, LastProcessed: &ts},
			GrantCheckup: true,
		}
	}

	increment := cycleIncrement
	if e.LastProcessed != nil {
		if missed := int(now.Sub(*e.LastProcessed).Hours() / (24 * 7)); missed > increment {
			increment = missed
		}
	}
	return Result{
		Entry: model.StreakEntry{Weeks: e.Weeks + increment, LastProcessed: &ts},
	}
}
