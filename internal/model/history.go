package model

import "time"

// StreakEntry tracks how many consecutive weekly cycles a member has kept
// the cyberware checkup role. LastProcessed is nil until the first
// committed advance.
type StreakEntry struct {
	Weeks         int        `json:"weeks"`
	LastProcessed *time.Time `json:"last_processed,omitempty"`
}

// LedgerSnapshot is one labeled entry in a member's append-only balance
// history. Change for a "<label>_after" entry is computed against the
// matching "<label>_before" entry, not simply the previous snapshot.
type LedgerSnapshot struct {
	Timestamp time.Time `json:"timestamp"`
	Label     string    `json:"label"`
	Cash      int       `json:"cash"`
	Bank      int       `json:"bank"`
	Change    int       `json:"change"`
}

// Total returns the combined balance captured by the snapshot.
func (s LedgerSnapshot) Total() int { return s.Cash + s.Bank }

// CycleState holds the community-wide billing cooldown timestamp.
type CycleState struct {
	LastRun time.Time `json:"last_run"`
}
