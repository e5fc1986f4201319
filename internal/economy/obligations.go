package economy

import (
	"fmt"

	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/model"
)

// DueList derives every recurring obligation for a member from its role
// set and cyberware streak. It performs no I/O and is shared verbatim by
// the due preview and the real collection cycle, so a preview and the
// following collection always agree on the amounts.
func DueList(m model.Member, streak model.StreakEntry) []model.Obligation {
	var dues []model.Obligation
	onLeave := m.OnLeave()

	if !onLeave {
		dues = append(dues, model.Obligation{Name: "Baseline living cost", Amount: model.BaselineLivingCost})
		for _, role := range m.HousingRoles() {
			dues = append(dues, model.Obligation{Name: role, Amount: model.HousingCosts[role]})
		}
	}

	// Business rent applies even on leave.
	for _, role := range m.BusinessRoles() {
		dues = append(dues, model.Obligation{Name: role, Amount: model.BusinessCosts[role]})
	}

	if !onLeave {
		if role, ok := m.TraumaRole(); ok {
			dues = append(dues, model.Obligation{Name: role, Amount: model.TraumaCosts[role]})
		}
		if level := m.CyberLevel(); level != model.CyberNone {
			if m.CheckupPending() {
				week := streak.Weeks + 1
				dues = append(dues, model.Obligation{
					Name:   fmt.Sprintf("Cyberware meds week %d", week),
					Amount: EscalationCost(level, week),
				})
			} else {
				// A fresh checkup resets the streak instead of billing.
				dues = append(dues, model.Obligation{Name: "Cyberware checkup due", Amount: 0})
			}
		}
	}

	return dues
}

// DueTotal sums a member's obligations.
func DueTotal(dues []model.Obligation) int {
	total := 0
	for _, d := range dues {
		total += d.Amount
	}
	return total
}
