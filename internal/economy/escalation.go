package economy

import "github.com/CynthiaArdman-Appomni/NightCityBot/internal/model"

// EscalationCost returns the weekly cyberware medication cost for a
// maintenance level after the given streak length. The cost starts at
// cap/128 on week 1, doubles each week, and saturates at the level's cap
// on week 8. Callers guarantee weeks >= 1.
func EscalationCost(level model.CyberLevel, weeks int) int {
	cap := model.CyberwareCaps[level]
	if weeks > 8 {
		return cap
	}
	// Shift before dividing: taking cap/128 first truncates the base
	// and week 8 would undershoot the cap.
	return cap << uint(weeks-1) / 128
}
