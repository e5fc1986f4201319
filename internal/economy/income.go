package economy

import (
	"math"

	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/model"
)

// PassiveIncome returns the monthly passive income a business role earns
// from the given number of logged shop openings (capped at 4 by the
// caller). Business Tier 0 pays no rent and earns a flat scale; the
// other tiers earn back a fraction of their rent.
func PassiveIncome(role string, openCount int) int {
	if role == "Business Tier 0" {
		return model.Tier0IncomeScale[openCount]
	}
	base, ok := model.BusinessCosts[role]
	if !ok {
		base = 500
	}
	return int(math.Round(float64(base) * model.OpenPercent[openCount]))
}

// OpenReward returns the incremental payout for logging one more shop
// opening this month, given the member's business roles.
func OpenReward(roles []string, opensBefore int) int {
	after := opensBefore + 1
	if after > 4 {
		after = 4
	}
	before := opensBefore
	if before > 4 {
		before = 4
	}
	reward := 0
	for _, role := range roles {
		reward += PassiveIncome(role, after) - PassiveIncome(role, before)
	}
	return reward
}
