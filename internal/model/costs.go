package model

// Role names recognised by the billing engine. Tier roles are matched by
// exact name against the cost tables below; the special roles mark member
// state rather than a recurring cost.
const (
	RoleLOA          = "LOA"
	RoleCyberCheckup = "Cyberware Checkup"
	RoleApproved     = "Approved"
	RoleFixer        = "Fixer"
	RoleRipperdoc    = "Ripperdoc"
	RoleCyberMedium  = "Cyberware Medium"
	RoleCyberHigh    = "Cyberware High"
	RoleCyberExtreme = "Cyberware Extreme"
)

// BaselineLivingCost is the flat monthly fee charged to every member not
// on leave.
const BaselineLivingCost = 500

// AttendReward is the flat payout for a logged Sunday attendance.
const AttendReward = 250

// HousingCosts maps housing tier roles to monthly rent.
var HousingCosts = map[string]int{
	"Housing Tier 1": 1000,
	"Housing Tier 2": 2000,
	"Housing Tier 3": 3000,
}

// BusinessCosts maps business tier roles to monthly rent.
var BusinessCosts = map[string]int{
	"Business Tier 0": 0,
	"Business Tier 1": 2000,
	"Business Tier 2": 3000,
	"Business Tier 3": 5000,
}

// TraumaCosts maps Trauma Team subscription roles to the monthly premium.
var TraumaCosts = map[string]int{
	"Trauma Team Silver":  1000,
	"Trauma Team Gold":    2000,
	"Trauma Team Plat":    4000,
	"Trauma Team Diamond": 10000,
}

// CyberLevel is a cyberware maintenance tier.
type CyberLevel string

const (
	CyberNone    CyberLevel = ""
	CyberMedium  CyberLevel = "medium"
	CyberHigh    CyberLevel = "high"
	CyberExtreme CyberLevel = "extreme"
)

// CyberwareCaps holds the maximum weekly medication cost per level. The
// escalation base is cap/128, so the cap is reached at week 8.
var CyberwareCaps = map[CyberLevel]int{
	CyberMedium:  2000,
	CyberHigh:    5000,
	CyberExtreme: 10000,
}

// Tier0IncomeScale maps monthly shop-open counts to passive income for
// Business Tier 0, which pays no rent and earns a flat scale instead.
var Tier0IncomeScale = map[int]int{1: 150, 2: 250, 3: 350, 4: 500}

// OpenPercent maps monthly shop-open counts to the fraction of a
// business role's rent earned back as passive income.
var OpenPercent = map[int]float64{0: 0, 1: 0.25, 2: 0.4, 3: 0.6, 4: 0.8}
