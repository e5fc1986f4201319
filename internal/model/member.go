package model

import "strings"

// Member is the chat-platform identity the billing engine acts on.
// Roles are plain role names resolved by the platform adapter; the
// member itself is read-only to the core.
type Member struct {
	ID    int64
	Name  string
	Roles []string
}

// HasRole reports whether the member holds the named role.
func (m Member) HasRole(name string) bool {
	for _, r := range m.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// OnLeave reports whether the member is on a leave of absence.
func (m Member) OnLeave() bool { return m.HasRole(RoleLOA) }

// CheckupPending reports whether the member still carries the weekly
// cyberware checkup role.
func (m Member) CheckupPending() bool { return m.HasRole(RoleCyberCheckup) }

// Approved reports whether the member has been approved for billing.
func (m Member) Approved() bool { return m.HasRole(RoleApproved) }

// CyberLevel returns the highest cyberware maintenance level the member
// holds, or CyberNone.
func (m Member) CyberLevel() CyberLevel {
	switch {
	case m.HasRole(RoleCyberExtreme):
		return CyberExtreme
	case m.HasRole(RoleCyberHigh):
		return CyberHigh
	case m.HasRole(RoleCyberMedium):
		return CyberMedium
	}
	return CyberNone
}

// HousingRoles returns the member's housing tier roles.
func (m Member) HousingRoles() []string {
	return m.rolesContaining("Housing Tier")
}

// BusinessRoles returns the member's business tier roles.
func (m Member) BusinessRoles() []string {
	return m.rolesContaining("Business Tier")
}

// TraumaRole returns the member's medical subscription role, if any.
func (m Member) TraumaRole() (string, bool) {
	for _, r := range m.Roles {
		if _, ok := TraumaCosts[r]; ok {
			return r, true
		}
	}
	return "", false
}

// HasTieredRole reports whether the member holds any tier role at all,
// which is what qualifies them for a community-wide billing run.
func (m Member) HasTieredRole() bool {
	for _, r := range m.Roles {
		if strings.Contains(r, "Tier") {
			return true
		}
	}
	return m.CyberLevel() != CyberNone
}

func (m Member) rolesContaining(sub string) []string {
	var out []string
	for _, r := range m.Roles {
		if strings.Contains(r, sub) {
			out = append(out, r)
		}
	}
	return out
}
