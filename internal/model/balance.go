package model

// Balance is a member's two-pool balance as held by the external ledger.
// The ledger is the single source of truth; this is only ever a fetched copy.
type Balance struct {
	Cash int `json:"cash"`
	Bank int `json:"bank"`
}

// Total returns the combined spendable amount across both pools.
func (b Balance) Total() int {
	return b.Cash + b.Bank
}

// BalanceDelta is a signed adjustment request sent to the ledger.
// Zero fields are omitted from the wire payload.
type BalanceDelta struct {
	Cash int `json:"cash,omitempty"`
	Bank int `json:"bank,omitempty"`
}

// Obligation is a single computed due for one billing cycle. Never persisted.
type Obligation struct {
	Name   string
	Amount int
}
