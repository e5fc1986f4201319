package economy

// SplitDeduction divides a charge across the two balance pools,
// cash-first. The cash part is clamped to [0, amount] so a negative cash
// balance is never counted as deductible; the remainder always lands on
// the bank pool. Callers must have verified cash+bank >= amount first.
func SplitDeduction(cash, amount int) (cashPart, bankPart int) {
	cashPart = cash
	if cashPart < 0 {
		cashPart = 0
	}
	if cashPart > amount {
		cashPart = amount
	}
	return cashPart, amount - cashPart
}
