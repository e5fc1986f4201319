package recorder

// BillingEvent records one category deduction (or its refusal) for one
// member.
type BillingEvent struct {
	MemberID   int64
	Category   string // "baseline", "housing", "business", "trauma", "cyberware"
	Amount     int
	CashBefore int
	BankBefore int
	CashAfter  int
	BankAfter  int
	Outcome    string // "charged", "insufficient", "skipped", "failed"
	DryRun     bool
	Note       string
}

// CycleRun summarises one whole-community billing run.
type CycleRun struct {
	Members int
	Charged int
	Skipped int
	Failed  int
	DryRun  bool
	Forced  bool
}

// IncomeEvent records a credit to a member: passive income, shop-open
// rewards, attendance.
type IncomeEvent struct {
	MemberID int64
	Source   string // "passive", "open_shop", "attend"
	Amount   int
}

// Recorder persists billing history for analysis.
type Recorder interface {
	RecordBilling(evt *BillingEvent) error
	RecordCycle(run *CycleRun) error
	RecordIncome(evt *IncomeEvent) error
	Close() error
}
