package recorder

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordBilling(_ *BillingEvent) error { return nil }
func (n *NoopRecorder) RecordCycle(_ *CycleRun) error       { return nil }
func (n *NoopRecorder) RecordIncome(_ *IncomeEvent) error   { return nil }
func (n *NoopRecorder) Close() error                        { return nil }
