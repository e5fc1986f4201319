package ledger

import "errors"

var (
	// ErrUnavailable means the ledger could not be reached or kept
	// failing after the retry budget was spent.
	ErrUnavailable = errors.New("ledger unavailable")

	// ErrRejected means the ledger refused a balance update outright.
	// Seen after a sufficiency check passed, it implies the external
	// state drifted between read and write.
	ErrRejected = errors.New("ledger rejected update")
)
