package batch

import (
	"fmt"
)

// MinAmount and MaxAmount bound user-supplied Robux prices. Amounts are
// rejected before any network call is made.
const (
	MinAmount int64 = 1
	MaxAmount int64 = 1_000_000
)

// CommonAmounts is the curated preset of frequently used Robux prices.
var CommonAmounts = []int64{2, 5, 10, 15, 25, 50, 75, 100, 150, 200, 250, 350, 500, 750, 1000, 2500, 3500, 5000, 7500, 10000}

// ValidateAmount checks a custom Robux price against the allowed range.
func ValidateAmount(amount int64) error {
	if amount < MinAmount || amount > MaxAmount {
		return fmt.Errorf("amount must be between %d and %d Robux (got %d)", MinAmount, MaxAmount, amount)
	}
	return nil
}

// OperationResult records the outcome of one processed item, in input order.
// For created passes the label is the stringified price; for removals it is
// the pass name (which the create workflow sets to the price anyway).
type OperationResult struct {
	Label      string
	GamePassID int64
	Price      int64
	Success    bool
	Error      string
}

// BatchReport is the terminal result of a create workflow run.
type BatchReport struct {
	Results      []OperationResult
	SuccessCount int
	HitLimit     bool
}

// Summary renders the user-facing one-line outcome. A limit hit produces a
// distinguishable message from ordinary partial failure.
func (r *BatchReport) Summary() string {
	if r.HitLimit {
		return fmt.Sprintf("Created %d gamepasses before hitting the limit", r.SuccessCount)
	}
	return fmt.Sprintf("Successfully created %d out of %d gamepasses", r.SuccessCount, len(r.Results))
}

// RemovalReport is the terminal result of a remove-all workflow run.
// SkippedCount counts passes that were already off-sale and never touched.
type RemovalReport struct {
	Results      []OperationResult
	SuccessCount int
	SkippedCount int
}

// Summary renders the user-facing one-line outcome.
func (r *RemovalReport) Summary() string {
	s := fmt.Sprintf("Successfully removed %d out of %d gamepasses", r.SuccessCount, len(r.Results))
	if r.SkippedCount > 0 {
		s += fmt.Sprintf(" (%d already off-sale)", r.SkippedCount)
	}
	return s
}
