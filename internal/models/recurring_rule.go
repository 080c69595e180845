package models

import "github.com/shopspring/decimal"

// RecurringRule describes a transaction that repeats every Interval from StartDate.
type RecurringRule struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"account_id"`
	StartDate   Date            `json:"start_date"`
	Description string          `json:"description"`
	Direction   Direction       `json:"type"`
	Interval    Interval        `json:"interval"`
	Amount      decimal.Decimal `json:"amount"`

	// LastMaterialized is the date of the latest occurrence turned into a Transaction.
	// Zero until the first one.
	LastMaterialized Date `json:"last_materialized_date"`
}

// HasProgress reports whether at least one occurrence has been materialized.
func (r RecurringRule) HasProgress() bool {
	return !r.LastMaterialized.IsZero()
}
