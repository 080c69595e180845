package models

import "github.com/shopspring/decimal"

// Transaction is a single dated ledger entry on an account.
type Transaction struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"account_id"`
	Date        Date            `json:"date"`
	Description string          `json:"description"`
	Direction   Direction       `json:"type"`
	Amount      decimal.Decimal `json:"amount"` // non-negative; Direction carries the sign
	Recurring   bool            `json:"recurring"`
}

// Effect is the signed balance delta this transaction contributes.
func (t Transaction) Effect() decimal.Decimal {
	return t.Direction.Signed(t.Amount)
}

// RoundAmount rounds an amount to cents.
func RoundAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}
