package models

import "github.com/shopspring/decimal"

// Account is a bank account or card whose balance is the signed sum of its transactions.
type Account struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Card    string          `json:"card,omitempty"`
	Bank    string          `json:"bank,omitempty"`
	Balance decimal.Decimal `json:"balance"`
}
