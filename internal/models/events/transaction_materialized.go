package events

import (
	"time"

	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
	"github.com/shopspring/decimal"
)

const (
	TopicTransactionMaterialized = "transaction_materialized"
	TopicTransactionPosted       = "transaction_posted"
)

// TransactionMaterialized is emitted once per occurrence the catch-up engine commits.
type TransactionMaterialized struct {
	TransactionID string           `json:"transaction_id"`
	RuleID        string           `json:"rule_id"`
	AccountID     string           `json:"account_id"`
	Date          models.Date      `json:"date"`
	Direction     models.Direction `json:"type"`
	Amount        decimal.Decimal  `json:"amount"`
	OccurredAt    time.Time        `json:"occurred_at"`
}

// TransactionPosted is emitted for a manually entered transaction.
type TransactionPosted struct {
	TransactionID string           `json:"transaction_id"`
	AccountID     string           `json:"account_id"`
	Date          models.Date      `json:"date"`
	Direction     models.Direction `json:"type"`
	Amount        decimal.Decimal  `json:"amount"`
	OccurredAt    time.Time        `json:"occurred_at"`
}
