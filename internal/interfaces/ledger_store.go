package interfaces

import (
	"context"

	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// LedgerOps are the row-level primitives over accounts, transactions and recurring rules.
// Create methods assign and return the new id; the ID field of the argument is ignored.
// List methods with no account ids return every row.
type LedgerOps interface {
	CreateAccount(ctx context.Context, account models.Account) (string, error)
	GetAccounts(ctx context.Context) ([]models.Account, error)
	GetAccount(ctx context.Context, id string) (models.Account, error)
	UpdateAccount(ctx context.Context, account models.Account) error
	DeleteAccount(ctx context.Context, id string) error

	CreateTransaction(ctx context.Context, tx models.Transaction) (string, error)
	GetTransaction(ctx context.Context, id string) (models.Transaction, error)
	GetTransactions(ctx context.Context, accountIDs ...string) ([]models.Transaction, error)
	UpdateTransaction(ctx context.Context, tx models.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error

	CreateRecurringRule(ctx context.Context, rule models.RecurringRule) (string, error)
	GetRecurringRule(ctx context.Context, id string) (models.RecurringRule, error)
	GetRecurringRules(ctx context.Context, accountIDs ...string) ([]models.RecurringRule, error)
	UpdateRecurringRule(ctx context.Context, rule models.RecurringRule) error
	UpdateProgressMarker(ctx context.Context, ruleID string, date models.Date) error
	DeleteRecurringRule(ctx context.Context, id string) error

	// UpdateBalance adds delta to the account's stored balance.
	UpdateBalance(ctx context.Context, accountID string, delta decimal.Decimal) error
}

// LedgerStore is a LedgerOps with unit-of-work support.
type LedgerStore interface {
	LedgerOps

	// Atomic runs fn against a view of the store whose writes become visible
	// together when fn returns nil, and are discarded otherwise.
	Atomic(ctx context.Context, fn func(ops LedgerOps) error) error

	Close() error
}
