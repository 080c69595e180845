package ledger

import (
	"context"
	"time"

	interfaces "github.com/sheikh-saqib/personal-finance-ledger/internal/interfaces"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/models/events"
	"github.com/shopspring/decimal"
)

// TransactionPatch lists the editable fields of a transaction. Nil fields are left as they are.
type TransactionPatch struct {
	Description *string
	Direction   *models.Direction
	Amount      *decimal.Decimal
}

func validateAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return models.RoundAmount(amount), nil
}

func validateDirection(dir models.Direction) error {
	if !dir.Valid() {
		return &models.InvalidDirectionError{Tag: dir.String()}
	}
	return nil
}

// PostTransaction records a one-off transaction and applies its balance effect in the same
// store unit. It returns the transaction with its store-assigned id.
func (l *Ledger) PostTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	if tx.Date.IsZero() {
		return models.Transaction{}, ErrMissingDate
	}
	if err := validateDirection(tx.Direction); err != nil {
		return models.Transaction{}, err
	}
	amount, err := validateAmount(tx.Amount)
	if err != nil {
		return models.Transaction{}, err
	}
	tx.Amount = amount
	tx.ID = ""

	err = l.withAccount(ctx, tx.AccountID, func() error {
		return l.store.Atomic(ctx, func(ops interfaces.LedgerOps) error {
			id, err := ops.CreateTransaction(ctx, tx)
			if err != nil {
				return err
			}
			tx.ID = id
			return ApplyBalance(ctx, ops, tx.AccountID, tx.Amount, tx.Direction)
		})
	})
	if err != nil {
		return models.Transaction{}, err
	}

	l.publish(ctx, events.TopicTransactionPosted, tx.AccountID, events.TransactionPosted{
		TransactionID: tx.ID,
		AccountID:     tx.AccountID,
		Date:          tx.Date,
		Direction:     tx.Direction,
		Amount:        tx.Amount,
		OccurredAt:    time.Now().UTC(),
	})
	return tx, nil
}

// EditTransaction changes the description, direction or amount of a transaction.
// A direction or amount change reverses the old balance effect and applies the new one.
func (l *Ledger) EditTransaction(ctx context.Context, id string, patch TransactionPatch) (models.Transaction, error) {
	if patch.Direction != nil {
		if err := validateDirection(*patch.Direction); err != nil {
			return models.Transaction{}, err
		}
	}
	if patch.Amount != nil {
		amount, err := validateAmount(*patch.Amount)
		if err != nil {
			return models.Transaction{}, err
		}
		patch.Amount = &amount
	}

	current, err := l.store.GetTransaction(ctx, id)
	if err != nil {
		return models.Transaction{}, err
	}

	var updated models.Transaction
	err = l.withAccount(ctx, current.AccountID, func() error {
		return l.store.Atomic(ctx, func(ops interfaces.LedgerOps) error {
			old, err := ops.GetTransaction(ctx, id)
			if err != nil {
				return err
			}
			updated = old
			if patch.Description != nil {
				updated.Description = *patch.Description
			}
			if patch.Direction != nil {
				updated.Direction = *patch.Direction
			}
			if patch.Amount != nil {
				updated.Amount = *patch.Amount
			}

			if err := ops.UpdateTransaction(ctx, updated); err != nil {
				return err
			}
			if updated.Effect().Equal(old.Effect()) {
				return nil
			}
			if err := ApplyBalance(ctx, ops, old.AccountID, old.Amount, old.Direction.Opposite()); err != nil {
				return err
			}
			return ApplyBalance(ctx, ops, updated.AccountID, updated.Amount, updated.Direction)
		})
	})
	if err != nil {
		return models.Transaction{}, err
	}
	return updated, nil
}

// DeleteTransaction removes a transaction and reverses its balance effect exactly once.
func (l *Ledger) DeleteTransaction(ctx context.Context, id string) error {
	current, err := l.store.GetTransaction(ctx, id)
	if err != nil {
		return err
	}

	return l.withAccount(ctx, current.AccountID, func() error {
		return l.store.Atomic(ctx, func(ops interfaces.LedgerOps) error {
			tx, err := ops.GetTransaction(ctx, id)
			if err != nil {
				return err
			}
			if err := ops.DeleteTransaction(ctx, id); err != nil {
				return err
			}
			return ApplyBalance(ctx, ops, tx.AccountID, tx.Amount, tx.Direction.Opposite())
		})
	})
}

// GetTransaction returns a single transaction.
func (l *Ledger) GetTransaction(ctx context.Context, id string) (models.Transaction, error) {
	return l.store.GetTransaction(ctx, id)
}

// ListTransactions returns the transactions of the given accounts, or of all accounts.
func (l *Ledger) ListTransactions(ctx context.Context, accountIDs ...string) ([]models.Transaction, error) {
	return l.store.GetTransactions(ctx, accountIDs...)
}
