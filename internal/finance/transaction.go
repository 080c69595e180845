package finance

import (
	"context"
	"sync"

	"github.com/sheikh-saqib/personal-finance-ledger/internal/ledger"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// Transaction is a cached ledger transaction.
type Transaction struct {
	account *Account

	mu   sync.Mutex
	data models.Transaction
}

func (t *Transaction) get() models.Transaction {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.data
}

func (t *Transaction) ID() string { return t.get().ID }
func (t *Transaction) Date() models.Date { return t.get().Date }
func (t *Transaction) Description() string { return t.get().Description }
func (t *Transaction) Direction() models.Direction { return t.get().Direction }
func (t *Transaction) Amount() decimal.Decimal { return t.get().Amount }
func (t *Transaction) Recurring() bool { return t.get().Recurring }
func (t *Transaction) Account() *Account { return t.account }

func (t *Transaction) SetDescription(ctx context.Context, description string) error {
	return t.edit(ctx, ledger.TransactionPatch{Description: &description})
}

func (t *Transaction) SetDirection(ctx context.Context, dir models.Direction) error {
	return t.edit(ctx, ledger.TransactionPatch{Direction: &dir})
}

func (t *Transaction) SetAmount(ctx context.Context, amount decimal.Decimal) error {
	return t.edit(ctx, ledger.TransactionPatch{Amount: &amount})
}

func (t *Transaction) edit(ctx context.Context, patch ledger.TransactionPatch) error {
	updated, err := t.account.book.ledger.EditTransaction(ctx, t.ID(), patch)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.data = updated
	t.mu.Unlock()
	return nil
}

// Delete removes the transaction and reverses its balance effect.
func (t *Transaction) Delete(ctx context.Context) error {
	id := t.ID()
	if err := t.account.book.ledger.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	t.account.removeTransaction(id)
	return nil
}
