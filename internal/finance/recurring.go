package finance

import (
	"context"
	"sync"

	"github.com/sheikh-saqib/personal-finance-ledger/internal/ledger"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// RecurringTransaction is a cached recurring rule. Edits apply to future occurrences only.
type RecurringTransaction struct {
	account *Account

	mu   sync.Mutex
	data models.RecurringRule
}

func (r *RecurringTransaction) get() models.RecurringRule {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data
}

func (r *RecurringTransaction) ID() string { return r.get().ID }
func (r *RecurringTransaction) StartDate() models.Date { return r.get().StartDate }
func (r *RecurringTransaction) Description() string { return r.get().Description }
func (r *RecurringTransaction) Direction() models.Direction { return r.get().Direction }
func (r *RecurringTransaction) Interval() models.Interval { return r.get().Interval }
func (r *RecurringTransaction) Amount() decimal.Decimal { return r.get().Amount }
func (r *RecurringTransaction) Account() *Account { return r.account }

// LastMaterialized is the date of the latest occurrence already turned into a transaction.
func (r *RecurringTransaction) LastMaterialized() models.Date { return r.get().LastMaterialized }

func (r *RecurringTransaction) SetDescription(ctx context.Context, description string) error {
	return r.update(ctx, ledger.RulePatch{Description: &description})
}

func (r *RecurringTransaction) SetDirection(ctx context.Context, dir models.Direction) error {
	return r.update(ctx, ledger.RulePatch{Direction: &dir})
}

func (r *RecurringTransaction) SetInterval(ctx context.Context, interval models.Interval) error {
	return r.update(ctx, ledger.RulePatch{Interval: &interval})
}

func (r *RecurringTransaction) SetAmount(ctx context.Context, amount decimal.Decimal) error {
	return r.update(ctx, ledger.RulePatch{Amount: &amount})
}

func (r *RecurringTransaction) update(ctx context.Context, patch ledger.RulePatch) error {
	updated, err := r.account.book.ledger.UpdateRecurringRule(ctx, r.ID(), patch)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.data = updated
	r.mu.Unlock()
	return nil
}

// Delete removes the rule. Transactions it already created stay on the account.
func (r *RecurringTransaction) Delete(ctx context.Context) error {
	id := r.ID()
	if err := r.account.book.ledger.DeleteRecurringRule(ctx, id); err != nil {
		return err
	}
	r.account.removeRule(id)
	return nil
}
