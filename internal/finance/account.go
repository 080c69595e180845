package finance

import (
	"context"
	"slices"
	"sync"

	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// Account is a cached account. Its balance is never cached.
type Account struct {
	book *Book

	mu    sync.Mutex
	data  models.Account
	txs   []*Transaction
	rules []*RecurringTransaction
}

func (a *Account) ID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.data.ID
}

func (a *Account) Name() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.data.Name
}

func (a *Account) Card() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.data.Card
}

func (a *Account) Bank() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.data.Bank
}

// Balance reads the current balance from the store.
func (a *Account) Balance(ctx context.Context) (decimal.Decimal, error) {
	return a.book.ledger.GetBalance(ctx, a.ID())
}

// Transactions returns the cached transactions.
func (a *Account) Transactions() []*Transaction {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.txs)
}

// RecurringTransactions returns the cached recurring rules.
func (a *Account) RecurringTransactions() []*RecurringTransaction {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.rules)
}

func (a *Account) SetName(ctx context.Context, name string) error {
	return a.update(ctx, func(d *models.Account) { d.Name = name })
}

func (a *Account) SetCard(ctx context.Context, card string) error {
	return a.update(ctx, func(d *models.Account) { d.Card = card })
}

func (a *Account) SetBank(ctx context.Context, bank string) error {
	return a.update(ctx, func(d *models.Account) { d.Bank = bank })
}

func (a *Account) update(ctx context.Context, change func(*models.Account)) error {
	a.mu.Lock()
	next := a.data
	a.mu.Unlock()
	change(&next)

	stored, err := a.book.ledger.UpdateAccount(ctx, next)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.data = stored
	a.mu.Unlock()
	return nil
}

// AddTransaction posts a one-off transaction on this account.
func (a *Account) AddTransaction(ctx context.Context, date models.Date, description string, dir models.Direction, amount decimal.Decimal) (*Transaction, error) {
	data, err := a.book.ledger.PostTransaction(ctx, models.Transaction{
		AccountID:   a.ID(),
		Date:        date,
		Description: description,
		Direction:   dir,
		Amount:      amount,
	})
	if err != nil {
		return nil, err
	}
	tx := &Transaction{account: a, data: data}

	a.mu.Lock()
	a.txs = append(a.txs, tx)
	a.mu.Unlock()
	return tx, nil
}

// AddRecurringTransaction creates a recurring rule, backfills its past occurrences and
// reloads the transaction cache. When the rule is stored but the backfill fails, the rule
// is still returned along with the error.
func (a *Account) AddRecurringTransaction(ctx context.Context, start models.Date, description string, dir models.Direction, interval models.Interval, amount decimal.Decimal) (*RecurringTransaction, error) {
	data, _, err := a.book.ledger.CreateRecurringRule(ctx, models.RecurringRule{
		AccountID:   a.ID(),
		StartDate:   start,
		Description: description,
		Direction:   dir,
		Interval:    interval,
		Amount:      amount,
	}, a.book.today())
	if data.ID == "" {
		return nil, err
	}
	rule := &RecurringTransaction{account: a, data: data}

	a.mu.Lock()
	a.rules = append(a.rules, rule)
	a.mu.Unlock()

	if refreshErr := a.refreshTransactions(ctx); err == nil {
		err = refreshErr
	}
	return rule, err
}

// Delete removes the account with its transactions and rules.
func (a *Account) Delete(ctx context.Context) error {
	id := a.ID()
	if err := a.book.ledger.DeleteAccount(ctx, id); err != nil {
		return err
	}
	a.book.removeAccount(id)
	return nil
}

// Refresh reloads the account, its transactions and its rules from the store.
func (a *Account) Refresh(ctx context.Context) error {
	data, err := a.book.ledger.GetAccount(ctx, a.ID())
	if err != nil {
		return err
	}
	ruleData, err := a.book.ledger.ListRecurringRules(ctx, data.ID)
	if err != nil {
		return err
	}
	rules := make([]*RecurringTransaction, len(ruleData))
	for i, r := range ruleData {
		rules[i] = &RecurringTransaction{account: a, data: r}
	}

	a.mu.Lock()
	a.data = data
	a.rules = rules
	a.mu.Unlock()
	return a.refreshTransactions(ctx)
}

func (a *Account) refreshTransactions(ctx context.Context) error {
	data, err := a.book.ledger.ListTransactions(ctx, a.ID())
	if err != nil {
		return err
	}
	txs := make([]*Transaction, len(data))
	for i, d := range data {
		txs[i] = &Transaction{account: a, data: d}
	}

	a.mu.Lock()
	a.txs = txs
	a.mu.Unlock()
	return nil
}

func (a *Account) removeTransaction(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.txs = slices.DeleteFunc(a.txs, func(t *Transaction) bool { return t.ID() == id })
}

func (a *Account) removeRule(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rules = slices.DeleteFunc(a.rules, func(r *RecurringTransaction) bool { return r.ID() == id })
}
