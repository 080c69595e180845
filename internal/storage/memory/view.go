package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	interfaces "github.com/sheikh-saqib/personal-finance-ledger/internal/interfaces"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/storage"
	"github.com/shopspring/decimal"
)

// view implements LedgerOps directly on a state. Callers hold the store lock.
// With journal set, every write first records how to undo itself.
type view struct {
	st    *state
	newID func() string

	journal bool
	undo    []func()
}

func (v *view) record(step func()) {
	if v.journal {
		v.undo = append(v.undo, step)
	}
}

// rollback replays the journal newest first.
func (v *view) rollback() {
	for i := len(v.undo) - 1; i >= 0; i-- {
		v.undo[i]()
	}
	v.undo = nil
}

func setRow[T any](v *view, rows map[string]T, id string, row T) {
	prev, existed := rows[id]
	v.record(func() {
		if existed {
			rows[id] = prev
		} else {
			delete(rows, id)
		}
	})
	rows[id] = row
}

func deleteRow[T any](v *view, rows map[string]T, id string) {
	prev, existed := rows[id]
	if !existed {
		return
	}
	v.record(func() { rows[id] = prev })
	delete(rows, id)
}

func (v *view) appendOrder(order *[]string, id string) {
	n := len(*order)
	v.record(func() { *order = (*order)[:n] })
	*order = append(*order, id)
}

func (v *view) removeOrder(order *[]string, drop func(id string) bool) {
	if !slices.ContainsFunc(*order, drop) {
		return
	}
	if v.journal {
		prev := slices.Clone(*order)
		v.record(func() { *order = prev })
	}
	*order = slices.DeleteFunc(*order, drop)
}

func (v *view) CreateAccount(ctx context.Context, account models.Account) (string, error) {
	account.ID = v.newID()
	account.Balance = decimal.Zero // new accounts always start empty
	setRow(v, v.st.accounts, account.ID, account)
	return account.ID, nil
}

func (v *view) GetAccounts(ctx context.Context) ([]models.Account, error) {
	accounts := make([]models.Account, 0, len(v.st.accounts))
	for _, a := range v.st.accounts {
		accounts = append(accounts, a)
	}
	slices.SortFunc(accounts, func(a, b models.Account) int {
		return cmp.Or(strings.Compare(a.Name, b.Name), strings.Compare(a.ID, b.ID))
	})
	return accounts, nil
}

func (v *view) GetAccount(ctx context.Context, id string) (models.Account, error) {
	a, ok := v.st.accounts[id]
	if !ok {
		return models.Account{}, &storage.NotFoundError{Kind: "account", ID: id}
	}
	return a, nil
}

func (v *view) UpdateAccount(ctx context.Context, account models.Account) error {
	current, ok := v.st.accounts[account.ID]
	if !ok {
		return &storage.NotFoundError{Kind: "account", ID: account.ID}
	}
	// balance is owned by UpdateBalance
	current.Name = account.Name
	current.Card = account.Card
	current.Bank = account.Bank
	setRow(v, v.st.accounts, account.ID, current)
	return nil
}

// DeleteAccount removes the account together with its transactions and recurring rules.
func (v *view) DeleteAccount(ctx context.Context, id string) error {
	if _, ok := v.st.accounts[id]; !ok {
		return &storage.NotFoundError{Kind: "account", ID: id}
	}
	ownedTx := func(txID string) bool { return v.st.transactions[txID].AccountID == id }
	ownedRule := func(ruleID string) bool { return v.st.rules[ruleID].AccountID == id }

	// order entries go first: the predicates read the rows
	var txIDs, ruleIDs []string
	for _, txID := range v.st.txOrder {
		if ownedTx(txID) {
			txIDs = append(txIDs, txID)
		}
	}
	for _, ruleID := range v.st.ruleOrder {
		if ownedRule(ruleID) {
			ruleIDs = append(ruleIDs, ruleID)
		}
	}
	v.removeOrder(&v.st.txOrder, ownedTx)
	v.removeOrder(&v.st.ruleOrder, ownedRule)

	for _, txID := range txIDs {
		deleteRow(v, v.st.transactions, txID)
	}
	for _, ruleID := range ruleIDs {
		deleteRow(v, v.st.rules, ruleID)
	}
	deleteRow(v, v.st.accounts, id)
	return nil
}

func (v *view) CreateTransaction(ctx context.Context, tx models.Transaction) (string, error) {
	if _, ok := v.st.accounts[tx.AccountID]; !ok {
		return "", &storage.StoreError{Op: "insert transaction", Err: &storage.NotFoundError{Kind: "account", ID: tx.AccountID}}
	}
	tx.ID = v.newID()
	setRow(v, v.st.transactions, tx.ID, tx)
	v.appendOrder(&v.st.txOrder, tx.ID)
	return tx.ID, nil
}

func (v *view) GetTransaction(ctx context.Context, id string) (models.Transaction, error) {
	tx, ok := v.st.transactions[id]
	if !ok {
		return models.Transaction{}, &storage.NotFoundError{Kind: "transaction", ID: id}
	}
	return tx, nil
}

func (v *view) GetTransactions(ctx context.Context, accountIDs ...string) ([]models.Transaction, error) {
	result := []models.Transaction{}
	for _, id := range v.st.txOrder {
		tx := v.st.transactions[id]
		if len(accountIDs) == 0 || slices.Contains(accountIDs, tx.AccountID) {
			result = append(result, tx)
		}
	}
	return result, nil
}

func (v *view) UpdateTransaction(ctx context.Context, tx models.Transaction) error {
	current, ok := v.st.transactions[tx.ID]
	if !ok {
		return &storage.NotFoundError{Kind: "transaction", ID: tx.ID}
	}
	current.Description = tx.Description
	current.Direction = tx.Direction
	current.Amount = tx.Amount
	setRow(v, v.st.transactions, tx.ID, current)
	return nil
}

func (v *view) DeleteTransaction(ctx context.Context, id string) error {
	if _, ok := v.st.transactions[id]; !ok {
		return &storage.NotFoundError{Kind: "transaction", ID: id}
	}
	v.removeOrder(&v.st.txOrder, func(txID string) bool { return txID == id })
	deleteRow(v, v.st.transactions, id)
	return nil
}

func (v *view) CreateRecurringRule(ctx context.Context, rule models.RecurringRule) (string, error) {
	if _, ok := v.st.accounts[rule.AccountID]; !ok {
		return "", &storage.StoreError{Op: "insert recurring rule", Err: &storage.NotFoundError{Kind: "account", ID: rule.AccountID}}
	}
	rule.ID = v.newID()
	setRow(v, v.st.rules, rule.ID, rule)
	v.appendOrder(&v.st.ruleOrder, rule.ID)
	return rule.ID, nil
}

func (v *view) GetRecurringRule(ctx context.Context, id string) (models.RecurringRule, error) {
	rule, ok := v.st.rules[id]
	if !ok {
		return models.RecurringRule{}, &storage.NotFoundError{Kind: "recurring rule", ID: id}
	}
	return rule, nil
}

func (v *view) GetRecurringRules(ctx context.Context, accountIDs ...string) ([]models.RecurringRule, error) {
	result := []models.RecurringRule{}
	for _, id := range v.st.ruleOrder {
		rule := v.st.rules[id]
		if len(accountIDs) == 0 || slices.Contains(accountIDs, rule.AccountID) {
			result = append(result, rule)
		}
	}
	return result, nil
}

func (v *view) UpdateRecurringRule(ctx context.Context, rule models.RecurringRule) error {
	current, ok := v.st.rules[rule.ID]
	if !ok {
		return &storage.NotFoundError{Kind: "recurring rule", ID: rule.ID}
	}
	current.Description = rule.Description
	current.Direction = rule.Direction
	current.Interval = rule.Interval
	current.Amount = rule.Amount
	setRow(v, v.st.rules, rule.ID, current)
	return nil
}

func (v *view) UpdateProgressMarker(ctx context.Context, ruleID string, date models.Date) error {
	rule, ok := v.st.rules[ruleID]
	if !ok {
		return &storage.NotFoundError{Kind: "recurring rule", ID: ruleID}
	}
	rule.LastMaterialized = date
	setRow(v, v.st.rules, ruleID, rule)
	return nil
}

func (v *view) DeleteRecurringRule(ctx context.Context, id string) error {
	if _, ok := v.st.rules[id]; !ok {
		return &storage.NotFoundError{Kind: "recurring rule", ID: id}
	}
	v.removeOrder(&v.st.ruleOrder, func(ruleID string) bool { return ruleID == id })
	deleteRow(v, v.st.rules, id)
	return nil
}

func (v *view) UpdateBalance(ctx context.Context, accountID string, delta decimal.Decimal) error {
	a, ok := v.st.accounts[accountID]
	if !ok {
		return &storage.StoreError{Op: "update balance", Err: &storage.NotFoundError{Kind: "account", ID: accountID}}
	}
	a.Balance = a.Balance.Add(delta)
	setRow(v, v.st.accounts, accountID, a)
	return nil
}

var _ interfaces.LedgerOps = (*view)(nil)
