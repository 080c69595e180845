package memory

import (
	"context" // standard Go package for request-scoped context (timeouts, cancellation)
	"sync"    // standard Go package for concurrency primitives like Mutex

	"github.com/google/uuid"
	interfaces "github.com/sheikh-saqib/personal-finance-ledger/internal/interfaces" // interface LedgerStore
	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"                // domain models
	"github.com/shopspring/decimal"
)

// state is the full set of rows.
type state struct {
	accounts     map[string]models.Account
	transactions map[string]models.Transaction
	rules        map[string]models.RecurringRule

	// insertion order, so listings are stable like a SQL table scan by id
	txOrder   []string
	ruleOrder []string
}

func newState() *state {
	return &state{
		accounts:     make(map[string]models.Account),
		transactions: make(map[string]models.Transaction),
		rules:        make(map[string]models.RecurringRule),
	}
}

// MemoryLedgerStore is an in-memory implementation of interfaces.LedgerStore.
// It is safe for concurrent use; data is lost when the process exits.
type MemoryLedgerStore struct {
	mu    sync.Mutex // protects st
	st    *state
	newID func() string
}

// NewMemoryLedgerStore creates and returns a new, empty MemoryLedgerStore.
func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{
		st:    newState(),
		newID: func() string { return uuid.New().String() },
	}
}

// Atomic runs fn on the live rows while journaling an undo step for every write.
// If fn fails or panics the journal is replayed backwards, so nothing it wrote survives.
// The store lock is held for the whole unit: units are serialized and never observe
// each other's partial writes. The cost of a unit is proportional to what it touches.
func (m *MemoryLedgerStore) Atomic(ctx context.Context, fn func(ops interfaces.LedgerOps) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	work := &view{st: m.st, newID: m.newID, journal: true}
	committed := false
	defer func() {
		if !committed {
			work.rollback()
		}
	}()

	if err := fn(work); err != nil {
		return err
	}
	committed = true
	return nil
}

// Close is a no-op for the memory store.
func (m *MemoryLedgerStore) Close() error { return nil }

// locked runs fn on the live state under the store lock.
func (m *MemoryLedgerStore) locked(fn func(v *view) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(&view{st: m.st, newID: m.newID})
}

func (m *MemoryLedgerStore) CreateAccount(ctx context.Context, account models.Account) (id string, err error) {
	err = m.locked(func(v *view) error {
		id, err = v.CreateAccount(ctx, account)
		return err
	})
	return id, err
}

func (m *MemoryLedgerStore) GetAccounts(ctx context.Context) (accounts []models.Account, err error) {
	err = m.locked(func(v *view) error {
		accounts, err = v.GetAccounts(ctx)
		return err
	})
	return accounts, err
}

func (m *MemoryLedgerStore) GetAccount(ctx context.Context, id string) (account models.Account, err error) {
	err = m.locked(func(v *view) error {
		account, err = v.GetAccount(ctx, id)
		return err
	})
	return account, err
}

func (m *MemoryLedgerStore) UpdateAccount(ctx context.Context, account models.Account) error {
	return m.locked(func(v *view) error { return v.UpdateAccount(ctx, account) })
}

func (m *MemoryLedgerStore) DeleteAccount(ctx context.Context, id string) error {
	return m.locked(func(v *view) error { return v.DeleteAccount(ctx, id) })
}

func (m *MemoryLedgerStore) CreateTransaction(ctx context.Context, tx models.Transaction) (id string, err error) {
	err = m.locked(func(v *view) error {
		id, err = v.CreateTransaction(ctx, tx)
		return err
	})
	return id, err
}

func (m *MemoryLedgerStore) GetTransaction(ctx context.Context, id string) (tx models.Transaction, err error) {
	err = m.locked(func(v *view) error {
		tx, err = v.GetTransaction(ctx, id)
		return err
	})
	return tx, err
}

func (m *MemoryLedgerStore) GetTransactions(ctx context.Context, accountIDs ...string) (txs []models.Transaction, err error) {
	err = m.locked(func(v *view) error {
		txs, err = v.GetTransactions(ctx, accountIDs...)
		return err
	})
	return txs, err
}

func (m *MemoryLedgerStore) UpdateTransaction(ctx context.Context, tx models.Transaction) error {
	return m.locked(func(v *view) error { return v.UpdateTransaction(ctx, tx) })
}

func (m *MemoryLedgerStore) DeleteTransaction(ctx context.Context, id string) error {
	return m.locked(func(v *view) error { return v.DeleteTransaction(ctx, id) })
}

func (m *MemoryLedgerStore) CreateRecurringRule(ctx context.Context, rule models.RecurringRule) (id string, err error) {
	err = m.locked(func(v *view) error {
		id, err = v.CreateRecurringRule(ctx, rule)
		return err
	})
	return id, err
}

func (m *MemoryLedgerStore) GetRecurringRule(ctx context.Context, id string) (rule models.RecurringRule, err error) {
	err = m.locked(func(v *view) error {
		rule, err = v.GetRecurringRule(ctx, id)
		return err
	})
	return rule, err
}

func (m *MemoryLedgerStore) GetRecurringRules(ctx context.Context, accountIDs ...string) (rules []models.RecurringRule, err error) {
	err = m.locked(func(v *view) error {
		rules, err = v.GetRecurringRules(ctx, accountIDs...)
		return err
	})
	return rules, err
}

func (m *MemoryLedgerStore) UpdateRecurringRule(ctx context.Context, rule models.RecurringRule) error {
	return m.locked(func(v *view) error { return v.UpdateRecurringRule(ctx, rule) })
}

func (m *MemoryLedgerStore) UpdateProgressMarker(ctx context.Context, ruleID string, date models.Date) error {
	return m.locked(func(v *view) error { return v.UpdateProgressMarker(ctx, ruleID, date) })
}

func (m *MemoryLedgerStore) DeleteRecurringRule(ctx context.Context, id string) error {
	return m.locked(func(v *view) error { return v.DeleteRecurringRule(ctx, id) })
}

func (m *MemoryLedgerStore) UpdateBalance(ctx context.Context, accountID string, delta decimal.Decimal) error {
	return m.locked(func(v *view) error { return v.UpdateBalance(ctx, accountID, delta) })
}

// Compile-time check: ensure MemoryLedgerStore implements LedgerStore interface
var _ interfaces.LedgerStore = (*MemoryLedgerStore)(nil)
