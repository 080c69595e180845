package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	interfaces "github.com/sheikh-saqib/personal-finance-ledger/internal/interfaces"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/storage"
	"github.com/shopspring/decimal"
)

func TestCreateAccountStartsAtZero(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedgerStore()

	id, err := store.CreateAccount(ctx, models.Account{Name: "Checking", Balance: decimal.NewFromInt(99)})
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected a store-assigned id")
	}

	got, err := store.GetAccount(ctx, id)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if !got.Balance.IsZero() {
		t.Errorf("new account balance = %s, want 0", got.Balance)
	}
	if got.Name != "Checking" {
		t.Errorf("name = %q, want Checking", got.Name)
	}
}

func TestGetMissingRowsReturnNotFound(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedgerStore()

	if _, err := store.GetAccount(ctx, "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetAccount: expected ErrNotFound, got %v", err)
	}
	if _, err := store.GetTransaction(ctx, "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetTransaction: expected ErrNotFound, got %v", err)
	}
	if _, err := store.GetRecurringRule(ctx, "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetRecurringRule: expected ErrNotFound, got %v", err)
	}
}

func TestUpdateBalanceOnMissingAccountIsStoreError(t *testing.T) {
	store := NewMemoryLedgerStore()

	err := store.UpdateBalance(context.Background(), "ghost", decimal.NewFromInt(10))
	var se *storage.StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StoreError, got %T (%v)", err, err)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected wrapped not-found, got %v", err)
	}
}

func TestGetTransactionsFiltersByAccount(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedgerStore()
	a, _ := store.CreateAccount(ctx, models.Account{Name: "A"})
	b, _ := store.CreateAccount(ctx, models.Account{Name: "B"})
	c, _ := store.CreateAccount(ctx, models.Account{Name: "C"})

	for _, acc := range []string{a, b, c, a} {
		if _, err := store.CreateTransaction(ctx, models.Transaction{AccountID: acc, Amount: decimal.NewFromInt(1)}); err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}
	}

	tests := []struct {
		name string
		ids  []string
		want int
	}{
		{name: "all", ids: nil, want: 4},
		{name: "single", ids: []string{a}, want: 2},
		{name: "several", ids: []string{b, c}, want: 2},
		{name: "unknown", ids: []string{"zzz"}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txs, err := store.GetTransactions(ctx, tt.ids...)
			if err != nil {
				t.Fatalf("GetTransactions failed: %v", err)
			}
			if len(txs) != tt.want {
				t.Errorf("got %d transactions, want %d", len(txs), tt.want)
			}
		})
	}
}

func TestDeleteAccountCascades(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedgerStore()
	keep, _ := store.CreateAccount(ctx, models.Account{Name: "Keep"})
	drop, _ := store.CreateAccount(ctx, models.Account{Name: "Drop"})

	store.CreateTransaction(ctx, models.Transaction{AccountID: keep})
	store.CreateTransaction(ctx, models.Transaction{AccountID: drop})
	store.CreateRecurringRule(ctx, models.RecurringRule{AccountID: drop, Interval: models.Weekly})
	store.CreateRecurringRule(ctx, models.RecurringRule{AccountID: keep, Interval: models.Weekly})

	if err := store.DeleteAccount(ctx, drop); err != nil {
		t.Fatalf("DeleteAccount failed: %v", err)
	}

	txs, _ := store.GetTransactions(ctx)
	rules, _ := store.GetRecurringRules(ctx)
	if len(txs) != 1 || txs[0].AccountID != keep {
		t.Errorf("unexpected transactions after cascade: %+v", txs)
	}
	if len(rules) != 1 || rules[0].AccountID != keep {
		t.Errorf("unexpected rules after cascade: %+v", rules)
	}
	if err := store.DeleteAccount(ctx, drop); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestAtomicCommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedgerStore()
	acc, _ := store.CreateAccount(ctx, models.Account{Name: "A"})

	err := store.Atomic(ctx, func(ops interfaces.LedgerOps) error {
		if _, err := ops.CreateTransaction(ctx, models.Transaction{AccountID: acc, Amount: decimal.NewFromInt(5)}); err != nil {
			return err
		}
		return ops.UpdateBalance(ctx, acc, decimal.NewFromInt(5))
	})
	if err != nil {
		t.Fatalf("Atomic failed: %v", err)
	}

	got, _ := store.GetAccount(ctx, acc)
	if !got.Balance.Equal(decimal.NewFromInt(5)) {
		t.Errorf("balance = %s, want 5", got.Balance)
	}
	txs, _ := store.GetTransactions(ctx, acc)
	if len(txs) != 1 {
		t.Errorf("got %d transactions, want 1", len(txs))
	}
}

func TestAtomicRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedgerStore()
	acc, _ := store.CreateAccount(ctx, models.Account{Name: "A"})
	rule, _ := store.CreateRecurringRule(ctx, models.RecurringRule{AccountID: acc, Interval: models.Monthly})

	boom := errors.New("boom")
	err := store.Atomic(ctx, func(ops interfaces.LedgerOps) error {
		ops.CreateTransaction(ctx, models.Transaction{AccountID: acc, Amount: decimal.NewFromInt(5)})
		ops.UpdateBalance(ctx, acc, decimal.NewFromInt(5))
		ops.UpdateProgressMarker(ctx, rule, models.NewDate(2024, time.January, 1))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got, _ := store.GetAccount(ctx, acc)
	if !got.Balance.IsZero() {
		t.Errorf("balance = %s, want 0 after rollback", got.Balance)
	}
	txs, _ := store.GetTransactions(ctx, acc)
	if len(txs) != 0 {
		t.Errorf("got %d transactions, want 0 after rollback", len(txs))
	}
	r, _ := store.GetRecurringRule(ctx, rule)
	if r.HasProgress() {
		t.Errorf("marker = %s, want unset after rollback", r.LastMaterialized)
	}
}

func TestUpdateAccountKeepsBalance(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedgerStore()
	acc, _ := store.CreateAccount(ctx, models.Account{Name: "Old"})
	store.UpdateBalance(ctx, acc, decimal.NewFromInt(42))

	err := store.UpdateAccount(ctx, models.Account{ID: acc, Name: "New", Bank: "ACME", Balance: decimal.NewFromInt(-1)})
	if err != nil {
		t.Fatalf("UpdateAccount failed: %v", err)
	}
	got, _ := store.GetAccount(ctx, acc)
	if got.Name != "New" || got.Bank != "ACME" {
		t.Errorf("fields not updated: %+v", got)
	}
	if !got.Balance.Equal(decimal.NewFromInt(42)) {
		t.Errorf("balance = %s, want 42", got.Balance)
	}
}

type snapshot struct {
	Accounts     []models.Account
	Transactions []models.Transaction
	Rules        []models.RecurringRule
}

func takeSnapshot(t *testing.T, store *MemoryLedgerStore) snapshot {
	t.Helper()
	ctx := context.Background()
	accounts, _ := store.GetAccounts(ctx)
	txs, _ := store.GetTransactions(ctx)
	rules, _ := store.GetRecurringRules(ctx)
	return snapshot{accounts, txs, rules}
}

var snapshotOpts = cmp.Options{
	cmp.AllowUnexported(models.Date{}),
	cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) }),
}

func seedStore(t *testing.T) (*MemoryLedgerStore, string, string) {
	t.Helper()
	ctx := context.Background()
	store := NewMemoryLedgerStore()
	keep, _ := store.CreateAccount(ctx, models.Account{Name: "Keep"})
	drop, _ := store.CreateAccount(ctx, models.Account{Name: "Drop"})
	for _, acc := range []string{keep, drop, keep} {
		store.CreateTransaction(ctx, models.Transaction{AccountID: acc, Description: "seed", Amount: decimal.NewFromInt(3)})
		store.UpdateBalance(ctx, acc, decimal.NewFromInt(3))
	}
	store.CreateRecurringRule(ctx, models.RecurringRule{AccountID: drop, Interval: models.Weekly})
	store.CreateRecurringRule(ctx, models.RecurringRule{AccountID: keep, Interval: models.Monthly})
	return store, keep, drop
}

func TestAtomicRollbackRestoresEveryKindOfWrite(t *testing.T) {
	ctx := context.Background()
	store, keep, drop := seedStore(t)
	before := takeSnapshot(t, store)

	boom := errors.New("boom")
	err := store.Atomic(ctx, func(ops interfaces.LedgerOps) error {
		txs, _ := ops.GetTransactions(ctx, keep)
		rules, _ := ops.GetRecurringRules(ctx, keep)

		ops.CreateAccount(ctx, models.Account{Name: "New"})
		ops.UpdateAccount(ctx, models.Account{ID: keep, Name: "Renamed"})
		ops.UpdateBalance(ctx, keep, decimal.NewFromInt(100))
		ops.CreateTransaction(ctx, models.Transaction{AccountID: keep, Amount: decimal.NewFromInt(1)})
		ops.UpdateTransaction(ctx, models.Transaction{ID: txs[0].ID, Description: "edited"})
		ops.DeleteTransaction(ctx, txs[1].ID)
		ops.UpdateRecurringRule(ctx, models.RecurringRule{ID: rules[0].ID, Interval: models.Yearly})
		ops.UpdateProgressMarker(ctx, rules[0].ID, models.NewDate(2024, time.May, 1))
		ops.DeleteAccount(ctx, drop)
		ops.CreateRecurringRule(ctx, models.RecurringRule{AccountID: keep, Interval: models.Weekly})
		ops.DeleteRecurringRule(ctx, rules[0].ID)
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if diff := cmp.Diff(before, takeSnapshot(t, store), snapshotOpts); diff != "" {
		t.Errorf("state changed after rollback (-before +after):\n%s", diff)
	}
}

func TestAtomicRollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	store, keep, _ := seedStore(t)
	before := takeSnapshot(t, store)

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected the panic to propagate")
			}
		}()
		store.Atomic(ctx, func(ops interfaces.LedgerOps) error {
			ops.UpdateBalance(ctx, keep, decimal.NewFromInt(7))
			panic("unit failed")
		})
	}()

	if diff := cmp.Diff(before, takeSnapshot(t, store), snapshotOpts); diff != "" {
		t.Errorf("state changed after panic (-before +after):\n%s", diff)
	}
	// the store lock was released
	if _, err := store.GetAccount(ctx, keep); err != nil {
		t.Errorf("GetAccount after panic: %v", err)
	}
}

func TestAtomicUnitsAreIndependentOfStoreSize(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedgerStore()
	acc, _ := store.CreateAccount(ctx, models.Account{Name: "Busy"})

	for i := 0; i < 5000; i++ {
		err := store.Atomic(ctx, func(ops interfaces.LedgerOps) error {
			if _, err := ops.CreateTransaction(ctx, models.Transaction{AccountID: acc, Amount: decimal.NewFromInt(1)}); err != nil {
				return err
			}
			return ops.UpdateBalance(ctx, acc, decimal.NewFromInt(1))
		})
		if err != nil {
			t.Fatalf("unit %d failed: %v", i, err)
		}
	}

	var journal int
	store.Atomic(ctx, func(ops interfaces.LedgerOps) error {
		ops.UpdateBalance(ctx, acc, decimal.NewFromInt(1))
		journal = len(ops.(*view).undo)
		return errors.New("discard")
	})
	if journal != 1 {
		t.Errorf("a one-write unit journaled %d steps, want 1", journal)
	}
	got, _ := store.GetAccount(ctx, acc)
	if !got.Balance.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("balance = %s, want 5000", got.Balance)
	}
}
