package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	interfaces "github.com/sheikh-saqib/personal-finance-ledger/internal/interfaces"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/storage/memory"
	"github.com/shopspring/decimal"
)

var errInjected = errors.New("injected store failure")

func day(y int, m time.Month, d int) models.Date { return models.NewDate(y, m, d) }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// faultyStore wraps the memory store and fails selected writes inside atomic units.
type faultyStore struct {
	*memory.MemoryLedgerStore

	mu            sync.Mutex
	creates       int
	failOnCreate  int    // fail the n-th CreateTransaction (1-based); 0 disables
	failMarkerFor string // fail UpdateProgressMarker for this rule id
}

func newFaultyStore() *faultyStore {
	return &faultyStore{MemoryLedgerStore: memory.NewMemoryLedgerStore()}
}

func (f *faultyStore) Atomic(ctx context.Context, fn func(ops interfaces.LedgerOps) error) error {
	return f.MemoryLedgerStore.Atomic(ctx, func(ops interfaces.LedgerOps) error {
		return fn(&faultyOps{LedgerOps: ops, f: f})
	})
}

func (f *faultyStore) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOnCreate = 0
	f.failMarkerFor = ""
}

type faultyOps struct {
	interfaces.LedgerOps
	f *faultyStore
}

func (o *faultyOps) CreateTransaction(ctx context.Context, tx models.Transaction) (string, error) {
	o.f.mu.Lock()
	o.f.creates++
	fail := o.f.failOnCreate != 0 && o.f.creates == o.f.failOnCreate
	o.f.mu.Unlock()
	if fail {
		return "", errInjected
	}
	return o.LedgerOps.CreateTransaction(ctx, tx)
}

func (o *faultyOps) UpdateProgressMarker(ctx context.Context, ruleID string, date models.Date) error {
	o.f.mu.Lock()
	fail := o.f.failMarkerFor == ruleID
	o.f.mu.Unlock()
	if fail {
		return errInjected
	}
	return o.LedgerOps.UpdateProgressMarker(ctx, ruleID, date)
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	fail   bool
}

func (p *recordingPublisher) Publish(ctx context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	if p.fail {
		return errors.New("broker unavailable")
	}
	return nil
}

func newTestLedger(t *testing.T, store interfaces.LedgerStore) *Ledger {
	t.Helper()
	return NewLedger(store, nil, zerolog.Nop())
}

func mustAccount(t *testing.T, l *Ledger, name string) models.Account {
	t.Helper()
	a, err := l.CreateAccount(context.Background(), name, "", "")
	if err != nil {
		t.Fatalf("CreateAccount(%q) failed: %v", name, err)
	}
	return a
}

func mustBalance(t *testing.T, l *Ledger, accountID string, want string) {
	t.Helper()
	got, err := l.GetBalance(context.Background(), accountID)
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if !got.Equal(dec(want)) {
		t.Errorf("balance = %s, want %s", got.StringFixed(2), want)
	}
	if _, err := l.VerifyBalance(context.Background(), accountID); err != nil {
		t.Errorf("VerifyBalance: %v", err)
	}
}

func recurringDates(t *testing.T, l *Ledger, accountID string) []string {
	t.Helper()
	txs, err := l.ListTransactions(context.Background(), accountID)
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	var dates []string
	for _, tx := range txs {
		if tx.Recurring {
			dates = append(dates, tx.Date.String())
		}
	}
	return dates
}

func monthlyDeposit(accountID string) models.RecurringRule {
	return models.RecurringRule{
		AccountID:   accountID,
		StartDate:   day(2024, time.January, 1),
		Description: "Salary",
		Direction:   models.Deposit,
		Interval:    models.Monthly,
		Amount:      dec("100"),
	}
}
