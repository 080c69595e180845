package finance

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/sheikh-saqib/personal-finance-ledger/internal/ledger"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
)

// Book is the entry point to the object view of the ledger. It caches every account
// together with its transactions and recurring rules. All writes go to the ledger first;
// a cache changes only once the write has succeeded.
type Book struct {
	ledger *ledger.Ledger
	today  func() models.Date

	mu       sync.Mutex
	accounts []*Account
}

// Option configures a Book.
type Option func(*Book)

// WithClock replaces the source of "today" used for recurring catch-up.
func WithClock(today func() models.Date) Option {
	return func(b *Book) { b.today = today }
}

// LoadBook reads all accounts, transactions and recurring rules from the ledger.
func LoadBook(ctx context.Context, l *ledger.Ledger, opts ...Option) (*Book, error) {
	b := &Book{ledger: l, today: models.Today}
	for _, opt := range opts {
		opt(b)
	}
	if err := b.Refresh(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

// Refresh reloads every account from the store.
func (b *Book) Refresh(ctx context.Context) error {
	data, err := b.ledger.ListAccounts(ctx)
	if err != nil {
		return err
	}

	accounts := make([]*Account, 0, len(data))
	for _, d := range data {
		a := &Account{book: b, data: d}
		if err := a.Refresh(ctx); err != nil {
			return err
		}
		accounts = append(accounts, a)
	}

	b.mu.Lock()
	b.accounts = accounts
	b.mu.Unlock()
	return nil
}

// Accounts returns the cached accounts.
func (b *Book) Accounts() []*Account {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.accounts)
}

// Account looks up a cached account by id.
func (b *Book) Account(id string) (*Account, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range b.accounts {
		if a.ID() == id {
			return a, true
		}
	}
	return nil, false
}

// CreateAccount opens a new account and adds it to the cache.
func (b *Book) CreateAccount(ctx context.Context, name, card, bank string) (*Account, error) {
	data, err := b.ledger.CreateAccount(ctx, name, card, bank)
	if err != nil {
		return nil, err
	}
	a := &Account{book: b, data: data}

	b.mu.Lock()
	b.accounts = append(b.accounts, a)
	b.mu.Unlock()
	return a, nil
}

// CheckRecurrences materializes every due recurring occurrence and then reloads all caches.
// Rule failures are returned together with the report; the caches are refreshed regardless.
func (b *Book) CheckRecurrences(ctx context.Context) (ledger.CatchUpReport, error) {
	report, checkErr := b.ledger.CheckDue(ctx, b.today())

	b.mu.Lock()
	accounts := slices.Clone(b.accounts)
	b.mu.Unlock()

	errs := []error{checkErr}
	for _, a := range accounts {
		errs = append(errs, a.Refresh(ctx))
	}
	return report, errors.Join(errs...)
}

func (b *Book) removeAccount(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts = slices.DeleteFunc(b.accounts, func(a *Account) bool { return a.ID() == id })
}
