package ledger

import (
	"context"
	"strings"

	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
)

// CreateAccount opens an account with a zero balance.
func (l *Ledger) CreateAccount(ctx context.Context, name, card, bank string) (models.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Account{}, ErrMissingName
	}
	account := models.Account{Name: name, Card: card, Bank: bank}
	id, err := l.store.CreateAccount(ctx, account)
	if err != nil {
		return models.Account{}, err
	}
	return l.store.GetAccount(ctx, id)
}

// UpdateAccount changes an account's name, card and bank labels. The balance is not touched.
func (l *Ledger) UpdateAccount(ctx context.Context, account models.Account) (models.Account, error) {
	account.Name = strings.TrimSpace(account.Name)
	if account.Name == "" {
		return models.Account{}, ErrMissingName
	}

	var updated models.Account
	err := l.withAccount(ctx, account.ID, func() error {
		if err := l.store.UpdateAccount(ctx, account); err != nil {
			return err
		}
		var err error
		updated, err = l.store.GetAccount(ctx, account.ID)
		return err
	})
	return updated, err
}

// DeleteAccount removes an account with all of its transactions and recurring rules.
func (l *Ledger) DeleteAccount(ctx context.Context, id string) error {
	err := l.withAccount(ctx, id, func() error {
		return l.store.DeleteAccount(ctx, id)
	})
	if err != nil {
		return err
	}
	l.dropAccountLock(id)
	return nil
}

// GetAccount returns a single account.
func (l *Ledger) GetAccount(ctx context.Context, id string) (models.Account, error) {
	return l.store.GetAccount(ctx, id)
}

// ListAccounts returns every account.
func (l *Ledger) ListAccounts(ctx context.Context) ([]models.Account, error) {
	return l.store.GetAccounts(ctx)
}
