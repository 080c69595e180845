package ledger

import (
	"context"
	"fmt"

	interfaces "github.com/sheikh-saqib/personal-finance-ledger/internal/interfaces"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// ApplyBalance adds amount to the account's balance for a deposit and subtracts it for a
// withdrawal. It is the only code that changes a stored balance. A missing account fails
// with a *storage.StoreError; callers do not retry it.
func ApplyBalance(ctx context.Context, ops interfaces.LedgerOps, accountID string, amount decimal.Decimal, dir models.Direction) error {
	return ops.UpdateBalance(ctx, accountID, dir.Signed(amount))
}

// GetBalance returns the stored balance of an account.
func (l *Ledger) GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	account, err := l.store.GetAccount(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// BalanceMismatchError reports a stored balance that differs from the sum of the account's transactions.
type BalanceMismatchError struct {
	AccountID string
	Stored    decimal.Decimal
	Computed  decimal.Decimal
}

func (e *BalanceMismatchError) Error() string {
	return fmt.Sprintf("account %s: stored balance %s does not match transactions total %s",
		e.AccountID, e.Stored.StringFixed(2), e.Computed.StringFixed(2))
}

// VerifyBalance recomputes the balance from the account's transactions and compares it with
// the stored one. It returns the computed total and a *BalanceMismatchError when they differ.
func (l *Ledger) VerifyBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	var (
		computed decimal.Decimal
		stored   decimal.Decimal
	)
	err := l.withAccount(ctx, accountID, func() error {
		account, err := l.store.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}
		stored = account.Balance

		txs, err := l.store.GetTransactions(ctx, accountID)
		if err != nil {
			return err
		}
		computed = SumEffects(txs)
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	if !computed.Equal(stored) {
		return computed, &BalanceMismatchError{AccountID: accountID, Stored: stored, Computed: computed}
	}
	return computed, nil
}

// SumEffects returns the signed total of txs.
func SumEffects(txs []models.Transaction) decimal.Decimal {
	balance := decimal.Zero
	for _, tx := range txs {
		balance = balance.Add(tx.Effect())
	}
	return balance
}
