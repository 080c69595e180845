package ledger

import (
	"context"

	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// RulePatch lists the editable fields of a recurring rule. Changes apply to occurrences
// materialized afterwards; past transactions keep the values they were created with.
type RulePatch struct {
	Description *string
	Direction   *models.Direction
	Interval    *models.Interval
	Amount      *decimal.Decimal
}

// CreateRecurringRule stores a new rule and immediately backfills every occurrence from its
// start date up to, but excluding, today. It returns the rule with its marker advanced and
// the number of transactions created.
func (l *Ledger) CreateRecurringRule(ctx context.Context, rule models.RecurringRule, today models.Date) (models.RecurringRule, int, error) {
	if rule.StartDate.IsZero() {
		return models.RecurringRule{}, 0, ErrMissingDate
	}
	if err := validateDirection(rule.Direction); err != nil {
		return models.RecurringRule{}, 0, err
	}
	if !rule.Interval.Valid() {
		return models.RecurringRule{}, 0, &models.InvalidIntervalError{Tag: rule.Interval.String()}
	}
	amount, err := validateAmount(rule.Amount)
	if err != nil {
		return models.RecurringRule{}, 0, err
	}
	rule.Amount = amount
	rule.ID = ""
	rule.LastMaterialized = models.Date{}

	var n int
	err = l.withAccount(ctx, rule.AccountID, func() error {
		id, err := l.store.CreateRecurringRule(ctx, rule)
		if err != nil {
			return err
		}
		rule.ID = id

		n, err = l.catchUp(ctx, rule, today)
		stored, getErr := l.store.GetRecurringRule(ctx, id)
		if getErr == nil {
			rule = stored
		} else if err == nil {
			err = getErr
		}
		return err
	})
	if err != nil && rule.ID == "" {
		return models.RecurringRule{}, 0, err
	}
	// a failed backfill leaves the rule stored; the next CheckDue resumes from its marker
	return rule, n, err
}

// UpdateRecurringRule edits a rule without touching transactions it already produced.
func (l *Ledger) UpdateRecurringRule(ctx context.Context, id string, patch RulePatch) (models.RecurringRule, error) {
	if patch.Direction != nil {
		if err := validateDirection(*patch.Direction); err != nil {
			return models.RecurringRule{}, err
		}
	}
	if patch.Interval != nil && !patch.Interval.Valid() {
		return models.RecurringRule{}, &models.InvalidIntervalError{Tag: patch.Interval.String()}
	}
	if patch.Amount != nil {
		amount, err := validateAmount(*patch.Amount)
		if err != nil {
			return models.RecurringRule{}, err
		}
		patch.Amount = &amount
	}

	current, err := l.store.GetRecurringRule(ctx, id)
	if err != nil {
		return models.RecurringRule{}, err
	}

	var updated models.RecurringRule
	err = l.withAccount(ctx, current.AccountID, func() error {
		rule, err := l.store.GetRecurringRule(ctx, id)
		if err != nil {
			return err
		}
		if patch.Description != nil {
			rule.Description = *patch.Description
		}
		if patch.Direction != nil {
			rule.Direction = *patch.Direction
		}
		if patch.Interval != nil {
			rule.Interval = *patch.Interval
		}
		if patch.Amount != nil {
			rule.Amount = *patch.Amount
		}
		if err := l.store.UpdateRecurringRule(ctx, rule); err != nil {
			return err
		}
		updated = rule
		return nil
	})
	return updated, err
}

// DeleteRecurringRule removes a rule. Transactions it already materialized are kept.
func (l *Ledger) DeleteRecurringRule(ctx context.Context, id string) error {
	rule, err := l.store.GetRecurringRule(ctx, id)
	if err != nil {
		return err
	}
	return l.withAccount(ctx, rule.AccountID, func() error {
		return l.store.DeleteRecurringRule(ctx, id)
	})
}

// GetRecurringRule returns a single rule.
func (l *Ledger) GetRecurringRule(ctx context.Context, id string) (models.RecurringRule, error) {
	return l.store.GetRecurringRule(ctx, id)
}

// ListRecurringRules returns the rules of the given accounts, or of all accounts.
func (l *Ledger) ListRecurringRules(ctx context.Context, accountIDs ...string) ([]models.RecurringRule, error) {
	return l.store.GetRecurringRules(ctx, accountIDs...)
}
