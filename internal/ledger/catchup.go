package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	interfaces "github.com/sheikh-saqib/personal-finance-ledger/internal/interfaces"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/models/events"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/recurrence"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/storage"
)

// ErrStalledRecurrence is returned when advancing a rule does not move its cursor forward.
var ErrStalledRecurrence = errors.New("recurrence interval did not advance the occurrence date")

// MaterializeDue creates a transaction for every occurrence of the rule dated strictly
// before today that has not been materialized yet, and returns how many it created.
// Calling it again with the same today creates nothing.
func (l *Ledger) MaterializeDue(ctx context.Context, ruleID string, today models.Date) (int, error) {
	rule, err := l.store.GetRecurringRule(ctx, ruleID)
	if err != nil {
		return 0, err
	}

	var n int
	err = l.withAccount(ctx, rule.AccountID, func() error {
		// reload under the lock: another catch-up may have moved the marker meanwhile
		rule, err := l.store.GetRecurringRule(ctx, ruleID)
		if err != nil {
			return err
		}
		n, err = l.catchUp(ctx, rule, today)
		return err
	})
	return n, err
}

// catchUp is the single catch-up loop, shared by rule creation and CheckDue.
// The caller holds the rule's account lock. Each occurrence is its own atomic unit:
// transaction row, balance effect and progress marker commit together or not at all.
// An error stops the loop; occurrences committed before it stay committed.
func (l *Ledger) catchUp(ctx context.Context, rule models.RecurringRule, today models.Date) (int, error) {
	log := l.log.With().Str("rule_id", rule.ID).Str("account_id", rule.AccountID).Logger()

	materialized := 0
	cursor := recurrence.FirstDue(rule)
	for cursor.Before(today) {
		// cancellation only takes effect between occurrences
		if err := ctx.Err(); err != nil {
			return materialized, err
		}

		tx := models.Transaction{
			AccountID:   rule.AccountID,
			Date:        cursor,
			Description: rule.Description,
			Direction:   rule.Direction,
			Amount:      rule.Amount,
			Recurring:   true,
		}
		err := l.store.Atomic(ctx, func(ops interfaces.LedgerOps) error {
			id, err := ops.CreateTransaction(ctx, tx)
			if err != nil {
				return err
			}
			tx.ID = id
			if err := ApplyBalance(ctx, ops, tx.AccountID, tx.Amount, tx.Direction); err != nil {
				return err
			}
			return ops.UpdateProgressMarker(ctx, rule.ID, cursor)
		})
		if err != nil {
			return materialized, fmt.Errorf("materialize %s occurrence of rule %s: %w", cursor, rule.ID, err)
		}
		materialized++
		rule.LastMaterialized = cursor

		log.Debug().Str("date", cursor.String()).Str("transaction_id", tx.ID).Msg("materialized occurrence")
		l.publish(ctx, events.TopicTransactionMaterialized, rule.AccountID, events.TransactionMaterialized{
			TransactionID: tx.ID,
			RuleID:        rule.ID,
			AccountID:     rule.AccountID,
			Date:          cursor,
			Direction:     rule.Direction,
			Amount:        rule.Amount,
			OccurredAt:    time.Now().UTC(),
		})

		next := recurrence.Advance(cursor, rule.Interval)
		if !next.After(cursor) {
			return materialized, fmt.Errorf("rule %s at %s: %w", rule.ID, cursor, ErrStalledRecurrence)
		}
		cursor = next
	}
	return materialized, nil
}

// RuleFailure records a rule whose catch-up stopped with an error.
type RuleFailure struct {
	RuleID    string
	AccountID string
	Err       error
}

// CatchUpReport summarizes a CheckDue run.
type CatchUpReport struct {
	Rules        int
	Materialized int
	Failures     []RuleFailure
}

// CheckDue runs the catch-up for every recurring rule. Accounts are processed in parallel,
// the rules of one account sequentially under its lock. A failing rule does not stop the
// others; all failures are listed in the report and joined into the returned error.
func (l *Ledger) CheckDue(ctx context.Context, today models.Date) (CatchUpReport, error) {
	rules, err := l.store.GetRecurringRules(ctx)
	if err != nil {
		return CatchUpReport{}, err
	}

	byAccount := make(map[string][]string)
	var accountOrder []string
	for _, r := range rules {
		if _, seen := byAccount[r.AccountID]; !seen {
			accountOrder = append(accountOrder, r.AccountID)
		}
		byAccount[r.AccountID] = append(byAccount[r.AccountID], r.ID)
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		report = CatchUpReport{Rules: len(rules)}
	)
	for _, accountID := range accountOrder {
		wg.Add(1)
		go func(accountID string, ruleIDs []string) {
			defer wg.Done()

			l.withAccount(ctx, accountID, func() error {
				for _, ruleID := range ruleIDs {
					n, err := l.catchUpByID(ctx, ruleID, today)

					mu.Lock()
					report.Materialized += n
					if err != nil {
						report.Failures = append(report.Failures, RuleFailure{RuleID: ruleID, AccountID: accountID, Err: err})
					}
					mu.Unlock()

					if err != nil {
						l.log.Error().Err(err).Str("rule_id", ruleID).Str("account_id", accountID).Msg("recurring catch-up failed")
					}
				}
				return nil
			})
		}(accountID, byAccount[accountID])
	}
	wg.Wait()

	l.log.Info().
		Int("rules", report.Rules).
		Int("materialized", report.Materialized).
		Int("failed", len(report.Failures)).
		Str("today", today.String()).
		Msg("recurring catch-up finished")

	errs := make([]error, 0, len(report.Failures))
	for _, f := range report.Failures {
		errs = append(errs, f.Err)
	}
	return report, errors.Join(errs...)
}

// catchUpByID reloads the rule before running the loop. The caller holds the account lock.
func (l *Ledger) catchUpByID(ctx context.Context, ruleID string, today models.Date) (int, error) {
	rule, err := l.store.GetRecurringRule(ctx, ruleID)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil // deleted since the rules were listed
	}
	if err != nil {
		return 0, err
	}
	return l.catchUp(ctx, rule, today)
}
