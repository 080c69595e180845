package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/sheikh-saqib/personal-finance-ledger/internal/finance"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/ledger"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/logger"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/recurrence"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/storage"
	"github.com/shopspring/decimal"
)

func runAccounts(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("accounts", flag.ExitOnError)
	fs.Parse(args)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCARD\tBANK\tBALANCE\tRULES")
	for _, acc := range a.book.Accounts() {
		balance, err := acc.Balance(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
			acc.ID(), acc.Name(), acc.Card(), acc.Bank(), balance.StringFixed(2), len(acc.RecurringTransactions()))
	}
	return w.Flush()
}

func runAddAccount(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("add-account", flag.ExitOnError)
	name := fs.String("name", "", "Account name (required)")
	card := fs.String("card", "", "Card label")
	bank := fs.String("bank", "", "Bank label")
	fs.Parse(args)

	acc, err := a.book.CreateAccount(ctx, *name, *card, *bank)
	if err != nil {
		return err
	}
	fmt.Printf("Created account %s (%s)\n", acc.Name(), acc.ID())
	return nil
}

func runAddTransaction(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("add-tx", flag.ExitOnError)
	accountID := fs.String("account", "", "Account ID (required)")
	date := fs.String("date", models.Today().String(), "Transaction date, YYYY-MM-DD")
	typ := fs.String("type", "withdraw", "deposit or withdraw")
	amount := fs.String("amount", "", "Non-negative amount (required)")
	description := fs.String("description", "", "Description")
	fs.Parse(args)

	acc, err := findAccount(a.book, *accountID)
	if err != nil {
		return err
	}
	d, dir, amt, err := parseEntry(*date, *typ, *amount)
	if err != nil {
		return err
	}

	tx, err := acc.AddTransaction(ctx, d, *description, dir, amt)
	if err != nil {
		return err
	}
	fmt.Printf("Posted %s %s on %s (%s)\n", tx.Direction(), tx.Amount().StringFixed(2), tx.Date(), tx.ID())
	return nil
}

func runAddRecurring(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("add-recurring", flag.ExitOnError)
	accountID := fs.String("account", "", "Account ID (required)")
	start := fs.String("start", models.Today().String(), "First occurrence, YYYY-MM-DD")
	typ := fs.String("type", "withdraw", "deposit or withdraw")
	interval := fs.String("interval", "monthly", "weekly, bi-weekly, monthly, quarterly or yearly")
	amount := fs.String("amount", "", "Non-negative amount (required)")
	description := fs.String("description", "", "Description")
	fs.Parse(args)

	acc, err := findAccount(a.book, *accountID)
	if err != nil {
		return err
	}
	d, dir, amt, err := parseEntry(*start, *typ, *amount)
	if err != nil {
		return err
	}
	iv, err := models.ParseInterval(*interval)
	if err != nil {
		return err
	}

	before := len(acc.Transactions())
	rule, err := acc.AddRecurringTransaction(ctx, d, *description, dir, iv, amt)
	if rule == nil {
		return err
	}
	log := logger.FromContext(ctx)
	log.Info().
		Str("rule_id", rule.ID()).
		Str("account_id", acc.ID()).
		Str("last_materialized", rule.LastMaterialized().String()).
		Msg("Created recurring transaction")
	fmt.Printf("Created recurring transaction %s, backfilled %d occurrence(s)\n", rule.ID(), len(acc.Transactions())-before)
	return err
}

func runEditTransaction(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("edit-tx", flag.ExitOnError)
	id := fs.String("id", "", "Transaction ID (required)")
	description := fs.String("description", "", "New description")
	typ := fs.String("type", "", "New type: deposit or withdraw")
	amount := fs.String("amount", "", "New amount")
	fs.Parse(args)

	tx, err := findTransaction(a.book, *id)
	if err != nil {
		return err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["description"] {
		if err := tx.SetDescription(ctx, *description); err != nil {
			return err
		}
	}
	if set["type"] {
		dir, err := models.ParseDirection(*typ)
		if err != nil {
			return err
		}
		if err := tx.SetDirection(ctx, dir); err != nil {
			return err
		}
	}
	if set["amount"] {
		amt, err := decimal.NewFromString(*amount)
		if err != nil {
			return fmt.Errorf("%w: amount %q: %v", ledger.ErrInvalidInput, *amount, err)
		}
		if err := tx.SetAmount(ctx, amt); err != nil {
			return err
		}
	}
	fmt.Printf("Transaction %s: %s %s %q\n", tx.ID(), tx.Direction(), tx.Amount().StringFixed(2), tx.Description())
	return nil
}

func runDeleteTransaction(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("delete-tx", flag.ExitOnError)
	id := fs.String("id", "", "Transaction ID (required)")
	fs.Parse(args)

	tx, err := findTransaction(a.book, *id)
	if err != nil {
		return err
	}
	if err := tx.Delete(ctx); err != nil {
		return err
	}
	fmt.Printf("Deleted transaction %s\n", *id)
	return nil
}

func runDeleteRecurring(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("delete-recurring", flag.ExitOnError)
	id := fs.String("id", "", "Recurring transaction ID (required)")
	fs.Parse(args)

	rule, err := findRule(a.book, *id)
	if err != nil {
		return err
	}
	if err := rule.Delete(ctx); err != nil {
		return err
	}
	fmt.Printf("Deleted recurring transaction %s\n", *id)
	return nil
}

func runCheck(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	fs.Parse(args)

	log := logger.FromContext(ctx)
	report, err := a.book.CheckRecurrences(ctx)
	log.Info().Int("rules", report.Rules).Int("materialized", report.Materialized).Msg("Recurring check finished")
	fmt.Printf("Checked %d rule(s), materialized %d transaction(s)\n", report.Rules, report.Materialized)
	for _, f := range report.Failures {
		log.Error().Err(f.Err).Str("rule_id", f.RuleID).Str("account_id", f.AccountID).Msg("Recurring rule failed")
	}
	return err
}

func runVerify(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	accountID := fs.String("account", "", "Account ID (default: all accounts)")
	fs.Parse(args)

	accounts := a.book.Accounts()
	if *accountID != "" {
		acc, err := findAccount(a.book, *accountID)
		if err != nil {
			return err
		}
		accounts = []*finance.Account{acc}
	}

	log := logger.FromContext(ctx)
	var mismatches int
	for _, acc := range accounts {
		computed, err := a.ledger.VerifyBalance(ctx, acc.ID())
		var mismatch *ledger.BalanceMismatchError
		switch {
		case errors.As(err, &mismatch):
			mismatches++
			log.Warn().Err(err).Str("account_id", acc.ID()).Msg("Balance mismatch")
			fmt.Printf("MISMATCH %s: stored %s, transactions %s\n", acc.Name(), mismatch.Stored.StringFixed(2), computed.StringFixed(2))
		case err != nil:
			return err
		default:
			fmt.Printf("ok       %s: %s\n", acc.Name(), computed.StringFixed(2))
		}
	}
	if mismatches > 0 {
		return fmt.Errorf("%d account(s) out of balance", mismatches)
	}
	return nil
}

func runPreview(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	id := fs.String("id", "", "Recurring transaction ID (required)")
	until := fs.String("until", "", "Exclusive end date, YYYY-MM-DD (required)")
	fs.Parse(args)

	rule, err := findRule(a.book, *id)
	if err != nil {
		return err
	}
	end, err := models.ParseDate(*until)
	if err != nil {
		return err
	}

	dates := recurrence.Occurrences(models.RecurringRule{
		StartDate:        rule.StartDate(),
		Interval:         rule.Interval(),
		LastMaterialized: rule.LastMaterialized(),
	}, end)
	for _, d := range dates {
		fmt.Printf("%s  %s %s\n", d, rule.Direction(), rule.Amount().StringFixed(2))
	}
	fmt.Printf("%d pending occurrence(s) before %s\n", len(dates), end)
	return nil
}

func parseEntry(date, typ, amount string) (models.Date, models.Direction, decimal.Decimal, error) {
	d, err := models.ParseDate(date)
	if err != nil {
		return models.Date{}, 0, decimal.Zero, err
	}
	dir, err := models.ParseDirection(typ)
	if err != nil {
		return models.Date{}, 0, decimal.Zero, err
	}
	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return models.Date{}, 0, decimal.Zero, fmt.Errorf("%w: amount %q: %v", ledger.ErrInvalidInput, amount, err)
	}
	return d, dir, amt, nil
}

func findAccount(book *finance.Book, id string) (*finance.Account, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: -account is required", ledger.ErrInvalidInput)
	}
	acc, ok := book.Account(id)
	if !ok {
		return nil, &storage.NotFoundError{Kind: "account", ID: id}
	}
	return acc, nil
}

func findTransaction(book *finance.Book, id string) (*finance.Transaction, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: -id is required", ledger.ErrInvalidInput)
	}
	for _, acc := range book.Accounts() {
		for _, tx := range acc.Transactions() {
			if tx.ID() == id {
				return tx, nil
			}
		}
	}
	return nil, &storage.NotFoundError{Kind: "transaction", ID: id}
}

func findRule(book *finance.Book, id string) (*finance.RecurringTransaction, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: -id is required", ledger.ErrInvalidInput)
	}
	for _, acc := range book.Accounts() {
		for _, r := range acc.RecurringTransactions() {
			if r.ID() == id {
				return r, nil
			}
		}
	}
	return nil, &storage.NotFoundError{Kind: "recurring rule", ID: id}
}
