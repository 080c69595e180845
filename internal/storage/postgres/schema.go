package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations run in order on every start; each statement is idempotent.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		balance NUMERIC(14,2) NOT NULL DEFAULT 0,
		name TEXT NOT NULL,
		card TEXT NOT NULL DEFAULT '',
		bank TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS recurring_rules (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		start_date BIGINT NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL CHECK (type IN ('deposit', 'withdraw')),
		interval TEXT NOT NULL,
		amount NUMERIC(14,2) NOT NULL CHECK (amount >= 0),
		last_materialized_date BIGINT
	)`,

	`CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		date BIGINT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL CHECK (type IN ('deposit', 'withdraw')),
		amount NUMERIC(14,2) NOT NULL CHECK (amount >= 0),
		is_recurring_generated BOOLEAN NOT NULL DEFAULT FALSE
	)`,

	`CREATE INDEX IF NOT EXISTS idx_transactions_account_date ON transactions(account_id, date)`,
	`CREATE INDEX IF NOT EXISTS idx_recurring_rules_account_id ON recurring_rules(account_id)`,
}

// Migrate creates the ledger tables if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, migration := range migrations {
		if _, err := db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}
