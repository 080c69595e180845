package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
	interfaces "github.com/sheikh-saqib/personal-finance-ledger/internal/interfaces" // interface LedgerStore
	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/storage"
	"github.com/shopspring/decimal"
)

// querier is the part of *sql.DB and *sql.Tx the row operations need.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type PostgresLedgerStore struct {
	rows
	db *sql.DB
}

func NewPostgresLedgerStore(db *sql.DB) *PostgresLedgerStore {
	return &PostgresLedgerStore{
		rows: rows{q: db},
		db:   db,
	}
}

// Atomic runs fn inside a database transaction, committing only if fn returns nil.
func (p *PostgresLedgerStore) Atomic(ctx context.Context, fn func(ops interfaces.LedgerOps) error) (err error) {
	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.Wrap("begin", err)
	}

	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	if err = fn(rows{q: dbTx}); err != nil {
		return err
	}
	return storage.Wrap("commit", dbTx.Commit())
}

func (p *PostgresLedgerStore) Close() error {
	return p.db.Close()
}

// rows implements LedgerOps over either the pool or an open transaction.
type rows struct {
	q querier
}

func (r rows) CreateAccount(ctx context.Context, account models.Account) (string, error) {
	const query = `INSERT INTO accounts (id, balance, name, card, bank)
	VALUES ($1, 0, $2, $3, $4)`

	id := uuid.New().String()
	_, err := r.q.ExecContext(ctx, query, id, account.Name, account.Card, account.Bank)
	if err != nil {
		return "", storage.Wrap("insert account", err)
	}
	return id, nil
}

func (r rows) GetAccounts(ctx context.Context) ([]models.Account, error) {
	const query = `SELECT id, balance, name, card, bank FROM accounts ORDER BY name, id`

	rs, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, storage.Wrap("list accounts", err)
	}
	defer rs.Close()

	accounts := []models.Account{}
	for rs.Next() {
		var a models.Account
		if err := rs.Scan(&a.ID, &a.Balance, &a.Name, &a.Card, &a.Bank); err != nil {
			return nil, storage.Wrap("scan account", err)
		}
		accounts = append(accounts, a)
	}
	if err := rs.Err(); err != nil {
		return nil, storage.Wrap("list accounts", err)
	}
	return accounts, nil
}

func (r rows) GetAccount(ctx context.Context, id string) (models.Account, error) {
	const query = `SELECT id, balance, name, card, bank FROM accounts WHERE id = $1`

	var a models.Account
	err := r.q.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.Balance, &a.Name, &a.Card, &a.Bank)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, &storage.NotFoundError{Kind: "account", ID: id}
	}
	if err != nil {
		return models.Account{}, storage.Wrap("get account", err)
	}
	return a, nil
}

func (r rows) UpdateAccount(ctx context.Context, account models.Account) error {
	const query = `UPDATE accounts SET name = $2, card = $3, bank = $4 WHERE id = $1`

	res, err := r.q.ExecContext(ctx, query, account.ID, account.Name, account.Card, account.Bank)
	return affectedOne(res, err, "update account", "account", account.ID)
}

// DeleteAccount relies on ON DELETE CASCADE for transactions and recurring rules.
func (r rows) DeleteAccount(ctx context.Context, id string) error {
	const query = `DELETE FROM accounts WHERE id = $1`

	res, err := r.q.ExecContext(ctx, query, id)
	return affectedOne(res, err, "delete account", "account", id)
}

func (r rows) CreateTransaction(ctx context.Context, tx models.Transaction) (string, error) {
	const query = `INSERT INTO transactions (id, account_id, date, name, type, amount, is_recurring_generated)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

	id := uuid.New().String()
	_, err := r.q.ExecContext(ctx, query, id, tx.AccountID, tx.Date.Unix(), tx.Description,
		tx.Direction.String(), tx.Amount, tx.Recurring)
	if err != nil {
		return "", insertError("insert transaction", tx.AccountID, err)
	}
	return id, nil
}

const transactionColumns = `id, account_id, date, name, type, amount, is_recurring_generated`

func scanTransaction(scan func(dest ...any) error) (models.Transaction, error) {
	var (
		tx       models.Transaction
		date     int64
		typeName string
	)
	if err := scan(&tx.ID, &tx.AccountID, &date, &tx.Description, &typeName, &tx.Amount, &tx.Recurring); err != nil {
		return models.Transaction{}, err
	}
	dir, err := models.ParseDirection(typeName)
	if err != nil {
		return models.Transaction{}, err
	}
	tx.Date = models.DateFromUnix(date)
	tx.Direction = dir
	return tx, nil
}

func (r rows) GetTransaction(ctx context.Context, id string) (models.Transaction, error) {
	const query = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	tx, err := scanTransaction(r.q.QueryRowContext(ctx, query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Transaction{}, &storage.NotFoundError{Kind: "transaction", ID: id}
	}
	if err != nil {
		return models.Transaction{}, storage.Wrap("get transaction", err)
	}
	return tx, nil
}

func (r rows) GetTransactions(ctx context.Context, accountIDs ...string) ([]models.Transaction, error) {
	var (
		rs  *sql.Rows
		err error
	)
	if len(accountIDs) == 0 {
		rs, err = r.q.QueryContext(ctx, `SELECT `+transactionColumns+` FROM transactions ORDER BY date, id`)
	} else {
		rs, err = r.q.QueryContext(ctx, `SELECT `+transactionColumns+` FROM transactions
		WHERE account_id = ANY($1) ORDER BY date, id`, pq.Array(accountIDs))
	}
	if err != nil {
		return nil, storage.Wrap("list transactions", err)
	}
	defer rs.Close()

	txs := []models.Transaction{}
	for rs.Next() {
		tx, err := scanTransaction(rs.Scan)
		if err != nil {
			return nil, storage.Wrap("scan transaction", err)
		}
		txs = append(txs, tx)
	}
	if err := rs.Err(); err != nil {
		return nil, storage.Wrap("list transactions", err)
	}
	return txs, nil
}

func (r rows) UpdateTransaction(ctx context.Context, tx models.Transaction) error {
	const query = `UPDATE transactions SET name = $2, type = $3, amount = $4 WHERE id = $1`

	res, err := r.q.ExecContext(ctx, query, tx.ID, tx.Description, tx.Direction.String(), tx.Amount)
	return affectedOne(res, err, "update transaction", "transaction", tx.ID)
}

func (r rows) DeleteTransaction(ctx context.Context, id string) error {
	const query = `DELETE FROM transactions WHERE id = $1`

	res, err := r.q.ExecContext(ctx, query, id)
	return affectedOne(res, err, "delete transaction", "transaction", id)
}

func (r rows) CreateRecurringRule(ctx context.Context, rule models.RecurringRule) (string, error) {
	const query = `INSERT INTO recurring_rules (id, account_id, start_date, name, type, interval, amount, last_materialized_date)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	id := uuid.New().String()
	_, err := r.q.ExecContext(ctx, query, id, rule.AccountID, rule.StartDate.Unix(), rule.Description,
		rule.Direction.String(), rule.Interval.String(), rule.Amount, nullDate(rule.LastMaterialized))
	if err != nil {
		return "", insertError("insert recurring rule", rule.AccountID, err)
	}
	return id, nil
}

const ruleColumns = `id, account_id, start_date, name, type, interval, amount, last_materialized_date`

func scanRule(scan func(dest ...any) error) (models.RecurringRule, error) {
	var (
		rule         models.RecurringRule
		start        int64
		typeName     string
		intervalName string
		marker       sql.NullInt64
	)
	if err := scan(&rule.ID, &rule.AccountID, &start, &rule.Description, &typeName, &intervalName, &rule.Amount, &marker); err != nil {
		return models.RecurringRule{}, err
	}
	dir, err := models.ParseDirection(typeName)
	if err != nil {
		return models.RecurringRule{}, err
	}
	iv, err := models.ParseInterval(intervalName)
	if err != nil {
		return models.RecurringRule{}, err
	}
	rule.StartDate = models.DateFromUnix(start)
	rule.Direction = dir
	rule.Interval = iv
	if marker.Valid {
		rule.LastMaterialized = models.DateFromUnix(marker.Int64)
	}
	return rule, nil
}

func (r rows) GetRecurringRule(ctx context.Context, id string) (models.RecurringRule, error) {
	const query = `SELECT ` + ruleColumns + ` FROM recurring_rules WHERE id = $1`

	rule, err := scanRule(r.q.QueryRowContext(ctx, query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RecurringRule{}, &storage.NotFoundError{Kind: "recurring rule", ID: id}
	}
	if err != nil {
		return models.RecurringRule{}, storage.Wrap("get recurring rule", err)
	}
	return rule, nil
}

func (r rows) GetRecurringRules(ctx context.Context, accountIDs ...string) ([]models.RecurringRule, error) {
	var (
		rs  *sql.Rows
		err error
	)
	if len(accountIDs) == 0 {
		rs, err = r.q.QueryContext(ctx, `SELECT `+ruleColumns+` FROM recurring_rules ORDER BY start_date, id`)
	} else {
		rs, err = r.q.QueryContext(ctx, `SELECT `+ruleColumns+` FROM recurring_rules
		WHERE account_id = ANY($1) ORDER BY start_date, id`, pq.Array(accountIDs))
	}
	if err != nil {
		return nil, storage.Wrap("list recurring rules", err)
	}
	defer rs.Close()

	rules := []models.RecurringRule{}
	for rs.Next() {
		rule, err := scanRule(rs.Scan)
		if err != nil {
			// an unknown interval tag surfaces here as *models.InvalidIntervalError
			return nil, storage.Wrap("scan recurring rule", err)
		}
		rules = append(rules, rule)
	}
	if err := rs.Err(); err != nil {
		return nil, storage.Wrap("list recurring rules", err)
	}
	return rules, nil
}

func (r rows) UpdateRecurringRule(ctx context.Context, rule models.RecurringRule) error {
	const query = `UPDATE recurring_rules SET name = $2, type = $3, interval = $4, amount = $5 WHERE id = $1`

	res, err := r.q.ExecContext(ctx, query, rule.ID, rule.Description, rule.Direction.String(),
		rule.Interval.String(), rule.Amount)
	return affectedOne(res, err, "update recurring rule", "recurring rule", rule.ID)
}

func (r rows) UpdateProgressMarker(ctx context.Context, ruleID string, date models.Date) error {
	const query = `UPDATE recurring_rules SET last_materialized_date = $2 WHERE id = $1`

	res, err := r.q.ExecContext(ctx, query, ruleID, nullDate(date))
	return affectedOne(res, err, "update progress marker", "recurring rule", ruleID)
}

func (r rows) DeleteRecurringRule(ctx context.Context, id string) error {
	const query = `DELETE FROM recurring_rules WHERE id = $1`

	res, err := r.q.ExecContext(ctx, query, id)
	return affectedOne(res, err, "delete recurring rule", "recurring rule", id)
}

// UpdateBalance applies delta in a single statement so no partial update is visible.
func (r rows) UpdateBalance(ctx context.Context, accountID string, delta decimal.Decimal) error {
	const query = `UPDATE accounts SET balance = balance + $2 WHERE id = $1`

	res, err := r.q.ExecContext(ctx, query, accountID, delta)
	if err := affectedOne(res, err, "update balance", "account", accountID); err != nil {
		var nf *storage.NotFoundError
		if errors.As(err, &nf) {
			return &storage.StoreError{Op: "update balance", Err: nf}
		}
		return err
	}
	return nil
}

func affectedOne(res sql.Result, err error, op, kind, id string) error {
	if err != nil {
		return storage.Wrap(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storage.Wrap(op, err)
	}
	if n == 0 {
		return &storage.NotFoundError{Kind: kind, ID: id}
	}
	return nil
}

// insertError reports a foreign-key violation on account_id as a missing account.
func insertError(op, accountID string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		err = &storage.NotFoundError{Kind: "account", ID: accountID}
	}
	return &storage.StoreError{Op: op, Err: err}
}

func nullDate(d models.Date) sql.NullInt64 {
	if d.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: d.Unix(), Valid: true}
}

var _ interfaces.LedgerStore = (*PostgresLedgerStore)(nil)
