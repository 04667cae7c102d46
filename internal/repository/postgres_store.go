package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/eaglebank/ledger-service/internal/ledger"
	"github.com/eaglebank/ledger-service/shared/models"
	"github.com/eaglebank/ledger-service/shared/money"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	account_no      BIGSERIAL PRIMARY KEY,
	name            TEXT NOT NULL,
	sort_code       TEXT NOT NULL,
	balance         BIGINT NOT NULL CHECK (balance >= 0),
	opening_balance BIGINT NOT NULL CHECK (opening_balance >= 0),
	currency        TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp()
);

CREATE TABLE IF NOT EXISTS transactions (
	id                 BIGSERIAL PRIMARY KEY,
	account_no         BIGINT NOT NULL REFERENCES accounts (account_no),
	type               TEXT NOT NULL CHECK (type IN ('deposit', 'withdraw', 'transfer_in', 'transfer_out')),
	amount             BIGINT NOT NULL CHECK (amount > 0),
	related_account_no BIGINT REFERENCES accounts (account_no),
	description        TEXT NOT NULL DEFAULT '',
	status             TEXT NOT NULL DEFAULT 'completed',
	created_at         TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_account_id ON transactions (account_no, id);
`

const accountColumns = `account_no, name, sort_code, balance, opening_balance, currency, created_at, updated_at`

// PostgresStore persists the ledger in PostgreSQL. Balance updates and log
// rows for one unit share a single SQL transaction; accounts are locked with
// SELECT ... FOR UPDATE in ascending account_no order.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects with lib/pq and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return NewPostgresStore(db), nil
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the ledger tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return ledger.Storage("migrate", err)
	}
	return nil
}

func (s *PostgresStore) CreateAccount(ctx context.Context, na models.NewAccount) (*models.Account, error) {
	if err := checkNewAccount(na); err != nil {
		return nil, err
	}
	query := `
		INSERT INTO accounts (name, sort_code, balance, opening_balance, currency)
		VALUES ($1, $2, $3, $3, $4)
		RETURNING ` + accountColumns
	row := s.db.QueryRowContext(ctx, query,
		strings.TrimSpace(na.Name), na.SortCode, na.OpeningBalance.Minor(), na.Currency,
	)
	acct, err := scanAccount(row)
	if err != nil {
		return nil, ledger.Storage("create account", err)
	}
	return acct, nil
}

func (s *PostgresStore) GetAccount(ctx context.Context, accountNo int64) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE account_no = $1`, accountNo)
	acct, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ledger.AccountNotFoundError{AccountNo: accountNo}
	}
	if err != nil {
		return nil, ledger.Storage("get account", err)
	}
	return acct, nil
}

func (s *PostgresStore) WithAccounts(ctx context.Context, accountNos []int64, fn func(tx Tx) error) (err error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ledger.Storage("begin", err)
	}
	defer func() {
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()

	rows, err := sqlTx.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE account_no = ANY($1) ORDER BY account_no FOR UPDATE`,
		pq.Array(lockOrder(accountNos)),
	)
	if err != nil {
		return ledger.Storage("lock accounts", err)
	}
	tx := &pgTx{ctx: ctx, tx: sqlTx, staged: make(map[int64]*models.Account, len(accountNos))}
	for rows.Next() {
		acct, scanErr := scanAccount(rows)
		if scanErr != nil {
			rows.Close()
			return ledger.Storage("lock accounts", scanErr)
		}
		tx.staged[acct.AccountNo] = acct
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return ledger.Storage("lock accounts", err)
	}

	for _, no := range accountNos {
		if _, ok := tx.staged[no]; !ok {
			return &ledger.AccountNotFoundError{AccountNo: no}
		}
	}

	if err = fn(tx); err != nil {
		return err
	}
	if err = sqlTx.Commit(); err != nil {
		return ledger.Storage("commit", err)
	}
	return nil
}

func (s *PostgresStore) ListTransactions(ctx context.Context, accountNo int64, opts ListOptions) ([]models.Transaction, error) {
	if _, err := s.GetAccount(ctx, accountNo); err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(`SELECT id, account_no, type, amount, related_account_no, description, status, created_at
		FROM transactions WHERE account_no = $1`)
	args := []any{accountNo}
	asc := normalizeOrder(opts.Order) == OrderAsc
	if opts.Cursor > 0 {
		args = append(args, opts.Cursor)
		if asc {
			b.WriteString(` AND id > $2`)
		} else {
			b.WriteString(` AND id < $2`)
		}
	}
	if asc {
		b.WriteString(` ORDER BY id ASC`)
	} else {
		b.WriteString(` ORDER BY id DESC`)
	}
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		fmt.Fprintf(&b, ` LIMIT $%d`, len(args))
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, ledger.Storage("list transactions", err)
	}
	defer rows.Close()

	out := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		var amount int64
		var related sql.NullInt64
		if err := rows.Scan(&t.ID, &t.AccountNo, &t.Type, &amount, &related, &t.Description, &t.Status, &t.CreatedAt); err != nil {
			return nil, ledger.Storage("scan transaction", err)
		}
		t.Amount = money.FromMinor(amount)
		if related.Valid {
			r := related.Int64
			t.RelatedAccountNo = &r
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.Storage("list transactions", err)
	}
	return out, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type pgTx struct {
	ctx    context.Context
	tx     *sql.Tx
	staged map[int64]*models.Account
}

func (t *pgTx) Account(accountNo int64) (*models.Account, error) {
	acct, ok := t.staged[accountNo]
	if !ok {
		return nil, fmt.Errorf("account %d is not locked in this unit", accountNo)
	}
	out := *acct
	return &out, nil
}

func (t *pgTx) AdjustBalance(accountNo int64, delta money.Amount) (money.Amount, error) {
	acct, ok := t.staged[accountNo]
	if !ok {
		return 0, fmt.Errorf("account %d is not locked in this unit", accountNo)
	}
	if _, err := applyDelta(acct, delta); err != nil {
		return 0, err
	}
	var balance int64
	err := t.tx.QueryRowContext(t.ctx,
		`UPDATE accounts SET balance = balance + $2, updated_at = clock_timestamp()
		 WHERE account_no = $1 RETURNING balance, updated_at`,
		accountNo, delta.Minor(),
	).Scan(&balance, &acct.UpdatedAt)
	if err != nil {
		return 0, ledger.Storage("adjust balance", err)
	}
	acct.Balance = money.FromMinor(balance)
	return acct.Balance, nil
}

func (t *pgTx) Append(entry *models.Transaction) error {
	if _, ok := t.staged[entry.AccountNo]; !ok {
		return fmt.Errorf("account %d is not locked in this unit", entry.AccountNo)
	}
	if entry.Status == "" {
		entry.Status = models.StatusCompleted
	}
	var related sql.NullInt64
	if entry.RelatedAccountNo != nil {
		related = sql.NullInt64{Int64: *entry.RelatedAccountNo, Valid: true}
	}
	// created_at never goes backwards within an account; the row lock makes
	// the max() stable.
	err := t.tx.QueryRowContext(t.ctx, `
		INSERT INTO transactions (account_no, type, amount, related_account_no, description, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, GREATEST(clock_timestamp(),
			COALESCE((SELECT max(created_at) FROM transactions WHERE account_no = $1), '-infinity')))
		RETURNING id, created_at`,
		entry.AccountNo, string(entry.Type), entry.Amount.Minor(), related, entry.Description, entry.Status,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return ledger.Storage("append transaction", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var acct models.Account
	var balance, opening int64
	if err := row.Scan(
		&acct.AccountNo, &acct.Name, &acct.SortCode, &balance, &opening,
		&acct.Currency, &acct.CreatedAt, &acct.UpdatedAt,
	); err != nil {
		return nil, err
	}
	acct.Balance = money.FromMinor(balance)
	acct.OpeningBalance = money.FromMinor(opening)
	return &acct, nil
}
