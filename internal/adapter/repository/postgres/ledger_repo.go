// Package postgres implements the append-only ledger store on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/corebank/transactor/internal/domain"
)

const pgErrUniqueViolation = "23505"

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// Create appends one ledger row. A reference number that is already
// recorded maps to ErrDuplicateReference; the unique index is what makes
// concurrent same-reference submissions race-safe.
func (r *LedgerRepository) Create(ctx context.Context, txn *domain.Transaction) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO transactions (
			id, account_id, related_account_id, amount, type, status,
			description, reference_number, balance_after, transaction_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		txn.ID,
		txn.AccountID,
		txn.RelatedAccountID,
		txn.Amount,
		string(txn.Type),
		string(txn.Status),
		txn.Description,
		txn.ReferenceNumber,
		txn.BalanceAfter,
		txn.TransactionDate,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
			return domain.ErrDuplicateReference
		}

		return err
	}

	return nil
}

// GetByID retrieves one ledger row.
func (r *LedgerRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row := r.pool.QueryRow(ctx, selectColumns+` FROM transactions WHERE id = $1`, id)

	return scanTransaction(row)
}

// GetByReference retrieves the ledger row recorded for a reference number.
func (r *LedgerRepository) GetByReference(ctx context.Context, referenceNumber string) (*domain.Transaction, error) {
	row := r.pool.QueryRow(ctx, selectColumns+` FROM transactions WHERE reference_number = $1`, referenceNumber)

	return scanTransaction(row)
}

// ListByAccount lists rows where the account is either party.
func (r *LedgerRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, selectColumns+`
		FROM transactions
		WHERE account_id = $1 OR related_account_id = $1
		ORDER BY transaction_date DESC
		LIMIT $2 OFFSET $3`,
		accountID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// ListBetween lists rows within a date range.
func (r *LedgerRepository) ListBetween(ctx context.Context, from, to time.Time, limit, offset int) ([]*domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, selectColumns+`
		FROM transactions
		WHERE transaction_date >= $1 AND transaction_date <= $2
		ORDER BY transaction_date DESC
		LIMIT $3 OFFSET $4`,
		from, to, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTransactions(rows)
}

const selectColumns = `
	SELECT id, account_id, related_account_id, amount, type, status,
	       description, reference_number, balance_after, transaction_date`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		txn          domain.Transaction
		txType       string
		txStatus     string
		amount       decimal.Decimal
		balanceAfter decimal.Decimal
	)

	err := row.Scan(
		&txn.ID,
		&txn.AccountID,
		&txn.RelatedAccountID,
		&amount,
		&txType,
		&txStatus,
		&txn.Description,
		&txn.ReferenceNumber,
		&balanceAfter,
		&txn.TransactionDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	txn.Amount = amount
	txn.BalanceAfter = balanceAfter
	txn.Type = domain.TransactionType(txType)
	txn.Status = domain.TransactionStatus(txStatus)

	return &txn, nil
}

func collectTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	var transactions []*domain.Transaction

	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}

		transactions = append(transactions, txn)
	}

	return transactions, rows.Err()
}
