package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrInsufficientCoins = errors.New("insufficient coins")

type CoinRepo struct {
	pool *pgxpool.Pool
}

type CoinTransactionRecord struct {
	ID        int64
	UserID    int64
	Amount    int
	Reason    string
	CreatedAt time.Time
}

func NewCoinRepo(pool *pgxpool.Pool) *CoinRepo {
	return &CoinRepo{pool: pool}
}

func (r *CoinRepo) Balance(ctx context.Context, userID int64) (int, error) {
	if userID <= 0 {
		return 0, fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return 0, nil
	}

	var balance int
	err := r.pool.QueryRow(ctx, `
SELECT balance
FROM coin_accounts
WHERE user_id = $1
LIMIT 1
`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get coin balance: %w", err)
	}

	return balance, nil
}

func (r *CoinRepo) ensureAccount(ctx context.Context, tx pgx.Tx, userID int64) error {
	if _, err := tx.Exec(ctx, `
INSERT INTO coin_accounts (
	user_id,
	balance,
	updated_at
) VALUES ($1, 0, NOW())
ON CONFLICT (user_id) DO NOTHING
`, userID); err != nil {
		return fmt.Errorf("ensure coin account: %w", err)
	}
	return nil
}

// Debit atomically subtracts amount from the balance and writes a ledger
// row. The guard in the UPDATE keeps the balance from going negative;
// a zero row count means the user cannot afford the amount.
func (r *CoinRepo) Debit(ctx context.Context, tx pgx.Tx, userID int64, amount int, reason string) error {
	if userID <= 0 {
		return fmt.Errorf("invalid user id")
	}
	if amount <= 0 {
		return fmt.Errorf("debit amount must be positive")
	}
	if reason == "" {
		return fmt.Errorf("debit reason is required")
	}
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	if err := r.ensureAccount(ctx, tx, userID); err != nil {
		return err
	}

	result, err := tx.Exec(ctx, `
UPDATE coin_accounts
SET
	balance = balance - $2,
	updated_at = NOW()
WHERE user_id = $1 AND balance >= $2
`, userID, amount)
	if err != nil {
		return fmt.Errorf("debit coins: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrInsufficientCoins
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO coin_transactions (
	user_id,
	amount,
	reason,
	created_at
) VALUES ($1, $2, $3, NOW())
`, userID, -amount, reason); err != nil {
		return fmt.Errorf("record coin debit: %w", err)
	}

	return nil
}

// Credit adds amount to the balance and writes a ledger row.
func (r *CoinRepo) Credit(ctx context.Context, tx pgx.Tx, userID int64, amount int, reason string) (int, error) {
	if userID <= 0 {
		return 0, fmt.Errorf("invalid user id")
	}
	if amount <= 0 {
		return 0, fmt.Errorf("credit amount must be positive")
	}
	if reason == "" {
		return 0, fmt.Errorf("credit reason is required")
	}
	if tx == nil {
		return 0, fmt.Errorf("transaction is required")
	}

	if err := r.ensureAccount(ctx, tx, userID); err != nil {
		return 0, err
	}

	var balance int
	err := tx.QueryRow(ctx, `
UPDATE coin_accounts
SET
	balance = balance + $2,
	updated_at = NOW()
WHERE user_id = $1
RETURNING balance
`, userID, amount).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("credit coins: %w", err)
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO coin_transactions (
	user_id,
	amount,
	reason,
	created_at
) VALUES ($1, $2, $3, NOW())
`, userID, amount, reason); err != nil {
		return 0, fmt.Errorf("record coin credit: %w", err)
	}

	return balance, nil
}

func (r *CoinRepo) ListTransactions(ctx context.Context, userID int64, limit int) ([]CoinTransactionRecord, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	if limit <= 0 {
		limit = 50
	}
	if r.pool == nil {
		return []CoinTransactionRecord{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, user_id, amount, reason, created_at
FROM coin_transactions
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list coin transactions: %w", err)
	}
	defer rows.Close()

	items := make([]CoinTransactionRecord, 0, limit)
	for rows.Next() {
		var item CoinTransactionRecord
		if err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.Amount,
			&item.Reason,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan coin transaction: %w", err)
		}
		items = append(items, item)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate coin transactions: %w", rows.Err())
	}

	return items, nil
}
