package postgres

import (
	"context"
	"fmt"

	"wallet-ledger-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LedgerRepo implements ports.LedgerRepository. The wallet_transactions
// table is append-only: this repo only ever inserts and reads.
type LedgerRepo struct {
	pool Pool
}

// NewLedgerRepo creates a new LedgerRepo.
func NewLedgerRepo(pool Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

// Append inserts one ledger entry within a database transaction.
func (r *LedgerRepo) Append(ctx context.Context, tx pgx.Tx, e *domain.Transaction) error {
	query := `INSERT INTO wallet_transactions (id, wallet_id, customer_id, type, amount,
		balance_after, description, order_ref, refund_ref, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := tx.Exec(ctx, query,
		e.ID, e.WalletID, e.CustomerID, e.Type, e.Amount,
		e.BalanceAfter, e.Description, e.OrderRef, e.RefundRef, e.Metadata, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// ListRecent returns the newest entries of a wallet, newest first.
func (r *LedgerRepo) ListRecent(ctx context.Context, walletID uuid.UUID, limit int) ([]domain.Transaction, error) {
	query := `SELECT id, wallet_id, customer_id, type, amount, balance_after,
		description, order_ref, refund_ref, metadata, created_at
		FROM wallet_transactions WHERE wallet_id = $1
		ORDER BY created_at DESC, id DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, walletID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.Transaction
	for rows.Next() {
		var e domain.Transaction
		err := rows.Scan(
			&e.ID, &e.WalletID, &e.CustomerID, &e.Type, &e.Amount, &e.BalanceAfter,
			&e.Description, &e.OrderRef, &e.RefundRef, &e.Metadata, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list recent entries: %w", err)
	}
	return entries, nil
}

// RefundExists reports whether a refund with this reference was already
// credited to the customer's wallet. Called under the wallet row lock, so
// a concurrent duplicate cannot slip between check and insert.
func (r *LedgerRepo) RefundExists(ctx context.Context, tx pgx.Tx, customerID uuid.UUID, refundRef string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM wallet_transactions
		WHERE customer_id = $1 AND refund_ref = $2)`

	var exists bool
	if err := tx.QueryRow(ctx, query, customerID, refundRef).Scan(&exists); err != nil {
		return false, fmt.Errorf("check refund reference: %w", err)
	}
	return exists, nil
}

// SumAmounts returns the signed sum of all entries of one wallet, used to
// audit the balance invariant.
func (r *LedgerRepo) SumAmounts(ctx context.Context, walletID uuid.UUID) (int64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM wallet_transactions WHERE wallet_id = $1`

	var sum int64
	if err := r.pool.QueryRow(ctx, query, walletID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum ledger amounts: %w", err)
	}
	return sum, nil
}
