package postgres

import (
	"context"
	"errors"
	"fmt"

	"wallet-ledger-service/internal/core/domain"
	"wallet-ledger-service/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const walletColumns = `id, customer_id, balance, currency, status,
		total_refunds_received, total_refund_amount, last_refund_date,
		refunds_this_month, refunds_last_month, suspicious_activity_flags,
		is_flagged, flag_reason, last_activity_at, created_at, updated_at`

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts a new wallet. Inserts racing on the same customer resolve
// through the unique index: the loser's insert is a no-op and the caller
// re-reads the winning row.
func (r *WalletRepo) Create(ctx context.Context, w *domain.WalletAccount) error {
	query := `INSERT INTO wallets (id, customer_id, balance, currency, status,
		total_refunds_received, total_refund_amount, last_refund_date,
		refunds_this_month, refunds_last_month, suspicious_activity_flags,
		is_flagged, flag_reason, last_activity_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (customer_id) DO NOTHING`

	_, err := r.pool.Exec(ctx, query,
		w.ID, w.CustomerID, w.Balance, w.Currency, w.Status,
		w.Fraud.TotalRefundsReceived, w.Fraud.TotalRefundAmount, w.Fraud.LastRefundDate,
		w.Fraud.RefundsThisMonth, w.Fraud.RefundsLastMonth, w.Fraud.SuspiciousActivityFlags,
		w.Fraud.IsFlagged, w.Fraud.FlagReason, w.LastActivityAt, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByCustomerID fetches a wallet by customer ID (without locking).
func (r *WalletRepo) GetByCustomerID(ctx context.Context, customerID uuid.UUID) (*domain.WalletAccount, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE customer_id = $1`
	return scanWallet(r.pool.QueryRow(ctx, query, customerID))
}

// GetByCustomerIDForUpdate fetches a wallet with pessimistic locking.
// This MUST be called within a transaction.
func (r *WalletRepo) GetByCustomerIDForUpdate(ctx context.Context, tx pgx.Tx, customerID uuid.UUID) (*domain.WalletAccount, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE customer_id = $1 FOR UPDATE`
	return scanWallet(tx.QueryRow(ctx, query, customerID))
}

// UpdateState writes balance, status, fraud metrics and activity timestamps
// within a transaction. Ledger entries are appended separately through
// LedgerRepo in the same transaction.
func (r *WalletRepo) UpdateState(ctx context.Context, tx pgx.Tx, w *domain.WalletAccount) error {
	query := `UPDATE wallets SET balance = $1, status = $2,
		total_refunds_received = $3, total_refund_amount = $4, last_refund_date = $5,
		refunds_this_month = $6, refunds_last_month = $7, suspicious_activity_flags = $8,
		is_flagged = $9, flag_reason = $10, last_activity_at = $11, updated_at = $12
		WHERE id = $13`

	tag, err := tx.Exec(ctx, query,
		w.Balance, w.Status,
		w.Fraud.TotalRefundsReceived, w.Fraud.TotalRefundAmount, w.Fraud.LastRefundDate,
		w.Fraud.RefundsThisMonth, w.Fraud.RefundsLastMonth, w.Fraud.SuspiciousActivityFlags,
		w.Fraud.IsFlagged, w.Fraud.FlagReason, w.LastActivityAt, w.UpdatedAt,
		w.ID,
	)
	if err != nil {
		return fmt.Errorf("update wallet state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", w.ID)
	}
	return nil
}

// ListFlagged returns wallets awaiting review, worst offenders first:
// ordered by the cumulative suspicious-activity count so a repeat abuser
// outranks a recently touched one-time flag.
func (r *WalletRepo) ListFlagged(ctx context.Context, limit int) ([]domain.WalletAccount, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets
		WHERE is_flagged ORDER BY suspicious_activity_flags DESC, updated_at DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list flagged wallets: %w", err)
	}
	defer rows.Close()

	var wallets []domain.WalletAccount
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list flagged wallets: %w", err)
	}
	return wallets, nil
}

// GetStatistics aggregates across all wallets in one query.
func (r *WalletRepo) GetStatistics(ctx context.Context) (*ports.WalletStatistics, error) {
	query := `SELECT COUNT(*),
		COALESCE(SUM(balance), 0),
		COUNT(*) FILTER (WHERE status = 'ACTIVE'),
		COUNT(*) FILTER (WHERE is_flagged),
		COALESCE(SUM(total_refunds_received), 0),
		COALESCE(SUM(total_refund_amount), 0)
		FROM wallets`

	stats := &ports.WalletStatistics{}
	err := r.pool.QueryRow(ctx, query).Scan(
		&stats.TotalWallets, &stats.TotalBalance, &stats.ActiveWallets,
		&stats.FlaggedWallets, &stats.TotalRefunds, &stats.TotalRefundAmount,
	)
	if err != nil {
		return nil, fmt.Errorf("wallet statistics: %w", err)
	}
	return stats, nil
}

// scanWallet hydrates one wallet row. Returns (nil, nil) when no row matched.
func scanWallet(row pgx.Row) (*domain.WalletAccount, error) {
	w := &domain.WalletAccount{}
	err := row.Scan(
		&w.ID, &w.CustomerID, &w.Balance, &w.Currency, &w.Status,
		&w.Fraud.TotalRefundsReceived, &w.Fraud.TotalRefundAmount, &w.Fraud.LastRefundDate,
		&w.Fraud.RefundsThisMonth, &w.Fraud.RefundsLastMonth, &w.Fraud.SuspiciousActivityFlags,
		&w.Fraud.IsFlagged, &w.Fraud.FlagReason, &w.LastActivityAt, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan wallet: %w", err)
	}
	return w, nil
}
