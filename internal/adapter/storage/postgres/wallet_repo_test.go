package postgres

import (
	"context"
	"testing"
	"time"

	"wallet-ledger-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoredWallet(customerID uuid.UUID) *domain.WalletAccount {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.WalletAccount{
		ID:         uuid.New(),
		CustomerID: customerID,
		Balance:    2500,
		Currency:   "USD",
		Status:     domain.WalletStatusActive,
		Fraud: domain.FraudMetrics{
			TotalRefundsReceived: 2,
			TotalRefundAmount:    300,
			RefundsThisMonth:     1,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func walletTestColumns() []string {
	return []string{
		"id", "customer_id", "balance", "currency", "status",
		"total_refunds_received", "total_refund_amount", "last_refund_date",
		"refunds_this_month", "refunds_last_month", "suspicious_activity_flags",
		"is_flagged", "flag_reason", "last_activity_at", "created_at", "updated_at",
	}
}

func walletRow(w *domain.WalletAccount) *pgxmock.Rows {
	return pgxmock.NewRows(walletTestColumns()).AddRow(
		w.ID, w.CustomerID, w.Balance, w.Currency, w.Status,
		w.Fraud.TotalRefundsReceived, w.Fraud.TotalRefundAmount, w.Fraud.LastRefundDate,
		w.Fraud.RefundsThisMonth, w.Fraud.RefundsLastMonth, w.Fraud.SuspiciousActivityFlags,
		w.Fraud.IsFlagged, w.Fraud.FlagReason, w.LastActivityAt, w.CreatedAt, w.UpdatedAt,
	)
}

func TestWalletRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newStoredWallet(uuid.New())

	mock.ExpectExec("INSERT INTO wallets").
		WithArgs(w.ID, w.CustomerID, w.Balance, w.Currency, w.Status,
			w.Fraud.TotalRefundsReceived, w.Fraud.TotalRefundAmount, w.Fraud.LastRefundDate,
			w.Fraud.RefundsThisMonth, w.Fraud.RefundsLastMonth, w.Fraud.SuspiciousActivityFlags,
			w.Fraud.IsFlagged, w.Fraud.FlagReason, w.LastActivityAt, w.CreatedAt, w.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), w)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByCustomerID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newStoredWallet(uuid.New())

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE customer_id").
		WithArgs(w.CustomerID).
		WillReturnRows(walletRow(w))

	result, err := repo.GetByCustomerID(context.Background(), w.CustomerID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, w.ID, result.ID)
	assert.Equal(t, w.Balance, result.Balance)
	assert.Equal(t, w.Fraud.TotalRefundsReceived, result.Fraud.TotalRefundsReceived)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByCustomerID_Missing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	customerID := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE customer_id").
		WithArgs(customerID).
		WillReturnRows(pgxmock.NewRows(walletTestColumns()))

	result, err := repo.GetByCustomerID(context.Background(), customerID)
	require.NoError(t, err, "a missing wallet is not an error")
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByCustomerIDForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newStoredWallet(uuid.New())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM wallets WHERE customer_id .+ FOR UPDATE").
		WithArgs(w.CustomerID).
		WillReturnRows(walletRow(w))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetByCustomerIDForUpdate(context.Background(), tx, w.CustomerID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, w.ID, result.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_UpdateState(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newStoredWallet(uuid.New())
	w.Fraud.IsFlagged = true
	w.Fraud.FlagReason = "High refund ratio (30.0%)"

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE wallets SET balance").
		WithArgs(w.Balance, w.Status,
			w.Fraud.TotalRefundsReceived, w.Fraud.TotalRefundAmount, w.Fraud.LastRefundDate,
			w.Fraud.RefundsThisMonth, w.Fraud.RefundsLastMonth, w.Fraud.SuspiciousActivityFlags,
			w.Fraud.IsFlagged, w.Fraud.FlagReason, w.LastActivityAt, w.UpdatedAt, w.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdateState(context.Background(), tx, w)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_UpdateState_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newStoredWallet(uuid.New())

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE wallets SET balance").
		WithArgs(w.Balance, w.Status,
			w.Fraud.TotalRefundsReceived, w.Fraud.TotalRefundAmount, w.Fraud.LastRefundDate,
			w.Fraud.RefundsThisMonth, w.Fraud.RefundsLastMonth, w.Fraud.SuspiciousActivityFlags,
			w.Fraud.IsFlagged, w.Fraud.FlagReason, w.LastActivityAt, w.UpdatedAt, w.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdateState(context.Background(), tx, w)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "wallet not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_ListFlagged(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w1 := newStoredWallet(uuid.New())
	w1.Fraud.IsFlagged = true
	w1.Fraud.SuspiciousActivityFlags = 9
	w2 := newStoredWallet(uuid.New())
	w2.Fraud.IsFlagged = true
	w2.Fraud.SuspiciousActivityFlags = 1

	rows := pgxmock.NewRows(walletTestColumns())
	for _, w := range []*domain.WalletAccount{w1, w2} {
		rows.AddRow(
			w.ID, w.CustomerID, w.Balance, w.Currency, w.Status,
			w.Fraud.TotalRefundsReceived, w.Fraud.TotalRefundAmount, w.Fraud.LastRefundDate,
			w.Fraud.RefundsThisMonth, w.Fraud.RefundsLastMonth, w.Fraud.SuspiciousActivityFlags,
			w.Fraud.IsFlagged, w.Fraud.FlagReason, w.LastActivityAt, w.CreatedAt, w.UpdatedAt,
		)
	}

	// The review queue must be ordered worst-offenders-first.
	mock.ExpectQuery("SELECT .+ FROM wallets\\s+WHERE is_flagged ORDER BY suspicious_activity_flags DESC").
		WithArgs(50).
		WillReturnRows(rows)

	wallets, err := repo.ListFlagged(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, wallets, 2)
	assert.Equal(t, w1.ID, wallets[0].ID)
	assert.Equal(t, 9, wallets[0].Fraud.SuspiciousActivityFlags)
	assert.True(t, wallets[1].Fraud.IsFlagged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetStatistics(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\)").
		WillReturnRows(pgxmock.NewRows([]string{
			"count", "sum_balance", "active", "flagged", "refunds", "refund_amount",
		}).AddRow(int64(12), int64(4500), int64(10), int64(2), int64(7), int64(900)))

	stats, err := repo.GetStatistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), stats.TotalWallets)
	assert.Equal(t, int64(4500), stats.TotalBalance)
	assert.Equal(t, int64(10), stats.ActiveWallets)
	assert.Equal(t, int64(2), stats.FlaggedWallets)
	assert.Equal(t, int64(7), stats.TotalRefunds)
	assert.Equal(t, int64(900), stats.TotalRefundAmount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
