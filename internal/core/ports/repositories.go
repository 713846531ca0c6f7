package ports

import (
	"context"

	"wallet-ledger-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

//go:generate mockgen -source=repositories.go -destination=mocks/repositories.go -package=mocks

// WalletRepository defines persistence operations for wallet accounts.
// Methods accepting pgx.Tx are used inside transaction blocks so the
// read-validate-append-write sequence runs under the per-wallet row lock.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.WalletAccount) error
	GetByCustomerID(ctx context.Context, customerID uuid.UUID) (*domain.WalletAccount, error)
	GetByCustomerIDForUpdate(ctx context.Context, tx pgx.Tx, customerID uuid.UUID) (*domain.WalletAccount, error)
	// UpdateState writes balance, status, fraud metrics and activity
	// timestamps within a transaction. The ledger is written separately
	// through LedgerRepository inside the same transaction.
	UpdateState(ctx context.Context, tx pgx.Tx, wallet *domain.WalletAccount) error
	ListFlagged(ctx context.Context, limit int) ([]domain.WalletAccount, error)
	GetStatistics(ctx context.Context) (*WalletStatistics, error)
}

// WalletStatistics holds the cross-wallet aggregate for operational
// dashboards. It is a dedicated read model, never an input to fraud scoring.
type WalletStatistics struct {
	TotalWallets      int64
	TotalBalance      int64
	ActiveWallets     int64
	FlaggedWallets    int64
	TotalRefunds      int64
	TotalRefundAmount int64
}

// LedgerRepository defines persistence for the append-only transaction log.
// Entries are only ever inserted; there is no update or delete.
type LedgerRepository interface {
	Append(ctx context.Context, tx pgx.Tx, entry *domain.Transaction) error
	ListRecent(ctx context.Context, walletID uuid.UUID, limit int) ([]domain.Transaction, error)
	// RefundExists reports whether a refund with this reference was already
	// credited to the customer's wallet. Defense in depth: the workflow is
	// responsible for not re-issuing a refundRef, this catches it anyway.
	RefundExists(ctx context.Context, tx pgx.Tx, customerID uuid.UUID, refundRef string) (bool, error)
	// SumAmounts returns the signed sum of all entries of one wallet,
	// used to audit the balance invariant.
	SumAmounts(ctx context.Context, walletID uuid.UUID) (int64, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
